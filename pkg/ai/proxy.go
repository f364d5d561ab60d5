package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultProxyModel is the model identifier sent to the grading proxy when none is configured.
const DefaultProxyModel = "@cf/microsoft/phi-2"

// ProxyConfig defines configuration options for the proxy generator.
type ProxyConfig struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// ProxyGenerator talks to a keyless grading proxy exposing /grade and /generate.
type ProxyGenerator struct {
	cfg    ProxyConfig
	client *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

var _ Generator = (*ProxyGenerator)(nil)

// NewProxyGenerator builds a proxy generator for the given base URL.
func NewProxyGenerator(cfg ProxyConfig) (*ProxyGenerator, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("proxy: %w", ErrMissingEndpoint)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultProxyModel
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &ProxyGenerator{
		cfg:    cfg,
		client: client,
		tracer: otel.Tracer("github.com/noah-isme/gema-autograder/pkg/ai/proxy"),
		logger: cfg.Logger.With().Str("component", "proxy_generator").Logger(),
	}, nil
}

// Name identifies the provider in logs and metrics.
func (p *ProxyGenerator) Name() string {
	return "proxy"
}

// ProxyRequest is the body accepted by the proxy's /grade and /generate routes.
type ProxyRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// ProxyResponse is the body returned by the proxy's /grade and /generate routes.
type ProxyResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Generate posts the prompt to the proxy and returns its response text.
// The proxy owns its system prompt, so SystemInstruction is ignored.
func (p *ProxyGenerator) Generate(parent context.Context, req Request) (string, error) {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	path := "/grade"
	if req.Profile == ProfileCreative {
		path = "/generate"
	}

	ctx, span := p.tracer.Start(parent, "proxy.generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("path", path),
	))
	defer span.End()

	if strings.TrimSpace(req.Prompt) == "" {
		return "", fail(span, p.Name(), req.Profile, ErrEmptyPrompt)
	}

	body, err := json.Marshal(ProxyRequest{Prompt: req.Prompt, Model: model})
	if err != nil {
		return "", fail(span, p.Name(), req.Profile, fmt.Errorf("proxy marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fail(span, p.Name(), req.Profile, fmt.Errorf("proxy build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	observe(p.Name(), req.Profile, start)
	if err != nil {
		return "", fail(span, p.Name(), req.Profile, fmt.Errorf("proxy request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fail(span, p.Name(), req.Profile, fmt.Errorf("proxy error: %s", resp.Status))
	}

	var payload ProxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fail(span, p.Name(), req.Profile, fmt.Errorf("proxy decode response: %w", err))
	}

	p.logger.Debug().Str("model", model).Int("length", len(payload.Response)).Msg("proxy generation completed")
	return payload.Response, nil
}
