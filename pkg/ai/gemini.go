package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel    = "gemini-2.5-flash"
)

// GeminiConfig defines configuration options for the Gemini generator.
type GeminiConfig struct {
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// GeminiGenerator calls the Gemini generateContent REST API with a caller supplied key.
type GeminiGenerator struct {
	cfg    GeminiConfig
	client *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator builds a generator using the provided configuration.
func NewGeminiGenerator(cfg GeminiConfig) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &GeminiGenerator{
		cfg:    cfg,
		client: client,
		tracer: otel.Tracer("github.com/noah-isme/gema-autograder/pkg/ai/gemini"),
		logger: cfg.Logger.With().Str("component", "gemini_generator").Logger(),
	}, nil
}

// Name identifies the provider in logs and metrics.
func (g *GeminiGenerator) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt to Gemini and returns the first candidate's first text part.
func (g *GeminiGenerator) Generate(parent context.Context, req Request) (string, error) {
	model := g.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	ctx, span := g.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("profile", string(req.Profile)),
	))
	defer span.End()

	if strings.TrimSpace(req.Prompt) == "" {
		return "", fail(span, g.Name(), req.Profile, ErrEmptyPrompt)
	}

	sampling := req.sampling()
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     sampling.Temperature,
			TopK:            sampling.TopK,
			TopP:            sampling.TopP,
			MaxOutputTokens: sampling.MaxOutputTokens,
		},
	}
	// The prompt goes out unchanged; the system instruction uses Gemini's own field.
	if strings.TrimSpace(req.SystemInstruction) != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fail(span, g.Name(), req.Profile, fmt.Errorf("gemini marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.Endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fail(span, g.Name(), req.Profile, fmt.Errorf("gemini build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	observe(g.Name(), req.Profile, start)
	if err != nil {
		return "", fail(span, g.Name(), req.Profile, fmt.Errorf("gemini request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Debug().Int("status", resp.StatusCode).Str("body", string(detail)).Msg("gemini returned non-success status")
		return "", fail(span, g.Name(), req.Profile, fmt.Errorf("gemini api error: %s", resp.Status))
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fail(span, g.Name(), req.Profile, fmt.Errorf("gemini decode response: %w", err))
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
