package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for an OpenAI-compatible chat endpoint.
// BaseURL may point at Workers AI, Ollama, vLLM or OpenAI itself.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Logger    zerolog.Logger
}

// OpenAIGenerator implements Generator against the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultProxyModel
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-autograder/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// Name identifies the provider in logs and metrics.
func (e *OpenAIGenerator) Name() string {
	return "openai"
}

// Generate sends a system + user message pair and returns the first choice's content.
func (e *OpenAIGenerator) Generate(parent context.Context, req Request) (string, error) {
	model := e.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	ctx, span := e.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("profile", string(req.Profile)),
	))
	defer span.End()

	if strings.TrimSpace(req.Prompt) == "" {
		return "", fail(span, e.Name(), req.Profile, ErrEmptyPrompt)
	}

	sampling := req.sampling()
	maxTokens := sampling.MaxOutputTokens
	if e.cfg.MaxTokens > 0 {
		maxTokens = e.cfg.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: sampling.Temperature,
		Messages:    messages,
	})
	observe(e.Name(), req.Profile, start)
	if err != nil {
		return "", fail(span, e.Name(), req.Profile, fmt.Errorf("openai generate: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", fail(span, e.Name(), req.Profile, fmt.Errorf("no choices returned from openai"))
	}

	e.logger.Debug().Str("model", model).Int("total_tokens", resp.Usage.TotalTokens).Msg("chat completion finished")
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
