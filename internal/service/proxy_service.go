package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/pkg/ai"
)

const contentSystemPrompt = "You are a helpful assistant for creating educational content."

var (
	// ErrRunnerUnavailable indicates no model runner is configured for the proxy.
	ErrRunnerUnavailable = errors.New("model runner not configured")
	// ErrGeminiKeyMissing indicates the proxy holds no Gemini key.
	ErrGeminiKeyMissing = errors.New("gemini api key not configured")
)

// ProxyRunners holds the model runners served by the proxy endpoints. Any may be nil.
type ProxyRunners struct {
	Grading    ai.Generator
	Generation ai.Generator
	Gemini     ai.Generator
	GeminiName string
}

// ProxyService is the server side of the grading proxy.
type ProxyService interface {
	Grade(ctx context.Context, payload ai.ProxyRequest) (ai.ProxyResponse, error)
	Generate(ctx context.Context, payload ai.ProxyRequest) (ai.ProxyResponse, error)
	Gemini(ctx context.Context, payload dto.GeminiProxyRequest) (ai.ProxyResponse, error)
}

type proxyService struct {
	runners ProxyRunners
	logger  zerolog.Logger
}

// NewProxyService constructs the proxy service.
func NewProxyService(runners ProxyRunners, logger zerolog.Logger) ProxyService {
	if runners.GeminiName == "" {
		runners.GeminiName = "gemini"
	}
	return &proxyService{
		runners: runners,
		logger:  logger.With().Str("component", "proxy_service").Logger(),
	}
}

func (s *proxyService) Grade(ctx context.Context, payload ai.ProxyRequest) (ai.ProxyResponse, error) {
	return s.run(ctx, s.runners.Grading, payload, grading.SystemInstruction, ai.ProfileGrading)
}

func (s *proxyService) Generate(ctx context.Context, payload ai.ProxyRequest) (ai.ProxyResponse, error) {
	return s.run(ctx, s.runners.Generation, payload, contentSystemPrompt, ai.ProfileCreative)
}

func (s *proxyService) Gemini(ctx context.Context, payload dto.GeminiProxyRequest) (ai.ProxyResponse, error) {
	if strings.TrimSpace(payload.Prompt) == "" {
		return ai.ProxyResponse{}, ai.ErrEmptyPrompt
	}
	if s.runners.Gemini == nil {
		return ai.ProxyResponse{}, ErrGeminiKeyMissing
	}

	text, err := s.runners.Gemini.Generate(ctx, ai.Request{
		Prompt:            payload.Prompt,
		SystemInstruction: payload.SystemPrompt,
		Profile:           ai.ProfileCreative,
		Temperature:       payload.Temperature,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("gemini passthrough failed")
		return ai.ProxyResponse{}, err
	}

	return ai.ProxyResponse{Success: true, Response: text, Model: s.runners.GeminiName}, nil
}

func (s *proxyService) run(ctx context.Context, runner ai.Generator, payload ai.ProxyRequest, system string, profile ai.Profile) (ai.ProxyResponse, error) {
	if strings.TrimSpace(payload.Prompt) == "" {
		return ai.ProxyResponse{}, ai.ErrEmptyPrompt
	}
	if runner == nil {
		return ai.ProxyResponse{}, ErrRunnerUnavailable
	}

	model := strings.TrimSpace(payload.Model)
	if model == "" {
		model = ai.DefaultProxyModel
	}

	text, err := runner.Generate(ctx, ai.Request{
		Prompt:            payload.Prompt,
		SystemInstruction: system,
		Profile:           profile,
		Model:             model,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("model", model).Str("profile", string(profile)).Msg("proxy model run failed")
		return ai.ProxyResponse{}, err
	}

	return ai.ProxyResponse{Success: true, Response: text, Model: model}, nil
}
