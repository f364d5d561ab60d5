package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/pkg/ai"
)

func TestProxyServiceGradeUsesEducatorPrompt(t *testing.T) {
	runner := &stubGenerator{name: "openai", response: "GRADE: 8\nFEEDBACK: Good"}
	svc := NewProxyService(ProxyRunners{Grading: runner}, zerolog.Nop())

	resp, err := svc.Grade(context.Background(), ai.ProxyRequest{Prompt: "grade this"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, ai.DefaultProxyModel, resp.Model)
	require.Equal(t, "GRADE: 8\nFEEDBACK: Good", resp.Response)

	require.Len(t, runner.requests, 1)
	require.Equal(t, grading.SystemInstruction, runner.requests[0].SystemInstruction)
	require.Equal(t, ai.ProfileGrading, runner.requests[0].Profile)
}

func TestProxyServiceGenerateHonoursModel(t *testing.T) {
	runner := &stubGenerator{name: "openai", response: "draft"}
	svc := NewProxyService(ProxyRunners{Generation: runner}, zerolog.Nop())

	resp, err := svc.Generate(context.Background(), ai.ProxyRequest{Prompt: "write", Model: "@cf/meta/llama-3-8b-instruct"})
	require.NoError(t, err)
	require.Equal(t, "@cf/meta/llama-3-8b-instruct", resp.Model)
	require.Equal(t, ai.ProfileCreative, runner.requests[0].Profile)
	require.Equal(t, contentSystemPrompt, runner.requests[0].SystemInstruction)
}

func TestProxyServiceErrors(t *testing.T) {
	svc := NewProxyService(ProxyRunners{}, zerolog.Nop())

	_, err := svc.Grade(context.Background(), ai.ProxyRequest{})
	require.ErrorIs(t, err, ai.ErrEmptyPrompt)

	_, err = svc.Grade(context.Background(), ai.ProxyRequest{Prompt: "x"})
	require.ErrorIs(t, err, ErrRunnerUnavailable)

	_, err = svc.Gemini(context.Background(), dto.GeminiProxyRequest{Prompt: "x"})
	require.ErrorIs(t, err, ErrGeminiKeyMissing)
}

func TestProxyServiceGeminiPassthrough(t *testing.T) {
	gemini := &stubGenerator{name: "gemini", response: "hello"}
	svc := NewProxyService(ProxyRunners{Gemini: gemini, GeminiName: "gemini-2.5-flash"}, zerolog.Nop())

	temperature := float32(0.2)
	resp, err := svc.Gemini(context.Background(), dto.GeminiProxyRequest{Prompt: "hi", SystemPrompt: "be brief", Temperature: &temperature})
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", resp.Model)
	require.Equal(t, "be brief", gemini.requests[0].SystemInstruction)
	require.Equal(t, float32(0.2), *gemini.requests[0].Temperature)

	gemini.err = errors.New("gemini api error: 401 Unauthorized")
	_, err = svc.Gemini(context.Background(), dto.GeminiProxyRequest{Prompt: "hi"})
	require.Error(t, err)
}
