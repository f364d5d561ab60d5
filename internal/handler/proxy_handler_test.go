package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/pkg/ai"
)

type echoGenerator struct {
	response string
	err      error
	last     ai.Request
}

func (g *echoGenerator) Name() string { return "stub" }

func (g *echoGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.last = req
	return g.response, g.err
}

func newProxyApp(runners service.ProxyRunners) *fiber.App {
	app := fiber.New()
	h := NewProxyHandler(service.NewProxyService(runners, zerolog.Nop()), zerolog.Nop())
	h.Register(app)
	app.Use(h.NotFound)
	return app
}

func decodeProxyError(t *testing.T, resp *http.Response) dto.ProxyErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body dto.ProxyErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestProxyGradeRequiresPrompt(t *testing.T) {
	app := newProxyApp(service.ProxyRunners{Grading: &echoGenerator{}})

	resp := postJSON(t, app, "/grade", map[string]string{"model": "@cf/microsoft/phi-2"}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Prompt is required", decodeProxyError(t, resp).Error)
}

func TestProxyGradeReturnsModelResponse(t *testing.T) {
	runner := &echoGenerator{response: "GRADE: 7\nFEEDBACK: Solid."}
	app := newProxyApp(service.ProxyRunners{Grading: runner})

	resp := postJSON(t, app, "/grade", ai.ProxyRequest{Prompt: "Grade this"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body ai.ProxyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, "GRADE: 7\nFEEDBACK: Solid.", body.Response)
	require.Equal(t, ai.DefaultProxyModel, body.Model)
	require.Equal(t, ai.ProfileGrading, runner.last.Profile)
}

func TestProxyGenerateWithoutRunner(t *testing.T) {
	app := newProxyApp(service.ProxyRunners{})

	resp := postJSON(t, app, "/generate", ai.ProxyRequest{Prompt: "Write a quiz"}, nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestProxyGeminiErrors(t *testing.T) {
	app := newProxyApp(service.ProxyRunners{})
	resp := postJSON(t, app, "/gemini", dto.GeminiProxyRequest{Prompt: "hi"}, nil)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Gemini API key not configured", decodeProxyError(t, resp).Error)

	failing := newProxyApp(service.ProxyRunners{Gemini: &echoGenerator{err: errors.New("gemini api error: 403 Forbidden")}})
	resp = postJSON(t, failing, "/gemini", dto.GeminiProxyRequest{Prompt: "hi"}, nil)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	body := decodeProxyError(t, resp)
	require.Equal(t, "Gemini API request failed", body.Error)
	require.Contains(t, body.Details, "403")
}

func TestProxyHealthAndNotFound(t *testing.T) {
	app := newProxyApp(service.ProxyRunners{})

	resp, err := app.Test(newRequest(http.MethodGet, "/health"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health dto.ProxyHealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.NotEmpty(t, health.Timestamp)

	resp, err = app.Test(newRequest(http.MethodGet, "/unknown"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Not found", decodeProxyError(t, resp).Error)
}

func newRequest(method, path string) *http.Request {
	req, _ := http.NewRequest(method, "http://example.com"+path, nil)
	return req
}
