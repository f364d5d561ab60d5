package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-autograder/internal/config"
	"github.com/noah-isme/gema-autograder/internal/handler"
	"github.com/noah-isme/gema-autograder/internal/middleware"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/internal/utils"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	cfg := config.Config{AppName: "GEMA Autograder", AppEnv: "test"}
	Register(app, cfg, Dependencies{
		ProxyHandler:    handler.NewProxyHandler(service.NewProxyService(service.ProxyRunners{}, zerolog.Nop()), zerolog.Nop()),
		SettingsHandler: handler.NewGraderSettingsHandler(nil, zerolog.Nop()),
		JWTMiddleware:   middleware.JWTProtected("secret"),
		RoleMiddleware:  middleware.RequireRole,
	})
	return app
}

func TestRegisterHealthAndMetrics(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "GEMA Autograder", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterProtectsGradingRoutes(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/grading/settings", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterNotFoundShapes(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/unknown", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, utils.CodeNotFound, envelope.Error)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var proxyErr map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&proxyErr))
	require.Equal(t, "Not found", proxyErr["error"])
}
