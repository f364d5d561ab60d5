package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
)

type stubSettingsService struct {
	userID  uint
	updated dto.UpdateGraderSettingsRequest
}

func (s *stubSettingsService) Get(_ context.Context, userID uint) (dto.GraderSettingsResponse, error) {
	s.userID = userID
	return dto.GraderSettingsResponse{GeminiAPIKey: dto.MaskSecret("AIzaSecret9876"), HasGeminiKey: true, UseGemini: true}, nil
}

func (s *stubSettingsService) Update(_ context.Context, userID uint, payload dto.UpdateGraderSettingsRequest) (dto.GraderSettingsResponse, error) {
	s.userID = userID
	s.updated = payload
	if err := validator.New().Struct(payload); err != nil {
		return dto.GraderSettingsResponse{}, err
	}
	return dto.GraderSettingsResponse{UseProxy: payload.UseProxy != nil && *payload.UseProxy}, nil
}

func (s *stubSettingsService) Resolve(context.Context, uint) (grading.Config, grading.Options, error) {
	return grading.Config{}, grading.Options{}, nil
}

func newSettingsApp(svc *stubSettingsService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/grading", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(12))
		return c.Next()
	})
	NewGraderSettingsHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestGetSettingsMasksKey(t *testing.T) {
	svc := &stubSettingsService{}
	app := newSettingsApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/grading/settings", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(12), svc.userID)

	data := decodeEnvelope(t, resp).Data.(map[string]interface{})
	require.Equal(t, "****9876", data["gemini_api_key"])
}

func TestUpdateSettings(t *testing.T) {
	svc := &stubSettingsService{}
	app := newSettingsApp(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v2/grading/settings", bytes.NewBufferString(`{"use_proxy":true,"proxy_url":"https://proxy.example.dev"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.updated.ProxyURL)
	require.Equal(t, "https://proxy.example.dev", *svc.updated.ProxyURL)

	req = httptest.NewRequest(http.MethodPut, "/api/v2/grading/settings", bytes.NewBufferString(`{"proxy_url":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
