package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/gema-autograder/internal/models"
)

// GraderSettingsResponse exposes a teacher's grading configuration with the API key masked.
type GraderSettingsResponse struct {
	GeminiAPIKey         string     `json:"gemini_api_key"`
	HasGeminiKey         bool       `json:"has_gemini_key"`
	ProxyURL             string     `json:"proxy_url"`
	ProxyModel           string     `json:"proxy_model"`
	UseGemini            bool       `json:"use_gemini"`
	UseProxy             bool       `json:"use_proxy"`
	ConstructiveFeedback bool       `json:"constructive_feedback"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// UpdateGraderSettingsRequest changes the fields that are present. An empty key clears it.
type UpdateGraderSettingsRequest struct {
	GeminiAPIKey         *string `json:"gemini_api_key" validate:"omitempty,max=255"`
	ProxyURL             *string `json:"proxy_url" validate:"omitempty,url,max=512"`
	ProxyModel           *string `json:"proxy_model" validate:"omitempty,max=128"`
	UseGemini            *bool   `json:"use_gemini"`
	UseProxy             *bool   `json:"use_proxy"`
	ConstructiveFeedback *bool   `json:"constructive_feedback"`
}

// NewGraderSettingsResponse builds the masked representation of stored settings.
func NewGraderSettingsResponse(settings models.GraderSettings) GraderSettingsResponse {
	response := GraderSettingsResponse{
		GeminiAPIKey:         MaskSecret(settings.GeminiAPIKey),
		HasGeminiKey:         settings.HasGeminiKey(),
		ProxyURL:             settings.ProxyURL,
		ProxyModel:           settings.ProxyModel,
		UseGemini:            settings.UseGemini,
		UseProxy:             settings.UseProxy,
		ConstructiveFeedback: settings.ConstructiveFeedback,
	}
	if !settings.UpdatedAt.IsZero() {
		updated := settings.UpdatedAt.UTC()
		response.UpdatedAt = &updated
	}
	return response
}

// MaskSecret keeps the last four characters of a secret.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
