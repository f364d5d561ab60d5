package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/internal/models"
	"github.com/noah-isme/gema-autograder/internal/repository"
)

// GraderDefaults are the deployment-wide values used until a teacher saves settings.
type GraderDefaults struct {
	GeminiAPIKey         string
	ProxyURL             string
	ProxyModel           string
	UseGemini            bool
	UseProxy             bool
	ConstructiveFeedback bool
}

// GraderSettingsService manages per-teacher grading configuration.
type GraderSettingsService interface {
	Get(ctx context.Context, userID uint) (dto.GraderSettingsResponse, error)
	Update(ctx context.Context, userID uint, payload dto.UpdateGraderSettingsRequest) (dto.GraderSettingsResponse, error)
	Resolve(ctx context.Context, userID uint) (grading.Config, grading.Options, error)
}

type graderSettingsService struct {
	repo      repository.GraderSettingsRepository
	defaults  GraderDefaults
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGraderSettingsService constructs the settings service.
func NewGraderSettingsService(repo repository.GraderSettingsRepository, defaults GraderDefaults, validate *validator.Validate, logger zerolog.Logger) GraderSettingsService {
	return &graderSettingsService{
		repo:      repo,
		defaults:  defaults,
		validator: validate,
		logger:    logger.With().Str("component", "grader_settings_service").Logger(),
	}
}

func (s *graderSettingsService) Get(ctx context.Context, userID uint) (dto.GraderSettingsResponse, error) {
	settings, err := s.load(ctx, userID)
	if err != nil {
		return dto.GraderSettingsResponse{}, err
	}
	return dto.NewGraderSettingsResponse(settings), nil
}

func (s *graderSettingsService) Update(ctx context.Context, userID uint, payload dto.UpdateGraderSettingsRequest) (dto.GraderSettingsResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GraderSettingsResponse{}, err
	}

	settings, err := s.load(ctx, userID)
	if err != nil {
		return dto.GraderSettingsResponse{}, err
	}

	if payload.GeminiAPIKey != nil {
		settings.GeminiAPIKey = strings.TrimSpace(*payload.GeminiAPIKey)
	}
	if payload.ProxyURL != nil {
		settings.ProxyURL = strings.TrimRight(strings.TrimSpace(*payload.ProxyURL), "/")
	}
	if payload.ProxyModel != nil {
		settings.ProxyModel = strings.TrimSpace(*payload.ProxyModel)
	}
	if payload.UseGemini != nil {
		settings.UseGemini = *payload.UseGemini
	}
	if payload.UseProxy != nil {
		settings.UseProxy = *payload.UseProxy
	}
	if payload.ConstructiveFeedback != nil {
		settings.ConstructiveFeedback = *payload.ConstructiveFeedback
	}

	if err := s.repo.Upsert(ctx, &settings); err != nil {
		return dto.GraderSettingsResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Bool("use_gemini", settings.UseGemini).Bool("use_proxy", settings.UseProxy).Msg("grader settings updated")
	return dto.NewGraderSettingsResponse(settings), nil
}

// Resolve turns stored settings into explicit orchestrator configuration. Blank credentials
// fall back to the deployment defaults.
func (s *graderSettingsService) Resolve(ctx context.Context, userID uint) (grading.Config, grading.Options, error) {
	settings, err := s.load(ctx, userID)
	if err != nil {
		return grading.Config{}, grading.Options{}, err
	}

	cfg := grading.Config{
		PrimaryAPIKey:  firstNonEmpty(settings.GeminiAPIKey, s.defaults.GeminiAPIKey),
		SecondaryURL:   firstNonEmpty(settings.ProxyURL, s.defaults.ProxyURL),
		SecondaryModel: firstNonEmpty(settings.ProxyModel, s.defaults.ProxyModel),
	}
	opts := grading.Options{
		UsePrimary:           settings.UseGemini,
		UseSecondary:         settings.UseProxy,
		ConstructiveFeedback: settings.ConstructiveFeedback,
	}
	return cfg, opts, nil
}

func (s *graderSettingsService) load(ctx context.Context, userID uint) (models.GraderSettings, error) {
	settings, err := s.repo.GetByUser(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GraderSettings{}, err
	}

	return models.GraderSettings{
		UserID:               userID,
		UseGemini:            s.defaults.UseGemini,
		UseProxy:             s.defaults.UseProxy,
		ConstructiveFeedback: s.defaults.ConstructiveFeedback,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
