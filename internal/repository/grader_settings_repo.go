package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-autograder/internal/models"
)

// GraderSettingsRepository persists per-teacher grading configuration.
type GraderSettingsRepository interface {
	GetByUser(ctx context.Context, userID uint) (models.GraderSettings, error)
	Upsert(ctx context.Context, settings *models.GraderSettings) error
}

type graderSettingsRepository struct {
	db *gorm.DB
}

// NewGraderSettingsRepository instantiates the repository.
func NewGraderSettingsRepository(db *gorm.DB) GraderSettingsRepository {
	return &graderSettingsRepository{db: db}
}

func (r *graderSettingsRepository) GetByUser(ctx context.Context, userID uint) (models.GraderSettings, error) {
	var settings models.GraderSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return models.GraderSettings{}, err
	}
	return settings, nil
}

func (r *graderSettingsRepository) Upsert(ctx context.Context, settings *models.GraderSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gemini_api_key",
			"proxy_url",
			"proxy_model",
			"use_gemini",
			"use_proxy",
			"constructive_feedback",
			"updated_at",
		}),
	}).Create(settings).Error
}
