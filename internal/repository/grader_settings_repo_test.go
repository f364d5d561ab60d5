package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-autograder/internal/models"
)

func setupSettingsDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GraderSettings{}))
	return db
}

func TestGraderSettingsRepositoryUpsert(t *testing.T) {
	repo := NewGraderSettingsRepository(setupSettingsDB(t))
	ctx := context.Background()

	_, err := repo.GetByUser(ctx, 7)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	first := models.GraderSettings{UserID: 7, GeminiAPIKey: "k1", UseGemini: true, ConstructiveFeedback: true}
	require.NoError(t, repo.Upsert(ctx, &first))

	second := models.GraderSettings{UserID: 7, ProxyURL: "https://proxy.example", UseProxy: true}
	require.NoError(t, repo.Upsert(ctx, &second))

	stored, err := repo.GetByUser(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "", stored.GeminiAPIKey)
	require.Equal(t, "https://proxy.example", stored.ProxyURL)
	require.False(t, stored.UseGemini)
	require.True(t, stored.UseProxy)
	require.False(t, stored.ConstructiveFeedback)
}
