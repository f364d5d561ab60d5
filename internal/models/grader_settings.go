package models

import "time"

// GraderSettings stores one teacher's grading backend configuration.
type GraderSettings struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	GeminiAPIKey         string    `gorm:"size:255" json:"-"`
	ProxyURL             string    `gorm:"size:512" json:"proxy_url"`
	ProxyModel           string    `gorm:"size:128" json:"proxy_model"`
	UseGemini            bool      `gorm:"not null" json:"use_gemini"`
	UseProxy             bool      `gorm:"not null" json:"use_proxy"`
	ConstructiveFeedback bool      `gorm:"not null" json:"constructive_feedback"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// HasGeminiKey reports whether a Gemini API key has been stored.
func (s GraderSettings) HasGeminiKey() bool {
	return s.GeminiAPIKey != ""
}
