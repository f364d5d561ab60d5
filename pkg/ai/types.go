package ai

import (
	"context"
	"errors"
)

// ErrMissingAPIKey indicates a generator was built without the credential it needs.
var ErrMissingAPIKey = errors.New("api key is required")

// ErrMissingEndpoint indicates a generator was built without a base URL.
var ErrMissingEndpoint = errors.New("endpoint url is required")

// ErrEmptyPrompt indicates the caller sent no prompt text.
var ErrEmptyPrompt = errors.New("prompt is required")

// Profile selects the sampling parameters used for a request.
type Profile string

const (
	// ProfileGrading keeps sampling conservative so grades are stable between runs.
	ProfileGrading Profile = "grading"
	// ProfileCreative is used for assignment and rubric authoring.
	ProfileCreative Profile = "creative"
)

// Sampling holds the generation knobs shared by every provider.
type Sampling struct {
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
}

// Sampling returns the generation parameters for the profile.
func (p Profile) Sampling() Sampling {
	switch p {
	case ProfileCreative:
		return Sampling{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048}
	default:
		return Sampling{Temperature: 0.4, TopK: 32, TopP: 1, MaxOutputTokens: 2048}
	}
}

// Request is a single text generation call.
type Request struct {
	Prompt            string
	SystemInstruction string
	Profile           Profile
	// Model overrides the generator's configured model when set.
	Model string
	// Temperature overrides the profile temperature when set.
	Temperature *float32
}

func (r Request) sampling() Sampling {
	sampling := r.Profile.Sampling()
	if r.Temperature != nil {
		sampling.Temperature = *r.Temperature
	}
	return sampling
}

// Generator describes an AI backend that turns a prompt into raw text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
