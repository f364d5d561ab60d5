package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/pkg/ai"
)

// ErrGenerationFailed indicates neither backend produced content.
var ErrGenerationFailed = errors.New("failed to generate content with AI")

// ContentService drafts assignments and rubrics for teachers.
type ContentService interface {
	GenerateAssignment(ctx context.Context, userID uint, payload dto.GenerateAssignmentRequest) (dto.GeneratedContentResponse, error)
	GenerateRubric(ctx context.Context, userID uint, payload dto.GenerateRubricRequest) (dto.GeneratedContentResponse, error)
}

type contentService struct {
	backends  grading.Backends
	settings  GraderSettingsService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewContentService constructs the content generation service.
func NewContentService(backends grading.Backends, settings GraderSettingsService, validate *validator.Validate, logger zerolog.Logger) ContentService {
	return &contentService{
		backends:  backends,
		settings:  settings,
		validator: validate,
		logger:    logger.With().Str("component", "content_service").Logger(),
	}
}

func (s *contentService) GenerateAssignment(ctx context.Context, userID uint, payload dto.GenerateAssignmentRequest) (dto.GeneratedContentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GeneratedContentResponse{}, err
	}
	return s.generate(ctx, userID, assignmentPrompt(strings.TrimSpace(payload.Topic)))
}

func (s *contentService) GenerateRubric(ctx context.Context, userID uint, payload dto.GenerateRubricRequest) (dto.GeneratedContentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GeneratedContentResponse{}, err
	}
	return s.generate(ctx, userID, rubricPrompt(strings.TrimSpace(payload.Description)))
}

// generate tries the primary backend when a key is configured, then the proxy when a URL is.
// The first backend that answers wins.
func (s *contentService) generate(ctx context.Context, userID uint, prompt string) (dto.GeneratedContentResponse, error) {
	cfg, _, err := s.settings.Resolve(ctx, userID)
	if err != nil {
		return dto.GeneratedContentResponse{}, err
	}

	attempts := []struct {
		name       string
		configured bool
		build      func(grading.Config) (ai.Generator, error)
	}{
		{name: "primary", configured: cfg.PrimaryAPIKey != "", build: s.backends.Primary},
		{name: "secondary", configured: cfg.SecondaryURL != "", build: s.backends.Secondary},
	}

	var failures []error
	for _, attempt := range attempts {
		if !attempt.configured {
			continue
		}
		generator, err := attempt.build(cfg)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		text, err := generator.Generate(ctx, ai.Request{Prompt: prompt, Profile: ai.ProfileCreative})
		if err != nil {
			s.logger.Warn().Err(err).Str("backend", attempt.name).Msg("content generation failed")
			failures = append(failures, err)
			continue
		}
		return dto.GeneratedContentResponse{Content: text, Provider: generator.Name()}, nil
	}

	if len(failures) == 0 {
		return dto.GeneratedContentResponse{}, ErrGenerationFailed
	}
	return dto.GeneratedContentResponse{}, fmt.Errorf("%w: %w", ErrGenerationFailed, errors.Join(failures...))
}

func assignmentPrompt(topic string) string {
	return fmt.Sprintf(`Create a detailed assignment for the following topic: "%s"

Please include:
1. Assignment Title
2. Clear Instructions
3. Learning Objectives
4. Requirements/Deliverables
5. Suggested grading criteria

Format the response in a structured way.`, topic)
}

func rubricPrompt(description string) string {
	return fmt.Sprintf(`Create a detailed grading rubric for the following assignment:

%s

Please create a rubric with:
1. 3-5 key criteria to evaluate
2. For each criterion, provide 4 levels of achievement (Exemplary, Proficient, Developing, Beginning)
3. Point values for each level
4. Clear descriptions for each level

Format the rubric in a structured way that can be used in Google Classroom.`, description)
}
