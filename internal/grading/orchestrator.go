package grading

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-autograder/internal/observability"
	"github.com/noah-isme/gema-autograder/pkg/ai"
)

const (
	backendPrimary   = "primary"
	backendSecondary = "secondary"
)

// Grader grades one submission.
type Grader interface {
	Grade(ctx context.Context, input Input) (Result, error)
}

// Backends builds the two generators from per-call configuration.
type Backends interface {
	Primary(cfg Config) (ai.Generator, error)
	Secondary(cfg Config) (ai.Generator, error)
}

// HTTPBackends builds a Gemini generator as the primary backend and the grading proxy as the secondary.
type HTTPBackends struct {
	GeminiModel    string
	GeminiEndpoint string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

// Primary returns a Gemini generator using the caller's API key.
func (b HTTPBackends) Primary(cfg Config) (ai.Generator, error) {
	return ai.NewGeminiGenerator(ai.GeminiConfig{
		APIKey:     cfg.PrimaryAPIKey,
		Model:      b.GeminiModel,
		Endpoint:   b.GeminiEndpoint,
		HTTPClient: b.HTTPClient,
		Logger:     b.Logger,
	})
}

// Secondary returns a proxy generator for the configured URL.
func (b HTTPBackends) Secondary(cfg Config) (ai.Generator, error) {
	return ai.NewProxyGenerator(ai.ProxyConfig{
		BaseURL:    cfg.SecondaryURL,
		Model:      cfg.SecondaryModel,
		HTTPClient: b.HTTPClient,
		Logger:     b.Logger,
	})
}

// Orchestrator builds the grading prompt, dispatches it with a single primary to secondary
// fallback and parses the response.
type Orchestrator struct {
	backends Backends
	logger   zerolog.Logger
	tracer   trace.Tracer
}

var _ Grader = (*Orchestrator)(nil)

// NewOrchestrator constructs an orchestrator over the given backends.
func NewOrchestrator(backends Backends, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		backends: backends,
		logger:   logger.With().Str("component", "grading_orchestrator").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/gema-autograder/internal/grading"),
	}
}

// Grade produces a Result for one submission.
//
// The primary backend is tried first when enabled. The secondary is tried when it is enabled and
// the primary either failed or returned no parsable grade; its result replaces the primary's only
// if the primary failed or the secondary parsed a grade.
func (o *Orchestrator) Grade(ctx context.Context, input Input) (Result, error) {
	ctx, span := o.tracer.Start(ctx, "grading.grade", trace.WithAttributes(
		attribute.String("grading.submission_id", input.Submission.ID),
		attribute.Bool("grading.use_primary", input.Options.UsePrimary),
		attribute.Bool("grading.use_secondary", input.Options.UseSecondary),
	))
	defer span.End()

	start := time.Now()
	result, err := o.grade(ctx, input)
	observability.GradingDuration().Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		observability.GradingOutcomes().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case result.Graded():
		observability.GradingOutcomes().WithLabelValues("graded").Inc()
		span.SetAttributes(attribute.Float64("grading.grade", *result.Grade), attribute.String("grading.provider", result.Provider))
	default:
		observability.GradingOutcomes().WithLabelValues("ungraded").Inc()
		span.SetAttributes(attribute.String("grading.provider", result.Provider))
	}

	return result, err
}

func (o *Orchestrator) grade(ctx context.Context, input Input) (Result, error) {
	text, err := ExtractText(input.Submission)
	if err != nil {
		return Result{}, err
	}

	opts := input.Options
	if !opts.UsePrimary && !opts.UseSecondary {
		return Result{}, &ProviderError{Err: ErrNoBackendEnabled}
	}

	maxPoints := input.Assignment.EffectiveMaxPoints()
	prompt := BuildPrompt(text, input.Assignment, input.Rubric, input.Course, opts.ConstructiveFeedback)
	logger := o.logger.With().Str("submission_id", input.Submission.ID).Logger()

	var (
		result     Result
		haveResult bool
		primaryErr error
	)

	if opts.UsePrimary {
		result, primaryErr = o.attempt(ctx, backendPrimary, input.Config, prompt, maxPoints)
		if primaryErr != nil {
			if !opts.UseSecondary {
				return Result{}, primaryErr
			}
			logger.Warn().Err(primaryErr).Msg("primary grading backend failed, falling back")
			observability.GradingFallbacks().WithLabelValues("error").Inc()
		} else {
			haveResult = true
		}
	}

	if !opts.UseSecondary || (haveResult && result.Graded()) {
		return result, nil
	}

	if haveResult {
		logger.Warn().Str("provider", result.Provider).Msg("primary grading backend returned no grade, trying secondary")
		observability.GradingFallbacks().WithLabelValues("ungraded").Inc()
	}

	secondary, secondaryErr := o.attempt(ctx, backendSecondary, input.Config, prompt, maxPoints)
	switch {
	case secondaryErr == nil && (!haveResult || secondary.Graded()):
		return secondary, nil
	case secondaryErr == nil:
		return result, nil
	case haveResult:
		logger.Warn().Err(secondaryErr).Msg("secondary grading backend failed, keeping primary result")
		return result, nil
	case primaryErr == nil:
		return Result{}, secondaryErr
	default:
		return Result{}, &ProviderError{Err: errors.Join(primaryErr, secondaryErr)}
	}
}

func (o *Orchestrator) attempt(ctx context.Context, backend string, cfg Config, prompt string, maxPoints float64) (Result, error) {
	generator, err := o.generator(backend, cfg)
	if err != nil {
		return Result{}, err
	}

	text, err := generator.Generate(ctx, ai.Request{
		Prompt:            prompt,
		SystemInstruction: SystemInstruction,
		Profile:           ai.ProfileGrading,
	})
	if err != nil {
		return Result{}, &ProviderError{Backend: generator.Name(), Err: err}
	}

	result := ParseResponse(text, maxPoints)
	result.Provider = generator.Name()
	return result, nil
}

func (o *Orchestrator) generator(backend string, cfg Config) (ai.Generator, error) {
	var (
		generator ai.Generator
		err       error
	)

	switch backend {
	case backendPrimary:
		if strings.TrimSpace(cfg.PrimaryAPIKey) == "" {
			return nil, &ConfigurationError{Backend: backend, Reason: "api key is missing"}
		}
		generator, err = o.backends.Primary(cfg)
	default:
		if strings.TrimSpace(cfg.SecondaryURL) == "" {
			return nil, &ConfigurationError{Backend: backend, Reason: "proxy url is missing"}
		}
		generator, err = o.backends.Secondary(cfg)
	}

	if err != nil {
		return nil, &ConfigurationError{Backend: backend, Reason: err.Error()}
	}
	return generator, nil
}
