package grading

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BatchStatus describes the lifecycle of a batch run.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// ItemError records why one submission was not graded.
type ItemError struct {
	SubmissionID string `json:"submission_id"`
	Message      string `json:"message"`
}

// ItemResult records the outcome for one attempted submission.
type ItemResult struct {
	SubmissionID string   `json:"submission_id"`
	Grade        *float64 `json:"grade"`
	Feedback     string   `json:"feedback"`
	Provider     string   `json:"provider"`
}

// Progress is a snapshot of a batch run.
type Progress struct {
	RunID     string       `json:"run_id"`
	Status    BatchStatus  `json:"status"`
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Graded    int          `json:"graded"`
	Ungraded  int          `json:"ungraded"`
	Failed    int          `json:"failed"`
	Errors    []ItemError  `json:"errors"`
	Results   []ItemResult `json:"results"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Done reports whether the run has stopped.
func (p Progress) Done() bool {
	return p.Status == BatchStatusCompleted || p.Status == BatchStatusCancelled
}

// Recorder persists a successful grade back to the classroom system.
type Recorder interface {
	Record(ctx context.Context, submission Submission, result Result) error
}

// ProgressReporter receives a snapshot after every processed submission.
type ProgressReporter interface {
	Report(ctx context.Context, progress Progress)
}

// BatchRequest describes one assignment's roster to grade.
type BatchRequest struct {
	RunID       string
	Submissions []Submission
	Assignment  Assignment
	Rubric      []RubricCriterion
	Course      *Course
	Options     Options
	Config      Config
}

// BatchRunner grades a roster one submission at a time. A failure on one submission is
// recorded and the run moves on to the next.
type BatchRunner struct {
	grader   Grader
	recorder Recorder
	reporter ProgressReporter
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewBatchRunner constructs a batch runner. recorder and reporter may be nil.
func NewBatchRunner(grader Grader, recorder Recorder, reporter ProgressReporter, logger zerolog.Logger) *BatchRunner {
	return &BatchRunner{
		grader:   grader,
		recorder: recorder,
		reporter: reporter,
		logger:   logger.With().Str("component", "grading_batch").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/gema-autograder/internal/grading/batch"),
		now:      time.Now,
	}
}

// Run grades every submitted submission in order. Only submitted work counts toward Total.
// Cancellation of ctx is honoured between submissions: a grade already dispatched runs to
// completion and snapshots are still reported after cancellation.
func (r *BatchRunner) Run(ctx context.Context, req BatchRequest) Progress {
	ctx, span := r.tracer.Start(ctx, "grading.batch", trace.WithAttributes(
		attribute.String("grading.run_id", req.RunID),
		attribute.Int("grading.roster_size", len(req.Submissions)),
	))
	defer span.End()

	work := context.WithoutCancel(ctx)
	logger := r.logger.With().Str("run_id", req.RunID).Logger()

	progress := Progress{
		RunID:   req.RunID,
		Status:  BatchStatusRunning,
		Errors:  []ItemError{},
		Results: []ItemResult{},
	}
	for _, submission := range req.Submissions {
		if submission.Submitted {
			progress.Total++
		}
	}
	r.report(work, &progress)

	for _, submission := range req.Submissions {
		if !submission.Submitted {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		r.gradeOne(work, logger, req, submission, &progress)
		progress.Processed++
		r.report(work, &progress)
	}

	progress.Status = BatchStatusCompleted
	if ctx.Err() != nil {
		logger.Warn().Err(ctx.Err()).Int("processed", progress.Processed).Msg("batch cancelled")
		progress.Status = BatchStatusCancelled
	}
	r.report(work, &progress)

	span.SetAttributes(
		attribute.Int("grading.graded", progress.Graded),
		attribute.Int("grading.failed", progress.Failed),
		attribute.String("grading.status", string(progress.Status)),
	)
	logger.Info().
		Int("total", progress.Total).
		Int("graded", progress.Graded).
		Int("ungraded", progress.Ungraded).
		Int("failed", progress.Failed).
		Str("status", string(progress.Status)).
		Msg("batch finished")

	return progress
}

func (r *BatchRunner) gradeOne(ctx context.Context, logger zerolog.Logger, req BatchRequest, submission Submission, progress *Progress) {
	result, err := r.grader.Grade(ctx, Input{
		Submission: submission,
		Assignment: req.Assignment,
		Rubric:     req.Rubric,
		Course:     req.Course,
		Options:    req.Options,
		Config:     req.Config,
	})
	if err != nil {
		logger.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to grade submission")
		progress.Failed++
		progress.Errors = append(progress.Errors, ItemError{SubmissionID: submission.ID, Message: err.Error()})
		return
	}

	progress.Results = append(progress.Results, ItemResult{
		SubmissionID: submission.ID,
		Grade:        result.Grade,
		Feedback:     result.Feedback,
		Provider:     result.Provider,
	})

	if !result.Graded() {
		logger.Warn().Str("submission_id", submission.ID).Str("provider", result.Provider).Msg("no grade found in model response")
		progress.Ungraded++
		return
	}

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, submission, result); err != nil {
			logger.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to record grade")
			progress.Failed++
			progress.Errors = append(progress.Errors, ItemError{SubmissionID: submission.ID, Message: err.Error()})
			return
		}
	}

	progress.Graded++
}

func (r *BatchRunner) report(ctx context.Context, progress *Progress) {
	progress.UpdatedAt = r.now().UTC()
	if r.reporter != nil {
		r.reporter.Report(ctx, *progress)
	}
}
