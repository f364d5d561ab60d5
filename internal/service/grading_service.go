package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/internal/observability"
	"github.com/noah-isme/gema-autograder/pkg/classroom"
)

// ErrInvalidBatchRequest indicates a batch named neither an inline roster nor a classroom assignment.
var ErrInvalidBatchRequest = errors.New("batch requires submissions with an assignment, or a course_id with a coursework_id")

// ClassroomAPI is the subset of the classroom client used to load and record batches.
type ClassroomAPI interface {
	GetCourse(ctx context.Context, token, courseID string) (classroom.Course, error)
	GetCourseWork(ctx context.Context, token, courseID, courseWorkID string) (classroom.CourseWork, error)
	ListSubmissions(ctx context.Context, token, courseID, courseWorkID string) ([]classroom.StudentSubmission, error)
	ListRubrics(ctx context.Context, token, courseID, courseWorkID string) []classroom.Rubric
	PatchGrade(ctx context.Context, token, courseID, courseWorkID, submissionID string, grade float64) error
}

// GradingService exposes single and batch grading to the HTTP layer.
type GradingService interface {
	Grade(ctx context.Context, userID uint, payload dto.GradeSubmissionRequest) (dto.GradingResultResponse, error)
	StartBatch(ctx context.Context, userID uint, classroomToken string, payload dto.BatchGradeRequest) (dto.BatchStartedResponse, error)
	Progress(ctx context.Context, runID string) (grading.Progress, error)
	Shutdown(ctx context.Context) error
}

type gradingService struct {
	grader    grading.Grader
	settings  GraderSettingsService
	classroom ClassroomAPI
	progress  ProgressStore
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer

	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

// NewGradingService constructs the grading service. Feedback returned by the grader has its
// markup stripped before it leaves the service.
func NewGradingService(grader grading.Grader, settings GraderSettingsService, classroomAPI ClassroomAPI, progress ProgressStore, validate *validator.Validate, logger zerolog.Logger) GradingService {
	runCtx, cancel := context.WithCancel(context.Background())
	return &gradingService{
		grader:    &plainTextGrader{inner: grader, policy: bluemonday.StrictPolicy()},
		settings:  settings,
		classroom: classroomAPI,
		progress:  progress,
		validator: validate,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-autograder/internal/service/grading"),
		runCtx:    runCtx,
		cancelRun: cancel,
	}
}

func (s *gradingService) Grade(ctx context.Context, userID uint, payload dto.GradeSubmissionRequest) (dto.GradingResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradingResultResponse{}, err
	}

	cfg, opts, err := s.settings.Resolve(ctx, userID)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	result, err := s.grader.Grade(ctx, grading.Input{
		Submission: payload.Submission.ToSubmission(),
		Assignment: payload.Assignment.ToAssignment(),
		Rubric:     dto.ToRubric(payload.Rubric),
		Course:     payload.Course.ToCourse(),
		Options:    payload.Options.Apply(opts),
		Config:     cfg,
	})
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	return dto.NewGradingResultResponse(result), nil
}

func (s *gradingService) StartBatch(ctx context.Context, userID uint, classroomToken string, payload dto.BatchGradeRequest) (dto.BatchStartedResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchStartedResponse{}, err
	}

	cfg, opts, err := s.settings.Resolve(ctx, userID)
	if err != nil {
		return dto.BatchStartedResponse{}, err
	}

	runID := uuid.NewString()
	spanCtx, span := s.tracer.Start(ctx, "grading.start_batch", trace.WithAttributes(
		attribute.String("grading.run_id", runID),
		attribute.Bool("grading.classroom", payload.FromClassroom()),
	))
	defer span.End()

	var (
		req      grading.BatchRequest
		recorder grading.Recorder
	)
	if payload.FromClassroom() {
		req, recorder, err = s.classroomBatch(spanCtx, classroomToken, payload)
	} else {
		req, err = inlineBatch(payload)
	}
	if err != nil {
		span.RecordError(err)
		return dto.BatchStartedResponse{}, err
	}
	req.RunID = runID
	req.Options = payload.Options.Apply(opts)
	req.Config = cfg

	runner := grading.NewBatchRunner(s.grader, recorder, s.progress, s.logger)

	total := 0
	for _, submission := range req.Submissions {
		if submission.Submitted {
			total++
		}
	}

	s.logger.Info().
		Str("run_id", runID).
		Uint("user_id", userID).
		Int("total", total).
		Bool("classroom", payload.FromClassroom()).
		Msg("batch grading started")

	observability.BatchesActive().Inc()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer observability.BatchesActive().Dec()
		runner.Run(s.runCtx, req)
	}()

	return dto.BatchStartedResponse{RunID: runID, Status: grading.BatchStatusRunning, Total: total}, nil
}

func (s *gradingService) Progress(ctx context.Context, runID string) (grading.Progress, error) {
	return s.progress.Get(ctx, runID)
}

// Shutdown cancels running batches and waits for them to stop between submissions.
func (s *gradingService) Shutdown(ctx context.Context) error {
	s.cancelRun()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func inlineBatch(payload dto.BatchGradeRequest) (grading.BatchRequest, error) {
	if len(payload.Submissions) == 0 || payload.Assignment == nil {
		return grading.BatchRequest{}, ErrInvalidBatchRequest
	}

	submissions := make([]grading.Submission, 0, len(payload.Submissions))
	for _, submission := range payload.Submissions {
		submissions = append(submissions, submission.ToSubmission())
	}

	return grading.BatchRequest{
		Submissions: submissions,
		Assignment:  payload.Assignment.ToAssignment(),
		Rubric:      dto.ToRubric(payload.Rubric),
		Course:      payload.Course.ToCourse(),
	}, nil
}

func (s *gradingService) classroomBatch(ctx context.Context, token string, payload dto.BatchGradeRequest) (grading.BatchRequest, grading.Recorder, error) {
	courseID := strings.TrimSpace(payload.CourseID)
	courseWorkID := strings.TrimSpace(payload.CourseWorkID)
	if courseID == "" || courseWorkID == "" {
		return grading.BatchRequest{}, nil, ErrInvalidBatchRequest
	}
	if s.classroom == nil {
		return grading.BatchRequest{}, nil, fmt.Errorf("classroom integration is not configured")
	}

	work, err := s.classroom.GetCourseWork(ctx, token, courseID, courseWorkID)
	if err != nil {
		return grading.BatchRequest{}, nil, err
	}

	submissions, err := s.classroom.ListSubmissions(ctx, token, courseID, courseWorkID)
	if err != nil {
		return grading.BatchRequest{}, nil, err
	}

	var course *grading.Course
	if payload.Course != nil {
		course = payload.Course.ToCourse()
	} else if fetched, err := s.classroom.GetCourse(ctx, token, courseID); err == nil {
		course = &grading.Course{Name: fetched.Name, Section: fetched.Section, Description: fetched.Description}
	} else {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("course lookup failed, grading without grade level")
	}

	rubric := dto.ToRubric(payload.Rubric)
	if rubric == nil {
		rubric = classroomRubric(s.classroom.ListRubrics(ctx, token, courseID, courseWorkID))
	}

	req := grading.BatchRequest{
		Submissions: make([]grading.Submission, 0, len(submissions)),
		Assignment: grading.Assignment{
			Title:       work.Title,
			Description: work.Description,
			MaxPoints:   work.MaxPoints,
		},
		Rubric: rubric,
		Course: course,
	}
	for _, submission := range submissions {
		req.Submissions = append(req.Submissions, classroomSubmission(submission))
	}

	recorder := &classroomRecorder{
		client:       s.classroom,
		token:        token,
		courseID:     courseID,
		courseWorkID: courseWorkID,
	}
	return req, recorder, nil
}

func classroomSubmission(submission classroom.StudentSubmission) grading.Submission {
	converted := grading.Submission{
		ID:        submission.ID,
		StudentID: submission.UserID,
		Submitted: submission.TurnedIn(),
	}
	if submission.AssignmentSubmission != nil {
		for _, attachment := range submission.AssignmentSubmission.Attachments {
			switch {
			case attachment.DriveFile != nil:
				converted.Attachments = append(converted.Attachments, grading.Attachment{Kind: grading.AttachmentFile, Title: attachment.DriveFile.Title})
			case attachment.Link != nil:
				converted.Attachments = append(converted.Attachments, grading.Attachment{Kind: grading.AttachmentLink, Title: attachment.Link.Title, URL: attachment.Link.URL})
			case attachment.YouTubeVideo != nil:
				converted.Attachments = append(converted.Attachments, grading.Attachment{Kind: grading.AttachmentVideo, Title: attachment.YouTubeVideo.Title})
			}
		}
	}
	if submission.ShortAnswerSubmission != nil {
		converted.ShortAnswer = submission.ShortAnswerSubmission.Answer
	}
	return converted
}

func classroomRubric(rubrics []classroom.Rubric) []grading.RubricCriterion {
	if len(rubrics) == 0 {
		return nil
	}
	criteria := make([]grading.RubricCriterion, 0, len(rubrics[0].Criteria))
	for _, criterion := range rubrics[0].Criteria {
		levels := make([]grading.RubricLevel, 0, len(criterion.Levels))
		for _, level := range criterion.Levels {
			levels = append(levels, grading.RubricLevel{Title: level.Title, Points: level.Points, Description: level.Description})
		}
		criteria = append(criteria, grading.RubricCriterion{Title: criterion.Title, Levels: levels})
	}
	return criteria
}

// classroomRecorder writes parsed grades back as the assigned and draft grade.
type classroomRecorder struct {
	client       ClassroomAPI
	token        string
	courseID     string
	courseWorkID string
}

func (r *classroomRecorder) Record(ctx context.Context, submission grading.Submission, result grading.Result) error {
	if result.Grade == nil {
		return nil
	}
	return r.client.PatchGrade(ctx, r.token, r.courseID, r.courseWorkID, submission.ID, *result.Grade)
}

// plainTextGrader strips markup from model feedback. The result is plain text.
type plainTextGrader struct {
	inner  grading.Grader
	policy *bluemonday.Policy
}

func (g *plainTextGrader) Grade(ctx context.Context, input grading.Input) (grading.Result, error) {
	result, err := g.inner.Grade(ctx, input)
	if err != nil {
		return result, err
	}
	result.Feedback = strings.TrimSpace(html.UnescapeString(g.policy.Sanitize(result.Feedback)))
	return result, nil
}
