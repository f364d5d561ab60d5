package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type scriptedGrader struct {
	results map[string]Result
	errs    map[string]error
	calls   []string
}

func (s *scriptedGrader) Grade(_ context.Context, input Input) (Result, error) {
	s.calls = append(s.calls, input.Submission.ID)
	if err := s.errs[input.Submission.ID]; err != nil {
		return Result{}, err
	}
	return s.results[input.Submission.ID], nil
}

type memoryRecorder struct {
	recorded map[string]float64
	fail     map[string]error
}

func (m *memoryRecorder) Record(_ context.Context, submission Submission, result Result) error {
	if err := m.fail[submission.ID]; err != nil {
		return err
	}
	if m.recorded == nil {
		m.recorded = map[string]float64{}
	}
	m.recorded[submission.ID] = *result.Grade
	return nil
}

type memoryReporter struct {
	snapshots []Progress
}

func (m *memoryReporter) Report(_ context.Context, progress Progress) {
	m.snapshots = append(m.snapshots, progress)
}

func gradeOf(v float64) *float64 {
	return &v
}

func TestBatchRunnerContinuesPastFailure(t *testing.T) {
	grader := &scriptedGrader{
		results: map[string]Result{
			"s1": {Grade: gradeOf(80), Provider: "gemini"},
			"s3": {Grade: gradeOf(95), Provider: "gemini"},
		},
		errs: map[string]error{"s2": &ProviderError{Backend: "gemini", Err: errors.New("503")}},
	}
	recorder := &memoryRecorder{}
	reporter := &memoryReporter{}
	runner := NewBatchRunner(grader, recorder, reporter, zerolog.Nop())

	progress := runner.Run(context.Background(), BatchRequest{
		RunID: "run-1",
		Submissions: []Submission{
			{ID: "s1", Submitted: true, ShortAnswer: "a"},
			{ID: "s2", Submitted: true, ShortAnswer: "b"},
			{ID: "s3", Submitted: true, ShortAnswer: "c"},
		},
		Options: Options{UsePrimary: true},
	})

	require.Equal(t, []string{"s1", "s2", "s3"}, grader.calls)
	require.Equal(t, BatchStatusCompleted, progress.Status)
	require.Equal(t, 3, progress.Total)
	require.Equal(t, 3, progress.Processed)
	require.Equal(t, 2, progress.Graded)
	require.Equal(t, 1, progress.Failed)
	require.Len(t, progress.Errors, 1)
	require.Equal(t, "s2", progress.Errors[0].SubmissionID)
	require.Equal(t, map[string]float64{"s1": 80, "s3": 95}, recorder.recorded)

	require.NotEmpty(t, reporter.snapshots)
	last := reporter.snapshots[len(reporter.snapshots)-1]
	require.True(t, last.Done())
	require.Equal(t, 2, last.Graded)
}

func TestBatchRunnerSkipsUnsubmittedAndCountsUngraded(t *testing.T) {
	grader := &scriptedGrader{
		results: map[string]Result{
			"s1": {Feedback: "no number", Provider: "proxy"},
			"s3": {Grade: gradeOf(0), Provider: "proxy"},
		},
	}
	recorder := &memoryRecorder{}
	runner := NewBatchRunner(grader, recorder, nil, zerolog.Nop())

	progress := runner.Run(context.Background(), BatchRequest{
		Submissions: []Submission{
			{ID: "s1", Submitted: true, ShortAnswer: "a"},
			{ID: "s2", Submitted: false, ShortAnswer: "draft"},
			{ID: "s3", Submitted: true, ShortAnswer: "c"},
		},
	})

	require.Equal(t, []string{"s1", "s3"}, grader.calls)
	require.Equal(t, 2, progress.Total)
	require.Equal(t, 1, progress.Ungraded)
	require.Equal(t, 1, progress.Graded)
	require.Equal(t, map[string]float64{"s3": 0}, recorder.recorded)
	require.Len(t, progress.Results, 2)
	require.Nil(t, progress.Results[0].Grade)
}

func TestBatchRunnerRecorderFailureCountsAsFailed(t *testing.T) {
	grader := &scriptedGrader{results: map[string]Result{"s1": {Grade: gradeOf(50)}}}
	recorder := &memoryRecorder{fail: map[string]error{"s1": errors.New("patch rejected")}}
	runner := NewBatchRunner(grader, recorder, nil, zerolog.Nop())

	progress := runner.Run(context.Background(), BatchRequest{
		Submissions: []Submission{{ID: "s1", Submitted: true, ShortAnswer: "a"}},
	})

	require.Equal(t, 0, progress.Graded)
	require.Equal(t, 1, progress.Failed)
	require.Equal(t, "patch rejected", progress.Errors[0].Message)
}

func TestBatchRunnerStopsBetweenItemsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	grader := &scriptedGrader{results: map[string]Result{"s1": {Grade: gradeOf(10)}}}
	reporter := &memoryReporter{}
	runner := NewBatchRunner(grader, nil, reporter, zerolog.Nop())

	cancelAfterFirst := &cancellingGrader{inner: grader, cancel: cancel}
	runner.grader = cancelAfterFirst

	progress := runner.Run(ctx, BatchRequest{
		Submissions: []Submission{
			{ID: "s1", Submitted: true, ShortAnswer: "a"},
			{ID: "s2", Submitted: true, ShortAnswer: "b"},
		},
	})

	require.Equal(t, []string{"s1"}, grader.calls)
	require.Equal(t, BatchStatusCancelled, progress.Status)
	require.Equal(t, 1, progress.Processed)
	require.Equal(t, 1, progress.Graded)
}

type cancellingGrader struct {
	inner  Grader
	cancel context.CancelFunc
}

func (c *cancellingGrader) Grade(ctx context.Context, input Input) (Result, error) {
	defer c.cancel()
	return c.inner.Grade(ctx, input)
}

type interruptedGrader struct {
	cancel  context.CancelFunc
	sawDone bool
}

func (g *interruptedGrader) Grade(ctx context.Context, _ Input) (Result, error) {
	g.cancel()
	g.sawDone = ctx.Err() != nil
	return Result{Grade: gradeOf(70), Provider: "gemini"}, nil
}

func TestBatchRunnerFinishesInFlightItemWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	grader := &interruptedGrader{cancel: cancel}
	recorder := &memoryRecorder{}
	reporter := &memoryReporter{}
	runner := NewBatchRunner(grader, recorder, reporter, zerolog.Nop())

	progress := runner.Run(ctx, BatchRequest{
		RunID:       "run-last",
		Submissions: []Submission{{ID: "s1", Submitted: true, ShortAnswer: "a"}},
	})

	require.False(t, grader.sawDone)
	require.Equal(t, BatchStatusCancelled, progress.Status)
	require.Equal(t, 1, progress.Processed)
	require.Equal(t, 1, progress.Graded)
	require.Equal(t, 0, progress.Failed)
	require.Equal(t, map[string]float64{"s1": 70}, recorder.recorded)

	last := reporter.snapshots[len(reporter.snapshots)-1]
	require.Equal(t, BatchStatusCancelled, last.Status)
	require.True(t, last.Done())
}
