package service

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/internal/models"
	"github.com/noah-isme/gema-autograder/internal/repository"
	"github.com/noah-isme/gema-autograder/pkg/ai"
	"github.com/noah-isme/gema-autograder/pkg/classroom"
)

type stubGenerator struct {
	name     string
	response string
	err      error

	mu       sync.Mutex
	requests []ai.Request
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.response, g.err
}

type stubBackends struct {
	primary   ai.Generator
	secondary ai.Generator
}

func (b stubBackends) Primary(grading.Config) (ai.Generator, error)   { return b.primary, nil }
func (b stubBackends) Secondary(grading.Config) (ai.Generator, error) { return b.secondary, nil }

type stubGrader struct {
	mu     sync.Mutex
	inputs []grading.Input
	result func(grading.Input) (grading.Result, error)
}

func (g *stubGrader) Grade(_ context.Context, input grading.Input) (grading.Result, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, input)
	g.mu.Unlock()
	return g.result(input)
}

func (g *stubGrader) calls() []grading.Input {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]grading.Input(nil), g.inputs...)
}

type stubClassroom struct {
	course      classroom.Course
	work        classroom.CourseWork
	submissions []classroom.StudentSubmission
	rubrics     []classroom.Rubric

	mu      sync.Mutex
	patched map[string]float64
}

func (c *stubClassroom) GetCourse(context.Context, string, string) (classroom.Course, error) {
	return c.course, nil
}

func (c *stubClassroom) GetCourseWork(context.Context, string, string, string) (classroom.CourseWork, error) {
	return c.work, nil
}

func (c *stubClassroom) ListSubmissions(_ context.Context, token, _, _ string) ([]classroom.StudentSubmission, error) {
	if token == "" {
		return nil, classroom.ErrNotAuthenticated
	}
	return c.submissions, nil
}

func (c *stubClassroom) ListRubrics(context.Context, string, string, string) []classroom.Rubric {
	return c.rubrics
}

func (c *stubClassroom) PatchGrade(_ context.Context, _, _, _, submissionID string, grade float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.patched == nil {
		c.patched = make(map[string]float64)
	}
	c.patched[submissionID] = grade
	return nil
}

func (c *stubClassroom) patches() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.patched))
	for k, v := range c.patched {
		out[k] = v
	}
	return out
}

func newSettingsService(t *testing.T, defaults GraderDefaults) GraderSettingsService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GraderSettings{}))

	return NewGraderSettingsService(repository.NewGraderSettingsRepository(db), defaults, validator.New(), zerolog.Nop())
}

func float(v float64) *float64 { return &v }
