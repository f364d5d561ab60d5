package classroom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public classroom REST endpoint.
const DefaultBaseURL = "https://classroom.googleapis.com/v1"

// ErrNotAuthenticated indicates the client was used without an access token.
var ErrNotAuthenticated = errors.New("classroom: not authenticated")

// APIError is returned for non-success responses from the classroom API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classroom api error (%d): %s", e.StatusCode, e.Message)
}

// Config defines configuration options for the classroom client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a thin bearer-token client for the classroom REST API.
type Client struct {
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New constructs a classroom client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		client:  client,
		tracer:  otel.Tracer("github.com/noah-isme/gema-autograder/pkg/classroom"),
		logger:  cfg.Logger.With().Str("component", "classroom_client").Logger(),
	}
}

// GetCourse fetches a course by id.
func (c *Client) GetCourse(ctx context.Context, token, courseID string) (Course, error) {
	var course Course
	err := c.do(ctx, token, http.MethodGet, "/courses/"+url.PathEscape(courseID), nil, &course)
	return course, err
}

// GetCourseWork fetches an assignment by id.
func (c *Client) GetCourseWork(ctx context.Context, token, courseID, courseWorkID string) (CourseWork, error) {
	var work CourseWork
	err := c.do(ctx, token, http.MethodGet, courseWorkPath(courseID, courseWorkID), nil, &work)
	return work, err
}

// ListSubmissions returns every student submission for an assignment, following pagination.
func (c *Client) ListSubmissions(ctx context.Context, token, courseID, courseWorkID string) ([]StudentSubmission, error) {
	var all []StudentSubmission
	pageToken := ""
	for {
		path := courseWorkPath(courseID, courseWorkID) + "/studentSubmissions"
		if pageToken != "" {
			path += "?pageToken=" + url.QueryEscape(pageToken)
		}

		var page struct {
			StudentSubmissions []StudentSubmission `json:"studentSubmissions"`
			NextPageToken      string              `json:"nextPageToken"`
		}
		if err := c.do(ctx, token, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.StudentSubmissions...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListRubrics returns the rubrics attached to an assignment. A failed lookup is treated as
// "no rubric" because grading works without one.
func (c *Client) ListRubrics(ctx context.Context, token, courseID, courseWorkID string) []Rubric {
	var payload struct {
		Rubrics []Rubric `json:"rubrics"`
	}
	if err := c.do(ctx, token, http.MethodGet, courseWorkPath(courseID, courseWorkID)+"/rubrics", nil, &payload); err != nil {
		c.logger.Warn().Err(err).Str("course_work_id", courseWorkID).Msg("no rubrics found for assignment")
		return nil
	}
	return payload.Rubrics
}

// PatchGrade sets the assigned and draft grade of a submission.
func (c *Client) PatchGrade(ctx context.Context, token, courseID, courseWorkID, submissionID string, grade float64) error {
	body := map[string]float64{
		"assignedGrade": grade,
		"draftGrade":    grade,
	}
	path := fmt.Sprintf("%s/studentSubmissions/%s?updateMask=assignedGrade,draftGrade", courseWorkPath(courseID, courseWorkID), url.PathEscape(submissionID))
	return c.do(ctx, token, http.MethodPatch, path, body, nil)
}

func courseWorkPath(courseID, courseWorkID string) string {
	return fmt.Sprintf("/courses/%s/courseWork/%s", url.PathEscape(courseID), url.PathEscape(courseWorkID))
}

func (c *Client) do(parent context.Context, token, method, path string, body, out interface{}) error {
	if strings.TrimSpace(token) == "" {
		return ErrNotAuthenticated
	}

	ctx, span := c.tracer.Start(parent, "classroom.request", trace.WithAttributes(
		attribute.String("http.method", method),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("classroom marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("classroom build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("classroom request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		message := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		err := &APIError{StatusCode: resp.StatusCode, Message: message}
		span.RecordError(err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("classroom decode response: %w", err)
	}
	return nil
}
