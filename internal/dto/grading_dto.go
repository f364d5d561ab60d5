package dto

import (
	"strings"

	"github.com/noah-isme/gema-autograder/internal/grading"
)

// AttachmentPayload references a piece of turned-in material.
type AttachmentPayload struct {
	Kind  string `json:"kind" validate:"required,oneof=file link video"`
	Title string `json:"title" validate:"max=512"`
	URL   string `json:"url" validate:"omitempty,url"`
}

// SubmissionPayload is one student's submission. Submitted defaults to true when omitted.
type SubmissionPayload struct {
	ID          string              `json:"id" validate:"required,max=128"`
	StudentID   string              `json:"student_id" validate:"max=128"`
	Submitted   *bool               `json:"submitted"`
	Attachments []AttachmentPayload `json:"attachments" validate:"omitempty,dive"`
	ShortAnswer string              `json:"short_answer" validate:"max=20000"`
}

// AssignmentPayload describes the assignment being graded.
type AssignmentPayload struct {
	Title       string  `json:"title" validate:"required,max=512"`
	Description string  `json:"description" validate:"max=20000"`
	MaxPoints   float64 `json:"max_points" validate:"gte=0"`
}

// RubricLevelPayload is one achievement level of a criterion.
type RubricLevelPayload struct {
	Title       string  `json:"title" validate:"required,max=256"`
	Points      float64 `json:"points"`
	Description string  `json:"description" validate:"max=4000"`
}

// RubricCriterionPayload is one rubric criterion.
type RubricCriterionPayload struct {
	Title  string               `json:"title" validate:"required,max=256"`
	Levels []RubricLevelPayload `json:"levels" validate:"omitempty,dive"`
}

// CoursePayload carries the course fields used for grade level inference.
type CoursePayload struct {
	Name        string `json:"name" validate:"max=512"`
	Section     string `json:"section" validate:"max=512"`
	Description string `json:"description" validate:"max=4000"`
}

// GradingOptionsPayload overrides the stored grader settings for one request.
type GradingOptionsPayload struct {
	UsePrimary           *bool `json:"use_gemini"`
	UseSecondary         *bool `json:"use_proxy"`
	ConstructiveFeedback *bool `json:"constructive_feedback"`
}

// GradeSubmissionRequest grades a single inline submission.
type GradeSubmissionRequest struct {
	Submission SubmissionPayload        `json:"submission"`
	Assignment AssignmentPayload        `json:"assignment"`
	Rubric     []RubricCriterionPayload `json:"rubric" validate:"omitempty,dive"`
	Course     *CoursePayload           `json:"course"`
	Options    *GradingOptionsPayload   `json:"options"`
}

// BatchGradeRequest starts a batch either from inline submissions or from a classroom assignment.
type BatchGradeRequest struct {
	Submissions  []SubmissionPayload      `json:"submissions" validate:"omitempty,dive"`
	Assignment   *AssignmentPayload       `json:"assignment"`
	Rubric       []RubricCriterionPayload `json:"rubric" validate:"omitempty,dive"`
	Course       *CoursePayload           `json:"course"`
	Options      *GradingOptionsPayload   `json:"options"`
	CourseID     string                   `json:"course_id" validate:"max=128"`
	CourseWorkID string                   `json:"coursework_id" validate:"max=128"`
}

// FromClassroom reports whether the batch should be loaded from the classroom API.
func (r BatchGradeRequest) FromClassroom() bool {
	return strings.TrimSpace(r.CourseID) != "" || strings.TrimSpace(r.CourseWorkID) != ""
}

// GradingResultResponse is the outcome of grading one submission.
type GradingResultResponse struct {
	Grade        *float64                 `json:"grade"`
	Feedback     string                   `json:"feedback"`
	RubricScores []grading.CriterionScore `json:"rubric_scores"`
	Provider     string                   `json:"provider"`
}

// BatchStartedResponse acknowledges a batch run.
type BatchStartedResponse struct {
	RunID  string              `json:"run_id"`
	Status grading.BatchStatus `json:"status"`
	Total  int                 `json:"total"`
}

// NewGradingResultResponse maps an orchestrator result into its API shape.
func NewGradingResultResponse(result grading.Result) GradingResultResponse {
	scores := result.RubricScores
	if scores == nil {
		scores = []grading.CriterionScore{}
	}
	return GradingResultResponse{
		Grade:        result.Grade,
		Feedback:     result.Feedback,
		RubricScores: scores,
		Provider:     result.Provider,
	}
}

// ToSubmission converts the payload into the orchestrator's submission type.
func (p SubmissionPayload) ToSubmission() grading.Submission {
	submitted := true
	if p.Submitted != nil {
		submitted = *p.Submitted
	}
	attachments := make([]grading.Attachment, 0, len(p.Attachments))
	for _, attachment := range p.Attachments {
		attachments = append(attachments, grading.Attachment{
			Kind:  grading.AttachmentKind(attachment.Kind),
			Title: strings.TrimSpace(attachment.Title),
			URL:   strings.TrimSpace(attachment.URL),
		})
	}
	return grading.Submission{
		ID:          strings.TrimSpace(p.ID),
		StudentID:   strings.TrimSpace(p.StudentID),
		Submitted:   submitted,
		Attachments: attachments,
		ShortAnswer: p.ShortAnswer,
	}
}

// ToAssignment converts the payload into the orchestrator's assignment type.
func (p AssignmentPayload) ToAssignment() grading.Assignment {
	return grading.Assignment{
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		MaxPoints:   p.MaxPoints,
	}
}

// ToRubric converts rubric payloads into orchestrator criteria.
func ToRubric(payload []RubricCriterionPayload) []grading.RubricCriterion {
	if len(payload) == 0 {
		return nil
	}
	rubric := make([]grading.RubricCriterion, 0, len(payload))
	for _, criterion := range payload {
		levels := make([]grading.RubricLevel, 0, len(criterion.Levels))
		for _, level := range criterion.Levels {
			levels = append(levels, grading.RubricLevel{
				Title:       level.Title,
				Points:      level.Points,
				Description: level.Description,
			})
		}
		rubric = append(rubric, grading.RubricCriterion{Title: criterion.Title, Levels: levels})
	}
	return rubric
}

// ToCourse converts an optional course payload.
func (p *CoursePayload) ToCourse() *grading.Course {
	if p == nil {
		return nil
	}
	return &grading.Course{Name: p.Name, Section: p.Section, Description: p.Description}
}

// Apply overlays the request overrides onto stored options.
func (p *GradingOptionsPayload) Apply(base grading.Options) grading.Options {
	if p == nil {
		return base
	}
	if p.UsePrimary != nil {
		base.UsePrimary = *p.UsePrimary
	}
	if p.UseSecondary != nil {
		base.UseSecondary = *p.UseSecondary
	}
	if p.ConstructiveFeedback != nil {
		base.ConstructiveFeedback = *p.ConstructiveFeedback
	}
	return base
}
