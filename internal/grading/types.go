package grading

// DefaultMaxPoints is used when an assignment carries no point value.
const DefaultMaxPoints = 100.0

// AttachmentKind identifies what an attachment reference points at.
type AttachmentKind string

const (
	AttachmentFile  AttachmentKind = "file"
	AttachmentLink  AttachmentKind = "link"
	AttachmentVideo AttachmentKind = "video"
)

// Attachment is a reference to turned-in material. Its content is never fetched.
type Attachment struct {
	Kind  AttachmentKind `json:"kind"`
	Title string         `json:"title"`
	URL   string         `json:"url"`
}

// Submission is one student's turned-in work for an assignment.
type Submission struct {
	ID          string       `json:"id"`
	StudentID   string       `json:"student_id"`
	Submitted   bool         `json:"submitted"`
	Attachments []Attachment `json:"attachments"`
	ShortAnswer string       `json:"short_answer"`
}

// Assignment describes the work being graded.
type Assignment struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MaxPoints   float64 `json:"max_points"`
}

// EffectiveMaxPoints returns MaxPoints, or DefaultMaxPoints when it is unset.
func (a Assignment) EffectiveMaxPoints() float64 {
	if a.MaxPoints <= 0 {
		return DefaultMaxPoints
	}
	return a.MaxPoints
}

// RubricLevel is one achievement level of a criterion.
type RubricLevel struct {
	Title       string  `json:"title"`
	Points      float64 `json:"points"`
	Description string  `json:"description"`
}

// RubricCriterion is a named dimension of assessment.
type RubricCriterion struct {
	Title  string        `json:"title"`
	Levels []RubricLevel `json:"levels"`
}

// Course carries the free-text fields used to infer a grade level.
type Course struct {
	Name        string `json:"name"`
	Section     string `json:"section"`
	Description string `json:"description"`
}

// Options selects backends and the feedback style for one grading call.
type Options struct {
	UsePrimary           bool `json:"use_primary"`
	UseSecondary         bool `json:"use_secondary"`
	ConstructiveFeedback bool `json:"constructive_feedback"`
}

// Config holds the backend credentials for one grading call.
type Config struct {
	PrimaryAPIKey  string
	SecondaryURL   string
	SecondaryModel string
}

// Input is everything needed to grade a single submission.
type Input struct {
	Submission Submission
	Assignment Assignment
	Rubric     []RubricCriterion
	Course     *Course
	Options    Options
	Config     Config
}

// CriterionScore is reserved for per-criterion scoring. It is never populated.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Points    float64 `json:"points"`
}

// Result is the structured outcome of grading one submission.
// A nil Grade means the response could not be parsed, which is distinct from a zero.
type Result struct {
	Grade        *float64         `json:"grade"`
	Feedback     string           `json:"feedback"`
	RubricScores []CriterionScore `json:"rubric_scores"`
	Provider     string           `json:"provider"`
}

// Graded reports whether a numeric grade was parsed.
func (r Result) Graded() bool {
	return r.Grade != nil
}
