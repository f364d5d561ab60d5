package classroom

// SubmissionStateTurnedIn marks a submission the student has handed in.
const SubmissionStateTurnedIn = "TURNED_IN"

// Course is the subset of a classroom course used for grading.
type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Section     string `json:"section"`
	Description string `json:"description"`
}

// CourseWork is the subset of an assignment used for grading.
type CourseWork struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MaxPoints   float64 `json:"maxPoints"`
}

// DriveFile references a file in the student's drive.
type DriveFile struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Link references a URL.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// YouTubeVideo references a video.
type YouTubeVideo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Attachment is one turned-in item. Exactly one field is set.
type Attachment struct {
	DriveFile    *DriveFile    `json:"driveFile,omitempty"`
	Link         *Link         `json:"link,omitempty"`
	YouTubeVideo *YouTubeVideo `json:"youTubeVideo,omitempty"`
}

// StudentSubmission is a student's submission for one assignment.
type StudentSubmission struct {
	ID                   string `json:"id"`
	UserID               string `json:"userId"`
	State                string `json:"state"`
	AssignmentSubmission *struct {
		Attachments []Attachment `json:"attachments"`
	} `json:"assignmentSubmission,omitempty"`
	ShortAnswerSubmission *struct {
		Answer string `json:"answer"`
	} `json:"shortAnswerSubmission,omitempty"`
}

// TurnedIn reports whether the student handed the work in.
func (s StudentSubmission) TurnedIn() bool {
	return s.State == SubmissionStateTurnedIn
}

// Level is one achievement level of a rubric criterion.
type Level struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

// Criterion is one rubric criterion.
type Criterion struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Levels      []Level `json:"levels"`
}

// Rubric groups the criteria attached to an assignment.
type Rubric struct {
	ID       string      `json:"id"`
	Criteria []Criterion `json:"criteria"`
}
