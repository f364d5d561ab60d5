package dto

// GenerateAssignmentRequest asks for an assignment draft on a topic.
type GenerateAssignmentRequest struct {
	Topic string `json:"topic" validate:"required,min=3,max=500"`
}

// GenerateRubricRequest asks for a rubric for an assignment description.
type GenerateRubricRequest struct {
	Description string `json:"description" validate:"required,min=3,max=8000"`
}

// GeneratedContentResponse carries generated text and the backend that produced it.
type GeneratedContentResponse struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
}
