package utils

import "github.com/gofiber/fiber/v2"

// Error codes carried in failed responses.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeValidationFailed     = "validation_failed"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeEmptySubmission      = "empty_submission"
	CodeBackendNotConfigured = "backend_not_configured"
	CodeProviderFailed       = "provider_failed"
	CodeGenerationFailed     = "generation_failed"
	CodeUpstreamFailed       = "upstream_failed"
	CodeInternal             = "internal_error"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a 200 success envelope.
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return Respond(c, fiber.StatusOK, message, data)
}

// Respond sends a success envelope using the provided HTTP status code.
func Respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Fail sends an error envelope. An empty code is derived from the status.
func Fail(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}
	if code == "" {
		code = codeForStatus(status)
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Error:   code,
		Details: details,
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return CodeInvalidRequest
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusBadGateway:
		return CodeUpstreamFailed
	default:
		return CodeInternal
	}
}
