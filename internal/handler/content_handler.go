package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/middleware"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/internal/utils"
)

// ContentHandler exposes AI drafting of assignments and rubrics.
type ContentHandler struct {
	service service.ContentService
	logger  zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(service service.ContentService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service: service,
		logger:  logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register attaches content endpoints to the router group.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Post("/assignments", h.assignment)
	router.Post("/rubrics", h.rubric)
}

func (h *ContentHandler) assignment(c *fiber.Ctx) error {
	var payload dto.GenerateAssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendInvalidBody(c)
	}

	result, err := h.service.GenerateAssignment(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, "assignment generated", result)
}

func (h *ContentHandler) rubric(c *fiber.Ctx) error {
	var payload dto.GenerateRubricRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendInvalidBody(c)
	}

	result, err := h.service.GenerateRubric(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, "rubric generated", result)
}

func (h *ContentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrGenerationFailed):
		requestLogger(h.logger, c).Warn().Err(err).Msg("content generation failed")
		return utils.Fail(c, fiber.StatusBadGateway, utils.CodeGenerationFailed, service.ErrGenerationFailed.Error(), nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("content request failed")
		return utils.Fail(c, fiber.StatusInternalServerError, utils.CodeInternal, "failed to generate content", nil)
	}
}
