package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/middleware"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/internal/utils"
)

// GraderSettingsHandler exposes the authenticated teacher's grading configuration.
type GraderSettingsHandler struct {
	service service.GraderSettingsService
	logger  zerolog.Logger
}

// NewGraderSettingsHandler constructs the handler.
func NewGraderSettingsHandler(service service.GraderSettingsService, logger zerolog.Logger) *GraderSettingsHandler {
	return &GraderSettingsHandler{
		service: service,
		logger:  logger.With().Str("component", "grader_settings_handler").Logger(),
	}
}

// Register attaches settings endpoints to the router group.
func (h *GraderSettingsHandler) Register(router fiber.Router) {
	router.Get("/settings", h.get)
	router.Put("/settings", h.update)
}

func (h *GraderSettingsHandler) get(c *fiber.Ctx) error {
	settings, err := h.service.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load grader settings")
		return utils.Fail(c, fiber.StatusInternalServerError, utils.CodeInternal, "failed to load settings", nil)
	}
	return utils.OK(c, "settings retrieved", settings)
}

func (h *GraderSettingsHandler) update(c *fiber.Ctx) error {
	var payload dto.UpdateGraderSettingsRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendInvalidBody(c)
	}

	settings, err := h.service.Update(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		if isValidationError(err) {
			return sendValidationError(c, err)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to save grader settings")
		return utils.Fail(c, fiber.StatusInternalServerError, utils.CodeInternal, "failed to save settings", nil)
	}
	return utils.OK(c, "settings updated", settings)
}
