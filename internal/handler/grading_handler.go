package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/internal/middleware"
	"github.com/noah-isme/gema-autograder/internal/observability"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/internal/utils"
	"github.com/noah-isme/gema-autograder/pkg/classroom"
)

const (
	classroomTokenHeader = "X-Classroom-Token"
	defaultPollInterval  = 500 * time.Millisecond
)

// GradingHandler exposes single-submission grading and batch runs.
type GradingHandler struct {
	service      service.GradingService
	logger       zerolog.Logger
	pollInterval time.Duration
}

// NewGradingHandler constructs the grading handler. A zero poll interval uses the default.
func NewGradingHandler(service service.GradingService, pollInterval time.Duration, logger zerolog.Logger) *GradingHandler {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &GradingHandler{
		service:      service,
		logger:       logger.With().Str("component", "grading_handler").Logger(),
		pollInterval: pollInterval,
	}
}

// Register binds grading routes under the provided router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/grade", h.grade)
	router.Post("/batches", h.startBatch)
	router.Get("/batches/:id", h.progress)
	router.Use("/batches/:id/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("request_ctx", c.UserContext())
		return c.Next()
	})
	router.Get("/batches/:id/ws", websocket.New(h.streamProgress))
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendInvalidBody(c)
	}

	result, err := h.service.Grade(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "submission graded"
	if result.Grade == nil {
		message = "no grade found in model response"
	}
	return utils.OK(c, message, result)
}

func (h *GradingHandler) startBatch(c *fiber.Ctx) error {
	var payload dto.BatchGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return sendInvalidBody(c)
	}

	token := strings.TrimSpace(c.Get(classroomTokenHeader))
	started, err := h.service.StartBatch(c.UserContext(), middleware.UserID(c), token, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.Respond(c, fiber.StatusAccepted, "batch started", started)
}

func (h *GradingHandler) progress(c *fiber.Ctx) error {
	progress, err := h.service.Progress(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, "batch progress", progress)
}

// streamProgress pushes a snapshot whenever it changes and closes once the run stops.
func (h *GradingHandler) streamProgress(conn *websocket.Conn) {
	defer conn.Close()

	observability.ProgressSubscribers().Inc()
	defer observability.ProgressSubscribers().Dec()

	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	runID := conn.Params("id")
	logger := h.logger.With().Str("run_id", runID).Logger()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastSent time.Time
	for {
		progress, err := h.service.Progress(ctx, runID)
		switch {
		case errors.Is(err, service.ErrBatchNotFound):
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "batch not found"))
			return
		case err != nil:
			logger.Error().Err(err).Msg("failed to load batch progress")
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "progress unavailable"))
			return
		}

		if !progress.UpdatedAt.Equal(lastSent) {
			payload, err := json.Marshal(progress)
			if err != nil {
				logger.Error().Err(err).Msg("failed to encode batch progress")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug().Err(err).Msg("progress subscriber went away")
				return
			}
			lastSent = progress.UpdatedAt
		}

		if progress.Done() {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(progress.Status)))
			return
		}

		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var (
		providerErr *grading.ProviderError
		apiErr      *classroom.APIError
	)

	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrInvalidBatchRequest):
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, grading.ErrEmptySubmission):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, utils.CodeEmptySubmission, err.Error(), nil)
	case errors.Is(err, grading.ErrNoBackendEnabled), grading.IsConfigurationError(err):
		return utils.Fail(c, fiber.StatusPreconditionFailed, utils.CodeBackendNotConfigured, err.Error(), nil)
	case errors.As(err, &providerErr):
		requestLogger(h.logger, c).Error().Err(err).Msg("grading providers failed")
		return utils.Fail(c, fiber.StatusBadGateway, utils.CodeProviderFailed, "grading provider failed", nil)
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.Fail(c, fiber.StatusNotFound, utils.CodeNotFound, err.Error(), nil)
	case errors.Is(err, classroom.ErrNotAuthenticated):
		return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "classroom access token required", nil)
	case errors.As(err, &apiErr):
		status := fiber.StatusBadGateway
		if apiErr.StatusCode == fiber.StatusUnauthorized || apiErr.StatusCode == fiber.StatusForbidden || apiErr.StatusCode == fiber.StatusNotFound {
			status = apiErr.StatusCode
		}
		return utils.Fail(c, status, "", apiErr.Message, nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("grading request failed")
		return utils.Fail(c, fiber.StatusInternalServerError, utils.CodeInternal, "failed to grade submission", nil)
	}
}
