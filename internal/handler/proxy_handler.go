package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/dto"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/pkg/ai"
)

// ProxyHandler serves the grading proxy wire format. Its responses are bare JSON bodies,
// not the API envelope, so existing proxy clients can talk to it unchanged.
type ProxyHandler struct {
	service service.ProxyService
	logger  zerolog.Logger
}

// NewProxyHandler constructs the handler.
func NewProxyHandler(service service.ProxyService, logger zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: service,
		logger:  logger.With().Str("component", "proxy_handler").Logger(),
	}
}

// Register attaches the proxy endpoints to the router group.
func (h *ProxyHandler) Register(router fiber.Router) {
	router.Post("/grade", h.grade)
	router.Post("/generate", h.generate)
	router.Post("/gemini", h.gemini)
	router.Get("/health", h.health)
}

func (h *ProxyHandler) grade(c *fiber.Ctx) error {
	var payload ai.ProxyRequest
	if err := c.BodyParser(&payload); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid JSON body", "")
	}

	resp, err := h.service.Grade(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(resp)
}

func (h *ProxyHandler) generate(c *fiber.Ctx) error {
	var payload ai.ProxyRequest
	if err := c.BodyParser(&payload); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid JSON body", "")
	}

	resp, err := h.service.Generate(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(resp)
}

func (h *ProxyHandler) gemini(c *fiber.Ctx) error {
	var payload dto.GeminiProxyRequest
	if err := c.BodyParser(&payload); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid JSON body", "")
	}

	resp, err := h.service.Gemini(c.UserContext(), payload)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyPrompt) || errors.Is(err, service.ErrGeminiKeyMissing) {
			return h.handleError(c, err)
		}
		return proxyError(c, fiber.StatusBadGateway, "Gemini API request failed", err.Error())
	}
	return c.JSON(resp)
}

func (h *ProxyHandler) health(c *fiber.Ctx) error {
	return c.JSON(dto.ProxyHealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// NotFound answers unknown paths with the proxy's error body.
func (h *ProxyHandler) NotFound(c *fiber.Ctx) error {
	return proxyError(c, fiber.StatusNotFound, "Not found", "")
}

func (h *ProxyHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ai.ErrEmptyPrompt):
		return proxyError(c, fiber.StatusBadRequest, "Prompt is required", "")
	case errors.Is(err, service.ErrGeminiKeyMissing):
		return proxyError(c, fiber.StatusInternalServerError, "Gemini API key not configured", "")
	case errors.Is(err, service.ErrRunnerUnavailable):
		return proxyError(c, fiber.StatusServiceUnavailable, "Model runner not configured", "")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("proxy request failed")
		return proxyError(c, fiber.StatusInternalServerError, err.Error(), "")
	}
}

func proxyError(c *fiber.Ctx, status int, message, details string) error {
	return c.Status(status).JSON(dto.ProxyErrorResponse{Error: message, Details: details})
}
