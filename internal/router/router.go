package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-autograder/internal/config"
	"github.com/noah-isme/gema-autograder/internal/handler"
	"github.com/noah-isme/gema-autograder/internal/observability"
	"github.com/noah-isme/gema-autograder/internal/utils"
)

var teacherRoles = []string{"teacher", "admin"}

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler  *handler.GradingHandler
	SettingsHandler *handler.GraderSettingsHandler
	ContentHandler  *handler.ContentHandler
	ProxyHandler    *handler.ProxyHandler
	HealthProbes    map[string]handler.HealthProbe
	JWTMiddleware   fiber.Handler
	RoleMiddleware  func(roles ...string) fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	protected := []fiber.Handler{passThrough}
	if deps.JWTMiddleware != nil {
		protected = []fiber.Handler{deps.JWTMiddleware}
		if deps.RoleMiddleware != nil {
			protected = append(protected, deps.RoleMiddleware(teacherRoles...))
		}
	}

	if deps.GradingHandler != nil || deps.SettingsHandler != nil {
		grading := app.Group("/api/v2/grading", protected...)
		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(grading)
		}
		if deps.SettingsHandler != nil {
			deps.SettingsHandler.Register(grading)
		}
	}

	if deps.ContentHandler != nil {
		content := app.Group("/api/v2/content", protected...)
		deps.ContentHandler.Register(content)
	}

	// The proxy keeps its historical unauthenticated root paths.
	if deps.ProxyHandler != nil {
		deps.ProxyHandler.Register(app)
	}

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") || deps.ProxyHandler == nil {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeNotFound, "route not found", nil)
		}
		return deps.ProxyHandler.NotFound(c)
	})
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}
