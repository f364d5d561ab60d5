package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-autograder/internal/config"
	"github.com/noah-isme/gema-autograder/internal/database"
	"github.com/noah-isme/gema-autograder/internal/grading"
	"github.com/noah-isme/gema-autograder/internal/handler"
	"github.com/noah-isme/gema-autograder/internal/middleware"
	"github.com/noah-isme/gema-autograder/internal/models"
	"github.com/noah-isme/gema-autograder/internal/repository"
	"github.com/noah-isme/gema-autograder/internal/router"
	"github.com/noah-isme/gema-autograder/internal/service"
	"github.com/noah-isme/gema-autograder/pkg/ai"
	"github.com/noah-isme/gema-autograder/pkg/classroom"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "autograder").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(&models.GraderSettings{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, batch progress is kept in memory")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, progress events will not be published")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	backends := grading.HTTPBackends{
		GeminiModel:    cfg.GeminiModel,
		GeminiEndpoint: cfg.GeminiEndpoint,
		HTTPClient:     httpClient,
		Logger:         logger,
	}
	orchestrator := grading.NewOrchestrator(backends, logger)

	settingsRepo := repository.NewGraderSettingsRepository(db)
	settingsService := service.NewGraderSettingsService(settingsRepo, service.GraderDefaults{
		GeminiAPIKey:         cfg.GeminiAPIKey,
		ProxyURL:             cfg.ProxyURL,
		ProxyModel:           cfg.ProxyModel,
		UseGemini:            cfg.UseGemini,
		UseProxy:             cfg.UseProxy,
		ConstructiveFeedback: cfg.ConstructiveFeedback,
	}, validate, logger)

	classroomClient := classroom.New(classroom.Config{
		BaseURL:    cfg.ClassroomBaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	progressStore := service.NewProgressStore(redisClient, cfg.ProgressTTL, natsConn, cfg.RealtimeChannel, logger)
	gradingService := service.NewGradingService(orchestrator, settingsService, classroomClient, progressStore, validate, logger)
	contentService := service.NewContentService(backends, settingsService, validate, logger)
	proxyService := service.NewProxyService(buildProxyRunners(cfg, httpClient, logger), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 10*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler:  handler.NewGradingHandler(gradingService, 0, logger),
		SettingsHandler: handler.NewGraderSettingsHandler(settingsService, logger),
		ContentHandler:  handler.NewContentHandler(contentService, logger),
		ProxyHandler:    handler.NewProxyHandler(proxyService, logger),
		HealthProbes:    healthProbes(db, redisClient),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
		RoleMiddleware:  middleware.RequireRole,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, gradingService, logger)
}

// buildProxyRunners wires the model runners behind the proxy endpoints. Each is optional.
func buildProxyRunners(cfg config.Config, httpClient *http.Client, logger zerolog.Logger) service.ProxyRunners {
	var runners service.ProxyRunners

	if cfg.WorkerAIBaseURL != "" || cfg.WorkerAIAPIKey != "" {
		gradingRunner, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:    cfg.WorkerAIAPIKey,
			BaseURL:   cfg.WorkerAIBaseURL,
			Model:     cfg.WorkerAIModel,
			MaxTokens: 512,
			Logger:    logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("grading model runner disabled")
		} else {
			runners.Grading = gradingRunner
		}

		generationRunner, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:    cfg.WorkerAIAPIKey,
			BaseURL:   cfg.WorkerAIBaseURL,
			Model:     cfg.WorkerAIModel,
			MaxTokens: 1024,
			Logger:    logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("generation model runner disabled")
		} else {
			runners.Generation = generationRunner
		}
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiGenerator(ai.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			Endpoint:   cfg.GeminiEndpoint,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("gemini passthrough disabled")
		} else {
			runners.Gemini = gemini
			runners.GeminiName = cfg.GeminiModel
		}
	}

	return runners
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.WithContext(ctx).DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, gradingService service.GradingService, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := gradingService.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("batch runs did not stop in time")
	}

	logger.Info().Msg("server stopped")
}
