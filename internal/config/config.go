package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading service.
type Config struct {
	AppName   string
	AppEnv    string
	AppPort   string
	LogLevel  string
	JWTSecret string

	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	RealtimeChannel string

	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string

	ProxyURL   string
	ProxyModel string

	UseGemini            bool
	UseProxy             bool
	ConstructiveFeedback bool

	WorkerAIBaseURL string
	WorkerAIAPIKey  string
	WorkerAIModel   string

	ClassroomBaseURL string
	HTTPTimeout      time.Duration
	ProgressTTL      time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Autograder")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "sqlite://autograder.db")
	v.SetDefault("realtime.channel", "autograder")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("proxy.model", "@cf/microsoft/phi-2")
	v.SetDefault("grading.use_gemini", true)
	v.SetDefault("grading.use_proxy", false)
	v.SetDefault("grading.constructive_feedback", true)
	v.SetDefault("worker_ai.model", "@cf/microsoft/phi-2")
	v.SetDefault("classroom.base_url", "https://classroom.googleapis.com/v1")
	v.SetDefault("http.timeout", "120s")
	v.SetDefault("batch.progress_ttl", "24h")

	timeout, err := parseDuration(v, "http.timeout", 120*time.Second)
	if err != nil {
		return Config{}, err
	}

	progressTTL, err := parseDuration(v, "batch.progress_ttl", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		LogLevel:             strings.ToLower(v.GetString("log.level")),
		JWTSecret:            v.GetString("jwt.secret"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		RealtimeChannel:      v.GetString("realtime.channel"),
		GeminiAPIKey:         v.GetString("gemini.api_key"),
		GeminiModel:          v.GetString("gemini.model"),
		GeminiEndpoint:       v.GetString("gemini.endpoint"),
		ProxyURL:             v.GetString("proxy.url"),
		ProxyModel:           v.GetString("proxy.model"),
		UseGemini:            v.GetBool("grading.use_gemini"),
		UseProxy:             v.GetBool("grading.use_proxy"),
		ConstructiveFeedback: v.GetBool("grading.constructive_feedback"),
		WorkerAIBaseURL:      v.GetString("worker_ai.base_url"),
		WorkerAIAPIKey:       v.GetString("worker_ai.api_key"),
		WorkerAIModel:        v.GetString("worker_ai.model"),
		ClassroomBaseURL:     v.GetString("classroom.base_url"),
		HTTPTimeout:          timeout,
		ProgressTTL:          progressTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}
