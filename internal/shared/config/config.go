package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"career-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowOrigin    []string
	DatabaseURL        string
	SQLitePath         string
	RedisURL           string
	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAITimeout      time.Duration
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	UsageWeeklyLimit   int
	BrandName          string
	BrandLogoURL       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience; existing env wins.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL", "env": env})
	}

	return Config{
		Port:               v.GetString("PORT"),
		Env:                env,
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:        dbURL,
		SQLitePath:         strings.TrimSpace(v.GetString("SQLITE_PATH")),
		RedisURL:           strings.TrimSpace(v.GetString("REDIS_URL")),
		LLMProvider:        normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:           v.GetString("LLM_MODEL"),
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:      v.GetString("OPENAI_BASE_URL"),
		OpenAITimeout:      time.Duration(v.GetInt("OPENAI_TIMEOUT_SECONDS")) * time.Second,
		JWTSecret:          v.GetString("JWT_SECRET"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:      v.GetString("UI_REDIRECT_URL"),
		UsageWeeklyLimit:   v.GetInt("USAGE_WEEKLY_LIMIT"),
		BrandName:          v.GetString("BRAND_NAME"),
		BrandLogoURL:       v.GetString("BRAND_LOGO_URL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_TIMEOUT_SECONDS", 120)
	v.SetDefault("USAGE_WEEKLY_LIMIT", 10)
	v.SetDefault("BRAND_NAME", "Sensai")
	v.SetDefault("BRAND_LOGO_URL", "/logo.png")
}

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			telemetry.Info("config.env_file", map[string]any{"path": path})
		}
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "":
		return "none"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}
