package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the OpenRouter completion backend. The model slug and request
// bounds are part of the service contract: answers are capped and kept
// low-temperature so they stay factual and reproducible.
const (
	DefaultModel       = "anthropic/claude-sonnet-4.5"
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultSiteURL     = "http://localhost:5173"
	DefaultSiteName    = "AgriBot"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.3

	// WorkingLanguage is the language conversation history is stored and
	// reasoned about in, regardless of the caller's language.
	WorkingLanguage = "en"

	// MaxQueryLength bounds a single chat message, measured after trimming.
	MaxQueryLength = 2000

	// HistoryCap bounds stored conversation turns; oldest are evicted first.
	HistoryCap = 100

	// ContextWindow is how many recent turns are replayed to the model.
	ContextWindow = 5
)

// Config holds all application configuration. It is built once at startup
// and handed to the components that need it.
type Config struct {
	// OpenRouter completion backend.
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	Model             string
	SiteURL           string // sent as HTTP-Referer
	SiteName          string // sent as X-Title
	CompletionTimeout time.Duration
	MaxTokens         int
	Temperature       float64

	// Translation backend.
	TranslateEngine string // "google" or "libretranslate"
	TranslateURL    string // base URL; empty means the engine default

	// HTTP surface.
	AllowedOrigins     []string
	RateLimitPerMinute int
}

// Load builds a Config from environment variables, applying a .env file
// first if one is present. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", DefaultBaseURL),
		Model:             getEnv("OPENROUTER_MODEL", DefaultModel),
		SiteURL:           getEnv("SITE_URL", DefaultSiteURL),
		SiteName:          getEnv("SITE_NAME", DefaultSiteName),
		CompletionTimeout: getDurationEnv("COMPLETION_TIMEOUT", 30*time.Second),
		MaxTokens:         getIntEnv("COMPLETION_MAX_TOKENS", DefaultMaxTokens),
		Temperature:       getFloatEnv("COMPLETION_TEMPERATURE", DefaultTemperature),

		TranslateEngine: getEnv("TRANSLATE_ENGINE", "google"),
		TranslateURL:    getEnv("TRANSLATE_URL", ""),

		AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:3000",
		}),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// APIConfigured reports whether the completion credential is present.
// Its absence degrades the service rather than preventing startup.
func (c *Config) APIConfigured() bool {
	return c.OpenRouterAPIKey != ""
}

// MaskedAPIKey returns the credential in a log-safe form.
func (c *Config) MaskedAPIKey() string {
	if c.OpenRouterAPIKey == "" {
		return ""
	}
	if len(c.OpenRouterAPIKey) <= 20 {
		return "..."
	}
	return c.OpenRouterAPIKey[:15] + "..." + c.OpenRouterAPIKey[len(c.OpenRouterAPIKey)-5:]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
