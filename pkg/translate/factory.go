package translate

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineGoogleWeb uses the public Google Translate web endpoint.
	EngineGoogleWeb EngineType = "google"
	// EngineLibreTranslate uses LibreTranslate as the backend.
	EngineLibreTranslate EngineType = "libretranslate"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// BaseURL is the base URL for the translation engine API.
	// Leave empty to use the engine's default endpoint.
	BaseURL string
	// CacheTTL enables a translation cache in front of the engine when
	// greater than zero. Identical (source, target, text) lookups within
	// the TTL are served from memory.
	CacheTTL time.Duration
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
// This factory function allows switching between different MT backends
// without changing the chat service implementation.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
	}).Info("Creating translator instance")

	var tr Translator
	switch cfg.Engine {
	case EngineGoogleWeb:
		tr = NewGoogleWebClient(cfg.BaseURL, cfg.Logger)
	case EngineLibreTranslate:
		tr = NewLibreTranslateClient(cfg.BaseURL, cfg.Logger)
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}

	if cfg.CacheTTL > 0 {
		tr = NewCachedTranslator(tr, cfg.CacheTTL, cfg.Logger)
	}

	return tr, nil
}

// ParseEngineType parses a string into an EngineType.
// Returns an error if the string is not a valid engine type.
func ParseEngineType(s string) (EngineType, error) {
	switch s {
	case "google", "Google", "GOOGLE":
		return EngineGoogleWeb, nil
	case "libretranslate", "LibreTranslate", "LIBRETRANSLATE":
		return EngineLibreTranslate, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: google, libretranslate)", s)
	}
}
