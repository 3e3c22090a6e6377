package translate

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Translator defines the interface for machine translation backends.
// This abstraction allows us to switch between different MT engines
// (Google web endpoint, LibreTranslate, etc.) without changing the
// chat service implementation.
type Translator interface {
	// Translate translates text from source language to target language.
	// sourceLang and targetLang should be in ISO 639-1 format (e.g., "en", "fr").
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// CheckHealth verifies that the translation backend is ready and operational.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns a list of language codes supported by this backend.
	// Returns ISO 639-1 codes (e.g., ["en", "fr", "es"]).
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// LanguageMapper handles conversion between different language code formats.
// Clients and detectors may hand us codes like "EN" or "fr-CA" (BCP 47),
// while backends typically use ISO 639-1 codes like "en" and "fr".
type LanguageMapper struct{}

// NewLanguageMapper creates a new language mapper instance.
func NewLanguageMapper() *LanguageMapper {
	return &LanguageMapper{}
}

// ToBackendCode converts a client language code to backend format.
// Examples:
//   - "EN" -> "en"
//   - "fr-CA" -> "fr"
//   - "en-US" -> "en"
func (lm *LanguageMapper) ToBackendCode(clientLang string) string {
	// Convert to lowercase and extract base language code
	// Handle BCP 47 tags by taking the first part before "-"
	lang := strings.ToLower(strings.TrimSpace(clientLang))

	// Extract base language (before any "-" or "_")
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}

	return lang
}

// BestEffort translates text and falls back to the original text when
// translation cannot help: same source and target language, blank input,
// a failed backend call, or an empty result. Callers on the chat path
// never see a translation error, only the best text available.
func BestEffort(ctx context.Context, tr Translator, logger *logrus.Logger, text, sourceLang, targetLang string) string {
	if logger == nil {
		logger = logrus.New()
	}

	if sourceLang == targetLang {
		return text
	}
	if strings.TrimSpace(text) == "" {
		return text
	}

	translated, err := tr.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"source_lang": sourceLang,
			"target_lang": targetLang,
		}).Warn("Translation failed, falling back to original text")
		return text
	}
	if strings.TrimSpace(translated) == "" {
		logger.WithFields(logrus.Fields{
			"source_lang": sourceLang,
			"target_lang": targetLang,
		}).Warn("Translation returned empty text, falling back to original")
		return text
	}

	return translated
}
