package detect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
	"github.com/sirupsen/logrus"
)

const (
	// FallbackLanguage is returned whenever detection cannot produce a
	// confident result. It matches the working language of the pipeline.
	FallbackLanguage = "en"

	// minTextLength is the shortest input worth running detection on;
	// anything shorter is ambiguous across most language pairs.
	minTextLength = 4

	// maxTextLength caps the text fed to the detector. Detection quality
	// plateaus well before this, so longer inputs only cost CPU.
	maxTextLength = 256
)

// Detector wraps an offline n-gram language detector. It never fails:
// undetectable input falls back to FallbackLanguage.
type Detector struct {
	detector lingua.LanguageDetector
	logger   *logrus.Logger
}

// languages is the detection alphabet: the languages the translation
// backends support and the user base writes in.
var languages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Ukrainian,
	lingua.Hindi,
	lingua.Bengali,
	lingua.Tamil,
	lingua.Telugu,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Arabic,
	lingua.Turkish,
	lingua.Vietnamese,
	lingua.Indonesian,
	lingua.Swahili,
}

// NewDetector builds a Detector with preloaded language models so the first
// request does not pay the model-loading cost.
func NewDetector(logger *logrus.Logger) *Detector {
	if logger == nil {
		logger = logrus.New()
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithPreloadedLanguageModels().
		Build()

	logger.WithFields(logrus.Fields{
		"languages": len(languages),
	}).Info("Language detector initialized")

	return &Detector{detector: detector, logger: logger}
}

// Detect returns the ISO 639-1 code of the text's language, lowercased.
// Empty, too-short, or undetectable input yields FallbackLanguage.
func (d *Detector) Detect(text string) string {
	clean := strings.TrimSpace(text)

	runes := []rune(clean)
	if len(runes) < minTextLength {
		d.logger.WithFields(logrus.Fields{
			"text_length": len(runes),
			"min_length":  minTextLength,
		}).Debug("Text too short for detection, using fallback language")
		return FallbackLanguage
	}
	if len(runes) > maxTextLength {
		clean = string(runes[:maxTextLength])
	}

	language, ok := d.detector.DetectLanguageOf(clean)
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"text_length": len(runes),
		}).Warn("Language detection failed, using fallback language")
		return FallbackLanguage
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		d.logger.WithFields(logrus.Fields{
			"language": language.String(),
		}).Warn("Detected language has no usable ISO code, using fallback language")
		return FallbackLanguage
	}

	d.logger.WithFields(logrus.Fields{
		"language": code,
	}).Info("Detected language")

	return code
}
