package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/agribotics/agribot/pkg/completion"
	"github.com/agribotics/agribot/pkg/config"
	"github.com/agribotics/agribot/pkg/history"
	"github.com/agribotics/agribot/pkg/translate"
)

// Validation errors returned by HandleChat. Their text doubles as the
// detail field of the 400 response, so it is written for end users.
var (
	ErrEmptyQuery   = errors.New("Empty message received")
	ErrQueryTooLong = errors.New("Message too long. Please keep messages under 2000 characters.")
)

// LanguageDetector identifies the language of user text, returning an
// ISO 639-1 code.
type LanguageDetector interface {
	Detect(text string) string
}

// Completer produces a model reply for a user message given recent
// conversation context.
type Completer interface {
	Complete(ctx context.Context, userMessage, imageURL string, turns []history.Turn) completion.Outcome
}

// ChatService orchestrates one chat exchange: validate the message,
// detect its language, normalize it to the working language, run the
// completion, persist the exchange, and translate the reply back.
type ChatService struct {
	// Detector identifies the language of incoming messages.
	Detector LanguageDetector

	// Translator converts between user languages and the working language.
	Translator translate.Translator

	// Completer produces model replies.
	Completer Completer

	// History is the rolling conversation store, kept in the working language.
	History *history.Store

	// Mapper normalizes detector and client language codes to backend format.
	Mapper *translate.LanguageMapper

	// Logger for service operations.
	Logger *logrus.Logger
}

// NewChatService creates a new chat orchestrator.
func NewChatService(detector LanguageDetector, translator translate.Translator, completer Completer, store *history.Store, logger *logrus.Logger) *ChatService {
	if logger == nil {
		logger = logrus.New()
	}

	return &ChatService{
		Detector:   detector,
		Translator: translator,
		Completer:  completer,
		History:    store,
		Mapper:     translate.NewLanguageMapper(),
		Logger:     logger,
	}
}

// HandleChat runs one full chat exchange. Validation failures return an
// error; everything past validation resolves to an outcome whose text is
// already in the user's language. The exchange is persisted only when the
// completion succeeded, and always in the working language.
func (s *ChatService) HandleChat(ctx context.Context, query, imageURL string) (completion.Outcome, error) {
	userText := strings.TrimSpace(query)

	// Validate the message
	if userText == "" {
		s.Logger.Warn("Rejected chat request with empty message")
		recordValidationRejection("empty")
		return completion.Outcome{}, ErrEmptyQuery
	}
	if utf8.RuneCountInString(userText) > config.MaxQueryLength {
		s.Logger.WithFields(logrus.Fields{
			"length": utf8.RuneCountInString(userText),
		}).Warn("Rejected chat request over length limit")
		recordValidationRejection("too_long")
		return completion.Outcome{}, ErrQueryTooLong
	}

	s.Logger.WithFields(logrus.Fields{
		"preview":   preview(userText, 50),
		"has_image": imageURL != "",
	}).Info("Received chat message")
	if imageURL != "" {
		s.Logger.WithFields(logrus.Fields{
			"image_url": preview(imageURL, 50),
		}).Info("Image attached to chat message")
	}

	// Detect the user's language
	userLang := s.Mapper.ToBackendCode(s.Detector.Detect(userText))
	recordDetectedLanguage(userLang)

	// Normalize to the working language
	workingText := userText
	if userLang != config.WorkingLanguage {
		workingText = translate.BestEffort(ctx, s.Translator, s.Logger, userText, userLang, config.WorkingLanguage)
	}

	// Run the completion with recent context
	turns := s.History.Recent(config.ContextWindow)
	outcome := s.Completer.Complete(ctx, workingText, imageURL, turns)

	// Persist the exchange only on success, in the working language
	if !outcome.IsError {
		s.History.Append(workingText, outcome.Text)
	}

	// Deliver successful replies in the user's language; error messages
	// stay in the working language
	if userLang != config.WorkingLanguage && !outcome.IsError {
		outcome.Text = translate.BestEffort(ctx, s.Translator, s.Logger, outcome.Text, config.WorkingLanguage, userLang)
	}

	s.Logger.WithFields(logrus.Fields{
		"error":      outcome.IsError,
		"error_type": string(outcome.Kind),
		"user_lang":  userLang,
	}).Info("Chat response ready")
	recordExchange(outcome)

	return outcome, nil
}

// preview shortens text for log output.
func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
