package completion

import "fmt"

// ErrorKind classifies a failed completion attempt. The values are
// returned to clients in the error_type field of the chat response and
// must stay stable.
type ErrorKind string

const (
	KindConfigurationError  ErrorKind = "configuration_error"
	KindUnexpectedFormat    ErrorKind = "unexpected_format"
	KindInsufficientCredits ErrorKind = "insufficient_credits"
	KindBadRequest          ErrorKind = "bad_request"
	KindAuthenticationError ErrorKind = "authentication_error"
	KindPaymentRequired     ErrorKind = "payment_required"
	KindRateLimit           ErrorKind = "rate_limit"
	KindServerError         ErrorKind = "server_error"
	KindUnknownError        ErrorKind = "unknown_error"
	KindTimeout             ErrorKind = "timeout"
	KindConnectionError     ErrorKind = "connection_error"
	KindUnexpectedError     ErrorKind = "unexpected_error"
)

// kindMessages holds the fixed user-facing text for each error kind.
// KindUnknownError is absent because its message embeds the HTTP status.
var kindMessages = map[ErrorKind]string{
	KindConfigurationError: "I apologize, but the AI service is currently unavailable. " +
		"Please contact the administrator to configure the API key.",
	KindUnexpectedFormat: "I received an unexpected response format. Please try again.",
	KindInsufficientCredits: "I apologize, but the AI service credits have been exhausted. " +
		"Please contact the administrator to add more credits to OpenRouter.",
	KindBadRequest: "I encountered an issue processing your request. " +
		"Please try rephrasing your question.",
	KindAuthenticationError: "Authentication failed. The API key may be invalid. " +
		"Please contact the administrator.",
	KindPaymentRequired: "The AI service requires payment. Please add credits to your OpenRouter account.",
	KindRateLimit:       "Too many requests. Please wait a moment and try again.",
	KindServerError:     "The AI service is temporarily unavailable. Please try again in a few moments.",
	KindTimeout:         "The request took too long to process. Please try again.",
	KindConnectionError: "Unable to connect to the AI service. Please check your internet connection.",
	KindUnexpectedError: "An unexpected error occurred. Please try again later.",
}

// Message returns the fixed user-facing text for the kind, or an empty
// string for kinds without one.
func (k ErrorKind) Message() string {
	return kindMessages[k]
}

// Outcome is the result of one completion attempt. A successful attempt
// carries the model reply; a failed one carries a fixed user-facing
// message and its classification. Callers always get presentable text,
// never a raw error.
type Outcome struct {
	Text    string
	IsError bool
	Kind    ErrorKind
}

// Success wraps a model reply in a successful outcome.
func Success(text string) Outcome {
	return Outcome{Text: text}
}

// Failure returns the outcome for kind with its fixed user-facing message.
func Failure(kind ErrorKind) Outcome {
	return Outcome{
		Text:    kindMessages[kind],
		IsError: true,
		Kind:    kind,
	}
}

// FailureStatus returns the unknown_error outcome for an HTTP status
// that matches no known classification.
func FailureStatus(status int) Outcome {
	return Outcome{
		Text:    fmt.Sprintf("An unexpected error occurred (Status: %d). Please try again.", status),
		IsError: true,
		Kind:    KindUnknownError,
	}
}
