package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agribotics/agribot/pkg/config"
	"github.com/agribotics/agribot/pkg/history"
)

const (
	completionsPath = "/chat/completions"

	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// systemPrompt is the persona and formatting contract sent with every
// completion request.
const systemPrompt = "You are AgriBot, a friendly and knowledgeable agricultural assistant. " +
	"You help farmers and agricultural enthusiasts with questions about crops, " +
	"farming techniques, pest control, soil health, irrigation, weather, " +
	"agricultural equipment, and general agriculture topics. " +
	"\n\n" +
	"IMPORTANT FORMATTING RULES:\n" +
	"- Always structure your responses using markdown formatting\n" +
	"- Use headers (##, ###) to organize main sections\n" +
	"- Use bullet points (-) for lists of items\n" +
	"- Use numbered lists (1., 2., 3.) for sequential steps or procedures\n" +
	"- Use **bold** for emphasis on important terms\n" +
	"- Break content into clear sections with headers\n" +
	"- Keep information practical and actionable\n" +
	"- Make responses easy to scan and read\n" +
	"\n" +
	"Example structure:\n" +
	"## Main Topic\n" +
	"Brief introduction\n\n" +
	"### Subtopic 1\n" +
	"- Point one\n" +
	"- Point two\n\n" +
	"### Subtopic 2\n" +
	"1. First step\n" +
	"2. Second step\n"

// Message is one entry in the conversation sent to the model. Content is
// either a plain string or a list of content parts when an image is
// attached.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// TextContent is the text part of a multi-part user message.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ImageURL carries the image location for an image part.
type ImageURL struct {
	URL string `json:"url"`
}

// ImageContent is the image part of a multi-part user message.
type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

// chatRequest is the OpenRouter chat completions payload.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the subset of the completions response we consume.
// Content is a pointer so a missing or null field is distinguishable
// from a present-but-empty reply.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// apiError is the error envelope OpenRouter returns on non-200 statuses.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the OpenRouter chat completions API.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an OpenRouter client from the service configuration.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.CompletionTimeout,
		},
		logger: logger,
	}
}

// Complete sends the user message to the model and classifies the result.
// The outcome always carries user-facing text; transport and API failures
// map to fixed messages rather than errors so the chat flow can always
// answer.
func (c *Client) Complete(ctx context.Context, userMessage, imageURL string, turns []history.Turn) Outcome {
	startTime := time.Now()
	outcome := c.complete(ctx, userMessage, imageURL, turns)
	recordCompletion(outcome, time.Since(startTime))
	return outcome
}

func (c *Client) complete(ctx context.Context, userMessage, imageURL string, turns []history.Turn) Outcome {
	if !c.cfg.APIConfigured() {
		c.logger.Error("OPENROUTER_API_KEY not configured")
		return Failure(KindConfigurationError)
	}

	payload := chatRequest{
		Model:       c.cfg.Model,
		Messages:    buildMessages(userMessage, imageURL, turns),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	body, err := json.Marshal(&payload)
	if err != nil {
		c.logger.WithError(err).Error("Failed to encode completion request")
		return Failure(KindUnexpectedError)
	}

	url := c.cfg.OpenRouterBaseURL + completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.WithError(err).Error("Failed to create completion request")
		return Failure(KindUnexpectedError)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
	req.Header.Set("X-Title", c.cfg.SiteName)

	c.logger.WithFields(logrus.Fields{
		"model":         c.cfg.Model,
		"history_turns": len(turns),
		"has_image":     imageURL != "",
	}).Info("Sending request to OpenRouter API")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome := classifyTransportError(err)
		c.logger.WithError(err).WithFields(logrus.Fields{
			"error_type": string(outcome.Kind),
		}).Error("Completion request failed")
		return outcome
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("OpenRouter API response received")

	return c.classifyResponse(resp)
}

// buildMessages assembles the conversation: system persona, prior turns
// oldest first, then the current user message with an optional image part.
func buildMessages(userMessage, imageURL string, turns []history.Turn) []Message {
	messages := make([]Message, 0, len(turns)*2+2)
	messages = append(messages, Message{Role: roleSystem, Content: systemPrompt})

	for _, turn := range turns {
		messages = append(messages, Message{Role: roleUser, Content: turn.User})
		messages = append(messages, Message{Role: roleAssistant, Content: turn.Bot})
	}

	if imageURL != "" {
		messages = append(messages, Message{
			Role: roleUser,
			Content: []any{
				TextContent{Type: "text", Text: userMessage},
				ImageContent{Type: "image_url", ImageURL: ImageURL{URL: imageURL}},
			},
		})
	} else {
		messages = append(messages, Message{Role: roleUser, Content: userMessage})
	}

	return messages
}

// classifyTransportError distinguishes a timed-out request from one that
// never reached the API at all.
func classifyTransportError(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return Failure(KindTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Failure(KindTimeout)
	}
	return Failure(KindConnectionError)
}

// classifyResponse maps an HTTP response from OpenRouter to an outcome.
func (c *Client) classifyResponse(resp *http.Response) Outcome {
	switch {
	case resp.StatusCode == http.StatusOK:
		return c.parseSuccess(resp.Body)
	case resp.StatusCode == http.StatusBadRequest:
		return c.classifyBadRequest(resp.Body)
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Error("Authentication failed (401)")
		return Failure(KindAuthenticationError)
	case resp.StatusCode == http.StatusPaymentRequired:
		c.logger.Error("Payment required (402)")
		return Failure(KindPaymentRequired)
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Error("Rate limit exceeded (429)")
		return Failure(KindRateLimit)
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Error("Server error from OpenRouter")
		return Failure(KindServerError)
	default:
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Error("Unexpected status code from OpenRouter")
		return FailureStatus(resp.StatusCode)
	}
}

// parseSuccess extracts the model reply from a 200 response.
func (c *Client) parseSuccess(body io.Reader) Outcome {
	var result chatResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		c.logger.WithError(err).Error("Failed to decode completion response")
		return Failure(KindUnexpectedError)
	}

	if len(result.Choices) == 0 {
		c.logger.Error("Completion response contained no choices")
		return Failure(KindUnexpectedFormat)
	}

	content := result.Choices[0].Message.Content
	if content == nil {
		c.logger.Error("Completion response missing message content")
		return Failure(KindUnexpectedFormat)
	}

	if result.Usage.TotalTokens > 0 {
		c.logger.WithFields(logrus.Fields{
			"prompt_tokens":     result.Usage.PromptTokens,
			"completion_tokens": result.Usage.CompletionTokens,
			"total_tokens":      result.Usage.TotalTokens,
		}).Info("Token usage")
		recordTokens(result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)
	}

	c.logger.Info("Successfully received response from OpenRouter")
	return Success(strings.TrimSpace(*content))
}

// classifyBadRequest separates exhausted-credit rejections from plain bad
// requests by inspecting the error message OpenRouter returns.
func (c *Client) classifyBadRequest(body io.Reader) Outcome {
	raw, err := io.ReadAll(body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read error response")
		return Failure(KindUnexpectedError)
	}

	message := string(raw)
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}
	c.logger.WithFields(logrus.Fields{
		"error": message,
	}).Error("Bad request (400)")

	lower := strings.ToLower(message)
	if strings.Contains(lower, "credit") || strings.Contains(lower, "balance") {
		return Failure(KindInsufficientCredits)
	}
	return Failure(KindBadRequest)
}
