package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultGoogleWebURL is the public Google Translate web endpoint.
	// It is free to use and requires no API key.
	DefaultGoogleWebURL = "https://translate.googleapis.com"
	// DefaultGoogleWebTimeout is the default timeout for HTTP requests.
	// Chat turns are short, so a generous but bounded timeout is enough.
	DefaultGoogleWebTimeout = 15 * time.Second
)

// GoogleWebClient implements the Translator interface using the public
// Google Translate web endpoint (the "gtx" client). The endpoint returns
// a nested JSON array where the first element holds the translated
// segments of the input text.
type GoogleWebClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGoogleWebClient creates a new Google Translate web client.
// baseURL is normally left empty to use the public endpoint; it is
// overridable for testing.
func NewGoogleWebClient(baseURL string, logger *logrus.Logger) *GoogleWebClient {
	if baseURL == "" {
		baseURL = DefaultGoogleWebURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &GoogleWebClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultGoogleWebTimeout,
		},
		logger: logger,
	}
}

// Translate translates text from source language to target language.
// sourceLang and targetLang should be in ISO 639-1 format (e.g., "en", "fr").
func (c *GoogleWebClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Google web endpoint")

	// Build query parameters for the gtx client
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	requestURL := c.baseURL + "/translate_a/single?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create translation request")
		return "", fmt.Errorf("create request: %w", err)
	}

	// Execute request
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": c.baseURL,
		}).Error("Translation request failed")
		recordTranslation(engineGoogleLabel, statusError, time.Since(startTime), len(text), 0)
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(startTime)
	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Translation request completed")

	// Check status code
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(bodyBytes),
		}).Error("Translation request returned non-OK status")
		recordTranslation(engineGoogleLabel, statusError, duration, len(text), 0)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read translation response")
		recordTranslation(engineGoogleLabel, statusError, duration, len(text), 0)
		return "", fmt.Errorf("read response: %w", err)
	}

	translated, err := parseGoogleWebResponse(body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to decode translation response")
		recordTranslation(engineGoogleLabel, statusError, duration, len(text), 0)
		return "", fmt.Errorf("decode response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation completed successfully")
	recordTranslation(engineGoogleLabel, statusSuccess, duration, len(text), len(translated))

	return translated, nil
}

// parseGoogleWebResponse extracts the translated text from the nested
// array the gtx endpoint returns. The shape is:
//
//	[[["<translated>", "<original>", ...], ...], null, "<detected>"]
//
// Longer inputs are split into segments; the translation is the
// concatenation of the first element of each segment.
func parseGoogleWebResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("unmarshal outer array: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response array")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("unmarshal segments: %w", err)
	}

	var sb strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(segment[0], &part); err != nil {
			return "", fmt.Errorf("unmarshal segment text: %w", err)
		}
		sb.WriteString(part)
	}

	return sb.String(), nil
}

// CheckHealth verifies that the Google web endpoint is reachable by
// translating a short probe phrase.
func (c *GoogleWebClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking Google web endpoint health")

	if _, err := c.Translate(ctx, "hello", "en", "es"); err != nil {
		c.logger.WithError(err).Error("Health check request failed")
		return fmt.Errorf("health check failed: %w", err)
	}

	c.logger.Debug("Google web endpoint health check passed")
	return nil
}

// SupportedLanguages returns a list of language codes supported by the
// Google web endpoint. The endpoint has no listing API, so this is the
// subset we route through it.
func (c *GoogleWebClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	c.logger.Debug("Returning supported languages for Google web endpoint")

	supported := []string{
		"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko",
		"ar", "hi", "tr", "pl", "nl", "sv", "da", "fi", "no", "cs",
		"ro", "hu", "bg", "hr", "sk", "sl", "et", "lv", "lt", "el",
		"th", "vi", "id", "sw", "bn", "uk",
	}

	c.logger.WithFields(logrus.Fields{
		"count": len(supported),
	}).Debug("Returning supported languages")

	return supported, nil
}
