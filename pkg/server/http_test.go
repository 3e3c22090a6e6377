package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agribotics/agribot/pkg/completion"
	"github.com/agribotics/agribot/pkg/config"
	"github.com/agribotics/agribot/pkg/history"
	"github.com/agribotics/agribot/pkg/service"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		OpenRouterAPIKey:   "sk-or-test",
		Model:              config.DefaultModel,
		SiteURL:            "http://localhost:5173",
		SiteName:           "AgriBot",
		AllowedOrigins:     []string{"http://localhost:5173"},
		RateLimitPerMinute: 100,
	}
}

type scriptedCompleter struct {
	outcome completion.Outcome
}

func (s *scriptedCompleter) Complete(ctx context.Context, userMessage, imageURL string, turns []history.Turn) completion.Outcome {
	return s.outcome
}

type englishDetector struct{}

func (englishDetector) Detect(text string) string { return "en" }

type noopTranslator struct{}

func (noopTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return text, nil
}

func (noopTranslator) CheckHealth(ctx context.Context) error { return nil }

func (noopTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newTestServer(cfg *config.Config, outcome completion.Outcome) (*Server, *history.Store) {
	gin.SetMode(gin.TestMode)
	logger := testLogger()
	store := history.NewStore(config.HistoryCap, logger)
	chat := service.NewChatService(englishDetector{}, noopTranslator{}, &scriptedCompleter{outcome: outcome}, store, logger)
	return New(cfg, chat, store, logger, 0), store
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestChatEndpointSuccess(t *testing.T) {
	srv, store := newTestServer(testConfig(), completion.Success("## Answer\nPlant in spring."))

	w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": "when do I plant maize"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "## Answer\nPlant in spring.", resp["reply"])
	assert.Equal(t, false, resp["error"])
	_, present := resp["error_type"]
	assert.False(t, present)

	assert.Equal(t, 1, store.Len())
}

func TestChatEndpointErrorOutcome(t *testing.T) {
	srv, store := newTestServer(testConfig(), completion.Failure(completion.KindConfigurationError))

	w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": "hello there"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["error"])
	assert.Equal(t, "configuration_error", resp["error_type"])
	assert.Equal(t, completion.KindConfigurationError.Message(), resp["reply"])

	// Failed exchanges are not persisted
	assert.Zero(t, store.Len())
}

func TestChatEndpointWithoutCredential(t *testing.T) {
	// Full stack with the real completion client and no API key: the
	// request short-circuits before any network call and still answers 200.
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.OpenRouterAPIKey = ""
	logger := testLogger()
	store := history.NewStore(config.HistoryCap, logger)
	chat := service.NewChatService(englishDetector{}, noopTranslator{}, completion.NewClient(cfg, logger), store, logger)
	srv := New(cfg, chat, store, logger, 0)

	w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": "how do I plant maize"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["error"])
	assert.Equal(t, "configuration_error", resp["error_type"])
	assert.Contains(t, resp["reply"], "contact the administrator")
	assert.Zero(t, store.Len())
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": "   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Empty message received", resp["detail"])
	assert.EqualValues(t, 400, resp["status_code"])
}

func TestChatEndpointRejectsOverlongMessage(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	body, err := json.Marshal(map[string]string{"query": strings.Repeat("a", config.MaxQueryLength+1)})
	require.NoError(t, err)

	w := doRequest(srv, http.MethodPost, "/api/chat", string(body))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Message too long. Please keep messages under 2000 characters.", resp["detail"])
}

func TestChatEndpointRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": `)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid request body", resp["detail"])
}

func TestClearHistoryEndpoint(t *testing.T) {
	srv, store := newTestServer(testConfig(), completion.Success("unused"))
	store.Append("a question", "an answer")

	w := doRequest(srv, http.MethodPost, "/api/clear-history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Conversation history cleared successfully", resp["message"])
	assert.EqualValues(t, 0, resp["count"])
	assert.Zero(t, store.Len())
}

func TestHistoryEndpoint(t *testing.T) {
	srv, store := newTestServer(testConfig(), completion.Success("unused"))
	store.Append("first question", "first answer")
	store.Append("second question", "second answer")

	w := doRequest(srv, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []history.Turn `json:"history"`
		Count   int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "first question", resp.History[0].User)
	assert.Equal(t, "first answer", resp.History[0].Bot)
	assert.Equal(t, "second question", resp.History[1].User)
}

func TestHistoryEndpointEmpty(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	w := doRequest(srv, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"history": [], "count": 0}`, w.Body.String())
}

func TestHomeEndpointHealthy(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	w := doRequest(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["api_available"])
	assert.Equal(t, "AgriBot (Claude Sonnet 4.5 via OpenRouter) is running successfully!", resp["message"])
}

func TestHomeEndpointDegradedWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenRouterAPIKey = ""
	srv, _ := newTestServer(cfg, completion.Success("unused"))

	w := doRequest(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, false, resp["api_available"])
	assert.Equal(t, "AgriBot (Claude Sonnet 4.5 via OpenRouter) is running with limited functionality.", resp["message"])
}

func TestHealthEndpoint(t *testing.T) {
	srv, store := newTestServer(testConfig(), completion.Success("unused"))
	store.Append("a question", "an answer")

	w := doRequest(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "OpenRouter", resp["api_provider"])
	assert.Equal(t, config.DefaultModel, resp["model"])
	assert.Equal(t, true, resp["api_configured"])
	assert.EqualValues(t, 1, resp["conversation_history_size"])
	assert.Equal(t, "http://localhost:5173", resp["site_url"])
	assert.Equal(t, "AgriBot", resp["site_name"])
}

func TestHealthEndpointWithoutCredential(t *testing.T) {
	cfg := testConfig()
	cfg.OpenRouterAPIKey = ""
	srv, _ := newTestServer(cfg, completion.Success("unused"))

	w := doRequest(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["api_configured"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	w := doRequest(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRateLimitOnAPIRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	srv, _ := newTestServer(cfg, completion.Success("ok"))

	for i := 0; i < 2; i++ {
		w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": "hello there"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(srv, http.MethodPost, "/api/chat", `{"query": "hello there"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rate limit exceeded", resp["error"])
	assert.EqualValues(t, 60, resp["retry_after"])

	// Routes outside /api are not rate limited
	w = doRequest(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(testConfig(), completion.Success("unused"))

	w := doRequest(srv, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "client-supplied-id", w.Header().Get("X-Request-ID"))
}
