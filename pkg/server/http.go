package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/agribotics/agribot/pkg/config"
	"github.com/agribotics/agribot/pkg/history"
	"github.com/agribotics/agribot/pkg/service"
)

// Server exposes the chat API over HTTP.
type Server struct {
	cfg    *config.Config
	chat   *service.ChatService
	store  *history.Store
	logger *logrus.Logger
	http   *http.Server
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Query    string `json:"query"`
	ImageURL string `json:"image_url"`
}

// chatResponse is the reply envelope the frontend consumes. ErrorType is
// present only when Error is true.
type chatResponse struct {
	Reply     string `json:"reply"`
	Error     bool   `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

// homeResponse is the body of GET /.
type homeResponse struct {
	Status       string `json:"status"`
	APIAvailable bool   `json:"api_available"`
	Message      string `json:"message"`
}

// New creates the HTTP server with all routes and middleware attached.
func New(cfg *config.Config, chat *service.ChatService, store *history.Store, logger *logrus.Logger, port int) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Server{
		cfg:    cfg,
		chat:   chat,
		store:  store,
		logger: logger,
	}

	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(AccessLog(logger))
	engine.Use(Recovery(logger))
	engine.Use(CORS(cfg.AllowedOrigins))

	engine.GET("/", s.handleHome)
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.Use(RateLimit(cfg.RateLimitPerMinute, time.Minute, logger))
	{
		api.POST("/chat", s.handleChat)
		api.POST("/clear-history", s.handleClearHistory)
		api.GET("/history", s.handleHistory)
	}

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	return s
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"addr": s.http.Addr,
	}).Info("Starting HTTP server")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// handleChat runs one chat exchange: detect, translate, complete, reply.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithError(err).Warn("Malformed chat request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"detail":      "Invalid request body",
			"status_code": http.StatusBadRequest,
		})
		return
	}

	outcome, err := s.chat.HandleChat(c.Request.Context(), req.Query, req.ImageURL)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) || errors.Is(err, service.ErrQueryTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail":      err.Error(),
				"status_code": http.StatusBadRequest,
			})
			return
		}
		s.logger.WithError(err).Error("Chat exchange failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail":      "An internal server error occurred. Please try again later.",
			"status_code": http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Reply:     outcome.Text,
		Error:     outcome.IsError,
		ErrorType: string(outcome.Kind),
	})
}

// handleClearHistory wipes the conversation history.
func (s *Server) handleClearHistory(c *gin.Context) {
	s.store.Clear()
	c.JSON(http.StatusOK, gin.H{
		"message": "Conversation history cleared successfully",
		"count":   0,
	})
}

// handleHistory returns all retained turns.
func (s *Server) handleHistory(c *gin.Context) {
	turns := s.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"history": turns,
		"count":   len(turns),
	})
}

// handleHome reports overall service health for the frontend banner.
func (s *Server) handleHome(c *gin.Context) {
	apiAvailable := s.cfg.APIConfigured()

	status := "healthy"
	message := "AgriBot (Claude Sonnet 4.5 via OpenRouter) is running successfully!"
	if !apiAvailable {
		status = "degraded"
		message = "AgriBot (Claude Sonnet 4.5 via OpenRouter) is running with limited functionality."
	}

	c.JSON(http.StatusOK, homeResponse{
		Status:       status,
		APIAvailable: apiAvailable,
		Message:      message,
	})
}

// handleHealth reports detailed operational state.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                    "ok",
		"api_provider":              "OpenRouter",
		"model":                     s.cfg.Model,
		"api_configured":            s.cfg.APIConfigured(),
		"conversation_history_size": s.store.Len(),
		"site_url":                  s.cfg.SiteURL,
		"site_name":                 s.cfg.SiteName,
	})
}
