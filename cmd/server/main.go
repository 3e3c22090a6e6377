package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agribotics/agribot/pkg/completion"
	"github.com/agribotics/agribot/pkg/config"
	"github.com/agribotics/agribot/pkg/detect"
	"github.com/agribotics/agribot/pkg/history"
	"github.com/agribotics/agribot/pkg/server"
	"github.com/agribotics/agribot/pkg/service"
	"github.com/agribotics/agribot/pkg/translate"
)

var (
	// Server configuration flags
	port = flag.Int("port", 8000, "HTTP server port")

	// Logging configuration
	logLevel = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	// Set log level
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Load configuration from the environment and .env
	cfg := config.Load()

	logger.WithFields(logrus.Fields{
		"port":      *port,
		"log_level": level.String(),
	}).Info("Starting AgriBot backend")

	logger.WithFields(logrus.Fields{
		"api_provider":   "OpenRouter",
		"model":          cfg.Model,
		"api_configured": cfg.APIConfigured(),
		"site_url":       cfg.SiteURL,
		"site_name":      cfg.SiteName,
	}).Info("Loaded configuration")

	if cfg.APIConfigured() {
		logger.WithFields(logrus.Fields{
			"api_key": cfg.MaskedAPIKey(),
		}).Info("OpenRouter API key loaded")
	} else {
		logger.Warn("OPENROUTER_API_KEY not found, chat requests will return a configuration error")
	}

	// Parse translation engine type
	engineType, err := translate.ParseEngineType(cfg.TranslateEngine)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse translation engine type")
	}

	// Create translator instance
	translator, err := translate.NewTranslator(translate.Config{
		Engine:   engineType,
		BaseURL:  cfg.TranslateURL,
		CacheTTL: translate.DefaultCacheTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create translator")
	}

	// Verify translator is healthy
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Checking translator health...")
	if err := translator.CheckHealth(ctx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		logger.Warn("Server will start, but messages in languages other than English may go untranslated")
	} else {
		logger.Info("Translator health check passed")
	}

	// Build the chat pipeline
	detector := detect.NewDetector(logger)
	store := history.NewStore(config.HistoryCap, logger)
	completer := completion.NewClient(cfg, logger)
	chatService := service.NewChatService(detector, translator, completer, store, logger)

	// Create HTTP server
	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg, chatService, store, logger, *port)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Fatal("Server error")
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Graceful shutdown timed out")
		} else {
			logger.Info("Server stopped gracefully")
		}
	}
}
