package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	serverAddr = flag.String("addr", "http://localhost:8000", "AgriBot server base URL")
	text       = flag.String("text", "", "Message to send")
	textFile   = flag.String("file", "", "Path to a text file containing the message")
	imageURL   = flag.String("image", "", "Optional image URL to attach to the message")
	showHist   = flag.Bool("history", false, "Fetch conversation history instead of chatting")
	clearHist  = flag.Bool("clear", false, "Clear conversation history and exit")
)

type chatRequest struct {
	Query    string `json:"query"`
	ImageURL string `json:"image_url,omitempty"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	Error     bool   `json:"error"`
	ErrorType string `json:"error_type"`
}

type historyTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

type historyResponse struct {
	History []historyTurn `json:"history"`
	Count   int           `json:"count"`
}

type clearResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch {
	case *clearHist:
		clearHistory(ctx, logger, httpClient)
	case *showHist:
		showHistory(ctx, logger, httpClient)
	default:
		sendChat(ctx, logger, httpClient)
	}
}

func sendChat(ctx context.Context, logger *logrus.Logger, httpClient *http.Client) {
	// Read the message to send
	var message string
	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			logger.WithError(err).Fatalf("Failed to read file: %s", *textFile)
		}
		message = string(data)
	} else if *text != "" {
		message = *text
	} else {
		logger.Fatal("Either -file or -text must be provided")
	}

	logger.WithFields(logrus.Fields{
		"server":      *serverAddr,
		"text_length": len(message),
		"has_image":   *imageURL != "",
	}).Info("Sending chat message...")

	payload, err := json.Marshal(chatRequest{Query: message, ImageURL: *imageURL})
	if err != nil {
		logger.WithError(err).Fatal("Failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *serverAddr+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Fatal("Failed to reach server")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Fatal("Chat request rejected")
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		logger.WithError(err).Fatal("Failed to decode response")
	}

	duration := time.Since(startTime)

	// Output results
	separator := strings.Repeat("=", 80)
	dashLine := strings.Repeat("-", 80)

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("AGRIBOT RESPONSE")
	fmt.Println(separator)
	fmt.Printf("\nResponse Time: %.2f seconds\n", duration.Seconds())
	if chatResp.Error {
		fmt.Printf("Error Type: %s\n", chatResp.ErrorType)
	}
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println("YOUR MESSAGE:")
	fmt.Println(dashLine)
	fmt.Println(message)
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println("REPLY:")
	fmt.Println(dashLine)
	fmt.Println(chatResp.Reply)
	fmt.Println()
	fmt.Println(separator)

	if chatResp.Error {
		logger.WithFields(logrus.Fields{
			"error_type": chatResp.ErrorType,
		}).Warn("AgriBot answered with an error message")
		return
	}
	logger.WithFields(logrus.Fields{
		"duration_seconds": duration.Seconds(),
	}).Info("Chat completed successfully")
}

func showHistory(ctx context.Context, logger *logrus.Logger, httpClient *http.Client) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *serverAddr+"/api/history", nil)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create request")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Fatal("Failed to reach server")
	}
	defer resp.Body.Close()

	var histResp historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&histResp); err != nil {
		logger.WithError(err).Fatal("Failed to decode response")
	}

	separator := strings.Repeat("=", 80)
	dashLine := strings.Repeat("-", 80)

	fmt.Println()
	fmt.Println(separator)
	fmt.Printf("CONVERSATION HISTORY (%d turns)\n", histResp.Count)
	fmt.Println(separator)
	for i, turn := range histResp.History {
		fmt.Println()
		fmt.Printf("[%d] USER: %s\n", i+1, turn.User)
		fmt.Println(dashLine)
		fmt.Printf("    BOT:  %s\n", turn.Bot)
	}
	fmt.Println()
	fmt.Println(separator)
}

func clearHistory(ctx context.Context, logger *logrus.Logger, httpClient *http.Client) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *serverAddr+"/api/clear-history", nil)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create request")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Fatal("Failed to reach server")
	}
	defer resp.Body.Close()

	var clearResp clearResponse
	if err := json.NewDecoder(resp.Body).Decode(&clearResp); err != nil {
		logger.WithError(err).Fatal("Failed to decode response")
	}

	logger.WithFields(logrus.Fields{
		"message": clearResp.Message,
		"count":   clearResp.Count,
	}).Info("History cleared")
}
