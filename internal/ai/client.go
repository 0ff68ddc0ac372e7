// Package ai calls the external conversational responder service. The
// service is a black box: this client sends conversation context and gets
// back reply text, nothing more.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
)

// ChatMessage is one turn of conversation context sent to the responder.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles understood by the responder.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type respondRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type respondResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
}

// NewClient returns nil when no responder URL is configured; a nil client
// reports itself as disabled.
func NewClient(cfg config.AIConfig, log *logger.Logger) *Client {
	if !cfg.IsAIResponderEnabled() {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetAIResponderURL(), "/"),
		apiKey:  cfg.GetAIResponderAPIKey(),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Enabled reports whether the responder is configured.
func (c *Client) Enabled() bool {
	return c != nil
}

// Respond sends the conversation context and returns the reply text.
func (c *Client) Respond(ctx context.Context, messages []ChatMessage) (string, error) {
	if c == nil {
		return "", apperr.Config("AI responder is not configured")
	}

	body, err := json.Marshal(respondRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal responder payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/responder", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError("ai_responder", "respond", err)
		return "", apperr.Unavailable("responder request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Unavailable("failed to read responder response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.ProviderError("ai_responder", "respond",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
		return "", apperr.Upstream(
			fmt.Sprintf("responder returned status %d", resp.StatusCode),
			strings.TrimSpace(string(data)),
		)
	}

	var parsed respondResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", apperr.Upstream("responder returned malformed payload", strings.TrimSpace(string(data)))
	}
	if !parsed.Success || parsed.Text == "" {
		return "", apperr.Upstream("responder declined to reply", parsed.Error)
	}

	return parsed.Text, nil
}
