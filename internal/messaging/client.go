// Package messaging sends outbound messages through the WhatsApp Cloud API.
package messaging

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

type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

type textPayload struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type sendRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

func NewClient(cfg config.MetaConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.GetMetaGraphBaseURL(), "/"),
		accessToken:   cfg.GetMetaAccessToken(),
		phoneNumberID: cfg.GetMetaPhoneNumberID(),
		http:          &http.Client{Timeout: 15 * time.Second},
		log:           log,
	}
}

// SendText delivers a text message to a digits-only phone number. A response
// with a 4xx/5xx status is a provider rejection and carries the raw Graph
// API payload in the error details; a failed round trip is a transport
// error. Callers can tell the two apart by error kind.
func (c *Client) SendText(ctx context.Context, phoneNumber string, message string) error {
	payload := sendRequest{
		MessagingProduct: "whatsapp",
		To:               phoneNumber,
		Type:             "text",
		Text:             textPayload{Body: message, PreviewURL: false},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError("whatsapp", "send_text", err)
		return apperr.Unavailable("whatsapp request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		providerPayload := decodeProviderPayload(data)
		c.log.ProviderError("whatsapp", "send_text",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
		return apperr.Upstream(
			fmt.Sprintf("whatsapp send rejected with status %d", resp.StatusCode),
			providerPayload,
		)
	}

	c.log.Info("whatsapp message sent", "phone", phoneNumber)
	return nil
}

// decodeProviderPayload keeps the provider's JSON error intact when it
// parses and falls back to the raw text otherwise.
func decodeProviderPayload(data []byte) interface{} {
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err == nil {
		return decoded
	}
	return strings.TrimSpace(string(data))
}
