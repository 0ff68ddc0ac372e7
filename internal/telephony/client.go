// Package telephony integrates with the outbound call platform for
// operator click-to-call.
package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
)

// ErrTokenMissing means the platform answered the authenticate call with a
// success status but no token in the body.
var ErrTokenMissing = errors.New("authenticate response carried no token")

type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	log      *logger.Logger
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

type makeCallRequest struct {
	CampaignID int64  `json:"campaignId"`
	AgentID    string `json:"agentId"`
	Phone      string `json:"phone"`
}

func NewClient(cfg config.TelephonyConfig, log *logger.Logger) *Client {
	if !cfg.IsTelephonyEnabled() {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetTelephonyBaseURL(), "/"),
		username: cfg.GetTelephonyUsername(),
		password: cfg.GetTelephonyPassword(),
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Enabled reports whether the call platform is configured.
func (c *Client) Enabled() bool {
	return c != nil
}

// Authenticate exchanges the service credentials for a short-lived token.
// The platform routes POST /core/v2/authenticate/ only with the trailing
// slash; without it the request 404s.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(authRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("marshal authenticate payload: %w", err)
	}

	url := c.baseURL + "/core/v2/authenticate/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError("telephony", "authenticate", err)
		return "", apperr.Unavailable("call platform unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Unavailable("failed to read authenticate response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.ProviderError("telephony", "authenticate",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
		return "", apperr.Upstream(
			fmt.Sprintf("call platform rejected credentials with status %d", resp.StatusCode),
			strings.TrimSpace(string(data)),
		)
	}

	var parsed authResponse
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Token == "" {
		return "", apperr.Wrap(apperr.KindUpstream, "call platform returned malformed token response", ErrTokenMissing)
	}

	return parsed.Token, nil
}

// PlaceCall asks the platform to bridge the agent with the destination
// number using the token from Authenticate.
func (c *Client) PlaceCall(ctx context.Context, token string, campaignID int64, agentID, phoneNumber string) error {
	body, err := json.Marshal(makeCallRequest{
		CampaignID: campaignID,
		AgentID:    agentID,
		Phone:      phoneNumber,
	})
	if err != nil {
		return fmt.Errorf("marshal makecall payload: %w", err)
	}

	url := c.baseURL + "/core/v2/makecall"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError("telephony", "makecall", err)
		return apperr.Unavailable("call platform unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		c.log.ProviderError("telephony", "makecall",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
		return apperr.Upstream(
			fmt.Sprintf("call platform refused the call with status %d", resp.StatusCode),
			strings.TrimSpace(string(data)),
		)
	}

	return nil
}
