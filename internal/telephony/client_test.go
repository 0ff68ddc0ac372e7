package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
)

type clientConfig struct {
	baseURL string
}

func (c clientConfig) GetTelephonyBaseURL() string   { return c.baseURL }
func (c clientConfig) GetTelephonyUsername() string  { return "svc" }
func (c clientConfig) GetTelephonyPassword() string  { return "secret" }
func (c clientConfig) GetTelephonyCampaignID() int64 { return 42 }
func (c clientConfig) IsTelephonyEnabled() bool      { return c.baseURL != "" }

func TestAuthenticateUsesTrailingSlashPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer server.Close()

	client := NewClient(clientConfig{baseURL: server.URL}, logger.New("development"))

	token, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("unexpected token %q", token)
	}
	if gotPath != "/core/v2/authenticate/" {
		t.Fatalf("expected trailing-slash path, got %q", gotPath)
	}
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(clientConfig{baseURL: server.URL}, logger.New("development"))

	_, err := client.Authenticate(context.Background())
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "ok"})
	}))
	defer server.Close()

	client := NewClient(clientConfig{baseURL: server.URL}, logger.New("development"))

	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream kind, got %v", err)
	}
}

func TestAuthenticateTransportError(t *testing.T) {
	client := NewClient(clientConfig{baseURL: "http://127.0.0.1:1"}, logger.New("development"))

	_, err := client.Authenticate(context.Background())
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestPlaceCallSendsTokenAndPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody makeCallRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(clientConfig{baseURL: server.URL}, logger.New("development"))

	err := client.PlaceCall(context.Background(), "tok-123", 42, "agent-7", "5215512345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/core/v2/makecall" {
		t.Fatalf("expected no trailing slash on makecall, got %q", gotPath)
	}
	if gotAuth != "Token tok-123" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotBody.CampaignID != 42 || gotBody.AgentID != "agent-7" || gotBody.Phone != "5215512345678" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
}
