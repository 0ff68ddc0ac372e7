package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
)

type responderConfig struct {
	url string
}

func (c responderConfig) GetAIResponderURL() string    { return c.url }
func (c responderConfig) GetAIResponderAPIKey() string { return "responder-key" }
func (c responderConfig) IsAIResponderEnabled() bool   { return c.url != "" }

func TestNewClientDisabledWithoutURL(t *testing.T) {
	client := NewClient(responderConfig{}, logger.New("development"))
	if client.Enabled() {
		t.Fatal("expected disabled client without a url")
	}
	if _, err := client.Respond(context.Background(), nil); !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("expected config error from nil client, got %v", err)
	}
}

func TestRespondHappyPath(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody respondRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(respondResponse{Success: true, Text: "¡Hola!"})
	}))
	defer server.Close()

	client := NewClient(responderConfig{url: server.URL}, logger.New("development"))

	text, err := client.Respond(context.Background(), []ChatMessage{
		{Role: RoleUser, Content: "hola"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "¡Hola!" {
		t.Fatalf("unexpected reply %q", text)
	}
	if gotPath != "/api/responder" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer responder-key" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != RoleUser {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestRespondDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(respondResponse{Success: false, Error: "no context"})
	}))
	defer server.Close()

	client := NewClient(responderConfig{url: server.URL}, logger.New("development"))

	if _, err := client.Respond(context.Background(), nil); !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRespondTransportError(t *testing.T) {
	client := NewClient(responderConfig{url: "http://127.0.0.1:1"}, logger.New("development"))

	if _, err := client.Respond(context.Background(), nil); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
