package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"leadchat_backend/internal/leads/repository"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
)

type fakeResolver struct {
	resolved   []string
	recorded   []string
	resolveErr error
	recordErr  error
}

func (f *fakeResolver) Resolve(_ context.Context, phone, name, source, channel string) (repository.Lead, bool, error) {
	if f.resolveErr != nil {
		return repository.Lead{}, false, f.resolveErr
	}
	f.resolved = append(f.resolved, phone)
	return repository.Lead{Phone: phone, Name: name, Source: source, AIStatus: "active"}, true, nil
}

func (f *fakeResolver) RecordClientMessage(_ context.Context, lead repository.Lead, body, _ string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, lead.Phone+": "+body)
	return nil
}

func (f *fakeResolver) RecordAIReply(_ context.Context, phone, text string) error {
	return nil
}

func (f *fakeResolver) Get(_ context.Context, phone string) (repository.Lead, error) {
	return repository.Lead{Phone: phone, AIStatus: "active"}, nil
}

type nopDispatcher struct{}

func (nopDispatcher) SendText(_ context.Context, _, _ string) error { return nil }

type webhookConfig struct{}

func (webhookConfig) GetMetaVerifyToken() string         { return "verify-token" }
func (webhookConfig) GetMetaAccessToken() string         { return "meta-token" }
func (webhookConfig) GetMetaPhoneNumberID() string       { return "10987654321" }
func (webhookConfig) GetMetaGraphBaseURL() string        { return "https://graph.example.com" }
func (webhookConfig) GetAutomationWebhookSecret() string { return "hook-secret" }

func newWebhookEngine(resolver *fakeResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("development")

	svc := NewService(resolver, nil, nopDispatcher{}, nil, nil, log)
	handler := NewHandler(svc, webhookConfig{}, log)

	engine := gin.New()
	engine.GET("/api/v1/webhook/whatsapp", handler.VerifyMeta)
	engine.POST("/api/v1/webhook/whatsapp", handler.ReceiveMeta)
	engine.POST("/api/v1/webhook/automation", handler.ReceiveAutomation)
	engine.POST("/api/v1/webhook/forms", handler.ReceiveForm)
	return engine
}

func TestVerifyMetaEchoesChallenge(t *testing.T) {
	engine := newWebhookEngine(&fakeResolver{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Fatalf("expected raw challenge echo, got %q", rec.Body.String())
	}
}

func TestVerifyMetaRejectsBadToken(t *testing.T) {
	engine := newWebhookEngine(&fakeResolver{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestReceiveMetaAlwaysAcknowledges(t *testing.T) {
	resolver := &fakeResolver{resolveErr: apperr.Internal("database down")}
	engine := newWebhookEngine(resolver)

	for _, body := range []string{
		metaTextDelivery,
		`{garbage`,
		`{"entry": []}`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(body))
		engine.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: expected 200 even on failure, got %d", body, rec.Code)
		}
	}
}

func TestReceiveMetaProcessesTextMessage(t *testing.T) {
	resolver := &fakeResolver{}
	engine := newWebhookEngine(resolver)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(metaTextDelivery))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(resolver.recorded) != 1 {
		t.Fatalf("expected 1 recorded message, got %d", len(resolver.recorded))
	}
}

func TestReceiveAutomationRejectsBadSecret(t *testing.T) {
	resolver := &fakeResolver{}
	engine := newWebhookEngine(resolver)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/automation?secret=wrong",
		strings.NewReader(`{"waId": "5215512345678", "messageText": "hola"}`))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(resolver.resolved) != 0 {
		t.Fatal("no lead may be touched on a bad secret")
	}
}

func TestReceiveAutomationProbeAcknowledgedWithoutWrites(t *testing.T) {
	resolver := &fakeResolver{}
	engine := newWebhookEngine(resolver)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/automation?secret=hook-secret",
		strings.NewReader(`{"waId": "senderPhone", "messageText": "probe"}`))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for probe, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test received") {
		t.Fatalf("expected probe acknowledgement, got %s", rec.Body.String())
	}
	if len(resolver.resolved) != 0 || len(resolver.recorded) != 0 {
		t.Fatal("probe must not create or modify leads")
	}
}

func TestReceiveAutomationDatastoreFailureIs500(t *testing.T) {
	resolver := &fakeResolver{recordErr: apperr.Internal("database down")}
	engine := newWebhookEngine(resolver)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/automation?secret=hook-secret",
		strings.NewReader(`{"waId": "5215512345678", "senderName": "Pedro", "messageText": "hola"}`))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on datastore failure, got %d", rec.Code)
	}
}

func TestReceiveFormRequiresUsablePhone(t *testing.T) {
	engine := newWebhookEngine(&fakeResolver{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/forms",
		strings.NewReader(`{"nombre": "Laura"}`))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReceiveFormCreatesLead(t *testing.T) {
	resolver := &fakeResolver{}
	engine := newWebhookEngine(resolver)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/forms",
		strings.NewReader(`{"telefono": "55 1234 5678", "nombre": "Laura", "mensaje": "hola"}`))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(resolver.resolved) != 1 {
		t.Fatalf("expected 1 resolved lead, got %d", len(resolver.resolved))
	}
}
