package telephony

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadchat_backend/internal/operators"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/validator"
)

func newCallEngine(caller Caller, directory AgentDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Next()
	})

	h := NewHandler(newCallService(caller, directory), validator.New())
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestPlaceCallResponseShape(t *testing.T) {
	caller := &fakeCaller{}
	directory := &fakeDirectory{operator: operators.Operator{AgentID: agentID("agent-7")}}
	engine := newCallEngine(caller, directory)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calls",
		strings.NewReader(`{"phone": "+52 155 1234 5678"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if ok, _ := body["ok"].(bool); !ok {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
	if body["result"] != StateCallPlaced {
		t.Fatalf("expected result %q, got %v", StateCallPlaced, body["result"])
	}
	if _, present := body["state"]; present {
		t.Fatal("response must not carry a state key")
	}
}

func TestPlaceCallFailureReportsResultAndError(t *testing.T) {
	caller := &fakeCaller{callErr: apperr.Upstream("call platform refused the call with status 503", nil)}
	directory := &fakeDirectory{operator: operators.Operator{AgentID: agentID("agent-7")}}
	engine := newCallEngine(caller, directory)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calls",
		strings.NewReader(`{"phone": "+52 155 1234 5678"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if ok, _ := body["ok"].(bool); ok {
		t.Fatal("expected ok=false")
	}
	if body["result"] != StateAuthenticated {
		t.Fatalf("expected result %q, got %v", StateAuthenticated, body["result"])
	}
	if body["error"] == "" || body["error"] == nil {
		t.Fatal("expected an error message")
	}
}
