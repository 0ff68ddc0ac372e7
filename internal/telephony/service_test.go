package telephony

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadchat_backend/internal/events"
	"leadchat_backend/internal/operators"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
)

type fakeCaller struct {
	authCalls  int
	callCalls  int
	authErr    error
	callErr    error
	lastAgent  string
	lastPhone  string
	lastCampID int64
}

func (f *fakeCaller) Authenticate(_ context.Context) (string, error) {
	f.authCalls++
	if f.authErr != nil {
		return "", f.authErr
	}
	return "tok-123", nil
}

func (f *fakeCaller) PlaceCall(_ context.Context, token string, campaignID int64, agentID, phoneNumber string) error {
	f.callCalls++
	if token != "tok-123" {
		return apperr.Upstream("call platform refused the call with status 401", nil)
	}
	if f.callErr != nil {
		return f.callErr
	}
	f.lastCampID = campaignID
	f.lastAgent = agentID
	f.lastPhone = phoneNumber
	return nil
}

type fakeDirectory struct {
	operator operators.Operator
	err      error
}

func (f *fakeDirectory) GetByUserID(_ context.Context, _ uuid.UUID) (operators.Operator, error) {
	if f.err != nil {
		return operators.Operator{}, f.err
	}
	return f.operator, nil
}

type staticTelephonyConfig struct{}

func (staticTelephonyConfig) GetTelephonyBaseURL() string   { return "https://calls.example.com" }
func (staticTelephonyConfig) GetTelephonyUsername() string  { return "svc" }
func (staticTelephonyConfig) GetTelephonyPassword() string  { return "secret" }
func (staticTelephonyConfig) GetTelephonyCampaignID() int64 { return 42 }
func (staticTelephonyConfig) IsTelephonyEnabled() bool      { return true }

func agentID(value string) *string { return &value }

func newCallService(caller Caller, directory AgentDirectory) *Service {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log.Logger)
	return NewService(caller, directory, staticTelephonyConfig{}, bus, log)
}

func TestPlaceCallHappyPath(t *testing.T) {
	caller := &fakeCaller{}
	directory := &fakeDirectory{operator: operators.Operator{AgentID: agentID("agent-7")}}
	svc := newCallService(caller, directory)

	session, err := svc.PlaceCall(context.Background(), uuid.New(), "+52 155 1234 5678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State != StateCallPlaced {
		t.Fatalf("expected state %q, got %q", StateCallPlaced, session.State)
	}
	if caller.lastCampID != 42 || caller.lastAgent != "agent-7" || caller.lastPhone != "5215512345678" {
		t.Fatalf("unexpected call params: %+v", caller)
	}
}

func TestPlaceCallMissingAgentSkipsAuthentication(t *testing.T) {
	caller := &fakeCaller{}

	for _, directory := range []*fakeDirectory{
		{err: operators.ErrNotFound},
		{operator: operators.Operator{AgentID: nil}},
		{operator: operators.Operator{AgentID: agentID("")}},
	} {
		svc := newCallService(caller, directory)

		_, err := svc.PlaceCall(context.Background(), uuid.New(), "5215512345678")
		if !apperr.Is(err, apperr.KindBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	}

	if caller.authCalls != 0 {
		t.Fatalf("expected no authenticate attempts, got %d", caller.authCalls)
	}
}

func TestPlaceCallAuthFailureStopsAtAuthPending(t *testing.T) {
	caller := &fakeCaller{authErr: apperr.Upstream("call platform rejected credentials with status 401", nil)}
	directory := &fakeDirectory{operator: operators.Operator{AgentID: agentID("agent-7")}}
	svc := newCallService(caller, directory)

	session, err := svc.PlaceCall(context.Background(), uuid.New(), "5215512345678")
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if session.State != StateAuthPending {
		t.Fatalf("expected state %q, got %q", StateAuthPending, session.State)
	}
	if caller.callCalls != 0 {
		t.Fatal("call must not be attempted after failed authentication")
	}
}

func TestPlaceCallRefusedStopsAtAuthenticated(t *testing.T) {
	caller := &fakeCaller{callErr: apperr.Upstream("call platform refused the call with status 409", nil)}
	directory := &fakeDirectory{operator: operators.Operator{AgentID: agentID("agent-7")}}
	svc := newCallService(caller, directory)

	session, err := svc.PlaceCall(context.Background(), uuid.New(), "5215512345678")
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if session.State != StateAuthenticated {
		t.Fatalf("expected state %q, got %q", StateAuthenticated, session.State)
	}
}

func TestPlaceCallRejectsShortPhone(t *testing.T) {
	svc := newCallService(&fakeCaller{}, &fakeDirectory{operator: operators.Operator{AgentID: agentID("agent-7")}})

	_, err := svc.PlaceCall(context.Background(), uuid.New(), "12345")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
