package telephony

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadchat_backend/internal/events"
	"leadchat_backend/internal/operators"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/phone"
)

const callMinDigits = 8

// Session states for a click-to-call attempt. A session lives only for the
// duration of one request; nothing is persisted.
const (
	StateAuthPending   = "auth_pending"
	StateAuthenticated = "authenticated"
	StateCallPlaced    = "call_placed"
)

// Session is the ephemeral record of one click-to-call attempt.
type Session struct {
	State     string
	AgentID   string
	Phone     string
	StartedAt time.Time
}

// Caller is the platform surface the service drives.
type Caller interface {
	Authenticate(ctx context.Context) (string, error)
	PlaceCall(ctx context.Context, token string, campaignID int64, agentID, phoneNumber string) error
}

// AgentDirectory resolves the telephony agent assigned to a CRM user.
type AgentDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (operators.Operator, error)
}

type Service struct {
	caller     Caller
	directory  AgentDirectory
	campaignID int64
	bus        events.Bus
	log        *logger.Logger
}

func NewService(caller Caller, directory AgentDirectory, cfg config.TelephonyConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		caller:     caller,
		directory:  directory,
		campaignID: cfg.GetTelephonyCampaignID(),
		bus:        bus,
		log:        log,
	}
}

// PlaceCall runs the full click-to-call sequence for an operator: resolve
// the operator's agent identity, authenticate against the platform, then
// request the call. The agent check happens first so an unprovisioned
// operator never triggers an authenticate round trip.
func (s *Service) PlaceCall(ctx context.Context, userID uuid.UUID, phoneInput string) (Session, error) {
	digits := phone.Digits(phoneInput)
	if !phone.HasMinDigits(digits, callMinDigits) {
		return Session{}, apperr.Validation("phone number is too short")
	}

	operator, err := s.directory.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, operators.ErrNotFound) {
			return Session{}, apperr.BadRequest("operator has no telephony agent assigned")
		}
		return Session{}, apperr.Wrap(apperr.KindInternal, "failed to resolve operator", err)
	}
	if operator.AgentID == nil || *operator.AgentID == "" {
		return Session{}, apperr.BadRequest("operator has no telephony agent assigned")
	}

	session := Session{
		State:     StateAuthPending,
		AgentID:   *operator.AgentID,
		Phone:     digits,
		StartedAt: time.Now(),
	}

	token, err := s.caller.Authenticate(ctx)
	if err != nil {
		return session, err
	}
	session.State = StateAuthenticated

	if err := s.caller.PlaceCall(ctx, token, s.campaignID, session.AgentID, digits); err != nil {
		return session, err
	}
	session.State = StateCallPlaced

	s.log.Info("call placed", "agent", session.AgentID, "phone", digits)
	s.bus.Publish(ctx, events.CallPlaced{
		BaseEvent:  events.NewBaseEvent(),
		OperatorID: userID,
		AgentID:    session.AgentID,
		Phone:      digits,
	})

	return session, nil
}
