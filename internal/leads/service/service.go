// Package service implements lead resolution and conversation workflows.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadchat_backend/internal/events"
	"leadchat_backend/internal/leads/conversation"
	"leadchat_backend/internal/leads/repository"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/phone"
)

// Defaults for newly created leads.
const (
	StatusNew        = "nuevo"
	AIStatusActive   = "active"
	AIStatusInactive = "inactive"
)

// Operator-sent phone numbers only need a plausible length; inbound channels
// validate their own minimums before reaching this service.
const manualSendMinDigits = 8

// Store is the persistence surface this service needs from the repository.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByPhone(ctx context.Context, phone string) (repository.Lead, error)
	List(ctx context.Context) ([]repository.Lead, error)
	ReplaceConversation(ctx context.Context, id uuid.UUID, update repository.ConversationUpdate) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetAIStatus(ctx context.Context, id uuid.UUID, aiStatus string) error
	ResetUnread(ctx context.Context, id uuid.UUID) error
}

// Dispatcher sends outbound WhatsApp messages.
type Dispatcher interface {
	SendText(ctx context.Context, phone, text string) error
}

type Service struct {
	store      Store
	dispatcher Dispatcher
	bus        events.Bus
	log        *logger.Logger
	now        func() time.Time
}

func New(store Store, dispatcher Dispatcher, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// Resolve returns the lead for a digits-only phone, creating it when absent.
// The lookup and insert are not atomic: two concurrent first-contact events
// can both miss and both insert. The schema allows the duplicate row and
// lookups resolve to the most recently updated one, so the race is accepted
// rather than locked around.
func (s *Service) Resolve(ctx context.Context, phoneDigits, name, source, channel string) (repository.Lead, bool, error) {
	lead, err := s.store.GetByPhone(ctx, phoneDigits)
	if err == nil {
		return lead, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, false, apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}

	lead, err = s.store.Create(ctx, repository.CreateLeadParams{
		Phone:    phoneDigits,
		Name:     name,
		Status:   StatusNew,
		Source:   source,
		AIStatus: AIStatusActive,
		Chat:     conversation.EncodeLog(nil),
	})
	if err != nil {
		return repository.Lead{}, false, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.log.Info("lead created", "phone", phoneDigits, "source", source, "channel", channel)
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Phone:     lead.Phone,
		Channel:   channel,
		Source:    source,
	})

	return lead, true, nil
}

// RecordClientMessage appends an inbound client message to the lead's
// conversation, bumping the unread counter.
func (s *Service) RecordClientMessage(ctx context.Context, lead repository.Lead, body string, channel string) error {
	update := conversation.Append(lead.Chat, lead.UnreadCount, conversation.Message{
		Author: conversation.AuthorClient,
		Body:   body,
	}, s.now())

	if err := s.store.ReplaceConversation(ctx, lead.ID, repository.ConversationUpdate(update)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record inbound message", err)
	}

	s.bus.Publish(ctx, events.InboundMessageRecorded{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Phone:     lead.Phone,
		Channel:   channel,
	})

	return nil
}

// RecordAIReply appends an AI-authored reply to the lead's conversation.
// The reply was already delivered to the client when this runs.
func (s *Service) RecordAIReply(ctx context.Context, phoneDigits, text string) error {
	lead, err := s.store.GetByPhone(ctx, phoneDigits)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}

	update := conversation.Append(lead.Chat, lead.UnreadCount, conversation.Message{
		Author: conversation.AuthorAI,
		Body:   text,
	}, s.now())

	if err := s.store.ReplaceConversation(ctx, lead.ID, repository.ConversationUpdate(update)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record AI reply", err)
	}

	s.bus.Publish(ctx, events.AIReplyDispatched{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Phone:     lead.Phone,
	})

	return nil
}

// ManualSendParams carries an operator-initiated outbound message.
type ManualSendParams struct {
	Phone      string
	Body       string
	Author     string
	Attachment *conversation.Attachment
}

// ManualSend delivers an operator message over WhatsApp and records it. The
// send happens before the append so a rejected message never pollutes the
// conversation history.
func (s *Service) ManualSend(ctx context.Context, params ManualSendParams) error {
	digits := phone.Digits(params.Phone)
	if !phone.HasMinDigits(digits, manualSendMinDigits) {
		return apperr.Validation("phone number is too short")
	}
	if params.Body == "" && params.Attachment == nil {
		return apperr.Validation("message body is required")
	}

	lead, err := s.store.GetByPhone(ctx, digits)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}

	if params.Body != "" {
		if err := s.dispatcher.SendText(ctx, digits, params.Body); err != nil {
			s.bus.Publish(ctx, events.OutboundSendFailed{
				BaseEvent: events.NewBaseEvent(),
				Phone:     digits,
				Reason:    err.Error(),
			})
			return err
		}
	}

	author := params.Author
	if author == "" {
		author = conversation.AuthorOperator
	}

	update := conversation.Append(lead.Chat, lead.UnreadCount, conversation.Message{
		Author:     author,
		Body:       params.Body,
		Attachment: params.Attachment,
	}, s.now())

	if err := s.store.ReplaceConversation(ctx, lead.ID, repository.ConversationUpdate(update)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record outbound message", err)
	}

	return nil
}

// List returns all leads ordered by conversation recency.
func (s *Service) List(ctx context.Context) ([]repository.Lead, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return items, nil
}

// Get returns the lead for a phone in any input format.
func (s *Service) Get(ctx context.Context, phoneInput string) (repository.Lead, error) {
	lead, err := s.store.GetByPhone(ctx, phone.Digits(phoneInput))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead")
		}
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}
	return lead, nil
}

// SetStatus updates the pipeline status of a lead.
func (s *Service) SetStatus(ctx context.Context, phoneInput, status string) error {
	if status == "" {
		return apperr.Validation("status is required")
	}

	lead, err := s.Get(ctx, phoneInput)
	if err != nil {
		return err
	}

	if err := s.store.UpdateStatus(ctx, lead.ID, status); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update status", err)
	}
	return nil
}

// SetAIStatus toggles the automatic responder for a lead.
func (s *Service) SetAIStatus(ctx context.Context, phoneInput, aiStatus string) error {
	if aiStatus != AIStatusActive && aiStatus != AIStatusInactive {
		return apperr.Validation("aiStatus must be active or inactive")
	}

	lead, err := s.Get(ctx, phoneInput)
	if err != nil {
		return err
	}

	if err := s.store.SetAIStatus(ctx, lead.ID, aiStatus); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update AI status", err)
	}
	return nil
}

// MarkRead zeroes the unread counter when an operator opens the chat.
func (s *Service) MarkRead(ctx context.Context, phoneInput string) error {
	lead, err := s.Get(ctx, phoneInput)
	if err != nil {
		return err
	}

	if err := s.store.ResetUnread(ctx, lead.ID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to reset unread count", err)
	}
	return nil
}
