package inbound

import (
	"context"
	"time"

	"leadchat_backend/internal/ai"
	"leadchat_backend/internal/leads/conversation"
	"leadchat_backend/internal/leads/repository"
	"leadchat_backend/internal/leads/sourcing"
	"leadchat_backend/platform/logger"
)

// Default attribution for messaging channels with no referral hint.
const sourceMessagingDefault = "WhatsApp"

// The responder only ever sees the tail of long conversations.
const maxContextMessages = 20

// Deadline for a fallback in-process reply when no queue is configured.
const inlineReplyTimeout = 60 * time.Second

// LeadResolver is the leads surface this service needs.
type LeadResolver interface {
	Resolve(ctx context.Context, phone, name, source, channel string) (repository.Lead, bool, error)
	RecordClientMessage(ctx context.Context, lead repository.Lead, body, channel string) error
	RecordAIReply(ctx context.Context, phone, text string) error
	Get(ctx context.Context, phone string) (repository.Lead, error)
}

// Responder produces reply text from conversation context.
type Responder interface {
	Respond(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Dispatcher sends outbound WhatsApp messages.
type Dispatcher interface {
	SendText(ctx context.Context, phone, text string) error
}

// Enqueuer schedules an AI reply for background processing.
type Enqueuer interface {
	EnqueueAIReply(ctx context.Context, phone string) error
}

type Service struct {
	resolver   LeadResolver
	responder  Responder
	dispatcher Dispatcher
	enqueuer   Enqueuer
	rules      []sourcing.Rule
	log        *logger.Logger
}

// NewService wires the inbound pipeline. responder may be nil (AI disabled)
// and enqueuer may be nil (replies run in-process).
func NewService(
	resolver LeadResolver,
	responder Responder,
	dispatcher Dispatcher,
	enqueuer Enqueuer,
	rules []sourcing.Rule,
	log *logger.Logger,
) *Service {
	return &Service{
		resolver:   resolver,
		responder:  responder,
		dispatcher: dispatcher,
		enqueuer:   enqueuer,
		rules:      rules,
		log:        log,
	}
}

// ProcessEvent runs one normalized inbound message through the pipeline:
// attribute the source, resolve the lead, record the message, and schedule
// an AI reply when the lead has the responder active. Reply scheduling is
// asynchronous so webhook acknowledgment never waits on outbound latency.
func (s *Service) ProcessEvent(ctx context.Context, event Event) error {
	source := s.attribution(event)

	lead, created, err := s.resolver.Resolve(ctx, event.Phone, event.Name, source, event.Channel)
	if err != nil {
		return err
	}

	if err := s.resolver.RecordClientMessage(ctx, lead, event.Text, event.Channel); err != nil {
		return err
	}

	s.log.WebhookEvent(event.Channel, event.Phone, "recorded")

	if s.responder == nil {
		return nil
	}
	if !created && lead.AIStatus != "active" {
		return nil
	}

	s.queueReply(ctx, event.Phone)
	return nil
}

func (s *Service) attribution(event Event) string {
	if event.Channel == ChannelForm {
		return sourcing.Match(event.Referral, s.rules)
	}
	if event.Referral != "" {
		return sourcing.Match(event.Referral, s.rules)
	}
	return sourceMessagingDefault
}

func (s *Service) queueReply(ctx context.Context, phoneDigits string) {
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueAIReply(ctx, phoneDigits); err == nil {
			return
		} else {
			s.log.Error("failed to enqueue AI reply, falling back to inline", "phone", phoneDigits, "error", err)
		}
	}

	go func() {
		replyCtx, cancel := context.WithTimeout(context.Background(), inlineReplyTimeout)
		defer cancel()
		if err := s.RespondAndDispatch(replyCtx, phoneDigits); err != nil {
			s.log.Error("inline AI reply failed", "phone", phoneDigits, "error", err)
		}
	}()
}

// RespondAndDispatch generates an AI reply for a lead's conversation, sends
// it over WhatsApp, and records it. Responder failures are logged and the
// reply is dropped; the client message is already safely recorded.
func (s *Service) RespondAndDispatch(ctx context.Context, phoneDigits string) error {
	if s.responder == nil {
		return nil
	}

	lead, err := s.resolver.Get(ctx, phoneDigits)
	if err != nil {
		return err
	}

	// The responder may have been toggled off between enqueue and run.
	if lead.AIStatus != "active" {
		return nil
	}

	text, err := s.responder.Respond(ctx, buildContext(conversation.DecodeLog(lead.Chat)))
	if err != nil {
		s.log.ProviderError("ai_responder", "respond", err)
		return nil
	}

	if err := s.dispatcher.SendText(ctx, phoneDigits, text); err != nil {
		s.log.ProviderError("whatsapp", "ai_reply_send", err)
		return nil
	}

	return s.resolver.RecordAIReply(ctx, phoneDigits, text)
}

func buildContext(messages []conversation.Message) []ai.ChatMessage {
	if len(messages) > maxContextMessages {
		messages = messages[len(messages)-maxContextMessages:]
	}

	chat := make([]ai.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := ai.RoleAssistant
		if msg.Author == conversation.AuthorClient {
			role = ai.RoleUser
		}
		chat = append(chat, ai.ChatMessage{Role: role, Content: msg.Body})
	}

	return chat
}
