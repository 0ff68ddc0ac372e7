// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadchat_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created from any channel.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Phone   string    `json:"phone"`
	Channel string    `json:"channel"`
	Source  string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// InboundMessageRecorded is published after a client message is appended to
// a lead's conversation.
type InboundMessageRecorded struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Phone   string    `json:"phone"`
	Channel string    `json:"channel"`
}

func (e InboundMessageRecorded) EventName() string { return "leads.message.inbound_recorded" }

// AIReplyDispatched is published after an AI reply was sent to the client
// and recorded in the conversation.
type AIReplyDispatched struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Phone  string    `json:"phone"`
}

func (e AIReplyDispatched) EventName() string { return "leads.message.ai_reply_dispatched" }

// OutboundSendFailed is published when a WhatsApp send is rejected by the
// provider or fails in transit.
type OutboundSendFailed struct {
	BaseEvent
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

func (e OutboundSendFailed) EventName() string { return "leads.message.outbound_send_failed" }

// =============================================================================
// Telephony Domain Events
// =============================================================================

// CallPlaced is published when a click-to-call request is accepted by the
// telephony platform.
type CallPlaced struct {
	BaseEvent
	OperatorID uuid.UUID `json:"operatorId"`
	AgentID    string    `json:"agentId"`
	Phone      string    `json:"phone"`
}

func (e CallPlaced) EventName() string { return "telephony.call.placed" }
