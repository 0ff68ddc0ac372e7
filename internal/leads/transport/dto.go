// Package transport defines the wire types for the leads HTTP surface.
package transport

import (
	"time"

	"leadchat_backend/internal/leads/conversation"
	"leadchat_backend/internal/leads/repository"
)

// LeadResponse is the API representation of a lead. The chat log is decoded
// for the client; a corrupt stored log comes back as an empty array.
type LeadResponse struct {
	Phone           string                 `json:"phone"`
	Name            string                 `json:"name"`
	Status          string                 `json:"status"`
	Source          string                 `json:"source"`
	AIStatus        string                 `json:"aiStatus"`
	LastMessageFrom string                 `json:"lastMessageFrom"`
	UnreadCount     int                    `json:"unreadCount"`
	Chat            []conversation.Message `json:"chat"`
	LastUpdate      time.Time              `json:"lastUpdate"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// ToLeadResponse maps a stored lead to its API shape.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		Phone:           lead.Phone,
		Name:            lead.Name,
		Status:          lead.Status,
		Source:          lead.Source,
		AIStatus:        lead.AIStatus,
		LastMessageFrom: lead.LastMessageFrom,
		UnreadCount:     lead.UnreadCount,
		Chat:            conversation.DecodeLog(lead.Chat),
		LastUpdate:      lead.LastUpdate,
		CreatedAt:       lead.CreatedAt,
	}
}

// ToLeadResponses maps a list of stored leads.
func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	items := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return items
}

// AttachmentPayload mirrors conversation.Attachment on the wire.
type AttachmentPayload struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// SendMessageRequest is an operator-initiated outbound message.
type SendMessageRequest struct {
	Message    string             `json:"message"`
	Attachment *AttachmentPayload `json:"attachment,omitempty"`
}

// SendMessageResponse reports the outcome of a manual send.
type SendMessageResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// UpdateStatusRequest changes a lead's pipeline status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateAIStatusRequest toggles the automatic responder for a lead.
type UpdateAIStatusRequest struct {
	AIStatus string `json:"aiStatus" validate:"required,oneof=active inactive"`
}
