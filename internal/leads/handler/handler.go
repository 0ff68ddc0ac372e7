package handler

import (
	"context"
	"net/http"

	"leadchat_backend/internal/leads/conversation"
	"leadchat_backend/internal/leads/service"
	"leadchat_backend/internal/leads/transport"
	"leadchat_backend/internal/operators"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Profiles resolves operator display names for chat attribution.
type Profiles interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (operators.Operator, error)
}

// Handler handles HTTP requests for leads and their conversations.
type Handler struct {
	svc      *service.Service
	profiles Profiles
	val      *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, profiles Profiles, val *validator.Validator) *Handler {
	return &Handler{svc: svc, profiles: profiles, val: val}
}

// RegisterRoutes registers lead routes. All routes are operator-facing and
// mount under the authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:phone", h.Get)
	rg.POST("/:phone/messages", h.SendMessage)
	rg.PATCH("/:phone/status", h.UpdateStatus)
	rg.PATCH("/:phone/ai", h.UpdateAIStatus)
	rg.POST("/:phone/read", h.MarkRead)
}

func (h *Handler) List(c *gin.Context) {
	leads, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) Get(c *gin.Context) {
	lead, err := h.svc.Get(c.Request.Context(), c.Param("phone"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// SendMessage delivers an operator message. The response always carries a
// success flag; delivery failures surface the provider reason with the
// mapped status code.
func (h *Handler) SendMessage(c *gin.Context) {
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var attachment *conversation.Attachment
	if req.Attachment != nil {
		attachment = &conversation.Attachment{
			Name: req.Attachment.Name,
			Type: req.Attachment.Type,
			URL:  req.Attachment.URL,
		}
	}

	err := h.svc.ManualSend(c.Request.Context(), service.ManualSendParams{
		Phone:      c.Param("phone"),
		Body:       req.Message,
		Author:     h.operatorName(c),
		Attachment: attachment,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if domainErr, ok := err.(*apperr.Error); ok {
			status = domainErr.HTTPStatus()
		}
		httpkit.JSON(c, status, transport.SendMessageResponse{Success: false, Error: err.Error()})
		return
	}

	httpkit.OK(c, transport.SendMessageResponse{Success: true})
}

// operatorName resolves the caller's display name for chat attribution.
// Callers without a profile fall back to the generic operator label.
func (h *Handler) operatorName(c *gin.Context) string {
	if h.profiles == nil {
		return ""
	}
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		return ""
	}
	op, err := h.profiles.GetByUserID(c.Request.Context(), identity.UserID())
	if err != nil {
		return ""
	}
	return op.DisplayName
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.SetStatus(c.Request.Context(), c.Param("phone"), req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"success": true})
}

func (h *Handler) UpdateAIStatus(c *gin.Context) {
	var req transport.UpdateAIStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.SetAIStatus(c.Request.Context(), c.Param("phone"), req.AIStatus)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"success": true})
}

func (h *Handler) MarkRead(c *gin.Context) {
	err := h.svc.MarkRead(c.Request.Context(), c.Param("phone"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"success": true})
}
