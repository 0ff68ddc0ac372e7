package inbound

import (
	"io"
	"net/http"

	"leadchat_backend/platform/config"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler terminates the three inbound webhook surfaces. Each channel has
// its own acknowledgment contract, documented on its method.
type Handler struct {
	svc              *Service
	verifyToken      string
	automationSecret string
	log              *logger.Logger
}

type HandlerConfig interface {
	config.MetaConfig
	config.AutomationConfig
}

func NewHandler(svc *Service, cfg HandlerConfig, log *logger.Logger) *Handler {
	return &Handler{
		svc:              svc,
		verifyToken:      cfg.GetMetaVerifyToken(),
		automationSecret: cfg.GetAutomationWebhookSecret(),
		log:              log,
	}
}

// VerifyMeta answers the Meta webhook subscription handshake: echo the
// challenge when the mode and token match, 403 otherwise.
func (h *Handler) VerifyMeta(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}

	c.String(http.StatusForbidden, "verification failed")
}

// ReceiveMeta ingests a Meta Cloud API webhook delivery. Meta disables the
// subscription after repeated non-200 responses, so this endpoint returns
// 200 no matter what the payload contains or what fails downstream.
func (h *Handler) ReceiveMeta(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	for _, event := range DecodeMeta(body) {
		if err := h.svc.ProcessEvent(c.Request.Context(), event); err != nil {
			h.log.WebhookEvent(ChannelWhatsApp, event.Phone, "failed")
			h.log.Error("failed to process meta webhook event", "phone", event.Phone, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// ReceiveAutomation ingests a chat-automation webhook. A bad secret is 401,
// probes and unprocessable payloads acknowledge with 200, and only a
// datastore failure surfaces as 500 so the platform retries.
func (h *Handler) ReceiveAutomation(c *gin.Context) {
	if c.Query("secret") != h.automationSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	event, probe := DecodeAutomation(body)
	if probe {
		c.JSON(http.StatusOK, gin.H{"status": "test received"})
		return
	}
	if event == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.svc.ProcessEvent(c.Request.Context(), *event); err != nil {
		h.log.WebhookEvent(ChannelAutomation, event.Phone, "failed")
		h.log.Error("failed to process automation webhook event", "phone", event.Phone, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// ReceiveForm ingests a public web form submission.
func (h *Handler) ReceiveForm(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	event, ok := DecodeForm(body)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "a valid phone number is required", nil)
		return
	}

	if err := h.svc.ProcessEvent(c.Request.Context(), event); err != nil {
		h.log.WebhookEvent(ChannelForm, event.Phone, "failed")
		if httpkit.HandleError(c, err) {
			return
		}
	}

	httpkit.OK(c, gin.H{"success": true})
}
