package inbound

import (
	"time"

	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/platform/logger"

	"github.com/gin-contrib/cors"
)

// Module is the inbound bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the inbound module around an already-wired service.
func NewModule(svc *Service, cfg HandlerConfig, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(svc, cfg, log), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "inbound"
}

// Service returns the pipeline for the background worker.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the webhook routes. Messaging webhooks are
// server-to-server and rate limited by IP; the form endpoint is called from
// arbitrary browsers and carries an open CORS policy.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	webhooks := ctx.V1.Group("/webhook")
	webhooks.Use(ctx.WebhookRateLimiter.RateLimit())

	webhooks.GET("/whatsapp", m.handler.VerifyMeta)
	webhooks.POST("/whatsapp", m.handler.ReceiveMeta)
	webhooks.POST("/automation", m.handler.ReceiveAutomation)

	formCORS := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	})
	webhooks.POST("/forms", formCORS, m.handler.ReceiveForm)
	webhooks.OPTIONS("/forms", formCORS)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
