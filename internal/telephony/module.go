package telephony

import (
	"leadchat_backend/internal/events"
	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/internal/operators"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the telephony bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	enabled bool
}

// NewModule creates the telephony module. When no platform is configured the
// module registers nothing.
func NewModule(
	pool *pgxpool.Pool,
	cfg config.TelephonyConfig,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	client := NewClient(cfg, log)
	if !client.Enabled() {
		return &Module{enabled: false}
	}

	directory := operators.New(pool)
	svc := NewService(client, directory, cfg, eventBus, log)

	return &Module{handler: NewHandler(svc, val), enabled: true}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "telephony"
}

// RegisterRoutes mounts the click-to-call route on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if !m.enabled {
		return
	}
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
