// Package leads provides the leads bounded context module.
package leads

import (
	"leadchat_backend/internal/events"
	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/internal/leads/handler"
	"leadchat_backend/internal/leads/repository"
	"leadchat_backend/internal/leads/service"
	"leadchat_backend/internal/operators"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	dispatcher service.Dispatcher,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, dispatcher, eventBus, log)
	h := handler.New(svc, operators.New(pool), val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
