// Package deals provides the deal pipeline bounded context module.
// This file defines the module that encapsulates all deals setup and route registration.
package deals

import (
	"realty_portal_backend/internal/deals/handler"
	"realty_portal_backend/internal/deals/repository"
	"realty_portal_backend/internal/deals/service"
	"realty_portal_backend/internal/events"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the deals bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates and initializes the deals module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:    h,
		service:    svc,
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "deals"
}

// Service returns the deal service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the deals repository; the matching module reads
// deals through it.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts deal routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All deal routes require authentication
	dealsGroup := ctx.Protected.Group("/deals")
	m.handler.RegisterRoutes(dealsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
