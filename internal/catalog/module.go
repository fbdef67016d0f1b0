// Package catalog provides the property catalog bounded context module:
// listings, type templates and quality scoring.
package catalog

import (
	"realty_portal_backend/internal/catalog/handler"
	"realty_portal_backend/internal/catalog/repository"
	"realty_portal_backend/internal/catalog/service"
	"realty_portal_backend/internal/events"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates and initializes the catalog module. scheduler may be
// nil, in which case quality recomputation only happens on demand.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, scheduler service.QualityRecalcScheduler, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, scheduler, log)
	h := handler.New(svc, val)

	return &Module{
		handler:    h,
		service:    svc,
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the catalog service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the catalog repository; the matching module reads
// candidate properties through it.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts property routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	propertiesGroup := ctx.Protected.Group("/properties")
	m.handler.RegisterRoutes(propertiesGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
