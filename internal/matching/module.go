// Package matching provides the deal-property matching bounded context
// module: ranking, shortlisting and match status workflow.
package matching

import (
	catalogrepo "realty_portal_backend/internal/catalog/repository"
	dealsrepo "realty_portal_backend/internal/deals/repository"
	"realty_portal_backend/internal/events"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/internal/matching/handler"
	"realty_portal_backend/internal/matching/repository"
	"realty_portal_backend/internal/matching/service"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the matching bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the matching module. It reads deals and
// properties through their repository contracts; both live in the same
// database, only the write models stay with their owning modules.
func NewModule(
	pool *pgxpool.Pool,
	deals dealsrepo.DealsRepository,
	catalog catalogrepo.CatalogRepository,
	eventBus events.Bus,
	val *validator.Validator,
	cfg config.MatchingConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(deals, catalog, repo, eventBus, log, cfg)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "matching"
}

// Service returns the matching service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts matching routes on the provided router context.
// They live under /deals because ranking and shortlists are deal-centric.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	dealsGroup := ctx.Protected.Group("/deals")
	m.handler.RegisterRoutes(dealsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
