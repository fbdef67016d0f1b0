// Package service implements the deal lifecycle: creation, lookups and
// stage transitions under optimistic concurrency control.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realty_portal_backend/internal/deals/domain"
	"realty_portal_backend/internal/deals/repository"
	"realty_portal_backend/internal/deals/transport"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo repository.DealsRepository
	bus  events.Bus
	log  *logger.Logger

	// now is swappable in tests.
	now func() time.Time
}

func New(repo repository.DealsRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, req transport.CreateDealRequest) (*transport.DealResponse, error) {
	if err := validateBudget(req.BudgetMin, req.BudgetMax); err != nil {
		return nil, err
	}

	criteria := domain.Criteria{}
	if req.Criteria != nil {
		criteria = *req.Criteria
	}

	deal, err := s.repo.Create(ctx, repository.CreateDealParams{
		TenantID:      tenantID,
		ContactID:     req.ContactID,
		Title:         req.Title,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		LocationZone:  req.LocationZone,
		Criteria:      criteria,
		ExpectedValue: req.ExpectedValue,
		Probability:   req.Probability,
		AssignedTo:    req.AssignedTo,
	})
	if err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.DealCreated{
			BaseEvent:  events.NewBaseEvent(),
			DealID:     deal.ID,
			TenantID:   tenantID,
			ContactID:  deal.ContactID,
			AssignedTo: deal.AssignedTo,
		})
	}

	return toResponse(deal), nil
}

func (s *Service) Get(ctx context.Context, tenantID, dealID uuid.UUID) (*transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, dealID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("deal not found")
		}
		return nil, err
	}
	return toResponse(deal), nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]transport.DealResponse, error) {
	deals, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.DealResponse, len(deals))
	for i, deal := range deals {
		out[i] = *toResponse(deal)
	}
	return out, nil
}

// AdvanceStage moves a deal to a new pipeline stage, optionally bundling
// other field updates into the same atomic write. The caller must present
// the version it read; a stale version is rejected with a Conflict and the
// stored record is left unchanged. On success the version increments by
// exactly one.
func (s *Service) AdvanceStage(ctx context.Context, tenantID, actorID, dealID uuid.UUID, req transport.AdvanceStageRequest) (*transport.DealResponse, error) {
	if !domain.IsKnownStage(req.Stage) {
		return nil, apperr.Validation(fmt.Sprintf("unknown stage %q", req.Stage))
	}

	deal, err := s.repo.GetByID(ctx, dealID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("deal not found")
		}
		return nil, err
	}

	params := mergeUpdates(deal, req)
	params.ExpectedVersion = req.ExpectedVersion

	if err := validateBudget(params.BudgetMin, params.BudgetMax); err != nil {
		return nil, err
	}

	switch domain.ClosingEffect(deal.Stage, req.Stage) {
	case domain.ClosingSet:
		now := s.now()
		params.ClosedAt = &now
		params.ClosedReason = req.ClosedReason
	case domain.ClosingClear:
		params.ClosedAt = nil
		params.ClosedReason = nil
	case domain.ClosingKeep:
		params.ClosedAt = deal.ClosedAt
		params.ClosedReason = deal.ClosedReason
	}

	updated, err := s.repo.UpdateWithVersion(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperr.Conflict("deal was modified by another user")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("deal not found")
		}
		return nil, err
	}

	if s.log != nil {
		s.log.StageTransition(updated.ID.String(), deal.Stage, updated.Stage, updated.Version)
	}

	if s.bus != nil {
		closedReason := ""
		if updated.ClosedReason != nil {
			closedReason = *updated.ClosedReason
		}
		s.bus.Publish(ctx, events.DealStageChanged{
			BaseEvent:    events.NewBaseEvent(),
			DealID:       updated.ID,
			TenantID:     tenantID,
			OldStage:     deal.Stage,
			NewStage:     updated.Stage,
			Version:      updated.Version,
			ClosedReason: closedReason,
			ActorID:      actorID,
		})
	}

	return toResponse(updated), nil
}

// mergeUpdates folds the request's bundled field updates over the stored
// deal, producing the complete next state for the CAS write.
func mergeUpdates(deal repository.Deal, req transport.AdvanceStageRequest) repository.UpdateDealParams {
	params := repository.UpdateDealParams{
		ID:            deal.ID,
		TenantID:      deal.TenantID,
		Title:         deal.Title,
		BudgetMin:     deal.BudgetMin,
		BudgetMax:     deal.BudgetMax,
		LocationZone:  deal.LocationZone,
		Criteria:      deal.Criteria,
		Stage:         req.Stage,
		ExpectedValue: deal.ExpectedValue,
		Probability:   deal.Probability,
		AssignedTo:    deal.AssignedTo,
	}

	if req.Title != nil {
		params.Title = *req.Title
	}
	if req.BudgetMin != nil {
		params.BudgetMin = req.BudgetMin
	}
	if req.BudgetMax != nil {
		params.BudgetMax = req.BudgetMax
	}
	if req.LocationZone != nil {
		params.LocationZone = req.LocationZone
	}
	if req.Criteria != nil {
		params.Criteria = *req.Criteria
	}
	if req.ExpectedValue != nil {
		params.ExpectedValue = req.ExpectedValue
	}
	if req.Probability != nil {
		params.Probability = req.Probability
	}
	if req.AssignedTo != nil {
		params.AssignedTo = req.AssignedTo
	}

	return params
}

func validateBudget(min, max *float64) error {
	if min != nil && max != nil && *min > *max {
		return apperr.Validation("budgetMin cannot exceed budgetMax")
	}
	return nil
}

func toResponse(deal repository.Deal) *transport.DealResponse {
	return &transport.DealResponse{
		ID:            deal.ID,
		TenantID:      deal.TenantID,
		ContactID:     deal.ContactID,
		Title:         deal.Title,
		BudgetMin:     deal.BudgetMin,
		BudgetMax:     deal.BudgetMax,
		LocationZone:  deal.LocationZone,
		Criteria:      deal.Criteria,
		Stage:         deal.Stage,
		ExpectedValue: deal.ExpectedValue,
		Probability:   deal.Probability,
		AssignedTo:    deal.AssignedTo,
		Version:       deal.Version,
		ClosedAt:      deal.ClosedAt,
		ClosedReason:  deal.ClosedReason,
		CreatedAt:     deal.CreatedAt,
		UpdatedAt:     deal.UpdatedAt,
	}
}
