// Package service implements match ranking and shortlist management for
// the matching bounded context.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	catalogrepo "realty_portal_backend/internal/catalog/repository"
	dealsrepo "realty_portal_backend/internal/deals/repository"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/matching/domain"
	"realty_portal_backend/internal/matching/repository"
	"realty_portal_backend/internal/matching/scoring"
	"realty_portal_backend/internal/matching/transport"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	deals   dealsrepo.DealsRepository
	catalog catalogrepo.CatalogRepository
	matches repository.MatchRepository
	bus     events.Bus
	log     *logger.Logger
	cfg     config.MatchingConfig
}

func New(
	deals dealsrepo.DealsRepository,
	catalog catalogrepo.CatalogRepository,
	matches repository.MatchRepository,
	bus events.Bus,
	log *logger.Logger,
	cfg config.MatchingConfig,
) *Service {
	return &Service{deals: deals, catalog: catalog, matches: matches, bus: bus, log: log, cfg: cfg}
}

// Rank scores every property visible to the deal's tenant against the
// deal's criteria, drops results below the threshold, and returns the
// best matches sorted by score descending. Ties keep the candidate
// fetch order. A nil threshold or limit falls back to the configured
// default.
func (s *Service) Rank(ctx context.Context, tenantID, dealID uuid.UUID, threshold, limit *int) ([]transport.RankedMatchResponse, error) {
	minScore := s.cfg.GetMatchThreshold()
	if threshold != nil {
		minScore = *threshold
	}
	maxResults := s.cfg.GetMatchLimit()
	if limit != nil {
		maxResults = *limit
	}

	deal, err := s.deals.GetByID(ctx, dealID, tenantID)
	if err != nil {
		if errors.Is(err, dealsrepo.ErrNotFound) {
			return nil, apperr.NotFound("deal not found")
		}
		return nil, err
	}

	candidates, err := s.catalog.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	profile := scoring.DealProfile{
		BudgetMin:    deal.BudgetMin,
		BudgetMax:    deal.BudgetMax,
		LocationZone: deal.LocationZone,
		Criteria:     deal.Criteria,
	}

	// Scoring is pure, so the fan-out shares nothing but the results
	// slice, each goroutine writing its own index.
	results := make([]scoring.Result, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	// A limit below 1 would make every Go call block forever.
	parallelism := s.cfg.GetMatchParallelism()
	if parallelism < 1 {
		parallelism = 1
	}
	g.SetLimit(parallelism)
	for i := range candidates {
		g.Go(func() error {
			results[i] = scoring.Score(profile, candidates[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type indexed struct {
		idx    int
		result scoring.Result
	}
	ranked := make([]indexed, 0, len(candidates))
	for i, result := range results {
		if result.Total < minScore {
			continue
		}
		ranked = append(ranked, indexed{idx: i, result: result})
	}

	// Stable sort keeps fetch order among equal scores.
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].result.Total > ranked[b].result.Total
	})
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	out := make([]transport.RankedMatchResponse, len(ranked))
	for i, entry := range ranked {
		out[i] = transport.RankedMatchResponse{
			PropertyID:       candidates[entry.idx].ID,
			MatchScore:       entry.result.Total,
			MatchExplanation: entry.result,
		}
	}

	if s.log != nil {
		s.log.MatchRun(dealID.String(), len(candidates), len(out))
	}

	return out, nil
}

// AddToShortlist records a scored deal-property pair. The operation is an
// idempotent upsert keyed by (tenant, deal, property): a repeat call
// refreshes score and explanation but never duplicates the record or
// touches its workflow status.
func (s *Service) AddToShortlist(ctx context.Context, tenantID, actorID, dealID uuid.UUID, req transport.AddToShortlistRequest) (*transport.MatchResponse, error) {
	if _, err := s.deals.GetByID(ctx, dealID, tenantID); err != nil {
		if errors.Is(err, dealsrepo.ErrNotFound) {
			return nil, apperr.NotFound("deal not found")
		}
		return nil, err
	}
	property, err := s.catalog.GetByID(ctx, req.PropertyID, tenantID)
	if err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, err
	}

	sourceOwner := req.SourceOwnerContactID
	if sourceOwner == nil {
		sourceOwner = property.OwnerContactID
	}

	match, created, err := s.matches.Upsert(ctx, repository.UpsertMatchParams{
		TenantID:             tenantID,
		DealID:               dealID,
		PropertyID:           req.PropertyID,
		MatchScore:           req.MatchScore,
		MatchExplanation:     req.MatchExplanation,
		InitialStatus:        domain.StatusShortlisted,
		SourceOwnerContactID: sourceOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert match: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.MatchShortlisted{
			BaseEvent:  events.NewBaseEvent(),
			TenantID:   tenantID,
			DealID:     dealID,
			PropertyID: req.PropertyID,
			MatchScore: match.MatchScore,
			Created:    created,
			ActorID:    actorID,
		})
	}

	return toResponse(match), nil
}

// ListShortlist returns the deal's stored shortlist, best score first.
func (s *Service) ListShortlist(ctx context.Context, tenantID, dealID uuid.UUID) ([]transport.MatchResponse, error) {
	if _, err := s.deals.GetByID(ctx, dealID, tenantID); err != nil {
		if errors.Is(err, dealsrepo.ErrNotFound) {
			return nil, apperr.NotFound("deal not found")
		}
		return nil, err
	}

	matches, err := s.matches.ListByDeal(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.MatchResponse, len(matches))
	for i, match := range matches {
		out[i] = *toResponse(match)
	}
	return out, nil
}

// UpdateStatus moves a shortlist entry to a new workflow status. Any known
// status is accepted from any other; only unknown values are rejected.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, actorID, dealID, propertyID uuid.UUID, status string) (*transport.MatchResponse, error) {
	if !domain.IsKnownStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("unknown match status %q", status))
	}

	current, err := s.matches.GetByDealAndProperty(ctx, tenantID, dealID, propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("match record not found")
		}
		return nil, err
	}

	updated, err := s.matches.UpdateStatus(ctx, tenantID, dealID, propertyID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("match record not found")
		}
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.MatchStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			TenantID:   tenantID,
			DealID:     dealID,
			PropertyID: propertyID,
			OldStatus:  current.Status,
			NewStatus:  updated.Status,
			ActorID:    actorID,
		})
	}

	return toResponse(updated), nil
}

func toResponse(match repository.Match) *transport.MatchResponse {
	return &transport.MatchResponse{
		ID:                   match.ID,
		DealID:               match.DealID,
		PropertyID:           match.PropertyID,
		MatchScore:           match.MatchScore,
		MatchExplanation:     match.MatchExplanation,
		Status:               match.Status,
		SourceOwnerContactID: match.SourceOwnerContactID,
		CreatedAt:            match.CreatedAt,
		UpdatedAt:            match.UpdatedAt,
	}
}
