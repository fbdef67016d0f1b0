// Package service implements property catalog management and quality
// score calculation.
package service

import (
	"context"
	"errors"
	"fmt"

	"realty_portal_backend/internal/catalog/quality"
	"realty_portal_backend/internal/catalog/repository"
	"realty_portal_backend/internal/catalog/transport"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// QualityRecalcScheduler enqueues a background quality score recomputation.
// The catalog treats scheduling as fire-and-forget: an enqueue failure is
// logged and never fails the property mutation that triggered it.
type QualityRecalcScheduler interface {
	EnqueueQualityRecalculate(ctx context.Context, propertyID, tenantID uuid.UUID) error
}

type Service struct {
	repo      repository.CatalogRepository
	bus       events.Bus
	scheduler QualityRecalcScheduler
	log       *logger.Logger
}

func New(repo repository.CatalogRepository, bus events.Bus, scheduler QualityRecalcScheduler, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, scheduler: scheduler, log: log}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.UpsertPropertyRequest) (*transport.PropertyResponse, error) {
	prop, err := s.repo.Create(ctx, toParams(tenantID, req))
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}

	s.afterMutation(ctx, prop, true)
	return toResponse(prop), nil
}

func (s *Service) Update(ctx context.Context, tenantID, propertyID uuid.UUID, req transport.UpsertPropertyRequest) (*transport.PropertyResponse, error) {
	prop, err := s.repo.Update(ctx, propertyID, toParams(tenantID, req))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, fmt.Errorf("update property: %w", err)
	}

	s.afterMutation(ctx, prop, false)
	return toResponse(prop), nil
}

func (s *Service) Get(ctx context.Context, tenantID, propertyID uuid.UUID) (*transport.PropertyResponse, error) {
	prop, err := s.repo.GetByID(ctx, propertyID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, err
	}
	return toResponse(prop), nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]transport.PropertyResponse, error) {
	props, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.PropertyResponse, len(props))
	for i, prop := range props {
		out[i] = *toResponse(prop)
	}
	return out, nil
}

// CalculateQualityScore computes the property's completeness score against
// its type template, persists a snapshot, and returns it. Snapshots are
// append-only; each call adds a new row.
func (s *Service) CalculateQualityScore(ctx context.Context, tenantID, propertyID uuid.UUID) (*transport.QualityScoreResponse, error) {
	prop, err := s.repo.GetByID(ctx, propertyID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, err
	}

	requiredFields, err := s.repo.GetRequiredFields(ctx, tenantID, prop.PropertyType)
	if err != nil {
		return nil, fmt.Errorf("fetch type template: %w", err)
	}

	result := quality.Score(prop, requiredFields)

	snapshot, err := s.repo.InsertQualityScore(ctx, repository.QualityScore{
		PropertyID:  propertyID,
		TenantID:    tenantID,
		Score:       result.Score,
		Suggestions: result.Suggestions,
		Breakdown:   result.Breakdown,
	})
	if err != nil {
		return nil, fmt.Errorf("persist quality score: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QualityScoreCalculated{
			BaseEvent:  events.NewBaseEvent(),
			PropertyID: propertyID,
			TenantID:   tenantID,
			Score:      snapshot.Score,
		})
	}

	return toScoreResponse(snapshot), nil
}

// GetLatestQualityScore returns the most recent persisted snapshot.
func (s *Service) GetLatestQualityScore(ctx context.Context, tenantID, propertyID uuid.UUID) (*transport.QualityScoreResponse, error) {
	snapshot, err := s.repo.GetLatestQualityScore(ctx, propertyID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no quality score calculated yet")
		}
		return nil, err
	}
	return toScoreResponse(snapshot), nil
}

// afterMutation publishes the change event and schedules a quality score
// recomputation. Neither side effect may fail the mutation.
func (s *Service) afterMutation(ctx context.Context, prop repository.Property, created bool) {
	if s.bus != nil {
		s.bus.Publish(ctx, events.PropertyChanged{
			BaseEvent:  events.NewBaseEvent(),
			PropertyID: prop.ID,
			TenantID:   prop.TenantID,
			Created:    created,
		})
	}

	if s.scheduler != nil {
		if err := s.scheduler.EnqueueQualityRecalculate(ctx, prop.ID, prop.TenantID); err != nil && s.log != nil {
			s.log.Warn("quality recalculation enqueue failed", "error", err, "propertyId", prop.ID)
		}
	}
}

func toParams(tenantID uuid.UUID, req transport.UpsertPropertyRequest) repository.UpsertPropertyParams {
	media := make([]repository.MediaItem, len(req.Media))
	for i, item := range req.Media {
		media[i] = repository.MediaItem{URL: item.URL, IsPrimary: item.IsPrimary, Position: item.Position}
	}

	return repository.UpsertPropertyParams{
		TenantID:         tenantID,
		OwnerContactID:   req.OwnerContactID,
		PropertyType:     req.PropertyType,
		Title:            req.Title,
		Price:            req.Price,
		LocationZone:     req.LocationZone,
		SurfaceArea:      req.SurfaceArea,
		Rooms:            req.Rooms,
		Bedrooms:         req.Bedrooms,
		FurnishingStatus: req.FurnishingStatus,
		Features:         req.Features,
		Description:      req.Description,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Media:            media,
	}
}

func toResponse(prop repository.Property) *transport.PropertyResponse {
	features := prop.Features
	if features == nil {
		features = []string{}
	}
	media := prop.Media
	if media == nil {
		media = []repository.MediaItem{}
	}

	return &transport.PropertyResponse{
		ID:               prop.ID,
		TenantID:         prop.TenantID,
		OwnerContactID:   prop.OwnerContactID,
		PropertyType:     prop.PropertyType,
		Title:            prop.Title,
		Price:            prop.Price,
		LocationZone:     prop.LocationZone,
		SurfaceArea:      prop.SurfaceArea,
		Rooms:            prop.Rooms,
		Bedrooms:         prop.Bedrooms,
		FurnishingStatus: prop.FurnishingStatus,
		Features:         features,
		Description:      prop.Description,
		Latitude:         prop.Latitude,
		Longitude:        prop.Longitude,
		Media:            media,
		CreatedAt:        prop.CreatedAt,
		UpdatedAt:        prop.UpdatedAt,
	}
}

func toScoreResponse(snapshot repository.QualityScore) *transport.QualityScoreResponse {
	suggestions := snapshot.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return &transport.QualityScoreResponse{
		PropertyID:   snapshot.PropertyID,
		Score:        snapshot.Score,
		Suggestions:  suggestions,
		Breakdown:    snapshot.Breakdown,
		CalculatedAt: snapshot.CalculatedAt,
	}
}
