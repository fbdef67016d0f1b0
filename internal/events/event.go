// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"realty_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Deals Domain Events
// =============================================================================

// DealCreated is published when a new deal enters the pipeline.
type DealCreated struct {
	BaseEvent
	DealID     uuid.UUID  `json:"dealId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	ContactID  *uuid.UUID `json:"contactId,omitempty"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
}

func (e DealCreated) EventName() string { return "deals.deal.created" }

// DealStageChanged is published when a deal moves to a different pipeline stage.
type DealStageChanged struct {
	BaseEvent
	DealID       uuid.UUID `json:"dealId"`
	TenantID     uuid.UUID `json:"tenantId"`
	OldStage     string    `json:"oldStage"`
	NewStage     string    `json:"newStage"`
	Version      int       `json:"version"`
	ClosedReason string    `json:"closedReason,omitempty"`
	ActorID      uuid.UUID `json:"actorId"`
}

func (e DealStageChanged) EventName() string { return "deals.stage.changed" }

// =============================================================================
// Matching Domain Events
// =============================================================================

// MatchShortlisted is published when a property is added to (or refreshed on)
// a deal's shortlist.
type MatchShortlisted struct {
	BaseEvent
	TenantID   uuid.UUID `json:"tenantId"`
	DealID     uuid.UUID `json:"dealId"`
	PropertyID uuid.UUID `json:"propertyId"`
	MatchScore int       `json:"matchScore"`
	Created    bool      `json:"created"`
	ActorID    uuid.UUID `json:"actorId"`
}

func (e MatchShortlisted) EventName() string { return "matching.match.shortlisted" }

// MatchStatusChanged is published when a shortlist entry's workflow status changes.
type MatchStatusChanged struct {
	BaseEvent
	TenantID   uuid.UUID `json:"tenantId"`
	DealID     uuid.UUID `json:"dealId"`
	PropertyID uuid.UUID `json:"propertyId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
	ActorID    uuid.UUID `json:"actorId"`
}

func (e MatchStatusChanged) EventName() string { return "matching.match.status_changed" }

// =============================================================================
// Catalog Domain Events
// =============================================================================

// PropertyChanged is published when a property listing is created or updated.
// The catalog module uses it to schedule a quality score recomputation.
type PropertyChanged struct {
	BaseEvent
	PropertyID uuid.UUID `json:"propertyId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Created    bool      `json:"created"`
}

func (e PropertyChanged) EventName() string { return "catalog.property.changed" }

// QualityScoreCalculated is published when a property quality snapshot is persisted.
type QualityScoreCalculated struct {
	BaseEvent
	PropertyID uuid.UUID `json:"propertyId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Score      int       `json:"score"`
}

func (e QualityScoreCalculated) EventName() string { return "catalog.quality.calculated" }
