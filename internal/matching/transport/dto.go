package transport

import (
	"time"

	"realty_portal_backend/internal/matching/scoring"

	"github.com/google/uuid"
)

// =============================================================================
// Requests
// =============================================================================

// AddToShortlistRequest adds a scored property to a deal's shortlist.
// Score and explanation come from a prior rank call; a repeat add for the
// same property refreshes them without duplicating the record.
type AddToShortlistRequest struct {
	PropertyID           uuid.UUID      `json:"propertyId" validate:"required"`
	MatchScore           int            `json:"matchScore" validate:"min=0,max=100"`
	MatchExplanation     scoring.Result `json:"matchExplanation"`
	SourceOwnerContactID *uuid.UUID     `json:"sourceOwnerContactId"`
}

// UpdateMatchStatusRequest moves a shortlist entry to a new workflow status.
type UpdateMatchStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// =============================================================================
// Responses
// =============================================================================

// RankedMatchResponse is one entry of a rank result, ordered best first.
type RankedMatchResponse struct {
	PropertyID       uuid.UUID      `json:"propertyId"`
	MatchScore       int            `json:"matchScore"`
	MatchExplanation scoring.Result `json:"matchExplanation"`
}

// MatchResponse is the API representation of a stored shortlist entry.
type MatchResponse struct {
	ID                   uuid.UUID      `json:"id"`
	DealID               uuid.UUID      `json:"dealId"`
	PropertyID           uuid.UUID      `json:"propertyId"`
	MatchScore           int            `json:"matchScore"`
	MatchExplanation     scoring.Result `json:"matchExplanation"`
	Status               string         `json:"status"`
	SourceOwnerContactID *uuid.UUID     `json:"sourceOwnerContactId,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}
