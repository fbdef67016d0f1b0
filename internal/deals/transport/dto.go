package transport

import (
	"time"

	"realty_portal_backend/internal/deals/domain"

	"github.com/google/uuid"
)

// =============================================================================
// Requests
// =============================================================================

// CreateDealRequest is the request body for opening a new deal.
// New deals always start in stage NEW with version 1.
type CreateDealRequest struct {
	ContactID     *uuid.UUID       `json:"contactId"`
	Title         string           `json:"title" validate:"required,min=1,max=500"`
	BudgetMin     *float64         `json:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax     *float64         `json:"budgetMax" validate:"omitempty,min=0"`
	LocationZone  *string          `json:"locationZone" validate:"omitempty,max=255"`
	Criteria      *domain.Criteria `json:"criteria"`
	ExpectedValue *float64         `json:"expectedValue" validate:"omitempty,min=0"`
	Probability   *int             `json:"probability" validate:"omitempty,min=0,max=100"`
	AssignedTo    *uuid.UUID       `json:"assignedTo"`
}

// AdvanceStageRequest is the request body for a stage transition. Any field
// besides stage and expectedVersion is an optional bundled update persisted
// atomically with the stage change.
type AdvanceStageRequest struct {
	Stage           string           `json:"stage" validate:"required"`
	ExpectedVersion int              `json:"expectedVersion" validate:"required,min=1"`
	ClosedReason    *string          `json:"closedReason" validate:"omitempty,max=1000"`
	Title           *string          `json:"title" validate:"omitempty,min=1,max=500"`
	BudgetMin       *float64         `json:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax       *float64         `json:"budgetMax" validate:"omitempty,min=0"`
	LocationZone    *string          `json:"locationZone" validate:"omitempty,max=255"`
	Criteria        *domain.Criteria `json:"criteria"`
	ExpectedValue   *float64         `json:"expectedValue" validate:"omitempty,min=0"`
	Probability     *int             `json:"probability" validate:"omitempty,min=0,max=100"`
	AssignedTo      *uuid.UUID       `json:"assignedTo"`
}

// =============================================================================
// Responses
// =============================================================================

// DealResponse is the API representation of a deal.
type DealResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenantId"`
	ContactID     *uuid.UUID      `json:"contactId,omitempty"`
	Title         string          `json:"title"`
	BudgetMin     *float64        `json:"budgetMin,omitempty"`
	BudgetMax     *float64        `json:"budgetMax,omitempty"`
	LocationZone  *string         `json:"locationZone,omitempty"`
	Criteria      domain.Criteria `json:"criteria"`
	Stage         string          `json:"stage"`
	ExpectedValue *float64        `json:"expectedValue,omitempty"`
	Probability   *int            `json:"probability,omitempty"`
	AssignedTo    *uuid.UUID      `json:"assignedTo,omitempty"`
	Version       int             `json:"version"`
	ClosedAt      *time.Time      `json:"closedAt,omitempty"`
	ClosedReason  *string         `json:"closedReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
