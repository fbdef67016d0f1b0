package repository

import (
	"context"

	"github.com/google/uuid"
)

// MatchRepository is the persistence contract consumed by the matching
// services. Defined as an interface so service tests can substitute a fake.
type MatchRepository interface {
	Upsert(ctx context.Context, params UpsertMatchParams) (Match, bool, error)
	GetByDealAndProperty(ctx context.Context, tenantID, dealID, propertyID uuid.UUID) (Match, error)
	ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]Match, error)
	UpdateStatus(ctx context.Context, tenantID, dealID, propertyID uuid.UUID, status string) (Match, error)
}

// Compile-time check that the pgx implementation satisfies the contract.
var _ MatchRepository = (*Repository)(nil)
