package repository

import (
	"context"

	"github.com/google/uuid"
)

// DealsRepository is the persistence contract consumed by the deals service.
// Defined as an interface so service tests can substitute a fake.
type DealsRepository interface {
	Create(ctx context.Context, params CreateDealParams) (Deal, error)
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Deal, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Deal, error)
	UpdateWithVersion(ctx context.Context, params UpdateDealParams) (Deal, error)
}

// Compile-time check that the pgx implementation satisfies the contract.
var _ DealsRepository = (*Repository)(nil)
