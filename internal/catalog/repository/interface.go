package repository

import (
	"context"

	"github.com/google/uuid"
)

// CatalogRepository is the persistence contract consumed by the catalog
// service and by the match ranker's candidate fetch.
type CatalogRepository interface {
	Create(ctx context.Context, params UpsertPropertyParams) (Property, error)
	Update(ctx context.Context, id uuid.UUID, params UpsertPropertyParams) (Property, error)
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (Property, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Property, error)
	GetRequiredFields(ctx context.Context, tenantID uuid.UUID, propertyType string) ([]string, error)
	InsertQualityScore(ctx context.Context, score QualityScore) (QualityScore, error)
	GetLatestQualityScore(ctx context.Context, propertyID, tenantID uuid.UUID) (QualityScore, error)
}

// Compile-time check that the pgx implementation satisfies the contract.
var _ CatalogRepository = (*Repository)(nil)
