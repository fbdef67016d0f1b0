package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"realty_portal_backend/internal/deals/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("deal not found")
	ErrVersionConflict = errors.New("deal version conflict")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Deal struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ContactID     *uuid.UUID
	Title         string
	BudgetMin     *float64
	BudgetMax     *float64
	LocationZone  *string
	Criteria      domain.Criteria
	Stage         string
	ExpectedValue *float64
	Probability   *int
	AssignedTo    *uuid.UUID
	Version       int
	ClosedAt      *time.Time
	ClosedReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateDealParams struct {
	TenantID      uuid.UUID
	ContactID     *uuid.UUID
	Title         string
	BudgetMin     *float64
	BudgetMax     *float64
	LocationZone  *string
	Criteria      domain.Criteria
	ExpectedValue *float64
	Probability   *int
	AssignedTo    *uuid.UUID
}

// UpdateDealParams carries the complete new state of a deal for a
// compare-and-swap update. The write succeeds only when the stored
// version still equals ExpectedVersion.
type UpdateDealParams struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ExpectedVersion int
	Title           string
	BudgetMin       *float64
	BudgetMax       *float64
	LocationZone    *string
	Criteria        domain.Criteria
	Stage           string
	ExpectedValue   *float64
	Probability     *int
	AssignedTo      *uuid.UUID
	ClosedAt        *time.Time
	ClosedReason    *string
}

const dealColumns = `id, tenant_id, contact_id, title, budget_min, budget_max, location_zone,
		criteria, stage, expected_value, probability, assigned_to, version,
		closed_at, closed_reason, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateDealParams) (Deal, error) {
	criteriaJSON, err := json.Marshal(params.Criteria)
	if err != nil {
		return Deal{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO deals (
			tenant_id, contact_id, title, budget_min, budget_max, location_zone,
			criteria, stage, expected_value, probability, assigned_to, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING `+dealColumns,
		params.TenantID, params.ContactID, params.Title, params.BudgetMin, params.BudgetMax,
		params.LocationZone, criteriaJSON, domain.StageNew, params.ExpectedValue,
		params.Probability, params.AssignedTo,
	)
	return scanDeal(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Deal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+`
		FROM deals WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)

	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, ErrNotFound
	}
	return deal, err
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dealColumns+`
		FROM deals WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := make([]Deal, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

// UpdateWithVersion performs an optimistic-concurrency update. The stored
// record is replaced and its version incremented by exactly one, but only
// when the stored version still matches params.ExpectedVersion. A stale
// version leaves the record untouched and returns ErrVersionConflict.
func (r *Repository) UpdateWithVersion(ctx context.Context, params UpdateDealParams) (Deal, error) {
	criteriaJSON, err := json.Marshal(params.Criteria)
	if err != nil {
		return Deal{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE deals SET
			title = $4, budget_min = $5, budget_max = $6, location_zone = $7,
			criteria = $8, stage = $9, expected_value = $10, probability = $11,
			assigned_to = $12, closed_at = $13, closed_reason = $14,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND version = $3
		RETURNING `+dealColumns,
		params.ID, params.TenantID, params.ExpectedVersion,
		params.Title, params.BudgetMin, params.BudgetMax, params.LocationZone,
		criteriaJSON, params.Stage, params.ExpectedValue, params.Probability,
		params.AssignedTo, params.ClosedAt, params.ClosedReason,
	)

	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing deal from a stale version.
		var exists bool
		checkErr := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM deals WHERE id = $1 AND tenant_id = $2)
		`, params.ID, params.TenantID).Scan(&exists)
		if checkErr != nil {
			return Deal{}, checkErr
		}
		if !exists {
			return Deal{}, ErrNotFound
		}
		return Deal{}, ErrVersionConflict
	}
	return deal, err
}

func scanDeal(row pgx.Row) (Deal, error) {
	var deal Deal
	var criteriaJSON []byte
	err := row.Scan(
		&deal.ID, &deal.TenantID, &deal.ContactID, &deal.Title,
		&deal.BudgetMin, &deal.BudgetMax, &deal.LocationZone,
		&criteriaJSON, &deal.Stage, &deal.ExpectedValue, &deal.Probability,
		&deal.AssignedTo, &deal.Version, &deal.ClosedAt, &deal.ClosedReason,
		&deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return Deal{}, err
	}
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &deal.Criteria); err != nil {
			return Deal{}, err
		}
	}
	return deal, nil
}
