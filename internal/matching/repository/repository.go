// Package repository provides pgx-backed persistence for deal-property
// match records (the shortlist).
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"realty_portal_backend/internal/matching/scoring"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("match record not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Match is a stored deal-property shortlist entry. At most one row exists
// per (tenant, deal, property) triple.
type Match struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	DealID               uuid.UUID
	PropertyID           uuid.UUID
	MatchScore           int
	MatchExplanation     scoring.Result
	Status               string
	SourceOwnerContactID *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type UpsertMatchParams struct {
	TenantID             uuid.UUID
	DealID               uuid.UUID
	PropertyID           uuid.UUID
	MatchScore           int
	MatchExplanation     scoring.Result
	InitialStatus        string
	SourceOwnerContactID *uuid.UUID
}

const matchColumns = `id, tenant_id, deal_id, property_id, match_score, match_explanation,
		status, source_owner_contact_id, created_at, updated_at`

// Upsert creates the match record or refreshes an existing one. A repeat
// call overwrites score and explanation, fills source_owner_contact_id
// only when it was NULL, and leaves status untouched.
func (r *Repository) Upsert(ctx context.Context, params UpsertMatchParams) (Match, bool, error) {
	explanationJSON, err := json.Marshal(params.MatchExplanation)
	if err != nil {
		return Match{}, false, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO deal_property_matches (
			id, tenant_id, deal_id, property_id, match_score, match_explanation,
			status, source_owner_contact_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (tenant_id, deal_id, property_id) DO UPDATE SET
			match_score = EXCLUDED.match_score,
			match_explanation = EXCLUDED.match_explanation,
			source_owner_contact_id = COALESCE(deal_property_matches.source_owner_contact_id, EXCLUDED.source_owner_contact_id),
			updated_at = now()
		RETURNING `+matchColumns+`, (created_at = updated_at) AS inserted`,
		uuid.New(), params.TenantID, params.DealID, params.PropertyID,
		params.MatchScore, explanationJSON, params.InitialStatus, params.SourceOwnerContactID,
	)

	var (
		match    Match
		inserted bool
	)
	match, err = scanMatchInto(row, &inserted)
	if err != nil {
		return Match{}, false, err
	}
	return match, inserted, nil
}

func (r *Repository) GetByDealAndProperty(ctx context.Context, tenantID, dealID, propertyID uuid.UUID) (Match, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+matchColumns+`
		FROM deal_property_matches
		WHERE tenant_id = $1 AND deal_id = $2 AND property_id = $3`,
		tenantID, dealID, propertyID,
	)
	match, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Match{}, ErrNotFound
	}
	return match, err
}

// ListByDeal returns a deal's shortlist ordered by score descending,
// oldest entry first among equals.
func (r *Repository) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+`
		FROM deal_property_matches
		WHERE tenant_id = $1 AND deal_id = $2
		ORDER BY match_score DESC, created_at ASC`,
		tenantID, dealID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, match)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, dealID, propertyID uuid.UUID, status string) (Match, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE deal_property_matches
		SET status = $4, updated_at = now()
		WHERE tenant_id = $1 AND deal_id = $2 AND property_id = $3
		RETURNING `+matchColumns,
		tenantID, dealID, propertyID, status,
	)
	match, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Match{}, ErrNotFound
	}
	return match, err
}

func scanMatch(row pgx.Row) (Match, error) {
	var (
		match           Match
		explanationJSON []byte
	)
	err := row.Scan(
		&match.ID, &match.TenantID, &match.DealID, &match.PropertyID,
		&match.MatchScore, &explanationJSON, &match.Status,
		&match.SourceOwnerContactID, &match.CreatedAt, &match.UpdatedAt,
	)
	if err != nil {
		return Match{}, err
	}
	if len(explanationJSON) > 0 {
		if err := json.Unmarshal(explanationJSON, &match.MatchExplanation); err != nil {
			return Match{}, err
		}
	}
	return match, nil
}

func scanMatchInto(row pgx.Row, inserted *bool) (Match, error) {
	var (
		match           Match
		explanationJSON []byte
	)
	err := row.Scan(
		&match.ID, &match.TenantID, &match.DealID, &match.PropertyID,
		&match.MatchScore, &explanationJSON, &match.Status,
		&match.SourceOwnerContactID, &match.CreatedAt, &match.UpdatedAt,
		inserted,
	)
	if err != nil {
		return Match{}, err
	}
	if len(explanationJSON) > 0 {
		if err := json.Unmarshal(explanationJSON, &match.MatchExplanation); err != nil {
			return Match{}, err
		}
	}
	return match, nil
}
