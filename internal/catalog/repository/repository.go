// Package repository provides pgx-backed persistence for the property catalog.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("property not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MediaItem is one entry of a property's ordered media collection.
type MediaItem struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
	Position  int    `json:"position"`
}

type Property struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	OwnerContactID   *uuid.UUID
	PropertyType     string
	Title            string
	Price            *float64
	LocationZone     *string
	SurfaceArea      *float64
	Rooms            *int
	Bedrooms         *int
	FurnishingStatus *string
	Features         []string
	Description      *string
	Latitude         *float64
	Longitude        *float64
	Media            []MediaItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type UpsertPropertyParams struct {
	TenantID         uuid.UUID
	OwnerContactID   *uuid.UUID
	PropertyType     string
	Title            string
	Price            *float64
	LocationZone     *string
	SurfaceArea      *float64
	Rooms            *int
	Bedrooms         *int
	FurnishingStatus *string
	Features         []string
	Description      *string
	Latitude         *float64
	Longitude        *float64
	Media            []MediaItem
}

// QualityScore is one snapshot of a property's completeness score.
// Rows are append-only; the most recent row is authoritative.
type QualityScore struct {
	ID           uuid.UUID
	PropertyID   uuid.UUID
	TenantID     uuid.UUID
	Score        int
	Suggestions  []string
	Breakdown    map[string]int
	CalculatedAt time.Time
}

const propertyColumns = `id, tenant_id, owner_contact_id, property_type, title, price,
		location_zone, surface_area, rooms, bedrooms, furnishing_status,
		features, description, latitude, longitude, media, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params UpsertPropertyParams) (Property, error) {
	featuresJSON, mediaJSON, err := marshalCollections(params.Features, params.Media)
	if err != nil {
		return Property{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (
			id, tenant_id, owner_contact_id, property_type, title, price,
			location_zone, surface_area, rooms, bedrooms, furnishing_status,
			features, description, latitude, longitude, media, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
		RETURNING `+propertyColumns,
		uuid.New(), params.TenantID, params.OwnerContactID, params.PropertyType,
		params.Title, params.Price, params.LocationZone, params.SurfaceArea,
		params.Rooms, params.Bedrooms, params.FurnishingStatus, featuresJSON,
		params.Description, params.Latitude, params.Longitude, mediaJSON,
	)
	return scanProperty(row)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpsertPropertyParams) (Property, error) {
	featuresJSON, mediaJSON, err := marshalCollections(params.Features, params.Media)
	if err != nil {
		return Property{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE properties SET
			owner_contact_id = $3, property_type = $4, title = $5, price = $6,
			location_zone = $7, surface_area = $8, rooms = $9, bedrooms = $10,
			furnishing_status = $11, features = $12, description = $13,
			latitude = $14, longitude = $15, media = $16, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+propertyColumns,
		id, params.TenantID, params.OwnerContactID, params.PropertyType,
		params.Title, params.Price, params.LocationZone, params.SurfaceArea,
		params.Rooms, params.Bedrooms, params.FurnishingStatus, featuresJSON,
		params.Description, params.Latitude, params.Longitude, mediaJSON,
	)
	prop, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	return prop, err
}

func (r *Repository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (Property, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	prop, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	return prop, err
}

// List returns the tenant's properties in a stable order. Callers that
// rank candidates rely on this order for deterministic tie-breaking.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]Property, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, prop)
	}
	return out, rows.Err()
}

// GetRequiredFields returns the tenant's required-field template for a
// property type. Absence of a template means no required fields.
func (r *Repository) GetRequiredFields(ctx context.Context, tenantID uuid.UUID, propertyType string) ([]string, error) {
	var fields []string
	err := r.pool.QueryRow(ctx, `
		SELECT required_fields
		FROM property_type_templates
		WHERE tenant_id = $1 AND property_type = $2`,
		tenantID, propertyType,
	).Scan(&fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *Repository) InsertQualityScore(ctx context.Context, score QualityScore) (QualityScore, error) {
	suggestionsJSON, err := json.Marshal(score.Suggestions)
	if err != nil {
		return QualityScore{}, err
	}
	breakdownJSON, err := json.Marshal(score.Breakdown)
	if err != nil {
		return QualityScore{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO property_quality_scores (
			id, property_id, tenant_id, score, suggestions, breakdown, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, property_id, tenant_id, score, suggestions, breakdown, calculated_at`,
		uuid.New(), score.PropertyID, score.TenantID, score.Score, suggestionsJSON, breakdownJSON,
	)
	return scanQualityScore(row)
}

// GetLatestQualityScore returns the most recent snapshot for a property.
func (r *Repository) GetLatestQualityScore(ctx context.Context, propertyID, tenantID uuid.UUID) (QualityScore, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, property_id, tenant_id, score, suggestions, breakdown, calculated_at
		FROM property_quality_scores
		WHERE property_id = $1 AND tenant_id = $2
		ORDER BY calculated_at DESC, id DESC
		LIMIT 1`,
		propertyID, tenantID,
	)
	score, err := scanQualityScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return QualityScore{}, ErrNotFound
	}
	return score, err
}

func marshalCollections(features []string, media []MediaItem) ([]byte, []byte, error) {
	if features == nil {
		features = []string{}
	}
	if media == nil {
		media = []MediaItem{}
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, nil, err
	}
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return nil, nil, err
	}
	return featuresJSON, mediaJSON, nil
}

func scanProperty(row pgx.Row) (Property, error) {
	var (
		prop         Property
		featuresJSON []byte
		mediaJSON    []byte
	)
	err := row.Scan(
		&prop.ID, &prop.TenantID, &prop.OwnerContactID, &prop.PropertyType,
		&prop.Title, &prop.Price, &prop.LocationZone, &prop.SurfaceArea,
		&prop.Rooms, &prop.Bedrooms, &prop.FurnishingStatus, &featuresJSON,
		&prop.Description, &prop.Latitude, &prop.Longitude, &mediaJSON,
		&prop.CreatedAt, &prop.UpdatedAt,
	)
	if err != nil {
		return Property{}, err
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &prop.Features); err != nil {
			return Property{}, err
		}
	}
	if len(mediaJSON) > 0 {
		if err := json.Unmarshal(mediaJSON, &prop.Media); err != nil {
			return Property{}, err
		}
	}
	return prop, nil
}

func scanQualityScore(row pgx.Row) (QualityScore, error) {
	var (
		score           QualityScore
		suggestionsJSON []byte
		breakdownJSON   []byte
	)
	err := row.Scan(
		&score.ID, &score.PropertyID, &score.TenantID, &score.Score,
		&suggestionsJSON, &breakdownJSON, &score.CalculatedAt,
	)
	if err != nil {
		return QualityScore{}, err
	}
	if len(suggestionsJSON) > 0 {
		if err := json.Unmarshal(suggestionsJSON, &score.Suggestions); err != nil {
			return QualityScore{}, err
		}
	}
	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &score.Breakdown); err != nil {
			return QualityScore{}, err
		}
	}
	return score, nil
}
