package transport

import (
	"time"

	"realty_portal_backend/internal/catalog/repository"

	"github.com/google/uuid"
)

// =============================================================================
// Requests
// =============================================================================

// MediaItemRequest is one entry of a property's media collection.
type MediaItemRequest struct {
	URL       string `json:"url" validate:"required,max=2000"`
	IsPrimary bool   `json:"isPrimary"`
	Position  int    `json:"position" validate:"min=0"`
}

// UpsertPropertyRequest carries the full listing payload. The same shape
// serves create and update; update replaces the stored listing.
type UpsertPropertyRequest struct {
	OwnerContactID   *uuid.UUID         `json:"ownerContactId"`
	PropertyType     string             `json:"propertyType" validate:"required,max=100"`
	Title            string             `json:"title" validate:"required,min=1,max=500"`
	Price            *float64           `json:"price" validate:"omitempty,min=0"`
	LocationZone     *string            `json:"locationZone" validate:"omitempty,max=255"`
	SurfaceArea      *float64           `json:"surfaceArea" validate:"omitempty,min=0"`
	Rooms            *int               `json:"rooms" validate:"omitempty,min=0"`
	Bedrooms         *int               `json:"bedrooms" validate:"omitempty,min=0"`
	FurnishingStatus *string            `json:"furnishingStatus" validate:"omitempty,max=100"`
	Features         []string           `json:"features" validate:"omitempty,dive,max=100"`
	Description      *string            `json:"description" validate:"omitempty,max=10000"`
	Latitude         *float64           `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude        *float64           `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Media            []MediaItemRequest `json:"media" validate:"omitempty,dive"`
}

// =============================================================================
// Responses
// =============================================================================

// PropertyResponse is the API representation of a property listing.
type PropertyResponse struct {
	ID               uuid.UUID              `json:"id"`
	TenantID         uuid.UUID              `json:"tenantId"`
	OwnerContactID   *uuid.UUID             `json:"ownerContactId,omitempty"`
	PropertyType     string                 `json:"propertyType"`
	Title            string                 `json:"title"`
	Price            *float64               `json:"price,omitempty"`
	LocationZone     *string                `json:"locationZone,omitempty"`
	SurfaceArea      *float64               `json:"surfaceArea,omitempty"`
	Rooms            *int                   `json:"rooms,omitempty"`
	Bedrooms         *int                   `json:"bedrooms,omitempty"`
	FurnishingStatus *string                `json:"furnishingStatus,omitempty"`
	Features         []string               `json:"features"`
	Description      *string                `json:"description,omitempty"`
	Latitude         *float64               `json:"latitude,omitempty"`
	Longitude        *float64               `json:"longitude,omitempty"`
	Media            []repository.MediaItem `json:"media"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// QualityScoreResponse is a persisted quality snapshot.
type QualityScoreResponse struct {
	PropertyID   uuid.UUID      `json:"propertyId"`
	Score        int            `json:"score"`
	Suggestions  []string       `json:"suggestions"`
	Breakdown    map[string]int `json:"breakdown"`
	CalculatedAt time.Time      `json:"calculatedAt"`
}
