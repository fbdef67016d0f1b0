// Package quality implements the property completeness scorer that gates
// listing publication. Scoring is a pure computation over the property's
// data and its type template; it never errors.
package quality

import (
	"fmt"
	"math"
	"strings"

	"realty_portal_backend/internal/catalog/repository"
)

// Component weights. They sum to 100.
const (
	weightRequired    = 40
	weightMedia       = 25
	weightDescription = 15
	weightGeo         = 10
	weightPrice       = 10
)

// Media sub-weights: having any media, having enough of it, and having
// one item flagged as the primary photo.
const (
	mediaPresenceWeight = 10
	mediaCountWeight    = 10
	mediaPrimaryWeight  = 5
	mediaCountTarget    = 3
)

// Description length tiers in characters.
const (
	descriptionShort = 50
	descriptionFull  = 200
)

// Result is a completeness score with per-component breakdown and
// improvement suggestions ordered by the weight of the missing piece.
type Result struct {
	Score       int            `json:"score"`
	Suggestions []string       `json:"suggestions"`
	Breakdown   map[string]int `json:"breakdown"`
}

// Score rates how completely a property listing is filled in, on a 0..100
// scale. requiredFields is the tenant's template for the property type;
// an empty template awards the full required-fields weight.
func Score(prop repository.Property, requiredFields []string) Result {
	suggestions := make([]string, 0, 4)
	breakdown := make(map[string]int, 5)

	required, missing := requiredFieldsScore(prop, requiredFields)
	breakdown["requiredFields"] = required
	for _, field := range missing {
		suggestions = append(suggestions, fmt.Sprintf("Fill in the required field %q", field))
	}

	media, mediaSuggestions := mediaScore(prop.Media)
	breakdown["media"] = media
	suggestions = append(suggestions, mediaSuggestions...)

	description, descSuggestion := descriptionScore(prop.Description)
	breakdown["description"] = description
	if descSuggestion != "" {
		suggestions = append(suggestions, descSuggestion)
	}

	geo := 0
	if prop.Latitude != nil && prop.Longitude != nil {
		geo = weightGeo
	} else {
		suggestions = append(suggestions, "Add map coordinates")
	}
	breakdown["location"] = geo

	price := 0
	if prop.Price != nil {
		price = weightPrice
	} else {
		suggestions = append(suggestions, "Set a price")
	}
	breakdown["price"] = price

	return Result{
		Score:       required + media + description + geo + price,
		Suggestions: suggestions,
		Breakdown:   breakdown,
	}
}

// requiredFieldsScore awards the weight in proportion to the template
// fields the listing has filled in. Template entries that do not name a
// known field are ignored rather than counted as missing.
func requiredFieldsScore(prop repository.Property, requiredFields []string) (int, []string) {
	var known, filled int
	var missing []string
	for _, field := range requiredFields {
		present, recognized := fieldFilled(prop, field)
		if !recognized {
			continue
		}
		known++
		if present {
			filled++
		} else {
			missing = append(missing, field)
		}
	}
	if known == 0 {
		return weightRequired, nil
	}
	return int(math.Round(weightRequired * float64(filled) / float64(known))), missing
}

func fieldFilled(prop repository.Property, field string) (present, recognized bool) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "title":
		return strings.TrimSpace(prop.Title) != "", true
	case "price":
		return prop.Price != nil, true
	case "locationzone", "location_zone":
		return prop.LocationZone != nil && strings.TrimSpace(*prop.LocationZone) != "", true
	case "surfacearea", "surface_area":
		return prop.SurfaceArea != nil, true
	case "rooms":
		return prop.Rooms != nil, true
	case "bedrooms":
		return prop.Bedrooms != nil, true
	case "furnishingstatus", "furnishing_status":
		return prop.FurnishingStatus != nil && strings.TrimSpace(*prop.FurnishingStatus) != "", true
	case "features":
		return len(prop.Features) > 0, true
	case "description":
		return prop.Description != nil && strings.TrimSpace(*prop.Description) != "", true
	case "media":
		return len(prop.Media) > 0, true
	case "latitude":
		return prop.Latitude != nil, true
	case "longitude":
		return prop.Longitude != nil, true
	default:
		return false, false
	}
}

func mediaScore(media []repository.MediaItem) (int, []string) {
	if len(media) == 0 {
		return 0, []string{"Add photos"}
	}

	score := mediaPresenceWeight
	var suggestions []string

	if len(media) >= mediaCountTarget {
		score += mediaCountWeight
	} else {
		suggestions = append(suggestions, fmt.Sprintf("Add at least %d photos", mediaCountTarget))
	}

	hasPrimary := false
	for _, item := range media {
		if item.IsPrimary {
			hasPrimary = true
			break
		}
	}
	if hasPrimary {
		score += mediaPrimaryWeight
	} else {
		suggestions = append(suggestions, "Mark one photo as primary")
	}

	return score, suggestions
}

func descriptionScore(description *string) (int, string) {
	if description == nil || strings.TrimSpace(*description) == "" {
		return 0, "Add a description"
	}

	length := len(strings.TrimSpace(*description))
	switch {
	case length >= descriptionFull:
		return weightDescription, ""
	case length >= descriptionShort:
		return 10, fmt.Sprintf("Expand the description to at least %d characters", descriptionFull)
	default:
		return 5, fmt.Sprintf("Expand the description to at least %d characters", descriptionFull)
	}
}
