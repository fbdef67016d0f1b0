// Package scoring implements the deal-to-property match scorer. Scoring is
// a pure computation: it never errors, and a missing input degrades the
// affected factor to its minimum instead of aborting the whole score.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"realty_portal_backend/internal/catalog/repository"
	dealdomain "realty_portal_backend/internal/deals/domain"
)

// Factor weights. They sum to 100 so the total needs no normalization.
const (
	weightBudget   = 30
	weightLocation = 25
	weightSize     = 25
	weightFeatures = 20
)

// DealProfile is the matching-relevant slice of a deal.
type DealProfile struct {
	BudgetMin    *float64
	BudgetMax    *float64
	LocationZone *string
	Criteria     dealdomain.Criteria
}

// Factors holds the rounded per-factor contributions to a match score.
type Factors struct {
	Budget   int `json:"budget"`
	Location int `json:"location"`
	Size     int `json:"size"`
	Features int `json:"features"`
}

// Result is a complete match score with its breakdown and a human-readable
// explanation of the non-zero factors.
type Result struct {
	Total       int     `json:"total"`
	Factors     Factors `json:"factors"`
	Explanation string  `json:"explanation"`
}

// Score rates how well a property fits a deal's criteria on a 0..100 scale.
// The absence of a constraint on the deal side counts as a perfect fit for
// that factor; the absence of data on the property side counts as a miss.
func Score(deal DealProfile, prop repository.Property) Result {
	factors := Factors{
		Budget:   budgetFactor(deal.BudgetMin, deal.BudgetMax, prop.Price),
		Location: locationFactor(deal.LocationZone, prop.LocationZone),
		Size:     sizeFactor(deal.Criteria, prop),
		Features: featuresFactor(deal.Criteria.Features, prop.Features),
	}

	total := factors.Budget + factors.Location + factors.Size + factors.Features
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return Result{
		Total:       total,
		Factors:     factors,
		Explanation: explain(factors),
	}
}

// budgetFactor decays linearly the further the price sits outside the
// budget window, relative to the violated bound.
func budgetFactor(budgetMin, budgetMax, price *float64) int {
	if budgetMin == nil && budgetMax == nil {
		return weightBudget
	}
	if price == nil {
		return 0
	}

	p := *price
	switch {
	case budgetMin != nil && p < *budgetMin:
		if *budgetMin <= 0 {
			return 0
		}
		return roundWeight(weightBudget, math.Max(0, 1-(*budgetMin-p)/(*budgetMin)))
	case budgetMax != nil && p > *budgetMax:
		if *budgetMax <= 0 {
			return 0
		}
		return roundWeight(weightBudget, math.Max(0, 1-(p-*budgetMax)/(*budgetMax)))
	default:
		return weightBudget
	}
}

func locationFactor(dealZone, propZone *string) int {
	if dealZone == nil || strings.TrimSpace(*dealZone) == "" {
		return weightLocation
	}
	if propZone == nil || strings.TrimSpace(*propZone) == "" {
		return 0
	}

	want := strings.ToLower(strings.TrimSpace(*dealZone))
	have := strings.ToLower(strings.TrimSpace(*propZone))
	switch {
	case want == have:
		return weightLocation
	case strings.Contains(want, have) || strings.Contains(have, want):
		return roundWeight(weightLocation, 0.4)
	default:
		return 0
	}
}

// sizeFactor splits its weight between the rooms and surface criteria when
// both are present, and allocates it entirely to whichever one is set.
func sizeFactor(criteria dealdomain.Criteria, prop repository.Property) int {
	wantsRooms := criteria.Rooms != nil
	wantsSurface := criteria.SurfaceMin != nil || criteria.SurfaceMax != nil

	if !wantsRooms && !wantsSurface {
		return weightSize
	}

	var fraction float64
	switch {
	case wantsRooms && wantsSurface:
		fraction = 0.5*roomsFraction(*criteria.Rooms, prop.Rooms) +
			0.5*surfaceFraction(criteria.SurfaceMin, criteria.SurfaceMax, prop.SurfaceArea)
	case wantsRooms:
		fraction = roomsFraction(*criteria.Rooms, prop.Rooms)
	default:
		fraction = surfaceFraction(criteria.SurfaceMin, criteria.SurfaceMax, prop.SurfaceArea)
	}

	return roundWeight(weightSize, fraction)
}

func roomsFraction(wanted int, actual *int) float64 {
	if actual == nil {
		return 0
	}
	switch diff := absInt(wanted - *actual); diff {
	case 0:
		return 1
	case 1:
		return 0.65
	case 2:
		return 0.3
	default:
		return 0
	}
}

// surfaceFraction measures proximity to the midpoint of the desired range.
// An actual surface inside the range is a perfect sub-score.
func surfaceFraction(surfaceMin, surfaceMax *float64, actual *float64) float64 {
	if actual == nil {
		return 0
	}

	a := *actual
	if surfaceMin != nil && surfaceMax != nil {
		if a >= *surfaceMin && a <= *surfaceMax {
			return 1
		}
	}

	var target float64
	switch {
	case surfaceMin != nil && surfaceMax != nil:
		target = (*surfaceMin + *surfaceMax) / 2
	case surfaceMin != nil:
		target = *surfaceMin
	default:
		target = *surfaceMax
	}
	if target <= 0 {
		return 0
	}

	return math.Max(0, 1-math.Abs(a-target)/target)
}

func featuresFactor(required, present []string) int {
	if len(required) == 0 {
		return weightFeatures
	}
	if len(present) == 0 {
		return 0
	}

	have := make(map[string]struct{}, len(present))
	for _, tag := range present {
		have[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}

	matched := 0
	for _, tag := range required {
		if _, ok := have[strings.ToLower(strings.TrimSpace(tag))]; ok {
			matched++
		}
	}

	return roundWeight(weightFeatures, float64(matched)/float64(len(required)))
}

// explain renders the non-zero factors, e.g. "Budget: 30/30, Zone: 25/25".
func explain(factors Factors) string {
	parts := make([]string, 0, 4)
	if factors.Budget > 0 {
		parts = append(parts, fmt.Sprintf("Budget: %d/%d", factors.Budget, weightBudget))
	}
	if factors.Location > 0 {
		parts = append(parts, fmt.Sprintf("Zone: %d/%d", factors.Location, weightLocation))
	}
	if factors.Size > 0 {
		parts = append(parts, fmt.Sprintf("Size: %d/%d", factors.Size, weightSize))
	}
	if factors.Features > 0 {
		parts = append(parts, fmt.Sprintf("Extras: %d/%d", factors.Features, weightFeatures))
	}
	return strings.Join(parts, ", ")
}

func roundWeight(weight int, fraction float64) int {
	return int(math.Round(float64(weight) * fraction))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
