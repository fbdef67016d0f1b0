package domain

// Criteria captures the structured search wishes attached to a deal.
// All fields are optional; absent fields mean "no preference" and are
// treated as a perfect fit by the scoring engine.
type Criteria struct {
	Rooms      *int     `json:"rooms,omitempty"`
	Bedrooms   *int     `json:"bedrooms,omitempty"`
	SurfaceMin *float64 `json:"surfaceMin,omitempty"`
	SurfaceMax *float64 `json:"surfaceMax,omitempty"`
	Features   []string `json:"features,omitempty"`
	Furnishing string   `json:"furnishing,omitempty"`
}

// IsEmpty reports whether no preference at all has been expressed.
func (c Criteria) IsEmpty() bool {
	return c.Rooms == nil && c.Bedrooms == nil &&
		c.SurfaceMin == nil && c.SurfaceMax == nil &&
		len(c.Features) == 0 && c.Furnishing == ""
}
