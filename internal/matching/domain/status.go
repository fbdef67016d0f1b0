// Package domain provides core business rules for the matching bounded context.
package domain

// Shortlist workflow statuses. The workflow is a tagged value, not a
// state machine: any known status may follow any other. Callers drive
// the usual SHORTLISTED -> VISIT_PLANNED -> OFFER_MADE -> ACCEPTED or
// REJECTED progression themselves.
const (
	StatusShortlisted  = "SHORTLISTED"
	StatusVisitPlanned = "VISIT_PLANNED"
	StatusOfferMade    = "OFFER_MADE"
	StatusAccepted     = "ACCEPTED"
	StatusRejected     = "REJECTED"
)

var knownStatuses = map[string]struct{}{
	StatusShortlisted:  {},
	StatusVisitPlanned: {},
	StatusOfferMade:    {},
	StatusAccepted:     {},
	StatusRejected:     {},
}

// IsKnownStatus reports whether status is a member of the workflow enum.
func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}
