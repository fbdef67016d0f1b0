// Package domain provides core business rules for the deals bounded context.
package domain

const (
	StageNew         = "NEW"
	StageQualified   = "QUALIFIED"
	StageVisit       = "VISIT"
	StageNegotiation = "NEGOTIATION"
	StageWon         = "WON"
	StageLost        = "LOST"
)

var knownStages = map[string]struct{}{
	StageNew:         {},
	StageQualified:   {},
	StageVisit:       {},
	StageNegotiation: {},
	StageWon:         {},
	StageLost:        {},
}

// IsKnownStage reports whether stage is a member of the pipeline enum.
// The pipeline itself places no structural restriction on transitions;
// any known stage may follow any other.
func IsKnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsClosedStage reports whether a deal in this stage is closed.
func IsClosedStage(stage string) bool {
	return stage == StageWon || stage == StageLost
}

// ClosingAction describes what a stage change does to the closing fields.
type ClosingAction int

const (
	// ClosingKeep leaves closedAt/closedReason untouched.
	ClosingKeep ClosingAction = iota
	// ClosingSet stamps closedAt now and records the supplied reason.
	ClosingSet
	// ClosingClear wipes closedAt and closedReason (reopening).
	ClosingClear
)

// ClosingEffect derives the closing-field side effect of a stage change.
// It is a pure function of the (old, new) stage pair: entering WON or LOST
// closes the deal, leaving either of them reopens it. A closed stage moving
// to the other closed stage re-stamps the closing fields.
func ClosingEffect(oldStage, newStage string) ClosingAction {
	switch {
	case IsClosedStage(newStage):
		return ClosingSet
	case IsClosedStage(oldStage):
		return ClosingClear
	default:
		return ClosingKeep
	}
}
