package domain

import "testing"

func TestIsKnownStage(t *testing.T) {
	for _, stage := range []string{StageNew, StageQualified, StageVisit, StageNegotiation, StageWon, StageLost} {
		if !IsKnownStage(stage) {
			t.Fatalf("expected %q to be a known stage", stage)
		}
	}

	for _, stage := range []string{"", "new", "ARCHIVED", "WON ", "CLOSED"} {
		if IsKnownStage(stage) {
			t.Fatalf("expected %q to be rejected", stage)
		}
	}
}

func TestClosingEffect(t *testing.T) {
	tests := []struct {
		name     string
		oldStage string
		newStage string
		want     ClosingAction
	}{
		{"open to open", StageNew, StageQualified, ClosingKeep},
		{"open to won", StageNegotiation, StageWon, ClosingSet},
		{"open to lost", StageVisit, StageLost, ClosingSet},
		{"reopen from won", StageWon, StageNegotiation, ClosingClear},
		{"reopen from lost", StageLost, StageNew, ClosingClear},
		{"won to lost restamps", StageWon, StageLost, ClosingSet},
		{"won to won restamps", StageWon, StageWon, ClosingSet},
		{"same open stage", StageQualified, StageQualified, ClosingKeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClosingEffect(tt.oldStage, tt.newStage); got != tt.want {
				t.Fatalf("ClosingEffect(%q, %q) = %v, want %v", tt.oldStage, tt.newStage, got, tt.want)
			}
		})
	}
}
