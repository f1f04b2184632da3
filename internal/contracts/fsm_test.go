package contracts

import (
	"errors"
	"testing"

	"github.com/talgya/vorticog/internal/world"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from world.ContractStatus
		to   world.ContractStatus
		ok   bool
	}{
		{world.ContractDraft, world.ContractProposed, true},
		{world.ContractDraft, world.ContractCancelled, true},
		{world.ContractDraft, world.ContractActive, false},
		{world.ContractProposed, world.ContractActive, true},
		{world.ContractProposed, world.ContractNegotiating, true},
		{world.ContractProposed, world.ContractCancelled, true},
		{world.ContractNegotiating, world.ContractProposed, true},
		{world.ContractNegotiating, world.ContractActive, true},
		{world.ContractNegotiating, world.ContractBreached, false},
		{world.ContractActive, world.ContractCompleted, true},
		{world.ContractActive, world.ContractBreached, true},
		{world.ContractActive, world.ContractCancelled, false},
		{world.ContractCompleted, world.ContractActive, false},
		{world.ContractCancelled, world.ContractProposed, false},
		{world.ContractBreached, world.ContractActive, false},
	}
	for _, tt := range tests {
		c := world.Contract{ID: "c1", Status: tt.from}
		got, err := Transition(c, tt.to)
		if tt.ok {
			if err != nil {
				t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
			} else if got.Status != tt.to {
				t.Errorf("%s -> %s: status = %s", tt.from, tt.to, got.Status)
			}
			continue
		}
		if !errors.Is(err, world.ErrInvalidState) {
			t.Errorf("%s -> %s: error = %v, want ErrInvalidState", tt.from, tt.to, err)
		}
		if got.Status != tt.from {
			t.Errorf("%s -> %s: rejected transition mutated status to %s", tt.from, tt.to, got.Status)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []world.ContractStatus{world.ContractCompleted, world.ContractCancelled, world.ContractBreached} {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []world.ContractStatus{world.ContractDraft, world.ContractProposed, world.ContractNegotiating, world.ContractActive} {
		if IsTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestPenalty(t *testing.T) {
	if got := Penalty(5, 100, 10); got != 50 {
		t.Errorf("Penalty(5, 100, 10) = %f, want 50", got)
	}
	if got := Penalty(0, 100, 10); got != 0 {
		t.Errorf("zero percent penalty = %f, want 0", got)
	}
}
