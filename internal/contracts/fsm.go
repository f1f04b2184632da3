// Package contracts manages the contract lifecycle and scheduled delivery
// processing, including penalties and breach escalation.
package contracts

import (
	"fmt"

	"github.com/talgya/vorticog/internal/world"
)

// breachLimit is how many recorded breaches an active contract survives.
const breachLimit = 3

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(s world.ContractStatus) bool {
	switch s {
	case world.ContractCompleted, world.ContractCancelled, world.ContractBreached:
		return true
	default:
		return false
	}
}

// Transition validates and returns the contract with its status moved from
// its current state to the target. Invalid transitions fail with
// ErrInvalidState and leave the contract unchanged.
func Transition(c world.Contract, to world.ContractStatus) (world.Contract, error) {
	if !isAllowedTransition(c.Status, to) {
		return c, fmt.Errorf("contract %s: %s -> %s: %w", c.ID, c.Status, to, world.ErrInvalidState)
	}
	c.Status = to
	return c, nil
}

func isAllowedTransition(from, to world.ContractStatus) bool {
	switch from {
	case world.ContractDraft:
		return to == world.ContractProposed || to == world.ContractCancelled
	case world.ContractProposed:
		return to == world.ContractActive || to == world.ContractNegotiating || to == world.ContractCancelled
	case world.ContractNegotiating:
		return to == world.ContractProposed || to == world.ContractActive || to == world.ContractCancelled
	case world.ContractActive:
		return to == world.ContractCompleted || to == world.ContractBreached
	default:
		return false
	}
}
