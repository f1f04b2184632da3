package agents

import (
	"context"
	"fmt"

	"github.com/talgya/vorticog/internal/world"
)

// Outcome classifies how a pending decision resolved.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeNeutral Outcome = "neutral"
)

func (o Outcome) status() (world.DecisionStatus, error) {
	switch o {
	case OutcomeSuccess:
		return world.DecisionSucceeded, nil
	case OutcomeFailure:
		return world.DecisionFailed, nil
	case OutcomeNeutral:
		return world.DecisionNeutral, nil
	default:
		return "", fmt.Errorf("unknown outcome %q: %w", o, world.ErrInvalidInput)
	}
}

// ProcessDecisionOutcome resolves a pending decision and applies its
// emotional consequences to the agent. A neutral outcome closes the
// decision without touching the agent. A decision resolves at most once;
// a second call fails with ErrInvalidState.
func (b *Brain) ProcessDecisionOutcome(ctx context.Context, decisionID string, outcome Outcome, detail string) error {
	status, err := outcome.status()
	if err != nil {
		return err
	}

	d, err := b.store.GetDecision(ctx, decisionID)
	if err != nil {
		return fmt.Errorf("outcome: load decision: %w", err)
	}

	if err := b.store.SetDecisionStatus(ctx, decisionID, status); err != nil {
		return fmt.Errorf("outcome: %w", err)
	}

	if outcome == OutcomeNeutral {
		return nil
	}

	agent, err := b.store.GetAgent(ctx, d.AgentID)
	if err != nil {
		return fmt.Errorf("outcome: load agent: %w", err)
	}

	turn, err := b.store.CurrentTurn(ctx)
	if err != nil {
		return err
	}

	applyOutcome(&agent, d, outcome == OutcomeSuccess, detail, turn)

	if err := b.store.UpdateAgent(ctx, agent); err != nil {
		return fmt.Errorf("outcome: save agent: %w", err)
	}
	return nil
}

// applyOutcome moves the agent's emotional state toward fixed set-points
// and records a memory of the result.
func applyOutcome(a *world.Agent, d world.Decision, success bool, detail string, turn int64) {
	if success {
		a.Emotional.Happiness = 60
		a.Emotional.OverallMood = 60
		a.Emotional.Stress = 25
	} else {
		a.Emotional.Happiness = 35
		a.Emotional.Stress = 60
		a.Emotional.OverallMood = 35
	}

	memType := world.MemoryExperience
	impact := 0.0
	importance := 50.0
	chosen := chosenOption(d)
	if success && chosen.PotentialReward > 50 {
		memType = world.MemoryAchievement
		impact = 30
	} else if !success && chosen.RiskLevel > 50 {
		memType = world.MemoryTrauma
		impact = -30
	}
	if !success {
		importance = 70
	}

	desc := detail
	if desc == "" {
		desc = d.Context
	}
	AddMemory(a, world.Memory{
		Type:            memType,
		Description:     desc,
		EmotionalImpact: impact,
		Importance:      importance,
		Turn:            turn,
	})

	// Outcomes against a counterparty shift trust in both directions.
	if chosen.CounterpartyAgentID != "" {
		delta := 5.0
		if !success {
			delta = -10.0
		}
		AdjustRelationship(a, chosen.CounterpartyAgentID, "business", delta)
	}
}

func chosenOption(d world.Decision) world.DecisionOption {
	for _, opt := range d.Options {
		if opt.ID == d.ChosenID {
			return opt
		}
	}
	return world.DecisionOption{}
}
