// Package agents implements the personality-weighted decision engine and
// agent lifecycle: spawning, memories, and decision outcome processing.
package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// memoryInfluenceLimit caps how many memories weigh on a single decision.
const memoryInfluenceLimit = 10

// Brain scores decision options against an agent's personality, emotional
// state, memories, and relationships. All scoring is deterministic; the
// only randomness in the agent layer lives in the Spawner.
type Brain struct {
	store *store.Store
}

// NewBrain creates a decision engine backed by the given store.
func NewBrain(st *store.Store) *Brain {
	return &Brain{store: st}
}

// scored pairs an option with its computed score and the per-factor terms
// that produced it.
type scored struct {
	option    world.DecisionOption
	score     float64
	breakdown world.ScoreBreakdown
}

// Decide evaluates the options for an agent and persists the resulting
// pending decision. At least one option is required.
func (b *Brain) Decide(ctx context.Context, agentID, context_ string, options []world.DecisionOption) (world.Decision, error) {
	if len(options) == 0 {
		return world.Decision{}, fmt.Errorf("decide: no options: %w", world.ErrInvalidInput)
	}

	agent, err := b.store.GetAgent(ctx, agentID)
	if err != nil {
		return world.Decision{}, fmt.Errorf("decide: load agent: %w", err)
	}
	turn, err := b.store.CurrentTurn(ctx)
	if err != nil {
		return world.Decision{}, err
	}

	ranked := make([]scored, len(options))
	for i, opt := range options {
		ranked[i] = scoreOption(&agent, opt)
	}
	// Stable sort keeps input order on ties.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[0]
	confidence := 100.0
	if len(ranked) > 1 {
		confidence = math.Min(100, 50+2*(top.score-ranked[1].score))
	}

	d := world.Decision{
		ID:         uuid.NewString(),
		AgentID:    agentID,
		Context:    context_,
		Options:    options,
		ChosenID:   top.option.ID,
		Score:      top.score,
		Breakdown:  top.breakdown,
		Confidence: confidence,
		Reasoning:  reasoning(&agent, top),
		Status:     world.DecisionPending,
		Turn:       turn,
	}

	if err := b.store.InsertDecision(ctx, d); err != nil {
		return world.Decision{}, fmt.Errorf("decide: persist: %w", err)
	}
	return d, nil
}

// scoreOption computes the appeal of one option for one agent. Every trait
// contributes a bounded signed term around the base of 50; the terms are
// kept apart in the breakdown.
func scoreOption(a *world.Agent, opt world.DecisionOption) scored {
	p := a.Personality
	e := a.Emotional
	risk := opt.RiskLevel
	reward := opt.PotentialReward

	bd := world.ScoreBreakdown{Base: 50}

	if risk > 50 {
		bd.Personality += (p.Openness - 50) / 50 * 15
	}
	bd.Personality += (p.Conscientiousness - 50) / 50 * ((100 - risk) / 5)
	if opt.RequiresCooperation {
		bd.Personality += (p.Extraversion - 50) / 50 * 10
	}
	if opt.RequiresConflict {
		bd.Personality -= (p.Agreeableness - 50) / 50 * 15
	} else if opt.RequiresCooperation {
		bd.Personality += (p.Agreeableness - 50) / 50 * 10
	}
	bd.Personality -= (p.Neuroticism - 50) / 50 * (risk / 5)
	bd.Personality += (p.RiskTolerance - 50) / 50 * (risk / 5)
	bd.Personality += (p.Impulsiveness - 50) / 50 * (reward / 10)

	bd.Mood = (e.OverallMood - 50) / 50 * (reward / 10)
	bd.Stress = -(e.Stress / 100) * (risk / 5)

	if opt.CounterpartyAgentID != "" {
		if rel, ok := a.RelationshipWith(opt.CounterpartyAgentID); ok {
			bd.Trust = (rel.Trust - 50) / 50 * 10
		}
	}

	for _, m := range topMemories(a.Memories, memoryInfluenceLimit) {
		if m.Type == world.MemoryTrauma && risk > 70 {
			bd.Memory -= 10
		}
		if m.Type == world.MemoryAchievement && reward > 70 {
			bd.Memory += 5
		}
	}

	score := bd.Base + bd.Personality + bd.Mood + bd.Stress + bd.Trust + bd.Memory
	return scored{
		option:    opt,
		score:     world.Clamp100(score),
		breakdown: bd,
	}
}

// topMemories returns up to n memories with the highest importance.
func topMemories(ms []world.Memory, n int) []world.Memory {
	if len(ms) <= n {
		return ms
	}
	sorted := make([]world.Memory, len(ms))
	copy(sorted, ms)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Importance > sorted[j].Importance })
	return sorted[:n]
}

// reasoning collects every influence that favored the chosen option, in a
// fixed order. With no matches a generic line is used.
func reasoning(a *world.Agent, top scored) string {
	p := a.Personality
	opt := top.option

	var parts []string
	if p.Conscientiousness > 60 && opt.RiskLevel < 50 {
		parts = append(parts, "Careful planning favors this reliable course of action.")
	}
	if p.Openness > 60 && opt.RiskLevel > 50 {
		parts = append(parts, "The novelty of this opportunity outweighs its risks.")
	}
	if p.Agreeableness > 60 && opt.RequiresCooperation {
		parts = append(parts, "Working together with others is the best path forward.")
	}
	if p.Agreeableness < 40 && opt.RequiresConflict {
		parts = append(parts, "Confrontation is acceptable when the stakes demand it.")
	}
	if p.Neuroticism > 60 && opt.RiskLevel < 40 {
		parts = append(parts, "Avoiding unnecessary risk brings peace of mind.")
	}
	if top.breakdown.Stress < -5 {
		parts = append(parts, "Current stress levels push toward the safer choice.")
	}
	if top.breakdown.Trust > 5 {
		parts = append(parts, "An established relationship makes this option trustworthy.")
	}
	if top.breakdown.Mood > 5 {
		parts = append(parts, "A positive outlook makes the potential reward attractive.")
	}
	if len(parts) == 0 {
		return "This option offers the best balance of risk and reward."
	}
	return strings.Join(parts, " ")
}
