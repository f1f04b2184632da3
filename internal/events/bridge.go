// Package events implements the bidirectional bridge between business
// outcomes and narrative world events, plus scheduled event processing.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/oklog/ulid/v2"

	"github.com/talgya/vorticog/internal/agents"
	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Asset thresholds scaling the narrative importance of big-company events.
const (
	largeCompanyAssets = 10_000_000
	midCompanyAssets   = 1_000_000
)

// EventSink receives derived world events for fan-out. Implementations
// must be safe for concurrent use.
type EventSink interface {
	PublishWorldEvent(e world.WorldEvent) error
}

// Bridge translates business events into world events and narrative
// events into market and location modifiers.
type Bridge struct {
	store *store.Store
	sink  EventSink
}

// NewBridge creates the event bridge. sink may be nil.
func NewBridge(st *store.Store, sink EventSink) *Bridge {
	return &Bridge{store: st, sink: sink}
}

// narrativeCategory maps a business event type onto the narrative side.
func narrativeCategory(t world.BusinessEventType) world.NarrativeCategory {
	switch t {
	case world.EventBankruptcy, world.EventMerger, world.EventMarketCrash,
		world.EventExpansion, world.EventSuccess:
		return world.NarrativeEconomic
	case world.EventLayoff, world.EventScandal:
		return world.NarrativeSocial
	case world.EventInnovation:
		return world.NarrativeTechnological
	default:
		return world.NarrativeEconomic
	}
}

// Importance converts an event magnitude into narrative importance, scaled
// up for larger companies and capped at 100.
func Importance(magnitude, companyAssets float64) float64 {
	importance := magnitude
	if companyAssets > largeCompanyAssets {
		importance *= 1.5
	} else if companyAssets > midCompanyAssets {
		importance *= 1.2
	}
	return math.Round(math.Min(100, importance))
}

// PropagateBusinessEvent records a business event and derives its world
// event. Propagation is idempotent on the business event id: replays
// return the already derived event without side effects.
func (b *Bridge) PropagateBusinessEvent(ctx context.Context, ev world.BusinessEvent) (world.WorldEvent, error) {
	if ev.ID == "" {
		return world.WorldEvent{}, fmt.Errorf("propagate: missing event id: %w", world.ErrInvalidInput)
	}

	company, err := b.store.GetCompany(ctx, ev.CompanyID)
	if err != nil {
		return world.WorldEvent{}, fmt.Errorf("propagate: company: %w", err)
	}
	if ev.CityID == "" {
		ev.CityID = company.CityID
	}

	turn, err := b.store.CurrentTurn(ctx)
	if err != nil {
		return world.WorldEvent{}, err
	}
	ev.Turn = turn

	importance := Importance(ev.Magnitude, company.Assets)
	we := world.WorldEvent{
		ID:         ulid.Make().String(),
		Category:   narrativeCategory(ev.Type),
		Title:      fmt.Sprintf("%s: %s", company.Name, ev.Type),
		Importance: importance,
		CityID:     ev.CityID,
		StartTurn:  turn,
		EndTurn:    turn + 5 + int64(importance/10),
		Active:     true,
	}

	propagated := false
	err = b.store.WithTx(ctx, func(ts *store.Store) error {
		fresh, err := ts.InsertPropagation(ctx, world.EventPropagation{
			ID:            ulid.Make().String(),
			SourceEventID: ev.ID,
			Direction:     "business_to_world",
			ResultEventID: we.ID,
			Turn:          turn,
		})
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}
		propagated = true

		if err := ts.InsertBusinessEvent(ctx, ev); err != nil {
			return err
		}
		return ts.InsertWorldEvent(ctx, we)
	})
	if err != nil {
		return world.WorldEvent{}, fmt.Errorf("propagate: %w", err)
	}

	if !propagated {
		// Replay: surface the originally derived event.
		existing, err := b.store.ListPropagations(ctx, ev.ID)
		if err != nil || len(existing) == 0 {
			return world.WorldEvent{}, fmt.Errorf("propagate: lookup prior propagation: %w", err)
		}
		return b.store.GetWorldEvent(ctx, existing[0].ResultEventID)
	}

	if err := b.ApplyNarrativeToMarket(ctx, we); err != nil {
		slog.Error("market effect application failed", "event", we.ID, "error", err)
	}
	if err := b.applyEmotionalImpacts(ctx, ev, turn); err != nil {
		slog.Error("emotional impact application failed", "event", ev.ID, "error", err)
	}

	if b.sink != nil {
		if err := b.sink.PublishWorldEvent(we); err != nil {
			slog.Warn("world event publish failed", "event", we.ID, "error", err)
		}
	}

	slog.Info("business event propagated",
		"event", ev.ID, "type", ev.Type, "category", we.Category, "importance", we.Importance)
	return we, nil
}

// marketEffects is the per-category base shift applied to listings before
// importance scaling.
var marketEffects = map[world.NarrativeCategory]world.MarketEffect{
	world.NarrativeConflict:      {PriceModifier: 0.2, DemandModifier: -0.1},
	world.NarrativeNatural:       {PriceModifier: 0.3, DemandModifier: -0.2},
	world.NarrativePolitical:     {PriceModifier: 0.1, DemandModifier: 0},
	world.NarrativeEconomic:      {PriceModifier: 0.15, DemandModifier: 0.1},
	world.NarrativeTechnological: {PriceModifier: -0.1, DemandModifier: 0.2},
	world.NarrativeSocial:        {PriceModifier: 0, DemandModifier: 0.05},
	world.NarrativeDiscovery:     {PriceModifier: -0.15, DemandModifier: 0.3},
}

// MarketEffectFor returns the importance-scaled market shift for an event.
// Unknown categories have no effect.
func MarketEffectFor(category world.NarrativeCategory, importance float64) world.MarketEffect {
	base, ok := marketEffects[category]
	if !ok {
		return world.MarketEffect{}
	}
	scale := importance / 100
	return world.MarketEffect{
		PriceModifier:  base.PriceModifier * scale,
		DemandModifier: base.DemandModifier * scale,
	}
}

// ApplyNarrativeToMarket adds the event's scaled effect to the accumulated
// modifiers of every listing in the affected city.
func (b *Bridge) ApplyNarrativeToMarket(ctx context.Context, we world.WorldEvent) error {
	if we.CityID == "" {
		return nil
	}
	eff := MarketEffectFor(we.Category, we.Importance)
	if eff.PriceModifier == 0 && eff.DemandModifier == 0 {
		return nil
	}
	return b.store.ShiftListingModifiers(ctx, we.CityID, eff.PriceModifier, eff.DemandModifier)
}

// emotionalTargets are the per-event-type set-points agent emotions drift
// toward, before magnitude scaling.
var emotionalTargets = map[world.BusinessEventType]world.EmotionalState{
	world.EventBankruptcy:  {Happiness: 20, Stress: 90, OverallMood: 25},
	world.EventMarketCrash: {Happiness: 30, Stress: 85, OverallMood: 30},
	world.EventLayoff:      {Happiness: 30, Stress: 80, OverallMood: 30},
	world.EventScandal:     {Happiness: 35, Stress: 75, OverallMood: 35},
	world.EventMerger:      {Happiness: 55, Stress: 60, OverallMood: 55},
	world.EventExpansion:   {Happiness: 70, Stress: 40, OverallMood: 65},
	world.EventInnovation:  {Happiness: 75, Stress: 35, OverallMood: 70},
	world.EventSuccess:     {Happiness: 80, Stress: 30, OverallMood: 75},
}

// scaleToward moves current toward target in proportion to magnitude.
func scaleToward(current, target, magnitude float64) float64 {
	return world.Clamp100(current + (target-current)*magnitude/100)
}

// applyEmotionalImpacts shifts the emotional state of the company's agents
// toward the event's set-points and leaves each a witness memory.
func (b *Bridge) applyEmotionalImpacts(ctx context.Context, ev world.BusinessEvent, turn int64) error {
	target, ok := emotionalTargets[ev.Type]
	if !ok {
		return nil
	}

	companyAgents, err := b.store.ListAgents(ctx, ev.CompanyID)
	if err != nil {
		return err
	}

	negative := target.OverallMood < 50
	for _, a := range companyAgents {
		a.Emotional.Happiness = scaleToward(a.Emotional.Happiness, target.Happiness, ev.Magnitude)
		a.Emotional.Stress = scaleToward(a.Emotional.Stress, target.Stress, ev.Magnitude)
		a.Emotional.OverallMood = scaleToward(a.Emotional.OverallMood, target.OverallMood, ev.Magnitude)

		memType := world.MemoryExperience
		impact := 0.0
		if negative && ev.Magnitude > 50 {
			memType = world.MemoryTrauma
			impact = -30
		} else if !negative && ev.Magnitude > 50 {
			memType = world.MemoryAchievement
			impact = 30
		}
		agents.AddMemory(&a, world.Memory{
			Type:            memType,
			Description:     fmt.Sprintf("witnessed %s", ev.Type),
			EmotionalImpact: impact,
			Importance:      math.Min(100, ev.Magnitude),
			Turn:            turn,
		})

		if err := b.store.UpdateAgent(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
