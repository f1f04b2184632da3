package events

import (
	"context"

	"github.com/talgya/vorticog/internal/world"
)

// LocationEffects derives the per-city modifiers from the city's active
// world events. With no events the effects are neutral.
func (b *Bridge) LocationEffects(ctx context.Context, cityID string) (world.LocationEffects, error) {
	eff := world.LocationEffects{
		ShippingMultiplier: 1.0,
		EfficiencyModifier: 1.0,
	}

	active, err := b.store.ListActiveEvents(ctx, cityID)
	if err != nil {
		return eff, err
	}

	for _, we := range active {
		switch we.Category {
		case world.NarrativeConflict:
			eff.DangerLevel += 30
			eff.ShippingMultiplier *= 1.5
			eff.EfficiencyModifier *= 0.7
		case world.NarrativeNatural:
			eff.DangerLevel += 20
			eff.ShippingMultiplier *= 1.3
			eff.EfficiencyModifier *= 0.8
		case world.NarrativePolitical:
			eff.DangerLevel += 10
			eff.ShippingMultiplier *= 1.2
		case world.NarrativeEconomic:
			eff.EfficiencyModifier *= 0.9
		case world.NarrativeTechnological:
			eff.EfficiencyModifier *= 1.1
		case world.NarrativeDiscovery:
			eff.EfficiencyModifier *= 1.15
		}
	}

	if eff.DangerLevel > 100 {
		eff.DangerLevel = 100
	}
	return eff, nil
}
