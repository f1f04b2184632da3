// Agent spawning. Personalities are drawn once from a clamped normal
// distribution and never change afterward.
package agents

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Spawner creates agents. The rand source is injected so tests can spawn
// deterministic populations.
type Spawner struct {
	store *store.Store
	rng   *rand.Rand
}

// NewSpawner creates a spawner backed by the given store and rand source.
func NewSpawner(st *store.Store, rng *rand.Rand) *Spawner {
	return &Spawner{store: st, rng: rng}
}

// defaultMotivations seeds each agent type with what it wants out of the
// economy.
var defaultMotivations = map[world.AgentType][]string{
	world.AgentCustomer:     {"find good deals", "buy quality products"},
	world.AgentSupplier:     {"reliable partnerships", "steady income"},
	world.AgentEmployee:     {"job security", "career growth"},
	world.AgentExecutive:    {"company growth", "market position"},
	world.AgentEntrepreneur: {"build something new", "independence"},
}

// Spawn creates and persists a new agent with a randomly drawn personality
// and a neutral emotional state.
func (sp *Spawner) Spawn(ctx context.Context, name string, typ world.AgentType, companyID, cityID string) (world.Agent, error) {
	turn, err := sp.store.CurrentTurn(ctx)
	if err != nil {
		return world.Agent{}, err
	}

	a := world.Agent{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      typ,
		CompanyID: companyID,
		CityID:    cityID,
		Personality: world.Personality{
			Openness:          sp.rollTrait(),
			Conscientiousness: sp.rollTrait(),
			Extraversion:      sp.rollTrait(),
			Agreeableness:     sp.rollTrait(),
			Neuroticism:       sp.rollTrait(),
			RiskTolerance:     sp.rollTrait(),
			Impulsiveness:     sp.rollTrait(),
		},
		Emotional: world.EmotionalState{
			Happiness:   50,
			Stress:      50,
			Trust:       50,
			OverallMood: 50,
		},
		Motivations: append([]string(nil), defaultMotivations[typ]...),
		CreatedTurn: turn,
	}

	if err := sp.store.InsertAgent(ctx, a); err != nil {
		return world.Agent{}, fmt.Errorf("spawn agent: %w", err)
	}
	return a, nil
}

// rollTrait samples one trait from N(50, 15) clamped to [0, 100].
func (sp *Spawner) rollTrait() float64 {
	return world.Clamp100(math.Round(50 + sp.rng.NormFloat64()*15))
}
