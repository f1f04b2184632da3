// Agent memory stream: records of notable experiences weighed during
// decision scoring.
package agents

import "github.com/talgya/vorticog/internal/world"

const MaxMemories = 50

// AddMemory appends a memory to the agent's stream. When full, drops the
// lowest-importance memory to make room.
func AddMemory(a *world.Agent, m world.Memory) {
	if len(a.Memories) < MaxMemories {
		a.Memories = append(a.Memories, m)
		return
	}

	// Find the lowest-importance memory and replace it.
	minIdx := 0
	for i := 1; i < len(a.Memories); i++ {
		if a.Memories[i].Importance < a.Memories[minIdx].Importance {
			minIdx = i
		}
	}
	if m.Importance > a.Memories[minIdx].Importance {
		a.Memories[minIdx] = m
	}
}

// AdjustRelationship shifts trust toward another agent, creating the
// relationship on first contact.
func AdjustRelationship(a *world.Agent, otherID, kind string, trustDelta float64) {
	for i := range a.Relationships {
		if a.Relationships[i].OtherAgentID == otherID {
			a.Relationships[i].Trust = world.Clamp100(a.Relationships[i].Trust + trustDelta)
			a.Relationships[i].Familiarity = world.Clamp100(a.Relationships[i].Familiarity + 1)
			return
		}
	}
	a.Relationships = append(a.Relationships, world.Relationship{
		OtherAgentID: otherID,
		Kind:         kind,
		Trust:        world.Clamp100(50 + trustDelta),
		Familiarity:  1,
	})
}
