// Package world defines the shared entity model of the simulation: agents,
// companies, contracts, logistics, markets, research, and world events.
// Subsystems operate on these types; persistence lives in internal/store.
package world

// Personality is the Big Five trait vector plus two behavioral modifiers.
// All values are on a 0-100 scale and are fixed at spawn time.
type Personality struct {
	Openness          float64 `db:"openness" json:"openness"`
	Conscientiousness float64 `db:"conscientiousness" json:"conscientiousness"`
	Extraversion      float64 `db:"extraversion" json:"extraversion"`
	Agreeableness     float64 `db:"agreeableness" json:"agreeableness"`
	Neuroticism       float64 `db:"neuroticism" json:"neuroticism"`
	RiskTolerance     float64 `db:"risk_tolerance" json:"riskTolerance"`
	Impulsiveness     float64 `db:"impulsiveness" json:"impulsiveness"`
}

// EmotionalState is the mutable affect of an agent, 0-100 per axis.
type EmotionalState struct {
	Happiness   float64 `db:"happiness" json:"happiness"`
	Stress      float64 `db:"stress" json:"stress"`
	Trust       float64 `db:"trust" json:"trust"`
	OverallMood float64 `db:"overall_mood" json:"overallMood"`
}

// MemoryType classifies how a remembered event colors future decisions.
type MemoryType string

const (
	MemoryAchievement MemoryType = "achievement"
	MemoryTrauma      MemoryType = "trauma"
	MemoryExperience  MemoryType = "experience"
)

// Memory is one remembered event. EmotionalImpact is signed (-100..100),
// Importance drives both recall weight and eviction order.
type Memory struct {
	Type            MemoryType `json:"type"`
	Description     string     `json:"description"`
	EmotionalImpact float64    `json:"emotionalImpact"`
	Importance      float64    `json:"importance"`
	Turn            int64      `json:"turn"`
}

// Relationship tracks one agent's stance toward another.
type Relationship struct {
	OtherAgentID string  `json:"otherAgentId"`
	Kind         string  `json:"kind"`
	Trust        float64 `json:"trust"`
	Familiarity  float64 `json:"familiarity"`
}

// AgentType distinguishes the economic role an agent plays.
type AgentType string

const (
	AgentCustomer     AgentType = "customer"
	AgentSupplier     AgentType = "supplier"
	AgentEmployee     AgentType = "employee"
	AgentExecutive    AgentType = "executive"
	AgentEntrepreneur AgentType = "entrepreneur"
)

// Agent is an autonomous actor. Personality is immutable after spawn;
// emotional state, memories, and relationships evolve with outcomes.
type Agent struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Type          AgentType      `db:"agent_type" json:"type"`
	CompanyID     string         `db:"company_id" json:"companyId,omitempty"`
	CityID        string         `db:"city_id" json:"cityId,omitempty"`
	Personality   Personality    `json:"personality"`
	Emotional     EmotionalState `json:"emotionalState"`
	Motivations   []string       `json:"motivations"`
	Memories      []Memory       `json:"memories"`
	Relationships []Relationship `json:"relationships"`
	CreatedTurn   int64          `db:"created_turn" json:"createdTurn"`
}

// RelationshipWith returns the relationship toward otherID, if any.
func (a *Agent) RelationshipWith(otherID string) (Relationship, bool) {
	for _, r := range a.Relationships {
		if r.OtherAgentID == otherID {
			return r, true
		}
	}
	return Relationship{}, false
}

// DecisionStatus tracks the single permitted outcome transition of a decision.
type DecisionStatus string

const (
	DecisionPending   DecisionStatus = "pending"
	DecisionSucceeded DecisionStatus = "succeeded"
	DecisionFailed    DecisionStatus = "failed"

	// DecisionNeutral closes a decision without emotional consequences.
	DecisionNeutral DecisionStatus = "neutral"
)

// DecisionOption is one candidate action presented to the decision engine.
type DecisionOption struct {
	ID                   string  `json:"id"`
	Description          string  `json:"description"`
	RiskLevel            float64 `json:"riskLevel"`
	PotentialReward      float64 `json:"potentialReward"`
	RequiresCooperation  bool    `json:"requiresCooperation"`
	RequiresConflict     bool    `json:"requiresConflict"`
	CounterpartyAgentID  string  `json:"counterpartyAgentId,omitempty"`
}

// ScoreBreakdown itemizes the terms behind a decision score. The fields
// sum to the score before clamping.
type ScoreBreakdown struct {
	Base        float64 `json:"base"`
	Personality float64 `json:"personality"`
	Mood        float64 `json:"mood"`
	Stress      float64 `json:"stress"`
	Trust       float64 `json:"trust"`
	Memory      float64 `json:"memory"`
}

// Decision is an immutable record of one choice: the options considered,
// the chosen option, score with its breakdown, confidence, and reasoning.
// Outcome is written at most once by ProcessDecisionOutcome.
type Decision struct {
	ID         string           `db:"id" json:"id"`
	AgentID    string           `db:"agent_id" json:"agentId"`
	Context    string           `db:"context" json:"context"`
	Options    []DecisionOption `json:"options"`
	ChosenID   string           `db:"chosen_id" json:"chosenId"`
	Score      float64          `db:"score" json:"score"`
	Breakdown  ScoreBreakdown   `json:"scoreBreakdown"`
	Confidence float64          `db:"confidence" json:"confidence"`
	Reasoning  string           `db:"reasoning" json:"reasoning"`
	Status     DecisionStatus   `db:"status" json:"status"`
	Turn       int64            `db:"turn" json:"turn"`
}

// Clamp100 clamps v to the 0-100 scale used by traits and emotions.
func Clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp01 clamps v to the 0-1 scale used by quality and reliability.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
