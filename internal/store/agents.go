package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/vorticog/internal/world"
)

// agentRow flattens Agent for sqlx; slices travel as JSON columns.
type agentRow struct {
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	AgentType         string  `db:"agent_type"`
	CompanyID         string  `db:"company_id"`
	CityID            string  `db:"city_id"`
	Openness          float64 `db:"openness"`
	Conscientiousness float64 `db:"conscientiousness"`
	Extraversion      float64 `db:"extraversion"`
	Agreeableness     float64 `db:"agreeableness"`
	Neuroticism       float64 `db:"neuroticism"`
	RiskTolerance     float64 `db:"risk_tolerance"`
	Impulsiveness     float64 `db:"impulsiveness"`
	Happiness         float64 `db:"happiness"`
	Stress            float64 `db:"stress"`
	Trust             float64 `db:"trust"`
	OverallMood       float64 `db:"overall_mood"`
	MotivationsJSON   string  `db:"motivations_json"`
	MemoriesJSON      string  `db:"memories_json"`
	RelationshipsJSON string  `db:"relationships_json"`
	CreatedTurn       int64   `db:"created_turn"`
}

func (r agentRow) toAgent() (world.Agent, error) {
	a := world.Agent{
		ID:        r.ID,
		Name:      r.Name,
		Type:      world.AgentType(r.AgentType),
		CompanyID: r.CompanyID,
		CityID:    r.CityID,
		Personality: world.Personality{
			Openness:          r.Openness,
			Conscientiousness: r.Conscientiousness,
			Extraversion:      r.Extraversion,
			Agreeableness:     r.Agreeableness,
			Neuroticism:       r.Neuroticism,
			RiskTolerance:     r.RiskTolerance,
			Impulsiveness:     r.Impulsiveness,
		},
		Emotional: world.EmotionalState{
			Happiness:   r.Happiness,
			Stress:      r.Stress,
			Trust:       r.Trust,
			OverallMood: r.OverallMood,
		},
		CreatedTurn: r.CreatedTurn,
	}
	if err := json.Unmarshal([]byte(r.MotivationsJSON), &a.Motivations); err != nil {
		return a, fmt.Errorf("agent %s motivations: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.MemoriesJSON), &a.Memories); err != nil {
		return a, fmt.Errorf("agent %s memories: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.RelationshipsJSON), &a.Relationships); err != nil {
		return a, fmt.Errorf("agent %s relationships: %w", r.ID, err)
	}
	return a, nil
}

func rowFromAgent(a world.Agent) (agentRow, error) {
	motivations, err := json.Marshal(orEmpty(a.Motivations))
	if err != nil {
		return agentRow{}, err
	}
	memories, err := json.Marshal(orEmpty(a.Memories))
	if err != nil {
		return agentRow{}, err
	}
	relationships, err := json.Marshal(orEmpty(a.Relationships))
	if err != nil {
		return agentRow{}, err
	}
	return agentRow{
		ID:                a.ID,
		Name:              a.Name,
		AgentType:         string(a.Type),
		CompanyID:         a.CompanyID,
		CityID:            a.CityID,
		Openness:          a.Personality.Openness,
		Conscientiousness: a.Personality.Conscientiousness,
		Extraversion:      a.Personality.Extraversion,
		Agreeableness:     a.Personality.Agreeableness,
		Neuroticism:       a.Personality.Neuroticism,
		RiskTolerance:     a.Personality.RiskTolerance,
		Impulsiveness:     a.Personality.Impulsiveness,
		Happiness:         a.Emotional.Happiness,
		Stress:            a.Emotional.Stress,
		Trust:             a.Emotional.Trust,
		OverallMood:       a.Emotional.OverallMood,
		MotivationsJSON:   string(motivations),
		MemoriesJSON:      string(memories),
		RelationshipsJSON: string(relationships),
		CreatedTurn:       a.CreatedTurn,
	}, nil
}

// orEmpty keeps JSON columns as [] instead of null for nil slices.
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func (s *Store) GetAgent(ctx context.Context, id string) (world.Agent, error) {
	var row agentRow
	if err := sqlx.GetContext(ctx, s.ext, &row, "SELECT * FROM agents WHERE id = ?", id); err != nil {
		return world.Agent{}, notFound(err)
	}
	return row.toAgent()
}

func (s *Store) ListAgents(ctx context.Context, companyID string) ([]world.Agent, error) {
	query := "SELECT * FROM agents ORDER BY id"
	args := []any{}
	if companyID != "" {
		query = "SELECT * FROM agents WHERE company_id = ? ORDER BY id"
		args = append(args, companyID)
	}

	var rows []agentRow
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]world.Agent, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAgent()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) InsertAgent(ctx context.Context, a world.Agent) error {
	row, err := rowFromAgent(a)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExecContext(ctx, s.ext, `INSERT INTO agents
		(id, name, agent_type, company_id, city_id,
		 openness, conscientiousness, extraversion, agreeableness, neuroticism,
		 risk_tolerance, impulsiveness, happiness, stress, trust, overall_mood,
		 motivations_json, memories_json, relationships_json, created_turn)
		VALUES (:id, :name, :agent_type, :company_id, :city_id,
		 :openness, :conscientiousness, :extraversion, :agreeableness, :neuroticism,
		 :risk_tolerance, :impulsiveness, :happiness, :stress, :trust, :overall_mood,
		 :motivations_json, :memories_json, :relationships_json, :created_turn)`, row)
	return err
}

// UpdateAgent persists mutable agent state. Personality columns are written
// too but never change after spawn.
func (s *Store) UpdateAgent(ctx context.Context, a world.Agent) error {
	row, err := rowFromAgent(a)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExecContext(ctx, s.ext, `UPDATE agents SET
		name = :name, agent_type = :agent_type, company_id = :company_id, city_id = :city_id,
		happiness = :happiness, stress = :stress, trust = :trust, overall_mood = :overall_mood,
		motivations_json = :motivations_json, memories_json = :memories_json,
		relationships_json = :relationships_json
		WHERE id = :id`, row)
	return err
}

// decisionRow carries the JSON columns alongside the flat decision fields.
type decisionRow struct {
	world.Decision
	OptionsJSON   string `db:"options_json"`
	BreakdownJSON string `db:"breakdown_json"`
}

func (r decisionRow) toDecision() (world.Decision, error) {
	d := r.Decision
	if err := json.Unmarshal([]byte(r.OptionsJSON), &d.Options); err != nil {
		return world.Decision{}, fmt.Errorf("decision %s options: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(r.BreakdownJSON), &d.Breakdown); err != nil {
		return world.Decision{}, fmt.Errorf("decision %s breakdown: %w", d.ID, err)
	}
	return d, nil
}

func (s *Store) GetDecision(ctx context.Context, id string) (world.Decision, error) {
	var row decisionRow
	if err := sqlx.GetContext(ctx, s.ext, &row, "SELECT * FROM decisions WHERE id = ?", id); err != nil {
		return world.Decision{}, notFound(err)
	}
	return row.toDecision()
}

func (s *Store) ListDecisions(ctx context.Context, agentID string) ([]world.Decision, error) {
	var rows []decisionRow
	err := sqlx.SelectContext(ctx, s.ext, &rows,
		"SELECT * FROM decisions WHERE agent_id = ? ORDER BY turn, id", agentID)
	if err != nil {
		return nil, err
	}
	out := make([]world.Decision, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDecision()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) InsertDecision(ctx context.Context, d world.Decision) error {
	options, err := json.Marshal(orEmpty(d.Options))
	if err != nil {
		return err
	}
	breakdown, err := json.Marshal(d.Breakdown)
	if err != nil {
		return err
	}
	_, err = s.ext.ExecContext(ctx, `INSERT INTO decisions
		(id, agent_id, context, options_json, chosen_id, score, breakdown_json, confidence, reasoning, status, turn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AgentID, d.Context, string(options), d.ChosenID, d.Score,
		string(breakdown), d.Confidence, d.Reasoning, d.Status, d.Turn)
	return err
}

// SetDecisionStatus writes the outcome of a pending decision. It fails with
// ErrInvalidState when the decision already has an outcome.
func (s *Store) SetDecisionStatus(ctx context.Context, id string, status world.DecisionStatus) error {
	res, err := s.ext.ExecContext(ctx,
		"UPDATE decisions SET status = ? WHERE id = ? AND status = ?",
		status, id, world.DecisionPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetDecision(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("decision %s already resolved: %w", id, world.ErrInvalidState)
	}
	return nil
}
