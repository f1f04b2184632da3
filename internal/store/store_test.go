package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/vorticog/internal/world"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTurnCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	turn, err := s.CurrentTurn(ctx)
	if err != nil {
		t.Fatalf("current turn: %v", err)
	}
	if turn != 0 {
		t.Errorf("fresh world turn = %d, want 0", turn)
	}

	next, err := s.AdvanceTurn(ctx)
	if err != nil {
		t.Fatalf("advance turn: %v", err)
	}
	if next != 1 {
		t.Errorf("after advance turn = %d, want 1", next)
	}
}

func TestPostTransactionIdempotency(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	company := world.Company{ID: "co1", Name: "Testco", CityID: "c1", Capital: 10000}
	if err := s.InsertCompany(ctx, company); err != nil {
		t.Fatalf("insert company: %v", err)
	}

	tx := world.Transaction{
		ID:             "tx1",
		CompanyID:      "co1",
		Kind:           world.TxMaintenance,
		Amount:         -5000,
		Description:    "upkeep",
		IdempotencyKey: "maintenance:u1:1",
		Turn:           1,
	}
	if err := s.PostTransaction(ctx, tx); err != nil {
		t.Fatalf("post: %v", err)
	}

	// Same key again, different row id: must be a no-op.
	tx.ID = "tx2"
	if err := s.PostTransaction(ctx, tx); err != nil {
		t.Fatalf("replay post: %v", err)
	}

	got, err := s.GetCompany(ctx, "co1")
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if got.Capital != 5000 {
		t.Errorf("capital = %f, want 5000 (single deduction)", got.Capital)
	}

	txs, err := s.ListTransactions(ctx, "co1")
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}

func TestDecisionSingleResolution(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := world.Decision{
		ID: "d1", AgentID: "a1", Context: "expand", ChosenID: "opt1",
		Score: 70, Confidence: 80, Reasoning: "test", Status: world.DecisionPending, Turn: 1,
	}
	if err := s.InsertDecision(ctx, d); err != nil {
		t.Fatalf("insert decision: %v", err)
	}

	if err := s.SetDecisionStatus(ctx, "d1", world.DecisionSucceeded); err != nil {
		t.Fatalf("first resolution: %v", err)
	}
	err := s.SetDecisionStatus(ctx, "d1", world.DecisionFailed)
	if !errors.Is(err, world.ErrInvalidState) {
		t.Errorf("second resolution error = %v, want ErrInvalidState", err)
	}

	got, err := s.GetDecision(ctx, "d1")
	if err != nil {
		t.Fatalf("get decision: %v", err)
	}
	if got.Status != world.DecisionSucceeded {
		t.Errorf("status = %s, want succeeded", got.Status)
	}
}

func TestAgentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := world.Agent{
		ID: "a1", Name: "Mira", Type: world.AgentExecutive, CompanyID: "co1",
		Personality: world.Personality{Openness: 90, Conscientiousness: 40},
		Emotional:   world.EmotionalState{Happiness: 50, Stress: 50, Trust: 50, OverallMood: 50},
		Motivations: []string{"company growth"},
		Memories: []world.Memory{
			{Type: world.MemoryAchievement, Description: "first sale", Importance: 60, Turn: 1},
		},
		Relationships: []world.Relationship{
			{OtherAgentID: "a2", Kind: "business", Trust: 70, Familiarity: 3},
		},
	}
	if err := s.InsertAgent(ctx, a); err != nil {
		t.Fatalf("insert agent: %v", err)
	}

	got, err := s.GetAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if got.Personality.Openness != 90 {
		t.Errorf("openness = %f, want 90", got.Personality.Openness)
	}
	if len(got.Memories) != 1 || got.Memories[0].Description != "first sale" {
		t.Errorf("memories not preserved: %+v", got.Memories)
	}
	if rel, ok := got.RelationshipWith("a2"); !ok || rel.Trust != 70 {
		t.Errorf("relationship not preserved: %+v", got.Relationships)
	}

	if _, err := s.GetAgent(ctx, "missing"); !errors.Is(err, world.ErrNotFound) {
		t.Errorf("missing agent error = %v, want ErrNotFound", err)
	}
}

func TestPropagationUniqueness(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fresh, err := s.InsertPropagation(ctx, world.EventPropagation{
		ID: "p1", SourceEventID: "ev1", Direction: "business_to_world", ResultEventID: "we1", Turn: 1,
	})
	if err != nil || !fresh {
		t.Fatalf("first propagation fresh=%v err=%v", fresh, err)
	}

	fresh, err = s.InsertPropagation(ctx, world.EventPropagation{
		ID: "p2", SourceEventID: "ev1", Direction: "business_to_world", ResultEventID: "we2", Turn: 2,
	})
	if err != nil {
		t.Fatalf("replay propagation: %v", err)
	}
	if fresh {
		t.Error("replayed propagation reported fresh")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.InsertCompany(ctx, world.Company{ID: "co1", Name: "Testco", CityID: "city_veridia", Capital: 1000}); err != nil {
		t.Fatalf("insert company: %v", err)
	}

	var buf bytes.Buffer
	if err := s.ExportSnapshot(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	snap, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(snap.Cities) == 0 {
		t.Error("snapshot has no cities")
	}
	if len(snap.Companies) != 1 || snap.Companies[0].ID != "co1" {
		t.Errorf("snapshot companies = %+v", snap.Companies)
	}
}

func TestSeedIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	cities, err := s.ListCities(ctx)
	if err != nil {
		t.Fatalf("list cities: %v", err)
	}
	if len(cities) != 5 {
		t.Errorf("cities = %d, want 5", len(cities))
	}

	techs, err := s.ListTechnologies(ctx)
	if err != nil {
		t.Fatalf("list technologies: %v", err)
	}
	if len(techs) != 13 {
		t.Errorf("technologies = %d, want 13", len(techs))
	}
}
