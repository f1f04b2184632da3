package research

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTechTree(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	for _, tech := range []world.Technology{
		{ID: "tech_basic", Name: "Basic Machinery", Category: "production", Cost: 20},
		{ID: "tech_advanced", Name: "Advanced Machinery", Category: "production", Cost: 50, Prerequisites: []string{"tech_basic"}},
	} {
		if err := s.InsertTechnology(ctx, tech); err != nil {
			t.Fatalf("insert technology: %v", err)
		}
	}
	if err := s.InsertCompany(ctx, world.Company{ID: "co1", Name: "Testco", CityID: "c1", Capital: 100000}); err != nil {
		t.Fatalf("insert company: %v", err)
	}
}

func TestStartResearchPrerequisites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTechTree(t, s)
	lab := NewLab(s)

	if _, err := lab.StartResearch(ctx, "co1", "tech_advanced"); !errors.Is(err, world.ErrInvalidState) {
		t.Errorf("missing prerequisite error = %v, want ErrInvalidState", err)
	}

	ct, err := lab.StartResearch(ctx, "co1", "tech_basic")
	if err != nil {
		t.Fatalf("start basic: %v", err)
	}
	if _, err := lab.StartResearch(ctx, "co1", "tech_basic"); !errors.Is(err, world.ErrInvalidState) {
		t.Errorf("duplicate start error = %v, want ErrInvalidState", err)
	}

	// Completing the prerequisite unlocks the dependent technology.
	if _, err := lab.AddProgress(ctx, ct, 20); err != nil {
		t.Fatalf("add progress: %v", err)
	}
	if _, err := lab.StartResearch(ctx, "co1", "tech_advanced"); err != nil {
		t.Errorf("start after prerequisite: %v", err)
	}
}

func TestAddProgressLatchesCompletion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTechTree(t, s)
	lab := NewLab(s)

	ct, err := lab.StartResearch(ctx, "co1", "tech_basic")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	ct, err = lab.AddProgress(ctx, ct, 15)
	if err != nil {
		t.Fatalf("add progress: %v", err)
	}
	if ct.Completed || ct.Progress != 15 {
		t.Errorf("partial progress = %+v", ct)
	}

	// Overshoot clamps to cost and latches.
	ct, err = lab.AddProgress(ctx, ct, 100)
	if err != nil {
		t.Fatalf("add progress: %v", err)
	}
	if !ct.Completed || ct.Progress != 20 {
		t.Errorf("completed project = %+v, want progress 20 completed", ct)
	}

	// Further points are ignored after completion.
	ct, err = lab.AddProgress(ctx, ct, 100)
	if err != nil {
		t.Fatalf("add progress after completion: %v", err)
	}
	if ct.Progress != 20 {
		t.Errorf("progress after latch = %f, want 20", ct.Progress)
	}

	ok, err := lab.HasTechnology(ctx, "co1", "tech_basic")
	if err != nil || !ok {
		t.Errorf("HasTechnology = %v, %v, want true", ok, err)
	}
}

func TestProcessResearchAccruesLabPoints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTechTree(t, s)
	lab := NewLab(s)

	// One laboratory of size 100 at full equipment yields 10 points per
	// turn.
	if err := s.InsertUnit(ctx, world.BusinessUnit{
		ID: "lab1", CompanyID: "co1", CityID: "c1", Type: world.UnitLaboratory,
		Name: "Research Wing", Size: 100, Condition: 100, EquipmentCond: 100,
	}); err != nil {
		t.Fatalf("insert unit: %v", err)
	}

	if _, err := lab.StartResearch(ctx, "co1", "tech_basic"); err != nil {
		t.Fatalf("start: %v", err)
	}

	done, err := lab.ProcessResearch(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done != 0 {
		t.Errorf("completions after one turn = %d, want 0", done)
	}

	ct, err := s.GetCompanyTech(ctx, "co1", "tech_basic")
	if err != nil {
		t.Fatalf("get company tech: %v", err)
	}
	if ct.Progress != 10 {
		t.Errorf("progress = %f, want 10", ct.Progress)
	}

	// Cost 20 completes on the second turn.
	done, err = lab.ProcessResearch(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done != 1 {
		t.Errorf("completions = %d, want 1", done)
	}
}
