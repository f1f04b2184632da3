package quality

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

func TestComputeQuality(t *testing.T) {
	if got := ComputeQuality(nil, 0.9, 100); got != 0.5 {
		t.Errorf("no inputs = %f, want neutral 0.5", got)
	}

	// Perfect everything hits the cap exactly.
	if got := ComputeQuality([]float64{1, 1}, 1, 100); got != 1 {
		t.Errorf("perfect batch = %f, want 1", got)
	}

	got := ComputeQuality([]float64{0.8, 0.6}, 0.5, 80)
	want := 0.6*0.7 + 0.2*0.5 + 0.2*0.8
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ComputeQuality = %f, want %f", got, want)
	}

	// Bad inputs drag quality down with no floor.
	if got := ComputeQuality([]float64{0.1}, 0.1, 10); got > 0.2 {
		t.Errorf("poor batch = %f, expected well under 0.2", got)
	}
}

func TestInspectionDue(t *testing.T) {
	tests := []struct {
		freq string
		turn int64
		want bool
	}{
		{"always", 3, true},
		{"periodic", 10, true},
		{"periodic", 11, false},
		{"minimal", 40, true},
		{"minimal", 41, false},
		{"never", 20, false},
	}
	for _, tt := range tests {
		std := world.QualityStandard{Frequency: tt.freq}
		if got := InspectionDue(std, tt.turn); got != tt.want {
			t.Errorf("InspectionDue(%s, %d) = %v, want %v", tt.freq, tt.turn, got, tt.want)
		}
	}
}

func TestStandardForCreatesDefault(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	in := NewInspector(s, rand.New(rand.NewSource(1)))
	std, err := in.StandardFor(ctx, "co1", "machinery")
	if err != nil {
		t.Fatalf("standard for: %v", err)
	}
	if std.MinAcceptable != 0.70 || std.TargetQuality != 0.90 || std.Frequency != "periodic" || std.Rigor != 50 {
		t.Errorf("default standard = %+v", std)
	}

	again, err := in.StandardFor(ctx, "co1", "machinery")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if again.ID != std.ID {
		t.Error("second lookup created a new standard")
	}
}

func TestInspectSampleAndBonus(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	in := NewInspector(s, rand.New(rand.NewSource(1)))
	std := world.QualityStandard{
		ID: "std1", CompanyID: "co1", Category: "machinery",
		MinAcceptable: 0.70, TargetQuality: 0.90, Frequency: "always",
		Rigor: 100, BonusEnabled: true,
	}
	if err := s.InsertStandard(ctx, std); err != nil {
		t.Fatalf("insert standard: %v", err)
	}

	insp, err := in.Inspect(ctx, std, "u1", "res_machinery", 0.95, 3)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	// Full rigor samples the 20% ceiling and measures without noise.
	if math.Abs(insp.SampleSize-0.20) > 1e-9 {
		t.Errorf("sample = %f, want 0.20 at full rigor", insp.SampleSize)
	}
	if insp.MeasuredQuality != 0.95 {
		t.Errorf("measured = %f, want exact 0.95 at full rigor", insp.MeasuredQuality)
	}
	if !insp.Passed || insp.Detected {
		t.Errorf("passing batch flagged: %+v", insp)
	}
	if !insp.BonusAwarded {
		t.Error("bonus not awarded above target")
	}
}
