// Package quality computes output quality from inputs, labor, and
// equipment, and runs batch inspections against company standards.
package quality

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Weights of the quality formula. Inputs dominate; labor and equipment
// share the rest.
const (
	inputWeight     = 0.6
	employeeWeight  = 0.2
	equipmentWeight = 0.2
)

// ComputeQuality returns the output quality of a production batch on the
// 0-1 scale. With no inputs the result is the neutral baseline 0.5. The
// result is capped at 1 but has no floor.
func ComputeQuality(inputQualities []float64, employeeQualification, equipmentCondition float64) float64 {
	if len(inputQualities) == 0 {
		return 0.5
	}

	sum := 0.0
	for _, q := range inputQualities {
		sum += q
	}
	avgInput := sum / float64(len(inputQualities))

	q := inputWeight*avgInput + employeeWeight*employeeQualification + equipmentWeight*(equipmentCondition/100)
	if q > 1 {
		return 1
	}
	return q
}

// Inspector samples produced batches against company quality standards.
type Inspector struct {
	store *store.Store
	rng   *rand.Rand
}

// NewInspector creates an inspector with an injected rand source.
func NewInspector(st *store.Store, rng *rand.Rand) *Inspector {
	return &Inspector{store: st, rng: rng}
}

// StandardFor returns the company's standard for a resource category,
// creating the default standard on first use.
func (in *Inspector) StandardFor(ctx context.Context, companyID, category string) (world.QualityStandard, error) {
	std, err := in.store.GetStandard(ctx, companyID, category)
	if err == nil {
		return std, nil
	}
	if !errors.Is(err, world.ErrNotFound) {
		return world.QualityStandard{}, err
	}

	std = world.QualityStandard{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		Category:      category,
		MinAcceptable: 0.70,
		TargetQuality: 0.90,
		Frequency:     "periodic",
		Rigor:         50,
	}
	if err := in.store.InsertStandard(ctx, std); err != nil {
		return world.QualityStandard{}, fmt.Errorf("create default standard: %w", err)
	}
	return std, nil
}

// InspectionDue reports whether the standard's cadence calls for an
// inspection this turn.
func InspectionDue(std world.QualityStandard, turn int64) bool {
	switch std.Frequency {
	case "always":
		return true
	case "periodic":
		return turn%5 == 0
	case "minimal":
		return turn%20 == 0
	default:
		return false
	}
}

// Inspect samples a batch at the given unit and records the result.
// Detection of a failing batch is probabilistic: higher rigor detects more
// but never everything.
func (in *Inspector) Inspect(ctx context.Context, std world.QualityStandard, unitID, resourceID string, actualQuality float64, turn int64) (world.QualityInspection, error) {
	// Sample between 5% and 20% of the batch, scaled by rigor.
	sample := 0.05 + 0.15*(std.Rigor/100)

	// Measurement noise shrinks with rigor.
	noise := (in.rng.Float64() - 0.5) * 0.1 * (1 - std.Rigor/100)
	measured := world.Clamp01(actualQuality + noise)

	failing := actualQuality < std.MinAcceptable
	detectChance := 0.5 + 0.45*(std.Rigor/100)
	detected := failing && in.rng.Float64() < detectChance

	insp := world.QualityInspection{
		ID:              uuid.NewString(),
		StandardID:      std.ID,
		UnitID:          unitID,
		ResourceID:      resourceID,
		SampleSize:      sample,
		MeasuredQuality: measured,
		ActualQuality:   actualQuality,
		Passed:          !detected,
		Detected:        detected,
		BonusAwarded:    std.BonusEnabled && actualQuality >= std.TargetQuality,
		Turn:            turn,
	}

	if err := in.store.InsertInspection(ctx, insp); err != nil {
		return world.QualityInspection{}, fmt.Errorf("record inspection: %w", err)
	}
	return insp, nil
}
