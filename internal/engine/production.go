package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/logistics"
	"github.com/talgya/vorticog/internal/quality"
	"github.com/talgya/vorticog/internal/research"
	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Factory advances the production queue: recipe input consumption, batch
// progress, output quality, and inspections.
type Factory struct {
	store     *store.Store
	inspector *quality.Inspector
	lab       *research.Lab
	effects   logistics.EffectsSource
}

// NewFactory wires the production subsystem.
func NewFactory(st *store.Store, inspector *quality.Inspector, lab *research.Lab, effects logistics.EffectsSource) *Factory {
	return &Factory{store: st, inspector: inspector, lab: lab, effects: effects}
}

// StartProduction consumes recipe inputs from the unit's inventory and
// opens a production order. Recipes gated behind a technology require it
// completed.
func (f *Factory) StartProduction(ctx context.Context, unitID, recipeID string) (world.ProductionOrder, error) {
	unit, err := f.store.GetUnit(ctx, unitID)
	if err != nil {
		return world.ProductionOrder{}, fmt.Errorf("start production: unit: %w", err)
	}
	recipe, err := f.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return world.ProductionOrder{}, fmt.Errorf("start production: recipe: %w", err)
	}

	if recipe.RequiredTechID != "" {
		ok, err := f.lab.HasTechnology(ctx, unit.CompanyID, recipe.RequiredTechID)
		if err != nil {
			return world.ProductionOrder{}, err
		}
		if !ok {
			return world.ProductionOrder{}, fmt.Errorf("start production: requires %s: %w", recipe.RequiredTechID, world.ErrInvalidState)
		}
	}

	turn, err := f.store.CurrentTurn(ctx)
	if err != nil {
		return world.ProductionOrder{}, err
	}

	order := world.ProductionOrder{
		ID:          uuid.NewString(),
		UnitID:      unitID,
		RecipeID:    recipeID,
		StartedTurn: turn,
	}

	err = f.store.WithTx(ctx, func(ts *store.Store) error {
		qualities := make([]float64, 0, len(recipe.Inputs))
		for _, in := range recipe.Inputs {
			inv, err := ts.GetInventory(ctx, unitID, in.ResourceID)
			if err != nil {
				return fmt.Errorf("start production: input %s: %w", in.ResourceID, err)
			}
			if inv.Quantity < in.Quantity {
				return fmt.Errorf("start production: insufficient %s (%f < %f): %w",
					in.ResourceID, inv.Quantity, in.Quantity, world.ErrInvalidState)
			}
			inv.Quantity -= in.Quantity
			if err := ts.UpsertInventory(ctx, inv); err != nil {
				return err
			}
			qualities = append(qualities, inv.Quality)
		}

		order.InputQuality = avg(qualities)
		return ts.InsertOrder(ctx, order)
	})
	if err != nil {
		return world.ProductionOrder{}, err
	}
	return order, nil
}

// ProcessProduction advances every open order by one turn of work and
// completes those that reach full progress.
func (f *Factory) ProcessProduction(ctx context.Context, turn int64) (int, error) {
	orders, err := f.store.ListOpenOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("process production: %w", err)
	}

	completed := 0
	for _, order := range orders {
		done, err := f.advanceOrder(ctx, order, turn)
		if err != nil {
			slog.Error("production order failed", "order", order.ID, "error", err)
			continue
		}
		if done {
			completed++
		}
	}
	return completed, nil
}

func (f *Factory) advanceOrder(ctx context.Context, order world.ProductionOrder, turn int64) (bool, error) {
	unit, err := f.store.GetUnit(ctx, order.UnitID)
	if err != nil {
		return false, err
	}
	recipe, err := f.store.GetRecipe(ctx, order.RecipeID)
	if err != nil {
		return false, err
	}

	laborFactor, empQual, err := f.labor(ctx, unit.ID, recipe.LaborRequired)
	if err != nil {
		return false, err
	}

	efficiency := unit.EquipmentCond / 100
	if f.effects != nil {
		eff, err := f.effects.LocationEffects(ctx, unit.CityID)
		if err != nil {
			return false, err
		}
		efficiency *= eff.EfficiencyModifier
	}

	if recipe.TimeRequired <= 0 {
		recipe.TimeRequired = 1
	}
	order.Progress += (100 / recipe.TimeRequired) * efficiency * laborFactor
	if order.Progress < 100 {
		return false, f.store.UpdateOrder(ctx, order)
	}

	order.Progress = 100
	order.Completed = true

	outputQuality := quality.ComputeQuality([]float64{order.InputQuality}, empQual, unit.EquipmentCond)
	if len(recipe.Inputs) == 0 {
		// Raw extraction has no inputs; quality comes from labor and
		// equipment alone around the neutral baseline.
		outputQuality = quality.ComputeQuality(nil, empQual, unit.EquipmentCond)
	}

	err = f.store.WithTx(ctx, func(ts *store.Store) error {
		if err := ts.UpdateOrder(ctx, order); err != nil {
			return err
		}

		inv, err := ts.GetInventory(ctx, unit.ID, recipe.OutputResourceID)
		if errors.Is(err, world.ErrNotFound) {
			inv = world.Inventory{
				ID:         uuid.NewString(),
				UnitID:     unit.ID,
				ResourceID: recipe.OutputResourceID,
			}
		} else if err != nil {
			return err
		}
		inv.Quality = world.MergeQuality(inv.Quality, inv.Quantity, outputQuality, recipe.OutputQuantity)
		inv.Quantity += recipe.OutputQuantity
		return ts.UpsertInventory(ctx, inv)
	})
	if err != nil {
		return false, err
	}

	if err := f.maybeInspect(ctx, unit, recipe, outputQuality, turn); err != nil {
		slog.Error("inspection failed", "order", order.ID, "error", err)
	}

	slog.Debug("production complete",
		"unit", unit.Name, "recipe", recipe.Name, "quality", outputQuality, "turn", turn)
	return true, nil
}

func (f *Factory) maybeInspect(ctx context.Context, unit world.BusinessUnit, recipe world.ProductionRecipe, outputQuality float64, turn int64) error {
	resource, err := f.store.GetResource(ctx, recipe.OutputResourceID)
	if err != nil {
		return err
	}
	std, err := f.inspector.StandardFor(ctx, unit.CompanyID, resource.Category)
	if err != nil {
		return err
	}
	if !quality.InspectionDue(std, turn) {
		return nil
	}
	_, err = f.inspector.Inspect(ctx, std, unit.ID, recipe.OutputResourceID, outputQuality, turn)
	return err
}

// labor returns the labor factor min(1, headcount/required) and the average
// employee qualification at the unit.
func (f *Factory) labor(ctx context.Context, unitID string, required int) (float64, float64, error) {
	employees, err := f.store.ListEmployees(ctx, unitID)
	if err != nil {
		return 0, 0, err
	}

	headcount := 0
	qualSum := 0.0
	for _, e := range employees {
		headcount += e.Count
		qualSum += e.Qualification * float64(e.Count)
	}

	if headcount == 0 {
		return 0, 0, nil
	}
	factor := 1.0
	if required > 0 && headcount < required {
		factor = float64(headcount) / float64(required)
	}
	return factor, qualSum / float64(headcount), nil
}

func avg(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
