// Package finance posts the recurring per-turn money flows: salaries,
// maintenance, and taxes. Every flow is an idempotent ledger transaction.
package finance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// conditionDecay is how much unit condition drops when maintenance goes
// unpaid.
const conditionDecay = 5

// unitMaintenanceBase is the per-turn upkeep at size 100, by unit type.
var unitMaintenanceBase = map[world.BusinessUnitType]float64{
	world.UnitOffice:     500,
	world.UnitStore:      1000,
	world.UnitFactory:    5000,
	world.UnitMine:       10000,
	world.UnitFarm:       2000,
	world.UnitLaboratory: 7500,
}

const defaultMaintenanceBase = 1000

// MaintenanceCost returns the per-turn upkeep of a unit: the type base
// scaled linearly by size.
func MaintenanceCost(typ world.BusinessUnitType, size float64) float64 {
	base, ok := unitMaintenanceBase[typ]
	if !ok {
		base = defaultMaintenanceBase
	}
	return base * size / 100
}

// TaxAmount returns the property tax for one unit: unit value times the
// city rate. Unit value is size at 100 currency per point.
func TaxAmount(size, taxRate float64) float64 {
	return size * 100 * taxRate
}

// Ledger runs the finance phases over all companies.
type Ledger struct {
	store *store.Store
}

// NewLedger creates the finance subsystem.
func NewLedger(st *store.Store) *Ledger {
	return &Ledger{store: st}
}

// PaySalaries posts one salary transaction per company covering all of its
// employees for the turn.
func (f *Ledger) PaySalaries(ctx context.Context, turn int64) (float64, error) {
	companies, err := f.store.ListCompanies(ctx)
	if err != nil {
		return 0, fmt.Errorf("pay salaries: %w", err)
	}

	total := 0.0
	for _, company := range companies {
		bill, err := f.salaryBill(ctx, company.ID)
		if err != nil {
			slog.Error("salary calculation failed", "company", company.ID, "error", err)
			continue
		}
		if bill <= 0 {
			continue
		}

		if err := f.store.PostTransaction(ctx, world.Transaction{
			ID:             uuid.NewString(),
			CompanyID:      company.ID,
			Kind:           world.TxSalary,
			Amount:         -bill,
			Description:    "employee salaries",
			IdempotencyKey: fmt.Sprintf("salary:%s:%d", company.ID, turn),
			Turn:           turn,
		}); err != nil {
			return total, err
		}
		total += bill
		slog.Debug("salaries paid", "company", company.Name, "amount", humanize.Commaf(bill))
	}
	return total, nil
}

func (f *Ledger) salaryBill(ctx context.Context, companyID string) (float64, error) {
	units, err := f.store.ListUnits(ctx, companyID)
	if err != nil {
		return 0, err
	}
	bill := 0.0
	for _, u := range units {
		employees, err := f.store.ListEmployees(ctx, u.ID)
		if err != nil {
			return 0, err
		}
		for _, e := range employees {
			bill += float64(e.Count) * e.Salary
		}
	}
	return bill, nil
}

// PayMaintenance posts upkeep per unit. A company that cannot cover a
// unit's upkeep skips payment and the unit's condition degrades instead.
func (f *Ledger) PayMaintenance(ctx context.Context, turn int64) (float64, error) {
	companies, err := f.store.ListCompanies(ctx)
	if err != nil {
		return 0, fmt.Errorf("pay maintenance: %w", err)
	}

	total := 0.0
	for _, company := range companies {
		units, err := f.store.ListUnits(ctx, company.ID)
		if err != nil {
			slog.Error("maintenance listing failed", "company", company.ID, "error", err)
			continue
		}

		for _, u := range units {
			cost := MaintenanceCost(u.Type, u.Size)
			if cost <= 0 {
				continue
			}

			current, err := f.store.GetCompany(ctx, company.ID)
			if err != nil {
				return total, err
			}
			if current.Capital < cost {
				u.Condition = u.Condition - conditionDecay
				if u.Condition < 0 {
					u.Condition = 0
				}
				if err := f.store.UpdateUnit(ctx, u); err != nil {
					return total, err
				}
				slog.Warn("maintenance unpaid, condition degraded",
					"company", company.Name, "unit", u.Name, "condition", u.Condition)
				continue
			}

			if err := f.store.PostTransaction(ctx, world.Transaction{
				ID:             uuid.NewString(),
				CompanyID:      company.ID,
				Kind:           world.TxMaintenance,
				Amount:         -cost,
				Description:    fmt.Sprintf("maintenance for %s", u.Name),
				IdempotencyKey: fmt.Sprintf("maintenance:%s:%d", u.ID, turn),
				Turn:           turn,
			}); err != nil {
				return total, err
			}
			total += cost
		}
	}
	return total, nil
}

// CollectTaxes posts property tax per unit at the owning city's rate.
func (f *Ledger) CollectTaxes(ctx context.Context, turn int64) (float64, error) {
	units, err := f.store.ListAllUnits(ctx)
	if err != nil {
		return 0, fmt.Errorf("collect taxes: %w", err)
	}

	total := 0.0
	for _, u := range units {
		city, err := f.store.GetCity(ctx, u.CityID)
		if err != nil {
			slog.Error("tax city lookup failed", "unit", u.ID, "city", u.CityID, "error", err)
			continue
		}

		tax := TaxAmount(u.Size, city.TaxRate)
		if tax <= 0 {
			continue
		}

		if err := f.store.PostTransaction(ctx, world.Transaction{
			ID:             uuid.NewString(),
			CompanyID:      u.CompanyID,
			Kind:           world.TxTax,
			Amount:         -tax,
			Description:    fmt.Sprintf("property tax in %s", city.Name),
			IdempotencyKey: fmt.Sprintf("tax:%s:%d", u.ID, turn),
			Turn:           turn,
		}); err != nil {
			return total, err
		}
		total += tax
	}
	if total > 0 {
		slog.Info("taxes collected", "total", humanize.Commaf(total), "turn", turn)
	}
	return total, nil
}
