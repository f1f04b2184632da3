package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/vorticog/internal/world"
)

func (s *Store) GetCity(ctx context.Context, id string) (world.City, error) {
	var c world.City
	err := sqlx.GetContext(ctx, s.ext, &c, "SELECT * FROM cities WHERE id = ?", id)
	return c, notFound(err)
}

func (s *Store) ListCities(ctx context.Context) ([]world.City, error) {
	var out []world.City
	err := sqlx.SelectContext(ctx, s.ext, &out, "SELECT * FROM cities ORDER BY id")
	return out, err
}

func (s *Store) InsertCity(ctx context.Context, c world.City) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO cities (id, name, region, tax_rate) VALUES (?, ?, ?, ?)",
		c.ID, c.Name, c.Region, c.TaxRate)
	return err
}

func (s *Store) GetResource(ctx context.Context, id string) (world.ResourceType, error) {
	var r world.ResourceType
	err := sqlx.GetContext(ctx, s.ext, &r, "SELECT * FROM resources WHERE id = ?", id)
	return r, notFound(err)
}

func (s *Store) ListResources(ctx context.Context) ([]world.ResourceType, error) {
	var out []world.ResourceType
	err := sqlx.SelectContext(ctx, s.ext, &out, "SELECT * FROM resources ORDER BY id")
	return out, err
}

func (s *Store) InsertResource(ctx context.Context, r world.ResourceType) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO resources (id, name, category, base_price) VALUES (?, ?, ?, ?)",
		r.ID, r.Name, r.Category, r.BasePrice)
	return err
}

func (s *Store) GetCompany(ctx context.Context, id string) (world.Company, error) {
	var c world.Company
	err := sqlx.GetContext(ctx, s.ext, &c, "SELECT * FROM companies WHERE id = ?", id)
	return c, notFound(err)
}

func (s *Store) ListCompanies(ctx context.Context) ([]world.Company, error) {
	var out []world.Company
	err := sqlx.SelectContext(ctx, s.ext, &out, "SELECT * FROM companies ORDER BY id")
	return out, err
}

func (s *Store) InsertCompany(ctx context.Context, c world.Company) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO companies (id, name, city_id, capital, assets) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Name, c.CityID, c.Capital, c.Assets)
	return err
}

func (s *Store) UpdateCompany(ctx context.Context, c world.Company) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE companies SET name = ?, city_id = ?, capital = ?, assets = ? WHERE id = ?",
		c.Name, c.CityID, c.Capital, c.Assets, c.ID)
	return err
}

func (s *Store) GetUnit(ctx context.Context, id string) (world.BusinessUnit, error) {
	var u world.BusinessUnit
	err := sqlx.GetContext(ctx, s.ext, &u, "SELECT * FROM business_units WHERE id = ?", id)
	return u, notFound(err)
}

func (s *Store) ListUnits(ctx context.Context, companyID string) ([]world.BusinessUnit, error) {
	var out []world.BusinessUnit
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM business_units WHERE company_id = ? ORDER BY id", companyID)
	return out, err
}

func (s *Store) ListAllUnits(ctx context.Context) ([]world.BusinessUnit, error) {
	var out []world.BusinessUnit
	err := sqlx.SelectContext(ctx, s.ext, &out, "SELECT * FROM business_units ORDER BY id")
	return out, err
}

func (s *Store) InsertUnit(ctx context.Context, u world.BusinessUnit) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO business_units
		(id, company_id, city_id, unit_type, name, size, condition, equipment_condition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, u.CityID, u.Type, u.Name, u.Size, u.Condition, u.EquipmentCond)
	return err
}

func (s *Store) UpdateUnit(ctx context.Context, u world.BusinessUnit) error {
	_, err := s.ext.ExecContext(ctx, `UPDATE business_units SET
		company_id = ?, city_id = ?, unit_type = ?, name = ?, size = ?,
		condition = ?, equipment_condition = ? WHERE id = ?`,
		u.CompanyID, u.CityID, u.Type, u.Name, u.Size, u.Condition, u.EquipmentCond, u.ID)
	return err
}

func (s *Store) ListEmployees(ctx context.Context, unitID string) ([]world.Employee, error) {
	var out []world.Employee
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM employees WHERE unit_id = ? ORDER BY id", unitID)
	return out, err
}

func (s *Store) InsertEmployee(ctx context.Context, e world.Employee) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO employees
		(id, unit_id, role, count, salary, qualification, bonus_eligible)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UnitID, e.Role, e.Count, e.Salary, e.Qualification, e.BonusEligible)
	return err
}

func (s *Store) UpdateEmployee(ctx context.Context, e world.Employee) error {
	_, err := s.ext.ExecContext(ctx, `UPDATE employees SET
		unit_id = ?, role = ?, count = ?, salary = ?, qualification = ?, bonus_eligible = ?
		WHERE id = ?`,
		e.UnitID, e.Role, e.Count, e.Salary, e.Qualification, e.BonusEligible, e.ID)
	return err
}

// GetInventory returns the stack for one resource at one unit.
func (s *Store) GetInventory(ctx context.Context, unitID, resourceID string) (world.Inventory, error) {
	var inv world.Inventory
	err := sqlx.GetContext(ctx, s.ext, &inv,
		"SELECT * FROM inventories WHERE unit_id = ? AND resource_id = ?", unitID, resourceID)
	return inv, notFound(err)
}

func (s *Store) ListInventory(ctx context.Context, unitID string) ([]world.Inventory, error) {
	var out []world.Inventory
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM inventories WHERE unit_id = ? ORDER BY resource_id", unitID)
	return out, err
}

func (s *Store) UpsertInventory(ctx context.Context, inv world.Inventory) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO inventories
		(id, unit_id, resource_id, quantity, quality) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (unit_id, resource_id)
		DO UPDATE SET quantity = excluded.quantity, quality = excluded.quality`,
		inv.ID, inv.UnitID, inv.ResourceID, inv.Quantity, inv.Quality)
	return err
}

func (s *Store) GetWarehouse(ctx context.Context, unitID string) (world.Warehouse, error) {
	var w world.Warehouse
	err := sqlx.GetContext(ctx, s.ext, &w, "SELECT * FROM warehouses WHERE unit_id = ?", unitID)
	return w, notFound(err)
}

func (s *Store) InsertWarehouse(ctx context.Context, w world.Warehouse) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO warehouses (id, unit_id, capacity, inbound_count, outbound_count) VALUES (?, ?, ?, ?, ?)",
		w.ID, w.UnitID, w.Capacity, w.InboundCount, w.OutboundCount)
	return err
}

// BumpWarehouse increments flow counters for reconciliation. Either delta
// may be zero.
func (s *Store) BumpWarehouse(ctx context.Context, unitID string, inbound, outbound int64) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE warehouses SET inbound_count = inbound_count + ?, outbound_count = outbound_count + ? WHERE unit_id = ?",
		inbound, outbound, unitID)
	return err
}

func (s *Store) GetListing(ctx context.Context, id string) (world.MarketListing, error) {
	var l world.MarketListing
	err := sqlx.GetContext(ctx, s.ext, &l, "SELECT * FROM market_listings WHERE id = ?", id)
	return l, notFound(err)
}

func (s *Store) ListListings(ctx context.Context, cityID string) ([]world.MarketListing, error) {
	var out []world.MarketListing
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM market_listings WHERE city_id = ? ORDER BY id", cityID)
	return out, err
}

func (s *Store) InsertListing(ctx context.Context, l world.MarketListing) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO market_listings
		(id, city_id, company_id, resource_id, quantity, price_per_unit, quality, price_modifier, demand_modifier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CityID, l.CompanyID, l.ResourceID, l.Quantity, l.PricePerUnit, l.Quality,
		l.PriceModifier, l.DemandModifier)
	return err
}

// ShiftListingModifiers adds deltas to the accumulated narrative modifiers
// of every listing in a city.
func (s *Store) ShiftListingModifiers(ctx context.Context, cityID string, priceDelta, demandDelta float64) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE market_listings SET price_modifier = price_modifier + ?, demand_modifier = demand_modifier + ? WHERE city_id = ?",
		priceDelta, demandDelta, cityID)
	return err
}

// PostTransaction appends a ledger entry and applies its amount to the
// company capital. A duplicate idempotency key is a silent no-op.
func (s *Store) PostTransaction(ctx context.Context, tx world.Transaction) error {
	return s.WithTx(ctx, func(ts *Store) error {
		res, err := ts.ext.ExecContext(ctx, `INSERT OR IGNORE INTO transactions
			(id, company_id, kind, amount, description, idempotency_key, turn)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, tx.CompanyID, tx.Kind, tx.Amount, tx.Description, tx.IdempotencyKey, tx.Turn)
		if err != nil {
			return fmt.Errorf("post transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		_, err = ts.ext.ExecContext(ctx,
			"UPDATE companies SET capital = capital + ? WHERE id = ?", tx.Amount, tx.CompanyID)
		return err
	})
}

func (s *Store) ListTransactions(ctx context.Context, companyID string, kinds ...world.TransactionKind) ([]world.Transaction, error) {
	query := "SELECT * FROM transactions WHERE company_id = ?"
	args := []any{companyID}
	if len(kinds) > 0 {
		ph := make([]string, len(kinds))
		for i, k := range kinds {
			ph[i] = "?"
			args = append(args, k)
		}
		query += " AND kind IN (" + strings.Join(ph, ", ") + ")"
	}
	query += " ORDER BY turn, id"

	var out []world.Transaction
	err := sqlx.SelectContext(ctx, s.ext, &out, query, args...)
	return out, err
}
