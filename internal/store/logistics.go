package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/vorticog/internal/world"
)

func (s *Store) GetRoute(ctx context.Context, id string) (world.SupplyRoute, error) {
	var r world.SupplyRoute
	err := sqlx.GetContext(ctx, s.ext, &r, "SELECT * FROM routes WHERE id = ?", id)
	return r, notFound(err)
}

// FindRoute returns the route between two cities, in either direction.
func (s *Store) FindRoute(ctx context.Context, fromCityID, toCityID string) (world.SupplyRoute, error) {
	var r world.SupplyRoute
	err := sqlx.GetContext(ctx, s.ext, &r,
		`SELECT * FROM routes WHERE (from_city_id = ? AND to_city_id = ?)
		 OR (from_city_id = ? AND to_city_id = ?) LIMIT 1`,
		fromCityID, toCityID, toCityID, fromCityID)
	return r, notFound(err)
}

func (s *Store) ListRoutes(ctx context.Context) ([]world.SupplyRoute, error) {
	var out []world.SupplyRoute
	err := sqlx.SelectContext(ctx, s.ext, &out, "SELECT * FROM routes ORDER BY id")
	return out, err
}

func (s *Store) InsertRoute(ctx context.Context, r world.SupplyRoute) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO routes
		(id, from_city_id, to_city_id, distance, base_rate, reliability, transit_turns)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FromCityID, r.ToCityID, r.Distance, r.BaseRate, r.Reliability, r.TransitTurns)
	return err
}

func (s *Store) GetShipment(ctx context.Context, id string) (world.Shipment, error) {
	var sh world.Shipment
	err := sqlx.GetContext(ctx, s.ext, &sh, "SELECT * FROM shipments WHERE id = ?", id)
	return sh, notFound(err)
}

// ListShipmentsDue returns non-terminal shipments whose due turn has arrived.
func (s *Store) ListShipmentsDue(ctx context.Context, turn int64) ([]world.Shipment, error) {
	var out []world.Shipment
	err := sqlx.SelectContext(ctx, s.ext, &out,
		`SELECT * FROM shipments WHERE status IN (?, ?) AND due_turn <= ? ORDER BY id`,
		world.ShipmentInTransit, world.ShipmentDelayed, turn)
	return out, err
}

func (s *Store) ListShipments(ctx context.Context, companyID string) ([]world.Shipment, error) {
	var out []world.Shipment
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM shipments WHERE company_id = ? ORDER BY created_turn, id", companyID)
	return out, err
}

// ListContractShipments returns all shipments dispatched under a contract.
func (s *Store) ListContractShipments(ctx context.Context, contractID string) ([]world.Shipment, error) {
	var out []world.Shipment
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM shipments WHERE contract_id = ? ORDER BY created_turn, id", contractID)
	return out, err
}

func (s *Store) InsertShipment(ctx context.Context, sh world.Shipment) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO shipments
		(id, company_id, from_unit_id, to_unit_id, route_id, resource_id, quantity, quality,
		 cost, status, contract_id, created_turn, due_turn, delay_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.CompanyID, sh.FromUnitID, sh.ToUnitID, sh.RouteID, sh.ResourceID,
		sh.Quantity, sh.Quality, sh.Cost, sh.Status, sh.ContractID,
		sh.CreatedTurn, sh.DueTurn, sh.DelayCount)
	return err
}

func (s *Store) UpdateShipment(ctx context.Context, sh world.Shipment) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE shipments SET status = ?, due_turn = ?, delay_count = ? WHERE id = ?",
		sh.Status, sh.DueTurn, sh.DelayCount, sh.ID)
	return err
}

func (s *Store) GetRecipe(ctx context.Context, id string) (world.ProductionRecipe, error) {
	row := struct {
		world.ProductionRecipe
		InputsJSON string `db:"inputs_json"`
	}{}
	err := sqlx.GetContext(ctx, s.ext, &row, "SELECT * FROM recipes WHERE id = ?", id)
	if err != nil {
		return world.ProductionRecipe{}, notFound(err)
	}
	r := row.ProductionRecipe
	if err := json.Unmarshal([]byte(row.InputsJSON), &r.Inputs); err != nil {
		return world.ProductionRecipe{}, fmt.Errorf("recipe %s inputs: %w", id, err)
	}
	return r, nil
}

func (s *Store) InsertRecipe(ctx context.Context, r world.ProductionRecipe) error {
	inputs, err := json.Marshal(r.Inputs)
	if err != nil {
		return err
	}
	_, err = s.ext.ExecContext(ctx, `INSERT INTO recipes
		(id, name, output_resource_id, output_quantity, time_required, labor_required, required_tech_id, inputs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.OutputResourceID, r.OutputQuantity, r.TimeRequired,
		r.LaborRequired, r.RequiredTechID, string(inputs))
	return err
}

func (s *Store) GetOrder(ctx context.Context, id string) (world.ProductionOrder, error) {
	var o world.ProductionOrder
	err := sqlx.GetContext(ctx, s.ext, &o, "SELECT * FROM production_orders WHERE id = ?", id)
	return o, notFound(err)
}

// ListOpenOrders returns incomplete production orders across all units.
func (s *Store) ListOpenOrders(ctx context.Context) ([]world.ProductionOrder, error) {
	var out []world.ProductionOrder
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM production_orders WHERE completed = 0 ORDER BY started_turn, id")
	return out, err
}

func (s *Store) InsertOrder(ctx context.Context, o world.ProductionOrder) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO production_orders
		(id, unit_id, recipe_id, progress, input_quality, started_turn, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UnitID, o.RecipeID, o.Progress, o.InputQuality, o.StartedTurn, o.Completed)
	return err
}

func (s *Store) UpdateOrder(ctx context.Context, o world.ProductionOrder) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE production_orders SET progress = ?, completed = ? WHERE id = ?",
		o.Progress, o.Completed, o.ID)
	return err
}
