// Package store provides SQLite-backed persistence for all world entities.
// It exposes plain get/list/insert/update operations plus transactions; no
// business rules live here.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/vorticog/internal/world"
)

// Store wraps a SQLite connection. A Store obtained from WithTx runs every
// operation inside that transaction.
type Store struct {
	conn *sqlx.DB
	ext  sqlx.ExtContext
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn, ext: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// WithTx runs fn with a transaction-bound Store. The transaction commits if
// fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Store) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		// Already inside a transaction; nest by reuse.
		return fn(s)
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{conn: s.conn, ext: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// notFound converts sql.ErrNoRows into the shared sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return world.ErrNotFound
	}
	return err
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS game_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_turn INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO game_state (id, current_turn) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT NOT NULL,
		tax_rate REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		base_price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city_id TEXT NOT NULL,
		capital REAL NOT NULL,
		assets REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS business_units (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		city_id TEXT NOT NULL,
		unit_type TEXT NOT NULL,
		name TEXT NOT NULL,
		size REAL NOT NULL,
		condition REAL NOT NULL,
		equipment_condition REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		role TEXT NOT NULL,
		count INTEGER NOT NULL,
		salary REAL NOT NULL,
		qualification REAL NOT NULL,
		bonus_eligible INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS inventories (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		quantity REAL NOT NULL,
		quality REAL NOT NULL,
		UNIQUE (unit_id, resource_id)
	);

	CREATE TABLE IF NOT EXISTS warehouses (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL UNIQUE,
		capacity REAL NOT NULL,
		inbound_count INTEGER NOT NULL DEFAULT 0,
		outbound_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS market_listings (
		id TEXT PRIMARY KEY,
		city_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		quantity REAL NOT NULL,
		price_per_unit REAL NOT NULL,
		quality REAL NOT NULL,
		price_modifier REAL NOT NULL DEFAULT 0,
		demand_modifier REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount REAL NOT NULL,
		description TEXT NOT NULL,
		idempotency_key TEXT NOT NULL UNIQUE,
		turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		output_resource_id TEXT NOT NULL,
		output_quantity REAL NOT NULL,
		time_required REAL NOT NULL,
		labor_required INTEGER NOT NULL,
		required_tech_id TEXT NOT NULL DEFAULT '',
		inputs_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS production_orders (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		recipe_id TEXT NOT NULL,
		progress REAL NOT NULL,
		input_quality REAL NOT NULL,
		started_turn INTEGER NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		from_city_id TEXT NOT NULL,
		to_city_id TEXT NOT NULL,
		distance REAL NOT NULL,
		base_rate REAL NOT NULL,
		reliability REAL NOT NULL,
		transit_turns INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shipments (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		from_unit_id TEXT NOT NULL,
		to_unit_id TEXT NOT NULL,
		route_id TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL,
		quantity REAL NOT NULL,
		quality REAL NOT NULL,
		cost REAL NOT NULL,
		status TEXT NOT NULL,
		contract_id TEXT NOT NULL DEFAULT '',
		created_turn INTEGER NOT NULL,
		due_turn INTEGER NOT NULL,
		delay_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		seller_id TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		proposer_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		frequency TEXT NOT NULL,
		penalty_pct REAL NOT NULL,
		breach_count INTEGER NOT NULL DEFAULT 0,
		start_turn INTEGER NOT NULL DEFAULT 0,
		end_turn INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS contract_items (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		total_quantity REAL NOT NULL,
		delivered_quantity REAL NOT NULL DEFAULT 0,
		per_delivery REAL NOT NULL,
		price_per_unit REAL NOT NULL,
		min_quality REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contract_deliveries (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		shipment_id TEXT NOT NULL DEFAULT '',
		quantity REAL NOT NULL,
		quality REAL NOT NULL,
		result TEXT NOT NULL,
		penalty REAL NOT NULL DEFAULT 0,
		turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		agent_type TEXT NOT NULL,
		company_id TEXT NOT NULL DEFAULT '',
		city_id TEXT NOT NULL DEFAULT '',
		openness REAL NOT NULL,
		conscientiousness REAL NOT NULL,
		extraversion REAL NOT NULL,
		agreeableness REAL NOT NULL,
		neuroticism REAL NOT NULL,
		risk_tolerance REAL NOT NULL,
		impulsiveness REAL NOT NULL,
		happiness REAL NOT NULL,
		stress REAL NOT NULL,
		trust REAL NOT NULL,
		overall_mood REAL NOT NULL,
		motivations_json TEXT NOT NULL DEFAULT '[]',
		memories_json TEXT NOT NULL DEFAULT '[]',
		relationships_json TEXT NOT NULL DEFAULT '[]',
		created_turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		context TEXT NOT NULL,
		options_json TEXT NOT NULL,
		chosen_id TEXT NOT NULL,
		score REAL NOT NULL,
		breakdown_json TEXT NOT NULL DEFAULT '{}',
		confidence REAL NOT NULL,
		reasoning TEXT NOT NULL,
		status TEXT NOT NULL,
		turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS technologies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		cost REAL NOT NULL,
		prerequisites_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS company_technologies (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		technology_id TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		started_turn INTEGER NOT NULL,
		UNIQUE (company_id, technology_id)
	);

	CREATE TABLE IF NOT EXISTS quality_standards (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		category TEXT NOT NULL,
		min_acceptable REAL NOT NULL,
		target_quality REAL NOT NULL,
		frequency TEXT NOT NULL,
		rigor REAL NOT NULL,
		bonus_enabled INTEGER NOT NULL DEFAULT 0,
		UNIQUE (company_id, category)
	);

	CREATE TABLE IF NOT EXISTS quality_inspections (
		id TEXT PRIMARY KEY,
		standard_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		sample_size REAL NOT NULL,
		measured_quality REAL NOT NULL,
		actual_quality REAL NOT NULL,
		passed INTEGER NOT NULL,
		detected INTEGER NOT NULL,
		bonus_awarded INTEGER NOT NULL DEFAULT 0,
		turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS business_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		company_id TEXT NOT NULL,
		city_id TEXT NOT NULL DEFAULT '',
		magnitude REAL NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_events (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		importance REAL NOT NULL,
		city_id TEXT NOT NULL DEFAULT '',
		start_turn INTEGER NOT NULL,
		end_turn INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS event_propagations (
		id TEXT PRIMARY KEY,
		source_event_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		result_event_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		UNIQUE (source_event_id, direction)
	);

	CREATE TABLE IF NOT EXISTS scheduled_events (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		importance REAL NOT NULL,
		city_id TEXT NOT NULL DEFAULT '',
		trigger_turn INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0,
		interval INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS turn_log (
		id TEXT PRIMARY KEY,
		turn INTEGER NOT NULL,
		phase TEXT NOT NULL,
		status TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_units_company ON business_units(company_id);
	CREATE INDEX IF NOT EXISTS idx_inventories_unit ON inventories(unit_id);
	CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status);
	CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts(status);
	CREATE INDEX IF NOT EXISTS idx_decisions_agent ON decisions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_world_events_active ON world_events(active);
	CREATE INDEX IF NOT EXISTS idx_turn_log_turn ON turn_log(turn);
	CREATE INDEX IF NOT EXISTS idx_transactions_company ON transactions(company_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// CurrentTurn returns the turn counter.
func (s *Store) CurrentTurn(ctx context.Context) (int64, error) {
	var turn int64
	err := sqlx.GetContext(ctx, s.ext, &turn, "SELECT current_turn FROM game_state WHERE id = 1")
	if err != nil {
		return 0, fmt.Errorf("current turn: %w", err)
	}
	return turn, nil
}

// AdvanceTurn increments the turn counter by one and returns the new value.
func (s *Store) AdvanceTurn(ctx context.Context) (int64, error) {
	_, err := s.ext.ExecContext(ctx, "UPDATE game_state SET current_turn = current_turn + 1 WHERE id = 1")
	if err != nil {
		return 0, fmt.Errorf("advance turn: %w", err)
	}
	return s.CurrentTurn(ctx)
}
