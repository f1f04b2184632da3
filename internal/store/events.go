package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/vorticog/internal/world"
)

func (s *Store) GetBusinessEvent(ctx context.Context, id string) (world.BusinessEvent, error) {
	var e world.BusinessEvent
	err := sqlx.GetContext(ctx, s.ext, &e, "SELECT * FROM business_events WHERE id = ?", id)
	return e, notFound(err)
}

func (s *Store) InsertBusinessEvent(ctx context.Context, e world.BusinessEvent) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO business_events
		(id, event_type, company_id, city_id, magnitude, details, turn)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, e.CompanyID, e.CityID, e.Magnitude, e.Details, e.Turn)
	return err
}

func (s *Store) GetWorldEvent(ctx context.Context, id string) (world.WorldEvent, error) {
	var e world.WorldEvent
	err := sqlx.GetContext(ctx, s.ext, &e, "SELECT * FROM world_events WHERE id = ?", id)
	return e, notFound(err)
}

// ListActiveEvents returns active world events, optionally scoped to a city.
func (s *Store) ListActiveEvents(ctx context.Context, cityID string) ([]world.WorldEvent, error) {
	var out []world.WorldEvent
	if cityID == "" {
		err := sqlx.SelectContext(ctx, s.ext, &out,
			"SELECT * FROM world_events WHERE active = 1 ORDER BY start_turn, id")
		return out, err
	}
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM world_events WHERE active = 1 AND city_id = ? ORDER BY start_turn, id", cityID)
	return out, err
}

func (s *Store) InsertWorldEvent(ctx context.Context, e world.WorldEvent) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO world_events
		(id, category, title, importance, city_id, start_turn, end_turn, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Category, e.Title, e.Importance, e.CityID, e.StartTurn, e.EndTurn, e.Active)
	return err
}

// ExpireWorldEvents deactivates events whose end turn has passed and
// returns how many were expired.
func (s *Store) ExpireWorldEvents(ctx context.Context, turn int64) (int64, error) {
	res, err := s.ext.ExecContext(ctx,
		"UPDATE world_events SET active = 0 WHERE active = 1 AND end_turn > 0 AND end_turn <= ?", turn)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertPropagation records a bridge crossing. Returns false without error
// when the source event was already propagated in that direction.
func (s *Store) InsertPropagation(ctx context.Context, p world.EventPropagation) (bool, error) {
	res, err := s.ext.ExecContext(ctx, `INSERT OR IGNORE INTO event_propagations
		(id, source_event_id, direction, result_event_id, turn)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.SourceEventID, p.Direction, p.ResultEventID, p.Turn)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) ListPropagations(ctx context.Context, sourceEventID string) ([]world.EventPropagation, error) {
	var out []world.EventPropagation
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM event_propagations WHERE source_event_id = ? ORDER BY id", sourceEventID)
	return out, err
}

func (s *Store) InsertScheduledEvent(ctx context.Context, e world.ScheduledEvent) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO scheduled_events
		(id, category, title, importance, city_id, trigger_turn, duration, recurring, interval, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Category, e.Title, e.Importance, e.CityID, e.TriggerTurn,
		e.Duration, e.Recurring, e.Interval, e.Processed)
	return err
}

// ListDueScheduledEvents returns unprocessed events whose trigger turn has
// arrived.
func (s *Store) ListDueScheduledEvents(ctx context.Context, turn int64) ([]world.ScheduledEvent, error) {
	var out []world.ScheduledEvent
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM scheduled_events WHERE processed = 0 AND trigger_turn <= ? ORDER BY trigger_turn, id", turn)
	return out, err
}

func (s *Store) UpdateScheduledEvent(ctx context.Context, e world.ScheduledEvent) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE scheduled_events SET trigger_turn = ?, processed = ? WHERE id = ?",
		e.TriggerTurn, e.Processed, e.ID)
	return err
}

func (s *Store) AppendTurnLog(ctx context.Context, e world.TurnLogEntry) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO turn_log (id, turn, phase, status, detail) VALUES (?, ?, ?, ?, ?)",
		e.ID, e.Turn, e.Phase, e.Status, e.Detail)
	return err
}

func (s *Store) ListTurnLog(ctx context.Context, turn int64) ([]world.TurnLogEntry, error) {
	var out []world.TurnLogEntry
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM turn_log WHERE turn = ? ORDER BY id", turn)
	return out, err
}
