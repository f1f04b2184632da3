package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// ScheduleEvent queues a narrative event to fire at a future turn.
func (b *Bridge) ScheduleEvent(ctx context.Context, e world.ScheduledEvent) (world.ScheduledEvent, error) {
	turn, err := b.store.CurrentTurn(ctx)
	if err != nil {
		return world.ScheduledEvent{}, err
	}
	if e.TriggerTurn <= turn {
		return world.ScheduledEvent{}, fmt.Errorf("schedule: trigger turn %d not in the future: %w", e.TriggerTurn, world.ErrInvalidInput)
	}
	if e.Recurring && e.Interval <= 0 {
		return world.ScheduledEvent{}, fmt.Errorf("schedule: recurring event needs a positive interval: %w", world.ErrInvalidInput)
	}

	e.ID = ulid.Make().String()
	e.Processed = false
	if err := b.store.InsertScheduledEvent(ctx, e); err != nil {
		return world.ScheduledEvent{}, fmt.Errorf("schedule: %w", err)
	}
	return e, nil
}

// ProcessScheduled fires due scheduled events and expires finished world
// events. Recurring events reschedule themselves by their interval.
func (b *Bridge) ProcessScheduled(ctx context.Context, turn int64) (fired int, err error) {
	expired, err := b.store.ExpireWorldEvents(ctx, turn)
	if err != nil {
		return 0, fmt.Errorf("expire events: %w", err)
	}
	if expired > 0 {
		slog.Info("world events expired", "count", expired, "turn", turn)
	}

	due, err := b.store.ListDueScheduledEvents(ctx, turn)
	if err != nil {
		return 0, fmt.Errorf("scheduled events: %w", err)
	}

	for _, se := range due {
		we := world.WorldEvent{
			ID:         ulid.Make().String(),
			Category:   se.Category,
			Title:      se.Title,
			Importance: se.Importance,
			CityID:     se.CityID,
			StartTurn:  turn,
			EndTurn:    turn + se.Duration,
			Active:     true,
		}

		err := b.store.WithTx(ctx, func(ts *store.Store) error {
			if err := ts.InsertWorldEvent(ctx, we); err != nil {
				return err
			}
			if se.Recurring {
				se.TriggerTurn += se.Interval
			} else {
				se.Processed = true
			}
			return ts.UpdateScheduledEvent(ctx, se)
		})
		if err != nil {
			slog.Error("scheduled event failed", "event", se.ID, "error", err)
			continue
		}

		if err := b.ApplyNarrativeToMarket(ctx, we); err != nil {
			slog.Error("market effect application failed", "event", we.ID, "error", err)
		}
		if b.sink != nil {
			if err := b.sink.PublishWorldEvent(we); err != nil {
				slog.Warn("world event publish failed", "event", we.ID, "error", err)
			}
		}
		fired++
	}
	return fired, nil
}
