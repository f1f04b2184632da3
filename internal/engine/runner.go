package engine

import (
	"context"
	"log/slog"
	"time"
)

// Runner auto-advances turns on a fixed interval. Speed is a multiplier:
// 1.0 processes one turn per interval, 0 pauses.
type Runner struct {
	processor *Processor
	Interval  time.Duration
	Speed     float64

	stop chan struct{}
}

// NewRunner creates a paused-capable turn runner.
func NewRunner(p *Processor, interval time.Duration) *Runner {
	return &Runner{
		processor: p,
		Interval:  interval,
		Speed:     1.0,
		stop:      make(chan struct{}),
	}
}

// Run drives the turn loop until Stop is called or the context ends.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("turn runner started", "interval", r.Interval, "speed", r.Speed)

	for {
		select {
		case <-ctx.Done():
			slog.Info("turn runner stopped", "reason", ctx.Err())
			return
		case <-r.stop:
			slog.Info("turn runner stopped")
			return
		default:
		}

		if r.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		if _, err := r.processor.ProcessTurn(ctx); err != nil {
			slog.Error("turn processing failed", "error", err)
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / r.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// Stop halts the loop after the current turn.
func (r *Runner) Stop() {
	close(r.stop)
}
