// Package scheduler repeats the update cycle on a fixed interval.
// The first cycle runs immediately; later cycles tick at the interval the
// schedule mode names. A failed cycle is logged and the schedule keeps
// going - a flaky network must not stop a long-running updater.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/status"
)

// Task is one update cycle
type Task func(ctx context.Context) error

// Interval maps a schedule mode to its repeat interval. Mode "once" maps
// to zero, meaning no repetition.
func Interval(mode string) (time.Duration, error) {
	switch mode {
	case "once":
		return 0, nil
	case "min":
		return time.Minute, nil
	case "hourly":
		return time.Hour, nil
	case "daily":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown schedule mode %q", mode)
	}
}

// Scheduler runs a task on a fixed interval with a bounded run count
type Scheduler struct {
	interval time.Duration
	runs     int // 0 = run forever
}

// New creates a scheduler for the given mode and total run count
func New(mode string, runs int) (*Scheduler, error) {
	interval, err := Interval(mode)
	if err != nil {
		return nil, err
	}
	if runs < 0 {
		return nil, fmt.Errorf("run count must be >= 0, got %d", runs)
	}
	return &Scheduler{interval: interval, runs: runs}, nil
}

// Run executes the task per the schedule. The first execution is
// immediate and its error is returned directly for one-shot schedules;
// on repeating schedules cycle errors are logged and swallowed. Run
// returns when the run count is exhausted or the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, task Task) error {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "scheduler.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("interval", s.interval.String()),
		attribute.Int("runs", s.runs),
	)

	err := task(ctx)
	if s.interval == 0 {
		return err
	}
	if err != nil {
		span.RecordError(err)
		slog.Error("Update cycle failed", "error", err)
	}

	completed := 1
	if s.runs != 0 && completed >= s.runs {
		return nil
	}

	status.Send(ctx, status.NewUpdate(status.LevelInfo, "Next update scheduled").
		WithResource("schedule").
		WithAction("waiting").
		WithMetadata("interval", s.interval.String()))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := task(ctx); err != nil {
				span.RecordError(err)
				slog.Error("Update cycle failed", "error", err)
			}
			completed++
			if s.runs != 0 && completed >= s.runs {
				span.SetAttributes(attribute.Int("completed", completed))
				return nil
			}
		}
	}
}
