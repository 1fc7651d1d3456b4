// Package jobs runs the engine's periodic work on cron schedules. The
// scheduler is an explicit object with Start/Stop lifecycle and
// injected jobs, so each tick can be tested in isolation against fake
// stores. Every tick is an independent failure domain: errors and
// panics are caught and logged at the tick boundary, and the other
// schedules keep firing.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stockforumx/reputation-engine/internal/metrics"
)

// Cron schedules (standard five-field specs, UTC).
const (
	SpecEvaluation       = "*/15 * * * *" // evaluate due predictions
	SpecSnapshot         = "0 0 * * *"    // daily leaderboard capture
	SpecPriceWalk        = "*/5 * * * *"  // simulated price updates
	SpecManipulationScan = "0 * * * *"    // hourly pump/copy-paste scan
)

// Runner is one schedulable job. The tick timestamp is passed in so
// jobs are deterministic under test.
type Runner interface {
	Run(ctx context.Context, now time.Time) error
}

// Scheduler drives the registered jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates an empty scheduler on UTC.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
	}
}

// Add registers a job under a cron spec.
func (s *Scheduler) Add(name, spec string, job Runner) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runTick(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	slog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Start begins firing ticks in background goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop prevents new ticks and waits for running ones to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// runTick is the tick boundary: all failures terminate here.
func (s *Scheduler) runTick(name string, job Runner) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TickFailures.WithLabelValues(name).Inc()
			slog.Error("job tick panicked", "job", name, "panic", r)
		}
	}()

	start := time.Now()
	err := job.Run(context.Background(), start.UTC())
	metrics.TickDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TickFailures.WithLabelValues(name).Inc()
		slog.Error("job tick failed", "job", name, "err", err)
		return
	}
	slog.Debug("job tick complete", "job", name, "took", time.Since(start))
}
