// Package scheduler wires up the cron job that periodically triggers a full
// pipeline cycle in daemon mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron around a single pipeline trigger.
type Scheduler struct {
	cron   *cron.Cron
	spec   string // cron spec, e.g. "@every 6h" or "0 7 * * *"
	runAll func(ctx context.Context)
	logger *slog.Logger
}

// New creates a scheduler that invokes runAll on the given cron spec.
func New(spec string, runAll func(ctx context.Context), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		runAll: runAll,
		logger: logger,
	}
}

// Run executes one immediate cycle, then ticks on the cron spec until ctx is
// cancelled. Cycles never overlap: the trigger runs inline on the cron
// goroutine and the pipeline itself is sequential.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "spec", s.spec)

	s.runAll(ctx)

	_, err := s.cron.AddFunc(s.spec, func() {
		if ctx.Err() != nil {
			return
		}
		s.runAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	stopped := s.cron.Stop()
	<-stopped.Done()
	return nil
}
