// Package pipeline drives one ingestion cycle per (candidate, search
// profile) pair: fetch, reconcile, presumably-filled sweep, run record.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/freese/jobradar/internal/config"
	"github.com/freese/jobradar/internal/model"
	"github.com/freese/jobradar/internal/reconcile"
	"github.com/freese/jobradar/internal/source"
)

// Store is everything one ingestion cycle needs from persistence.
type Store interface {
	model.ListingStore
	MarkPresumablyFilled(searchProfile string, seen map[string]struct{}) (int, error)
	StartRun(source, searchProfile string) (int64, error)
	FinishRun(id int64, counts model.RunCounts, status model.RunStatus, errMsg string) error
}

// Runner owns the full pipeline for all configured profiles. Everything runs
// sequentially: one profile cycle at a time, one source at a time, one
// listing at a time.
type Runner struct {
	store    Store
	sources  []source.Source
	analyzer model.Analyzer
	logger   *slog.Logger
}

// NewRunner creates a runner wired with all its dependencies.
func NewRunner(store Store, sources []source.Source, analyzer model.Analyzer, logger *slog.Logger) *Runner {
	return &Runner{
		store:    store,
		sources:  sources,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Run executes one cycle for every enabled (candidate, search profile)
// pair. A failed cycle is recorded on its run record and does not stop the
// remaining cycles; only context cancellation does.
func (r *Runner) Run(ctx context.Context, candidates []config.CandidateProfile) error {
	for _, cand := range candidates {
		for _, prof := range cand.SearchProfiles {
			if !prof.Enabled {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := r.RunProfile(ctx, cand, prof); err != nil {
				r.logger.Error("profile cycle failed",
					"candidate", cand.Name,
					"profile", prof.Name,
					"error", err,
				)
			}
		}
	}
	return nil
}

// RunProfile runs one full cycle for a single (candidate, search profile)
// pair. Exactly one run record is started and finished, success or error.
func (r *Runner) RunProfile(ctx context.Context, cand config.CandidateProfile, prof config.SearchProfile) error {
	profileKey := cand.Name + "_" + prof.Name
	r.logger.Info("=== profile cycle ===", "profile", profileKey)

	runID, err := r.store.StartRun("all", profileKey)
	if err != nil {
		return err
	}

	engine := reconcile.New(r.store, r.analyzer, r.logger)

	var totals model.RunCounts
	seen := make(map[string]struct{})

	for _, src := range r.sources {
		raws, err := src.Fetch(ctx, prof)
		if err != nil {
			return r.finishError(runID, totals, err)
		}
		r.logger.Info("source fetched", "source", src.Name(), "listings", len(raws))

		// Everything the source returned counts as seen, including listings
		// the filters will reject: filtered-out is not the same as vanished.
		for _, raw := range raws {
			if raw.ExternalID != "" {
				seen[raw.ExternalID] = struct{}{}
			}
		}

		counts, err := engine.ProcessBatch(ctx, src, raws, cand, prof, profileKey)
		totals.Add(counts)
		if err != nil {
			return r.finishError(runID, totals, err)
		}

		r.logger.Info("source reconciled",
			"profile", profileKey,
			"source", src.Name(),
			"new", counts.New,
			"updated", counts.Updated,
			"skipped", counts.Skipped,
			"failed", counts.Failed,
		)
	}

	filled, err := r.store.MarkPresumablyFilled(profileKey, seen)
	if err != nil {
		return r.finishError(runID, totals, err)
	}
	if filled > 0 {
		r.logger.Info("marked presumably filled", "profile", profileKey, "count", filled)
	}

	r.logger.Info("cycle totals",
		"profile", profileKey,
		"fetched", totals.Fetched,
		"new", totals.New,
		"updated", totals.Updated,
		"skipped", totals.Skipped,
		"failed", totals.Failed,
	)

	return r.store.FinishRun(runID, totals, model.RunSuccess, "")
}

// finishError records the cycle failure on the run record and passes the
// original error through. A failing finish is logged but does not mask the
// cycle error.
func (r *Runner) finishError(runID int64, counts model.RunCounts, cause error) error {
	if err := r.store.FinishRun(runID, counts, model.RunError, cause.Error()); err != nil {
		r.logger.Error("finishing failed run record", "run_id", runID, "error", err)
	}
	return cause
}
