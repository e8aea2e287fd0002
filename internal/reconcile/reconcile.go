// Package reconcile decides, per incoming listing, whether it is new,
// changed, unchanged, or filtered out, and writes the decision through the
// listing store.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/freese/jobradar/internal/config"
	"github.com/freese/jobradar/internal/match"
	"github.com/freese/jobradar/internal/model"
)

// Builder constructs a full listing record from a normalized raw listing.
// Sources implement this.
type Builder interface {
	Build(ctx context.Context, raw model.RawListing) (*model.Listing, error)
}

// Engine applies the incremental-ingestion state machine over one batch.
type Engine struct {
	store    model.ListingStore
	analyzer model.Analyzer
	logger   *slog.Logger
}

// New creates an engine wired with its collaborators.
func New(store model.ListingStore, analyzer model.Analyzer, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		analyzer: analyzer,
		logger:   logger,
	}
}

// ProcessBatch reconciles one source's batch for a (candidate, search
// profile) cycle. Per-listing failures are counted and skipped over; only
// store errors and context cancellation abort the batch. profileKey is the
// candidate-qualified profile tag stamped onto stored listings.
func (e *Engine) ProcessBatch(
	ctx context.Context,
	builder Builder,
	raws []model.RawListing,
	candidate config.CandidateProfile,
	profile config.SearchProfile,
	profileKey string,
) (model.RunCounts, error) {
	counts := model.RunCounts{Fetched: len(raws)}

	for _, raw := range raws {
		// Malformed upstream data: no identity, nothing to reconcile.
		if raw.ExternalID == "" {
			continue
		}

		stored, status, exists, err := e.store.ChangeToken(raw.ExternalID)
		if err != nil {
			return counts, err
		}
		// An equal token only means "nothing to do" while the listing is
		// active. A presumably-filled listing that reappears must take the
		// update path so its status returns to active, token or no token.
		if exists && stored == raw.ChangeToken && status == model.StatusActive {
			e.logger.Debug("skipped (unchanged)", "id", raw.ExternalID)
			counts.Skipped++
			continue
		}
		if exists {
			e.logger.Info("changed, re-enriching", "id", raw.ExternalID)
		}

		// Gate on the profile rules before spending a detail fetch or an
		// enrichment call. The source's explicit remote flag, when present,
		// stands in for the not-yet-run enrichment classification.
		remote := raw.Remote != nil && *raw.Remote
		if !match.Title(raw.Title, profile) || !match.Location(raw.Location, remote, profile) {
			counts.Skipped++
			continue
		}

		listing, err := builder.Build(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return counts, ctx.Err()
			}
			e.logger.Warn("building listing failed", "id", raw.ExternalID, "error", err)
			counts.Failed++
			continue
		}

		// Enrichment never fails; a degraded call leaves every enrichment
		// field absent while the raw fields are stored regardless.
		result := e.analyzer.Analyze(ctx, listing.RawText, candidate.ProfileText, profile.FitScoreContext)
		listing.Enrich(result)
		listing.SearchProfile = profileKey

		if exists {
			if err := e.store.Update(listing); err != nil {
				return counts, err
			}
			e.logger.Info("updated", "id", listing.ExternalID, "title", listing.Title)
			counts.Updated++
		} else {
			if err := e.store.Insert(listing); err != nil {
				return counts, err
			}
			e.logger.Info("stored new", "id", listing.ExternalID, "title", listing.Title)
			counts.New++
		}
	}

	return counts, nil
}
