// Package source implements the job-listing collaborators. Sources absorb
// their own transport failures: a broken page or request yields a partial or
// empty batch plus a log line, never an error in the pipeline. The only
// errors that escape Fetch and Build are context cancellation and missing
// mandatory listing fields.
package source

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/freese/jobradar/internal/config"
	"github.com/freese/jobradar/internal/model"
)

// Source fetches normalized listings for a search profile and builds full
// listing records from them.
type Source interface {
	Name() string
	Fetch(ctx context.Context, profile config.SearchProfile) ([]model.RawListing, error)
	// Build constructs the full listing record from a normalized raw
	// listing, fetching detail text where the source requires it. A missing
	// mandatory field yields an error and no record.
	Build(ctx context.Context, raw model.RawListing) (*model.Listing, error)
}

const requestTimeout = 10 * time.Second

func newClient() *resty.Client {
	return resty.New().
		SetTimeout(requestTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
}

func newLimiter(minDelay time.Duration) *rate.Limiter {
	if minDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minDelay), 1)
}
