package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/freese/jobradar/internal/config"
	"github.com/freese/jobradar/internal/model"
)

// anJob is one entry of the Arbeitnow job-board response.
type anJob struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Remote      bool   `json:"remote"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

type anResponse struct {
	Data []anJob `json:"data"`
}

// Arbeitnow fetches listings from the Arbeitnow job-board API. The API
// carries full descriptions in the list response and no change token, so a
// re-sighted listing compares as unchanged while it stays active.
type Arbeitnow struct {
	cfg     config.ArbeitnowConfig
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewArbeitnow creates the adapter.
func NewArbeitnow(cfg config.ArbeitnowConfig, logger *slog.Logger) *Arbeitnow {
	return &Arbeitnow{
		cfg:     cfg,
		client:  newClient(),
		limiter: newLimiter(cfg.MinDelay),
		logger:  logger,
	}
}

func (a *Arbeitnow) Name() string { return model.SourceArbeitnow }

// Fetch pages through the board up to the configured page limit, stopping
// early on an empty page. Failed pages yield what was retrieved so far.
func (a *Arbeitnow) Fetch(ctx context.Context, profile config.SearchProfile) ([]model.RawListing, error) {
	var out []model.RawListing

	for page := 1; page <= a.cfg.MaxPages; page++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return out, err
		}

		resp, err := a.client.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			Get(a.cfg.BaseURL)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			a.logger.Error("arbeitnow page fetch failed", "page", page, "error", err)
			return out, nil
		}
		if resp.IsError() {
			a.logger.Error("arbeitnow page fetch failed", "page", page, "status", resp.StatusCode())
			return out, nil
		}

		var parsed anResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			a.logger.Error("arbeitnow response unparseable", "page", page, "error", err)
			return out, nil
		}
		if len(parsed.Data) == 0 {
			a.logger.Info("arbeitnow: no more results", "page", page)
			break
		}

		for _, job := range parsed.Data {
			remote := job.Remote
			out = append(out, model.RawListing{
				ExternalID:  job.Slug,
				Title:       job.Title,
				Employer:    job.CompanyName,
				Location:    job.Location,
				PublishedAt: formatUnixDate(job.CreatedAt),
				RawText:     stripHTML(job.Description),
				Remote:      &remote,
			})
		}
		a.logger.Info("arbeitnow page loaded", "page", page, "results", len(parsed.Data))
	}

	return out, nil
}

// Build assembles the full record; the list response already carries
// everything, so no further requests are made.
func (a *Arbeitnow) Build(_ context.Context, raw model.RawListing) (*model.Listing, error) {
	if raw.Title == "" {
		return nil, fmt.Errorf("listing %s: missing title", raw.ExternalID)
	}
	return &model.Listing{
		ExternalID:  raw.ExternalID,
		Title:       raw.Title,
		Employer:    raw.Employer,
		Location:    raw.Location,
		StartDate:   raw.StartDate,
		PublishedAt: raw.PublishedAt,
		RawText:     raw.RawText,
		ChangeToken: raw.ChangeToken,
		Source:      model.SourceArbeitnow,
	}, nil
}

func formatUnixDate(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
