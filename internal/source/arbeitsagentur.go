package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/freese/jobradar/internal/config"
	"github.com/freese/jobradar/internal/match"
	"github.com/freese/jobradar/internal/model"
)

// aaListing is one entry of the Jobsuche search response.
type aaListing struct {
	Refnr                 string         `json:"refnr"`
	Titel                 string         `json:"titel"`
	Arbeitgeber           string         `json:"arbeitgeber"`
	Arbeitsort            aaOrt          `json:"arbeitsort"`
	Eintrittsdatum        string         `json:"eintrittsdatum"`
	Veroeffentlichungsdat string         `json:"aktuelleVeroeffentlichungsdatum"`
	ModifikationsTS       string         `json:"modifikationsTimestamp"`
}

type aaOrt struct {
	Ort string `json:"ort"`
}

type aaResponse struct {
	Stellenangebote []aaListing `json:"stellenangebote"`
}

// Arbeitsagentur fetches listings from the Bundesagentur für Arbeit Jobsuche
// REST API. The search endpoint only returns metadata; the raw posting text
// comes from the public detail page during Build.
type Arbeitsagentur struct {
	cfg     config.ArbeitsagenturConfig
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewArbeitsagentur creates the adapter.
func NewArbeitsagentur(cfg config.ArbeitsagenturConfig, logger *slog.Logger) *Arbeitsagentur {
	return &Arbeitsagentur{
		cfg:     cfg,
		client:  newClient(),
		limiter: newLimiter(cfg.MinDelay),
		logger:  logger,
	}
}

func (a *Arbeitsagentur) Name() string { return model.SourceArbeitsagentur }

// Fetch runs every merged query of the profile against the search API and
// returns the union of results, deduplicated by refnr. A profile with no
// query overlays fetches nothing. Failed queries are logged and skipped.
func (a *Arbeitsagentur) Fetch(ctx context.Context, profile config.SearchProfile) ([]model.RawListing, error) {
	queries := match.Queries(profile)
	if len(queries) == 0 {
		a.logger.Debug("no arbeitsagentur queries for profile, skipping", "profile", profile.Name)
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []model.RawListing

	for _, q := range queries {
		if err := a.limiter.Wait(ctx); err != nil {
			return out, err
		}

		resp, err := a.client.R().
			SetContext(ctx).
			SetHeader("X-API-Key", a.cfg.APIKey).
			SetQueryParams(q).
			Get(a.cfg.BaseURL + "/jobs")
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			a.logger.Error("arbeitsagentur query failed", "was", q["was"], "error", err)
			continue
		}
		if resp.IsError() {
			a.logger.Error("arbeitsagentur query failed", "was", q["was"], "status", resp.StatusCode())
			continue
		}

		var parsed aaResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			a.logger.Error("arbeitsagentur response unparseable", "was", q["was"], "error", err)
			continue
		}

		for _, item := range parsed.Stellenangebote {
			if _, dup := seen[item.Refnr]; dup && item.Refnr != "" {
				continue
			}
			seen[item.Refnr] = struct{}{}
			out = append(out, model.RawListing{
				ExternalID:  item.Refnr,
				Title:       item.Titel,
				Employer:    item.Arbeitgeber,
				Location:    item.Arbeitsort.Ort,
				StartDate:   item.Eintrittsdatum,
				PublishedAt: item.Veroeffentlichungsdat,
				ChangeToken: item.ModifikationsTS,
			})
		}
		a.logger.Info("arbeitsagentur query done", "was", q["was"], "results", len(parsed.Stellenangebote))
	}

	return out, nil
}

// Build fetches the public detail page for the listing and assembles the
// full record. A missing detail page degrades to an empty raw text; only a
// missing title fails the build.
func (a *Arbeitsagentur) Build(ctx context.Context, raw model.RawListing) (*model.Listing, error) {
	if raw.Title == "" {
		return nil, fmt.Errorf("listing %s: missing title", raw.ExternalID)
	}

	rawText := ""
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := a.client.R().SetContext(ctx).Get(model.ListingURL(raw.ExternalID, model.SourceArbeitsagentur))
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("no detail text", "refnr", raw.ExternalID, "error", err)
	case resp.IsError():
		a.logger.Warn("no detail text", "refnr", raw.ExternalID, "status", resp.StatusCode())
	default:
		rawText = extractMainText(resp.String())
	}

	return &model.Listing{
		ExternalID:  raw.ExternalID,
		Title:       raw.Title,
		Employer:    raw.Employer,
		Location:    raw.Location,
		StartDate:   raw.StartDate,
		PublishedAt: raw.PublishedAt,
		RawText:     rawText,
		ChangeToken: raw.ChangeToken,
		Source:      model.SourceArbeitsagentur,
	}, nil
}
