package model

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a stored listing.
type Status string

const (
	StatusActive Status = "active"
	// StatusPresumablyFilled marks a listing that a later full fetch for its
	// search profile no longer observed. Listings are never deleted.
	StatusPresumablyFilled Status = "presumably_filled"
)

// RawListing is the normalized record a source hands to the pipeline before
// the full listing is built. Date fields are raw source text, not parsed.
type RawListing struct {
	ExternalID  string
	Title       string
	Employer    string
	Location    string
	StartDate   string
	PublishedAt string
	ChangeToken string // opaque source versioning value, equality-compared only
	RawText     string // HTML-stripped description, may be empty for list-only sources
	Remote      *bool  // explicit remote flag if the source supplies one
}

// Listing is one job posting, keyed by its source-assigned external ID.
type Listing struct {
	ExternalID  string
	Title       string
	Employer    string
	Location    string
	StartDate   string
	PublishedAt string
	RawText     string
	ChangeToken string

	// Enrichment outputs. All-or-nothing: either every field below is zero
	// (enrichment degraded or skipped) or they were set together by Enrich.
	NormalizedTitle string
	Remote          string // remote | hybrid | onsite | unknown, "" when absent
	ContractType    string
	Seniority       string
	TechStack       string // JSON array serialized as text, "" when absent
	Summary         string
	FitScore        int    // 1–5, 0 when absent
	LLMOutput       string // raw enrichment JSON for auditing

	Source        string
	SearchProfile string
	Status        Status
	StatusChanged *time.Time
	FetchedAt     time.Time

	// Application tracking, written only via the store's partial patch.
	Draft             string
	ApplicationStatus string
	DraftSources      string
	DuplicateOf       string
}

// Enrichment is the result shape of one enrichment call. A degraded call
// yields the zero value: every field absent, never a partial fill.
type Enrichment struct {
	NormalizedTitle string   `json:"normalized_title"`
	Remote          string   `json:"remote"`
	ContractType    string   `json:"contract_type"`
	Seniority       string   `json:"seniority"`
	TechStack       []string `json:"tech_stack"`
	Summary         string   `json:"summary"`
	FitScore        int      `json:"fit_score"`
	Raw             string   `json:"-"` // verbatim model output, "" when degraded
}

// Enrich applies e to the listing. The tech stack is serialized to JSON text
// so the stored column stays a plain string.
func (l *Listing) Enrich(e Enrichment) {
	l.NormalizedTitle = e.NormalizedTitle
	l.Remote = e.Remote
	l.ContractType = e.ContractType
	l.Seniority = e.Seniority
	l.Summary = e.Summary
	l.FitScore = e.FitScore
	l.LLMOutput = e.Raw
	l.TechStack = ""
	if len(e.TechStack) > 0 {
		if b, err := json.Marshal(e.TechStack); err == nil {
			l.TechStack = string(b)
		}
	}
}

// RunStatus is the terminal state of an ingestion run record.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// RunCounts aggregates per-listing outcomes over one ingestion cycle.
type RunCounts struct {
	Fetched int
	New     int
	Updated int
	Skipped int
	Failed  int
}

// Add accumulates another batch's counts.
func (c *RunCounts) Add(o RunCounts) {
	c.Fetched += o.Fetched
	c.New += o.New
	c.Updated += o.Updated
	c.Skipped += o.Skipped
	c.Failed += o.Failed
}

// IngestionRun records one execution of one (candidate, search-profile) cycle.
type IngestionRun struct {
	ID            int64
	Source        string
	SearchProfile string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Counts        RunCounts
	Status        RunStatus
	ErrorMsg      string
}

// Analyzer enriches a listing's raw text against a candidate profile and a
// profile-specific scoring context. Implementations never fail: a degraded
// call returns the zero Enrichment.
type Analyzer interface {
	Analyze(ctx context.Context, rawText, profileText, scoringContext string) Enrichment
}

// ListingStore is the persistence surface the reconciliation engine writes
// through. Upserts are explicit: callers check Exists/ChangeToken first.
type ListingStore interface {
	Exists(id string) (bool, error)
	// ChangeToken returns the stored token and status and whether the
	// listing exists. The status matters to the caller: an unchanged token
	// on a presumably-filled listing is a re-sighting, not a no-op.
	ChangeToken(id string) (string, Status, bool, error)
	Insert(l *Listing) error
	Update(l *Listing) error
}
