package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/freese/jobradar/internal/model"
)

// Exists returns true if a listing with the given external ID is stored.
func (s *Store) Exists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM listings WHERE external_id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking listing %s: %w", id, err)
	}
	return true, nil
}

// ChangeToken returns the stored change token and status for the given ID
// and whether the listing exists at all.
func (s *Store) ChangeToken(id string) (string, model.Status, bool, error) {
	var token, status string
	err := s.db.QueryRow("SELECT change_token, status FROM listings WHERE external_id = ?", id).Scan(&token, &status)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("reading change token for %s: %w", id, err)
	}
	return token, model.Status(status), true, nil
}

// Insert stores a new listing. Returns model.ErrConflict if the external ID
// is already present; callers are expected to have checked first.
func (s *Store) Insert(l *model.Listing) error {
	exists, err := s.Exists(l.ExternalID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("inserting %s: %w", l.ExternalID, model.ErrConflict)
	}

	if l.Status == "" {
		l.Status = model.StatusActive
	}
	if l.FetchedAt.IsZero() {
		l.FetchedAt = time.Now()
	}

	_, err = s.db.Exec(`INSERT INTO listings (
			external_id, title, employer, location, start_date, published_at,
			raw_text, change_token, normalized_title, remote, contract_type,
			seniority, tech_stack, summary, fit_score, llm_output,
			source, search_profile, status, status_changed_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ExternalID, l.Title, l.Employer, l.Location, l.StartDate, l.PublishedAt,
		l.RawText, l.ChangeToken, l.NormalizedTitle, l.Remote, l.ContractType,
		l.Seniority, l.TechStack, l.Summary, nullScore(l.FitScore), l.LLMOutput,
		l.Source, l.SearchProfile, string(l.Status), nullTime(l.StatusChanged),
		formatTime(l.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", l.ExternalID, err)
	}
	return nil
}

// Update overwrites all mutable fields of an existing listing. A re-sighted
// listing always returns to active. Application-tracking fields are not
// touched; those go through UpdateApplication. Returns model.ErrNotFound
// when the ID is absent.
func (s *Store) Update(l *model.Listing) error {
	if l.FetchedAt.IsZero() {
		l.FetchedAt = time.Now()
	}

	res, err := s.db.Exec(`UPDATE listings SET
			title = ?, employer = ?, location = ?, start_date = ?, published_at = ?,
			raw_text = ?, change_token = ?, normalized_title = ?, remote = ?,
			contract_type = ?, seniority = ?, tech_stack = ?, summary = ?,
			fit_score = ?, llm_output = ?, status = ?, status_changed_at = ?,
			fetched_at = ?
		WHERE external_id = ?`,
		l.Title, l.Employer, l.Location, l.StartDate, l.PublishedAt,
		l.RawText, l.ChangeToken, l.NormalizedTitle, l.Remote,
		l.ContractType, l.Seniority, l.TechStack, l.Summary,
		nullScore(l.FitScore), l.LLMOutput, string(model.StatusActive), nil,
		formatTime(l.FetchedAt), l.ExternalID,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", l.ExternalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", l.ExternalID, err)
	}
	if n == 0 {
		return fmt.Errorf("updating %s: %w", l.ExternalID, model.ErrNotFound)
	}
	return nil
}

// ApplicationPatch carries the optional application-tracking fields for a
// partial update. Nil fields are left untouched.
type ApplicationPatch struct {
	Draft       *string
	Status      *string
	Sources     *string
	DuplicateOf *string
}

// UpdateApplication patches only the supplied application fields. With no
// fields supplied the call is a no-op. Returns model.ErrNotFound when the ID
// is absent.
func (s *Store) UpdateApplication(id string, patch ApplicationPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Draft != nil {
		sets = append(sets, "draft = ?")
		args = append(args, *patch.Draft)
	}
	if patch.Status != nil {
		sets = append(sets, "application_status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Sources != nil {
		sets = append(sets, "draft_sources = ?")
		args = append(args, *patch.Sources)
	}
	if patch.DuplicateOf != nil {
		sets = append(sets, "duplicate_of = ?")
		args = append(args, *patch.DuplicateOf)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.Exec("UPDATE listings SET "+strings.Join(sets, ", ")+" WHERE external_id = ?", args...)
	if err != nil {
		return fmt.Errorf("patching application fields for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("patching application fields for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("patching application fields for %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// ActiveIDs returns the external IDs of all currently active listings for
// the given search profile.
func (s *Store) ActiveIDs(searchProfile string) (map[string]struct{}, error) {
	rows, err := s.db.Query(
		"SELECT external_id FROM listings WHERE search_profile = ? AND status = ?",
		searchProfile, string(model.StatusActive),
	)
	if err != nil {
		return nil, fmt.Errorf("listing active ids for %s: %w", searchProfile, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listing active ids for %s: %w", searchProfile, err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// sweepChunk bounds the IN list per statement, well under SQLite's
// host-parameter limit.
const sweepChunk = 500

// MarkPresumablyFilled transitions every active listing of the profile whose
// ID is not in seen to presumably_filled, stamping the transition time, and
// returns how many rows transitioned. An empty seen set is a no-op returning
// 0: an empty fetch must never be read as "everything disappeared".
func (s *Store) MarkPresumablyFilled(searchProfile string, seen map[string]struct{}) (int, error) {
	if len(seen) == 0 {
		return 0, nil
	}

	active, err := s.ActiveIDs(searchProfile)
	if err != nil {
		return 0, err
	}
	var vanished []string
	for id := range active {
		if _, ok := seen[id]; !ok {
			vanished = append(vanished, id)
		}
	}

	stamp := formatTime(time.Now())
	total := 0
	for start := 0; start < len(vanished); start += sweepChunk {
		chunk := vanished[start:min(start+sweepChunk, len(vanished))]

		placeholders := make([]string, 0, len(chunk))
		args := []any{string(model.StatusPresumablyFilled), stamp, searchProfile, string(model.StatusActive)}
		for _, id := range chunk {
			placeholders = append(placeholders, "?")
			args = append(args, id)
		}

		res, err := s.db.Exec(
			`UPDATE listings SET status = ?, status_changed_at = ?
			 WHERE search_profile = ? AND status = ?
			   AND external_id IN (`+strings.Join(placeholders, ",")+`)`,
			args...,
		)
		if err != nil {
			return total, fmt.Errorf("marking presumably filled for %s: %w", searchProfile, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("marking presumably filled for %s: %w", searchProfile, err)
		}
		total += int(n)
	}
	return total, nil
}

const listingColumns = `external_id, title, employer, location, start_date, published_at,
	raw_text, change_token, normalized_title, remote, contract_type, seniority,
	tech_stack, summary, fit_score, llm_output, source, search_profile,
	status, status_changed_at, fetched_at,
	draft, application_status, draft_sources, duplicate_of`

// Get returns the full listing for the given external ID, or model.ErrNotFound.
func (s *Store) Get(id string) (*model.Listing, error) {
	row := s.db.QueryRow("SELECT "+listingColumns+" FROM listings WHERE external_id = ?", id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading listing %s: %w", id, err)
	}
	return l, nil
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	SearchProfile  string
	Status         model.Status
	MinFitScore    int
	HideDuplicates bool
}

// List returns listings ordered by fit score, best first, unscored last.
func (s *Store) List(f ListFilter) ([]model.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings WHERE 1=1"
	var args []any
	if f.SearchProfile != "" {
		query += " AND search_profile = ?"
		args = append(args, f.SearchProfile)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.MinFitScore > 0 {
		query += " AND fit_score >= ?"
		args = append(args, f.MinFitScore)
	}
	if f.HideDuplicates {
		query += " AND duplicate_of = ''"
	}
	query += " ORDER BY fit_score IS NULL, fit_score DESC, fetched_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing listings: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*model.Listing, error) {
	var (
		l         model.Listing
		score     sql.NullInt64
		status    string
		changedAt sql.NullString
		fetchedAt string
	)
	err := row.Scan(
		&l.ExternalID, &l.Title, &l.Employer, &l.Location, &l.StartDate, &l.PublishedAt,
		&l.RawText, &l.ChangeToken, &l.NormalizedTitle, &l.Remote, &l.ContractType,
		&l.Seniority, &l.TechStack, &l.Summary, &score, &l.LLMOutput,
		&l.Source, &l.SearchProfile, &status, &changedAt, &fetchedAt,
		&l.Draft, &l.ApplicationStatus, &l.DraftSources, &l.DuplicateOf,
	)
	if err != nil {
		return nil, err
	}

	if score.Valid {
		l.FitScore = int(score.Int64)
	}
	l.Status = model.Status(status)
	if changedAt.Valid && changedAt.String != "" {
		t := parseTime(changedAt.String)
		l.StatusChanged = &t
	}
	l.FetchedAt = parseTime(fetchedAt)
	return &l, nil
}

func nullScore(score int) any {
	if score == 0 {
		return nil
	}
	return score
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
