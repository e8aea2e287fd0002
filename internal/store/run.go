package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/freese/jobradar/internal/model"
)

// StartRun records the start of one ingestion cycle and returns its run ID.
func (s *Store) StartRun(source, searchProfile string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO ingestion_runs (source, search_profile, started_at, status) VALUES (?, ?, ?, ?)",
		source, searchProfile, formatTime(time.Now()), string(model.RunRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("starting run for %s: %w", searchProfile, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("starting run for %s: %w", searchProfile, err)
	}
	return id, nil
}

// FinishRun writes the terminal state of a run. Only a run still in the
// running state can be finished, so a second finish is rejected with
// model.ErrNotFound.
func (s *Store) FinishRun(id int64, counts model.RunCounts, status model.RunStatus, errMsg string) error {
	res, err := s.db.Exec(
		`UPDATE ingestion_runs SET
			finished_at = ?, jobs_fetched = ?, jobs_new = ?, jobs_updated = ?,
			jobs_skipped = ?, jobs_failed = ?, status = ?, error_msg = ?
		 WHERE id = ? AND status = ?`,
		formatTime(time.Now()), counts.Fetched, counts.New, counts.Updated,
		counts.Skipped, counts.Failed, string(status), errMsg,
		id, string(model.RunRunning),
	)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run %d: no running run: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetRun returns one run record by ID.
func (s *Store) GetRun(id int64) (*model.IngestionRun, error) {
	row := s.db.QueryRow(runSelect+" WHERE id = ?", id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %d: %w", id, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]model.IngestionRun, error) {
	rows, err := s.db.Query(runSelect+" ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []model.IngestionRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

const runSelect = `SELECT id, source, search_profile, started_at, finished_at,
	jobs_fetched, jobs_new, jobs_updated, jobs_skipped, jobs_failed,
	status, error_msg FROM ingestion_runs`

func scanRun(row scanner) (*model.IngestionRun, error) {
	var (
		r          model.IngestionRun
		startedAt  string
		finishedAt sql.NullString
		status     string
	)
	err := row.Scan(
		&r.ID, &r.Source, &r.SearchProfile, &startedAt, &finishedAt,
		&r.Counts.Fetched, &r.Counts.New, &r.Counts.Updated, &r.Counts.Skipped,
		&r.Counts.Failed, &status, &r.ErrorMsg,
	)
	if err != nil {
		return nil, err
	}
	r.StartedAt = parseTime(startedAt)
	if finishedAt.Valid && finishedAt.String != "" {
		t := parseTime(finishedAt.String)
		r.FinishedAt = &t
	}
	r.Status = model.RunStatus(status)
	return &r, nil
}
