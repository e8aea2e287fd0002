package store

import (
	"database/sql"
	"fmt"
)

// migrations is the ordered, append-only schema history. Each entry is one
// version; statements within a version run in order. PRAGMA user_version
// records how far a database has been migrated, which makes re-running the
// whole list a no-op. New columns must be added with defaults so existing
// rows stay valid.
var migrations = [][]string{
	// v1: base listings table as fetched and enriched.
	{
		`CREATE TABLE IF NOT EXISTS listings (
			external_id      TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			employer         TEXT NOT NULL DEFAULT '',
			location         TEXT NOT NULL DEFAULT '',
			start_date       TEXT NOT NULL DEFAULT '',
			published_at     TEXT NOT NULL DEFAULT '',
			raw_text         TEXT NOT NULL DEFAULT '',
			change_token     TEXT NOT NULL DEFAULT '',
			normalized_title TEXT NOT NULL DEFAULT '',
			remote           TEXT NOT NULL DEFAULT '',
			contract_type    TEXT NOT NULL DEFAULT '',
			seniority        TEXT NOT NULL DEFAULT '',
			tech_stack       TEXT NOT NULL DEFAULT '',
			summary          TEXT NOT NULL DEFAULT '',
			fit_score        INTEGER,
			llm_output       TEXT NOT NULL DEFAULT '',
			source           TEXT NOT NULL DEFAULT 'arbeitsagentur',
			search_profile   TEXT NOT NULL DEFAULT '',
			fetched_at       TEXT NOT NULL DEFAULT ''
		)`,
	},
	// v2: listing lifecycle and run records.
	{
		`ALTER TABLE listings ADD COLUMN status TEXT NOT NULL DEFAULT 'active'`,
		`ALTER TABLE listings ADD COLUMN status_changed_at TEXT`,
		`CREATE TABLE IF NOT EXISTS ingestion_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			source         TEXT NOT NULL,
			search_profile TEXT NOT NULL,
			started_at     TEXT NOT NULL,
			finished_at    TEXT,
			jobs_fetched   INTEGER NOT NULL DEFAULT 0,
			jobs_new       INTEGER NOT NULL DEFAULT 0,
			jobs_updated   INTEGER NOT NULL DEFAULT 0,
			jobs_skipped   INTEGER NOT NULL DEFAULT 0,
			jobs_failed    INTEGER NOT NULL DEFAULT 0,
			status         TEXT NOT NULL DEFAULT 'running',
			error_msg      TEXT NOT NULL DEFAULT ''
		)`,
	},
	// v3: application tracking.
	{
		`ALTER TABLE listings ADD COLUMN draft TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE listings ADD COLUMN application_status TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE listings ADD COLUMN draft_sources TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE listings ADD COLUMN duplicate_of TEXT NOT NULL DEFAULT ''`,
	},
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		for _, stmt := range migrations[v] {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("migration v%d: %w", v+1, err)
			}
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			return fmt.Errorf("bumping user_version to %d: %w", v+1, err)
		}
	}

	return nil
}
