package store

import "database/sql"

// MigrateUp creates every table, index and virtual table the store needs,
// idempotently, matching the teacher's flat CREATE-TABLE-IF-NOT-EXISTS
// migration style (internal/infra/db/migrate.go) rather than a versioned
// migration framework: the schema here has no history to reconcile, only
// one shape to converge on.
func MigrateUp(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS libraries (
			id   INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		) STRICT`,

		`CREATE TABLE IF NOT EXISTS versions (
			id                       INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			library_id               INTEGER NOT NULL REFERENCES libraries(id),
			version                  TEXT NOT NULL,
			status                   TEXT NOT NULL DEFAULT 'not_indexed',
			pages_done               INTEGER NOT NULL DEFAULT 0,
			pages_max                INTEGER NOT NULL DEFAULT 0,
			last_error               TEXT NOT NULL DEFAULT '',
			source_url               TEXT NOT NULL DEFAULT '',
			scraper_options_snapshot TEXT NOT NULL DEFAULT '',
			created_at               TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at               TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(library_id, version)
		) STRICT`,

		`CREATE TABLE IF NOT EXISTS pages (
			id            INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			version_id    INTEGER NOT NULL REFERENCES versions(id),
			url           TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			content_type  TEXT NOT NULL DEFAULT '',
			etag          TEXT NOT NULL DEFAULT '',
			last_modified TEXT NOT NULL DEFAULT '',
			depth         INTEGER NOT NULL DEFAULT 0,
			from_llms_txt INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(version_id, url)
		) STRICT`,

		`CREATE TABLE IF NOT EXISTS documents (
			id            INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			page_id       INTEGER NOT NULL REFERENCES pages(id),
			sort_order    INTEGER NOT NULL,
			content       TEXT NOT NULL,
			types         TEXT NOT NULL DEFAULT '[]',
			section_level INTEGER NOT NULL DEFAULT 0,
			section_path  TEXT NOT NULL DEFAULT '',
			embedding     BLOB
		) STRICT`,

		`CREATE INDEX IF NOT EXISTS idx_documents_page ON documents(page_id, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_section_path ON documents(page_id, section_path)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_version ON pages(version_id)`,

		// Pipeline-manager job records (spec.md §4.6). id is a caller-assigned
		// uuid rather than an autoincrement row id, since a job id is handed
		// back to the caller at enqueue time, before any row exists to derive
		// one from.
		`CREATE TABLE IF NOT EXISTS jobs (
			id               TEXT NOT NULL PRIMARY KEY,
			kind             TEXT NOT NULL,
			library          TEXT NOT NULL,
			version          TEXT NOT NULL DEFAULT '',
			source_url       TEXT NOT NULL DEFAULT '',
			options_snapshot TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL,
			pages_done       INTEGER NOT NULL DEFAULT 0,
			pages_max        INTEGER NOT NULL DEFAULT 0,
			error            TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		) STRICT`,

		// Recovery scans (startup) filter by status alone; dedup lookups
		// (enqueue) filter by library, version, source URL and status.
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_dedup ON jobs(library, version, source_url, status)`,

		// FTS5 mirror, kept in sync by addDocuments/deletePage in the same
		// transaction as the documents table rather than by trigger, so a
		// batch-too-large split-and-retry never leaves the two out of step.
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			title, path, body,
			tokenize = 'unicode61'
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
