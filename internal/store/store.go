// Package store persists libraries, versions, pages and chunks in an
// embedded SQLite database, and answers hybrid (FTS + vector) search
// queries over them (spec.md §4.5). It owns a single *sql.DB connection
// the way the teacher's SQLite adapters do (internal/infra/adapter/
// persistence/sqlite) — no connection pool, writes wrapped in
// transactions, schema applied once at startup.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/config"
	"docsindexer/internal/embed"
)

// Store is the embedded store described by spec.md §4.5.
type Store struct {
	db       *sql.DB
	embedder embed.Embedder
	search   config.SearchSection
	assembly config.AssemblySection
	embedCfg config.EmbedSection
	logger   *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at cfg.Path,
// applies the schema, and validates the configured embedder's dimension
// against cfg.Dimension per spec.md §3 ("models with d > D are rejected at
// startup"). Connection and migration failures are fatal, matching §7's
// error taxonomy.
func Open(storeCfg config.StoreSection, searchCfg config.SearchSection, assemblyCfg config.AssemblySection, embedCfg config.EmbedSection, embedder embed.Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := storeCfg.Path
	if dsn != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dsn, storeCfg.BusyTimeoutMs)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConnection, "Open", err)
	}

	// A single logical writer: modernc.org/sqlite serializes concurrent
	// writers behind SQLITE_BUSY anyway, and the spec treats the store as a
	// single-connection component (§5 "Shared resources").
	db.SetMaxOpenConns(1)

	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStoreError(apperrors.StoreKindMigration, "Open", err)
	}

	if nativeDim, ok := embed.NativeDimensionFor(embedCfg.Provider, embedCfg.Model); ok && nativeDim > embedCfg.Dimension {
		_ = db.Close()
		return nil, apperrors.NewStoreError(apperrors.StoreKindDimension, "Open",
			fmt.Errorf("model %s/%s produces dimension %d, exceeding configured dimension %d",
				embedCfg.Provider, embedCfg.Model, nativeDim, embedCfg.Dimension))
	}

	if !embedder.Available() {
		logger.Warn("no embedding provider available; vector search disabled, FTS-only")
	}

	return &Store{
		db:       db,
		embedder: embedder,
		search:   searchCfg,
		assembly: assemblyCfg,
		embedCfg: embedCfg,
		logger:   logger,
	}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
