package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/domain/entity"
	"docsindexer/internal/splitter"
)

// PageInput is what a scrape result hands addDocuments: one page's final
// pipeline output plus its split chunks, in the order they should be
// persisted (splitter.Split already assigns final ordering; SortOrder is
// assigned here on insert, per spec.md §4.5).
type PageInput struct {
	URL          string
	Title        string
	ContentType  string
	ETag         string
	LastModified string
	Depth        int
	FromLlmsTxt  bool
	Chunks       []splitter.RawChunk
}

// ResolveVersionID inserts-or-gets the library and version rows, returning
// the version's row id. The version starts in VersionStatusNotIndexed.
func (s *Store) ResolveVersionID(ctx context.Context, library, version string) (int64, error) {
	if err := entity.ValidateLibraryName(library); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStoreError(apperrors.StoreKindConnection, "ResolveVersionID", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := resolveVersionIDTx(ctx, tx, library, version)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStoreError(apperrors.StoreKindConnection, "ResolveVersionID: Commit", err)
	}
	return id, nil
}

func resolveVersionIDTx(ctx context.Context, tx *sql.Tx, library, version string) (int64, error) {
	var libraryID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO libraries (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name
		RETURNING id
	`, library).Scan(&libraryID)
	if err != nil {
		return 0, apperrors.NewStoreError(apperrors.StoreKindConstraint, "resolveVersionIDTx: libraries", err)
	}

	var versionID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO versions (library_id, version, status)
		VALUES (?, ?, ?)
		ON CONFLICT(library_id, version) DO UPDATE SET library_id = excluded.library_id
		RETURNING id
	`, libraryID, version, entity.VersionStatusNotIndexed).Scan(&versionID)
	if err != nil {
		return 0, apperrors.NewStoreError(apperrors.StoreKindConstraint, "resolveVersionIDTx: versions", err)
	}

	return versionID, nil
}

// AddDocuments persists one page and its chunk set within a single
// transaction: upsert the page, delete its prior chunks, insert the new
// ones with freshly assigned sort_order, and mirror both the vector and FTS
// indexes (spec.md §4.5's addDocuments). Embeddings are computed before the
// transaction opens, since the HTTP round trips to the embedding provider
// should not hold the single store connection.
func (s *Store) AddDocuments(ctx context.Context, library, version string, depth int, input PageInput) (*entity.Page, error) {
	if err := entity.ValidateSourceURL(input.URL); err != nil {
		return nil, err
	}

	vectors, err := s.embedChunks(ctx, input.Title, input.URL, input.Chunks)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConnection, "AddDocuments", err)
	}
	defer func() { _ = tx.Rollback() }()

	versionID, err := resolveVersionIDTx(ctx, tx, library, version)
	if err != nil {
		return nil, err
	}

	var pageID int64
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `
		INSERT INTO pages (version_id, url, title, content_type, etag, last_modified, depth, from_llms_txt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(version_id, url) DO UPDATE SET
			title = excluded.title,
			content_type = excluded.content_type,
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			depth = excluded.depth,
			from_llms_txt = excluded.from_llms_txt
		RETURNING id, created_at
	`, versionID, input.URL, input.Title, input.ContentType, input.ETag, input.LastModified, depth, input.FromLlmsTxt).
		Scan(&pageID, &createdAt)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "AddDocuments: upsert page", err)
	}

	if err := deleteChunksTx(ctx, tx, pageID); err != nil {
		return nil, err
	}

	for i, chunk := range input.Chunks {
		var embeddingBlob []byte
		if i < len(vectors) && vectors[i] != nil {
			embeddingBlob = encodeVector(vectors[i])
		}

		var docID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO documents (page_id, sort_order, content, types, section_level, section_path, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, pageID, i, chunk.Content, chunk.Types, chunk.SectionLevel, chunk.SectionPath, embeddingBlob).
			Scan(&docID)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "AddDocuments: insert document", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents_fts(rowid, title, path, body) VALUES (?, ?, ?, ?)
		`, docID, input.Title, chunk.SectionPath, chunk.Content)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "AddDocuments: insert fts row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConnection, "AddDocuments: Commit", err)
	}

	return &entity.Page{
		ID:           pageID,
		VersionID:    versionID,
		URL:          input.URL,
		Title:        input.Title,
		ContentType:  input.ContentType,
		ETag:         input.ETag,
		LastModified: input.LastModified,
		Depth:        depth,
		CreatedAt:    createdAt,
		FromLlmsTxt:  input.FromLlmsTxt,
	}, nil
}

func deleteChunksTx(ctx context.Context, tx *sql.Tx, pageID int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM documents_fts WHERE rowid IN (SELECT id FROM documents WHERE page_id = ?)
	`, pageID)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "deleteChunksTx: fts", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE page_id = ?`, pageID)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "deleteChunksTx: documents", err)
	}
	return nil
}

// DeletePage removes a page and its chunks (FK order: chunks, then page).
func (s *Store) DeletePage(ctx context.Context, pageID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConnection, "DeletePage", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteChunksTx(ctx, tx, pageID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, pageID)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "DeletePage: pages", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "DeletePage: RowsAffected", err)
	}
	if n == 0 {
		return apperrors.NewStoreError(apperrors.StoreKindNotFound, "DeletePage", fmt.Errorf("page %d not found", pageID))
	}

	return tx.Commit()
}

// RemoveVersionResult reports the rows a RemoveVersion call actually
// removed, per spec.md §4.5.
type RemoveVersionResult struct {
	DocumentsDeleted int64
	VersionDeleted   bool
	LibraryDeleted   bool
}

// RemoveVersion cascades documents -> pages -> version -> (library if empty
// and permitted), per spec.md §3's lifecycle rule and §4.5's removeVersion.
func (s *Store) RemoveVersion(ctx context.Context, library, version string, removeLibraryIfEmpty bool) (RemoveVersionResult, error) {
	var result RemoveVersionResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, apperrors.NewStoreError(apperrors.StoreKindConnection, "RemoveVersion", err)
	}
	defer func() { _ = tx.Rollback() }()

	var libraryID, versionID int64
	err = tx.QueryRowContext(ctx, `
		SELECT v.id, v.library_id FROM versions v
		JOIN libraries l ON l.id = v.library_id
		WHERE l.name = ? AND v.version = ?
	`, library, version).Scan(&versionID, &libraryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return result, apperrors.NewStoreError(apperrors.StoreKindNotFound, "RemoveVersion",
				fmt.Errorf("version %q of library %q not found", version, library))
		}
		return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: select", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM documents_fts WHERE rowid IN (
			SELECT d.id FROM documents d JOIN pages p ON p.id = d.page_id WHERE p.version_id = ?
		)
	`, versionID)
	if err != nil {
		return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: fts", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM documents WHERE page_id IN (SELECT id FROM pages WHERE version_id = ?)
	`, versionID)
	if err != nil {
		return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: documents", err)
	}
	result.DocumentsDeleted, _ = res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE version_id = ?`, versionID); err != nil {
		return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: pages", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE id = ?`, versionID); err != nil {
		return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: versions", err)
	}
	result.VersionDeleted = true

	if removeLibraryIfEmpty {
		var remaining int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM versions WHERE library_id = ?`, libraryID).Scan(&remaining)
		if err != nil {
			return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: count versions", err)
		}
		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, libraryID); err != nil {
				return result, apperrors.NewStoreError(apperrors.StoreKindConstraint, "RemoveVersion: libraries", err)
			}
			result.LibraryDeleted = true
		}
	}

	if err := tx.Commit(); err != nil {
		return result, apperrors.NewStoreError(apperrors.StoreKindConnection, "RemoveVersion: Commit", err)
	}
	return result, nil
}

// UpdateVersionStatus performs an atomic single-row status transition
// (spec.md §4.5's "Status transitions are atomic single-row updates").
func (s *Store) UpdateVersionStatus(ctx context.Context, library, version string, status entity.VersionStatus, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE versions SET status = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE library_id = (SELECT id FROM libraries WHERE name = ?) AND version = ?
	`, status, lastError, library, version)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "UpdateVersionStatus", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "UpdateVersionStatus: RowsAffected", err)
	}
	if n == 0 {
		return apperrors.NewStoreError(apperrors.StoreKindNotFound, "UpdateVersionStatus",
			fmt.Errorf("version %q of library %q not found", version, library))
	}
	return nil
}

// UpdateVersionProgress records pages_done/pages_max for a running job.
func (s *Store) UpdateVersionProgress(ctx context.Context, library, version string, pagesDone, pagesMax int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE versions SET pages_done = ?, pages_max = ?, updated_at = CURRENT_TIMESTAMP
		WHERE library_id = (SELECT id FROM libraries WHERE name = ?) AND version = ?
	`, pagesDone, pagesMax, library, version)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "UpdateVersionProgress", err)
	}
	return nil
}
