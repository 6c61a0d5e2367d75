package store

import (
	"context"
	"database/sql"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/domain/entity"
)

// ListPages returns every page stored for (library, version), in the order
// pages were first discovered (depth, then insertion order). A refresh job
// uses this to repopulate the BFS executor's queue without re-running
// seed/link discovery (spec.md §4.4: "refresh jobs instead pre-populate the
// queue from the store").
func (s *Store) ListPages(ctx context.Context, library, version string) ([]entity.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.version_id, p.url, p.title, p.content_type, p.etag, p.last_modified, p.depth, p.created_at, p.from_llms_txt
		FROM pages p
		JOIN versions v ON v.id = p.version_id
		JOIN libraries l ON l.id = v.library_id
		WHERE l.name = ? AND v.version = ?
		ORDER BY p.depth ASC, p.id ASC
	`, library, version)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "ListPages", err)
	}
	defer rows.Close()

	var out []entity.Page
	for rows.Next() {
		var p entity.Page
		if err := rows.Scan(&p.ID, &p.VersionID, &p.URL, &p.Title, &p.ContentType, &p.ETag,
			&p.LastModified, &p.Depth, &p.CreatedAt, &p.FromLlmsTxt); err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "ListPages: scan", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "ListPages: rows", err)
	}
	return out, nil
}

// FindPageByURL looks up one page by its exact URL within (library,
// version), used by a refresh job to resolve the page id to delete on a 404
// (spec.md §8 invariant 7: "refresh that encounters 404 ... removes that
// page and its chunks").
func (s *Store) FindPageByURL(ctx context.Context, library, version, url string) (entity.Page, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.version_id, p.url, p.title, p.content_type, p.etag, p.last_modified, p.depth, p.created_at, p.from_llms_txt
		FROM pages p
		JOIN versions v ON v.id = p.version_id
		JOIN libraries l ON l.id = v.library_id
		WHERE l.name = ? AND v.version = ? AND p.url = ?
	`, library, version, url)

	var p entity.Page
	err := row.Scan(&p.ID, &p.VersionID, &p.URL, &p.Title, &p.ContentType, &p.ETag,
		&p.LastModified, &p.Depth, &p.CreatedAt, &p.FromLlmsTxt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entity.Page{}, false, nil
		}
		return entity.Page{}, false, apperrors.NewStoreError(apperrors.StoreKindConstraint, "FindPageByURL", err)
	}
	return p, true, nil
}
