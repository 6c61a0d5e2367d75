package store

import (
	"context"
	"database/sql"
	"sort"

	"github.com/Masterminds/semver/v3"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/domain/entity"
)

// ListLibraries returns every library's name and version count, ordered
// alphabetically, for the introspection surface's listLibraries() (spec.md
// §6).
func (s *Store) ListLibraries(ctx context.Context) ([]entity.LibrarySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.name, COUNT(v.id)
		FROM libraries l
		LEFT JOIN versions v ON v.library_id = l.id
		GROUP BY l.id
		ORDER BY l.name ASC
	`)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "ListLibraries", err)
	}
	defer rows.Close()

	var out []entity.LibrarySummary
	for rows.Next() {
		var ls entity.LibrarySummary
		if err := rows.Scan(&ls.Name, &ls.VersionCount); err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "ListLibraries: scan", err)
		}
		out = append(out, ls)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "ListLibraries: rows", err)
	}
	return out, nil
}

// QueryLibraryVersions returns every version of library, including versions
// with zero indexed pages, aggregated with document statistics. Results are
// sorted by version descending with semver awareness; the empty (default)
// version always sorts first, ahead of every named version (spec.md §4.5,
// §3's "the empty string sorts as latest").
func (s *Store) QueryLibraryVersions(ctx context.Context, library string) ([]entity.VersionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			l.name,
			v.version,
			v.status,
			v.pages_done,
			v.pages_max,
			v.last_error,
			v.source_url,
			COUNT(d.id),
			COUNT(DISTINCT p.url),
			MIN(p.created_at)
		FROM versions v
		JOIN libraries l ON l.id = v.library_id
		LEFT JOIN pages p ON p.version_id = v.id
		LEFT JOIN documents d ON d.page_id = p.id
		WHERE l.name = ?
		GROUP BY v.id
	`, library)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "QueryLibraryVersions", err)
	}
	defer rows.Close()

	var out []entity.VersionSummary
	for rows.Next() {
		var v entity.VersionSummary
		var firstIndexedAt sql.NullTime
		if err := rows.Scan(&v.Library, &v.Version, &v.Status, &v.Progress.PagesDone, &v.Progress.PagesMax,
			&v.LastError, &v.SourceURL, &v.DocumentCount, &v.DistinctURLCount, &firstIndexedAt); err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "QueryLibraryVersions: scan", err)
		}
		if firstIndexedAt.Valid {
			t := firstIndexedAt.Time
			v.FirstIndexedAt = &t
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "QueryLibraryVersions: rows", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return versionLess(out[j], out[i]) })
	return out, nil
}

// versionLess reports whether a is older than b; QueryLibraryVersions sorts
// by its reverse, newest first. The empty (unversioned/"latest") version is
// newer than every named version; parseable semvers compare by semver
// precedence; an unparseable version is older than any semver, and two
// unparseable versions compare lexically.
func versionLess(a, b entity.VersionSummary) bool {
	if a.Version == "" {
		return false
	}
	if b.Version == "" {
		return true
	}

	sa, errA := semver.NewVersion(a.Version)
	sb, errB := semver.NewVersion(b.Version)

	switch {
	case errA == nil && errB == nil:
		return sa.LessThan(sb)
	case errA == nil:
		// a parses, b doesn't: treat unparseable versions as older.
		return false
	case errB == nil:
		return true
	default:
		return a.Version < b.Version
	}
}
