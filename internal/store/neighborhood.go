package store

import (
	"context"
	"database/sql"
	"strings"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/domain/entity"
)

// Neighborhood is the expanded context assembled around one search hit: its
// parent chain (outermost first), surrounding siblings, and child chunks
// (spec.md §4.5's "Neighborhood assembly").
type Neighborhood struct {
	Hit       entity.Chunk
	Parents   []entity.Chunk
	Preceding []entity.Chunk
	Following []entity.Chunk
	Children  []entity.Chunk
}

// AssembleNeighborhood expands hit into its surrounding context using the
// configured internal/config.AssemblySection limits.
func (s *Store) AssembleNeighborhood(ctx context.Context, hit entity.Chunk) (Neighborhood, error) {
	n := Neighborhood{Hit: hit}

	parents, err := s.parentChain(ctx, hit)
	if err != nil {
		return n, err
	}
	n.Parents = parents

	preceding, following, err := s.siblings(ctx, hit)
	if err != nil {
		return n, err
	}
	n.Preceding, n.Following = preceding, following

	children, err := s.children(ctx, hit)
	if err != nil {
		return n, err
	}
	n.Children = children

	return n, nil
}

// parentChain walks section_path ancestors of hit (stripping one '/'
// segment at a time) up to MaxParentChainDepth levels, returning the
// closest-preceding chunk at each ancestor path, outermost first.
func (s *Store) parentChain(ctx context.Context, hit entity.Chunk) ([]entity.Chunk, error) {
	if s.assembly.MaxParentChainDepth <= 0 || hit.SectionPath == "" {
		return nil, nil
	}

	segments := strings.Split(hit.SectionPath, "/")
	var parents []entity.Chunk
	for depth := 1; depth <= s.assembly.MaxParentChainDepth && depth < len(segments); depth++ {
		prefix := strings.Join(segments[:len(segments)-depth], "/")
		chunk, ok, err := s.chunkBySectionPath(ctx, hit.PageID, prefix, hit.SortOrder)
		if err != nil {
			return nil, err
		}
		if ok {
			parents = append(parents, chunk)
		}
	}

	for i, j := 0, len(parents)-1; i < j; i, j = i+1, j-1 {
		parents[i], parents[j] = parents[j], parents[i]
	}
	return parents, nil
}

func (s *Store) chunkBySectionPath(ctx context.Context, pageID int64, path string, beforeSortOrder int) (entity.Chunk, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, sort_order, content, types, section_level, section_path
		FROM documents
		WHERE page_id = ? AND section_path = ? AND sort_order < ?
		ORDER BY sort_order DESC
		LIMIT 1
	`, pageID, path, beforeSortOrder)

	chunk, err := scanChunkRow(row)
	if err == sql.ErrNoRows {
		return entity.Chunk{}, false, nil
	}
	if err != nil {
		return entity.Chunk{}, false, err
	}
	return chunk, true, nil
}

// siblings returns chunks sharing hit's exact section_path, immediately
// before and after it in sort_order, capped by PrecedingSiblingsLimit and
// SubsequentSiblingsLimit respectively.
func (s *Store) siblings(ctx context.Context, hit entity.Chunk) (preceding, following []entity.Chunk, err error) {
	if s.assembly.PrecedingSiblingsLimit > 0 {
		preceding, err = s.queryChunks(ctx, `
			SELECT id, page_id, sort_order, content, types, section_level, section_path
			FROM documents
			WHERE page_id = ? AND section_path = ? AND sort_order < ?
			ORDER BY sort_order DESC
			LIMIT ?
		`, hit.PageID, hit.SectionPath, hit.SortOrder, s.assembly.PrecedingSiblingsLimit)
		if err != nil {
			return nil, nil, err
		}
		for i, j := 0, len(preceding)-1; i < j; i, j = i+1, j-1 {
			preceding[i], preceding[j] = preceding[j], preceding[i]
		}
	}

	if s.assembly.SubsequentSiblingsLimit > 0 {
		following, err = s.queryChunks(ctx, `
			SELECT id, page_id, sort_order, content, types, section_level, section_path
			FROM documents
			WHERE page_id = ? AND section_path = ? AND sort_order > ?
			ORDER BY sort_order ASC
			LIMIT ?
		`, hit.PageID, hit.SectionPath, hit.SortOrder, s.assembly.SubsequentSiblingsLimit)
		if err != nil {
			return nil, nil, err
		}
	}

	return preceding, following, nil
}

// children returns chunks one section_path level below hit, within
// MaxChunkDistance sort_order positions of it, capped by ChildLimit.
func (s *Store) children(ctx context.Context, hit entity.Chunk) ([]entity.Chunk, error) {
	if s.assembly.ChildLimit <= 0 {
		return nil, nil
	}

	prefix := hit.SectionPath
	if prefix != "" {
		prefix += "/"
	}

	candidates, err := s.queryChunks(ctx, `
		SELECT id, page_id, sort_order, content, types, section_level, section_path
		FROM documents
		WHERE page_id = ? AND section_path LIKE ? AND section_path != ?
		  AND sort_order > ? AND sort_order <= ?
		ORDER BY sort_order ASC
	`, hit.PageID, prefix+"%", hit.SectionPath, hit.SortOrder, hit.SortOrder+s.assembly.MaxChunkDistance)
	if err != nil {
		return nil, err
	}

	var children []entity.Chunk
	for _, c := range candidates {
		if len(children) >= s.assembly.ChildLimit {
			break
		}
		if oneLevelDeeper(prefix, c.SectionPath) {
			children = append(children, c)
		}
	}
	return children, nil
}

// oneLevelDeeper reports whether path is exactly one '/'-segment below
// prefix, rather than some deeper descendant also matched by the LIKE scan.
func oneLevelDeeper(prefix, path string) bool {
	rest := strings.TrimPrefix(path, prefix)
	return rest != "" && !strings.Contains(rest, "/")
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]entity.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "queryChunks", err)
	}
	defer rows.Close()

	var out []entity.Chunk
	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "queryChunks: rows", err)
	}
	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunkRow(row rowScanner) (entity.Chunk, error) {
	var c entity.Chunk
	if err := row.Scan(&c.ID, &c.PageID, &c.SortOrder, &c.Content, &c.Types, &c.SectionLevel, &c.SectionPath); err != nil {
		if err == sql.ErrNoRows {
			return entity.Chunk{}, err
		}
		return entity.Chunk{}, apperrors.NewStoreError(apperrors.StoreKindConstraint, "scanChunkRow", err)
	}
	return c, nil
}
