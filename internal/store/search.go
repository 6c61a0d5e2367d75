package store

import (
	"context"
	"sort"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/config"
	"docsindexer/internal/domain/entity"
)

// SearchHit is one ranked result from FindByContent, carrying enough page
// context to render a citation without a second round trip.
type SearchHit struct {
	Chunk     entity.Chunk
	PageURL   string
	PageTitle string
	Score     float64
}

// candidate is a row pulled from either the FTS or vector candidate set,
// before fusion decides which survive into the final result.
type candidate struct {
	chunk     entity.Chunk
	pageURL   string
	pageTitle string
	bm25      float64
}

// FindByContent answers a search query against one (library, version)'s
// indexed chunks. With no embedding provider available it ranks purely by
// BM25; otherwise it fuses BM25 and cosine-similarity rankings by
// Reciprocal Rank Fusion (spec.md §4.5).
func (s *Store) FindByContent(ctx context.Context, library, version, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = s.search.DefaultLimit
	}
	if limit > s.search.MaxLimit {
		limit = s.search.MaxLimit
	}

	ftsHits, err := s.ftsCandidates(ctx, library, version, query, limit*s.search.OverfetchFactor)
	if err != nil {
		return nil, err
	}

	if !s.embedder.Available() {
		if len(ftsHits) > limit {
			ftsHits = ftsHits[:limit]
		}
		hits := make([]SearchHit, len(ftsHits))
		for i, c := range ftsHits {
			hits[i] = SearchHit{Chunk: c.chunk, PageURL: c.pageURL, PageTitle: c.pageTitle, Score: -c.bm25}
		}
		return hits, nil
	}

	queryVecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	var vecHits []candidate
	if len(queryVecs) > 0 && queryVecs[0] != nil {
		k := limit * s.search.OverfetchFactor * s.search.VectorMultiplier
		vecHits, err = s.vectorCandidates(ctx, library, version, queryVecs[0], k)
		if err != nil {
			return nil, err
		}
	}

	return fuseRRF(ftsHits, vecHits, s.search, limit), nil
}

func (s *Store) ftsCandidates(ctx context.Context, library, version, query string, k int) ([]candidate, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.page_id, d.sort_order, d.content, d.types, d.section_level, d.section_path,
		       p.url, p.title, bm25(documents_fts, 10.0, 5.0, 1.0)
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		JOIN pages p ON p.id = d.page_id
		JOIN versions v ON v.id = p.version_id
		JOIN libraries l ON l.id = v.library_id
		WHERE documents_fts MATCH ? AND l.name = ? AND v.version = ?
		ORDER BY bm25(documents_fts, 10.0, 5.0, 1.0)
		LIMIT ?
	`, ftsQuery, library, version, k)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "ftsCandidates", err)
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.chunk.ID, &c.chunk.PageID, &c.chunk.SortOrder, &c.chunk.Content,
			&c.chunk.Types, &c.chunk.SectionLevel, &c.chunk.SectionPath, &c.pageURL, &c.pageTitle, &c.bm25); err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "ftsCandidates: scan", err)
		}
		if c.chunk.Types.SearchableOnly() {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "ftsCandidates: rows", err)
	}
	return out, nil
}

// vectorCandidates brute-force scores every embedded chunk in the (library,
// version) scope against queryVec and returns the top k by cosine
// similarity. modernc.org/sqlite carries no ANN extension, so this is a
// plain Go-side scan (SPEC_FULL.md §4.5).
func (s *Store) vectorCandidates(ctx context.Context, library, version string, queryVec []float32, k int) ([]candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.page_id, d.sort_order, d.content, d.types, d.section_level, d.section_path,
		       p.url, p.title, d.embedding
		FROM documents d
		JOIN pages p ON p.id = d.page_id
		JOIN versions v ON v.id = p.version_id
		JOIN libraries l ON l.id = v.library_id
		WHERE l.name = ? AND v.version = ? AND d.embedding IS NOT NULL
	`, library, version)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "vectorCandidates", err)
	}
	defer rows.Close()

	type scored struct {
		c     candidate
		score float64
	}
	var all []scored
	for rows.Next() {
		var c candidate
		var embeddingBlob []byte
		if err := rows.Scan(&c.chunk.ID, &c.chunk.PageID, &c.chunk.SortOrder, &c.chunk.Content,
			&c.chunk.Types, &c.chunk.SectionLevel, &c.chunk.SectionPath, &c.pageURL, &c.pageTitle, &embeddingBlob); err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "vectorCandidates: scan", err)
		}
		if c.chunk.Types.SearchableOnly() {
			continue
		}
		all = append(all, scored{c: c, score: cosineSimilarity(queryVec, decodeVector(embeddingBlob))})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "vectorCandidates: rows", err)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > k {
		all = all[:k]
	}

	out := make([]candidate, len(all))
	for i, sc := range all {
		out[i] = sc.c
	}
	return out, nil
}

// fuseRRF combines two independently ranked candidate lists by Reciprocal
// Rank Fusion: score = weightFTS/(k+rankFTS) + weightVector/(k+rankVector),
// 1-based ranks, missing from one list contributing nothing from that term.
func fuseRRF(ftsHits, vecHits []candidate, cfg config.SearchSection, limit int) []SearchHit {
	scores := make(map[int64]float64)
	chunks := make(map[int64]candidate)

	for rank, c := range ftsHits {
		scores[c.chunk.ID] += cfg.WeightFTS / float64(cfg.RRFConstant+rank+1)
		chunks[c.chunk.ID] = c
	}
	for rank, c := range vecHits {
		scores[c.chunk.ID] += cfg.WeightVector / float64(cfg.RRFConstant+rank+1)
		if _, ok := chunks[c.chunk.ID]; !ok {
			chunks[c.chunk.ID] = c
		}
	}

	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	hits := make([]SearchHit, len(ids))
	for i, id := range ids {
		c := chunks[id]
		hits[i] = SearchHit{Chunk: c.chunk, PageURL: c.pageURL, PageTitle: c.pageTitle, Score: scores[id]}
	}
	return hits
}
