package store

import (
	"context"
	"errors"
	"fmt"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/splitter"
)

// embedChunks computes one embedding per chunk, or returns (nil, nil) if no
// embedding provider is available — the store stays FTS-only in that case
// (spec.md §4.5).
func (s *Store) embedChunks(ctx context.Context, title, pageURL string, chunks []splitter.RawChunk) ([][]float32, error) {
	if !s.embedder.Available() || len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = metadataHeader(title, pageURL, c.SectionPath) + c.Content
	}

	return s.embedBatched(ctx, texts)
}

// metadataHeader is prepended to a chunk's body before embedding, so the
// vector captures page-level context a bare chunk would lose.
func metadataHeader(title, url, path string) string {
	return fmt.Sprintf("<title>%s</title><url>%s</url><path>%s</path>", title, url, path)
}

// embedBatched groups texts into provider requests capped by count and
// total characters (internal/config.EmbedSection's BatchMaxChunks/
// BatchMaxChars), embedding each batch in turn.
func (s *Store) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, 0, len(texts))
	for _, batch := range splitIntoBatches(texts, s.embedCfg.BatchMaxChunks, s.embedCfg.BatchMaxChars) {
		vecs, err := s.embedWithSplitRetry(ctx, batch)
		if err != nil {
			return nil, err
		}
		result = append(result, vecs...)
	}
	return result, nil
}

func splitIntoBatches(texts []string, maxCount, maxChars int) [][]string {
	var batches [][]string
	var cur []string
	curChars := 0

	for _, t := range texts {
		if len(cur) > 0 && (len(cur) >= maxCount || curChars+len(t) > maxChars) {
			batches = append(batches, cur)
			cur = nil
			curChars = 0
		}
		cur = append(cur, t)
		curChars += len(t)
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// embedWithSplitRetry embeds one batch, and on an "input too large" class of
// provider error splits the batch in half and retries each half
// recursively; a single text that is still too large on its own is split in
// half and only the first half is retried (spec.md §4.5).
func (s *Store) embedWithSplitRetry(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := s.embedder.Embed(ctx, texts)
	if err == nil {
		return vecs, nil
	}
	if !isTooLargeErr(err) {
		return nil, err
	}

	if len(texts) == 1 {
		halved := texts[0][:len(texts[0])/2]
		vecs, err := s.embedder.Embed(ctx, []string{halved})
		if err != nil {
			return nil, err
		}
		return vecs, nil
	}

	mid := len(texts) / 2
	left, err := s.embedWithSplitRetry(ctx, texts[:mid])
	if err != nil {
		return nil, err
	}
	right, err := s.embedWithSplitRetry(ctx, texts[mid:])
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func isTooLargeErr(err error) bool {
	var embedErr *apperrors.EmbedError
	if errors.As(err, &embedErr) {
		return embedErr.Kind() == apperrors.EmbedKindInvalidInput
	}
	return false
}
