package scraper

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/fetch"
	"docsindexer/internal/pipeline"
)

// LocalFileStrategy walks a local directory tree, honoring include/exclude
// patterns the same as every other strategy (Seed applies the filter to the
// files it walks).
type LocalFileStrategy struct {
	fetcher fetch.Fetcher
}

// NewLocalFileStrategy builds a Local file strategy over the given
// fetcher (typically an *fetch.FileFetcher).
func NewLocalFileStrategy(fetcher fetch.Fetcher) *LocalFileStrategy {
	return &LocalFileStrategy{fetcher: fetcher}
}

func (s *LocalFileStrategy) Name() string { return "localfile" }

func (s *LocalFileStrategy) CanHandle(input string) bool {
	u, err := url.Parse(input)
	if err == nil && u.Scheme == "file" {
		return true
	}
	info, err := os.Stat(input)
	return err == nil && info.IsDir()
}

// Seed walks the directory recursively, emitting a queue item per regular
// file found; discovery is therefore front-loaded rather than incremental
// (ExtractLinks returns nothing further).
func (s *LocalFileStrategy) Seed(_ context.Context, input string, opts Options) ([]QueueItem, error) {
	root := strings.TrimPrefix(input, "file://")
	// The executor filters only discovered links, never seed items, so the
	// scope/include/exclude filter is applied to the walked files here.
	filter, err := NewURLFilter(opts.Scope, input, opts.IncludePatterns, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	var items []QueueItem
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !filter.Allow("file://"+path) {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		depth := strings.Count(rel, string(filepath.Separator))
		items = append(items, QueueItem{URL: "file://" + path, Depth: depth})
		return nil
	})
	if err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, input, err)
	}
	return items, nil
}

func (s *LocalFileStrategy) Fetch(ctx context.Context, item QueueItem) (*fetch.Result, error) {
	return s.fetcher.Fetch(ctx, item.URL, item.Conditional)
}

// ExtractLinks is a no-op: the directory walk in Seed already enumerated
// every file up front.
func (s *LocalFileStrategy) ExtractLinks(_ context.Context, _ QueueItem, _ *pipeline.Context) ([]QueueItem, error) {
	return nil, nil
}
