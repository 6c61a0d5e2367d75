package scraper

import (
	"context"
	"strings"

	"docsindexer/internal/fetch"
	"docsindexer/internal/pipeline"
)

// gitFileLister is the subset of *fetch.GitFetcher the strategy needs,
// kept as an interface so tests can substitute a fake.
type gitFileLister interface {
	fetch.Fetcher
	ListRepoFiles(ctx context.Context, owner, repo string) ([]string, error)
}

// GitStrategy enumerates a GitHub repository's files via the host's API
// instead of following in-content links.
type GitStrategy struct {
	git gitFileLister
}

// NewGitStrategy builds a Git hosting strategy.
func NewGitStrategy(git gitFileLister) *GitStrategy {
	return &GitStrategy{git: git}
}

func (s *GitStrategy) Name() string { return "git" }

func (s *GitStrategy) CanHandle(input string) bool {
	return strings.HasPrefix(input, "github://") || strings.HasPrefix(input, "https://github.com/")
}

// Seed enumerates every file in the repository's default branch, emitting
// one queue item per file at depth 0 (a flat enumeration, not a BFS —
// GitHub's tree API already gives the full file list up front).
func (s *GitStrategy) Seed(ctx context.Context, input string, _ Options) ([]QueueItem, error) {
	owner, repo, err := parseGitHubInput(input)
	if err != nil {
		return nil, err
	}

	files, err := s.git.ListRepoFiles(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(files))
	for _, f := range files {
		items = append(items, QueueItem{URL: f, Depth: 0})
	}
	return items, nil
}

func parseGitHubInput(input string) (owner, repo string, err error) {
	trimmed := strings.TrimPrefix(input, "github://")
	trimmed = strings.TrimPrefix(trimmed, "https://github.com/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 {
		return "", "", errMalformedGitHubInput(input)
	}
	return parts[0], parts[1], nil
}

type malformedGitHubInputErr struct{ input string }

func (e malformedGitHubInputErr) Error() string { return "malformed github input: " + e.input }

func errMalformedGitHubInput(input string) error { return malformedGitHubInputErr{input} }

func (s *GitStrategy) Fetch(ctx context.Context, item QueueItem) (*fetch.Result, error) {
	return s.git.Fetch(ctx, item.URL, item.Conditional)
}

// ExtractLinks is a no-op: Seed's tree enumeration already found every
// file up front.
func (s *GitStrategy) ExtractLinks(_ context.Context, _ QueueItem, _ *pipeline.Context) ([]QueueItem, error) {
	return nil, nil
}
