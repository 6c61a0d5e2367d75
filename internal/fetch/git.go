package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/go-github/v57/github"

	"docsindexer/internal/apperrors"
)

// GitFetcher retrieves file contents from a GitHub-hosted documentation
// source (repository files, wiki pages). The client and resolved default
// branch are cached per process field, consistent with the teacher's
// per-service client fields (e.g. circuitbreaker's one breaker per
// service name).
type GitFetcher struct {
	client *github.Client

	branchMu      sync.Mutex
	defaultBranch map[string]string
}

// NewGitFetcher builds a GitFetcher. token may be empty for unauthenticated
// access to public repositories (subject to GitHub's lower rate limit).
func NewGitFetcher(token string) *GitFetcher {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitFetcher{
		client:        client,
		defaultBranch: make(map[string]string),
	}
}

// Fetch retrieves a file's content from a "github://owner/repo/path"
// synthetic URL, resolving the default branch once per repo per process.
func (f *GitFetcher) Fetch(ctx context.Context, rawURL string, _ Conditional) (*Result, error) {
	owner, repo, path, err := parseGitURL(rawURL)
	if err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, rawURL, err)
	}

	branch, err := f.resolveDefaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, classifyGitHubErr(rawURL, err)
	}

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, owner, repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, classifyGitHubErr(rawURL, err)
	}
	if fileContent == nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, rawURL, fmt.Errorf("path is a directory, not a file"))
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, rawURL, err)
	}

	return &Result{
		URL:         rawURL,
		StatusCode:  http.StatusOK,
		ContentType: contentTypeForPath(path),
		Body:        []byte(content),
	}, nil
}

// ListRepoFiles enumerates every file of the repository's default branch
// (recursively) via the git tree API, used by the Git hosting strategy's Seed to build the initial
// queue without one API call per file.
func (f *GitFetcher) ListRepoFiles(ctx context.Context, owner, repo string) ([]string, error) {
	branch, err := f.resolveDefaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, classifyGitHubErr(fmt.Sprintf("github://%s/%s", owner, repo), err)
	}

	tree, _, err := f.client.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, classifyGitHubErr(fmt.Sprintf("github://%s/%s", owner, repo), err)
	}

	var files []string
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			files = append(files, fmt.Sprintf("github://%s/%s/%s", owner, repo, entry.GetPath()))
		}
	}
	return files, nil
}

func (f *GitFetcher) resolveDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	key := owner + "/" + repo

	f.branchMu.Lock()
	if b, ok := f.defaultBranch[key]; ok {
		f.branchMu.Unlock()
		return b, nil
	}
	f.branchMu.Unlock()

	repoInfo, _, err := f.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	branch := repoInfo.GetDefaultBranch()

	f.branchMu.Lock()
	f.defaultBranch[key] = branch
	f.branchMu.Unlock()

	return branch, nil
}

// parseGitURL parses "github://owner/repo/path/to/file".
func parseGitURL(rawURL string) (owner, repo, path string, err error) {
	trimmed := strings.TrimPrefix(rawURL, "github://")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 {
		return "", "", "", fmt.Errorf("malformed github URL %q", rawURL)
	}
	owner, repo = parts[0], parts[1]
	if len(parts) == 3 {
		path = parts[2]
	}
	return owner, repo, path, nil
}

func contentTypeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".markdown"):
		return "text/markdown"
	case strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm"):
		return "text/html"
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	default:
		return "text/plain"
	}
}

func classifyGitHubErr(url string, err error) error {
	if ghErr, ok := err.(*github.ErrorResponse); ok {
		fe := apperrors.NewFetchError(apperrors.FetchKindHTTPStatus, url, err)
		fe.StatusCode = ghErr.Response.StatusCode
		return fe
	}
	return apperrors.NewFetchError(apperrors.FetchKindNetwork, url, err)
}
