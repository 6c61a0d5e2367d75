package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/fetch"
	"docsindexer/internal/pipeline"
)

// RegistryStrategy resolves a package's canonical documentation entry
// point from an npm or PyPI registry and delegates everything else — BFS
// discovery, fetching, link extraction — to a Web strategy, per spec.md
// §4.3 ("delegate to the Web strategy rules").
type RegistryStrategy struct {
	registryFetcher fetch.Fetcher
	web             *WebStrategy
}

// NewRegistryStrategy builds a Registry strategy. registryFetcher talks to
// the registry's JSON metadata API; web handles the resolved documentation
// URL once found.
func NewRegistryStrategy(registryFetcher fetch.Fetcher, web *WebStrategy) *RegistryStrategy {
	return &RegistryStrategy{registryFetcher: registryFetcher, web: web}
}

func (s *RegistryStrategy) Name() string { return "registry" }

func (s *RegistryStrategy) CanHandle(input string) bool {
	return strings.HasPrefix(input, "npm:") || strings.HasPrefix(input, "pypi:")
}

// Seed resolves the package's documentation homepage from registry
// metadata, then seeds exactly that URL at depth 0 for the Web strategy to
// take over from.
func (s *RegistryStrategy) Seed(ctx context.Context, input string, opts Options) ([]QueueItem, error) {
	metadataURL, pkg, err := registryMetadataURL(input)
	if err != nil {
		return nil, err
	}

	result, err := s.registryFetcher.Fetch(ctx, metadataURL, fetch.Conditional{})
	if err != nil {
		return nil, err
	}

	docsURL, err := extractDocsURL(input, result.Body)
	if err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, pkg, err)
	}

	return s.web.Seed(ctx, docsURL, opts)
}

func registryMetadataURL(input string) (metadataURL, pkg string, err error) {
	switch {
	case strings.HasPrefix(input, "npm:"):
		pkg = strings.TrimPrefix(input, "npm:")
		return fmt.Sprintf("https://registry.npmjs.org/%s", pkg), pkg, nil
	case strings.HasPrefix(input, "pypi:"):
		pkg = strings.TrimPrefix(input, "pypi:")
		return fmt.Sprintf("https://pypi.org/pypi/%s/json", pkg), pkg, nil
	default:
		return "", "", fmt.Errorf("unrecognized registry input %q", input)
	}
}

type npmMetadata struct {
	Homepage string `json:"homepage"`
	Repository struct {
		URL string `json:"url"`
	} `json:"repository"`
}

type pypiMetadata struct {
	Info struct {
		HomePage   string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

func extractDocsURL(input string, body []byte) (string, error) {
	if strings.HasPrefix(input, "npm:") {
		var meta npmMetadata
		if err := json.Unmarshal(body, &meta); err != nil {
			return "", err
		}
		if meta.Homepage != "" {
			return meta.Homepage, nil
		}
		if meta.Repository.URL != "" {
			return meta.Repository.URL, nil
		}
		return "", fmt.Errorf("no homepage or repository URL in npm metadata")
	}

	var meta pypiMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", err
	}
	for _, key := range []string{"Documentation", "documentation", "Docs", "docs"} {
		if u, ok := meta.Info.ProjectURLs[key]; ok {
			return u, nil
		}
	}
	if meta.Info.HomePage != "" {
		return meta.Info.HomePage, nil
	}
	return "", fmt.Errorf("no documentation URL in PyPI metadata")
}

func (s *RegistryStrategy) Fetch(ctx context.Context, item QueueItem) (*fetch.Result, error) {
	return s.web.Fetch(ctx, item)
}

func (s *RegistryStrategy) ExtractLinks(ctx context.Context, item QueueItem, pc *pipeline.Context) ([]QueueItem, error) {
	return s.web.ExtractLinks(ctx, item, pc)
}
