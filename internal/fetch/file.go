package fetch

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"docsindexer/internal/apperrors"
)

// FileFetcher reads local filesystem paths, used by the Local file scraper
// strategy. MIME is detected from the file extension first, falling back
// to content sniffing the way the teacher's HTTP-facing fetchers rely on
// explicit Content-Type headers first and only sniff as a fallback.
type FileFetcher struct{}

// NewFileFetcher builds a FileFetcher. It holds no state: every call reads
// directly from disk.
func NewFileFetcher() *FileFetcher { return &FileFetcher{} }

func (f *FileFetcher) Fetch(_ context.Context, rawURL string, _ Conditional) (*Result, error) {
	path := strings.TrimPrefix(rawURL, "file://")
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" {
		path = u.Path
	}

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fe := apperrors.NewFetchError(apperrors.FetchKindHTTPStatus, rawURL, err)
			fe.StatusCode = http.StatusNotFound
			return nil, fe
		}
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, rawURL, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	return &Result{
		URL:         rawURL,
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Body:        body,
	}, nil
}
