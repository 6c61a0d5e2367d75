package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength caps source URLs to a sane size, mirroring the DoS-protection
// pattern used across the other validators in this package.
const maxURLLength = 4096

// ValidateLibraryName checks that a library name is a non-empty, lowercase
// identifier. Library names are used as path components in the store and in
// generated archive-scheme URLs, so path separators ('/' and '\') and NUL
// bytes are rejected; other control characters are not checked.
func ValidateLibraryName(name string) error {
	if name == "" {
		return &ValidationError{Field: "library", Message: "library name is required"}
	}
	if name != strings.ToLower(name) {
		return &ValidationError{Field: "library", Message: "library name must be lowercase"}
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{Field: "library", Message: "library name must not contain path separators"}
	}
	return nil
}

// ValidateSourceURL validates the format of a page or job source URL.
// Unlike the teacher's feed-article validator this does not perform a DNS
// lookup or block private networks outright — local network documentation
// sources (intranets, localhost dev servers) are a legitimate scrape target;
// SSRF protection is instead a fetcher-level, per-request decision (see
// internal/fetch.HTTPFetcher) because it must also cover redirect targets.
func ValidateSourceURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	if len(rawURL) > maxURLLength {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength)}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https", "file":
		if parsed.Scheme != "file" && parsed.Host == "" {
			return &ValidationError{Field: "url", Message: "URL must have a valid host"}
		}
	case "archive-scheme", "zip", "tar", "gzip":
		// Synthetic archive-entry URL (<kind>://outer/path!/inner/path, where
		// the archive expander uses zip, tar or gzip as the kind);
		// format enforced by the archive expander that produced it, not here.
	default:
		return &ValidationError{Field: "url", Message: "URL must use http, https, file or an archive-entry scheme"}
	}

	return nil
}
