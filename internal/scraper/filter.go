package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// URLFilter implements the composite predicate shared by every strategy:
// scope ∧ include patterns ∧ ¬exclude patterns, where user-supplied
// patterns replace the defaults entirely rather than adding to them.
type URLFilter struct {
	scope    ScopeMode
	root     *url.URL
	includes []compiledPattern
	excludes []compiledPattern
}

type compiledPattern struct {
	raw   string
	regex *regexp.Regexp // non-nil for regex patterns; nil means glob
}

// defaultExcludePatterns are applied only when the caller supplies no
// patterns of their own.
var defaultExcludePatterns = []string{"**/*.{png,jpg,jpeg,gif,svg,ico,woff,woff2,ttf,eot,mp4,zip,pdf}"}

// NewURLFilter builds a filter scoped to rootURL using the given include
// and exclude pattern lists. A pattern beginning and ending with "/" is
// treated as a regular expression (stripped of the slashes); anything else
// is a glob matched with doublestar against the URL's path.
func NewURLFilter(scope ScopeMode, rootURL string, includes, excludes []string) (*URLFilter, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, err
	}

	if len(excludes) == 0 {
		excludes = defaultExcludePatterns
	}

	compiledIncludes, err := compilePatterns(includes)
	if err != nil {
		return nil, err
	}
	compiledExcludes, err := compilePatterns(excludes)
	if err != nil {
		return nil, err
	}

	return &URLFilter{
		scope:    scope,
		root:     root,
		includes: compiledIncludes,
		excludes: compiledExcludes,
	}, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		if strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/") && len(p) > 1 {
			re, err := regexp.Compile(p[1 : len(p)-1])
			if err != nil {
				return nil, err
			}
			out = append(out, compiledPattern{raw: p, regex: re})
			continue
		}
		out = append(out, compiledPattern{raw: p})
	}
	return out, nil
}

// Allow reports whether candidateURL passes scope, then include, then
// exclude. llms.txt files are unconditionally excluded regardless of user
// patterns, per spec.md §4.3.
func (f *URLFilter) Allow(candidateURL string) bool {
	if strings.HasSuffix(candidateURL, "/llms.txt") || strings.HasSuffix(candidateURL, "llms.txt") {
		return false
	}

	u, err := url.Parse(candidateURL)
	if err != nil {
		return false
	}
	if !f.inScope(u) {
		return false
	}
	if len(f.includes) > 0 && !matchesAny(f.includes, u) {
		return false
	}
	if matchesAny(f.excludes, u) {
		return false
	}
	return true
}

func (f *URLFilter) inScope(u *url.URL) bool {
	switch f.scope {
	case ScopeAny:
		return true
	case ScopeHostname:
		return u.Hostname() == f.root.Hostname()
	case ScopeDomain:
		return registrableDomain(u.Hostname()) == registrableDomain(f.root.Hostname())
	default: // ScopeSubpages
		return u.Hostname() == f.root.Hostname() && strings.HasPrefix(u.Path, rootDir(f.root.Path))
	}
}

// rootDir returns the directory a root path lives in, so "subpages" scope
// means "under the same path prefix" rather than requiring an exact match.
func rootDir(p string) string {
	if p == "" || strings.HasSuffix(p, "/") {
		return p
	}
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx+1]
}

// registrableDomain is a pragmatic last-two-labels approximation (no public
// suffix list dependency appears anywhere in the corpus); good enough for
// typical *.example.com documentation hosting without special-casing
// multi-part TLDs.
func registrableDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

func matchesAny(patterns []compiledPattern, u *url.URL) bool {
	for _, p := range patterns {
		if p.regex != nil {
			if p.regex.MatchString(u.String()) {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p.raw, strings.TrimPrefix(u.Path, "/")); ok {
			return true
		}
	}
	return false
}
