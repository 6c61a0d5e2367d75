package entity

import "time"

// Version is a named collection of pages within a Library. The empty string
// names the unversioned default collection and sorts as "latest" in
// queryLibraryVersions. (library, version) is unique.
type Version struct {
	ID        int64
	LibraryID int64
	Version   string // "" for the unversioned collection

	Status   VersionStatus
	Progress Progress
	LastError string

	SourceURL string

	// ScraperOptionsSnapshot is the serialized (YAML) ScraperOptions used for
	// the version's most recent scrape, persisted so a later refresh can
	// reproduce it without the caller re-specifying every option.
	ScraperOptionsSnapshot string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the version is well-formed before it is persisted.
// The version string itself has no format requirement — spec.md treats any
// string, including the empty string, as valid.
func (v *Version) Validate() error {
	if !v.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown version status: " + string(v.Status)}
	}
	return nil
}

// DisplayVersion returns the version string, substituting a human-readable
// label for the unversioned default so UIs never render an empty cell.
func (v *Version) DisplayVersion() string {
	if v.Version == "" {
		return "(unversioned)"
	}
	return v.Version
}

// VersionSummary is the read model returned by queryLibraryVersions: a
// version joined with its aggregated document statistics.
type VersionSummary struct {
	Library          string
	Version          string
	Status           VersionStatus
	Progress         Progress
	LastError        string
	SourceURL        string
	DocumentCount    int64
	DistinctURLCount int64
	FirstIndexedAt   *time.Time
}
