package scraper

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
)

// ArchiveKind names which expander handles a fetched body (spec.md §4.1's
// "Archive expanders"). Detected from content type first, URL suffix
// second.
type ArchiveKind string

const (
	ArchiveKindNone ArchiveKind = ""
	ArchiveKindZip  ArchiveKind = "zip"
	ArchiveKindTar  ArchiveKind = "tar"
	ArchiveKindGzip ArchiveKind = "gzip"
)

// DetectArchiveKind inspects a fetch result's content type and URL to
// decide whether it should be expanded rather than piped through the
// normal content pipeline.
func DetectArchiveKind(contentType, url string) ArchiveKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/zip"):
		return ArchiveKindZip
	case strings.Contains(ct, "application/x-tar"):
		return ArchiveKindTar
	case strings.Contains(ct, "application/gzip"), strings.Contains(ct, "application/x-gzip"):
		return ArchiveKindGzip
	}

	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return ArchiveKindZip
	case strings.HasSuffix(lower, ".tar"):
		return ArchiveKindTar
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".gz"):
		return ArchiveKindGzip
	}
	return ArchiveKindNone
}

// archiveEntrySeparator is the separator joining an outer archive URL to one
// of its inner entries, per spec.md §4.1's
// "archive-scheme://outer/path!/inner/path".
const archiveEntrySeparator = "!/"

// archiveEntryURL builds the synthetic URL identifying one inner entry.
func archiveEntryURL(kind ArchiveKind, outerURL, entryName string) string {
	return fmt.Sprintf("%s://%s%s%s", kind, outerURL, archiveEntrySeparator, entryName)
}

// parseArchiveEntryURL splits a synthetic entry URL back into its kind,
// outer archive URL, and inner entry name. ok is false for any ordinary URL.
func parseArchiveEntryURL(rawURL string) (kind ArchiveKind, outerURL, entryName string, ok bool) {
	schemeSep := "://"
	si := strings.Index(rawURL, schemeSep)
	if si < 0 {
		return "", "", "", false
	}
	scheme := ArchiveKind(rawURL[:si])
	switch scheme {
	case ArchiveKindZip, ArchiveKindTar, ArchiveKindGzip:
	default:
		return "", "", "", false
	}
	rest := rawURL[si+len(schemeSep):]
	ei := strings.Index(rest, archiveEntrySeparator)
	if ei < 0 {
		return "", "", "", false
	}
	return scheme, rest[:ei], rest[ei+len(archiveEntrySeparator):], true
}

// archiveEntry is one expanded file within an archive, ready to be piped
// through the content pipeline like any other fetched body.
type archiveEntry struct {
	Name string
	Body []byte
}

// expandArchive enumerates body's inner entries for kind, rejecting any
// entry whose name would escape the archive root (no path traversal, per
// spec.md §4.1).
func expandArchive(kind ArchiveKind, body []byte) ([]archiveEntry, error) {
	switch kind {
	case ArchiveKindZip:
		return expandZip(body)
	case ArchiveKindTar:
		return expandTar(bytes.NewReader(body))
	case ArchiveKindGzip:
		return expandGzip(body)
	default:
		return nil, fmt.Errorf("unsupported archive kind %q", kind)
	}
}

func expandZip(body []byte) ([]archiveEntry, error) {
	r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var entries []archiveEntry
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, safe := safeEntryName(f.Name)
		if !safe {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			continue
		}
		entries = append(entries, archiveEntry{Name: name, Body: data})
	}
	return entries, nil
}

func expandTar(r io.Reader) ([]archiveEntry, error) {
	tr := tar.NewReader(r)
	var entries []archiveEntry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name, safe := safeEntryName(hdr.Name)
		if !safe {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			continue
		}
		entries = append(entries, archiveEntry{Name: name, Body: data})
	}
	return entries, nil
}

// expandGzip decompresses body and, when the decompressed stream is itself
// a tar (the common .tar.gz/.tgz case), expands it the same way expandTar
// does; otherwise it yields the single decompressed file.
func expandGzip(body []byte) ([]archiveEntry, error) {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	decompressed, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress gzip: %w", err)
	}

	if entries, err := expandTar(bytes.NewReader(decompressed)); err == nil && len(entries) > 0 {
		return entries, nil
	}

	name := strings.TrimSuffix(gz.Name, ".tar")
	if name == "" {
		name = "content"
	}
	return []archiveEntry{{Name: name, Body: decompressed}}, nil
}

// safeEntryName cleans an archive member's path and rejects anything that
// would escape the archive root: absolute paths, "../" traversal, or an
// empty name after cleaning.
func safeEntryName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	cleaned := path.Clean("/" + name)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}
