package splitter

import "strings"

// Optimize merges adjacent phase-1 chunks toward limits.PreferredChunkSize,
// enforcing, in priority order:
//
//  1. Hard ceiling — a merge that would exceed MaxChunkSize is rejected;
//     the accumulator is emitted and a new one started with the rejected
//     chunk.
//  2. Structure wins over size — if the next chunk opens a major section
//     (level 1 or 2) outside the accumulator's current section and the
//     accumulator already meets MinChunkSize, it is emitted rather than
//     merged across the boundary.
//  3. Size-minimum rule — while the accumulator is below MinChunkSize,
//     merge unconditionally (still subject to rule 1).
func Optimize(chunks []RawChunk, limits Limits) []RawChunk {
	if len(chunks) == 0 {
		return nil
	}

	out := make([]RawChunk, 0, len(chunks))
	acc := chunks[0]

	for i := 1; i < len(chunks); i++ {
		next := chunks[i]
		merged, size := mergePreview(acc, next)

		if size > limits.MaxChunkSize {
			out = append(out, acc)
			acc = next
			continue
		}

		if isMajorSectionBoundary(acc, next) && len(acc.Content) >= limits.MinChunkSize {
			out = append(out, acc)
			acc = next
			continue
		}

		if len(acc.Content) < limits.MinChunkSize {
			acc = merged
			continue
		}

		// Neither forced to merge nor forbidden: merge toward the
		// preferred size only while the merged chunk stays within it.
		if size <= limits.PreferredChunkSize {
			acc = merged
			continue
		}

		out = append(out, acc)
		acc = next
	}
	out = append(out, acc)
	return out
}

// mergePreview fuses two chunks' metadata per the merge rule (level =
// min(levels); path = longest common prefix or the descendant path; types
// = union) and returns the merged chunk plus its resulting size — the
// newline separator inserted between them counts toward the ceiling check.
func mergePreview(a, b RawChunk) (RawChunk, int) {
	sep := ""
	if a.Content != "" && !strings.HasSuffix(a.Content, "\n") {
		sep = "\n"
	}
	content := a.Content + sep + b.Content

	level := minSectionLevel(a.SectionLevel, b.SectionLevel)

	merged := RawChunk{
		Content:      content,
		Types:        a.Types.Union(b.Types),
		SectionLevel: level,
		SectionPath:  mergeSectionPath(a.SectionPath, b.SectionPath),
	}
	return merged, len(content)
}

// minSectionLevel returns the more-major (smaller, non-zero) of two
// levels; 0 means "no enclosing section" and loses to any real level.
func minSectionLevel(a, b int) int {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

// mergeSectionPath computes the longest common ancestor path between two
// section paths, or the descendant path if one is a prefix of the other.
func mergeSectionPath(a, b string) string {
	if a == b {
		return a
	}
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if strings.HasPrefix(b, a) {
		return b
	}
	if strings.HasPrefix(a, b) {
		return a
	}

	aParts := strings.Split(a, " > ")
	bParts := strings.Split(b, " > ")
	var common []string
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			break
		}
		common = append(common, aParts[i])
	}
	return strings.Join(common, " > ")
}

// isMajorSectionBoundary reports whether next opens a level-1 or level-2
// section that is not within acc's current section.
func isMajorSectionBoundary(acc, next RawChunk) bool {
	if next.SectionLevel != 1 && next.SectionLevel != 2 {
		return false
	}
	if acc.SectionPath == "" {
		return true
	}
	if next.SectionPath == acc.SectionPath {
		return false
	}
	return !strings.HasPrefix(next.SectionPath, acc.SectionPath+" > ")
}
