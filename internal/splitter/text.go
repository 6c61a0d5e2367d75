package splitter

import (
	"strconv"
	"strings"

	"docsindexer/internal/domain/chunktype"
)

// SplitText groups blank-line-separated paragraphs into chunks with a
// shallow path (paragraph index), the fallback for content with no
// structural markup to split on.
func SplitText(source string, _ Limits) []RawChunk {
	paragraphs := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n\n")

	var chunks []RawChunk
	idx := 0
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx++
		chunks = append(chunks, RawChunk{
			Content:     p,
			Types:       chunktype.Content,
			SectionPath: "p" + strconv.Itoa(idx),
		})
	}
	return chunks
}
