package splitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"docsindexer/internal/domain/chunktype"
)

// SplitJSON splits at object/property boundaries using the standard
// streaming token decoder, producing a chunk per top-level property (or
// array element) with a path like "[foo, bar, 3]". An object or array that
// would exceed MaxChunkSize on its own is split further, one chunk per
// child, recursively; a scalar is emitted whole even when it exceeds it.
func SplitJSON(source []byte, limits Limits) []RawChunk {
	dec := json.NewDecoder(bytes.NewReader(source))
	var chunks []RawChunk
	collectJSONChunks(dec, nil, limits, &chunks)
	return chunks
}

// collectJSONChunks decodes one JSON value (object, array, or scalar) at
// the decoder's current position, emitting one RawChunk per direct child
// of an object/array when the rendered value is small enough, else
// recursing into that child.
func collectJSONChunks(dec *json.Decoder, path []string, limits Limits, out *[]RawChunk) {
	tok, err := dec.Token()
	if err != nil {
		return
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return
				}
				key, _ := keyTok.(string)
				childPath := append(append([]string{}, path...), key)
				emitOrRecurse(dec, childPath, limits, out)
			}
			_, _ = dec.Token() // consume '}'
		case '[':
			idx := 0
			for dec.More() {
				childPath := append(append([]string{}, path...), fmt.Sprintf("%d", idx))
				emitOrRecurse(dec, childPath, limits, out)
				idx++
			}
			_, _ = dec.Token() // consume ']'
		}
	}
}

// emitOrRecurse decodes the value at the decoder's current position raw,
// and either emits it as one chunk (it fits under MaxChunkSize) or, if it
// is itself an object/array too large to fit, recurses into its children
// instead.
func emitOrRecurse(dec *json.Decoder, path []string, limits Limits, out *[]RawChunk) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return
	}
	rendered := string(raw)
	fitsLimit := limits.MaxChunkSize <= 0 || len(rendered) <= limits.MaxChunkSize
	trimmed := strings.TrimSpace(rendered)
	isContainer := len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')

	if fitsLimit || !isContainer {
		*out = append(*out, RawChunk{
			Content:     rendered,
			Types:       chunktype.Content,
			SectionPath: "[" + strings.Join(path, ", ") + "]",
		})
		return
	}

	innerDec := json.NewDecoder(bytes.NewReader(raw))
	collectJSONChunks(innerDec, path, limits, out)
}
