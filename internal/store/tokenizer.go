package store

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenizeQuery walks the query with a quote-toggle state machine: text
// inside a balanced pair of double quotes becomes one phrase token,
// whitespace outside quotes separates word tokens. An unbalanced trailing
// quote is treated as closing at end of input rather than erroring.
func tokenizeQuery(query string) (exact string, tokens []string) {
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			// A quote always ends whatever token preceded it, even with no
			// intervening whitespace (qux"unbalanced" is two tokens, not one).
			flush()
			inQuote = !inQuote
		case !inQuote && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return strings.Join(tokens, " "), tokens
}

// quoteFTSToken safely quotes a token for an FTS5 MATCH expression,
// doubling any embedded double quote per SQLite's string-escaping rule.
func quoteFTSToken(tok string) string {
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}

// buildFTSQuery turns a raw search query into the FTS5 MATCH expression
// spec.md §4.5 specifies: an exact phrase match on the whole query OR'd with
// a match on any individual token, so a multi-word query still finds
// documents containing the words out of order or split across fields.
func buildFTSQuery(query string) string {
	exact, tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return ""
	}

	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = quoteFTSToken(t)
	}

	return fmt.Sprintf("(%s) OR (%s)", quoteFTSToken(exact), strings.Join(quoted, " OR "))
}
