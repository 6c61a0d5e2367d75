package splitter

import (
	"regexp"
	"strings"

	"docsindexer/internal/domain/chunktype"
)

// declPatterns maps a language to the regexes that mark the start of a
// top-level function/class/module declaration. This is a line/brace
// heuristic, not a grammar — a deliberate scope reduction from full
// tree-sitter-style parsing (no such grammar library appears anywhere in
// the corpus).
var declPatterns = map[string][]*regexp.Regexp{
	"go":         {regexp.MustCompile(`^func\s`), regexp.MustCompile(`^type\s+\w+\s+(struct|interface)\b`)},
	"python":     {regexp.MustCompile(`^(def|class)\s`)},
	"javascript": {regexp.MustCompile(`^(function|class)\s`), regexp.MustCompile(`^(export\s+)?(async\s+)?function\s`)},
	"typescript": {regexp.MustCompile(`^(export\s+)?(default\s+)?(class|function|interface)\s`)},
	"java":       {regexp.MustCompile(`^\s*(public|private|protected)?\s*(static\s+)?(class|interface|void|[\w<>\[\]]+)\s+\w+\s*\(`)},
	"rust":       {regexp.MustCompile(`^(pub\s+)?(fn|struct|impl|enum|trait)\s`)},
	"ruby":       {regexp.MustCompile(`^(def|class|module)\s`)},
}

// SplitSourceCode splits at declaration boundaries keyed off the detected
// language, emitting a structural scaffolding chunk for the code that
// precedes the first declaration (imports, package header) and one Code
// chunk per declaration body.
func SplitSourceCode(source, language string, _ Limits) []RawChunk {
	patterns := declPatterns[language]
	lines := strings.Split(source, "\n")

	if len(patterns) == 0 {
		return []RawChunk{{Content: source, Types: chunktype.Code}}
	}

	var chunks []RawChunk
	var cur []string
	curIsDecl := false
	curName := ""

	flush := func() {
		if len(cur) == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(cur, "\n"), "\n")
		if content == "" {
			cur = nil
			return
		}
		types := chunktype.Structural
		if curIsDecl {
			types = chunktype.Code
		}
		chunks = append(chunks, RawChunk{
			Content:     content,
			Types:       types,
			SectionPath: curName,
		})
		cur = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		isDeclStart := false
		for _, p := range patterns {
			if p.MatchString(trimmed) {
				isDeclStart = true
				break
			}
		}
		if isDeclStart {
			flush()
			curIsDecl = true
			curName = declName(trimmed)
		}
		cur = append(cur, line)
	}
	flush()

	return chunks
}

// declName extracts a short identifier from a declaration line for use as
// a section path; falls back to the trimmed line itself when no
// identifier pattern matches.
func declName(line string) string {
	re := regexp.MustCompile(`\b(func|def|class|fn|struct|impl|enum|trait|module|interface|function)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	if m := re.FindStringSubmatch(line); m != nil {
		return m[2]
	}
	if len(line) > 60 {
		return line[:60]
	}
	return line
}
