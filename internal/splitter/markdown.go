package splitter

import (
	"strings"

	"docsindexer/internal/domain/chunktype"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// headingEntry tracks one level of the ancestry stack while walking the
// document, so every block can be tagged with its section_path.
type headingEntry struct {
	level int
	text  string
}

// SplitMarkdown walks the Markdown AST at the top level, starting a new
// chunk at every heading (H1-H6) and treating code fences, tables, and
// lists as atomic blocks tagged with their chunktype.
func SplitMarkdown(source string, _ Limits) []RawChunk {
	src := []byte(source)
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var chunks []RawChunk
	var stack []headingEntry

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			for len(stack) > 0 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			headingText := strings.TrimSpace(renderInlineText(node, src))
			stack = append(stack, headingEntry{level: node.Level, text: headingText})
			chunks = append(chunks, RawChunk{
				Content:      blockSource(node, src),
				Types:        chunktype.Structural,
				SectionLevel: node.Level,
				SectionPath:  pathFromStack(stack),
			})
		default:
			content := strings.TrimSpace(blockSource(n, src))
			if content == "" {
				continue
			}
			chunks = append(chunks, RawChunk{
				Content:      content,
				Types:        classifyBlock(n),
				SectionLevel: currentLevel(stack),
				SectionPath:  pathFromStack(stack),
			})
		}
	}

	return chunks
}

// renderInlineText concatenates the literal text of a node's inline
// descendants (the common case for a heading's content: plain text, with
// or without emphasis/links wrapping it).
func renderInlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func pathFromStack(stack []headingEntry) string {
	parts := make([]string, len(stack))
	for i, e := range stack {
		parts[i] = e.text
	}
	return strings.Join(parts, " > ")
}

func currentLevel(stack []headingEntry) int {
	if len(stack) == 0 {
		return 0
	}
	return stack[len(stack)-1].level
}

// classifyBlock tags a top-level non-heading node with the chunk types it
// contains, per spec's "tags list/code/table blocks" rule.
func classifyBlock(n ast.Node) chunktype.Set {
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return chunktype.Code
	case *ast.List:
		return chunktype.List | chunktype.Content
	case *extast.Table:
		return chunktype.Table
	default:
		return chunktype.Content
	}
}

// blockSource reconstructs a node's original Markdown source by unioning
// the line spans of itself and its descendants, since container nodes
// (List, Table, Blockquote) don't expose a contiguous Lines() span of
// their own.
func blockSource(n ast.Node, src []byte) string {
	start, stop, ok := lineRange(n)
	if !ok {
		return ""
	}
	if start < 0 {
		start = 0
	}
	if stop > len(src) {
		stop = len(src)
	}
	if start >= stop {
		return ""
	}
	return string(src[start:stop])
}

type hasLines interface {
	Lines() *text.Segments
}

func lineRange(n ast.Node) (start, stop int, ok bool) {
	start, stop = -1, -1

	if lined, isLined := n.(hasLines); isLined {
		lines := lined.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if start == -1 || seg.Start < start {
				start = seg.Start
			}
			if seg.Stop > stop {
				stop = seg.Stop
			}
		}
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		cStart, cStop, cOk := lineRange(c)
		if !cOk {
			continue
		}
		if start == -1 || cStart < start {
			start = cStart
		}
		if cStop > stop {
			stop = cStop
		}
	}

	if start == -1 {
		return 0, 0, false
	}
	return start, stop, true
}
