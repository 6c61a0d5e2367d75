package pipeline

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatterPattern matches a leading YAML front-matter block delimited by
// "---" lines, the convention the rest of the corpus's yaml.v3 usage
// already assumes for config files.
var frontMatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// markdownLinkPattern matches inline Markdown links: [text](target).
var markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// MarkdownPipeline extracts front matter, resolves links, and otherwise
// passes the body through unchanged.
func MarkdownPipeline() *Pipeline {
	return &Pipeline{
		Name: "markdown",
		Stages: []Middleware{
			stageExtractFrontMatter,
			stageMarkdownLinks,
		},
	}
}

func stageExtractFrontMatter(_ context.Context, pc *Context) error {
	text := string(pc.Bytes)
	if pc.Metadata == nil {
		pc.Metadata = make(map[string]string)
	}

	if m := frontMatterPattern.FindStringSubmatch(text); m != nil {
		var fm map[string]interface{}
		if err := yaml.Unmarshal([]byte(m[1]), &fm); err == nil {
			for k, v := range fm {
				if s, ok := v.(string); ok {
					pc.Metadata[k] = s
				}
			}
			if title, ok := pc.Metadata["title"]; ok {
				pc.Title = title
			}
		}
		text = text[len(m[0]):]
	}

	pc.Text = text
	return nil
}

func stageMarkdownLinks(_ context.Context, pc *Context) error {
	base, err := url.Parse(pc.SourceURL)
	if err != nil {
		return nil
	}
	matches := markdownLinkPattern.FindAllStringSubmatch(pc.Text, -1)
	for _, m := range matches {
		target := strings.TrimSpace(m[2])
		resolved := resolveLink(base, target)
		if resolved != "" {
			pc.AddLink(resolved)
		}
	}
	return nil
}
