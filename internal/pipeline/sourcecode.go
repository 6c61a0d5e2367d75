package pipeline

import (
	"context"
	"strings"
)

// sourceCodeExtensions maps a file extension to the language name recorded
// in Context.Metadata["language"]; the splitter keys its boundary heuristic
// (declPatterns in splitter/sourcecode.go) off that language name.
var sourceCodeExtensions = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".jsx":  "javascript",
	".tsx":  "typescript",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "shell",
	".sql":  "sql",
}

func sourceCodeExt(url string) string {
	for ext := range sourceCodeExtensions {
		if strings.HasSuffix(url, ext) {
			return ext
		}
	}
	return ""
}

// SourceCodePipeline detects the language from the source URL's extension
// and passes the body through unmodified; boundary detection for splitting
// happens downstream in the splitter.
func SourceCodePipeline() *Pipeline {
	return &Pipeline{
		Name:   "sourcecode",
		Stages: []Middleware{stageDetectLanguage},
	}
}

func stageDetectLanguage(_ context.Context, pc *Context) error {
	if pc.Metadata == nil {
		pc.Metadata = make(map[string]string)
	}
	if ext := sourceCodeExt(pc.SourceURL); ext != "" {
		pc.Metadata["language"] = sourceCodeExtensions[ext]
	} else {
		pc.Metadata["language"] = "text"
	}
	pc.Text = string(pc.Bytes)
	return nil
}
