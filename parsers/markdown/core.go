// Package markdown chunks Markdown documents into nested heading sections,
// fenced code blocks and YAML front matter.
package markdown

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsmarkdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/sevigo/semchunk/parsers/engine"
)

const frontMatterSeparator = "---"

// MarkdownPlugin implements engine.LanguagePlugin for Markdown files. The
// block grammar drives chunking; goldmark drives metadata extraction.
type MarkdownPlugin struct {
	logger   *slog.Logger
	markdown goldmark.Markdown
}

// NewMarkdownPlugin creates a new Markdown language plugin with goldmark
func NewMarkdownPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkdownPlugin{
		logger:   logger,
		markdown: newGoldmark(),
	}
}

func newGoldmark() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// Name returns "markdown" as the language name
func (p *MarkdownPlugin) Name() string {
	return "markdown"
}

// Extensions returns file extensions for Markdown
func (p *MarkdownPlugin) Extensions() []string {
	return []string{".md", ".markdown"}
}

// CanHandle determines if this plugin can process the given file
func (p *MarkdownPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func (p *MarkdownPlugin) Grammar() *sitter.Language {
	return tsmarkdown.GetLanguage()
}
