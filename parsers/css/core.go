// Package css chunks stylesheets into rule sets and at-rules. Nested rules,
// as written in SCSS or modern CSS, are scoped under their enclosing rule or
// conditional group.
package css

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"

	"github.com/sevigo/semchunk/parsers/engine"
)

type CSSPlugin struct {
	logger *slog.Logger
}

func NewCSSPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSSPlugin{logger: logger}
}

func (p *CSSPlugin) Name() string {
	return "css"
}

func (p *CSSPlugin) Extensions() []string {
	return []string{".css", ".scss"}
}

func (p *CSSPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".css" || ext == ".scss"
}

func (p *CSSPlugin) Grammar() *sitter.Language {
	return css.GetLanguage()
}
