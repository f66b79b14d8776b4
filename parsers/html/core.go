// Package html chunks markup documents: HTML pages, XHTML, XML and SVG.
// Landmark elements, elements carrying an id, custom elements and the root
// element become constructs; inline scripts and styles are kept whole.
package html

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tshtml "github.com/smacker/go-tree-sitter/html"

	"github.com/sevigo/semchunk/parsers/engine"
)

var extensions = []string{".html", ".htm", ".xhtml", ".xml", ".svg"}

type HTMLPlugin struct {
	logger *slog.Logger
}

func NewHTMLPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLPlugin{logger: logger}
}

func (p *HTMLPlugin) Name() string {
	return "html"
}

func (p *HTMLPlugin) Extensions() []string {
	return slices.Clone(extensions)
}

func (p *HTMLPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

func (p *HTMLPlugin) Grammar() *sitter.Language {
	return tshtml.GetLanguage()
}
