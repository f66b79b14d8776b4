// Package typescript chunks TypeScript, TSX and JavaScript sources. The three
// dialects share one set of node handlers and differ only in grammar and
// file extensions.
package typescript

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/sevigo/semchunk/parsers/engine"
)

type dialect struct {
	name       string
	extensions []string
	grammar    func() *sitter.Language
}

var (
	typeScriptDialect = dialect{
		name:       "typescript",
		extensions: []string{".ts", ".mts", ".cts"},
		grammar:    typescript.GetLanguage,
	}
	tsxDialect = dialect{
		name:       "tsx",
		extensions: []string{".tsx"},
		grammar:    tsx.GetLanguage,
	}
	javaScriptDialect = dialect{
		name:       "javascript",
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		grammar:    javascript.GetLanguage,
	}
)

// Plugin implements engine.LanguagePlugin for one ECMAScript dialect.
type Plugin struct {
	engine.EquivalenceTable
	dialect dialect
	logger  *slog.Logger
}

// NewTypeScriptPlugin handles .ts, .mts and .cts files.
func NewTypeScriptPlugin(logger *slog.Logger) engine.LanguagePlugin {
	return newPlugin(typeScriptDialect, logger)
}

// NewTSXPlugin handles .tsx files, which need the JSX-aware grammar.
func NewTSXPlugin(logger *slog.Logger) engine.LanguagePlugin {
	return newPlugin(tsxDialect, logger)
}

// NewJavaScriptPlugin handles .js, .jsx, .mjs and .cjs files.
func NewJavaScriptPlugin(logger *slog.Logger) engine.LanguagePlugin {
	return newPlugin(javaScriptDialect, logger)
}

func newPlugin(d dialect, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plugin{
		EquivalenceTable: engine.NewEquivalenceTable(
			[2]string{"function", "method"},
			[2]string{"anonymous_function", "function"},
		),
		dialect:          d,
		logger:           logger,
	}
}

func (p *Plugin) Name() string {
	return p.dialect.name
}

func (p *Plugin) Extensions() []string {
	return slices.Clone(p.dialect.extensions)
}

func (p *Plugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(p.dialect.extensions, ext)
}

func (p *Plugin) Grammar() *sitter.Language {
	return p.dialect.grammar()
}
