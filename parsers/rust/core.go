package rust

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/sevigo/semchunk/parsers/engine"
)

type RustPlugin struct {
	engine.EquivalenceTable
	logger *slog.Logger
}

func NewRustPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &RustPlugin{
		EquivalenceTable: engine.NewEquivalenceTable([2]string{"function", "method"}),
		logger:           logger,
	}
}

func (p *RustPlugin) Name() string {
	return "rust"
}

func (p *RustPlugin) Extensions() []string {
	return []string{".rs"}
}

func (p *RustPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".rs")
}

func (p *RustPlugin) Grammar() *sitter.Language {
	return rust.GetLanguage()
}
