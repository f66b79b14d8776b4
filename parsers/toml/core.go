// Package toml chunks TOML files into tables, arrays of tables and
// top-level key/value pairs.
package toml

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tstoml "github.com/smacker/go-tree-sitter/toml"

	"github.com/sevigo/semchunk/parsers/engine"
)

// TomlPlugin treats a table and an array-of-tables element with the same
// key at the same line as one declaration.
type TomlPlugin struct {
	engine.EquivalenceTable
	logger *slog.Logger
}

func NewTomlPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &TomlPlugin{
		EquivalenceTable: engine.NewEquivalenceTable([2]string{"table", "array_table"}),
		logger:           logger,
	}
}

func (p *TomlPlugin) Name() string {
	return "toml"
}

func (p *TomlPlugin) Extensions() []string {
	return []string{".toml"}
}

func (p *TomlPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (p *TomlPlugin) Grammar() *sitter.Language {
	return tstoml.GetLanguage()
}
