package java

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/sevigo/semchunk/parsers/engine"
)

type JavaPlugin struct {
	engine.EquivalenceTable
	logger *slog.Logger
}

func NewJavaPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &JavaPlugin{
		EquivalenceTable: engine.NewEquivalenceTable([2]string{"method", "constructor"}),
		logger:           logger,
	}
}

func (p *JavaPlugin) Name() string {
	return "java"
}

func (p *JavaPlugin) Extensions() []string {
	return []string{".java"}
}

func (p *JavaPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".java")
}

func (p *JavaPlugin) Grammar() *sitter.Language {
	return java.GetLanguage()
}
