package golang

import (
	"go/ast"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/sevigo/semchunk/parsers/engine"
)

type GoPlugin struct {
	logger *slog.Logger
}

func NewGoPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoPlugin{
		logger: logger,
	}
}

func (p *GoPlugin) Name() string {
	return "go"
}

func (p *GoPlugin) Extensions() []string {
	return []string{".go"}
}

func (p *GoPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".go")
}

func (p *GoPlugin) Grammar() *sitter.Language {
	return golang.GetLanguage()
}

// getVisibility determines if a Go identifier is public or private
func (p *GoPlugin) getVisibility(name string) string {
	if ast.IsExported(name) {
		return "public"
	}
	return "private"
}
