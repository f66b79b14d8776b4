package python

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/sevigo/semchunk/parsers/engine"
)

// PythonPlugin chunks Python modules into imports, classes, functions and
// methods.
type PythonPlugin struct {
	engine.EquivalenceTable
	logger *slog.Logger
}

func NewPythonPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &PythonPlugin{
		EquivalenceTable: engine.NewEquivalenceTable([2]string{"function", "method"}),
		logger:           logger,
	}
}

func (p *PythonPlugin) Name() string {
	return "python"
}

func (p *PythonPlugin) Extensions() []string {
	return []string{".py", ".pyi"}
}

func (p *PythonPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(p.Extensions(), ext)
}

func (p *PythonPlugin) Grammar() *sitter.Language {
	return python.GetLanguage()
}

// visibility follows the leading-underscore convention.
func visibility(name string) string {
	if strings.HasPrefix(name, "_") && !isDunder(name) {
		return "private"
	}
	return "public"
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
