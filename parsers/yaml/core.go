package yaml

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsyaml "github.com/smacker/go-tree-sitter/yaml"

	"github.com/sevigo/semchunk/parsers/engine"
)

type YamlPlugin struct {
	engine.EquivalenceTable
	logger *slog.Logger
}

func NewYamlPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &YamlPlugin{
		EquivalenceTable: engine.NewEquivalenceTable([2]string{"mapping", "pair"}),
		logger:           logger,
	}
}

func (p *YamlPlugin) Name() string {
	return "yaml"
}

func (p *YamlPlugin) Extensions() []string {
	return []string{".yaml", ".yml"}
}

func (p *YamlPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func (p *YamlPlugin) Grammar() *sitter.Language {
	return tsyaml.GetLanguage()
}
