package parsers

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/sevigo/semchunk/parsers/css"
	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/parsers/golang"
	"github.com/sevigo/semchunk/parsers/html"
	"github.com/sevigo/semchunk/parsers/java"
	"github.com/sevigo/semchunk/parsers/lua"
	"github.com/sevigo/semchunk/parsers/markdown"
	"github.com/sevigo/semchunk/parsers/protobuf"
	"github.com/sevigo/semchunk/parsers/python"
	"github.com/sevigo/semchunk/parsers/rust"
	"github.com/sevigo/semchunk/parsers/terraform"
	"github.com/sevigo/semchunk/parsers/toml"
	"github.com/sevigo/semchunk/parsers/typescript"
	"github.com/sevigo/semchunk/parsers/yaml"
)

// ParserRegistry tracks registered language plugins
type ParserRegistry interface {
	RegisterParser(plugin engine.LanguagePlugin) error
	GetParser(language string) (engine.LanguagePlugin, error)
	GetParserForFile(path string, info fs.FileInfo) (engine.LanguagePlugin, error)
	GetParserForExtension(ext string) (engine.LanguagePlugin, error)
	GetAllParsers() []engine.LanguagePlugin
}

// RegisterLanguagePlugins initializes and populates a language registry
// with the reference plugin set.
func RegisterLanguagePlugins(logger *slog.Logger) (ParserRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := NewRegistry(logger)

	pluginFactories := map[string]func(*slog.Logger) engine.LanguagePlugin{
		"go":         golang.NewGoPlugin,
		"python":     python.NewPythonPlugin,
		"typescript": typescript.NewTypeScriptPlugin,
		"tsx":        typescript.NewTSXPlugin,
		"javascript": typescript.NewJavaScriptPlugin,
		"rust":       rust.NewRustPlugin,
		"java":       java.NewJavaPlugin,
		"lua":        lua.NewLuaPlugin,
		"yaml":       yaml.NewYamlPlugin,
		"terraform":  terraform.NewTerraformPlugin,
		"protobuf":   protobuf.NewProtobufParser,
		"markdown":   markdown.NewMarkdownPlugin,
		"css":        css.NewCSSPlugin,
		"toml":       toml.NewTomlPlugin,
		"html":       html.NewHTMLPlugin,
	}

	pluginsToRegister := make([]string, 0, len(pluginFactories))
	for name := range pluginFactories {
		pluginsToRegister = append(pluginsToRegister, name)
	}
	sort.Strings(pluginsToRegister)

	for _, name := range pluginsToRegister {
		pluginLogger := logger.With("plugin", name)
		plugin := pluginFactories[name](pluginLogger)

		if err := registry.RegisterParser(plugin); err != nil {
			return registry, fmt.Errorf("failed to register plugin %s: %w", name, err)
		}
	}

	logger.Info("Language plugins registered", "count", len(registry.GetAllParsers()))
	return registry, nil
}
