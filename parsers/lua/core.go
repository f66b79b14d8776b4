package lua

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/lua"

	"github.com/sevigo/semchunk/parsers/engine"
)

type LuaPlugin struct {
	engine.EquivalenceTable
	logger *slog.Logger
}

func NewLuaPlugin(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &LuaPlugin{
		EquivalenceTable: engine.NewEquivalenceTable(
			[2]string{"local_table", "table"},
			[2]string{"local_function", "function"},
		),
		logger: logger,
	}
}

func (p *LuaPlugin) Name() string {
	return "lua"
}

func (p *LuaPlugin) Extensions() []string {
	return []string{".lua"}
}

func (p *LuaPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".lua")
}

func (p *LuaPlugin) Grammar() *sitter.Language {
	return lua.GetLanguage()
}
