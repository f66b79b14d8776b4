package parsers_test

import (
	"io/fs"
	"sort"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers"
	"github.com/sevigo/semchunk/parsers/engine"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
)

type stubPlugin struct {
	name string
	exts []string
}

func (s stubPlugin) Name() string        { return s.name }
func (s stubPlugin) Extensions() []string { return s.exts }

func (s stubPlugin) CanHandle(path string, _ fs.FileInfo) bool { return path == "Makefile" }

func (s stubPlugin) Grammar() *sitter.Language { return nil }

func (s stubPlugin) ExtractFileLevelConstructs(*engine.Traversal, *sitter.Node) {}

func (s stubPlugin) HandleNode(*engine.Traversal, *sitter.Node, string) {}

func (s stubPlugin) ShouldSkipDefaultTraversal(string) bool { return false }

func (s stubPlugin) ExtractFromMalformedRegion(string, int, []string) []schema.Construct {
	return nil
}

func (s stubPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	return engine.WholeFileChunk(s.name, content, path)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	registry := parsers.NewRegistry(log)

	require.NoError(t, registry.RegisterParser(stubPlugin{name: "make", exts: []string{"MK", ".mak"}}))

	t.Run("ByName", func(t *testing.T) {
		plugin, err := registry.GetParser("make")
		require.NoError(t, err)
		assert.Equal(t, "make", plugin.Name())
	})

	t.Run("ExtensionIsNormalized", func(t *testing.T) {
		for _, ext := range []string{".mk", "mk", ".MK", "mak"} {
			plugin, err := registry.GetParserForExtension(ext)
			require.NoError(t, err, ext)
			assert.Equal(t, "make", plugin.Name())
		}
	})

	t.Run("FileFallsBackToCanHandle", func(t *testing.T) {
		plugin, err := registry.GetParserForFile("Makefile", nil)
		require.NoError(t, err)
		assert.Equal(t, "make", plugin.Name())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := registry.GetParser("cobol")
		require.ErrorIs(t, err, parsers.ErrPluginNotFound)

		_, err = registry.GetParserForExtension(".bin")
		require.ErrorIs(t, err, parsers.ErrPluginNotFound)

		_, err = registry.GetParserForExtension("")
		require.ErrorIs(t, err, parsers.ErrPluginNotFound)

		_, err = registry.GetParserForFile("blob.bin", nil)
		require.ErrorIs(t, err, parsers.ErrPluginNotFound)
	})
}

func TestRegistry_RejectsInvalidPlugins(t *testing.T) {
	registry := parsers.NewRegistry(nil)

	require.Error(t, registry.RegisterParser(nil))
	require.Error(t, registry.RegisterParser(stubPlugin{}))

	require.NoError(t, registry.RegisterParser(stubPlugin{name: "a", exts: []string{".x"}}))
	require.Error(t, registry.RegisterParser(stubPlugin{name: "a", exts: []string{".y"}}), "duplicate name")

	err := registry.RegisterParser(stubPlugin{name: "b", exts: []string{".z", ".X"}})
	require.Error(t, err, "duplicate extension")

	_, err = registry.GetParserForExtension(".z")
	require.ErrorIs(t, err, parsers.ErrPluginNotFound, "a rejected plugin leaves no extensions behind")
}

func TestRegisterLanguagePlugins(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log)
	require.NoError(t, err)

	all := registry.GetAllParsers()
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name())
		assert.NotNil(t, p.Grammar(), p.Name())
	}
	assert.True(t, sort.StringsAreSorted(names))
	assert.Equal(t, []string{
		"css", "go", "html", "java", "javascript", "lua", "markdown", "protobuf",
		"python", "rust", "terraform", "toml", "tsx", "typescript", "yaml",
	}, names)

	tests := []struct {
		path     string
		language string
	}{
		{"main.go", "go"},
		{"app/models.py", "python"},
		{"stubs.pyi", "python"},
		{"index.ts", "typescript"},
		{"App.tsx", "tsx"},
		{"server.mjs", "javascript"},
		{"lib.rs", "rust"},
		{"Main.java", "java"},
		{"init.lua", "lua"},
		{"deploy.YML", "yaml"},
		{"main.tf", "terraform"},
		{"api.proto", "protobuf"},
		{"README.md", "markdown"},
		{"site.scss", "css"},
		{"Cargo.toml", "toml"},
		{"index.html", "html"},
		{"icon.svg", "html"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			plugin, err := registry.GetParserForFile(tt.path, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.language, plugin.Name())
		})
	}

	_, err = registry.GetParserForFile("image.bin", nil)
	require.ErrorIs(t, err, parsers.ErrPluginNotFound)
}

func TestDotExtension(t *testing.T) {
	for in, want := range map[string]string{
		"":     "",
		"go":   ".go",
		".GO":  ".go",
		".tsx": ".tsx",
	} {
		assert.Equal(t, want, parsers.DotExtension(in), in)
	}
	assert.Equal(t, "go", schema.NormalizeExtension(".GO"), "chunk extensions stay dotless")
}
