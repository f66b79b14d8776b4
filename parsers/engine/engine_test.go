package engine_test

import (
	"io/fs"
	"regexp"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/engine"
	parsertesting "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
)

var fakeTable = engine.PatternTable{
	{Kind: "function", Regexp: regexp.MustCompile(`^\s*func\s+(\w+)`), Name: 1},
}

// fakePlugin understands Go function declarations only.
type fakePlugin struct {
	grammar        *sitter.Language
	panicOn        string
	panicFallback  bool
	malformedCalls *int
}

func newFakePlugin() *fakePlugin {
	return &fakePlugin{grammar: golang.GetLanguage()}
}

func (p *fakePlugin) Name() string                                 { return "fake" }
func (p *fakePlugin) Extensions() []string                         { return []string{".go"} }
func (p *fakePlugin) CanHandle(path string, info fs.FileInfo) bool { return true }
func (p *fakePlugin) Grammar() *sitter.Language                    { return p.grammar }

func (p *fakePlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {}

func (p *fakePlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	if kind != "function_declaration" {
		return
	}
	name := engine.FieldText(node, "name", t.Source())
	if name == p.panicOn {
		panic("boom")
	}
	t.Add(t.NewConstruct(node, "function", name, schema.ScopeGlobal))
}

func (p *fakePlugin) ShouldSkipDefaultTraversal(kind string) bool { return false }

func (p *fakePlugin) ExtractFromMalformedRegion(text string, startLine int, scope []string) []schema.Construct {
	if p.malformedCalls != nil {
		*p.malformedCalls++
	}
	return engine.RecoverConstructs(fakeTable, engine.BraceBlockEnd, text, startLine, scope)
}

func (p *fakePlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	if p.panicFallback {
		panic("fallback boom")
	}
	return engine.FallbackChunks(p.Name(), fakeTable, engine.BraceBlockEnd, content, path)
}

func TestEngineChunk(t *testing.T) {
	logger, _ := parsertesting.NewTestLogger(t)
	e := engine.New(logger)

	t.Run("clean function", func(t *testing.T) {
		content := "package main\n\nfunc Add(a, b int) int {\n\tc := a + b\n\treturn c\n}\n"
		chunks := e.Chunk(newFakePlugin(), content, "math/add.go")

		parsertesting.AssertChunkInvariants(t, content, chunks)
		fns := parsertesting.OfKind(chunks, "function")
		require.Len(t, fns, 1)
		assert.Equal(t, "Add", fns[0].Name)
		assert.Equal(t, 3, fns[0].LineStart)
		assert.Equal(t, 6, fns[0].LineEnd)
		assert.Equal(t, "func Add(a, b int) int {\n\tc := a + b\n\treturn c\n}", fns[0].Content)
		assert.Equal(t, "func Add(a, b int) int", fns[0].Signature)
		assert.Equal(t, "go", fns[0].Extension)
		assert.Equal(t, "fake", fns[0].Language)
		assert.False(t, fns[0].Recovered())

		pkg, ok := parsertesting.FindChunk(chunks, schema.KindFragment, "fragment_L1")
		require.True(t, ok, parsertesting.Names(chunks))
		assert.Equal(t, "package main", pkg.Content)
	})

	t.Run("plugin panic falls back to whole file", func(t *testing.T) {
		plugin := newFakePlugin()
		plugin.panicOn = "Add"
		content := "package main\n\nfunc Add() int {\n\treturn 1\n}\n"

		chunks := e.Chunk(plugin, content, "add.go")

		parsertesting.AssertChunkInvariants(t, content, chunks)
		fn, ok := parsertesting.FindChunk(chunks, "function", "Add")
		require.True(t, ok)
		assert.True(t, fn.Recovered())
		assert.Equal(t, engine.RecoveryWholeFile, fn.Context[schema.ContextRecovery])
		assert.Equal(t, 5, fn.LineEnd)
	})

	t.Run("fallback panic yields single chunk", func(t *testing.T) {
		plugin := newFakePlugin()
		plugin.panicOn = "Add"
		plugin.panicFallback = true
		content := "func Add() {}\n"

		chunks := e.Chunk(plugin, content, "add.go")

		require.Len(t, chunks, 1)
		assert.Equal(t, schema.KindFallback, chunks[0].Kind)
		assert.Equal(t, content, chunks[0].Content)
	})

	t.Run("empty content", func(t *testing.T) {
		chunks := e.Chunk(newFakePlugin(), "", "empty.go")

		require.Len(t, chunks, 1)
		assert.Equal(t, schema.KindFallback, chunks[0].Kind)
		assert.Equal(t, 1, chunks[0].LineStart)
		assert.Equal(t, 1, chunks[0].LineEnd)
		assert.Equal(t, 0, chunks[0].ChunkIndex)
		assert.Equal(t, 1, chunks[0].TotalChunks)
	})

	t.Run("no grammar", func(t *testing.T) {
		plugin := &fakePlugin{}
		content := "func Run() {\n}\n"

		chunks := e.Chunk(plugin, content, "run.go")

		parsertesting.AssertChunkInvariants(t, content, chunks)
		_, ok := parsertesting.FindChunk(chunks, "function", "Run")
		assert.True(t, ok)
	})

	t.Run("nil plugin", func(t *testing.T) {
		chunks := e.Chunk(nil, "abc", "x.go")
		require.Len(t, chunks, 1)
		assert.Equal(t, "abc", chunks[0].Content)
	})

	t.Run("garbage input", func(t *testing.T) {
		content := "\x00\x01 }}}{{{ ))) func func func (((\n@@@\n"
		chunks := e.Chunk(newFakePlugin(), content, "garbage.go")
		parsertesting.AssertChunkInvariants(t, content, chunks)
	})

	t.Run("malformed region", func(t *testing.T) {
		calls := 0
		plugin := newFakePlugin()
		plugin.malformedCalls = &calls
		content := "package main\n\nfunc A() {\n}\n\nfunc B( {\n\tx := 1\n"

		chunks := e.Chunk(plugin, content, "broken.go")

		parsertesting.AssertChunkInvariants(t, content, chunks)
		a, ok := parsertesting.FindChunk(chunks, "function", "A")
		require.True(t, ok, parsertesting.Names(chunks))
		assert.False(t, a.Recovered())
		assert.Equal(t, 3, a.LineStart)
		assert.Equal(t, 4, a.LineEnd)

		b, ok := parsertesting.FindChunk(chunks, "function", "B")
		require.True(t, ok, parsertesting.Names(chunks))
		assert.True(t, b.Recovered())
		assert.Len(t, parsertesting.OfKind(chunks, "function"), 2, "no duplicates")
	})

	t.Run("idempotent", func(t *testing.T) {
		content := "package main\n\nfunc A() {}\n\n// trailing\nvar x = 1\n"
		parsertesting.AssertIdempotent(t, func() []schema.SemanticChunk {
			return e.Chunk(newFakePlugin(), content, "a.go")
		})
	})
}

func TestTraversalDuplicateSuppression(t *testing.T) {
	plugin := newFakePlugin()
	content := "local t = {}\nlocal t = {}\n"
	tr := engine.NewTraversal(plugin, content, "x.lua", nil)

	c := schema.Construct{Kind: "table", Name: "t", LineStart: 1, LineEnd: 1}
	assert.True(t, tr.Add(c))
	assert.False(t, tr.Add(c), "identical construct must be dropped")

	other := c
	other.Kind = "local_table"
	assert.True(t, tr.Add(other), "different kind without equivalence is kept")

	moved := c
	moved.LineStart, moved.LineEnd = 2, 2
	assert.True(t, tr.Add(moved), "different line is kept")

	assert.Len(t, tr.Constructs(), 3)
}

type equivPlugin struct {
	*fakePlugin
	engine.EquivalenceTable
}

func TestTraversalKindEquivalence(t *testing.T) {
	plugin := equivPlugin{
		fakePlugin:       newFakePlugin(),
		EquivalenceTable: engine.NewEquivalenceTable([2]string{"table", "local_table"}),
	}
	tr := engine.NewTraversal(plugin, "local t = {}\n", "x.lua", nil)

	assert.True(t, tr.Add(schema.Construct{Kind: "local_table", Name: "t", LineStart: 1, LineEnd: 1}))
	assert.False(t, tr.Add(schema.Construct{Kind: "table", Name: "t", LineStart: 1, LineEnd: 1}))
	assert.True(t, tr.Add(schema.Construct{Kind: "function", Name: "t", LineStart: 1, LineEnd: 1}))
}

func TestTraversalAddNormalizes(t *testing.T) {
	tr := engine.NewTraversal(newFakePlugin(), "a\nb\n", "x.go", nil)
	require.True(t, tr.Add(schema.Construct{Kind: "thing", LineStart: 0, LineEnd: 99, Parent: "Outer"}))

	got := tr.Constructs()[0]
	assert.Equal(t, "thing_L1", got.Name)
	assert.Equal(t, "Outer.thing_L1", got.Path)
	assert.Equal(t, schema.ScopeGlobal, got.Scope)
	assert.Equal(t, 1, got.LineStart)
	assert.Equal(t, 3, got.LineEnd)
}
