package engine_test

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/engine"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", engine.Truncate("abc", 5))
	assert.Equal(t, "ab", engine.Truncate("abc", 2))
	assert.Equal(t, "", engine.Truncate("é", 1))
	assert.Equal(t, "aé", engine.Truncate("aéb", 3))
	assert.Equal(t, "a", engine.Truncate("aéb", 2))
}

func TestSignatureKeepsRunesWhole(t *testing.T) {
	line := "// " + strings.Repeat("é", 150)

	sig := engine.Signature(line)
	assert.True(t, utf8.ValidString(sig))
	assert.LessOrEqual(t, len(sig), 200)
	assert.True(t, strings.HasPrefix(sig, "// é"))
}

func TestHeaderTextKeepsRunesWhole(t *testing.T) {
	src := []byte("package p\n\nfunc " + strings.Repeat("é", 150) + "() {}\n")
	tree, err := engine.Parse(golang.GetLanguage(), src)
	require.NoError(t, err)
	defer tree.Close()

	fn := engine.ChildByType(tree.RootNode(), "function_declaration")
	require.NotNil(t, fn)

	header := engine.HeaderText(fn, src, "body")
	assert.True(t, utf8.ValidString(header))
	assert.LessOrEqual(t, len(header), 200)
	assert.True(t, strings.HasPrefix(header, "func é"))
}

func TestStopBefore(t *testing.T) {
	stop := regexp.MustCompile(`^func\b`)
	end := engine.StopBefore(engine.BraceBlockEnd, stop)

	open := []string{"func a() {", "  x := 1", "", "func b() {", "}"}
	assert.Equal(t, 1, end(open, 0), "an unclosed block ends before the next declaration")

	closed := []string{"func a() {", "}", "func b() {}"}
	assert.Equal(t, 1, end(closed, 0))
}

func TestEscapeName(t *testing.T) {
	assert.Equal(t, "plain", engine.EscapeName("plain"))
	assert.Equal(t, `\.b\.x`, engine.EscapeName(".b.x"))
	assert.Equal(t, `a\\b`, engine.EscapeName(`a\b`))
	assert.NotEqual(t,
		engine.JoinPath([]string{engine.EscapeName(".b")}, engine.EscapeName(".x.c")),
		engine.JoinPath([]string{engine.EscapeName(".b.x")}, engine.EscapeName(".c")))
}

func TestTraversalSibling(t *testing.T) {
	tr := engine.NewTraversal(newFakePlugin(), "", "x.html", nil)

	assert.Equal(t, "section", tr.Sibling("section"))
	assert.Equal(t, "section[2]", tr.Sibling("section"))
	tr.Within("section[2]", func() {
		assert.Equal(t, "section", tr.Sibling("section"), "nested scopes count separately")
	})
	assert.Equal(t, "section[3]", tr.Sibling("section"))
	assert.Equal(t, "nav", tr.Sibling("nav"))
}

func TestTraversalOpenFileScope(t *testing.T) {
	plugin := &scopedPlugin{fakePlugin: newFakePlugin()}
	content := "package main\n\nfunc A() {}\n"
	tree, err := engine.Parse(plugin.Grammar(), []byte(content))
	require.NoError(t, err)
	defer tree.Close()

	tr := engine.NewTraversal(plugin, content, "a.go", nil)
	tr.Run(tree.RootNode())

	assert.Zero(t, tr.Scope().Depth())
	require.Len(t, tr.Constructs(), 1)
	assert.Equal(t, "main.A", tr.Constructs()[0].Path)
}

// scopedPlugin opens a file scope named after the package clause.
type scopedPlugin struct {
	*fakePlugin
}

func (p *scopedPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	pkg := engine.ChildByType(root, "package_clause")
	t.OpenFileScope(engine.ChildTextByType(pkg, t.Source(), "package_identifier"))
}
