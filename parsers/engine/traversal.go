package engine

import (
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/schema"
)

// Recovery sources recorded under schema.ContextRecovery.
const (
	RecoveryPattern     = "pattern"
	RecoveryPartialTree = "partial_tree"
	RecoveryWholeFile   = "whole_file"
)

type dedupeKey struct {
	name      string
	parent    string
	lineStart int
}

// Traversal is the state of one depth-first walk over one file. It is created
// per call and never shared between goroutines.
type Traversal struct {
	plugin  LanguagePlugin
	equiv   KindEquivalence
	path    string
	source  []byte
	lines   []string
	scope   *ScopeStack
	logger  *slog.Logger
	results []schema.Construct
	seen    map[dedupeKey][]string
	taken   map[string]int

	// restores of scopes opened for the whole file, popped when Run ends
	fileScopes []func()
}

// NewTraversal prepares a walk of content on behalf of plugin.
func NewTraversal(plugin LanguagePlugin, content, path string, logger *slog.Logger) *Traversal {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Traversal{
		plugin: plugin,
		path:   path,
		source: []byte(content),
		lines:  SplitLines(content),
		scope:  NewScopeStack(),
		logger: logger,
		seen:   make(map[dedupeKey][]string),
		taken:  make(map[string]int),
	}
	if eq, ok := plugin.(KindEquivalence); ok {
		t.equiv = eq
	}
	return t
}

// Source returns the file content as bytes, for node.Content calls.
func (t *Traversal) Source() []byte { return t.source }

// Lines returns the file split into lines. Callers must not modify it.
func (t *Traversal) Lines() []string { return t.lines }

func (t *Traversal) Scope() *ScopeStack { return t.scope }

// FilePath returns the path the file was submitted under.
func (t *Traversal) FilePath() string { return t.path }

func (t *Traversal) Logger() *slog.Logger { return t.logger }

// Text returns the source text of node.
func (t *Traversal) Text(node *sitter.Node) string {
	return NodeText(node, t.source)
}

// Slice returns the exact text of lines start..end.
func (t *Traversal) Slice(start, end int) string {
	return SliceLines(t.lines, start, end)
}

// Run walks the tree from root: file-level constructs first, then the
// pre-order descent.
func (t *Traversal) Run(root *sitter.Node) {
	defer t.closeFileScopes()
	t.plugin.ExtractFileLevelConstructs(t, root)
	t.Walk(root)
}

// OpenFileScope pushes name for the rest of the file, as a package clause
// does. Run pops it when the walk ends.
func (t *Traversal) OpenFileScope(name string) {
	if name == "" {
		return
	}
	t.fileScopes = append(t.fileScopes, t.scope.Push(name))
}

func (t *Traversal) closeFileScopes() {
	for i := len(t.fileScopes) - 1; i >= 0; i-- {
		t.fileScopes[i]()
	}
	t.fileScopes = nil
}

// Walk dispatches node to the plugin and descends into its children unless
// the plugin owns that subtree. Error regions are descended first so that
// constructs the grammar still recognized win over pattern recovery.
func (t *Traversal) Walk(node *sitter.Node) {
	if node == nil {
		return
	}
	if IsErrorNode(node) {
		t.WalkChildren(node)
		t.recoverRegion(node)
		return
	}

	kind := node.Type()
	t.plugin.HandleNode(t, node, kind)
	if t.plugin.ShouldSkipDefaultTraversal(kind) {
		return
	}
	t.WalkChildren(node)
}

// WalkChildren walks every named child of node.
func (t *Traversal) WalkChildren(node *sitter.Node) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		t.Walk(node.NamedChild(i))
	}
}

// Within runs fn with name pushed onto the scope stack.
func (t *Traversal) Within(name string, fn func()) {
	restore := t.scope.Push(name)
	defer restore()
	fn()
}

// Sibling returns name the first time it is used in the current scope and
// name[n] for the n-th repeat, so that same-named siblings get distinct paths.
func (t *Traversal) Sibling(name string) string {
	path := t.scope.Path(name)
	t.taken[path]++
	if n := t.taken[path]; n > 1 {
		return fmt.Sprintf("%s[%d]", name, n)
	}
	return name
}

// NewConstruct builds a construct for node in the current scope. An empty
// name is replaced by a synthetic one derived from kind and line. Nodes that
// contain or sit inside a syntax error are tagged as partial-tree recoveries.
func (t *Traversal) NewConstruct(node *sitter.Node, kind, name, scope string) schema.Construct {
	start, end := t.span(node)
	start, end = ClampLines(len(t.lines), start, end)
	if name == "" {
		name = SyntheticName(kind, start)
	}
	text := t.Slice(start, end)
	c := schema.Construct{
		Kind:      kind,
		Name:      name,
		Path:      t.scope.Path(name),
		Parent:    t.scope.Parent(),
		Scope:     scope,
		LineStart: start,
		LineEnd:   end,
		Text:      text,
		Signature: Signature(text),
	}
	if node.HasError() || insideError(node) {
		c.SetContext(schema.ContextRecovered, true)
		c.SetContext(schema.ContextRecovery, RecoveryPartialTree)
	}
	return c
}

// Extend moves the start of c up to line, so that attributes or decorators
// written above a declaration travel with it.
func (t *Traversal) Extend(c *schema.Construct, line int) {
	if line <= 0 || line >= c.LineStart {
		return
	}
	c.LineStart, c.LineEnd = ClampLines(len(t.lines), line, c.LineEnd)
	c.Text = t.Slice(c.LineStart, c.LineEnd)
}

// Add appends c unless an equivalent construct with the same name, parent and
// first line was already recorded. It reports whether c was kept.
func (t *Traversal) Add(c schema.Construct) bool {
	c.LineStart, c.LineEnd = ClampLines(len(t.lines), c.LineStart, c.LineEnd)
	if c.Name == "" {
		c.Name = SyntheticName(c.Kind, c.LineStart)
	}
	if c.Path == "" {
		c.Path = JoinPath([]string{c.Parent}, c.Name)
	}
	if c.Scope == "" {
		c.Scope = schema.ScopeGlobal
	}

	key := dedupeKey{name: c.Name, parent: c.Parent, lineStart: c.LineStart}
	for _, kind := range t.seen[key] {
		if t.sameKind(kind, c.Kind) {
			t.logger.Debug("Suppressed duplicate construct",
				"name", c.Name, "kind", c.Kind, "line", c.LineStart)
			return false
		}
	}
	t.seen[key] = append(t.seen[key], c.Kind)
	t.results = append(t.results, c)
	return true
}

// Constructs returns what has been accumulated so far, in discovery order.
func (t *Traversal) Constructs() []schema.Construct {
	return t.results
}

// Finish returns the accumulated constructs followed by fragments for every
// uncovered run of non-blank lines.
func (t *Traversal) Finish() []schema.Construct {
	return append(t.results, FillGaps(t.lines, t.results)...)
}

// span is LineSpan starting at the first non-whitespace byte of node.
func (t *Traversal) span(node *sitter.Node) (int, int) {
	_, end := LineSpan(node)
	start := TextStartRow(node, t.source) + 1
	return start, max(start, end)
}

// insideError reports whether an ancestor of node below the root is an ERROR
// node. A root ERROR only says the file as a whole did not parse.
func insideError(node *sitter.Node) bool {
	for p := node.Parent(); p != nil && p.Parent() != nil; p = p.Parent() {
		if IsErrorNode(p) {
			return true
		}
	}
	return false
}

// known reports whether a construct of an equivalent kind with the same name
// already starts on the same line, under any parent.
func (t *Traversal) known(c schema.Construct) bool {
	for _, have := range t.results {
		if have.Name == c.Name && have.LineStart == c.LineStart && t.sameKind(have.Kind, c.Kind) {
			return true
		}
	}
	return false
}

func (t *Traversal) sameKind(a, b string) bool {
	if a == b {
		return true
	}
	return t.equiv != nil && t.equiv.EquivalentKinds(a, b)
}

func (t *Traversal) recoverRegion(node *sitter.Node) {
	start, end := LineSpan(node)
	start, end = ClampLines(len(t.lines), start, end)
	text := t.Slice(start, end)

	recovered := t.plugin.ExtractFromMalformedRegion(text, start, t.scope.Names())
	added := 0
	for _, c := range recovered {
		c.LineStart, c.LineEnd = ClampLines(len(t.lines), c.LineStart, c.LineEnd)
		c.Text = t.Slice(c.LineStart, c.LineEnd)
		c.SetContext(schema.ContextRecovered, true)
		if _, ok := c.Context[schema.ContextRecovery]; !ok {
			c.SetContext(schema.ContextRecovery, RecoveryPattern)
		}
		if t.known(c) {
			continue
		}
		if t.Add(c) {
			added++
		}
	}
	t.logger.Debug("Recovered constructs from malformed region",
		"path", t.path, "line_start", start, "line_end", end,
		"found", len(recovered), "added", added)
}
