package toml

import (
	"fmt"
	"sort"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var keyTypes = []string{"dotted_key", "bare_key", "quoted_key"}

// ExtractFileLevelConstructs is a no-op: TOML has no file header.
func (p *TomlPlugin) ExtractFileLevelConstructs(_ *engine.Traversal, _ *sitter.Node) {}

func (p *TomlPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "table":
		p.handleTable(t, node, "table")
	case "table_array_element":
		p.handleTable(t, node, "array_table")
	case "pair":
		p.handlePair(t, node)
	}
}

func (p *TomlPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "table", "table_array_element", "pair":
		return true
	}
	return false
}

// handleTable records a [table] or [[array]] section. Tables are flat in
// the tree; a dotted key names its parent table.
func (p *TomlPlugin) handleTable(t *engine.Traversal, node *sitter.Node, kind string) {
	src := t.Source()
	name := keyText(engine.ChildByType(node, keyTypes...), src)

	c := t.NewConstruct(node, kind, name, schema.ScopeGlobal)
	lines := t.Lines()
	for c.LineEnd > c.LineStart && engine.IsBlank(lines[c.LineEnd-1]) {
		c.LineEnd--
	}
	c.Text = t.Slice(c.LineStart, c.LineEnd)
	if parent, _, ok := cutLast(name); ok {
		c.Parent = engine.JoinPath(append(t.Scope().Names(), parent), "")
	}

	pairs := engine.ChildrenByType(node, "pair")
	keys := make([]string, 0, len(pairs))
	values := make(map[string]string)
	for _, pair := range pairs {
		key := keyText(engine.ChildByType(pair, keyTypes...), src)
		keys = append(keys, key)
		if v, ok := literalValue(engine.NodeText(pair, src), key); ok {
			values[key] = v
		}
		if engine.HasChildType(pair, "inline_table") {
			c.AddFeature("inline_tables")
		}
	}
	c.SetContext("keys", keys)
	if len(values) > 0 {
		c.SetContext("values", values)
	}
	if kind == "array_table" {
		c.SetContext("index", arrayIndex(node, name, src))
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

// handlePair records key/value pairs at document level. Pairs inside a
// table are summarized in the table's context.
func (p *TomlPlugin) handlePair(t *engine.Traversal, node *sitter.Node) {
	if parent := node.Parent(); parent == nil || parent.Type() != "document" {
		return
	}
	src := t.Source()
	name := keyText(engine.ChildByType(node, keyTypes...), src)
	c := t.NewConstruct(node, "pair", name, schema.ScopeGlobal)

	if v, ok := literalValue(t.Text(node), name); ok {
		c.SetContext("value", v)
	}
	switch {
	case engine.HasChildType(node, "inline_table"):
		c.AddFeature("inline_table")
	case engine.HasChildType(node, "array"):
		c.AddFeature("array")
	}
	if c.LineEnd > c.LineStart {
		c.AddFeature("multiline")
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

// keyText renders a key with quoted segments unquoted.
func keyText(key *sitter.Node, src []byte) string {
	if key == nil {
		return ""
	}
	parts := strings.Split(engine.NodeText(key, src), ".")
	for i, part := range parts {
		parts[i] = engine.Unquote(strings.TrimSpace(part))
	}
	return strings.Join(parts, ".")
}

// arrayIndex is the 1-based position of an [[array]] element among the
// elements with the same key.
func arrayIndex(node *sitter.Node, name string, src []byte) int {
	index := 1
	for prev := node.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if prev.Type() == "table_array_element" && keyText(engine.ChildByType(prev, keyTypes...), src) == name {
			index++
		}
	}
	return index
}

// literalValue decodes a single "key = value" pair as a TOML document and
// renders scalar and array values.
func literalValue(pair, key string) (string, bool) {
	var doc map[string]any
	if err := gotoml.Unmarshal([]byte(pair), &doc); err != nil {
		return "", false
	}
	var value any = doc
	for _, part := range strings.Split(key, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return "", false
		}
		if value, ok = m[part]; !ok {
			return "", false
		}
	}
	switch v := value.(type) {
	case map[string]any:
		return "", false
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if _, nested := item.(map[string]any); nested {
				return "", false
			}
			parts = append(parts, fmt.Sprint(item))
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	default:
		return fmt.Sprint(v), true
	}
}

func cutLast(key string) (string, string, bool) {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "", key, false
	}
	return key[:i], key[i+1:], true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
