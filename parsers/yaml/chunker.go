package yaml

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

const maxValueLength = 120

// ExtractFileLevelConstructs records each document of a multi-document
// stream, or a single document opened with an explicit "---" marker.
func (p *YamlPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	docs := engine.ChildrenByType(root, "document")
	for i, doc := range docs {
		if !p.isMarkedDocument(t, docs, doc) {
			continue
		}
		c := t.NewConstruct(doc, "document", documentName(i), schema.ScopeModule)
		c.SetContext("index", i+1)
		if keys := topLevelKeys(doc, t.Source()); len(keys) > 0 {
			c.SetContext("keys", keys)
		}
		t.Add(c)
	}
}

func (p *YamlPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "document":
		p.handleDocument(t, node)
	case "block_mapping_pair", "flow_pair":
		p.handlePair(t, node)
	case "block_sequence_item":
		p.handleSequenceItem(t, node)
	}
}

func (p *YamlPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "document", "block_mapping_pair", "flow_pair", "block_sequence_item":
		return true
	}
	return false
}

func (p *YamlPlugin) handleDocument(t *engine.Traversal, node *sitter.Node) {
	parent := node.Parent()
	docs := engine.ChildrenByType(parent, "document")
	for i, doc := range docs {
		if doc.StartByte() != node.StartByte() {
			continue
		}
		if p.isMarkedDocument(t, docs, doc) {
			t.Within(documentName(i), func() { t.WalkChildren(node) })
			return
		}
	}
	t.WalkChildren(node)
}

func (p *YamlPlugin) handlePair(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	key := engine.Unquote(strings.TrimSpace(engine.FieldText(node, "key", src)))
	valueWrapper := node.ChildByFieldName("value")
	value := unwrap(valueWrapper)

	kind := "pair"
	if value != nil {
		switch value.Type() {
		case "block_mapping", "flow_mapping":
			kind = "mapping"
		case "block_sequence", "flow_sequence":
			kind = "sequence"
		}
	}

	if kind == "pair" && isNested(node) {
		return
	}

	c := t.NewConstruct(node, kind, key, scopeOf(t))
	c.SetContext("key", key)
	switch kind {
	case "mapping":
		c.SetContext("keys", countChildren(value, "block_mapping_pair", "flow_pair"))
	case "sequence":
		c.SetContext("items", countChildren(value, "block_sequence_item", "flow_node"))
	default:
		if value != nil {
			c.SetContext("value", truncate(strings.TrimSpace(engine.NodeText(value, src))))
		}
	}
	describeValue(&c, valueWrapper, value)
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	if kind != "pair" {
		t.Within(key, func() { t.WalkChildren(value) })
	}
}

// handleSequenceItem turns mapping items of a top-level sequence, such as
// playbook tasks, into constructs named by their "name" key.
func (p *YamlPlugin) handleSequenceItem(t *engine.Traversal, node *sitter.Node) {
	value := unwrap(engine.ChildByType(node, "block_node", "flow_node"))
	if value == nil || isNested(node) || (value.Type() != "block_mapping" && value.Type() != "flow_mapping") {
		t.WalkChildren(node)
		return
	}

	name := mappingValue(value, t.Source(), "name")
	c := t.NewConstruct(node, "mapping", name, scopeOf(t))
	c.SetContext("keys", countChildren(value, "block_mapping_pair", "flow_pair"))
	c.AddFeature("sequence_item")
	t.Add(c)

	t.Within(c.Name, func() { t.WalkChildren(value) })
}

func (p *YamlPlugin) isMarkedDocument(t *engine.Traversal, docs []*sitter.Node, doc *sitter.Node) bool {
	if len(docs) > 1 {
		return true
	}
	start, _ := engine.LineSpan(doc)
	lines := t.Lines()
	return start <= len(lines) && strings.HasPrefix(strings.TrimSpace(lines[start-1]), "---")
}

func describeValue(c *schema.Construct, wrapper, value *sitter.Node) {
	if engine.HasChildType(wrapper, "anchor") {
		c.AddFeature("anchor")
	}
	if engine.HasChildType(wrapper, "tag") {
		c.AddFeature("tag")
	}
	if value == nil {
		return
	}
	switch value.Type() {
	case "alias":
		c.AddFeature("alias")
	case "block_scalar":
		c.AddFeature("multiline")
	case "flow_mapping", "flow_sequence":
		c.AddFeature("flow")
	}
}

// unwrap returns the content of a block_node or flow_node, skipping anchors
// and tags.
func unwrap(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "block_node", "flow_node":
	default:
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "anchor", "tag", "comment":
			continue
		}
		return child
	}
	return nil
}

// isNested reports whether node sits inside another pair or sequence item.
func isNested(node *sitter.Node) bool {
	for n := node.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "block_mapping_pair", "flow_pair", "block_sequence_item":
			return true
		case "document":
			return false
		}
	}
	return false
}

func scopeOf(t *engine.Traversal) string {
	if t.Scope().Depth() > 0 {
		return schema.ScopeBlock
	}
	return schema.ScopeGlobal
}

func topLevelKeys(doc *sitter.Node, src []byte) []string {
	mapping := engine.FindDescendant(doc, 2, "block_mapping", "flow_mapping")
	if mapping == nil {
		return nil
	}
	var keys []string
	for _, pair := range engine.ChildrenByType(mapping, "block_mapping_pair", "flow_pair") {
		keys = append(keys, engine.Unquote(strings.TrimSpace(engine.FieldText(pair, "key", src))))
	}
	return keys
}

func mappingValue(mapping *sitter.Node, src []byte, key string) string {
	for _, pair := range engine.ChildrenByType(mapping, "block_mapping_pair", "flow_pair") {
		if engine.Unquote(strings.TrimSpace(engine.FieldText(pair, "key", src))) != key {
			continue
		}
		return engine.Unquote(strings.TrimSpace(engine.NodeText(unwrap(pair.ChildByFieldName("value")), src)))
	}
	return ""
}

func countChildren(node *sitter.Node, types ...string) int {
	return len(engine.ChildrenByType(node, types...))
}

func documentName(i int) string {
	return "document_" + strconv.Itoa(i+1)
}

func truncate(s string) string {
	return engine.Truncate(s, maxValueLength)
}
