package terraform

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// topLevelKinds are the block types that become their own construct kind
// at file scope. Every other block is a generic "block".
var topLevelKinds = map[string]bool{
	"resource":  true,
	"data":      true,
	"module":    true,
	"variable":  true,
	"output":    true,
	"provider":  true,
	"locals":    true,
	"terraform": true,
}

// ExtractFileLevelConstructs is a no-op: HCL has no file-level header.
func (p *TerraformPlugin) ExtractFileLevelConstructs(_ *engine.Traversal, _ *sitter.Node) {}

func (p *TerraformPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "block":
		p.handleBlock(t, node)
	case "attribute":
		p.handleAttribute(t, node)
	}
}

func (p *TerraformPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	return kind == "block" || kind == "attribute"
}

func (p *TerraformPlugin) handleBlock(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	typ, labels := blockHeader(node, src)
	body := engine.ChildByType(node, "body")
	nested := enclosingBlock(node) != nil

	kind := "block"
	scope := schema.ScopeBlock
	if !nested {
		scope = schema.ScopeGlobal
		if topLevelKinds[typ] {
			kind = typ
		}
	}

	name := blockName(typ, labels)
	c := t.NewConstruct(node, kind, name, scope)
	c.SetContext("type", typ)
	if len(labels) > 0 {
		c.SetContext("labels", labels)
	}

	attrs := literalAttributes(body, src)
	if len(attrs) > 0 {
		c.SetContext("attributes", attrs)
	}
	if n := len(engine.ChildrenByType(body, "block")); n > 0 {
		c.SetContext("nested_blocks", n)
	}

	switch kind {
	case "resource", "data":
		if len(labels) > 0 {
			c.SetContext("provider", providerOf(labels[0]))
		}
	case "module":
		if source, ok := attrs["source"]; ok {
			c.SetContext("source", source)
		}
	case "variable":
		if hasAttribute(body, src, "default") {
			c.AddFeature("has_default")
		}
	case "provider":
		if hasAttribute(body, src, "alias") {
			c.AddFeature("aliased")
		}
	}
	if typ == "dynamic" {
		c.AddFeature("dynamic")
	}
	for _, meta := range []string{"count", "for_each", "depends_on", "lifecycle"} {
		if hasAttribute(body, src, meta) || (meta == "lifecycle" && hasBlock(body, src, meta)) {
			c.AddFeature(meta)
		}
	}
	if attrs["sensitive"] == "true" {
		c.AddFeature("sensitive")
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(name, func() { t.WalkChildren(body) })
}

// handleAttribute records attributes at file scope, as in tfvars files, and
// the named values of a locals block. Other attributes are summarized in
// their block's context.
func (p *TerraformPlugin) handleAttribute(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	block := enclosingBlock(node)
	if block != nil {
		if typ, _ := blockHeader(block, src); typ != "locals" {
			return
		}
	}

	name := engine.ChildTextByType(node, src, "identifier")
	scope := schema.ScopeGlobal
	if block != nil {
		scope = schema.ScopeBlock
	}
	c := t.NewConstruct(node, "attribute", name, scope)
	if expr := engine.ChildByType(node, "expression"); expr != nil {
		if val, ok := evalLiteral(t.Text(expr)); ok {
			c.SetContext("value", renderValue(val))
			c.AddFeature("literal")
		} else {
			c.SetContext("expression", engine.CollapseWhitespace(t.Text(expr)))
		}
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

// blockHeader returns a block's type and its labels, unquoted.
func blockHeader(node *sitter.Node, src []byte) (string, []string) {
	var typ string
	var labels []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			if typ == "" {
				typ = engine.NodeText(child, src)
			} else {
				labels = append(labels, engine.NodeText(child, src))
			}
		case "string_lit":
			labels = append(labels, engine.Unquote(engine.NodeText(child, src)))
		case "body", "block_start":
			return typ, labels
		}
	}
	return typ, labels
}

// literalAttributes evaluates every attribute of body that is a constant
// expression.
func literalAttributes(body *sitter.Node, src []byte) map[string]string {
	attrs := make(map[string]string)
	for _, attr := range engine.ChildrenByType(body, "attribute") {
		name := engine.ChildTextByType(attr, src, "identifier")
		expr := engine.ChildByType(attr, "expression")
		if name == "" || expr == nil {
			continue
		}
		if val, ok := evalLiteral(engine.NodeText(expr, src)); ok {
			attrs[name] = renderValue(val)
		}
	}
	return attrs
}

func hasAttribute(body *sitter.Node, src []byte, name string) bool {
	for _, attr := range engine.ChildrenByType(body, "attribute") {
		if engine.ChildTextByType(attr, src, "identifier") == name {
			return true
		}
	}
	return false
}

func hasBlock(body *sitter.Node, src []byte, typ string) bool {
	for _, block := range engine.ChildrenByType(body, "block") {
		if t, _ := blockHeader(block, src); t == typ {
			return true
		}
	}
	return false
}

func enclosingBlock(node *sitter.Node) *sitter.Node {
	for n := node.Parent(); n != nil; n = n.Parent() {
		if n.Type() == "block" {
			return n
		}
	}
	return nil
}

// blockName follows Terraform's own addressing: resources and data sources
// are "type.name", singly labeled blocks use their label, and unlabeled
// blocks their type.
func blockName(typ string, labels []string) string {
	switch {
	case (typ == "resource" || typ == "data") && len(labels) >= 2:
		return labels[0] + "." + labels[1]
	case len(labels) == 0:
		return typ
	case topLevelKinds[typ]:
		return labels[0]
	default:
		return typ + "." + strings.Join(labels, ".")
	}
}

func providerOf(resourceType string) string {
	provider, _, _ := strings.Cut(resourceType, "_")
	return provider
}
