package protobuf

import (
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	syntaxRe  = regexp.MustCompile(`^\s*(?:syntax|edition)\s*=\s*["']([^"']+)["']`)
	packageRe = regexp.MustCompile(`^\s*package\s+([\w.]+)`)
	importRe  = regexp.MustCompile(`^\s*import\s+(?:(weak|public)\s+)?["']([^"']+)["']`)
	optionRe  = regexp.MustCompile(`^\s*option\s+(\(?[\w.]+\)?(?:\.[\w.]+)?)\s*=\s*(.+?)\s*;`)
	headerRe  = regexp.MustCompile(`^\s*(?:message|enum|service|rpc|oneof|extend)\s+([\w.]+)`)
	rpcRe     = regexp.MustCompile(`rpc\s+(\w+)\s*\(\s*(stream\s+)?([\w.]+)\s*\)\s*returns\s*\(\s*(stream\s+)?([\w.]+)\s*\)`)
)

// ExtractFileLevelConstructs records syntax, package, import and file
// option statements. The package name scopes every definition in the file.
func (p *ProtobufParser) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		text := t.Text(node)
		switch node.Type() {
		case "syntax", "edition":
			if m := syntaxRe.FindStringSubmatch(text); m != nil {
				c := t.NewConstruct(node, "syntax", m[1], schema.ScopeModule)
				t.Add(c)
			}
		case "package":
			if m := packageRe.FindStringSubmatch(text); m != nil {
				t.Add(t.NewConstruct(node, "package", m[1], schema.ScopeModule))
				t.OpenFileScope(m[1])
			}
		case "import":
			if m := importRe.FindStringSubmatch(text); m != nil {
				c := t.NewConstruct(node, "import", m[2], schema.ScopeModule)
				if m[1] != "" {
					c.AddFeature(m[1])
				}
				t.Add(c)
			}
		case "option":
			p.addOption(t, node, schema.ScopeModule)
		}
	}
}

func (p *ProtobufParser) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "message", "enum", "service", "oneof":
		p.handleDefinition(t, node, kind)
	case "extend":
		p.handleDefinition(t, node, "message")
	case "rpc":
		p.handleRPC(t, node)
	}
}

func (p *ProtobufParser) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "syntax", "edition", "package", "import", "option",
		"message", "enum", "service", "oneof", "extend", "rpc":
		return true
	}
	return false
}

func (p *ProtobufParser) handleDefinition(t *engine.Traversal, node *sitter.Node, kind string) {
	text := t.Text(node)
	name := ""
	if m := headerRe.FindStringSubmatch(text); m != nil {
		name = m[1]
	}

	scope := schema.ScopeGlobal
	if kind == "oneof" || enclosingDefinition(node) != nil {
		scope = schema.ScopeClass
	}
	c := t.NewConstruct(node, kind, name, scope)
	if node.Type() == "extend" {
		c.AddFeature("extend")
	}

	body := engine.ChildByType(node, "message_body", "enum_body")
	if body == nil {
		body = node
	}
	switch kind {
	case "message":
		c.SetContext("fields", countDescendants(body, "field", "map_field", "oneof_field"))
		if n := len(engine.ChildrenByType(body, "message")); n > 0 {
			c.SetContext("nested_messages", n)
		}
		if engine.HasChildType(body, "reserved") {
			c.AddFeature("reserved")
		}
		if engine.HasChildType(body, "map_field") {
			c.AddFeature("map")
		}
	case "enum":
		c.SetContext("values", len(engine.ChildrenByType(body, "enum_field")))
	case "service":
		c.SetContext("rpcs", len(engine.ChildrenByType(body, "rpc")))
	case "oneof":
		c.SetContext("fields", len(engine.ChildrenByType(body, "oneof_field")))
	}
	if doc := engine.LeadingComment(node, t.Source(), "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(c.Name, func() {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			if child.Type() == "option" {
				p.addOption(t, child, schema.ScopeClass)
				continue
			}
			t.Walk(child)
		}
	})
}

func (p *ProtobufParser) handleRPC(t *engine.Traversal, node *sitter.Node) {
	text := engine.CollapseWhitespace(t.Text(node))
	m := rpcRe.FindStringSubmatch(text)
	if m == nil {
		c := t.NewConstruct(node, "rpc", "", schema.ScopeMethod)
		t.Add(c)
		return
	}

	c := t.NewConstruct(node, "rpc", m[1], schema.ScopeMethod)
	c.Signature = fmt.Sprintf("rpc %s(%s%s) returns (%s%s)", m[1], m[2], m[3], m[4], m[5])
	c.SetContext("request_type", m[3])
	c.SetContext("response_type", m[5])
	if m[2] != "" {
		c.AddFeature("client_streaming")
	}
	if m[4] != "" {
		c.AddFeature("server_streaming")
	}
	if doc := engine.LeadingComment(node, t.Source(), "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

func (p *ProtobufParser) addOption(t *engine.Traversal, node *sitter.Node, scope string) {
	m := optionRe.FindStringSubmatch(engine.CollapseWhitespace(t.Text(node)))
	if m == nil {
		return
	}
	c := t.NewConstruct(node, "option", m[1], scope)
	c.SetContext("value", engine.Unquote(m[2]))
	t.Add(c)
}

func enclosingDefinition(node *sitter.Node) *sitter.Node {
	for n := node.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "message", "service", "extend":
			return n
		}
	}
	return nil
}

func countDescendants(node *sitter.Node, types ...string) int {
	count := 0
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "message", "enum":
			continue
		}
		for _, typ := range types {
			if child.Type() == typ {
				count++
			}
		}
		count += countDescendants(child, types...)
	}
	return count
}
