package golang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// ExtractFileLevelConstructs records the package clause and import blocks.
// The package name scopes every later construct in the file.
func (p *GoPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	src := t.Source()

	if pkg := engine.ChildByType(root, "package_clause"); pkg != nil {
		name := engine.ChildTextByType(pkg, src, "package_identifier")
		t.Add(t.NewConstruct(pkg, "package", name, schema.ScopeModule))
		t.OpenFileScope(name)
	}

	for _, decl := range engine.ChildrenByType(root, "import_declaration") {
		paths := importPaths(decl, src)
		name := "imports"
		if len(paths) == 1 {
			name = paths[0]
		}
		c := t.NewConstruct(decl, "import", name, schema.ScopeModule)
		c.SetContext("imports", paths)
		t.Add(c)
	}
}

func (p *GoPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "function_declaration":
		p.handleFunction(t, node)
	case "method_declaration":
		p.handleMethod(t, node)
	case "type_declaration":
		p.handleTypeDeclaration(t, node)
	case "const_declaration", "var_declaration":
		p.handleValueDeclaration(t, node, strings.TrimSuffix(kind, "_declaration"))
	}
}

func (p *GoPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "package_clause", "import_declaration",
		"function_declaration", "method_declaration",
		"type_declaration", "const_declaration", "var_declaration":
		return true
	}
	return false
}

func (p *GoPlugin) handleFunction(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)

	c := t.NewConstruct(node, "function", name, schema.ScopeGlobal)
	p.describeCallable(&c, node, src, name)
	t.Add(c)
}

func (p *GoPlugin) handleMethod(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	receiver := receiverType(node.ChildByFieldName("receiver"), src)

	t.Within(receiverBase(receiver), func() {
		c := t.NewConstruct(node, "method", name, schema.ScopeClass)
		p.describeCallable(&c, node, src, name)
		c.SetContext("receiver", receiver)
		if strings.HasPrefix(receiver, "*") {
			c.AddFeature("pointer_receiver")
		}
		t.Add(c)
	})
}

func (p *GoPlugin) describeCallable(c *schema.Construct, node *sitter.Node, src []byte, name string) {
	c.Signature = engine.HeaderText(node, src, "body")
	visibility := p.getVisibility(name)
	c.SetContext("visibility", visibility)
	c.AddFeature(visibility)

	if params := engine.FieldText(node, "parameters", src); params != "" {
		c.SetContext("parameters", params)
	}
	if result := engine.FieldText(node, "result", src); result != "" {
		c.SetContext("returns", result)
	}
	if tp := engine.FieldText(node, "type_parameters", src); tp != "" {
		c.SetContext("type_parameters", tp)
		c.AddFeature("generic")
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	if name == "main" || name == "init" {
		c.AddFeature("entrypoint")
	}
	if strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "Benchmark") {
		c.AddFeature("test")
	}
}

func (p *GoPlugin) handleTypeDeclaration(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	specs := engine.ChildrenByType(node, "type_spec", "type_alias")

	for _, spec := range specs {
		target := spec
		if len(specs) == 1 {
			target = node
		}
		name := engine.FieldText(spec, "name", src)
		typeNode := spec.ChildByFieldName("type")

		kind := "type"
		if typeNode != nil {
			switch typeNode.Type() {
			case "struct_type":
				kind = "struct"
			case "interface_type":
				kind = "interface"
			}
		}

		c := t.NewConstruct(target, kind, name, schema.ScopeGlobal)
		visibility := p.getVisibility(name)
		c.SetContext("visibility", visibility)
		c.AddFeature(visibility)
		if spec.Type() == "type_alias" {
			c.SetContext("alias", true)
		}
		if tp := engine.FieldText(spec, "type_parameters", src); tp != "" {
			c.SetContext("type_parameters", tp)
			c.AddFeature("generic")
		}
		switch kind {
		case "struct":
			c.SetContext("fields", countDescendants(typeNode, "field_declaration"))
		case "interface":
			c.SetContext("methods", countDescendants(typeNode, "method_elem", "method_spec"))
		default:
			if typeNode != nil {
				c.SetContext("underlying", engine.NodeText(typeNode, src))
			}
		}
		if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
			c.SetContext("doc", doc)
		}
		t.Add(c)
	}
}

func (p *GoPlugin) handleValueDeclaration(t *engine.Traversal, node *sitter.Node, kind string) {
	src := t.Source()
	var names []string
	for _, spec := range valueSpecs(node) {
		for _, id := range engine.ChildrenByType(spec, "identifier") {
			names = append(names, engine.NodeText(id, src))
		}
	}

	name := ""
	if len(names) > 0 {
		name = names[0]
	}
	c := t.NewConstruct(node, kind, name, schema.ScopeGlobal)
	c.SetContext("names", names)
	if name != "" {
		visibility := p.getVisibility(name)
		c.SetContext("visibility", visibility)
		c.AddFeature(visibility)
	}
	if len(names) > 1 {
		c.AddFeature("grouped")
	}
	t.Add(c)
}

func valueSpecs(node *sitter.Node) []*sitter.Node {
	var specs []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "const_spec", "var_spec":
			specs = append(specs, child)
		case "var_spec_list", "const_spec_list":
			specs = append(specs, engine.ChildrenByType(child, "const_spec", "var_spec")...)
		}
	}
	return specs
}

func importPaths(decl *sitter.Node, src []byte) []string {
	var paths []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "import_spec":
				if path := engine.FieldText(child, "path", src); path != "" {
					paths = append(paths, engine.Unquote(path))
				}
			case "import_spec_list":
				visit(child)
			}
		}
	}
	visit(decl)
	return paths
}

// receiverType returns the receiver's type text, e.g. "*Server" or "Box[T]".
func receiverType(params *sitter.Node, src []byte) string {
	decl := engine.ChildByType(params, "parameter_declaration")
	if decl == nil {
		return ""
	}
	return engine.FieldText(decl, "type", src)
}

func receiverBase(receiver string) string {
	base := strings.TrimLeft(receiver, "*")
	if idx := strings.IndexByte(base, '['); idx >= 0 {
		base = base[:idx]
	}
	return strings.TrimSpace(base)
}

func countDescendants(node *sitter.Node, types ...string) int {
	if node == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		for _, typ := range types {
			if child.Type() == typ {
				count++
				break
			}
		}
		count += countDescendants(child, types...)
	}
	return count
}
