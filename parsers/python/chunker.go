package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

func (p *PythonPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	src := t.Source()
	for _, stmt := range engine.ChildrenByType(root, "import_statement", "import_from_statement", "future_import_statement") {
		modules := importedModules(stmt, src)
		name := ""
		if len(modules) > 0 {
			name = modules[0]
		}
		c := t.NewConstruct(stmt, "import", name, schema.ScopeModule)
		c.SetContext("imports", modules)
		if stmt.Type() == "import_from_statement" {
			c.AddFeature("from_import")
		}
		t.Add(c)
	}
}

func (p *PythonPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "class_definition":
		p.handleClass(t, node)
	case "function_definition":
		p.handleFunction(t, node)
	}
}

func (p *PythonPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "class_definition", "function_definition",
		"import_statement", "import_from_statement", "future_import_statement":
		return true
	}
	return false
}

func (p *PythonPlugin) handleClass(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	outer := decoratedOuter(node)

	c := t.NewConstruct(outer, "class", name, schema.ScopeClass)
	c.Signature = classSignature(node, src)
	c.AddFeature(visibility(name))
	if bases := argumentTexts(node.ChildByFieldName("superclasses"), src); len(bases) > 0 {
		c.SetContext("extends", bases)
		c.AddFeature("inheritance")
	}
	p.describeDecorators(&c, outer, src)
	if doc := docstring(node.ChildByFieldName("body"), src); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func (p *PythonPlugin) handleFunction(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	outer := decoratedOuter(node)

	kind, scope := "function", schema.ScopeGlobal
	switch enclosingDefinition(outer) {
	case "class_definition":
		kind, scope = "method", schema.ScopeClass
	case "function_definition":
		scope = schema.ScopeLocal
	}

	c := t.NewConstruct(outer, kind, name, scope)
	c.Signature = functionSignature(node, src)
	c.AddFeature(visibility(name))
	if isDunder(name) {
		c.AddFeature("dunder")
	}
	if engine.HasChildType(node, "async") {
		c.AddFeature("async")
	}
	if params := engine.FieldText(node, "parameters", src); params != "" {
		c.SetContext("parameters", params)
	}
	if ret := engine.FieldText(node, "return_type", src); ret != "" {
		c.SetContext("returns", ret)
	}
	p.describeDecorators(&c, outer, src)
	if doc := docstring(node.ChildByFieldName("body"), src); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func (p *PythonPlugin) describeDecorators(c *schema.Construct, outer *sitter.Node, src []byte) {
	decorators := decoratorNames(outer, src)
	if len(decorators) == 0 {
		return
	}
	c.SetContext("decorators", decorators)
	c.AddFeature("decorated")
	for _, d := range decorators {
		switch d {
		case "staticmethod":
			c.AddFeature("static")
		case "classmethod", "property", "abstractmethod", "dataclass":
			c.AddFeature(d)
		}
	}
}

// decoratedOuter returns the decorated_definition wrapping node, so the
// construct includes its decorator lines.
func decoratedOuter(node *sitter.Node) *sitter.Node {
	if parent := node.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		return parent
	}
	return node
}

// enclosingDefinition reports the kind of definition whose body holds node.
func enclosingDefinition(node *sitter.Node) string {
	block := node.Parent()
	if block == nil || block.Type() != "block" {
		return ""
	}
	if owner := block.Parent(); owner != nil {
		return owner.Type()
	}
	return ""
}

func decoratorNames(outer *sitter.Node, src []byte) []string {
	var names []string
	for _, d := range engine.ChildrenByType(outer, "decorator") {
		name := strings.TrimPrefix(strings.TrimSpace(engine.NodeText(d, src)), "@")
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = name[:idx]
		}
		if idx := strings.LastIndexByte(name, '.'); idx >= 0 && name[idx+1:] != "setter" && name[idx+1:] != "getter" {
			name = name[idx+1:]
		}
		names = append(names, strings.TrimSpace(name))
	}
	return names
}

func importedModules(stmt *sitter.Node, src []byte) []string {
	if name := stmt.ChildByFieldName("module_name"); name != nil {
		return []string{engine.NodeText(name, src)}
	}
	var modules []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			modules = append(modules, engine.NodeText(child, src))
		case "aliased_import":
			modules = append(modules, engine.FieldText(child, "name", src))
		}
	}
	if len(modules) == 0 && stmt.Type() == "future_import_statement" {
		modules = append(modules, "__future__")
	}
	return modules
}

func argumentTexts(args *sitter.Node, src []byte) []string {
	if args == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, engine.NodeText(child, src))
	}
	return out
}

// docstring returns the leading string literal of a block, without quotes.
func docstring(body *sitter.Node, src []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	text := engine.NodeText(str, src)
	text = strings.TrimLeft(text, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return strings.TrimSpace(text)
}

func functionSignature(node *sitter.Node, src []byte) string {
	return strings.TrimSuffix(engine.HeaderText(node, src, "body"), ":")
}

func classSignature(node *sitter.Node, src []byte) string {
	return strings.TrimSuffix(engine.HeaderText(node, src, "body"), ":")
}
