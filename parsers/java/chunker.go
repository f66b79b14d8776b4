package java

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var typeKinds = map[string]string{
	"class_declaration":           "class",
	"interface_declaration":       "interface",
	"enum_declaration":            "enum",
	"record_declaration":          "record",
	"annotation_type_declaration": "annotation",
}

var commentTypes = []string{"block_comment", "line_comment", "comment"}

func (p *JavaPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	src := t.Source()

	if pkg := engine.ChildByType(root, "package_declaration"); pkg != nil {
		name := engine.ChildTextByType(pkg, src, "scoped_identifier", "identifier")
		t.Add(t.NewConstruct(pkg, "package", name, schema.ScopeModule))
		t.OpenFileScope(name)
	}

	for _, imp := range engine.ChildrenByType(root, "import_declaration") {
		text := strings.TrimSuffix(strings.TrimSpace(engine.NodeText(imp, src)), ";")
		text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
		static := strings.HasPrefix(text, "static ")
		text = strings.TrimSpace(strings.TrimPrefix(text, "static"))

		c := t.NewConstruct(imp, "import", engine.CollapseWhitespace(text), schema.ScopeModule)
		if static {
			c.AddFeature("static")
		}
		if strings.HasSuffix(text, "*") {
			c.AddFeature("wildcard")
		}
		t.Add(c)
	}
}

func (p *JavaPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	if typeKind, ok := typeKinds[kind]; ok {
		p.handleType(t, node, typeKind)
		return
	}
	switch kind {
	case "method_declaration", "annotation_type_element_declaration":
		p.handleMethod(t, node, "method")
	case "constructor_declaration", "compact_constructor_declaration":
		p.handleMethod(t, node, "constructor")
	case "field_declaration", "constant_declaration":
		p.handleField(t, node)
	}
}

func (p *JavaPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	if _, ok := typeKinds[kind]; ok {
		return true
	}
	switch kind {
	case "package_declaration", "import_declaration",
		"method_declaration", "annotation_type_element_declaration",
		"constructor_declaration", "compact_constructor_declaration",
		"field_declaration", "constant_declaration":
		return true
	}
	return false
}

func (p *JavaPlugin) handleType(t *engine.Traversal, node *sitter.Node, kind string) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)

	c := t.NewConstruct(node, kind, name, schema.ScopeClass)
	c.Signature = engine.HeaderText(node, src, "body")
	describeModifiers(&c, node, src)
	if superclass := node.ChildByFieldName("superclass"); superclass != nil && superclass.NamedChildCount() > 0 {
		c.SetContext("extends", []string{engine.NodeText(superclass.NamedChild(0), src)})
		c.AddFeature("extends")
	}
	if ext := engine.ChildByType(node, "extends_interfaces"); ext != nil {
		c.SetContext("extends", typeList(ext, src))
		c.AddFeature("extends")
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		c.SetContext("implements", typeList(ifaces, src))
		c.AddFeature("implements")
	}
	if tp := engine.FieldText(node, "type_parameters", src); tp != "" {
		c.SetContext("type_parameters", tp)
		c.AddFeature("generic")
	}
	if params := engine.FieldText(node, "parameters", src); params != "" && kind == "record" {
		c.SetContext("components", params)
	}
	if doc := engine.LeadingComment(node, src, commentTypes...); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func (p *JavaPlugin) handleMethod(t *engine.Traversal, node *sitter.Node, kind string) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)

	c := t.NewConstruct(node, kind, name, schema.ScopeClass)
	c.Signature = strings.TrimSuffix(engine.HeaderText(node, src, "body"), ";")
	describeModifiers(&c, node, src)
	if params := engine.FieldText(node, "parameters", src); params != "" {
		c.SetContext("parameters", params)
	}
	if ret := engine.FieldText(node, "type", src); ret != "" {
		c.SetContext("returns", ret)
	}
	if tp := engine.FieldText(node, "type_parameters", src); tp != "" {
		c.SetContext("type_parameters", tp)
		c.AddFeature("generic")
	}
	if throws := engine.ChildByType(node, "throws"); throws != nil {
		c.SetContext("throws", typeList(throws, src))
	}
	if node.ChildByFieldName("body") == nil && kind == "method" {
		c.AddFeature("signature_only")
	}
	if doc := engine.LeadingComment(node, src, commentTypes...); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

func (p *JavaPlugin) handleField(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	var names []string
	for _, decl := range engine.ChildrenByType(node, "variable_declarator") {
		names = append(names, engine.FieldText(decl, "name", src))
	}
	name := ""
	if len(names) > 0 {
		name = names[0]
	}

	c := t.NewConstruct(node, "field", name, schema.ScopeClass)
	describeModifiers(&c, node, src)
	c.SetContext("names", names)
	if typ := engine.FieldText(node, "type", src); typ != "" {
		c.SetContext("type", typ)
	}
	if node.Type() == "constant_declaration" {
		c.AddFeature("constant")
	}
	t.Add(c)
}

// describeModifiers records visibility, keywords and annotations from the
// declaration's modifiers node.
func describeModifiers(c *schema.Construct, node *sitter.Node, src []byte) {
	visibility := "package"
	mods := engine.ChildByType(node, "modifiers")
	if mods != nil {
		var annotations []string
		for i := 0; i < int(mods.ChildCount()); i++ {
			child := mods.Child(i)
			switch child.Type() {
			case "public", "private", "protected":
				visibility = child.Type()
			case "static", "abstract", "final", "synchronized", "native", "default", "sealed", "non-sealed", "transient", "volatile", "strictfp":
				c.AddFeature(child.Type())
			case "marker_annotation", "annotation":
				name := engine.FieldText(child, "name", src)
				annotations = append(annotations, name)
				switch name {
				case "Override":
					c.AddFeature("override")
				case "Deprecated":
					c.AddFeature("deprecated")
				case "Test":
					c.AddFeature("test")
				}
			}
		}
		if len(annotations) > 0 {
			c.SetContext("annotations", annotations)
			c.AddFeature("annotated")
		}
	}
	c.SetContext("visibility", visibility)
	c.AddFeature(visibility)
}

func typeList(node *sitter.Node, src []byte) []string {
	if list := engine.ChildByType(node, "type_list"); list != nil {
		node = list
	}
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, engine.NodeText(node.NamedChild(i), src))
	}
	return out
}
