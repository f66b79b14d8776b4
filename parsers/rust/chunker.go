package rust

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var deriveList = regexp.MustCompile(`derive\s*\(([^)]*)\)`)

var commentTypes = []string{"line_comment", "block_comment"}

func (p *RustPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	src := t.Source()
	for _, decl := range engine.ChildrenByType(root, "use_declaration", "extern_crate_declaration") {
		p.addUse(t, decl, src)
	}
}

func (p *RustPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "use_declaration", "extern_crate_declaration":
		// Top-level uses were emitted with the file-level constructs.
		if t.Scope().Depth() > 0 {
			p.addUse(t, node, t.Source())
		}
	case "mod_item":
		p.handleMod(t, node)
	case "struct_item", "union_item":
		p.handleItem(t, node, "struct", schema.ScopeGlobal)
	case "enum_item":
		p.handleItem(t, node, "enum", schema.ScopeGlobal)
	case "type_item":
		p.handleItem(t, node, "type", schema.ScopeGlobal)
	case "const_item":
		p.handleItem(t, node, "const", schema.ScopeGlobal)
	case "static_item":
		p.handleItem(t, node, "static", schema.ScopeGlobal)
	case "macro_definition":
		p.handleItem(t, node, "macro", schema.ScopeGlobal)
	case "trait_item":
		p.handleTrait(t, node)
	case "impl_item":
		p.handleImpl(t, node)
	case "function_item", "function_signature_item":
		p.handleFunction(t, node)
	}
}

func (p *RustPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "use_declaration", "extern_crate_declaration", "mod_item",
		"struct_item", "union_item", "enum_item", "type_item",
		"const_item", "static_item", "macro_definition",
		"trait_item", "impl_item", "function_item", "function_signature_item":
		return true
	}
	return false
}

func (p *RustPlugin) addUse(t *engine.Traversal, node *sitter.Node, src []byte) {
	kind := "use"
	arg := engine.FieldText(node, "argument", src)
	if node.Type() == "extern_crate_declaration" {
		arg = engine.FieldText(node, "name", src)
		kind = "extern_crate"
	}
	c := t.NewConstruct(node, kind, engine.CollapseWhitespace(arg), schema.ScopeModule)
	describeVisibility(&c, node)
	t.Add(c)
}

func (p *RustPlugin) handleMod(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	c := p.newItem(t, node, "mod", name, schema.ScopeNamespace)
	body := node.ChildByFieldName("body")
	if body == nil {
		c.AddFeature("external")
	}
	t.Add(c)
	if body != nil {
		t.Within(name, func() {
			t.WalkChildren(body)
		})
	}
}

func (p *RustPlugin) handleItem(t *engine.Traversal, node *sitter.Node, kind, scope string) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	c := p.newItem(t, node, kind, name, scope)
	if node.Type() == "union_item" {
		c.AddFeature("union")
	}
	if node.Type() == "static_item" && engine.HasChildType(node, "mutable_specifier") {
		c.AddFeature("mutable")
	}
	if node.Type() == "macro_definition" {
		c.AddFeature("macro_rules")
	}
	t.Add(c)
}

func (p *RustPlugin) handleTrait(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	c := p.newItem(t, node, "trait", name, schema.ScopeClass)
	if bounds := engine.FieldText(node, "bounds", src); bounds != "" {
		c.SetContext("supertraits", strings.TrimSpace(strings.TrimPrefix(bounds, ":")))
	}
	t.Add(c)
	t.Within(name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func (p *RustPlugin) handleImpl(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	typeName := engine.FieldText(node, "type", src)
	name := baseTypeName(typeName)

	c := p.newItem(t, node, "impl", name, schema.ScopeClass)
	c.SetContext("type", typeName)
	block := "impl"
	if trait := engine.FieldText(node, "trait", src); trait != "" {
		c.SetContext("trait", trait)
		c.AddFeature("trait_impl")
		block = "impl_" + baseTypeName(trait)
	}
	// The impl block shares its name with the type; its path must not.
	t.Within(name, func() { c.Path = t.Scope().Path(t.Sibling(block)) })
	if engine.HasChildType(node, "unsafe") {
		c.AddFeature("unsafe")
	}
	t.Add(c)
	t.Within(name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func (p *RustPlugin) handleFunction(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)

	kind, scope := "function", schema.ScopeGlobal
	if owner := enclosingItem(node); owner == "impl_item" || owner == "trait_item" {
		kind, scope = "method", schema.ScopeClass
	} else if owner == "function_item" {
		scope = schema.ScopeLocal
	}

	c := p.newItem(t, node, kind, name, scope)
	c.Signature = strings.TrimSuffix(engine.HeaderText(node, src, "body"), ";")
	if params := node.ChildByFieldName("parameters"); params != nil {
		c.SetContext("parameters", engine.NodeText(params, src))
		if self := engine.ChildByType(params, "self_parameter"); self != nil {
			c.SetContext("receiver", engine.NodeText(self, src))
		}
	}
	if ret := engine.FieldText(node, "return_type", src); ret != "" {
		c.SetContext("returns", ret)
	}
	if mods := engine.ChildByType(node, "function_modifiers"); mods != nil {
		for _, mod := range strings.Fields(engine.NodeText(mods, src)) {
			switch mod {
			case "async", "unsafe", "const", "extern":
				c.AddFeature(mod)
			}
		}
	}
	if node.Type() == "function_signature_item" {
		c.AddFeature("signature_only")
	}
	if name == "main" && scope == schema.ScopeGlobal {
		c.AddFeature("entrypoint")
	}
	t.Add(c)
}

// newItem builds a construct that starts at the item's outer attributes and
// records their derives, visibility and doc comment.
func (p *RustPlugin) newItem(t *engine.Traversal, node *sitter.Node, kind, name, scope string) schema.Construct {
	src := t.Source()
	c := t.NewConstruct(node, kind, name, scope)
	describeVisibility(&c, node)
	if tp := engine.FieldText(node, "type_parameters", src); tp != "" {
		c.SetContext("type_parameters", tp)
		c.AddFeature("generic")
	}

	first := node
	var attributes []string
	for prev := node.PrevSibling(); prev != nil && prev.Type() == "attribute_item"; prev = prev.PrevSibling() {
		first = prev
		attributes = append([]string{engine.NodeText(prev, src)}, attributes...)
	}
	if first != node {
		start, _ := engine.LineSpan(first)
		t.Extend(&c, start)
		c.SetContext("attributes", attributes)
		for _, attr := range attributes {
			describeAttribute(&c, attr)
		}
	}
	if doc := engine.LeadingComment(first, src, commentTypes...); doc != "" {
		c.SetContext("doc", doc)
	}
	return c
}

func describeVisibility(c *schema.Construct, node *sitter.Node) {
	visibility := "private"
	if engine.HasChildType(node, "visibility_modifier") {
		visibility = "public"
	}
	c.SetContext("visibility", visibility)
	c.AddFeature(visibility)
}

func describeAttribute(c *schema.Construct, attr string) {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(attr, "#["), "]"))
	if m := deriveList.FindStringSubmatch(inner); m != nil {
		for _, d := range strings.Split(m[1], ",") {
			if d = strings.TrimSpace(d); d != "" {
				c.AddFeature("derive_" + d[strings.LastIndex(d, ":")+1:])
			}
		}
		return
	}
	switch {
	case inner == "test" || strings.HasSuffix(inner, "::test"):
		c.AddFeature("test")
	case strings.HasPrefix(inner, "cfg(test)"):
		c.AddFeature("test_only")
	case inner == "inline" || strings.HasPrefix(inner, "inline("):
		c.AddFeature("inline")
	}
}

// enclosingItem reports the kind of item whose body holds node.
func enclosingItem(node *sitter.Node) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Type() {
		case "declaration_list", "block":
			continue
		case "impl_item", "trait_item", "function_item", "mod_item":
			return parent.Type()
		default:
			return ""
		}
	}
	return ""
}

func baseTypeName(typeName string) string {
	name := strings.TrimLeft(typeName, "&*")
	name = strings.TrimPrefix(name, "mut ")
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	return strings.TrimSpace(name)
}
