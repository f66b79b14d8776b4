package typescript

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var functionValueTypes = map[string]bool{
	"arrow_function":      true,
	"function":            true,
	"function_expression": true,
	"generator_function":  true,
}

// Parents that name or already cover a function value.
var namingParents = map[string]bool{
	"variable_declarator":     true,
	"public_field_definition": true,
	"field_definition":        true,
	"export_statement":        true,
}

func (p *Plugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	src := t.Source()
	for _, stmt := range engine.ChildrenByType(root, "import_statement") {
		source := engine.Unquote(engine.FieldText(stmt, "source", src))
		c := t.NewConstruct(stmt, "import", source, schema.ScopeModule)
		c.SetContext("source", source)
		if engine.HasChildType(stmt, "type") {
			c.AddFeature("type_only")
		}
		t.Add(c)
	}
}

func (p *Plugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "export_statement":
		p.handleExport(t, node)
	case "class_declaration", "abstract_class_declaration", "class":
		p.handleClass(t, node)
	case "method_definition", "method_signature", "abstract_method_signature":
		p.handleMethod(t, node)
	case "public_field_definition", "field_definition":
		p.handleField(t, node)
	case "function_declaration", "generator_function_declaration", "function_signature":
		p.handleFunction(t, node)
	case "lexical_declaration", "variable_declaration":
		p.handleVariables(t, node)
	case "arrow_function", "function", "function_expression", "generator_function":
		p.handleAnonymous(t, node)
	case "interface_declaration":
		p.handleTypeLike(t, node, "interface")
	case "type_alias_declaration":
		p.handleTypeLike(t, node, "type")
	case "enum_declaration":
		p.handleTypeLike(t, node, "enum")
	case "internal_module", "module":
		p.handleNamespace(t, node)
	}
}

func (p *Plugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "import_statement",
		"class_declaration", "abstract_class_declaration", "class",
		"method_definition", "method_signature", "abstract_method_signature",
		"public_field_definition", "field_definition",
		"function_declaration", "generator_function_declaration", "function_signature",
		"arrow_function", "function", "function_expression", "generator_function",
		"interface_declaration", "type_alias_declaration", "enum_declaration",
		"internal_module", "module":
		return true
	}
	return false
}

// handleExport emits exports that carry no declaration of their own, such as
// export lists and default expressions. Exported declarations are emitted by
// their own handlers with the export feature.
func (p *Plugin) handleExport(t *engine.Traversal, node *sitter.Node) {
	if node.ChildByFieldName("declaration") != nil {
		return
	}
	src := t.Source()
	name := "exports"
	if engine.HasChildType(node, "default") {
		name = "default"
	}
	c := t.NewConstruct(node, "export", name, schema.ScopeModule)
	c.AddFeature("export")
	if source := node.ChildByFieldName("source"); source != nil {
		c.SetContext("source", engine.Unquote(engine.NodeText(source, src)))
		c.AddFeature("reexport")
	}
	if clause := engine.ChildByType(node, "export_clause"); clause != nil {
		var names []string
		for _, spec := range engine.ChildrenByType(clause, "export_specifier") {
			names = append(names, engine.FieldText(spec, "name", src))
		}
		c.SetContext("names", names)
	}
	t.Add(c)
}

func (p *Plugin) handleClass(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	if name == "" && parentType(node) == "variable_declarator" {
		name = engine.FieldText(node.Parent(), "name", src)
	}
	outer := exportOuter(node)

	c := t.NewConstruct(outer, "class", name, schema.ScopeClass)
	c.Signature = engine.HeaderFrom(outer, node, src, "body")
	describeExport(&c, outer)
	if node.Type() == "abstract_class_declaration" {
		c.AddFeature("abstract")
	}
	if heritage := engine.ChildByType(node, "class_heritage"); heritage != nil {
		if ext := heritageNames(heritage, src, "extends_clause"); len(ext) > 0 {
			c.SetContext("extends", ext)
			c.AddFeature("extends")
		}
		if impl := heritageNames(heritage, src, "implements_clause"); len(impl) > 0 {
			c.SetContext("implements", impl)
			c.AddFeature("implements")
		}
		if heritage.NamedChildCount() > 0 && !c.HasFeature("extends") && !c.HasFeature("implements") {
			// JavaScript puts the superclass expression directly under class_heritage.
			c.SetContext("extends", []string{engine.NodeText(heritage.NamedChild(0), src)})
			c.AddFeature("extends")
		}
	}
	decorators := decoratorNames(node, src)
	if outer != node {
		decorators = append(decoratorNames(outer, src), decorators...)
	}
	if len(decorators) > 0 {
		c.SetContext("decorators", decorators)
		c.AddFeature("decorated")
	}
	if doc := engine.LeadingComment(outer, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(c.Name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func (p *Plugin) handleMethod(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	if slices.Contains(controlKeywords, name) && parentHasError(node) {
		// A broken method body lets "if (x) {" parse as a method named if.
		return
	}

	c := t.NewConstruct(node, "method", name, schema.ScopeClass)
	c.Signature = engine.HeaderText(node, src, "body")
	describeMember(&c, node, src, name)
	if node.Type() != "method_definition" || node.ChildByFieldName("body") == nil {
		c.AddFeature("signature_only")
	}
	if node.Type() == "abstract_method_signature" {
		c.AddFeature("abstract")
	}
	switch {
	case name == "constructor":
		c.AddFeature("constructor")
	case engine.HasChildType(node, "get"):
		c.AddFeature("getter")
	case engine.HasChildType(node, "set"):
		c.AddFeature("setter")
	}
	if engine.HasChildType(node, "*") {
		c.AddFeature("generator")
	}
	describeParameters(&c, node, src)
	if decorators := decoratorNames(node, src); len(decorators) > 0 {
		c.SetContext("decorators", decorators)
		c.AddFeature("decorated")
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

// handleField emits class fields initialised with a function as methods.
func (p *Plugin) handleField(t *engine.Traversal, node *sitter.Node) {
	value := node.ChildByFieldName("value")
	if value == nil || !functionValueTypes[value.Type()] {
		return
	}
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	if name == "" {
		name = engine.FieldText(node, "property", src)
	}

	c := t.NewConstruct(node, "method", name, schema.ScopeClass)
	describeMember(&c, node, src, name)
	describeFunctionValue(&c, value, src)
	t.Add(c)
}

func (p *Plugin) handleFunction(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	outer := exportOuter(node)

	c := t.NewConstruct(outer, "function", name, scopeFor(t))
	c.Signature = engine.HeaderFrom(outer, node, src, "body")
	describeExport(&c, outer)
	if engine.HasChildType(node, "async") {
		c.AddFeature("async")
	}
	if node.Type() == "generator_function_declaration" {
		c.AddFeature("generator")
	}
	if node.Type() == "function_signature" {
		c.AddFeature("signature_only")
	}
	describeParameters(&c, node, src)
	if doc := engine.LeadingComment(outer, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

// handleVariables emits declarators whose value is a function. A declaration
// with a single declarator keeps its keyword line.
func (p *Plugin) handleVariables(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	declarators := engine.ChildrenByType(node, "variable_declarator")
	for _, decl := range declarators {
		value := decl.ChildByFieldName("value")
		if value == nil || !functionValueTypes[value.Type()] {
			continue
		}
		target := decl
		if len(declarators) == 1 {
			target = exportOuter(node)
		}
		name := engine.FieldText(decl, "name", src)

		c := t.NewConstruct(target, "function", name, scopeFor(t))
		describeExport(&c, target)
		describeFunctionValue(&c, value, src)
		if engine.HasChildType(node, "const") {
			c.SetContext("binding", "const")
		}
		if doc := engine.LeadingComment(target, src, "comment"); doc != "" {
			c.SetContext("doc", doc)
		}
		t.Add(c)
	}
}

// handleAnonymous emits function values nobody names, such as callbacks
// passed at module level.
func (p *Plugin) handleAnonymous(t *engine.Traversal, node *sitter.Node) {
	if namingParents[parentType(node)] {
		return
	}
	src := t.Source()
	c := t.NewConstruct(node, "anonymous_function", engine.FieldText(node, "name", src), scopeFor(t))
	describeFunctionValue(&c, node, src)
	if call := callee(node, src); call != "" {
		c.SetContext("callee", call)
	}
	t.Add(c)
}

func (p *Plugin) handleTypeLike(t *engine.Traversal, node *sitter.Node, kind string) {
	src := t.Source()
	name := engine.FieldText(node, "name", src)
	outer := exportOuter(node)

	c := t.NewConstruct(outer, kind, name, scopeFor(t))
	describeExport(&c, outer)
	if kind == "interface" {
		if ext := engine.ChildByType(node, "extends_type_clause", "extends_clause"); ext != nil {
			c.SetContext("extends", namedTexts(ext, src))
			c.AddFeature("extends")
		}
	}
	if kind == "enum" && engine.HasChildType(node, "const") {
		c.AddFeature("const")
	}
	if tp := engine.FieldText(node, "type_parameters", src); tp != "" {
		c.SetContext("type_parameters", tp)
		c.AddFeature("generic")
	}
	if doc := engine.LeadingComment(outer, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)
}

func (p *Plugin) handleNamespace(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	name := engine.Unquote(engine.FieldText(node, "name", src))
	outer := exportOuter(node)
	if parent := outer.Parent(); parent != nil && parent.Type() == "ambient_declaration" {
		outer = parent
	}

	c := t.NewConstruct(outer, "namespace", name, schema.ScopeNamespace)
	describeExport(&c, outer)
	if outer.Type() == "ambient_declaration" {
		c.AddFeature("declare")
	}
	t.Add(c)

	t.Within(c.Name, func() {
		t.WalkChildren(node.ChildByFieldName("body"))
	})
}

func scopeFor(t *engine.Traversal) string {
	if t.Scope().Depth() > 0 {
		return schema.ScopeNamespace
	}
	return schema.ScopeGlobal
}

func parentHasError(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.HasError()
}

func parentType(node *sitter.Node) string {
	if parent := node.Parent(); parent != nil {
		return parent.Type()
	}
	return ""
}

// exportOuter returns the export statement wrapping node, if any.
func exportOuter(node *sitter.Node) *sitter.Node {
	if parent := node.Parent(); parent != nil && parent.Type() == "export_statement" {
		return parent
	}
	return node
}

func describeExport(c *schema.Construct, outer *sitter.Node) {
	if outer.Type() != "export_statement" {
		return
	}
	c.AddFeature("export")
	if engine.HasChildType(outer, "default") {
		c.AddFeature("default")
	}
}

func describeMember(c *schema.Construct, node *sitter.Node, src []byte, name string) {
	visibility := "public"
	if mod := engine.ChildByType(node, "accessibility_modifier"); mod != nil {
		visibility = strings.TrimSpace(engine.NodeText(mod, src))
	}
	if strings.HasPrefix(name, "#") {
		visibility = "private"
	}
	c.SetContext("visibility", visibility)
	c.AddFeature(visibility)
	if engine.HasChildType(node, "static") {
		c.AddFeature("static")
	}
	if engine.HasChildType(node, "async") {
		c.AddFeature("async")
	}
	if engine.HasChildType(node, "readonly") {
		c.AddFeature("readonly")
	}
	if engine.HasChildType(node, "abstract") {
		c.AddFeature("abstract")
	}
	if engine.HasChildType(node, "override_modifier") {
		c.AddFeature("override")
	}
}

func describeFunctionValue(c *schema.Construct, value *sitter.Node, src []byte) {
	if value.Type() == "arrow_function" {
		c.AddFeature("arrow")
	}
	if engine.HasChildType(value, "async") {
		c.AddFeature("async")
	}
	if value.Type() == "generator_function" {
		c.AddFeature("generator")
	}
	describeParameters(c, value, src)
}

func describeParameters(c *schema.Construct, node *sitter.Node, src []byte) {
	if params := engine.FieldText(node, "parameters", src); params != "" {
		c.SetContext("parameters", params)
	} else if param := engine.FieldText(node, "parameter", src); param != "" {
		c.SetContext("parameters", param)
	}
	if ret := engine.FieldText(node, "return_type", src); ret != "" {
		c.SetContext("returns", strings.TrimSpace(strings.TrimPrefix(ret, ":")))
	}
	if tp := engine.FieldText(node, "type_parameters", src); tp != "" {
		c.SetContext("type_parameters", tp)
		c.AddFeature("generic")
	}
}

func heritageNames(heritage *sitter.Node, src []byte, clause string) []string {
	node := engine.ChildByType(heritage, clause)
	if node == nil {
		return nil
	}
	return namedTexts(node, src)
}

func namedTexts(node *sitter.Node, src []byte) []string {
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" || child.Type() == "type_arguments" {
			continue
		}
		out = append(out, engine.NodeText(child, src))
	}
	return out
}

func decoratorNames(node *sitter.Node, src []byte) []string {
	var names []string
	for _, d := range engine.ChildrenByType(node, "decorator") {
		name := strings.TrimPrefix(strings.TrimSpace(engine.NodeText(d, src)), "@")
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = name[:idx]
		}
		names = append(names, name)
	}
	return names
}

// callee returns the function a callback is passed to, e.g. "describe".
func callee(node *sitter.Node, src []byte) string {
	args := node.Parent()
	if args == nil || args.Type() != "arguments" {
		return ""
	}
	call := args.Parent()
	if call == nil || call.Type() != "call_expression" {
		return ""
	}
	return engine.FieldText(call, "function", src)
}
