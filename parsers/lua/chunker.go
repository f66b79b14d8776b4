package lua

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	functionHeader = regexp.MustCompile(`^\s*(local\s+)?function\s+([\w.:]+)`)
	requireCall    = regexp.MustCompile(`^require\s*\(?\s*["']([^"']+)["']`)
)

func (p *LuaPlugin) ExtractFileLevelConstructs(_ *engine.Traversal, _ *sitter.Node) {}

func (p *LuaPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "function_declaration", "function_statement", "local_function", "local_function_statement":
		p.handleFunction(t, node, kind)
	case "variable_declaration", "local_variable_declaration", "assignment_statement":
		p.handleAssignment(t, node, kind)
	}
}

func (p *LuaPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "function_declaration", "function_statement", "local_function", "local_function_statement",
		"variable_declaration", "local_variable_declaration", "assignment_statement":
		return true
	}
	return false
}

func (p *LuaPlugin) handleFunction(t *engine.Traversal, node *sitter.Node, kind string) {
	src := t.Source()
	m := functionHeader.FindStringSubmatch(engine.NodeText(node, src))
	if m == nil {
		return
	}
	local := m[1] != "" || strings.HasPrefix(kind, "local_") || engine.HasChildType(node, "local")
	owner, name, method := splitName(m[2])

	construct := "function"
	switch {
	case method:
		construct = "method"
	case local:
		construct = "local_function"
	}
	scope := schema.ScopeGlobal
	if owner != "" {
		scope = schema.ScopeClass
	}

	build := func() {
		c := t.NewConstruct(node, construct, name, scope)
		if local {
			c.AddFeature("local")
		}
		if params := engine.FieldText(node, "parameters", src); params != "" {
			c.SetContext("parameters", params)
		}
		if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
			c.SetContext("doc", doc)
		}
		t.Add(c)
	}
	if owner != "" {
		t.Within(owner, build)
		return
	}
	build()
}

// handleAssignment emits tables and function values bound to a name, and
// plain top-level variables.
func (p *LuaPlugin) handleAssignment(t *engine.Traversal, node *sitter.Node, kind string) {
	text := engine.NodeText(node, t.Source())
	local := strings.HasPrefix(kind, "local_") || strings.HasPrefix(strings.TrimSpace(text), "local ")
	text = strings.TrimPrefix(strings.TrimSpace(text), "local ")

	lhs, rhs, found := strings.Cut(text, "=")
	if !found {
		lhs = text
	}
	names := strings.Split(lhs, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	owner, name, _ := splitName(names[0])
	rhs = strings.TrimSpace(rhs)

	construct := "variable"
	switch {
	case strings.HasPrefix(rhs, "{"):
		construct = "table"
		if local {
			construct = "local_table"
		}
	case strings.HasPrefix(rhs, "function"):
		construct = "function"
		if local {
			construct = "local_function"
		}
	}

	build := func() {
		c := t.NewConstruct(node, construct, name, schema.ScopeGlobal)
		if local {
			c.AddFeature("local")
		}
		if len(names) > 1 {
			c.SetContext("names", names)
		}
		if m := requireCall.FindStringSubmatch(rhs); m != nil {
			c.SetContext("require", m[1])
			c.AddFeature("require")
		}
		t.Add(c)
	}
	if owner != "" {
		t.Within(owner, build)
		return
	}
	build()
}

// splitName splits "a.b:c" into owner "a.b" and name "c"; method reports a
// colon separator.
func splitName(full string) (owner, name string, method bool) {
	if idx := strings.LastIndexByte(full, ':'); idx >= 0 {
		return full[:idx], full[idx+1:], true
	}
	if idx := strings.LastIndexByte(full, '.'); idx >= 0 {
		return full[:idx], full[idx+1:], false
	}
	return "", full, false
}
