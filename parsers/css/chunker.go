package css

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

const maxSelectorName = 120

var importRe = regexp.MustCompile(`^\s*@import\s+(?:url\(\s*)?["']?([^"')\s;]+)["']?\)?\s*([^;]*)`)

// ExtractFileLevelConstructs records @import statements.
func (p *CSSPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	for _, node := range engine.ChildrenByType(root, "import_statement") {
		p.addImport(t, node)
	}
}

func (p *CSSPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "rule_set":
		p.handleRule(t, node)
	case "media_statement":
		p.handleGroup(t, node, "media", "@media")
	case "supports_statement":
		p.handleGroup(t, node, "supports", "@supports")
	case "keyframes_statement":
		p.handleKeyframes(t, node)
	case "at_rule":
		p.handleAtRule(t, node)
	case "import_statement":
		// nested imports, as in SCSS partials inside a rule
		if node.Parent() != nil && node.Parent().Type() != "stylesheet" {
			p.addImport(t, node)
		}
	}
}

func (p *CSSPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "rule_set", "media_statement", "supports_statement", "keyframes_statement", "at_rule", "import_statement":
		return true
	}
	return false
}

func (p *CSSPlugin) addImport(t *engine.Traversal, node *sitter.Node) {
	m := importRe.FindStringSubmatch(engine.CollapseWhitespace(t.Text(node)))
	if m == nil {
		return
	}
	c := t.NewConstruct(node, "import", m[1], schema.ScopeModule)
	if media := strings.TrimSpace(m[2]); media != "" {
		c.SetContext("media", media)
	}
	t.Add(c)
}

func (p *CSSPlugin) handleRule(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	selectors := engine.CollapseWhitespace(engine.ChildTextByType(node, src, "selectors"))
	name := engine.Truncate(selectors, maxSelectorName)

	c := t.NewConstruct(node, "rule", name, scopeOf(t))
	segment := escapePath(t, &c)
	if selectors != "" {
		var list []string
		for _, s := range strings.Split(selectors, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
		c.SetContext("selectors", list)
	}

	block := engine.ChildByType(node, "block")
	declarations := engine.ChildrenByType(block, "declaration")
	c.SetContext("declarations", len(declarations))

	var custom []string
	for _, decl := range declarations {
		if prop := engine.ChildTextByType(decl, src, "property_name"); strings.HasPrefix(prop, "--") {
			custom = append(custom, prop)
		}
	}
	if len(custom) > 0 {
		c.SetContext("custom_properties", custom)
		c.AddFeature("custom_properties")
	}
	if engine.HasChildType(block, "rule_set") {
		c.AddFeature("nested")
	}
	text := t.Text(node)
	if strings.Contains(text, "!important") {
		c.AddFeature("important")
	}
	if strings.Contains(text, "var(--") || strings.Contains(text, "$") {
		c.AddFeature("uses_variables")
	}
	if doc := engine.LeadingComment(node, src, "comment"); doc != "" {
		c.SetContext("doc", doc)
	}
	t.Add(c)

	t.Within(segment, func() { t.WalkChildren(block) })
}

// handleGroup records a conditional group rule and scopes the rules inside
// it under its condition.
func (p *CSSPlugin) handleGroup(t *engine.Traversal, node *sitter.Node, kind, keyword string) {
	condition := strings.TrimSpace(strings.TrimPrefix(header(node, t.Source()), keyword))
	c := t.NewConstruct(node, kind, condition, scopeOf(t))
	segment := escapePath(t, &c)
	block := engine.ChildByType(node, "block")
	c.SetContext("rules", len(engine.ChildrenByType(block, "rule_set")))
	t.Add(c)

	t.Within(segment, func() { t.WalkChildren(block) })
}

func (p *CSSPlugin) handleKeyframes(t *engine.Traversal, node *sitter.Node) {
	name := engine.ChildTextByType(node, t.Source(), "keyframes_name")
	c := t.NewConstruct(node, "keyframes", name, scopeOf(t))
	if list := engine.ChildByType(node, "keyframe_block_list"); list != nil {
		c.SetContext("steps", len(engine.ChildrenByType(list, "keyframe_block")))
	}
	if keyword := engine.ChildByType(node, "at_keyword"); keyword != nil {
		if vendor := strings.TrimSuffix(strings.TrimPrefix(t.Text(keyword), "@"), "keyframes"); vendor != "" {
			c.AddFeature("vendor_prefixed")
		}
	}
	t.Add(c)
}

func (p *CSSPlugin) handleAtRule(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	keyword := engine.ChildTextByType(node, src, "at_keyword")
	block := engine.ChildByType(node, "block")

	if keyword == "@font-face" {
		c := t.NewConstruct(node, "font_face", declarationValue(block, src, "font-family"), scopeOf(t))
		if s := declarationValue(block, src, "src"); s != "" {
			c.SetContext("src", s)
		}
		t.Add(c)
		return
	}

	c := t.NewConstruct(node, "at_rule", header(node, src), scopeOf(t))
	segment := escapePath(t, &c)
	c.SetContext("keyword", keyword)
	t.Add(c)
	if block != nil {
		t.Within(segment, func() { t.WalkChildren(block) })
	}
}

// escapePath rewrites the path of c so that dots inside selectors and
// conditions do not read as scope separators. It returns the escaped segment
// for the scope of nested rules.
func escapePath(t *engine.Traversal, c *schema.Construct) string {
	segment := engine.EscapeName(c.Name)
	c.Path = t.Scope().Path(segment)
	return segment
}

// header is the prelude of a rule up to its block, whitespace collapsed.
func header(node *sitter.Node, src []byte) string {
	end := node.EndByte()
	if body := engine.ChildByType(node, "block", "keyframe_block_list"); body != nil {
		end = body.StartByte()
	}
	return engine.CollapseWhitespace(strings.TrimSuffix(string(src[node.StartByte():end]), ";"))
}

// declarationValue returns the unquoted value of the first declaration of
// property in block.
func declarationValue(block *sitter.Node, src []byte, property string) string {
	for _, decl := range engine.ChildrenByType(block, "declaration") {
		if engine.ChildTextByType(decl, src, "property_name") != property {
			continue
		}
		_, value, _ := strings.Cut(engine.NodeText(decl, src), ":")
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ";"))
		return engine.Unquote(value)
	}
	return ""
}

func scopeOf(t *engine.Traversal) string {
	if t.Scope().Depth() > 0 {
		return schema.ScopeBlock
	}
	return schema.ScopeGlobal
}
