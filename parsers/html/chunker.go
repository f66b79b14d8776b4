package html

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// landmarks are the sectioning and structural tags that always become
// constructs.
var landmarks = map[string]bool{
	"html": true, "head": true, "body": true,
	"header": true, "nav": true, "main": true, "section": true, "article": true,
	"aside": true, "footer": true, "form": true, "table": true, "template": true,
	"dialog": true, "svg": true, "figure": true, "details": true,
}

var (
	prologRe     = regexp.MustCompile(`^\s*<\?xml\b([^?]*)\?>`)
	prologAttrRe = regexp.MustCompile(`([\w:-]+)\s*=\s*["']([^"']*)["']`)
	doctypeRe    = regexp.MustCompile(`(?i)^\s*<!DOCTYPE\s+([\w:.-]+)`)
)

// ExtractFileLevelConstructs records the XML prolog and the document type
// declaration.
func (p *HTMLPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	lines := t.Lines()
	for i, line := range lines {
		if engine.IsBlank(line) {
			continue
		}
		if m := prologRe.FindStringSubmatch(line); m != nil {
			c := schema.Construct{
				Kind:      "xml_prolog",
				Name:      "xml",
				Path:      "xml",
				Scope:     schema.ScopeModule,
				LineStart: i + 1,
				LineEnd:   i + 1,
				Text:      line,
				Signature: engine.Signature(line),
			}
			for _, attr := range prologAttrRe.FindAllStringSubmatch(m[1], -1) {
				c.SetContext(attr[1], attr[2])
			}
			t.Add(c)
		}
		break
	}

	for _, node := range engine.ChildrenByType(root, "doctype") {
		name := "html"
		if m := doctypeRe.FindStringSubmatch(t.Text(node)); m != nil {
			name = strings.ToLower(m[1])
		}
		t.Add(t.NewConstruct(node, "doctype", name, schema.ScopeModule))
	}
}

func (p *HTMLPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "element":
		p.handleElement(t, node)
	case "script_element":
		p.handleScript(t, node)
	case "style_element":
		p.handleStyle(t, node)
	}
}

func (p *HTMLPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "element", "script_element", "style_element", "doctype":
		return true
	}
	return false
}

func (p *HTMLPlugin) handleElement(t *engine.Traversal, node *sitter.Node) {
	src := t.Source()
	tag := engine.NodeText(engine.FindDescendant(node, 1, "tag_name"), src)
	attrs := attributes(engine.ChildByType(node, "start_tag", "self_closing_tag"), src)
	id := attrs["id"]
	custom := strings.Contains(tag, "-")

	if !landmarks[strings.ToLower(tag)] && id == "" && !custom && !isRootElement(node) {
		t.WalkChildren(node)
		return
	}

	name := t.Sibling(elementName(tag, id))
	c := t.NewConstruct(node, "element", name, scopeOf(t))
	c.SetContext("tag", tag)
	if id != "" {
		c.SetContext("id", id)
		c.AddFeature("has_id")
	}
	if class := strings.Fields(attrs["class"]); len(class) > 0 {
		c.SetContext("classes", class)
	}
	if len(attrs) > 0 {
		c.SetContext("attributes", len(attrs))
	}
	if n := len(engine.ChildrenByType(node, "element", "script_element", "style_element")); n > 0 {
		c.SetContext("children", n)
	}
	if custom {
		c.AddFeature("custom_element")
	}
	if engine.HasChildType(node, "self_closing_tag") {
		c.AddFeature("self_closing")
	}
	t.Add(c)

	t.Within(name, func() { t.WalkChildren(node) })
}

func (p *HTMLPlugin) handleScript(t *engine.Traversal, node *sitter.Node) {
	attrs := attributes(engine.ChildByType(node, "start_tag"), t.Source())
	src := attrs["src"]
	c := t.NewConstruct(node, "script", baseName(src), scopeOf(t))
	if src != "" {
		c.SetContext("src", src)
		c.AddFeature("external")
	} else {
		c.AddFeature("inline")
	}
	if typ := attrs["type"]; typ != "" {
		c.SetContext("type", typ)
		if typ == "module" {
			c.AddFeature("module")
		}
	}
	for _, flag := range []string{"async", "defer"} {
		if _, ok := attrs[flag]; ok {
			c.AddFeature(flag)
		}
	}
	t.Add(c)
}

func (p *HTMLPlugin) handleStyle(t *engine.Traversal, node *sitter.Node) {
	attrs := attributes(engine.ChildByType(node, "start_tag"), t.Source())
	c := t.NewConstruct(node, "style", "", scopeOf(t))
	if media := attrs["media"]; media != "" {
		c.SetContext("media", media)
	}
	if lang := attrs["lang"]; lang != "" {
		c.SetContext("lang", lang)
	}
	t.Add(c)
}

// attributes maps attribute names to their unquoted values. Boolean
// attributes map to "".
func attributes(tag *sitter.Node, src []byte) map[string]string {
	out := make(map[string]string)
	for _, attr := range engine.ChildrenByType(tag, "attribute") {
		name := engine.ChildTextByType(attr, src, "attribute_name")
		if name == "" {
			continue
		}
		value := engine.ChildTextByType(attr, src, "attribute_value")
		if quoted := engine.ChildByType(attr, "quoted_attribute_value"); quoted != nil {
			value = engine.Unquote(engine.NodeText(quoted, src))
		}
		out[strings.ToLower(name)] = value
	}
	return out
}

func isRootElement(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Type() == "document"
}

func elementName(tag, id string) string {
	if id == "" {
		return tag
	}
	return tag + "#" + id
}

// baseName names a script after its source file.
func baseName(src string) string {
	if src == "" {
		return ""
	}
	src, _, _ = strings.Cut(src, "?")
	if i := strings.LastIndex(src, "/"); i >= 0 {
		src = src[i+1:]
	}
	return src
}

func scopeOf(t *engine.Traversal) string {
	if t.Scope().Depth() > 0 {
		return schema.ScopeBlock
	}
	return schema.ScopeGlobal
}
