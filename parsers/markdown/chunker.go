package markdown

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	atxOpen  = regexp.MustCompile(`^\s{0,3}(#{1,6})(?:\s+|$)`)
	atxClose = regexp.MustCompile(`\s+#+\s*$`)
)

// heading is one ATX or setext heading of the document.
type heading struct {
	level int
	title string
	line  int
	// last is the final line of the heading itself; setext headings span
	// their underline.
	last int
}

// outlineEntry is the section a heading opens: it runs until the next
// heading of the same or a higher level.
type outlineEntry struct {
	heading
	end     int
	parents []string
}

func (e outlineEntry) path() []string {
	return append(append([]string{}, e.parents...), e.title)
}

// ExtractFileLevelConstructs records the front matter and the heading
// outline. Sections nest by heading level, so their scope is derived from
// document order rather than from the tree.
func (p *MarkdownPlugin) ExtractFileLevelConstructs(t *engine.Traversal, root *sitter.Node) {
	lines := t.Lines()
	bodyStart := 1

	if fm := parseFrontMatter(lines, p.logger); fm != nil {
		c := lineConstruct(t, "front_matter", "front_matter", schema.ScopeModule, 1, fm.EndLine, nil)
		c.SetContext("properties", fm.Properties)
		if title := fm.Properties["title"]; title != "" {
			c.SetContext("title", title)
		}
		t.Add(c)
		bodyStart = fm.EndLine + 1
	}

	for _, entry := range outline(root, lines, bodyStart) {
		kind := "section"
		if entry.end == entry.last {
			kind = "heading"
		}
		c := lineConstruct(t, kind, entry.title, schema.ScopeSection, entry.line, entry.end, entry.parents)
		c.SetContext("level", entry.level)
		if len(entry.parents) > 0 {
			c.SetContext("breadcrumbs", strings.Join(entry.path(), " > "))
		}
		t.Add(c)
	}
}

func (p *MarkdownPlugin) HandleNode(t *engine.Traversal, node *sitter.Node, kind string) {
	switch kind {
	case "fenced_code_block", "indented_code_block":
		p.handleCodeBlock(t, node, kind)
	}
}

func (p *MarkdownPlugin) ShouldSkipDefaultTraversal(kind string) bool {
	switch kind {
	case "fenced_code_block", "indented_code_block", "minus_metadata", "plus_metadata":
		return true
	}
	return false
}

// handleCodeBlock records a code block inside the innermost section that
// contains it.
func (p *MarkdownPlugin) handleCodeBlock(t *engine.Traversal, node *sitter.Node, kind string) {
	lines := t.Lines()
	start, _ := engine.LineSpan(node)

	bodyStart := 1
	if fm := parseFrontMatter(lines, p.logger); fm != nil {
		if start <= fm.EndLine {
			return
		}
		bodyStart = fm.EndLine + 1
	}

	var parents []string
	for _, entry := range outline(rootOf(node), lines, bodyStart) {
		if entry.line <= start && start <= entry.end {
			parents = entry.path()
		}
	}

	c := t.NewConstruct(node, "code_block", "", schema.ScopeBlock)
	if len(parents) > 0 {
		c.Parent = engine.JoinPath(parents, "")
		c.Path = engine.JoinPath(parents, c.Name)
	}
	if kind == "indented_code_block" {
		c.AddFeature("indented")
	} else if info := engine.FindDescendant(node, 1, "info_string"); info != nil {
		lang := strings.Fields(t.Text(info))
		if len(lang) > 0 {
			c.SetContext("language", lang[0])
			c.AddFeature("lang_" + strings.ToLower(lang[0]))
		}
	}
	t.Add(c)
}

// outline collects the headings below bodyStart and computes each section's
// extent and ancestors.
func outline(root *sitter.Node, lines []string, bodyStart int) []outlineEntry {
	var headings []heading
	collectHeadings(root, lines, bodyStart, &headings)

	entries := make([]outlineEntry, 0, len(headings))
	var stack []heading
	for i, h := range headings {
		end := len(lines)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.line - 1
				break
			}
		}
		for end > h.last && engine.IsBlank(lines[end-1]) {
			end--
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		parents := make([]string, 0, len(stack))
		for _, s := range stack {
			parents = append(parents, s.title)
		}
		stack = append(stack, h)

		entries = append(entries, outlineEntry{heading: h, end: max(end, h.last), parents: parents})
	}
	return entries
}

func collectHeadings(node *sitter.Node, lines []string, bodyStart int, out *[]heading) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "atx_heading", "setext_heading":
		start, end := engine.LineSpan(node)
		if start < bodyStart || start > len(lines) {
			return
		}
		if h, ok := parseHeading(node.Type(), lines, start, end); ok {
			*out = append(*out, h)
		}
		return
	case "fenced_code_block", "indented_code_block", "html_block":
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectHeadings(node.NamedChild(i), lines, bodyStart, out)
	}
}

func parseHeading(kind string, lines []string, start, end int) (heading, bool) {
	first := lines[start-1]
	if kind == "atx_heading" {
		m := atxOpen.FindStringSubmatch(first)
		if m == nil {
			return heading{}, false
		}
		title := strings.TrimSpace(atxClose.ReplaceAllString(first[len(m[0]):], ""))
		return heading{level: len(m[1]), title: title, line: start, last: start}, true
	}

	if end == start && start < len(lines) {
		end = start + 1
	}
	underline := strings.TrimSpace(lines[min(end, len(lines))-1])
	level := 2
	if strings.HasPrefix(underline, "=") {
		level = 1
	}
	title := strings.TrimSpace(engine.SliceLines(lines, start, max(start, end-1)))
	return heading{level: level, title: engine.CollapseWhitespace(title), line: start, last: end}, true
}

// lineConstruct builds a construct from a line range with an explicit
// parent chain.
func lineConstruct(t *engine.Traversal, kind, name, scope string, start, end int, parents []string) schema.Construct {
	start, end = engine.ClampLines(len(t.Lines()), start, end)
	if name == "" {
		name = engine.SyntheticName(kind, start)
	}
	text := t.Slice(start, end)
	return schema.Construct{
		Kind:      kind,
		Name:      name,
		Path:      engine.JoinPath(parents, name),
		Parent:    engine.JoinPath(parents, ""),
		Scope:     scope,
		LineStart: start,
		LineEnd:   end,
		Text:      text,
		Signature: engine.Signature(text),
	}
}

func rootOf(node *sitter.Node) *sitter.Node {
	for node.Parent() != nil {
		node = node.Parent()
	}
	return node
}
