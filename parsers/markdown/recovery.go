package markdown

import (
	"regexp"
	"strings"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	headingRe = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.+?)(?:\s+#+)?\s*$`)
	fenceRe   = regexp.MustCompile("^\\s{0,3}(`{3,}|~{3,})\\s*([^`\\s]*)")
)

type fence struct {
	start, end int // 0-based, inclusive
	marker     string
	language   string
}

// findFences locates fenced code blocks. An unclosed fence runs to the end
// of the text.
func findFences(lines []string) []fence {
	var fences []fence
	for i := 0; i < len(lines); i++ {
		m := fenceRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		f := fence{start: i, end: len(lines) - 1, marker: m[1], language: m[2]}
		for j := i + 1; j < len(lines); j++ {
			closing := strings.TrimSpace(lines[j])
			if strings.HasPrefix(closing, f.marker) && strings.Trim(closing, f.marker[:1]) == "" {
				f.end = j
				break
			}
		}
		fences = append(fences, f)
		i = f.end
	}
	return fences
}

// headingEnd closes a section before the next heading of the same or a
// higher level. Trailing blank lines of the original text are trimmed.
func headingEnd(original []string) engine.BlockEndFunc {
	return func(lines []string, start int) int {
		level := len(headingRe.FindStringSubmatch(lines[start])[1])
		end := len(lines) - 1
		for i := start + 1; i < len(lines); i++ {
			if m := headingRe.FindStringSubmatch(lines[i]); m != nil && len(m[1]) <= level {
				end = i - 1
				break
			}
		}
		for end > start && engine.IsBlank(original[end]) {
			end--
		}
		return end
	}
}

// recoverDocument finds sections and code blocks by line patterns. Fenced
// lines are masked before heading detection so that comments inside code
// never open a section.
func recoverDocument(text string, startLine int, scope []string) []schema.Construct {
	lines := engine.SplitLines(text)
	fences := findFences(lines)

	masked := make([]string, len(lines))
	copy(masked, lines)
	for _, f := range fences {
		for i := f.start; i <= f.end; i++ {
			masked[i] = ""
		}
	}

	table := engine.PatternTable{
		{Kind: "section", Regexp: headingRe, Name: 2, Scope: schema.ScopeSection, Scoping: true, End: headingEnd(lines)},
	}
	out := engine.RecoverConstructs(table, nil, strings.Join(masked, "\n"), startLine, scope)
	for i := range out {
		c := &out[i]
		c.Text = engine.SliceLines(lines, c.LineStart-startLine+1, c.LineEnd-startLine+1)
		if m := headingRe.FindStringSubmatch(lines[c.LineStart-startLine]); m != nil {
			c.SetContext("level", len(m[1]))
		}
	}

	for _, f := range fences {
		line := startLine + f.start
		parent := engine.JoinPath(scope, "")
		for _, s := range out {
			if s.Kind == "section" && s.LineStart <= line && line <= s.LineEnd {
				parent = s.Path
			}
		}
		name := engine.SyntheticName("code_block", line)
		text := engine.SliceLines(lines, f.start+1, f.end+1)
		c := schema.Construct{
			Kind:      "code_block",
			Name:      name,
			Path:      engine.JoinPath([]string{parent}, name),
			Parent:    parent,
			Scope:     schema.ScopeBlock,
			LineStart: line,
			LineEnd:   startLine + f.end,
			Text:      text,
			Signature: engine.Signature(text),
		}
		if f.language != "" {
			c.SetContext("language", f.language)
			c.AddFeature("lang_" + strings.ToLower(f.language))
		}
		c.SetContext(schema.ContextRecovered, true)
		c.SetContext(schema.ContextRecovery, engine.RecoveryPattern)
		out = append(out, c)
	}
	return out
}

func (p *MarkdownPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return recoverDocument(errorText, startLine, scope)
}

func (p *MarkdownPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Markdown file", "path", path)
	if strings.TrimSpace(content) == "" {
		return engine.WholeFileChunk(p.Name(), content, path)
	}

	lines := engine.SplitLines(content)
	var constructs []schema.Construct
	bodyStart := 1
	if fm := parseFrontMatter(lines, p.logger); fm != nil {
		text := engine.SliceLines(lines, 1, fm.EndLine)
		c := schema.Construct{
			Kind:      "front_matter",
			Name:      "front_matter",
			Path:      "front_matter",
			Scope:     schema.ScopeModule,
			LineStart: 1,
			LineEnd:   fm.EndLine,
			Text:      text,
			Signature: engine.Signature(text),
		}
		c.SetContext("properties", fm.Properties)
		constructs = append(constructs, c)
		bodyStart = fm.EndLine + 1
	}
	if bodyStart <= len(lines) {
		body := engine.SliceLines(lines, bodyStart, len(lines))
		constructs = append(constructs, recoverDocument(body, bodyStart, nil)...)
	}
	if len(constructs) == 0 {
		return engine.WholeFileChunk(p.Name(), content, path)
	}
	for i := range constructs {
		constructs[i].SetContext(schema.ContextRecovery, engine.RecoveryWholeFile)
	}
	constructs = append(constructs, engine.FillGaps(lines, constructs)...)
	return engine.Assemble(constructs, engine.FileInfo{Path: path, Language: p.Name()})
}
