package html

import (
	"regexp"
	"strings"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	openTagRe = regexp.MustCompile(`^\s*<([A-Za-z][\w:.-]*)\b([^>]*)`)
	idAttrRe  = regexp.MustCompile(`\bid\s*=\s*["']([^"']+)["']`)
	srcAttrRe = regexp.MustCompile(`\bsrc\s*=\s*["']([^"']+)["']`)
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "xml_prolog", Regexp: regexp.MustCompile(`^\s*<\?(xml)\b`), Name: 1, Scope: schema.ScopeModule, End: closingEnd("?>")},
	{Kind: "doctype", Regexp: regexp.MustCompile(`(?i)^\s*<!DOCTYPE\s+([\w:.-]+)`), Name: 1, Scope: schema.ScopeModule, End: closingEnd(">")},
	{Kind: "script", Regexp: regexp.MustCompile(`(?i)^\s*<script\b`), End: closingEnd("</script>")},
	{Kind: "style", Regexp: regexp.MustCompile(`(?i)^\s*<style\b`), End: closingEnd("</style>")},
	{Kind: "element", Regexp: regexp.MustCompile(`^\s*<((?i:html|head|body|header|nav|main|section|article|aside|footer|form|table|template|dialog|svg|figure|details)|[a-z][\w]*-[\w-]*)\b`), Name: 1, Scoping: true, End: elementEnd},
	{Kind: "element", Regexp: regexp.MustCompile(`^\s*<([A-Za-z][\w:.-]*)\b[^>]*\bid\s*=`), Name: 1, Scoping: true, End: elementEnd},
}

// closingEnd ends a block on the first line containing marker.
func closingEnd(marker string) engine.BlockEndFunc {
	return func(lines []string, start int) int {
		for i := start; i < len(lines); i++ {
			if strings.Contains(strings.ToLower(lines[i]), marker) {
				return i
			}
		}
		return len(lines) - 1
	}
}

// elementEnd balances opening and closing tags of the element that opens on
// lines[start]. Self-closing and void elements end on their first line.
func elementEnd(lines []string, start int) int {
	m := openTagRe.FindStringSubmatch(lines[start])
	if m == nil {
		return start
	}
	tag := regexp.QuoteMeta(m[1])
	if strings.HasSuffix(strings.TrimSpace(m[2]), "/") {
		return start
	}
	opens := regexp.MustCompile(`<` + tag + `\b[^>]*[^/]>|<` + tag + `>`)
	closes := regexp.MustCompile(`</` + tag + `\s*>`)
	depth := 0
	for i := start; i < len(lines); i++ {
		depth += len(opens.FindAllStringIndex(lines[i], -1))
		depth -= len(closes.FindAllStringIndex(lines[i], -1))
		if depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// recoverMarkup runs the pattern table, then names elements tag#id and
// scripts after their source, carrying renamed paths down to nested matches.
func recoverMarkup(text string, startLine int, scope []string) []schema.Construct {
	out := engine.RecoverConstructs(recoveryPatterns, nil, text, startLine, scope)
	renamed := make(map[string]string)
	for i := range out {
		c := &out[i]
		oldPath := c.Path
		if parent, ok := renamed[c.Parent]; ok {
			c.Parent = parent
		}
		switch c.Kind {
		case "element":
			if m := idAttrRe.FindStringSubmatch(c.Signature); m != nil {
				c.Name = elementName(c.Name, m[1])
			}
		case "script":
			if m := srcAttrRe.FindStringSubmatch(c.Signature); m != nil {
				c.Name = baseName(m[1])
				c.SetContext("src", m[1])
			}
		case "doctype":
			c.Name = strings.ToLower(c.Name)
		}
		c.Path = engine.JoinPath([]string{c.Parent}, c.Name)
		if c.Path != oldPath {
			renamed[oldPath] = c.Path
		}
	}
	return out
}

func (p *HTMLPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return recoverMarkup(errorText, startLine, scope)
}

func (p *HTMLPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for markup file", "path", path)
	if strings.TrimSpace(content) == "" {
		return engine.WholeFileChunk(p.Name(), content, path)
	}
	constructs := recoverMarkup(content, 1, nil)
	if len(constructs) == 0 {
		return engine.WholeFileChunk(p.Name(), content, path)
	}
	for i := range constructs {
		constructs[i].SetContext(schema.ContextRecovery, engine.RecoveryWholeFile)
	}
	constructs = append(constructs, engine.FillGaps(engine.SplitLines(content), constructs)...)
	return engine.Assemble(constructs, engine.FileInfo{Path: path, Language: p.Name()})
}
