package engine

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/sevigo/semchunk/schema"
)

// BlockEndFunc returns the 0-based index of the last line of the block that
// starts at lines[start]. Results below start are treated as start.
type BlockEndFunc func(lines []string, start int) int

// Pattern is one row of a recovery table: a line-anchored regular expression
// and the construct kind it produces.
type Pattern struct {
	Kind   string
	Regexp *regexp.Regexp
	// Name is the capture group holding the identifier. Zero or a missing
	// group yields a synthetic name.
	Name int
	// Scope is the coarse scope classifier of the construct.
	Scope string
	// Scoping patterns become the parent of matches inside their block.
	Scoping  bool
	Features []string
	// End overrides the table's block-end heuristic for this pattern.
	End BlockEndFunc
	// Exclude lists captured names that disqualify the match, such as
	// control-flow keywords caught by a loose method pattern.
	Exclude []string
}

// PatternTable is evaluated top to bottom for every line; the first matching
// pattern wins.
type PatternTable []Pattern

// Match returns the first pattern matching line and its submatches.
func (pt PatternTable) Match(line string) (*Pattern, []string) {
	for i := range pt {
		m := pt[i].Regexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if n := pt[i].Name; n > 0 && n < len(m) && slices.Contains(pt[i].Exclude, m[n]) {
			continue
		}
		return &pt[i], m
	}
	return nil, nil
}

type openScope struct {
	name string
	end  int
}

// RecoverConstructs applies table to every line of text, which starts at
// absolute line startLine inside the given scope. Each result is tagged as
// recovered.
func RecoverConstructs(table PatternTable, end BlockEndFunc, text string, startLine int, scope []string) []schema.Construct {
	lines := SplitLines(text)
	var stack []openScope
	var out []schema.Construct

	for i, line := range lines {
		for len(stack) > 0 && stack[len(stack)-1].end < i {
			stack = stack[:len(stack)-1]
		}
		p, m := table.Match(line)
		if p == nil {
			continue
		}

		name := ""
		if p.Name > 0 && p.Name < len(m) {
			name = strings.TrimSpace(m[p.Name])
		}
		if name == "" {
			name = SyntheticName(p.Kind, startLine+i)
		}

		last := i
		switch {
		case p.End != nil:
			last = p.End(lines, i)
		case end != nil:
			last = end(lines, i)
		}
		last = min(max(last, i), len(lines)-1)

		names := slices.Clone(scope)
		for _, s := range stack {
			names = append(names, s.name)
		}

		c := schema.Construct{
			Kind:      p.Kind,
			Name:      name,
			Path:      JoinPath(names, name),
			Parent:    JoinPath(names, ""),
			Scope:     p.Scope,
			LineStart: startLine + i,
			LineEnd:   startLine + last,
			Text:      SliceLines(lines, i+1, last+1),
			Signature: Signature(line),
		}
		if c.Scope == "" {
			c.Scope = schema.ScopeGlobal
		}
		c.AddFeature(p.Features...)
		c.SetContext(schema.ContextRecovered, true)
		c.SetContext(schema.ContextRecovery, RecoveryPattern)
		out = append(out, c)

		if p.Scoping && last > i {
			stack = append(stack, openScope{name: name, end: last})
		}
	}
	return out
}

// FallbackChunks is the shared whole-file fallback: pattern recovery over the
// entire file, gap fill, then assembly. Without any match it returns the
// single whole-file chunk.
func FallbackChunks(language string, table PatternTable, end BlockEndFunc, content, path string) []schema.SemanticChunk {
	if strings.TrimSpace(content) == "" {
		return WholeFileChunk(language, content, path)
	}
	constructs := RecoverConstructs(table, end, content, 1, nil)
	if len(constructs) == 0 {
		return WholeFileChunk(language, content, path)
	}
	for i := range constructs {
		constructs[i].SetContext(schema.ContextRecovery, RecoveryWholeFile)
	}
	constructs = append(constructs, FillGaps(SplitLines(content), constructs)...)
	return Assemble(constructs, FileInfo{Path: path, Language: language})
}

// WholeFileChunk returns the degenerate output: one chunk holding the whole
// file.
func WholeFileChunk(language, content, path string) []schema.SemanticChunk {
	lines := SplitLines(content)
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = schema.KindFallback
	}
	c := schema.Construct{
		Kind:      schema.KindFallback,
		Name:      name,
		Path:      name,
		Scope:     schema.ScopeGlobal,
		LineStart: 1,
		LineEnd:   max(len(lines), 1),
		Text:      content,
		Signature: Signature(content),
	}
	return Assemble([]schema.Construct{c}, FileInfo{Path: path, Language: language})
}

// LineBlockEnd treats every match as a single-line construct.
func LineBlockEnd(_ []string, start int) int {
	return start
}

// BraceMatcher finds the end of brace-delimited blocks, skipping quoted text
// and line comments.
type BraceMatcher struct {
	Quotes      string
	LineComment string
	// HeaderLines bounds how far a declaration header may run before its
	// opening brace.
	HeaderLines int
}

var defaultBraces = BraceMatcher{Quotes: "\"'`", LineComment: "//", HeaderLines: 8}

// BraceBlockEnd is the BlockEndFunc for C-family languages.
func BraceBlockEnd(lines []string, start int) int {
	return defaultBraces.BlockEnd(lines, start)
}

// BlockEnd implements BlockEndFunc. A block that never closes runs to the end
// of the text. A header that is not followed by a block is a single statement.
func (b BraceMatcher) BlockEnd(lines []string, start int) int {
	depth, parens, opened := 0, 0, false
	var quote byte
	for i := start; i < len(lines); i++ {
		line := lines[i]
		for j := 0; j < len(line); j++ {
			ch := line[j]
			if quote != 0 {
				if ch == '\\' {
					j++
				} else if ch == quote {
					quote = 0
				}
				continue
			}
			if b.LineComment != "" && strings.HasPrefix(line[j:], b.LineComment) {
				break
			}
			switch {
			case strings.IndexByte(b.Quotes, ch) >= 0:
				quote = ch
			case ch == '(' || ch == '[':
				parens++
			case ch == ')' || ch == ']':
				parens--
			case ch == '{':
				depth++
				opened = true
			case ch == '}':
				depth--
				if opened && depth <= 0 {
					return i
				}
			}
		}
		if quote != '`' {
			quote = 0
		}
		if opened {
			continue
		}
		if i-start+1 >= max(b.HeaderLines, 1) {
			return start
		}
		if parens > 0 || nextNonBlankHasPrefix(lines, i+1, "{") {
			continue
		}
		return i
	}
	if !opened {
		return start
	}
	return len(lines) - 1
}

func nextNonBlankHasPrefix(lines []string, from int, prefix string) bool {
	for i := from; i < len(lines); i++ {
		if IsBlank(lines[i]) {
			continue
		}
		return strings.HasPrefix(strings.TrimSpace(lines[i]), prefix)
	}
	return false
}

// StopBefore bounds end so that no block runs into a later line matching
// stop. A block left open by a syntax error then ends on the last non-blank
// line before the next top-level declaration.
func StopBefore(end BlockEndFunc, stop *regexp.Regexp) BlockEndFunc {
	return func(lines []string, start int) int {
		last := end(lines, start)
		for i := start + 1; i <= last && i < len(lines); i++ {
			if !stop.MatchString(lines[i]) {
				continue
			}
			last = i - 1
			for last > start && IsBlank(lines[last]) {
				last--
			}
			break
		}
		return last
	}
}

// NextMatchBlockEnd ends a block on the last non-blank line before the next
// line matched by table. Suited to flat formats such as TOML tables and
// markdown headings.
func NextMatchBlockEnd(table PatternTable) BlockEndFunc {
	return func(lines []string, start int) int {
		end := len(lines) - 1
		for i := start + 1; i < len(lines); i++ {
			if p, _ := table.Match(lines[i]); p != nil {
				end = i - 1
				break
			}
		}
		for end > start && IsBlank(lines[end]) {
			end--
		}
		return end
	}
}

// IndentBlockEnd ends a block at the last line indented deeper than its
// first line.
func IndentBlockEnd(lines []string, start int) int {
	base := IndentOf(lines[start])
	end := start
	for i := start + 1; i < len(lines); i++ {
		if IsBlank(lines[i]) {
			continue
		}
		if IndentOf(lines[i]) <= base {
			break
		}
		end = i
	}
	return end
}

// IndentOf counts leading whitespace, treating a tab as four columns.
func IndentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// KeywordBlockEnd balances opening and closing keywords such as Lua's
// function/do/if and end. Text after lineComment is ignored.
func KeywordBlockEnd(opens, closes *regexp.Regexp, lineComment string) BlockEndFunc {
	return func(lines []string, start int) int {
		depth := 0
		for i := start; i < len(lines); i++ {
			line := lines[i]
			if lineComment != "" {
				if idx := strings.Index(line, lineComment); idx >= 0 {
					line = line[:idx]
				}
			}
			depth += len(opens.FindAllStringIndex(line, -1))
			depth -= len(closes.FindAllStringIndex(line, -1))
			if depth <= 0 {
				return i
			}
		}
		return len(lines) - 1
	}
}
