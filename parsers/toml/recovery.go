package toml

import (
	"regexp"
	"strings"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	arrayTableRe = regexp.MustCompile(`^\s*\[\[\s*([^\[\]]+?)\s*\]\]`)
	tableRe      = regexp.MustCompile(`^\s*\[\s*([^\[\]]+?)\s*\]\s*(?:#.*)?$`)
	pairRe       = regexp.MustCompile(`^([A-Za-z0-9_\-]+(?:\s*\.\s*[A-Za-z0-9_\-]+)*|"[^"]+"|'[^']+')\s*=`)
)

var headers = engine.PatternTable{
	{Kind: "array_table", Regexp: arrayTableRe},
	{Kind: "table", Regexp: tableRe},
}

var tableEnd = engine.NextMatchBlockEnd(headers)

var recoveryPatterns = engine.PatternTable{
	{Kind: "array_table", Regexp: arrayTableRe, Name: 1, End: tableEnd},
	{Kind: "table", Regexp: tableRe, Name: 1, End: tableEnd},
	{Kind: "pair", Regexp: pairRe, Name: 1, End: pairEnd},
}

// pairEnd spans values that continue over several lines: arrays, inline
// tables and multi-line strings.
func pairEnd(lines []string, start int) int {
	depth := 0
	inMultiline := ""
	for i := start; i < len(lines); i++ {
		line := lines[i]
		for _, delim := range []string{`"""`, `'''`} {
			n := strings.Count(line, delim)
			switch {
			case inMultiline == delim && n%2 == 1:
				inMultiline = ""
			case inMultiline == "" && n%2 == 1:
				inMultiline = delim
			}
		}
		if inMultiline == "" {
			depth += bracketDelta(line)
		}
		if inMultiline == "" && depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// bracketDelta counts opened minus closed brackets outside strings and
// comments.
func bracketDelta(line string) int {
	delta := 0
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if quote != 0 {
			if ch == '\\' && quote == '"' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '#':
			return delta
		case '[', '{':
			delta++
		case ']', '}':
			delta--
		}
	}
	return delta
}

// recoverTables runs the pattern table and keeps only the pairs that sit
// outside any table, matching what the tree walk records.
func recoverTables(text string, startLine int, scope []string) []schema.Construct {
	out := engine.RecoverConstructs(recoveryPatterns, nil, text, startLine, scope)
	lines := engine.SplitLines(text)
	inTable := make([]bool, len(lines)+1)
	for _, c := range out {
		if c.Kind == "pair" {
			continue
		}
		for l := c.LineStart; l <= c.LineEnd; l++ {
			if idx := l - startLine; idx >= 0 && idx < len(inTable) {
				inTable[idx] = true
			}
		}
	}

	kept := out[:0]
	for _, c := range out {
		if c.Kind == "pair" && inTable[c.LineStart-startLine] {
			continue
		}
		if c.Kind != "pair" {
			c.Name = strings.Join(strings.Fields(c.Name), "")
			c.Path = engine.JoinPath(scope, c.Name)
		}
		kept = append(kept, c)
	}
	return kept
}

func (p *TomlPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return recoverTables(errorText, startLine, scope)
}

func (p *TomlPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for TOML file", "path", path)
	if strings.TrimSpace(content) == "" {
		return engine.WholeFileChunk(p.Name(), content, path)
	}
	constructs := recoverTables(content, 1, nil)
	if len(constructs) == 0 {
		return engine.WholeFileChunk(p.Name(), content, path)
	}
	for i := range constructs {
		constructs[i].SetContext(schema.ContextRecovery, engine.RecoveryWholeFile)
	}
	constructs = append(constructs, engine.FillGaps(engine.SplitLines(content), constructs)...)
	return engine.Assemble(constructs, engine.FileInfo{Path: path, Language: p.Name()})
}
