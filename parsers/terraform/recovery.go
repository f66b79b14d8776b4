package terraform

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "resource", Regexp: regexp.MustCompile(`^resource\s+"([^"]+)"`), Name: 1, Scoping: true},
	{Kind: "data", Regexp: regexp.MustCompile(`^data\s+"([^"]+)"`), Name: 1, Scoping: true},
	{Kind: "module", Regexp: regexp.MustCompile(`^module\s+"([^"]+)"`), Name: 1, Scoping: true},
	{Kind: "variable", Regexp: regexp.MustCompile(`^variable\s+"([^"]+)"`), Name: 1, Scoping: true},
	{Kind: "output", Regexp: regexp.MustCompile(`^output\s+"([^"]+)"`), Name: 1, Scoping: true},
	{Kind: "provider", Regexp: regexp.MustCompile(`^provider\s+"([^"]+)"`), Name: 1, Scoping: true},
	{Kind: "locals", Regexp: regexp.MustCompile(`^(locals)\s*\{`), Name: 1, Scoping: true},
	{Kind: "terraform", Regexp: regexp.MustCompile(`^(terraform)\s*\{`), Name: 1, Scoping: true},
	{Kind: "block", Regexp: regexp.MustCompile(`^\s*([\w-]+)(?:\s+"[^"]*")*\s*\{\s*$`), Name: 1, Scope: schema.ScopeBlock, Scoping: true},
	{Kind: "attribute", Regexp: regexp.MustCompile(`^([\w-]+)\s*=`), Name: 1, End: attributeEnd},
}

var labeled = regexp.MustCompile(`^\s*(?:resource|data)\s+"([^"]+)"\s+"([^"]+)"`)

var braces = engine.BraceMatcher{Quotes: `"`, LineComment: "#", HeaderLines: 2}

// attributeEnd spans multi-line values such as maps and lists.
func attributeEnd(lines []string, start int) int {
	depth := 0
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{', '[', '(':
				depth++
			case '}', ']', ')':
				depth--
			}
		}
		if depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// recoverBlocks runs the pattern table and renames resources and data
// sources to their "type.name" address, carrying the new path down to
// nested matches.
func recoverBlocks(text string, startLine int, scope []string) []schema.Construct {
	out := engine.RecoverConstructs(recoveryPatterns, braces.BlockEnd, text, startLine, scope)
	renamed := make(map[string]string)
	for i := range out {
		c := &out[i]
		oldPath := c.Path
		if parent, ok := renamed[c.Parent]; ok {
			c.Parent = parent
		}
		if c.Kind == "resource" || c.Kind == "data" {
			if m := labeled.FindStringSubmatch(c.Signature); m != nil {
				c.Name = blockName(c.Kind, []string{m[1], m[2]})
			}
		}
		c.Path = engine.JoinPath([]string{c.Parent}, c.Name)
		if c.Path != oldPath {
			renamed[oldPath] = c.Path
		}
	}
	return out
}

func (p *TerraformPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return recoverBlocks(errorText, startLine, scope)
}

func (p *TerraformPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Terraform file", "path", path)
	constructs := recoverBlocks(content, 1, nil)
	if len(constructs) == 0 {
		return engine.WholeFileChunk(p.Name(), content, path)
	}
	for i := range constructs {
		constructs[i].SetContext(schema.ContextRecovery, engine.RecoveryWholeFile)
	}
	constructs = append(constructs, engine.FillGaps(engine.SplitLines(content), constructs)...)
	return engine.Assemble(constructs, engine.FileInfo{Path: path, Language: p.Name()})
}
