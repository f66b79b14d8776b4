package golang

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "package", Regexp: regexp.MustCompile(`^package\s+(\w+)`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "import", Regexp: regexp.MustCompile(`^import\s+(?:\w+\s+)?"([^"]+)"`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "import", Regexp: regexp.MustCompile(`^import\s*\(`), Scope: schema.ScopeModule, End: parenBlockEnd},
	{Kind: "method", Regexp: regexp.MustCompile(`^func\s*\([^)]*\)\s*(\w+)`), Name: 1, Scope: schema.ScopeClass},
	{Kind: "function", Regexp: regexp.MustCompile(`^func\s+(\w+)`), Name: 1},
	{Kind: "struct", Regexp: regexp.MustCompile(`^type\s+(\w+)(?:\[[^\]]*\])?\s+struct\b`), Name: 1},
	{Kind: "interface", Regexp: regexp.MustCompile(`^type\s+(\w+)(?:\[[^\]]*\])?\s+interface\b`), Name: 1},
	{Kind: "type", Regexp: regexp.MustCompile(`^type\s+(\w+)`), Name: 1, End: engine.LineBlockEnd},
	{Kind: "const", Regexp: regexp.MustCompile(`^const\s+(\w+)`), Name: 1, End: engine.LineBlockEnd},
	{Kind: "const", Regexp: regexp.MustCompile(`^const\s*\(`), End: parenBlockEnd},
	{Kind: "var", Regexp: regexp.MustCompile(`^var\s+(\w+)`), Name: 1, End: engine.LineBlockEnd},
	{Kind: "var", Regexp: regexp.MustCompile(`^var\s*\(`), End: parenBlockEnd},
}

// parenBlockEnd closes grouped declarations at the first line that starts
// with ")".
func parenBlockEnd(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if len(lines[i]) > 0 && lines[i][0] == ')' {
			return i
		}
	}
	return len(lines) - 1
}

func (p *GoPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, engine.BraceBlockEnd, errorText, startLine, scope)
}

func (p *GoPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Go file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, engine.BraceBlockEnd, content, path)
}
