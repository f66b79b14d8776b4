package python

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "import", Regexp: regexp.MustCompile(`^from\s+([\w.]+)\s+import\b`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "import", Regexp: regexp.MustCompile(`^import\s+([\w.]+)`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "class", Regexp: regexp.MustCompile(`^\s*class\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "function", Regexp: regexp.MustCompile(`^async\s+def\s+(\w+)`), Name: 1, Features: []string{"async"}},
	{Kind: "function", Regexp: regexp.MustCompile(`^def\s+(\w+)`), Name: 1},
	{Kind: "method", Regexp: regexp.MustCompile(`^\s+async\s+def\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Features: []string{"async"}},
	{Kind: "method", Regexp: regexp.MustCompile(`^\s+def\s+(\w+)`), Name: 1, Scope: schema.ScopeClass},
}

func (p *PythonPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, engine.IndentBlockEnd, errorText, startLine, scope)
}

func (p *PythonPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Python file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, engine.IndentBlockEnd, content, path)
}
