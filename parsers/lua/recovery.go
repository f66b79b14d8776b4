package lua

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var (
	keywordEnd = engine.KeywordBlockEnd(
		regexp.MustCompile(`\b(function|if|do)\b`),
		regexp.MustCompile(`\bend\b`),
		"--",
	)
	tableEnd = engine.BraceMatcher{Quotes: `"'`, LineComment: "--", HeaderLines: 2}.BlockEnd
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "local_function", Regexp: regexp.MustCompile(`^\s*local\s+function\s+(\w+)`), Name: 1, Features: []string{"local"}},
	{Kind: "method", Regexp: regexp.MustCompile(`^\s*function\s+[\w.]+:(\w+)`), Name: 1, Scope: schema.ScopeClass},
	{Kind: "function", Regexp: regexp.MustCompile(`^\s*function\s+(?:[\w]+\.)*(\w+)`), Name: 1},
	{Kind: "local_function", Regexp: regexp.MustCompile(`^\s*local\s+(\w+)\s*=\s*function\b`), Name: 1, Features: []string{"local"}},
	{Kind: "function", Regexp: regexp.MustCompile(`^(?:[\w]+\.)*(\w+)\s*=\s*function\b`), Name: 1},
	{Kind: "local_table", Regexp: regexp.MustCompile(`^\s*local\s+(\w+)\s*=\s*\{`), Name: 1, Features: []string{"local"}, End: tableEnd},
	{Kind: "table", Regexp: regexp.MustCompile(`^(?:[\w]+\.)*(\w+)\s*=\s*\{`), Name: 1, End: tableEnd},
}

func (p *LuaPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, keywordEnd, errorText, startLine, scope)
}

func (p *LuaPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Lua file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, keywordEnd, content, path)
}
