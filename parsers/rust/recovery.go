package rust

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

const vis = `^\s*(?:pub(?:\([^)]*\))?\s+)?`

var recoveryPatterns = engine.PatternTable{
	{Kind: "use", Regexp: regexp.MustCompile(vis + `use\s+([\w:]+)`), Name: 1, Scope: schema.ScopeModule},
	{Kind: "mod", Regexp: regexp.MustCompile(vis + `mod\s+(\w+)`), Name: 1, Scope: schema.ScopeNamespace, Scoping: true},
	{Kind: "struct", Regexp: regexp.MustCompile(vis + `(?:struct|union)\s+(\w+)`), Name: 1},
	{Kind: "enum", Regexp: regexp.MustCompile(vis + `enum\s+(\w+)`), Name: 1},
	{Kind: "trait", Regexp: regexp.MustCompile(vis + `(?:unsafe\s+)?trait\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "impl", Regexp: regexp.MustCompile(`^\s*(?:unsafe\s+)?impl\b(?:\s*<[^>]*>)?\s+(?:[\w:<>, ]+?\s+for\s+)?(?:[\w]+::)*(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "function", Regexp: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(\w+)`), Name: 1},
	{Kind: "method", Regexp: regexp.MustCompile(`^\s+(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(\w+)`), Name: 1, Scope: schema.ScopeClass},
	{Kind: "const", Regexp: regexp.MustCompile(vis + `const\s+(\w+)`), Name: 1},
	{Kind: "static", Regexp: regexp.MustCompile(vis + `static\s+(?:mut\s+)?(\w+)`), Name: 1},
	{Kind: "type", Regexp: regexp.MustCompile(vis + `type\s+(\w+)`), Name: 1},
	{Kind: "macro", Regexp: regexp.MustCompile(`^\s*macro_rules!\s*(\w+)`), Name: 1},
}

// Single quotes are lifetimes as often as char literals, so only double
// quotes delimit strings.
var braces = engine.BraceMatcher{Quotes: `"`, LineComment: "//", HeaderLines: 8}

func (p *RustPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, braces.BlockEnd, errorText, startLine, scope)
}

func (p *RustPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Rust file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, braces.BlockEnd, content, path)
}
