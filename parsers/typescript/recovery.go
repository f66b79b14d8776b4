package typescript

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var controlKeywords = []string{"if", "for", "while", "switch", "catch", "with", "return", "function", "else"}

// topLevel matches declarations written at column 0, which close any block a
// syntax error left open.
var topLevel = regexp.MustCompile(`^(?:export|import|declare|namespace|interface|enum|(?:abstract\s+)?class|(?:async\s+)?function)\b`)

var blockEnd = engine.StopBefore(engine.BraceBlockEnd, topLevel)

var recoveryPatterns = engine.PatternTable{
	{Kind: "import", Regexp: regexp.MustCompile(`^import\s.*?\bfrom\s+['"]([^'"]+)['"]`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "import", Regexp: regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "namespace", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?(?:namespace|module)\s+([\w.]+)`), Name: 1, Scope: schema.ScopeNamespace, Scoping: true},
	{Kind: "class", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "interface", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?interface\s+(\w+)`), Name: 1},
	{Kind: "enum", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+(\w+)`), Name: 1},
	{Kind: "type", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?type\s+(\w+)`), Name: 1},
	{Kind: "function", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`), Name: 1},
	{Kind: "function", Regexp: regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|\w+\s*=>)`), Name: 1, Features: []string{"arrow"}},
	{Kind: "method", Regexp: regexp.MustCompile(`^\s+(?:(?:public|private|protected|static|async|readonly|abstract|override|get|set)\s+)*(#?\w+)\s*(?:<[^>]*>)?\s*\([^)]*\)\s*(?::\s*[^{]+)?\{\s*$`), Name: 1, Scope: schema.ScopeClass, Exclude: controlKeywords},
}

func (p *Plugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, blockEnd, errorText, startLine, scope)
}

func (p *Plugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback", "path", path, "language", p.Name())
	return engine.FallbackChunks(p.Name(), recoveryPatterns, blockEnd, content, path)
}
