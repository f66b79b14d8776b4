package css

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "import", Regexp: importRe, Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "media", Regexp: regexp.MustCompile(`^\s*@media\s+([^{]+?)\s*\{?\s*$`), Name: 1, Scoping: true},
	{Kind: "supports", Regexp: regexp.MustCompile(`^\s*@supports\s+([^{]+?)\s*\{?\s*$`), Name: 1, Scoping: true},
	{Kind: "keyframes", Regexp: regexp.MustCompile(`^\s*@(?:-\w+-)?keyframes\s+([\w-]+)`), Name: 1},
	{Kind: "font_face", Regexp: regexp.MustCompile(`^\s*@font-face\b`)},
	{Kind: "at_rule", Regexp: regexp.MustCompile(`^\s*(@[\w-]+[^{;]*?)\s*\{\s*$`), Name: 1, Scoping: true},
	{Kind: "rule", Regexp: regexp.MustCompile(`^\s*([^@\s{};][^{};]*?)\s*\{`), Name: 1, Scoping: true},
}

var braces = engine.BraceMatcher{Quotes: `"'`, HeaderLines: 6}

func (p *CSSPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, braces.BlockEnd, errorText, startLine, scope)
}

func (p *CSSPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for CSS file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, braces.BlockEnd, content, path)
}
