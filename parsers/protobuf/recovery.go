package protobuf

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

var recoveryPatterns = engine.PatternTable{
	{Kind: "syntax", Regexp: regexp.MustCompile(`^\s*syntax\s*=\s*["']([^"']+)["']`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "package", Regexp: regexp.MustCompile(`^\s*package\s+([\w.]+)`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "import", Regexp: regexp.MustCompile(`^\s*import\s+(?:weak\s+|public\s+)?["']([^"']+)["']`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "option", Regexp: regexp.MustCompile(`^option\s+\(?([\w.]+)`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "message", Regexp: regexp.MustCompile(`^\s*message\s+(\w+)`), Name: 1, Scoping: true},
	{Kind: "enum", Regexp: regexp.MustCompile(`^\s*enum\s+(\w+)`), Name: 1, Scoping: true},
	{Kind: "service", Regexp: regexp.MustCompile(`^\s*service\s+(\w+)`), Name: 1, Scoping: true},
	{Kind: "oneof", Regexp: regexp.MustCompile(`^\s*oneof\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "rpc", Regexp: regexp.MustCompile(`^\s*rpc\s+(\w+)`), Name: 1, Scope: schema.ScopeMethod},
}

var braces = engine.BraceMatcher{Quotes: `"'`, LineComment: "//", HeaderLines: 4}

func (p *ProtobufParser) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, braces.BlockEnd, errorText, startLine, scope)
}

func (p *ProtobufParser) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for protobuf file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, braces.BlockEnd, content, path)
}
