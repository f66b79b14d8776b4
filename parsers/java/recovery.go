package java

import (
	"regexp"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

const modifiers = `^\s*(?:@\w+(?:\([^)]*\))?\s+)*(?:(?:public|private|protected|static|final|abstract|sealed|non-sealed|strictfp|synchronized|native|default)\s+)*`

var recoveryPatterns = engine.PatternTable{
	{Kind: "package", Regexp: regexp.MustCompile(`^package\s+([\w.]+)`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "import", Regexp: regexp.MustCompile(`^import\s+(?:static\s+)?([\w.*]+)`), Name: 1, Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "class", Regexp: regexp.MustCompile(modifiers + `class\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "interface", Regexp: regexp.MustCompile(modifiers + `interface\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "annotation", Regexp: regexp.MustCompile(modifiers + `@interface\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "enum", Regexp: regexp.MustCompile(modifiers + `enum\s+(\w+)`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "record", Regexp: regexp.MustCompile(modifiers + `record\s+(\w+)\s*[(<]`), Name: 1, Scope: schema.ScopeClass, Scoping: true},
	{Kind: "constructor", Regexp: regexp.MustCompile(`^\s+(?:public|private|protected)\s+(\w+)\s*\(`), Name: 1, Scope: schema.ScopeClass},
	{
		Kind:    "method",
		Regexp:  regexp.MustCompile(modifiers + `(?:<[^>]+>\s+)?[\w<>\[\],.? ]+?\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w.,\s]+)?\{?\s*$`),
		Name:    1,
		Scope:   schema.ScopeClass,
		Exclude: []string{"if", "for", "while", "switch", "catch", "synchronized", "return", "new", "else"},
	},
}

func (p *JavaPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, engine.BraceBlockEnd, errorText, startLine, scope)
}

func (p *JavaPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for Java file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, engine.BraceBlockEnd, content, path)
}
