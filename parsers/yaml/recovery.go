package yaml

import (
	"regexp"
	"strings"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

const key = `([\w.\-/$@]+)`

var recoveryPatterns = engine.PatternTable{
	{Kind: "document", Regexp: regexp.MustCompile(`^---`), Scope: schema.ScopeModule, End: engine.LineBlockEnd},
	{Kind: "pair", Regexp: regexp.MustCompile(`^` + key + `\s*:\s+[^\s#]`), Name: 1},
	{Kind: "mapping", Regexp: regexp.MustCompile(`^\s*(?:-\s+)?` + key + `\s*:\s*(?:[&!]\S*\s*)*(?:#.*)?$`), Name: 1, Scoping: true},
}

// blockEnd extends the indentation rule with sequence items written at the
// same column as their key.
func blockEnd(lines []string, start int) int {
	base := engine.IndentOf(lines[start])
	listStart := strings.HasPrefix(strings.TrimSpace(lines[start]), "-")
	end := start
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if engine.IsBlank(line) {
			continue
		}
		indent := engine.IndentOf(line)
		trimmed := strings.TrimSpace(line)
		switch {
		case indent > base:
		case indent == base && !listStart && strings.HasPrefix(trimmed, "- "):
		case indent == base && !listStart && trimmed == "-":
		default:
			return end
		}
		end = i
	}
	return end
}

func (p *YamlPlugin) ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct {
	return engine.RecoverConstructs(recoveryPatterns, blockEnd, errorText, startLine, scope)
}

func (p *YamlPlugin) WholeFileFallback(content, path string) []schema.SemanticChunk {
	p.logger.Debug("Using pattern fallback for YAML file", "path", path)
	return engine.FallbackChunks(p.Name(), recoveryPatterns, blockEnd, content, path)
}
