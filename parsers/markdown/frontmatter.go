package markdown

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is a YAML block fenced by "---" lines at the top of a file.
type frontMatter struct {
	Properties map[string]string
	// EndLine is the 1-indexed line of the closing separator.
	EndLine int
}

// parseFrontMatter returns the front matter of a document split into lines,
// or nil when the document does not open with a closed block.
func parseFrontMatter(lines []string, logger *slog.Logger) *frontMatter {
	if len(lines) < 3 || strings.TrimRight(lines[0], " \t\r") != frontMatterSeparator {
		return nil
	}

	endIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r") == frontMatterSeparator {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		logger.Debug("Invalid frontmatter structure - no closing separator found")
		return nil
	}

	fm := &frontMatter{
		Properties: make(map[string]string),
		EndLine:    endIdx + 1,
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:endIdx], "\n")), &data); err != nil {
		logger.Debug("Failed to parse YAML frontmatter", "error", err)
		parseSimpleFrontMatter(lines[1:endIdx], fm)
		return fm
	}
	for key, value := range data {
		fm.Properties[key] = fmt.Sprintf("%v", value)
	}
	return fm
}

// parseSimpleFrontMatter reads "key: value" lines from front matter that is
// not valid YAML.
func parseSimpleFrontMatter(lines []string, fm *frontMatter) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		fm.Properties[key] = value
	}
}
