package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	model "github.com/sevigo/semchunk/schema"
)

// maxSequenceItems bounds how many items of one sequence are described.
const maxSequenceItems = 10

type yamlStats struct {
	documents int
	mappings  int
	sequences int
	scalars   int
	aliases   int
	anchors   int
	keys      int
	maxDepth  int
}

// ExtractMetadata describes every document in a YAML stream: top-level and
// nested keys as symbols, complex values as definitions, and structural
// counts as properties.
func (p *YamlPlugin) ExtractMetadata(content string, path string) (model.FileMetadata, error) {
	metadata := model.NewFileMetadata(path, "yaml")

	var stats yamlStats
	dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metadata.Properties["error"] = err.Error()
			metadata.Properties["valid"] = "false"
			return metadata, fmt.Errorf("decode yaml document %d: %w", stats.documents+1, err)
		}
		stats.documents++

		if stats.documents == 1 && len(doc.Content) > 0 {
			metadata.Properties["root_type"] = nodeType(doc.Content[0])
		}
		p.analyzeNode(&doc, "", &metadata)
		stats.count(&doc, 0)
	}

	metadata.Properties["valid"] = "true"
	metadata.Properties["documents"] = strconv.Itoa(stats.documents)
	metadata.Properties["mappings"] = strconv.Itoa(stats.mappings)
	metadata.Properties["sequences"] = strconv.Itoa(stats.sequences)
	metadata.Properties["scalars"] = strconv.Itoa(stats.scalars)
	metadata.Properties["keys"] = strconv.Itoa(stats.keys)
	metadata.Properties["max_depth"] = strconv.Itoa(stats.maxDepth)
	metadata.Properties["size_bytes"] = strconv.Itoa(len(content))
	if stats.anchors > 0 {
		metadata.Properties["has_anchors"] = "true"
	}
	if stats.aliases > 0 {
		metadata.Properties["has_aliases"] = "true"
	}

	addLineCounts(content, &metadata)
	detectConfigurationPatterns(content, &metadata)
	return metadata, nil
}

func (p *YamlPlugin) analyzeNode(node *yaml.Node, path string, metadata *model.FileMetadata) {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			p.analyzeNode(child, path, metadata)
		}
	case yaml.MappingNode:
		p.analyzeMapping(node, path, metadata)
	case yaml.SequenceNode:
		for i, item := range node.Content {
			if i >= maxSequenceItems {
				break
			}
			p.analyzeNode(item, fmt.Sprintf("%s[%d]", path, i), metadata)
		}
	}
}

func (p *YamlPlugin) analyzeMapping(node *yaml.Node, path string, metadata *model.FileMetadata) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		fullPath := key
		if path != "" {
			fullPath = path + "." + key
		}
		endLine := nodeEndLine(valueNode)

		metadata.Symbols = append(metadata.Symbols, model.CodeSymbol{
			Name:      fullPath,
			Type:      nodeType(valueNode),
			LineStart: keyNode.Line,
			LineEnd:   endLine,
			IsExport:  true,
		})

		if isComplex(valueNode) {
			metadata.Definitions = append(metadata.Definitions, model.CodeEntityDefinition{
				Type:       nodeType(valueNode),
				Name:       fullPath,
				LineStart:  keyNode.Line,
				LineEnd:    endLine,
				Visibility: "public",
				Signature:  nodeSignature(key, valueNode),
			})
		}

		p.analyzeNode(valueNode, fullPath, metadata)
	}
}

func (s *yamlStats) count(node *yaml.Node, depth int) {
	if node.Anchor != "" {
		s.anchors++
	}
	switch node.Kind {
	case yaml.MappingNode:
		s.mappings++
		s.keys += len(node.Content) / 2
	case yaml.SequenceNode:
		s.sequences++
	case yaml.ScalarNode:
		s.scalars++
	case yaml.AliasNode:
		s.aliases++
	}
	if node.Kind == yaml.MappingNode || node.Kind == yaml.SequenceNode {
		depth++
		s.maxDepth = max(s.maxDepth, depth)
	}
	for _, child := range node.Content {
		s.count(child, depth)
	}
}

func addLineCounts(content string, metadata *model.FileMetadata) {
	var empty, comments, lines int
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			empty++
		case strings.HasPrefix(trimmed, "#"):
			comments++
		default:
			lines++
		}
	}
	metadata.Properties["empty_lines"] = strconv.Itoa(empty)
	metadata.Properties["comment_lines"] = strconv.Itoa(comments)
	metadata.Properties["content_lines"] = strconv.Itoa(lines)
}

// detectConfigurationPatterns flags well-known manifest shapes.
func detectConfigurationPatterns(content string, metadata *model.FileMetadata) {
	lower := strings.ToLower(content)
	if strings.Contains(lower, "apiversion:") && strings.Contains(lower, "kind:") {
		metadata.Properties["kubernetes_manifest"] = "true"
	}
	if strings.Contains(lower, "services:") && strings.Contains(lower, "image:") {
		metadata.Properties["compose_file"] = "true"
	}
	for _, marker := range []string{"jobs:", "stages:", "pipeline:", "workflow:"} {
		if strings.Contains(lower, marker) {
			metadata.Properties["has_ci_config"] = "true"
			break
		}
	}
}

func nodeType(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown"
	}
}

func isComplex(node *yaml.Node) bool {
	switch node.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return true
	case yaml.ScalarNode:
		return strings.Contains(node.Value, "\n")
	default:
		return false
	}
}

func nodeSignature(key string, node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return fmt.Sprintf("%s: mapping{%d keys}", key, len(node.Content)/2)
	case yaml.SequenceNode:
		return fmt.Sprintf("%s: sequence[%d items]", key, len(node.Content))
	default:
		return fmt.Sprintf("%s: scalar(%d chars)", key, len(node.Value))
	}
}

func nodeEndLine(node *yaml.Node) int {
	end := node.Line
	for _, child := range node.Content {
		end = max(end, nodeEndLine(child))
	}
	return end
}
