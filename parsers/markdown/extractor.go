// extractor.go - Metadata extraction using goldmark
package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sevigo/semchunk/schema"
)

var (
	headingLineRe = regexp.MustCompile(`^#{1,6}\s+`)
	listItemRe    = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
)

// ExtractMetadata extracts language-specific metadata from Markdown content using goldmark
func (p *MarkdownPlugin) ExtractMetadata(content string, path string) (schema.FileMetadata, error) {
	metadata := schema.NewFileMetadata(path, p.Name())
	lines := strings.Split(content, "\n")

	contentToParse := content
	lineOffset := 0
	if fm := parseFrontMatter(lines, p.logger); fm != nil {
		for key, value := range fm.Properties {
			metadata.Properties[key] = value
		}
		metadata.Properties["has_front_matter"] = "true"
		lineOffset = fm.EndLine
		if lineOffset < len(lines) {
			contentToParse = strings.Join(lines[lineOffset:], "\n")
		} else {
			contentToParse = ""
		}
	}

	if contentToParse != "" {
		source := []byte(contentToParse)
		docNode := p.markdown.Parser().Parse(text.NewReader(source))
		p.extractASTMetadata(docNode, source, lineOffset, &metadata)
	}

	for key, value := range calculateDocumentStats(lines) {
		metadata.Properties[key] = value
	}

	if metadata.Properties["title"] == "" {
		metadata.Properties["title"] = deriveTitleFromFilename(path)
	}

	return metadata, nil
}

// extractASTMetadata records headings as symbols and definitions, link
// targets as imports, and the languages of fenced code.
func (p *MarkdownPlugin) extractASTMetadata(node ast.Node, source []byte, lineOffset int, metadata *schema.FileMetadata) {
	var codeLanguages []string
	var headingCount, linkCount int

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch astNode := n.(type) {
		case *ast.Heading:
			headingCount++
			headingText := extractTextFromNode(astNode, source)

			if metadata.Properties["title"] == "" && astNode.Level == 1 {
				metadata.Properties["title"] = headingText
			}

			segment := astNode.Lines()
			if segment.Len() == 0 {
				break
			}
			lineNum := segmentToLineNumber(segment.At(0), source) + lineOffset + 1
			metadata.Symbols = append(metadata.Symbols, schema.CodeSymbol{
				Name:      headingText,
				Type:      fmt.Sprintf("h%d", astNode.Level),
				LineStart: lineNum,
				LineEnd:   lineNum,
				IsExport:  true,
			})
			def := schema.CodeEntityDefinition{
				Type:       "heading",
				Name:       headingText,
				LineStart:  lineNum,
				LineEnd:    lineNum,
				Visibility: "public",
				Signature:  fmt.Sprintf("h%d", astNode.Level),
			}
			if id, ok := astNode.AttributeString("id"); ok {
				if b, isBytes := id.([]byte); isBytes {
					def.Documentation = "#" + string(b)
				}
			}
			metadata.Definitions = append(metadata.Definitions, def)

		case *ast.FencedCodeBlock:
			if lang := string(astNode.Language(source)); lang != "" && !slices.Contains(codeLanguages, lang) {
				codeLanguages = append(codeLanguages, lang)
			}

		case *ast.Link:
			linkCount++
			addImport(metadata, string(astNode.Destination))

		case *ast.AutoLink:
			linkCount++
			addImport(metadata, string(astNode.URL(source)))

		case *ast.Image:
			addImport(metadata, string(astNode.Destination))
		}

		return ast.WalkContinue, nil
	})

	if len(codeLanguages) > 0 {
		metadata.Properties["code_languages"] = strings.Join(codeLanguages, ",")
	}
	if headingCount > 0 {
		metadata.Properties["heading_count"] = strconv.Itoa(headingCount)
	}
	if linkCount > 0 {
		metadata.Properties["link_count"] = strconv.Itoa(linkCount)
	}
}

// addImport records a link target once. In-page anchors are skipped.
func addImport(metadata *schema.FileMetadata, dest string) {
	if dest == "" || strings.HasPrefix(dest, "#") || slices.Contains(metadata.Imports, dest) {
		return
	}
	metadata.Imports = append(metadata.Imports, dest)
}

func segmentToLineNumber(segment text.Segment, source []byte) int {
	return bytes.Count(source[:segment.Start], []byte("\n"))
}

func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindText {
			segment := n.(*ast.Text).Segment //nolint:errcheck //ok
			buf.Write(segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// calculateDocumentStats counts structural elements line by line.
func calculateDocumentStats(lines []string) map[string]string {
	stats := make(map[string]string)

	var codeBlockCount, tableCount, listCount, codeBlockLines int
	totalLines := len(lines)
	inCodeBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			if !inCodeBlock {
				codeBlockCount++
			}
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			codeBlockLines++
			continue
		}
		if isTableRow(line) {
			tableCount++
		}
		if isListItem(line) {
			listCount++
		}
	}

	if codeBlockCount > 0 {
		stats["code_block_count"] = strconv.Itoa(codeBlockCount)
	}
	if tableCount > 0 {
		stats["table_count"] = strconv.Itoa(tableCount)
	}
	if listCount > 0 {
		stats["list_count"] = strconv.Itoa(listCount)
	}

	stats["total_lines"] = strconv.Itoa(totalLines)

	if codeBlockLines > 0 {
		stats["code_lines"] = strconv.Itoa(codeBlockLines)
		if totalLines > 0 {
			stats["code_percentage"] = strconv.Itoa((codeBlockLines * 100) / totalLines)
		}
	}

	return stats
}

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") && len(trimmed) > 1
}

func isListItem(line string) bool {
	return listItemRe.MatchString(line) && !headingLineRe.MatchString(line)
}

// deriveTitleFromFilename creates a title from the filename
func deriveTitleFromFilename(path string) string {
	filename := filepath.Base(path)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if title == "" {
		return "Document"
	}

	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	return cases.Title(language.English).String(title)
}
