package html

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/sevigo/semchunk/schema"
)

// documentStats accumulates what the tokenizer sees in one pass.
type documentStats struct {
	elements  int
	scripts   int
	styles    int
	forms     int
	links     int
	headings  int
	custom    []string
	ids       map[string]bool
	inTitle   bool
	title     strings.Builder
	heading   *schema.CodeEntityDefinition
	headingTx strings.Builder
}

// ExtractMetadata tokenizes the document with golang.org/x/net/html and
// reports its title, resources, ids and headings. Line numbers are counted
// from the raw token text.
func (p *HTMLPlugin) ExtractMetadata(content string, path string) (schema.FileMetadata, error) {
	metadata := schema.NewFileMetadata(path, p.Name())
	stats := documentStats{ids: make(map[string]bool)}

	z := nethtml.NewTokenizer(strings.NewReader(content))
	line := 1
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return schema.FileMetadata{}, fmt.Errorf("failed to tokenize markup: %w", err)
			}
			break
		}
		tokenLine := line
		line += strings.Count(string(z.Raw()), "\n")
		token := z.Token()

		switch tt {
		case nethtml.DoctypeToken:
			metadata.Properties["doctype"] = strings.ToLower(token.Data)
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			p.startTag(&metadata, &stats, token, tokenLine, line)
		case nethtml.EndTagToken:
			p.endTag(&metadata, &stats, token, line)
		case nethtml.TextToken:
			if stats.inTitle {
				stats.title.WriteString(token.Data)
			}
			if stats.heading != nil {
				stats.headingTx.WriteString(token.Data)
			}
		}
	}

	if title := strings.TrimSpace(stats.title.String()); title != "" {
		metadata.Properties["title"] = title
	}
	metadata.Properties["element_count"] = strconv.Itoa(stats.elements)
	metadata.Properties["script_count"] = strconv.Itoa(stats.scripts)
	metadata.Properties["style_count"] = strconv.Itoa(stats.styles)
	metadata.Properties["form_count"] = strconv.Itoa(stats.forms)
	metadata.Properties["link_count"] = strconv.Itoa(stats.links)
	metadata.Properties["heading_count"] = strconv.Itoa(stats.headings)
	if len(stats.custom) > 0 {
		metadata.Properties["custom_elements"] = strings.Join(stats.custom, ",")
	}
	return metadata, nil
}

func (p *HTMLPlugin) startTag(metadata *schema.FileMetadata, stats *documentStats, token nethtml.Token, line, endLine int) {
	stats.elements++
	attrs := make(map[string]string, len(token.Attr))
	for _, a := range token.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	tag := strings.ToLower(token.Data)

	switch tag {
	case "html":
		if lang := attrs["lang"]; lang != "" {
			metadata.Properties["lang"] = lang
		}
	case "title":
		stats.inTitle = token.Type == nethtml.StartTagToken
	case "meta":
		if attrs["name"] == "description" {
			metadata.Properties["description"] = attrs["content"]
		}
		if charset := attrs["charset"]; charset != "" {
			metadata.Properties["charset"] = charset
		}
	case "script":
		stats.scripts++
		addImport(metadata, attrs["src"])
	case "style":
		stats.styles++
	case "link":
		if strings.EqualFold(attrs["rel"], "stylesheet") {
			addImport(metadata, attrs["href"])
		}
	case "img", "iframe", "source":
		addImport(metadata, attrs["src"])
	case "a":
		if attrs["href"] != "" {
			stats.links++
		}
	case "form":
		stats.forms++
	case "h1", "h2", "h3", "h4", "h5", "h6":
		stats.headings++
		if token.Type == nethtml.StartTagToken {
			stats.heading = &schema.CodeEntityDefinition{
				Type:       "heading",
				LineStart:  line,
				LineEnd:    endLine,
				Visibility: "public",
				Signature:  tag,
			}
			stats.headingTx.Reset()
		}
	}

	if strings.Contains(tag, "-") && !slices.Contains(stats.custom, tag) {
		stats.custom = append(stats.custom, tag)
	}
	if id := attrs["id"]; id != "" && !stats.ids[id] {
		stats.ids[id] = true
		metadata.Symbols = append(metadata.Symbols, schema.CodeSymbol{
			Name:      id,
			Type:      tag,
			LineStart: line,
			LineEnd:   line,
			IsExport:  true,
		})
	}
}

func (p *HTMLPlugin) endTag(metadata *schema.FileMetadata, stats *documentStats, token nethtml.Token, line int) {
	switch tag := strings.ToLower(token.Data); tag {
	case "title":
		stats.inTitle = false
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if stats.heading == nil {
			return
		}
		stats.heading.Name = strings.Join(strings.Fields(stats.headingTx.String()), " ")
		stats.heading.LineEnd = line
		metadata.Definitions = append(metadata.Definitions, *stats.heading)
		stats.heading = nil
	}
}

func addImport(metadata *schema.FileMetadata, ref string) {
	if ref == "" || strings.HasPrefix(ref, "data:") || slices.Contains(metadata.Imports, ref) {
		return
	}
	metadata.Imports = append(metadata.Imports, ref)
}
