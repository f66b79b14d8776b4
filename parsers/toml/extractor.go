package toml

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// dependencyTables hold package names as keys in Cargo and Poetry manifests.
var dependencyTables = [][]string{
	{"dependencies"},
	{"dev-dependencies"},
	{"build-dependencies"},
	{"tool", "poetry", "dependencies"},
	{"tool", "poetry", "dev-dependencies"},
}

// ExtractMetadata decodes the document with go-toml and reports its tables,
// top-level keys and, for package manifests, the declared dependencies.
func (p *TomlPlugin) ExtractMetadata(content string, path string) (schema.FileMetadata, error) {
	var doc map[string]any
	if err := gotoml.Unmarshal([]byte(content), &doc); err != nil {
		var decodeErr *gotoml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return schema.FileMetadata{}, fmt.Errorf("failed to parse toml at %d:%d: %w", row, col, err)
		}
		return schema.FileMetadata{}, fmt.Errorf("failed to parse toml: %w", err)
	}

	metadata := schema.NewFileMetadata(path, p.Name())
	lines := engine.SplitLines(content)
	headerLines := tableHeaderLines(lines)

	var tables, arrays int
	var walk func(prefix []string, m map[string]any)
	walk = func(prefix []string, m map[string]any) {
		for _, key := range sortedKeys(m) {
			keyPath := append(append([]string{}, prefix...), key)
			name := strings.Join(keyPath, ".")
			switch v := m[key].(type) {
			case map[string]any:
				tables++
				p.addTable(&metadata, "table", name, headerLines[name], len(v))
				walk(keyPath, v)
			case []any:
				if elems, ok := tableArray(v); ok {
					arrays++
					p.addTable(&metadata, "array_table", name, headerLines[name], len(elems))
					for _, elem := range elems {
						walk(keyPath, elem)
					}
				}
			}
		}
	}
	walk(nil, doc)

	var topLevel int
	for _, key := range sortedKeys(doc) {
		switch doc[key].(type) {
		case map[string]any:
		case []any:
			if _, ok := tableArray(doc[key].([]any)); ok {
				continue
			}
			topLevel++
		default:
			topLevel++
		}
	}

	metadata.Imports = dependencies(doc)

	metadata.Properties["tables"] = strconv.Itoa(tables)
	metadata.Properties["array_tables"] = strconv.Itoa(arrays)
	metadata.Properties["top_level_keys"] = strconv.Itoa(topLevel)
	metadata.Properties["size_bytes"] = strconv.Itoa(len(content))

	switch strings.ToLower(filepath.Base(path)) {
	case "cargo.toml":
		metadata.Properties["manifest"] = "cargo"
		copyString(metadata.Properties, "package_name", doc, "package", "name")
		copyString(metadata.Properties, "package_version", doc, "package", "version")
	case "pyproject.toml":
		metadata.Properties["manifest"] = "pyproject"
		copyString(metadata.Properties, "package_name", doc, "project", "name")
		copyString(metadata.Properties, "package_version", doc, "project", "version")
		if metadata.Properties["package_name"] == "" {
			copyString(metadata.Properties, "package_name", doc, "tool", "poetry", "name")
		}
	}

	return metadata, nil
}

func (p *TomlPlugin) addTable(metadata *schema.FileMetadata, kind, name string, line, size int) {
	signature := "[" + name + "]"
	if kind == "array_table" {
		signature = "[[" + name + "]]"
	}
	metadata.Definitions = append(metadata.Definitions, schema.CodeEntityDefinition{
		Type:       kind,
		Name:       name,
		LineStart:  line,
		LineEnd:    line,
		Visibility: "public",
		Signature:  fmt.Sprintf("%s (%d entries)", signature, size),
	})
	metadata.Symbols = append(metadata.Symbols, schema.CodeSymbol{
		Name:      name,
		Type:      kind,
		LineStart: line,
		LineEnd:   line,
		IsExport:  true,
	})
}

// tableHeaderLines maps each explicit table header to its first line.
// Implicit tables are absent and report line 0.
func tableHeaderLines(lines []string) map[string]int {
	out := make(map[string]int)
	for i, line := range lines {
		var m []string
		if m = arrayTableRe.FindStringSubmatch(line); m == nil {
			m = tableRe.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}
		parts := strings.Split(m[1], ".")
		for j, part := range parts {
			parts[j] = engine.Unquote(strings.TrimSpace(part))
		}
		name := strings.Join(parts, ".")
		if _, seen := out[name]; !seen {
			out[name] = i + 1
		}
	}
	return out
}

func tableArray(items []any) ([]map[string]any, bool) {
	if len(items) == 0 {
		return nil, false
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// dependencies lists package names declared by Cargo, Poetry and PEP 621
// manifests.
func dependencies(doc map[string]any) []string {
	seen := make(map[string]bool)
	for _, path := range dependencyTables {
		table, ok := lookup(doc, path...).(map[string]any)
		if !ok {
			continue
		}
		for name := range table {
			if name != "python" {
				seen[name] = true
			}
		}
	}
	if list, ok := lookup(doc, "project", "dependencies").([]any); ok {
		for _, item := range list {
			spec, ok := item.(string)
			if !ok {
				continue
			}
			name := strings.FieldsFunc(spec, func(r rune) bool {
				return strings.ContainsRune(" <>=!~;[(", r)
			})
			if len(name) > 0 {
				seen[name[0]] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lookup(doc map[string]any, path ...string) any {
	var value any = doc
	for _, key := range path {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = m[key]
	}
	return value
}

func copyString(props map[string]string, prop string, doc map[string]any, path ...string) {
	if s, ok := lookup(doc, path...).(string); ok {
		props[prop] = s
	}
}
