package terraform

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/sevigo/semchunk/schema"
)

type blockStats struct {
	counters      map[string]int
	resourceTypes map[string]int
	providers     map[string]bool
}

// ExtractMetadata describes a configuration file with the native HCL parser:
// one definition per top-level block, module sources as imports, and
// resource and provider inventories as properties.
func (p *TerraformPlugin) ExtractMetadata(content string, path string) (schema.FileMetadata, error) {
	metadata := schema.NewFileMetadata(path, p.Name())

	if strings.TrimSpace(content) == "" {
		p.logger.Debug("Empty content for Terraform file", "path", path)
		return metadata, nil
	}

	file, diags := hclsyntax.ParseConfig([]byte(content), path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		p.logger.Warn("Parse errors in Terraform file", "path", path, "errors", diags.Error())
		metadata.Properties["parse_errors"] = strconv.Itoa(len(diags))

		if file == nil {
			return metadata, fmt.Errorf("failed to parse HCL for metadata extraction: %w", diags)
		}
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return metadata, fmt.Errorf("HCL file %s has an invalid body type", path)
	}

	stats := blockStats{
		counters:      make(map[string]int),
		resourceTypes: make(map[string]int),
		providers:     make(map[string]bool),
	}
	for _, block := range body.Blocks {
		p.describeBlock(block, &metadata, &stats)
	}
	for name, attr := range body.Attributes {
		metadata.Symbols = append(metadata.Symbols, schema.CodeSymbol{
			Name:      name,
			Type:      "attribute",
			LineStart: attr.SrcRange.Start.Line,
			LineEnd:   attr.SrcRange.End.Line,
			IsExport:  true,
		})
	}

	stats.store(&metadata)
	return metadata, nil
}

func (p *TerraformPlugin) describeBlock(block *hclsyntax.Block, metadata *schema.FileMetadata, stats *blockStats) {
	stats.counters[block.Type]++
	blockRange := block.Range()
	name := blockName(block.Type, block.Labels)

	def := schema.CodeEntityDefinition{
		Type:       block.Type,
		Name:       name,
		LineStart:  blockRange.Start.Line,
		LineEnd:    blockRange.End.Line,
		Visibility: "public",
	}
	sym := schema.CodeSymbol{
		Name:      name,
		Type:      block.Type,
		LineStart: blockRange.Start.Line,
		LineEnd:   blockRange.End.Line,
		IsExport:  block.Type == "output",
	}

	attrs := block.Body.Attributes
	var sig []string
	switch block.Type {
	case "resource", "data":
		if len(block.Labels) == 0 {
			break
		}
		typ := block.Labels[0]
		if block.Type == "data" {
			stats.resourceTypes["data."+typ]++
		} else {
			stats.resourceTypes[typ]++
			stats.providers[providerOf(typ)] = true
		}
		sig = append(sig, "type = "+typ)
		sig = append(sig, attributeSignature(attrs, "name", "id", "ami", "instance_type", "image")...)
	case "module":
		if val, ok := evalAttribute(attrs["source"]); ok {
			metadata.Imports = append(metadata.Imports, renderValue(val))
		}
		sig = attributeSignature(attrs, "source", "version")
	case "variable":
		sig = attributeSignature(attrs, "type", "description")
		if _, ok := attrs["default"]; ok {
			sig = append(sig, "has_default = true")
		}
	case "output":
		sig = attributeSignature(attrs, "description", "sensitive")
	case "locals":
		sig = append(sig, fmt.Sprintf("local_values = %d", len(attrs)))
		for local, attr := range attrs {
			metadata.Symbols = append(metadata.Symbols, schema.CodeSymbol{
				Name:      "local." + local,
				Type:      "local",
				LineStart: attr.SrcRange.Start.Line,
				LineEnd:   attr.SrcRange.End.Line,
			})
		}
	case "provider":
		if len(block.Labels) > 0 {
			stats.providers[block.Labels[0]] = true
			sig = append(sig, "provider = "+block.Labels[0])
		}
		sig = append(sig, attributeSignature(attrs, "alias", "region")...)
	case "terraform":
		describeTerraformBlock(block, metadata)
		return
	}
	def.Signature = strings.Join(sig, ", ")

	metadata.Definitions = append(metadata.Definitions, def)
	metadata.Symbols = append(metadata.Symbols, sym)
}

func describeTerraformBlock(block *hclsyntax.Block, metadata *schema.FileMetadata) {
	if val, ok := evalAttribute(block.Body.Attributes["required_version"]); ok {
		metadata.Properties["required_version"] = renderValue(val)
	}
	for _, nested := range block.Body.Blocks {
		if nested.Type != "required_providers" {
			continue
		}
		var providers []string
		for name := range nested.Body.Attributes {
			providers = append(providers, name)
		}
		slices.Sort(providers)
		if len(providers) > 0 {
			metadata.Properties["required_providers"] = strings.Join(providers, ",")
		}
	}
}

func (s *blockStats) store(metadata *schema.FileMetadata) {
	for key, count := range s.counters {
		metadata.Properties[key+"_count"] = strconv.Itoa(count)
	}
	if len(s.resourceTypes) > 0 {
		metadata.Properties["resource_types_count"] = strconv.Itoa(len(s.resourceTypes))
		metadata.Properties["resource_types"] = strings.Join(sortedKeys(s.resourceTypes), ",")
	}
	if len(s.providers) > 0 {
		metadata.Properties["providers_count"] = strconv.Itoa(len(s.providers))
		metadata.Properties["providers"] = strings.Join(sortedKeys(s.providers), ",")
	}
	metadata.Properties["complexity_score"] = strconv.Itoa(len(metadata.Definitions) + len(metadata.Imports))
}

// attributeSignature renders the literal values of the named attributes as
// "name = value" pairs, quoting strings.
func attributeSignature(attrs hclsyntax.Attributes, names ...string) []string {
	var parts []string
	for _, name := range names {
		attr, ok := attrs[name]
		if !ok {
			continue
		}
		val, ok := evalAttribute(attr)
		if !ok {
			parts = append(parts, name+" = <expression>")
			continue
		}
		rendered := renderValue(val)
		if val.Type() == cty.String {
			rendered = strconv.Quote(rendered)
		}
		parts = append(parts, name+" = "+rendered)
	}
	return parts
}

func evalAttribute(attr *hclsyntax.Attribute) (cty.Value, bool) {
	if attr == nil {
		return cty.NilVal, false
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || !val.IsWhollyKnown() {
		return cty.NilVal, false
	}
	return val, true
}

// evalLiteral parses expression source and evaluates it without variables.
// References, function calls and interpolations are not literals.
func evalLiteral(src string) (cty.Value, bool) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return cty.NilVal, false
	}
	if len(expr.Variables()) > 0 {
		return cty.NilVal, false
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() || !val.IsWhollyKnown() {
		return cty.NilVal, false
	}
	return val, true
}

// renderValue formats a literal: strings bare, whole numbers without a
// fraction, collections as JSON.
func renderValue(val cty.Value) string {
	if val.IsNull() {
		return "null"
	}
	switch val.Type() {
	case cty.String:
		return val.AsString()
	case cty.Number:
		var num float64
		if err := gocty.FromCtyValue(val, &num); err != nil {
			return val.AsBigFloat().String()
		}
		if num == float64(int64(num)) {
			return strconv.FormatInt(int64(num), 10)
		}
		return strconv.FormatFloat(num, 'f', -1, 64)
	case cty.Bool:
		return strconv.FormatBool(val.True())
	}
	out, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return val.GoString()
	}
	return string(out)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
