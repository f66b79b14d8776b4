package protobuf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yoheimuta/go-protoparser/v4"
	"github.com/yoheimuta/go-protoparser/v4/parser"
	"github.com/yoheimuta/go-protoparser/v4/parser/meta"

	"github.com/sevigo/semchunk/schema"
)

type protoCounts struct {
	messages int
	services int
	enums    int
	rpcs     int
	fields   int
}

// ExtractMetadata gathers file-level metadata with the native protobuf
// parser. Unlike chunking it fails on invalid input.
func (p *ProtobufParser) ExtractMetadata(content string, path string) (schema.FileMetadata, error) {
	parsed, err := protoparser.Parse(strings.NewReader(content),
		protoparser.WithDebug(false),
		protoparser.WithPermissive(false),
		protoparser.WithFilename(path),
	)
	if err != nil {
		return schema.FileMetadata{}, fmt.Errorf("failed to parse protobuf file: %w", err)
	}

	metadata := schema.NewFileMetadata(path, p.Name())
	lines := strings.Split(content, "\n")

	if parsed.Syntax != nil {
		metadata.Properties["syntax"] = parsed.Syntax.ProtobufVersion
	}

	var counts protoCounts
	for _, element := range parsed.ProtoBody {
		switch v := element.(type) {
		case *parser.Import:
			metadata.Imports = append(metadata.Imports, strings.Trim(v.Location, `"'`))
		case *parser.Package:
			metadata.Properties["package"] = v.Name
		case *parser.Option:
			metadata.Properties["option."+v.OptionName] = strings.Trim(v.Constant, `"'`)
		case *parser.Message:
			counts.messages++
			p.describeMessage(v, lines, "", &metadata, &counts)
		case *parser.Service:
			counts.services++
			p.describeService(v, lines, &metadata, &counts)
		case *parser.Enum:
			counts.enums++
			p.describeEnum(v, lines, "", &metadata)
		}
	}

	metadata.Properties["total_messages"] = strconv.Itoa(counts.messages)
	metadata.Properties["total_services"] = strconv.Itoa(counts.services)
	metadata.Properties["total_enums"] = strconv.Itoa(counts.enums)
	metadata.Properties["total_rpcs"] = strconv.Itoa(counts.rpcs)
	metadata.Properties["total_fields"] = strconv.Itoa(counts.fields)

	return metadata, nil
}

func (p *ProtobufParser) describeMessage(msg *parser.Message, lines []string, parentName string, metadata *schema.FileMetadata, counts *protoCounts) {
	name := qualify(parentName, msg.MessageName)

	fields := 0
	for _, element := range msg.MessageBody {
		switch v := element.(type) {
		case *parser.Field, *parser.MapField:
			fields++
		case *parser.Oneof:
			fields += len(v.OneofFields)
		}
	}
	counts.fields += fields

	p.addDefinition(metadata, "message", name, msg.Meta, msg.Comments,
		fmt.Sprintf("%s (%d fields)", firstLine(lines, msg.Meta.Pos.Line), fields))

	for _, element := range msg.MessageBody {
		switch nested := element.(type) {
		case *parser.Message:
			p.describeMessage(nested, lines, name, metadata, counts)
		case *parser.Enum:
			p.describeEnum(nested, lines, name, metadata)
		case *parser.Oneof:
			p.addDefinition(metadata, "oneof", qualify(name, nested.OneofName), nested.Meta, nested.Comments,
				fmt.Sprintf("oneof %s (%d fields)", nested.OneofName, len(nested.OneofFields)))
		}
	}
}

func (p *ProtobufParser) describeService(svc *parser.Service, lines []string, metadata *schema.FileMetadata, counts *protoCounts) {
	p.addDefinition(metadata, "service", svc.ServiceName, svc.Meta, svc.Comments, firstLine(lines, svc.Meta.Pos.Line))

	for _, element := range svc.ServiceBody {
		rpc, ok := element.(*parser.RPC)
		if !ok {
			continue
		}
		counts.rpcs++
		signature := fmt.Sprintf("rpc %s(%s%s) returns (%s%s)",
			rpc.RPCName,
			streamPrefix(rpc.RPCRequest.IsStream),
			rpc.RPCRequest.MessageType,
			streamPrefix(rpc.RPCResponse.IsStream),
			rpc.RPCResponse.MessageType,
		)
		p.addDefinition(metadata, "rpc", qualify(svc.ServiceName, rpc.RPCName), rpc.Meta, rpc.Comments, signature)
	}
}

func (p *ProtobufParser) describeEnum(enum *parser.Enum, lines []string, parentName string, metadata *schema.FileMetadata) {
	p.addDefinition(metadata, "enum", qualify(parentName, enum.EnumName), enum.Meta, enum.Comments, firstLine(lines, enum.Meta.Pos.Line))
}

func (p *ProtobufParser) addDefinition(metadata *schema.FileMetadata, kind, name string, m meta.Meta, comments []*parser.Comment, signature string) {
	metadata.Definitions = append(metadata.Definitions, schema.CodeEntityDefinition{
		Type:          kind,
		Name:          name,
		LineStart:     m.Pos.Line,
		LineEnd:       m.LastPos.Line,
		Visibility:    "public",
		Documentation: documentation(comments),
		Signature:     signature,
	})
	metadata.Symbols = append(metadata.Symbols, schema.CodeSymbol{
		Name:      name,
		Type:      kind,
		LineStart: m.Pos.Line,
		LineEnd:   m.LastPos.Line,
		IsExport:  true,
	})
}

func documentation(comments []*parser.Comment) string {
	docs := make([]string, 0, len(comments))
	for _, comment := range comments {
		docs = append(docs, strings.TrimSpace(comment.Raw))
	}
	return strings.Join(docs, "\n")
}

// firstLine returns the trimmed source line at 1-indexed line n.
func firstLine(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func streamPrefix(isStream bool) string {
	if isStream {
		return "stream "
	}
	return ""
}
