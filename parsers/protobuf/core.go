package protobuf

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/protobuf"

	"github.com/sevigo/semchunk/parsers/engine"
)

// NewProtobufParser is the factory function that creates a new Protobuf parser plugin.
func NewProtobufParser(logger *slog.Logger) engine.LanguagePlugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProtobufParser{
		logger: logger,
	}
}

// ProtobufParser implements the LanguagePlugin interface for Protocol Buffer files.
type ProtobufParser struct {
	logger *slog.Logger
}

// Name returns the language name.
func (p *ProtobufParser) Name() string {
	return "protobuf"
}

// Extensions returns the file extensions this parser handles.
func (p *ProtobufParser) Extensions() []string {
	return []string{".proto"}
}

// CanHandle determines if the parser should process a given file.
func (p *ProtobufParser) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	if !strings.EqualFold(filepath.Ext(path), ".proto") {
		return false
	}

	// Reject common test fixture patterns
	baseName := strings.ToLower(filepath.Base(path))
	for _, pattern := range []string{"_test.proto", ".test.proto", "test_"} {
		if strings.Contains(baseName, pattern) {
			return false
		}
	}
	return true
}

// Grammar returns the tree-sitter protobuf grammar.
func (p *ProtobufParser) Grammar() *sitter.Language {
	return protobuf.GetLanguage()
}
