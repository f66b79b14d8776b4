// Package engine implements the language-agnostic half of semantic chunking:
// parsing with a plugin's grammar, the depth-first traversal with its scope
// stack and duplicate suppression, chunk assembly, and the fallback state
// machine that guarantees every file produces at least one chunk.
package engine

import (
	"io/fs"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/schema"
)

// LanguagePlugin is the per-language half of the chunking contract.
//
// Plugins must be safe for concurrent use: two files may be chunked at the
// same time with one plugin instance, so all per-file state has to live in
// the Traversal passed to each callback.
type LanguagePlugin interface {
	Name() string
	Extensions() []string
	CanHandle(path string, info fs.FileInfo) bool

	// Grammar returns the tree-sitter language used to parse files.
	Grammar() *sitter.Language

	// ExtractFileLevelConstructs handles declarations that appear once at the
	// top of a file (package clauses, imports, prologs, document markers).
	// A declaration that scopes the rest of the file calls t.OpenFileScope.
	ExtractFileLevelConstructs(t *Traversal, root *sitter.Node)

	// HandleNode inspects one node and adds zero or more constructs. Plugins
	// that self-recurse into a node must report true from
	// ShouldSkipDefaultTraversal for its kind.
	HandleNode(t *Traversal, node *sitter.Node, kind string)

	ShouldSkipDefaultTraversal(kind string) bool

	// ExtractFromMalformedRegion recovers constructs from the source lines of
	// a syntax error region. Line numbers in the result are absolute.
	ExtractFromMalformedRegion(errorText string, startLine int, scope []string) []schema.Construct

	// WholeFileFallback is used when no usable tree exists for the file.
	WholeFileFallback(content, path string) []schema.SemanticChunk
}

// KindEquivalence lets a plugin treat two construct kinds as the same
// declaration during duplicate suppression.
type KindEquivalence interface {
	EquivalentKinds(a, b string) bool
}

// MetadataExtractor is implemented by plugins that can describe a whole file
// with a native parser.
type MetadataExtractor interface {
	ExtractMetadata(content string, path string) (schema.FileMetadata, error)
}

// EquivalenceTable is a symmetric set of kind pairs, usable as a
// KindEquivalence implementation.
type EquivalenceTable map[[2]string]bool

// NewEquivalenceTable builds a table from pairs of kinds.
func NewEquivalenceTable(pairs ...[2]string) EquivalenceTable {
	table := make(EquivalenceTable, len(pairs)*2)
	for _, p := range pairs {
		table[p] = true
		table[[2]string{p[1], p[0]}] = true
	}
	return table
}

// EquivalentKinds reports whether a and b are listed as the same kind.
func (e EquivalenceTable) EquivalentKinds(a, b string) bool {
	return a == b || e[[2]string{a, b}]
}
