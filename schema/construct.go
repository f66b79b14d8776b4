package schema

import (
	"slices"
	"strings"
)

// Scope classifiers used by Construct.Scope.
const (
	ScopeGlobal    = "global"
	ScopeModule    = "module"
	ScopeNamespace = "namespace"
	ScopeClass     = "class"
	ScopeMethod    = "method"
	ScopeLocal     = "local"
	ScopeBlock     = "block"
	ScopeSection   = "section"
)

// Well-known construct kinds shared across plugins. Plugins are free to emit
// kinds outside this list.
const (
	KindFallback = "fallback"
	KindFragment = "fragment"
	KindWindow   = "text_window"
)

// Context keys set by the traversal engine.
const (
	ContextRecovered = "recovered"
	ContextRecovery  = "recovery"
)

// Construct is one semantically meaningful unit found in a source file.
type Construct struct {
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Signature string         `json:"signature,omitempty"`
	Parent    string         `json:"parent,omitempty"`
	Scope     string         `json:"scope"`
	LineStart int            `json:"line_start"`
	LineEnd   int            `json:"line_end"`
	Text      string         `json:"text"`
	Context   map[string]any `json:"context,omitempty"`
	Features  []string       `json:"features,omitempty"`
}

// SetContext stores a context value, allocating the map on first use.
func (c *Construct) SetContext(key string, value any) {
	if c.Context == nil {
		c.Context = make(map[string]any)
	}
	c.Context[key] = value
}

// AddFeature adds tags to the feature set, ignoring empty and repeated tags.
func (c *Construct) AddFeature(features ...string) {
	for _, f := range features {
		if f == "" || slices.Contains(c.Features, f) {
			continue
		}
		c.Features = append(c.Features, f)
	}
}

// HasFeature reports whether the construct carries the given tag.
func (c Construct) HasFeature(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// Recovered reports whether the construct came from error recovery.
func (c Construct) Recovered() bool {
	v, ok := c.Context[ContextRecovered].(bool)
	return ok && v
}

// SemanticChunk is the indexable packaging of a Construct.
type SemanticChunk struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Size        int    `json:"size"`
	FilePath    string `json:"file_path"`
	Extension   string `json:"extension"`
	Language    string `json:"language"`

	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Signature string         `json:"signature,omitempty"`
	Parent    string         `json:"parent,omitempty"`
	Scope     string         `json:"scope"`
	LineStart int            `json:"line_start"`
	LineEnd   int            `json:"line_end"`
	Context   map[string]any `json:"context,omitempty"`
	Features  []string       `json:"features,omitempty"`
}

// HasFeature reports whether the chunk carries the given tag.
func (c SemanticChunk) HasFeature(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// Recovered reports whether the chunk came from error recovery.
func (c SemanticChunk) Recovered() bool {
	v, ok := c.Context[ContextRecovered].(bool)
	return ok && v
}

// NormalizeExtension lower-cases an extension and strips its leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
