package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// AssertChunkInvariants checks the properties every semantic chunk stream
// must satisfy: contiguous indexing, valid line ranges, exact line slices and
// full coverage of non-blank lines.
func AssertChunkInvariants(t *testing.T, content string, chunks []schema.SemanticChunk) {
	t.Helper()

	require.NotEmpty(t, chunks, "chunking must return at least one chunk")
	lines := engine.SplitLines(content)

	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex, "chunk %d index", i)
		assert.Equal(t, len(chunks), c.TotalChunks, "chunk %d total", i)
		assert.GreaterOrEqual(t, c.LineStart, 1, "chunk %d line_start", i)
		assert.LessOrEqual(t, c.LineStart, c.LineEnd, "chunk %d line range", i)
		assert.Equal(t, len(c.Content), c.Size, "chunk %d size", i)
		assert.Equal(t, engine.SliceLines(lines, c.LineStart, c.LineEnd), c.Content,
			"chunk %d (%s %s) content must be the exact line slice", i, c.Kind, c.Name)
		assert.NotEmpty(t, c.ID, "chunk %d id", i)
	}

	assert.Empty(t, engine.UncoveredLines(lines, chunks), "non-blank lines must be covered")
}

// ChunkWith runs the engine over content with plugin and checks the chunk
// invariants before returning the result.
func ChunkWith(t *testing.T, plugin engine.LanguagePlugin, content, path string) []schema.SemanticChunk {
	t.Helper()
	logger, _ := NewTestLogger(t)
	chunks := engine.New(logger).Chunk(plugin, content, path)
	AssertChunkInvariants(t, content, chunks)
	return chunks
}

// AssertIdempotent runs chunk twice and requires identical output.
func AssertIdempotent(t *testing.T, chunk func() []schema.SemanticChunk) {
	t.Helper()
	first := chunk()
	second := chunk()
	assert.Equal(t, first, second)
}

// FindChunk returns the first chunk with the given kind and name.
func FindChunk(chunks []schema.SemanticChunk, kind, name string) (schema.SemanticChunk, bool) {
	for _, c := range chunks {
		if c.Kind == kind && c.Name == name {
			return c, true
		}
	}
	return schema.SemanticChunk{}, false
}

// FindByName returns the first chunk with the given name, whatever its kind.
func FindByName(chunks []schema.SemanticChunk, name string) (schema.SemanticChunk, bool) {
	for _, c := range chunks {
		if c.Name == name {
			return c, true
		}
	}
	return schema.SemanticChunk{}, false
}

// OfKind returns the chunks of one kind, in order.
func OfKind(chunks []schema.SemanticChunk, kind string) []schema.SemanticChunk {
	var out []schema.SemanticChunk
	for _, c := range chunks {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Names lists "kind:path" for every chunk, handy in failure messages.
func Names(chunks []schema.SemanticChunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Kind+":"+c.Path)
	}
	return out
}
