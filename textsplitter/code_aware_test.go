package textsplitter_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
	"github.com/sevigo/semchunk/textsplitter"
)

const pythonSource = `import os


def hello(name):
    return "hello " + name
`

func newSplitter(t *testing.T, opts ...textsplitter.Option) *textsplitter.CodeAwareTextSplitter {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log)
	require.NoError(t, err)

	splitter, err := textsplitter.NewCodeAware(registry, log, opts...)
	require.NoError(t, err)
	return splitter
}

func TestCodeAware_ChunkFile(t *testing.T) {
	splitter := newSplitter(t)

	t.Run("RegisteredLanguage", func(t *testing.T) {
		chunks, err := splitter.ChunkFile(t.Context(), pythonSource, "app/hello.py")
		require.NoError(t, err)
		logger.AssertChunkInvariants(t, pythonSource, chunks)

		hello, ok := logger.FindChunk(chunks, "function", "hello")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "python", hello.Language)
		assert.Equal(t, "py", hello.Extension)
		assert.Equal(t, 4, hello.LineStart)
		assert.Equal(t, 5, hello.LineEnd)
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		content := "\x7fELF header\nsection table\n"
		chunks, err := splitter.ChunkFile(t.Context(), content, "out/blob.bin")
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		c := chunks[0]
		assert.Equal(t, schema.KindWindow, c.Kind)
		assert.Equal(t, "text", c.Language)
		assert.Equal(t, "bin", c.Extension)
		assert.Equal(t, "blob.bin_part_1", c.Name)
		assert.Equal(t, "\x7fELF header\nsection table", c.Content)
		assert.Equal(t, 1, c.LineStart)
		assert.Equal(t, 2, c.LineEnd)
		assert.Equal(t, 0, c.ChunkIndex)
		assert.Equal(t, 1, c.TotalChunks)
		assert.NotEmpty(t, c.ID)
	})

	t.Run("EmptyUnsupportedFile", func(t *testing.T) {
		chunks, err := splitter.ChunkFile(t.Context(), "", "empty.dat")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, schema.KindWindow, chunks[0].Kind)
		assert.Empty(t, chunks[0].Content)
	})

	t.Run("EmptySupportedFile", func(t *testing.T) {
		chunks, err := splitter.ChunkFile(t.Context(), "", "empty.py")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, schema.KindFallback, chunks[0].Kind)
	})

	t.Run("Idempotent", func(t *testing.T) {
		logger.AssertIdempotent(t, func() []schema.SemanticChunk {
			chunks, err := splitter.ChunkFile(t.Context(), pythonSource, "app/hello.py")
			require.NoError(t, err)
			return chunks
		})
	})
}

func TestCodeAware_MaxFileSize(t *testing.T) {
	splitter := newSplitter(t,
		textsplitter.WithChunkSize(64),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithMaxFileSize(16),
	)

	chunks, err := splitter.ChunkFile(t.Context(), pythonSource, "hello.py")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, schema.KindWindow, c.Kind)
		assert.LessOrEqual(t, c.Size, 64)
	}
}

func TestCodeAware_Cancelled(t *testing.T) {
	splitter := newSplitter(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := splitter.ChunkFile(ctx, pythonSource, "hello.py")
	require.ErrorIs(t, err, context.Canceled)

	_, err = splitter.SplitDocuments(ctx, []schema.Document{
		schema.NewDocument(pythonSource, map[string]any{"source": "hello.py"}),
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCodeAware_SplitDocuments(t *testing.T) {
	splitter := newSplitter(t)

	docs := []schema.Document{
		schema.NewDocument(pythonSource, map[string]any{"source": "hello.py", "commit": "abc123"}),
		schema.NewDocument("no source here", nil),
	}

	out, err := splitter.SplitDocuments(t.Context(), docs)
	require.NoError(t, err)
	require.Greater(t, len(out), 1)

	var hello *schema.Document
	for i := range out {
		if out[i].Metadata["name"] == "hello" {
			hello = &out[i]
		}
	}
	require.NotNil(t, hello)
	assert.True(t, strings.HasPrefix(hello.PageContent, "def hello(name):"))
	assert.Equal(t, "abc123", hello.Metadata["commit"])
	assert.Equal(t, "hello.py", hello.Metadata["source"])
	assert.Equal(t, "function", hello.Metadata["kind"])
	assert.Equal(t, 4, hello.Metadata["line_start"])
	assert.Equal(t, "python", hello.Metadata["language"])

	last := out[len(out)-1]
	assert.Equal(t, "no source here", last.PageContent, "documents without a source pass through")
}

const goSource = "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(1)\n}\n"

func TestCodeAware_FileMetadata(t *testing.T) {
	splitter := newSplitter(t)

	t.Run("NativeParser", func(t *testing.T) {
		metadata, err := splitter.FileMetadata(t.Context(), goSource, "cmd/main.go")
		require.NoError(t, err)
		assert.Equal(t, "go", metadata.Language)
		assert.Equal(t, []string{"fmt"}, metadata.Imports)
		assert.Equal(t, "main", metadata.Properties["package"])
	})

	t.Run("NoExtractor", func(t *testing.T) {
		_, err := splitter.FileMetadata(t.Context(), pythonSource, "hello.py")
		require.ErrorIs(t, err, textsplitter.ErrNoMetadata)

		_, err = splitter.FileMetadata(t.Context(), "opaque\n", "blob.bin")
		require.ErrorIs(t, err, textsplitter.ErrNoMetadata)
	})

	t.Run("ParseError", func(t *testing.T) {
		_, err := splitter.FileMetadata(t.Context(), "package main\nfunc broken{", "broken.go")
		require.Error(t, err)
		assert.NotErrorIs(t, err, textsplitter.ErrNoMetadata)
	})

	t.Run("SplitDocumentsCarriesImports", func(t *testing.T) {
		out, err := splitter.SplitDocuments(t.Context(), []schema.Document{
			schema.NewDocument(goSource, map[string]any{"source": "cmd/main.go"}),
		})
		require.NoError(t, err)
		require.NotEmpty(t, out)
		for _, doc := range out {
			assert.Equal(t, []string{"fmt"}, doc.Metadata["file_imports"])
		}
	})
}

func TestNewCodeAware_Errors(t *testing.T) {
	_, err := textsplitter.NewCodeAware(nil, nil)
	require.ErrorIs(t, err, textsplitter.ErrNilRegistry)

	registry := parsers.NewRegistry(nil)
	_, err = textsplitter.NewCodeAware(registry, nil, textsplitter.WithChunkSize(-5))
	require.ErrorIs(t, err, textsplitter.ErrInvalidChunkSize)
}
