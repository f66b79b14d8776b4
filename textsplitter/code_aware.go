package textsplitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/sevigo/semchunk/parsers"
	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// CodeAwareTextSplitter routes each file to its language plugin, or to the
// window chunker when no plugin handles the file or it is too large.
type CodeAwareTextSplitter struct {
	parserRegistry parsers.ParserRegistry
	engine         *engine.Engine
	windows        *WindowChunker
	logger         *slog.Logger

	maxFileSize int
}

var _ TextSplitter = (*CodeAwareTextSplitter)(nil)

func NewCodeAware(registry parsers.ParserRegistry, logger *slog.Logger, opts ...Option) (*CodeAwareTextSplitter, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	splitterOpts := defaultOptions()
	splitterOpts.logger = logger
	for _, opt := range opts {
		opt(&splitterOpts)
	}
	if err := splitterOpts.validate(); err != nil {
		return nil, fmt.Errorf("invalid splitter options: %w", err)
	}
	if splitterOpts.logger == nil {
		splitterOpts.logger = slog.Default()
	}

	return &CodeAwareTextSplitter{
		parserRegistry: registry,
		engine:         engine.New(splitterOpts.logger),
		windows:        newWindowChunker(splitterOpts),
		logger:         splitterOpts.logger.With("component", "code_aware_splitter"),
		maxFileSize:    splitterOpts.maxFileSize,
	}, nil
}

// ChunkFile returns the chunks of one file, never fewer than one. The error
// is non-nil only when ctx is done.
func (c *CodeAwareTextSplitter) ChunkFile(ctx context.Context, content, path string) ([]schema.SemanticChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []schema.SemanticChunk
	if plugin, ok := c.resolvePlugin(ctx, content, path); ok {
		chunks = c.engine.Chunk(plugin, content, path)
	} else {
		chunks = c.windowChunks(content, path)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (c *CodeAwareTextSplitter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	finalDocs := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		chunks, err := c.splitSingleDocument(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			c.logger.WarnContext(ctx, "Could not split document, using original.", "source", doc.Source(), "error", err)
			finalDocs = append(finalDocs, doc)
			continue
		}
		finalDocs = append(finalDocs, chunks...)
	}
	return finalDocs, nil
}

// splitSingleDocument contains the core logic for processing one document.
func (c *CodeAwareTextSplitter) splitSingleDocument(ctx context.Context, doc schema.Document) ([]schema.Document, error) {
	source := doc.Source()
	if source == "" {
		return nil, ErrMissingSource
	}

	chunks, err := c.ChunkFile(ctx, doc.PageContent, source)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document content for source %q: %w", source, err)
	}

	var imports []string
	if file, err := c.FileMetadata(ctx, doc.PageContent, source); err == nil {
		imports = file.Imports
	} else if !errors.Is(err, ErrNoMetadata) {
		c.logger.DebugContext(ctx, "Metadata extraction failed", "source", source, "error", err)
	}

	splitDocs := make([]schema.Document, 0, len(chunks))
	for _, chunk := range chunks {
		newMetadata := make(map[string]any, len(doc.Metadata)+11)
		maps.Copy(newMetadata, doc.Metadata)
		maps.Copy(newMetadata, chunkMetadata(chunk))
		if len(imports) > 0 {
			newMetadata["file_imports"] = imports
		}
		splitDocs = append(splitDocs, schema.NewDocument(chunk.Content, newMetadata))
	}
	return splitDocs, nil
}

func chunkMetadata(chunk schema.SemanticChunk) map[string]any {
	metadata := map[string]any{
		"chunk_id":     chunk.ID,
		"chunk_index":  chunk.ChunkIndex,
		"total_chunks": chunk.TotalChunks,
		"line_start":   chunk.LineStart,
		"line_end":     chunk.LineEnd,
		"language":     chunk.Language,
		"kind":         chunk.Kind,
		"name":         chunk.Name,
		"path":         chunk.Path,
		"scope":        chunk.Scope,
	}
	if chunk.Parent != "" {
		metadata["parent"] = chunk.Parent
	}
	if chunk.Signature != "" {
		metadata["signature"] = chunk.Signature
	}
	if len(chunk.Features) > 0 {
		metadata["features"] = chunk.Features
	}
	if len(chunk.Context) > 0 {
		metadata["context"] = chunk.Context
	}
	return metadata
}
