package engine

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/sevigo/semchunk/schema"
)

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sevigo/semchunk/chunk"))

// FileInfo tags assembled chunks with their origin.
type FileInfo struct {
	Path     string
	Language string
}

// Assemble turns constructs into chunks in discovery order.
func Assemble(constructs []schema.Construct, file FileInfo) []schema.SemanticChunk {
	ext := schema.NormalizeExtension(filepath.Ext(file.Path))
	chunks := make([]schema.SemanticChunk, 0, len(constructs))
	for _, c := range constructs {
		chunks = append(chunks, schema.SemanticChunk{
			Content:   c.Text,
			FilePath:  file.Path,
			Extension: ext,
			Language:  file.Language,
			Kind:      c.Kind,
			Name:      c.Name,
			Path:      c.Path,
			Signature: c.Signature,
			Parent:    c.Parent,
			Scope:     c.Scope,
			LineStart: c.LineStart,
			LineEnd:   c.LineEnd,
			Context:   maps.Clone(c.Context),
			Features:  normalizeFeatures(c.Features),
		})
	}
	return Reindex(chunks)
}

// Reindex assigns ChunkIndex, TotalChunks, Size and ID in slice order.
func Reindex(chunks []schema.SemanticChunk) []schema.SemanticChunk {
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = len(chunks)
		chunks[i].Size = len(chunks[i].Content)
		chunks[i].ID = ChunkID(chunks[i])
	}
	return chunks
}

// ChunkID derives a stable identifier from a chunk's position and identity.
func ChunkID(c schema.SemanticChunk) string {
	key := fmt.Sprintf("%s|%d|%d|%d|%s|%s", c.FilePath, c.ChunkIndex, c.LineStart, c.LineEnd, c.Kind, c.Name)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

func normalizeFeatures(features []string) []string {
	if len(features) == 0 {
		return nil
	}
	out := slices.Clone(features)
	slices.Sort(out)
	return slices.Compact(out)
}
