package textsplitter

import (
	"fmt"
	"path/filepath"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// windowChunks runs the window chunker and packages each window as a
// text_window chunk.
func (c *CodeAwareTextSplitter) windowChunks(content, path string) []schema.SemanticChunk {
	windows := c.windows.Chunk(content)
	base := filepath.Base(path)

	constructs := make([]schema.Construct, len(windows))
	for i, w := range windows {
		name := fmt.Sprintf("%s_part_%d", base, i+1)
		constructs[i] = schema.Construct{
			Kind:      schema.KindWindow,
			Name:      name,
			Path:      name,
			Signature: engine.Signature(w.Content),
			Scope:     schema.ScopeGlobal,
			LineStart: w.LineStart,
			LineEnd:   w.LineEnd,
			Text:      w.Content,
			Context:   map[string]any{"chunker": "text_window"},
		}
	}

	return engine.Assemble(constructs, engine.FileInfo{Path: path, Language: windowLanguage})
}
