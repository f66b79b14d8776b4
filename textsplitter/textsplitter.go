// Package textsplitter is the per-file chunking facade. Files with a
// registered language plugin go through the semantic engine; everything else
// is cut into line-aligned windows.
package textsplitter

import (
	"context"

	"github.com/sevigo/semchunk/schema"
)

type TextSplitter interface {
	SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error)
}
