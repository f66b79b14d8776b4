package schema

// Document is a unit of text flowing through loaders and splitters. Loaders
// emit one Document per file; splitters emit one per chunk.
type Document struct {
	PageContent string
	Metadata    map[string]any
}

func (d Document) String() string {
	return d.PageContent
}

func NewDocument(content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return Document{
		PageContent: content,
		Metadata:    metadata,
	}
}

// Source returns the "source" metadata entry, or "" when missing.
func (d Document) Source() string {
	s, _ := d.Metadata["source"].(string)
	return s
}
