package textsplitter

import "errors"

// Constants for chunking parameters
const (
	defaultChunkSize    = 1500
	defaultChunkOverlap = 200
	defaultMaxFileSize  = 1 << 20
	maxChunkSize        = 1 << 20

	// Language tag for chunks produced without a plugin.
	windowLanguage = "text"
)

var (
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	ErrNilRegistry      = errors.New("parser registry cannot be nil")
	ErrMissingSource    = errors.New("document metadata is missing 'source' key")
	ErrNoMetadata       = errors.New("no metadata extractor for file")
)

// TextWindow is one output unit of the fixed-size windowing chunker.
type TextWindow struct {
	Content   string
	LineStart int
	LineEnd   int
}

// commentPrefixes are the line prefixes treated as comments when
// index_comments is disabled.
var commentPrefixes = []string{"//", "#", "--", "/*", "*", "*/", ";", "<!--"}
