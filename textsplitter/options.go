package textsplitter

import (
	"log/slog"

	"github.com/sevigo/semchunk/schema"
)

// options holds configuration settings for the text splitter.
type options struct {
	chunkSize     int
	chunkOverlap  int
	maxFileSize   int
	indexComments bool
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		chunkSize:     defaultChunkSize,
		chunkOverlap:  defaultChunkOverlap,
		maxFileSize:   defaultMaxFileSize,
		indexComments: true,
	}
}

// Option is a function type for configuring the splitter.
type Option func(*options)

// WithChunkSize sets the maximum window size in bytes.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// WithChunkOverlap sets how many bytes of trailing lines consecutive windows share.
func WithChunkOverlap(overlap int) Option {
	return func(o *options) {
		o.chunkOverlap = overlap
	}
}

// WithMaxFileSize sets the size above which files skip the semantic engine.
// Zero disables the limit.
func WithMaxFileSize(size int) Option {
	return func(o *options) {
		o.maxFileSize = size
	}
}

// WithIndexComments controls whether comment-only windows are kept.
func WithIndexComments(index bool) Option {
	return func(o *options) {
		o.indexComments = index
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithChunkingOptions applies all four settings from a config value.
func WithChunkingOptions(c schema.ChunkingOptions) Option {
	return func(o *options) {
		o.chunkSize = c.ChunkSize
		o.chunkOverlap = c.ChunkOverlap
		o.maxFileSize = c.MaxFileSize
		o.indexComments = c.IndexComments
	}
}
