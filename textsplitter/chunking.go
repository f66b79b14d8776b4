package textsplitter

import (
	"context"
	"errors"
	"fmt"

	"github.com/sevigo/semchunk/parsers"
	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/schema"
)

// resolvePlugin finds the language plugin for path. It reports false when the
// file should go to the window chunker instead.
func (c *CodeAwareTextSplitter) resolvePlugin(ctx context.Context, content, path string) (engine.LanguagePlugin, bool) {
	if c.maxFileSize > 0 && len(content) > c.maxFileSize {
		c.logger.DebugContext(ctx, "File exceeds max size, using window chunker",
			"path", path, "size", len(content), "max_file_size", c.maxFileSize)
		return nil, false
	}

	plugin, err := c.parserRegistry.GetParserForFile(path, nil)
	if err != nil {
		if !errors.Is(err, parsers.ErrPluginNotFound) {
			c.logger.WarnContext(ctx, "Plugin lookup failed", "path", path, "error", err)
		}
		c.logger.DebugContext(ctx, "No language plugin, using window chunker", "path", path)
		return nil, false
	}

	return plugin, true
}

// FileMetadata describes a whole file with the native parser of its plugin.
// It returns ErrNoMetadata when the file has no plugin, is too large, or its
// plugin has no native parser.
func (c *CodeAwareTextSplitter) FileMetadata(ctx context.Context, content, path string) (metadata schema.FileMetadata, err error) {
	if err := ctx.Err(); err != nil {
		return schema.FileMetadata{}, err
	}
	plugin, ok := c.resolvePlugin(ctx, content, path)
	if !ok {
		return schema.FileMetadata{}, ErrNoMetadata
	}
	extractor, ok := plugin.(engine.MetadataExtractor)
	if !ok {
		return schema.FileMetadata{}, ErrNoMetadata
	}

	defer func() {
		if r := recover(); r != nil {
			metadata = schema.FileMetadata{}
			err = &engine.PluginPanicError{Plugin: plugin.Name(), Path: path, Value: r}
		}
	}()
	metadata, err = extractor.ExtractMetadata(content, path)
	if err != nil {
		return schema.FileMetadata{}, fmt.Errorf("failed to extract metadata for %s: %w", path, err)
	}
	return metadata, nil
}
