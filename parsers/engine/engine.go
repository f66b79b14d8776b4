package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/semchunk/schema"
)

var (
	ErrNoGrammar    = errors.New("plugin has no grammar")
	ErrUnusableTree = errors.New("parse produced no usable tree")
	ErrNoConstructs = errors.New("traversal produced no constructs")
	ErrNilPlugin    = errors.New("language plugin is nil")
)

// PluginPanicError records a panic raised by a plugin callback.
type PluginPanicError struct {
	Plugin string
	Path   string
	Value  any
}

func (e *PluginPanicError) Error() string {
	return fmt.Sprintf("plugin %s panicked on %s: %v", e.Plugin, e.Path, e.Value)
}

// Engine runs the per-file state machine:
//
//	PARSE -> TREE_OK     -> TRAVERSE -> ASSEMBLE -> DONE
//	PARSE -> TREE_FAILED -> WHOLE_FILE_FALLBACK  -> DONE
//
// A panic during traversal counts as TREE_FAILED. Engine holds no per-file
// state and may be shared between goroutines.
type Engine struct {
	logger *slog.Logger
}

// New creates an Engine. A nil logger means slog.Default().
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With("component", "chunk_engine")}
}

// Chunk returns the semantic chunks of content. It never fails and always
// returns at least one chunk.
func (e *Engine) Chunk(plugin LanguagePlugin, content, path string) []schema.SemanticChunk {
	if plugin == nil {
		e.logger.Warn("No plugin supplied, using whole-file chunk", "path", path, "error", ErrNilPlugin)
		return WholeFileChunk("text", content, path)
	}

	chunks, err := e.chunkTree(plugin, content, path)
	if err == nil {
		e.logger.Debug("Created chunks", "count", len(chunks), "path", path, "plugin", plugin.Name())
		return chunks
	}

	var panicErr *PluginPanicError
	if errors.As(err, &panicErr) {
		e.logger.Warn("Plugin failed during traversal, falling back", "path", path, "plugin", plugin.Name(), "error", err)
	} else {
		e.logger.Debug("Falling back to whole-file chunking", "path", path, "plugin", plugin.Name(), "reason", err)
	}
	return e.wholeFile(plugin, content, path)
}

func (e *Engine) chunkTree(plugin LanguagePlugin, content, path string) (chunks []schema.SemanticChunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = &PluginPanicError{Plugin: plugin.Name(), Path: path, Value: r}
		}
	}()

	grammar := plugin.Grammar()
	if grammar == nil {
		return nil, ErrNoGrammar
	}

	tree, err := Parse(grammar, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnusableTree, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !usableRoot(root, content) {
		return nil, ErrUnusableTree
	}

	t := NewTraversal(plugin, content, path, e.logger)
	t.Run(root)
	constructs := t.Finish()
	if len(constructs) == 0 {
		return nil, ErrNoConstructs
	}
	return Assemble(constructs, FileInfo{Path: path, Language: plugin.Name()}), nil
}

func (e *Engine) wholeFile(plugin LanguagePlugin, content, path string) (chunks []schema.SemanticChunk) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Whole-file fallback failed, emitting single chunk",
				"path", path, "plugin", plugin.Name(),
				"error", &PluginPanicError{Plugin: plugin.Name(), Path: path, Value: r})
			chunks = WholeFileChunk(plugin.Name(), content, path)
		}
	}()

	chunks = plugin.WholeFileFallback(content, path)
	if len(chunks) == 0 {
		return WholeFileChunk(plugin.Name(), content, path)
	}
	return Reindex(chunks)
}

// Parse parses src with a fresh parser, so concurrent calls share nothing.
func Parse(grammar *sitter.Language, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, ErrUnusableTree
	}
	return tree, nil
}

// usableRoot accepts a root that is itself an ERROR node: its children are
// still walked and the region goes through pattern recovery.
func usableRoot(root *sitter.Node, content string) bool {
	if root == nil {
		return false
	}
	if root.ChildCount() == 0 && strings.TrimSpace(content) != "" {
		return false
	}
	return true
}
