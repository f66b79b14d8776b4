// Package documentloaders loads source files into schema.Documents, one per
// file, ready for chunking.
package documentloaders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sevigo/semchunk/gitutil"
	"github.com/sevigo/semchunk/schema"
)

// Loader defines the interface for loading documents from various sources.
type Loader interface {
	// Load retrieves documents from the source. The context can be used for
	// cancellation during the loading process.
	Load(ctx context.Context) ([]schema.Document, error)
}

const defaultMaxFileSize = 10 * 1024 * 1024 // 10MB

// GitLoader loads the files of a repository (or any directory) on the local
// file system.
//
// The loader:
//   - Skips version control, dependency and build directories
//   - Skips binary files by extension and by content
//   - Applies doublestar include and exclude patterns to slash-separated
//     paths relative to the root
//   - Tags every document with the HEAD commit when the root is inside a
//     git repository
type GitLoader struct {
	path        string
	includes    []string
	excludes    []string
	maxFileSize int64
	logger      *slog.Logger
}

// GitLoaderOption defines functional options for configuring GitLoader.
type GitLoaderOption func(*GitLoader)

// WithLogger sets a custom logger for the GitLoader.
// If not provided, slog.Default() will be used.
func WithLogger(logger *slog.Logger) GitLoaderOption {
	return func(g *GitLoader) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithInclude limits loading to files matching at least one pattern.
func WithInclude(patterns ...string) GitLoaderOption {
	return func(g *GitLoader) {
		g.includes = append(g.includes, patterns...)
	}
}

// WithExclude skips files and directories matching any pattern.
func WithExclude(patterns ...string) GitLoaderOption {
	return func(g *GitLoader) {
		g.excludes = append(g.excludes, patterns...)
	}
}

// WithMaxFileSize skips files larger than size bytes. Zero disables the limit.
func WithMaxFileSize(size int64) GitLoaderOption {
	return func(g *GitLoader) {
		g.maxFileSize = size
	}
}

// NewGit creates a loader for the directory at path.
func NewGit(path string, opts ...GitLoaderOption) (*GitLoader, error) {
	loader := &GitLoader{
		path:        path,
		maxFileSize: defaultMaxFileSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(loader)
	}

	for _, pattern := range slices.Concat(loader.includes, loader.excludes) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}
	if len(loader.includes) == 0 {
		loader.includes = []string{"**"}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot load %s: %w", path, ErrNotDirectory)
	}

	return loader, nil
}

var (
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrNotDirectory   = errors.New("not a directory")
)

// Load walks the root and returns one document per accepted file, in walk
// (lexical) order. Unreadable entries are skipped with a warning.
func (g *GitLoader) Load(ctx context.Context) ([]schema.Document, error) {
	g.logger.InfoContext(ctx, "Starting repository load", "path", g.path)

	repoMetadata := g.repositoryMetadata()

	var documents []schema.Document
	err := filepath.WalkDir(g.path, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// Handle walk errors (permissions, broken symlinks, etc.)
		if err != nil {
			g.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(g.path, path)
		if err != nil {
			g.logger.Warn("Could not get relative path, skipping", "path", path, "error", err)
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && (shouldSkipDir(d.Name()) || g.excluded(relPath) || g.excluded(relPath+"/")) {
				g.logger.Debug("Skipping excluded directory", "dir", relPath)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if !g.included(relPath) || g.excluded(relPath) {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			g.logger.Warn("Could not get file info, skipping", "path", path, "error", err)
			return nil
		}
		if g.shouldSkipFile(relPath, fileInfo) {
			g.logger.Debug("Skipping excluded file", "path", relPath, "size", fileInfo.Size())
			return nil
		}

		if doc, ok := g.loadFile(path, relPath, fileInfo, repoMetadata); ok {
			documents = append(documents, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository walk failed: %w", err)
	}

	g.logger.InfoContext(ctx, "Repository load completed", "path", g.path, "total_documents", len(documents))
	return documents, nil
}

func (g *GitLoader) loadFile(path, relPath string, fileInfo fs.FileInfo, repoMetadata map[string]any) (schema.Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		g.logger.Warn("Cannot read file, skipping", "path", path, "error", err)
		return schema.Document{}, false
	}
	if isBinary(data) {
		g.logger.Debug("Skipping binary file", "path", relPath)
		return schema.Document{}, false
	}

	metadata := make(map[string]any, len(repoMetadata)+3)
	for k, v := range repoMetadata {
		metadata[k] = v
	}
	metadata["source"] = relPath
	metadata["file_size"] = fileInfo.Size()
	metadata["mod_time"] = fileInfo.ModTime()

	return schema.NewDocument(string(data), metadata), true
}

// repositoryMetadata returns commit fields shared by every document, or nil
// when the root is not inside a git repository.
func (g *GitLoader) repositoryMetadata() map[string]any {
	head, err := gitutil.ReadHead(g.path)
	if err != nil {
		if !errors.Is(err, gitutil.ErrNotRepository) {
			g.logger.Warn("Could not read repository HEAD", "path", g.path, "error", err)
		}
		return nil
	}
	metadata := map[string]any{"commit": head.Commit}
	if head.Branch != "" {
		metadata["branch"] = head.Branch
	}
	return metadata
}

func (g *GitLoader) included(relPath string) bool {
	return matchAny(g.includes, relPath)
}

func (g *GitLoader) excluded(relPath string) bool {
	return matchAny(g.excludes, relPath)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// shouldSkipDir returns true for common directories that should be excluded
// from document loading.
func shouldSkipDir(name string) bool {
	skipDirs := []string{
		// Version control
		".git", ".svn", ".hg",

		// Dependencies
		"vendor", "node_modules", "__pycache__", ".venv",

		// Build outputs
		"build", "dist", "target", "out",

		// IDE/Editor
		".vscode", ".idea", ".vs",
	}
	return slices.Contains(skipDirs, name)
}

// shouldSkipFile returns true for files that shouldn't be loaded as documents:
// files over the size limit and known binary formats.
func (g *GitLoader) shouldSkipFile(path string, info fs.FileInfo) bool {
	if g.maxFileSize > 0 && info.Size() > g.maxFileSize {
		return true
	}
	return binaryExts[strings.ToLower(filepath.Ext(path))]
}

var binaryExts = map[string]bool{
	// Executables and libraries
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".o": true, ".a": true,

	// Images
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tiff": true, ".ico": true, ".webp": true,

	// Archives and compressed files
	".zip": true, ".tar": true, ".gz": true, ".rar": true,
	".7z": true, ".bz2": true, ".xz": true, ".jar": true,

	// Media files
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".wav": true, ".flac": true, ".ogg": true,

	// Office documents
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".pdf": true,

	// Other binary formats
	".db": true, ".sqlite": true, ".class": true, ".pyc": true, ".wasm": true,
}

// isBinary reports whether data has a NUL byte in its first 8KB.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), 8000)], 0) >= 0
}
