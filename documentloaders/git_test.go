package documentloaders_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/documentloaders"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
)

// materialize writes an in-memory file system into a temporary directory.
func materialize(t *testing.T, mockFS fstest.MapFS) string {
	t.Helper()
	tempDir := t.TempDir()
	err := fs.WalkDir(mockFS, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		targetPath := filepath.Join(tempDir, path)
		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		data, readErr := mockFS.ReadFile(path)
		require.NoError(t, readErr)
		return os.WriteFile(targetPath, data, 0o644)
	})
	require.NoError(t, err)
	return tempDir
}

func sources(docs []schema.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Source()
	}
	return out
}

func TestGitLoader_Load(t *testing.T) {
	dir := materialize(t, fstest.MapFS{
		"src/main.go":              {Data: []byte("package main\n\nfunc main() {}\n")},
		"src/util/strings.go":      {Data: []byte("package util\n")},
		"src/util/strings_test.go": {Data: []byte("package util\n")},
		"README.md":                {Data: []byte("# Project\n")},
		"assets/logo.png":          {Data: []byte("png data")},
		"data/blob.txt":            {Data: []byte("bin\x00ary")},
		".git/config":              {Data: []byte("some config")},
		"node_modules/x/index.js":  {Data: []byte("module.exports = {}\n")},
		"empty_dir":                {Mode: fs.ModeDir},
	})
	log, _ := logger.NewTestLogger(t)

	t.Run("Defaults", func(t *testing.T) {
		loader, err := documentloaders.NewGit(dir, documentloaders.WithLogger(log))
		require.NoError(t, err)

		docs, err := loader.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"README.md", "src/main.go", "src/util/strings.go", "src/util/strings_test.go"}, sources(docs))

		main := docs[1]
		assert.Equal(t, "package main\n\nfunc main() {}\n", main.PageContent)
		assert.Equal(t, int64(len(main.PageContent)), main.Metadata["file_size"])
		_, hasCommit := main.Metadata["commit"]
		assert.False(t, hasCommit, "plain directories carry no commit")
	})

	t.Run("IncludeExclude", func(t *testing.T) {
		loader, err := documentloaders.NewGit(dir,
			documentloaders.WithLogger(log),
			documentloaders.WithInclude("**/*.go"),
			documentloaders.WithExclude("**/*_test.go"),
		)
		require.NoError(t, err)

		docs, err := loader.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"src/main.go", "src/util/strings.go"}, sources(docs))
	})

	t.Run("ExcludedDirectory", func(t *testing.T) {
		loader, err := documentloaders.NewGit(dir,
			documentloaders.WithLogger(log),
			documentloaders.WithExclude("src/util"),
		)
		require.NoError(t, err)

		docs, err := loader.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"README.md", "src/main.go"}, sources(docs))
	})

	t.Run("MaxFileSize", func(t *testing.T) {
		loader, err := documentloaders.NewGit(dir,
			documentloaders.WithLogger(log),
			documentloaders.WithMaxFileSize(16),
		)
		require.NoError(t, err)

		docs, err := loader.Load(t.Context())
		require.NoError(t, err)
		assert.NotContains(t, sources(docs), "src/main.go")
		assert.Contains(t, sources(docs), "README.md")
	})

	t.Run("Cancelled", func(t *testing.T) {
		loader, err := documentloaders.NewGit(dir, documentloaders.WithLogger(log))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err = loader.Load(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestGitLoader_RepositoryMetadata(t *testing.T) {
	dir := materialize(t, fstest.MapFS{
		"lib.rs": {Data: []byte("fn main() {}\n")},
	})

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("lib.rs")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Ada", Email: "ada@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	loader, err := documentloaders.NewGit(dir)
	require.NoError(t, err)
	docs, err := loader.Load(t.Context())
	require.NoError(t, err)

	require.Len(t, docs, 1, "the .git directory is never loaded")
	assert.Equal(t, hash.String(), docs[0].Metadata["commit"])
	assert.Equal(t, "master", docs[0].Metadata["branch"])
}

func TestNewGit_Errors(t *testing.T) {
	_, err := documentloaders.NewGit(t.TempDir(), documentloaders.WithInclude("src/[a-"))
	require.ErrorIs(t, err, documentloaders.ErrInvalidPattern)

	file := filepath.Join(t.TempDir(), "file.go")
	require.NoError(t, os.WriteFile(file, []byte("package x\n"), 0o644))
	_, err = documentloaders.NewGit(file)
	require.ErrorIs(t, err, documentloaders.ErrNotDirectory)

	_, err = documentloaders.NewGit(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCLICommandLoader(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses echo from the host shell utilities")
	}

	loader := documentloaders.NewCLICommandLoader("snippet.go", "echo", "package main")
	docs, err := loader.Load(t.Context())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "package main\n", docs[0].PageContent)
	assert.Equal(t, "snippet.go", docs[0].Source())
	assert.Equal(t, "echo", docs[0].Metadata["command"])

	_, err = documentloaders.NewCLICommandLoader("x", "false").Load(t.Context())
	require.Error(t, err)
}
