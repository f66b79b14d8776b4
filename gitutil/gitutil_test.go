package gitutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/gitutil"
	logger "github.com/sevigo/semchunk/parsers/testing"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("src/main.go")
	require.NoError(t, err)

	hash, err := wt.Commit("Add main package\n\nLonger body.", &git.CommitOptions{
		Author: &object.Signature{Name: "Ada", Email: "ada@example.com", When: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestReadHead(t *testing.T) {
	dir, hash := initRepo(t)

	t.Run("RepositoryRoot", func(t *testing.T) {
		head, err := gitutil.ReadHead(dir)
		require.NoError(t, err)
		assert.Equal(t, hash, head.Commit)
		assert.Equal(t, "master", head.Branch)
		assert.Equal(t, "Ada", head.Author)
		assert.Equal(t, "Add main package", head.Subject)
		assert.True(t, head.When.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("Subdirectory", func(t *testing.T) {
		head, err := gitutil.ReadHead(filepath.Join(dir, "src"))
		require.NoError(t, err)
		assert.Equal(t, hash, head.Commit)
	})

	t.Run("NotARepository", func(t *testing.T) {
		_, err := gitutil.ReadHead(t.TempDir())
		require.ErrorIs(t, err, gitutil.ErrNotRepository)
	})
}

func TestCloner_CloneFailureCleansUp(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	cloner := gitutil.NewCloner(log)
	assert.Equal(t, 1, cloner.Depth)

	before, err := filepath.Glob(filepath.Join(os.TempDir(), "semchunk-repo-*"))
	require.NoError(t, err)

	path, cleanup, err := cloner.Clone(t.Context(), "")
	require.Error(t, err)
	assert.Empty(t, path)
	assert.Nil(t, cleanup)

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "semchunk-repo-*"))
	require.NoError(t, err)
	assert.Len(t, after, len(before), "failed clones leave no temp directory")
}
