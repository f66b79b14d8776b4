// Package gitutil wraps go-git for the two things indexing needs from a
// repository: a temporary shallow clone and the commit it was taken at.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Cloner handles the temporary cloning of remote Git repositories.
type Cloner struct {
	Logger *slog.Logger
	// Depth limits history; zero clones everything.
	Depth int
	// Branch checks out a branch other than the remote HEAD when set.
	Branch string
}

// NewCloner creates a new Cloner that makes shallow clones.
func NewCloner(logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{Logger: logger, Depth: 1}
}

// Clone checks out a remote repository to a temporary local directory. The
// returned cleanup func removes it.
func (c *Cloner) Clone(ctx context.Context, repoURL string) (string, func(), error) {
	tempPath, err := os.MkdirTemp("", "semchunk-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	c.Logger.InfoContext(ctx, "Cloning repository", "url", repoURL, "path", tempPath, "depth", c.Depth)

	cleanupFunc := func() {
		c.Logger.Debug("Cleaning up temporary repository", "path", tempPath)
		_ = os.RemoveAll(tempPath)
	}

	opts := &git.CloneOptions{
		URL:   repoURL,
		Depth: c.Depth,
	}
	if c.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.Branch)
		opts.SingleBranch = true
	}

	if _, err = git.PlainCloneContext(ctx, tempPath, false, opts); err != nil {
		cleanupFunc()
		return "", nil, fmt.Errorf("failed to clone repo '%s': %w", repoURL, err)
	}

	c.Logger.InfoContext(ctx, "Repository cloned successfully", "url", repoURL)
	return tempPath, cleanupFunc, nil
}
