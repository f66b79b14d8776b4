package gitutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no repository contains the path.
var ErrNotRepository = errors.New("not a git repository")

// Head describes the commit a working tree is checked out at.
type Head struct {
	Commit  string
	Branch  string
	Author  string
	When    time.Time
	Subject string
}

// ReadHead opens the repository containing path and reports its HEAD commit.
func ReadHead(path string) (Head, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Head{}, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return Head{}, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}

	ref, err := repo.Head()
	if err != nil {
		return Head{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	head := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		head.Branch = ref.Name().Short()
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Head{}, fmt.Errorf("failed to read commit %s: %w", head.Commit, err)
	}
	head.Author = commit.Author.Name
	head.When = commit.Author.When
	head.Subject, _, _ = strings.Cut(strings.TrimSpace(commit.Message), "\n")

	return head, nil
}
