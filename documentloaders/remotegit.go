package documentloaders

import (
	"context"
	"log/slog"

	"github.com/sevigo/semchunk/gitutil"
	"github.com/sevigo/semchunk/schema"
)

// RemoteGitRepoLoader clones a repository into a temporary directory and
// loads it with a GitLoader.
type RemoteGitRepoLoader struct {
	RepoURL string
	Cloner  *gitutil.Cloner
	Logger  *slog.Logger
	Options []GitLoaderOption
}

func NewRemoteGitRepoLoader(repoURL string, logger *slog.Logger, opts ...GitLoaderOption) *RemoteGitRepoLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteGitRepoLoader{
		RepoURL: repoURL,
		Cloner:  gitutil.NewCloner(logger),
		Logger:  logger,
		Options: opts,
	}
}

func (l *RemoteGitRepoLoader) Load(ctx context.Context) ([]schema.Document, error) {
	tempPath, cleanup, err := l.Cloner.Clone(ctx, l.RepoURL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	opts := append([]GitLoaderOption{WithLogger(l.Logger)}, l.Options...)
	localGitLoader, err := NewGit(tempPath, opts...)
	if err != nil {
		return nil, err
	}

	documents, err := localGitLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range documents {
		documents[i].Metadata["original_source_url"] = l.RepoURL
	}

	return documents, nil
}
