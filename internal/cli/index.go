package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sevigo/semchunk/documentloaders"
	"github.com/sevigo/semchunk/indexer"
	"github.com/sevigo/semchunk/schema"
)

type indexOptions struct {
	output   string
	workers  int
	timeout  time.Duration
	quiet    bool
	metadata bool
}

func newIndexCommand(a *app) *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index [path|git-url]",
		Short: "Chunk every file of a repository and emit JSON Lines",
		Long: `Walk a local directory, or clone a remote git repository, chunk every
text file and write one JSON object per chunk. A summary goes to stderr.

Examples:
  semchunk index .                                # Index current directory
  semchunk index ./service -o chunks.jsonl        # Write to a file
  semchunk index https://github.com/org/repo.git  # Clone and index`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := a.rootDir
			if len(args) > 0 {
				target = args[0]
			}
			return a.runIndex(cmd, target, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON Lines to this file instead of stdout")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "override indexing.workers")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "override indexing.file_timeout")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	cmd.Flags().BoolVar(&opts.metadata, "metadata", false, "add the file's imports to every record")
	return cmd
}

// chunkRecord is one line of index output: the chunk plus the repository
// fields of the file it came from.
type chunkRecord struct {
	schema.SemanticChunk
	Commit    string   `json:"commit,omitempty"`
	Branch    string   `json:"branch,omitempty"`
	OriginURL string   `json:"origin_url,omitempty"`
	Imports   []string `json:"file_imports,omitempty"`
}

func (a *app) runIndex(cmd *cobra.Command, target string, opts *indexOptions) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	loader, err := a.newLoader(target)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Scanning %s...\n", target)
	docs, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", target, err)
	}

	_, splitter, err := a.newSplitter()
	if err != nil {
		return err
	}

	workers := a.cfg.Indexing.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	timeout := a.cfg.Indexing.FileTimeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	pipelineOpts := []indexer.Option{
		indexer.WithLogger(a.logger),
		indexer.WithWorkers(workers),
		indexer.WithFileTimeout(timeout),
		indexer.WithFileMetadata(opts.metadata),
	}
	if !opts.quiet && len(docs) > 0 {
		bar := newProgressBar(stderr, len(docs))
		pipelineOpts = append(pipelineOpts, indexer.WithProgress(func(processed, _ int, _ string) {
			_ = bar.Set(processed)
		}))
	}

	pipeline, err := indexer.NewPipeline(splitter, pipelineOpts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	results, err := pipeline.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := a.writeResults(cmd, results, opts.output); err != nil {
		return err
	}
	printSummary(stderr, indexer.Summarize(results), results)
	return nil
}

func (a *app) newLoader(target string) (documentloaders.Loader, error) {
	loaderOpts := []documentloaders.GitLoaderOption{
		documentloaders.WithLogger(a.logger),
		documentloaders.WithInclude(a.cfg.Indexing.Include...),
		documentloaders.WithExclude(a.cfg.Indexing.Exclude...),
	}

	if isRemote(target) {
		return documentloaders.NewRemoteGitRepoLoader(target, a.logger, loaderOpts...), nil
	}

	path, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return documentloaders.NewGit(path, loaderOpts...)
}

// isRemote reports whether target looks like a clonable URL rather than a
// local path.
func isRemote(target string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}

func (a *app) writeResults(cmd *cobra.Command, results []indexer.Result, output string) error {
	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	for _, r := range results {
		commit, _ := r.Metadata["commit"].(string)
		branch, _ := r.Metadata["branch"].(string)
		origin, _ := r.Metadata["original_source_url"].(string)
		var imports []string
		if r.File != nil {
			imports = r.File.Imports
		}
		for _, chunk := range r.Chunks {
			record := chunkRecord{SemanticChunk: chunk, Commit: commit, Branch: branch, OriginURL: origin, Imports: imports}
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("failed to write chunk: %w", err)
			}
		}
	}
	return buf.Flush()
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Chunking[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func printSummary(w io.Writer, s indexer.Summary, results []indexer.Result) {
	fmt.Fprintf(w, "\nIndexing complete:\n")
	fmt.Fprintf(w, "  Files chunked:  %d\n", s.Files-s.Failed)
	fmt.Fprintf(w, "  Files failed:   %d (%d timed out)\n", s.Failed, s.TimedOut)
	fmt.Fprintf(w, "  Chunks created: %d (%d recovered)\n", s.Chunks, s.Recovered)

	if len(s.Languages) > 0 {
		fmt.Fprintf(w, "  Languages:     ")
		for _, lang := range sortedKeys(s.Languages) {
			fmt.Fprintf(w, " %s=%d", lang, s.Languages[lang])
		}
		fmt.Fprintln(w)
	}

	if s.Failed > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(w, "  - %s: %v\n", r.Source, r.Err)
			}
		}
	}
}
