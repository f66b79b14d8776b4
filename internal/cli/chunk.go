package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/semchunk/documentloaders"
	"github.com/sevigo/semchunk/schema"
	"github.com/sevigo/semchunk/textsplitter"
)

type chunkOptions struct {
	as       string
	compact  bool
	metadata bool
}

// fileOutput is one element of the --metadata output.
type fileOutput struct {
	FilePath string                 `json:"file_path"`
	Metadata *schema.FileMetadata   `json:"metadata,omitempty"`
	Chunks   []schema.SemanticChunk `json:"chunks"`
}

func newChunkCommand(a *app) *cobra.Command {
	opts := &chunkOptions{}

	cmd := &cobra.Command{
		Use:   "chunk [file...] [-- command [arg...]]",
		Short: "Print the chunks of one or more files as JSON",
		Long: `Chunk each file and print a JSON array of chunks to stdout.

Arguments after -- are run as a command and its stdout is chunked instead of
files. --as names that output so its extension selects the language plugin.

With --metadata each file becomes an object holding its chunks and, when
the language has a native parser, its file-level metadata.

Examples:
  semchunk chunk main.go lib.rs
  semchunk chunk --metadata schema.proto
  semchunk chunk --as main.go -- git show HEAD:main.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChunk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.as, "as", "", "file name for command output")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print compact JSON")
	cmd.Flags().BoolVar(&opts.metadata, "metadata", false, "include file-level metadata")
	return cmd
}

func (a *app) runChunk(cmd *cobra.Command, args []string, opts *chunkOptions) error {
	ctx := cmd.Context()

	docs, err := chunkInputs(cmd, args, opts)
	if err != nil {
		return err
	}

	_, splitter, err := a.newSplitter()
	if err != nil {
		return err
	}

	chunks := []schema.SemanticChunk{}
	files := []fileOutput{}
	for _, doc := range docs {
		fileChunks, err := splitter.ChunkFile(ctx, doc.PageContent, doc.Source())
		if err != nil {
			return err
		}
		chunks = append(chunks, fileChunks...)

		if opts.metadata {
			out := fileOutput{FilePath: doc.Source(), Chunks: fileChunks}
			metadata, err := splitter.FileMetadata(ctx, doc.PageContent, doc.Source())
			switch {
			case err == nil:
				out.Metadata = &metadata
			case !errors.Is(err, textsplitter.ErrNoMetadata):
				a.logger.Warn("Metadata extraction failed", "source", doc.Source(), "error", err)
			}
			files = append(files, out)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	if opts.metadata {
		return enc.Encode(files)
	}
	return enc.Encode(chunks)
}

func chunkInputs(cmd *cobra.Command, args []string, opts *chunkOptions) ([]schema.Document, error) {
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		if dash > 0 {
			return nil, errors.New("a command cannot be combined with file arguments")
		}
		if len(args) == 0 {
			return nil, errors.New("missing command after --")
		}
		loader := documentloaders.NewCLICommandLoader(opts.as, args[0], args[1:]...)
		return loader.Load(cmd.Context())
	}

	if len(args) == 0 {
		return nil, errors.New("at least one file or a command after -- is required")
	}
	docs := make([]schema.Document, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, schema.NewDocument(string(data), map[string]any{"source": path}))
	}
	return docs, nil
}
