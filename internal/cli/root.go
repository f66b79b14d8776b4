// Package cli implements the semchunk command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/semchunk/config"
	"github.com/sevigo/semchunk/parsers"
	"github.com/sevigo/semchunk/textsplitter"
)

// app carries state shared by every subcommand once the root has loaded
// the configuration.
type app struct {
	cfgFile  string
	rootDir  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the semchunk command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "semchunk",
		Short: "Split source code into semantic chunks for code-search indexing",
		Long: `semchunk parses source files with tree-sitter and emits one chunk per
function, type, section or other construct, with scope and line metadata.
Files in unsupported languages are split into line-aligned text windows.

Example usage:
  semchunk chunk main.go                        # Print chunks as JSON
  semchunk index . -o chunks.jsonl              # Chunk a whole repository
  semchunk index https://github.com/org/repo    # Clone and chunk
  semchunk languages                            # List language plugins`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./semchunk.yaml)")
	root.PersistentFlags().StringVarP(&a.rootDir, "dir", "d", "", "directory to look for a config file in (default is current directory)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newChunkCommand(a),
		newIndexCommand(a),
		newLanguagesCommand(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) error {
	var err error

	if a.rootDir == "" {
		a.rootDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
	} else {
		a.cfg, err = config.LoadFromDir(a.rootDir)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	a.logger, err = a.cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return nil
}

// newSplitter wires the plugin registry into a code-aware splitter using the
// chunking section of the config.
func (a *app) newSplitter() (parsers.ParserRegistry, *textsplitter.CodeAwareTextSplitter, error) {
	registry, err := parsers.RegisterLanguagePlugins(a.logger)
	if err != nil {
		return nil, nil, err
	}
	splitter, err := textsplitter.NewCodeAware(registry, a.logger, textsplitter.WithChunkingOptions(a.cfg.Chunking))
	if err != nil {
		return nil, nil, err
	}
	return registry, splitter, nil
}
