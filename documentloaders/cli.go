package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/sevigo/semchunk/schema"
)

// CLICommandLoader runs a command and uses its stdout as the content of one
// document. Source names the document, which decides how it is chunked.
type CLICommandLoader struct {
	Command string
	Args    []string
	Source  string
}

func NewCLICommandLoader(source, command string, args ...string) *CLICommandLoader {
	return &CLICommandLoader{Command: command, Args: args, Source: source}
}

func (l *CLICommandLoader) Load(ctx context.Context) ([]schema.Document, error) {
	cmd := exec.CommandContext(ctx, l.Command, l.Args...)
	output, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("command '%s' failed: %w\nstderr: %s", l.Command, err, string(ee.Stderr))
		}
		return nil, fmt.Errorf("command '%s' failed: %w", l.Command, err)
	}

	source := l.Source
	if source == "" {
		source = fmt.Sprintf("output of command '%s'", l.Command)
	}
	doc := schema.NewDocument(string(output), map[string]any{"source": source, "command": l.Command})
	return []schema.Document{doc}, nil
}
