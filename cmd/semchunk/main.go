// Command semchunk splits source code into semantic chunks.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sevigo/semchunk/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli.Execute(ctx)
}
