// Package indexer chunks batches of documents concurrently.
//
// A Pipeline feeds documents to a Chunker through an ants worker pool,
// enforces a per-file timeout from outside the chunker, and returns one
// Result per document sorted by source path. A file that fails or times out
// is recorded in its Result and never stops the batch.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sevigo/semchunk/schema"
)

var (
	ErrFileTimeout    = errors.New("file chunking timed out")
	ErrPipelineClosed = errors.New("pipeline is closed")
	ErrNilChunker     = errors.New("chunker is required")
)

// Chunker turns one file into semantic chunks.
// textsplitter.CodeAwareTextSplitter implements it.
type Chunker interface {
	ChunkFile(ctx context.Context, content, path string) ([]schema.SemanticChunk, error)
}

// MetadataSource is implemented by chunkers that can also describe a whole
// file, such as textsplitter.CodeAwareTextSplitter.
type MetadataSource interface {
	FileMetadata(ctx context.Context, content, path string) (schema.FileMetadata, error)
}

// ProgressFunc is called once per finished file, in completion order.
type ProgressFunc func(processed, total int, source string)

// Result is the outcome of chunking one document.
type Result struct {
	Source   string
	Metadata map[string]any
	Chunks   []schema.SemanticChunk
	// File is set when WithFileMetadata is on and the chunker could
	// describe the file.
	File     *schema.FileMetadata
	Duration time.Duration
	Err      error
}

// Pipeline runs a Chunker over many documents with bounded concurrency.
type Pipeline struct {
	chunker     Chunker
	pool        *ants.Pool
	workers     int
	fileTimeout time.Duration
	progress    ProgressFunc
	metadata    bool
	logger      *slog.Logger
	closed      atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the worker pool size. Zero or less means one per CPU.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		p.workers = n
		return nil
	}
}

// WithFileTimeout bounds the time spent on a single file. Zero disables it.
func WithFileTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			return fmt.Errorf("file timeout must not be negative: %s", d)
		}
		p.fileTimeout = d
		return nil
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) error {
		p.progress = fn
		return nil
	}
}

// WithFileMetadata asks the chunker for file-level metadata as well. It has no
// effect unless the chunker implements MetadataSource.
func WithFileMetadata(enabled bool) Option {
	return func(p *Pipeline) error {
		p.metadata = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline around chunker. Call Release when done.
func NewPipeline(chunker Chunker, opts ...Option) (*Pipeline, error) {
	if chunker == nil {
		return nil, ErrNilChunker
	}

	p := &Pipeline{
		chunker: chunker,
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "indexer")

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Run chunks every document and returns the results sorted by source path.
// Per-file failures live in Result.Err. Run itself fails only when ctx is
// done or the pipeline has been released.
func (p *Pipeline) Run(ctx context.Context, docs []schema.Document) ([]Result, error) {
	if p.closed.Load() {
		return nil, ErrPipelineClosed
	}

	start := time.Now()
	results := make([]Result, len(docs))
	done := make(chan int, len(docs))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(done)
		}()

		for i := range docs {
			if err := gctx.Err(); err != nil {
				return err
			}
			wg.Add(1)
			err := p.pool.Submit(func() {
				defer wg.Done()
				results[i] = p.process(gctx, docs[i])
				done <- i
			})
			if err != nil {
				wg.Done()
				if errors.Is(err, ants.ErrPoolClosed) {
					return ErrPipelineClosed
				}
				return fmt.Errorf("failed to submit %s: %w", docs[i].Source(), err)
			}
		}
		return nil
	})

	g.Go(func() error {
		processed := 0
		for i := range done {
			processed++
			if p.progress != nil {
				p.progress(processed, len(docs), results[i].Source)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return strings.Compare(a.Source, b.Source)
	})

	p.logger.InfoContext(ctx, "Indexing batch completed",
		"files", len(docs),
		"duration", time.Since(start),
	)
	return results, nil
}

type outcome struct {
	chunks []schema.SemanticChunk
	err    error
}

// process chunks one document. The chunker runs in its own goroutine so a
// file that overruns its deadline releases the worker; the goroutine is
// abandoned and its outcome discarded.
func (p *Pipeline) process(ctx context.Context, doc schema.Document) (res Result) {
	res = Result{Source: doc.Source(), Metadata: doc.Metadata}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	fileCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.fileTimeout > 0 {
		fileCtx, cancel = context.WithTimeout(ctx, p.fileTimeout)
	}
	defer cancel()

	ch := make(chan outcome, 1)
	source := res.Source
	go func() {
		chunks, err := p.chunker.ChunkFile(fileCtx, doc.PageContent, source)
		ch <- outcome{chunks: chunks, err: err}
	}()

	select {
	case out := <-ch:
		res.Chunks, res.Err = out.chunks, out.err
	case <-fileCtx.Done():
		res.Err = fileCtx.Err()
	}

	if errors.Is(res.Err, context.DeadlineExceeded) && ctx.Err() == nil {
		p.logger.Warn("File chunking timed out", "source", res.Source, "timeout", p.fileTimeout)
		res.Chunks = nil
		res.Err = fmt.Errorf("%s: %w", res.Source, ErrFileTimeout)
		return res
	}
	if res.Err != nil {
		p.logger.Warn("File chunking failed", "source", res.Source, "error", res.Err)
		return res
	}

	res.File = p.fileMetadata(fileCtx, doc)
	p.logger.Debug("File chunked", "source", res.Source, "chunks", len(res.Chunks))
	return res
}

// fileMetadata never fails the file: extraction errors are logged and the
// result carries chunks only.
func (p *Pipeline) fileMetadata(ctx context.Context, doc schema.Document) *schema.FileMetadata {
	source, ok := p.chunker.(MetadataSource)
	if !p.metadata || !ok {
		return nil
	}
	metadata, err := source.FileMetadata(ctx, doc.PageContent, doc.Source())
	if err != nil {
		p.logger.Debug("No file metadata", "source", doc.Source(), "error", err)
		return nil
	}
	return &metadata
}

// Release stops the worker pool. Run returns ErrPipelineClosed afterwards.
func (p *Pipeline) Release() {
	if p.closed.CompareAndSwap(false, true) {
		p.pool.Release()
	}
}
