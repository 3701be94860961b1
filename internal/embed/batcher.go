package embed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"scholaria/backend/internal/text"
)

// Embedder is the provider capability the batcher drives. Implementations
// may return ErrRateLimited (or wrap it) on transient conditions.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

var ErrRateLimited = errors.New("embedding provider rate limited")

// Embedding pairs a chunk ref with its vector. At most one per chunk;
// absence of a ref in a Result means that chunk failed.
type Embedding struct {
	Ref    text.ChunkRef
	Vector []float32
}

// Result reports both sides of a batched run. The invariant
// len(Embeddings)+len(Failed) == len(input chunks) always holds.
type Result struct {
	Embeddings []Embedding
	Failed     []text.ChunkRef
}

type Batcher struct {
	embedder    Embedder
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	batchDelay  time.Duration
}

type Options struct {
	BatchSize   int           // default 10
	MaxAttempts int           // per-batch attempts, default 3
	RetryDelay  time.Duration // base backoff, doubled per attempt, default 500ms
	BatchDelay  time.Duration // pause between batches, default 200ms, negative disables
}

func NewBatcher(e Embedder, opts Options) *Batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	} else if opts.BatchDelay == 0 {
		opts.BatchDelay = 200 * time.Millisecond
	}
	return &Batcher{
		embedder:    e,
		batchSize:   opts.BatchSize,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		batchDelay:  opts.BatchDelay,
	}
}

// Embed converts chunks to vectors in contiguous batches. A batch that still
// fails after retries marks all of its chunks as failed and the run moves on
// to the next batch; one bad batch never aborts the document. Output order
// follows input order, correlated by ref rather than position.
func (b *Batcher) Embed(ctx context.Context, chunks []text.Chunk) (*Result, error) {
	res := &Result{}
	for start := 0; start < len(chunks); start += b.batchSize {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if start > 0 {
			select {
			case <-ctx.Done():
				return b.failRemaining(res, chunks[start:]), ctx.Err()
			case <-time.After(b.batchDelay):
			}
		}

		vectors, err := b.embedWithRetry(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return b.failRemaining(res, chunks[start:]), ctx.Err()
			}
			slog.ErrorContext(ctx, "batch failed after retries",
				"error", err, "batch_start", start, "batch_size", len(batch))
			for _, c := range batch {
				res.Failed = append(res.Failed, c.Ref())
			}
			continue
		}

		for i, c := range batch {
			res.Embeddings = append(res.Embeddings, Embedding{Ref: c.Ref(), Vector: vectors[i]})
		}
	}
	return res, nil
}

// EmbedQuery is the single-item path used at query time.
func (b *Batcher) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := b.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errors.New("provider returned unexpected vector count")
	}
	return vectors[0], nil
}

func (b *Batcher) embedWithRetry(ctx context.Context, batch []text.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var lastErr error
	delay := b.retryDelay
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, errors.New("provider returned mismatched vector count")
			}
			return vectors, nil
		}
		lastErr = err
		if attempt == b.maxAttempts {
			break
		}
		slog.WarnContext(ctx, "embedding batch failed, retrying",
			"error", err, "attempt", attempt, "max_attempts", b.maxAttempts)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (b *Batcher) failRemaining(res *Result, remaining []text.Chunk) *Result {
	for _, c := range remaining {
		res.Failed = append(res.Failed, c.Ref())
	}
	return res
}
