package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tendermatch/ai"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/poiesic/tendermatch/storage"
)

const (
	defaultBatchSize = 100
	defaultWorkers   = 4
)

// Stats summarises a backfill run.
type Stats struct {
	RunID         string
	Missing       int
	WithoutText   int
	Batches       int
	Embedded      int
	FailedBatches int
	Duration      time.Duration
}

// Backfiller embeds every tender that has no stored vector.
type Backfiller struct {
	repo        storage.EmbeddingRepository
	embedder    ai.Embedder
	batchSize   int
	workers     int
	dimensions  int
	policy      RetryPolicy
	progress    io.Writer
	reportEvery int
	metrics     *metrics.Manager
	logger      *slog.Logger
}

// Option configures a Backfiller.
type Option func(*Backfiller) error

// WithBatchSize sets how many tenders go into one embedding request.
// Default is 100.
func WithBatchSize(n int) Option {
	return func(b *Backfiller) error {
		if n < 1 {
			return ErrInvalidBatchSize
		}
		b.batchSize = n
		return nil
	}
}

// WithWorkers sets the worker pool size.
// Default is 4, capped at runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(b *Backfiller) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		b.workers = n
		return nil
	}
}

// WithDimensions rejects vectors whose length differs from n. Zero disables
// the check.
func WithDimensions(n int) Option {
	return func(b *Backfiller) error {
		b.dimensions = n
		return nil
	}
}

// WithRetryPolicy sets the per-batch retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(b *Backfiller) error {
		if p.MaxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		b.policy = p
		return nil
	}
}

// WithProgress writes a progress line to w as batches complete.
func WithProgress(w io.Writer) Option {
	return func(b *Backfiller) error {
		b.progress = w
		return nil
	}
}

// WithReportInterval prints progress every n tenders instead of once per batch.
func WithReportInterval(n int) Option {
	return func(b *Backfiller) error {
		if n < 1 {
			return fmt.Errorf("report interval must be positive, got %d", n)
		}
		b.reportEvery = n
		return nil
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(b *Backfiller) error {
		b.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backfiller) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBackfiller creates a backfiller.
func NewBackfiller(repo storage.EmbeddingRepository, embedder ai.Embedder, opts ...Option) (*Backfiller, error) {
	if repo == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	b := &Backfiller{
		repo:      repo,
		embedder:  embedder,
		batchSize: defaultBatchSize,
		workers:   min(defaultWorkers, runtime.NumCPU()),
		policy:    DefaultRetryPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Run embeds all tenders missing a vector. A batch that still fails after
// its retries is skipped; only a failure to list the missing tenders or a
// cancelled context is returned.
func (b *Backfiller) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{RunID: uuid.NewString()}
	logger := b.logger.With("run_id", stats.RunID)

	missing, err := b.repo.MissingEmbeddings(ctx, 0)
	if err != nil {
		return stats, fmt.Errorf("failed to list tenders without embeddings: %w", err)
	}
	stats.Missing = len(missing)

	todo := make([]*core.Tender, 0, len(missing))
	for _, t := range missing {
		if t.EmbeddingText() == "" {
			logger.Debug("tender has no text to embed, skipping", "tender_id", t.ID)
			stats.WithoutText++
			continue
		}
		todo = append(todo, t)
	}
	if len(todo) == 0 {
		logger.Info("no tenders need embeddings", "missing", stats.Missing, "without_text", stats.WithoutText)
		stats.Duration = time.Since(start)
		return stats, nil
	}

	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return stats, err
	}
	defer pool.Release()

	proc := &batchProcessor{
		repo:       b.repo,
		embedder:   b.embedder,
		policy:     b.policy,
		dimensions: b.dimensions,
		logger:     logger,
	}
	every := b.reportEvery
	if every == 0 {
		every = b.batchSize
	}
	progress := NewProgress(b.progress, len(todo), every)

	logger.Info("backfilling embeddings", "tenders", len(todo), "batch_size", b.batchSize, "workers", b.workers)

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
	)
	for lo := 0; lo < len(todo); lo += b.batchSize {
		if ctx.Err() != nil {
			break
		}
		batch := todo[lo:min(lo+b.batchSize, len(todo))]
		stats.Batches++

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer progress.Add(len(batch))

			if err := proc.process(ctx, batch); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("skipping embedding batch", "first_tender", batch[0].ID, "size", len(batch), "err", err)
				}
				failed.Add(1)
				return
			}
			embedded.Add(int64(len(batch)))
		})
		if submitErr != nil {
			wg.Done()
			return stats, fmt.Errorf("failed to submit embedding batch: %w", submitErr)
		}
	}
	wg.Wait()

	stats.Embedded = int(embedded.Load())
	stats.FailedBatches = int(failed.Load())
	stats.Duration = time.Since(start)
	if b.progress != nil {
		progress.Finish()
	}
	b.metrics.RecordEmbeddings(stats.Embedded, stats.FailedBatches)
	b.metrics.ObservePhase("embed", stats.Duration)

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	logger.Info("embedding backfill complete",
		"embedded", stats.Embedded,
		"failed_batches", stats.FailedBatches,
		"without_text", stats.WithoutText,
		"duration", stats.Duration)
	return stats, nil
}
