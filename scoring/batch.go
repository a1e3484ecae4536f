package scoring

import (
	"context"
	"time"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/poiesic/tendermatch/storage"
)

// batchWriter buffers score rows and bulk-inserts them size at a time.
type batchWriter struct {
	store   storage.ScoreStore
	size    int
	metrics *metrics.Manager
	pending []core.Score
	written int
}

func newBatchWriter(store storage.ScoreStore, size int, m *metrics.Manager) *batchWriter {
	return &batchWriter{
		store:   store,
		size:    size,
		metrics: m,
		pending: make([]core.Score, 0, size),
	}
}

// Add buffers a row, flushing when the buffer is full.
func (w *batchWriter) Add(ctx context.Context, score core.Score) error {
	w.pending = append(w.pending, score)
	if len(w.pending) >= w.size {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered rows. On failure the buffer is discarded.
func (w *batchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	start := time.Now()
	err := w.store.InsertScores(ctx, w.pending)
	w.metrics.ObserveBatchFlush(time.Since(start))
	if err == nil {
		w.written += len(w.pending)
	}
	w.pending = w.pending[:0]
	return err
}

// Written returns the number of rows successfully inserted.
func (w *batchWriter) Written() int {
	return w.written
}
