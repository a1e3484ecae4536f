package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tendermatch/ai"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// batchProcessor embeds and stores one batch of tenders.
type batchProcessor struct {
	repo       storage.EmbeddingRepository
	embedder   ai.Embedder
	policy     RetryPolicy
	dimensions int
	logger     *slog.Logger
}

// process embeds tenders and upserts their normalized vectors. The batch is
// stored all together or not at all.
func (bp *batchProcessor) process(ctx context.Context, tenders []*core.Tender) error {
	if len(tenders) == 0 {
		return nil
	}

	texts := make([]string, len(tenders))
	for i, t := range tenders {
		texts[i] = t.EmbeddingText()
	}

	var vectors [][]float32
	err := Retry(ctx, bp.policy, bp.logger, func(ctx context.Context) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, len(texts), len(vectors))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to embed batch after %d attempts: %w", bp.policy.MaxAttempts, err)
	}

	out := make(map[string][]float32, len(tenders))
	for i, t := range tenders {
		if bp.dimensions > 0 && len(vectors[i]) != bp.dimensions {
			return fmt.Errorf("%w: tender %s has %d, want %d", ErrDimensionMismatch, t.ID, len(vectors[i]), bp.dimensions)
		}
		out[t.ID] = Normalize(vectors[i])
	}

	if err := bp.repo.PutEmbeddings(ctx, out); err != nil {
		return fmt.Errorf("failed to store embeddings: %w", err)
	}
	return nil
}
