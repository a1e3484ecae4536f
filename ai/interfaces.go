package ai

import "context"

// Embedder turns tender text into vectors for nearest-neighbour search.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vectors for a batch of texts. The result is in
	// input order and has one entry per text.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
