package embedding

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	ErrEmbeddingRepositoryRequired = errors.New("embedding repository is required")
	ErrEmbedderRequired            = errors.New("embedder is required")
	ErrInvalidBatchSize            = errors.New("batch size must be positive")
	ErrInvalidWorkers              = errors.New("worker count must be positive")

	// ErrCountMismatch is returned when an embedder answers a batch with the
	// wrong number of vectors.
	ErrCountMismatch = errors.New("embedding count mismatch")

	// ErrDimensionMismatch is returned when a vector does not have the
	// configured number of dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
