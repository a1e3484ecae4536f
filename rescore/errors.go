package rescore

import "errors"

var (
	// ErrProfileRepositoryRequired is returned when the profile repository is nil.
	ErrProfileRepositoryRequired = errors.New("profile repository is required")

	// ErrEmbeddingRepositoryRequired is returned when the embedding repository is nil.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository is required")

	// ErrNeighborSearcherRequired is returned when the neighbour searcher is nil.
	ErrNeighborSearcherRequired = errors.New("neighbor searcher is required")

	// ErrScoreStoreRequired is returned when the score store is nil.
	ErrScoreStoreRequired = errors.New("score store is required")

	// ErrInvalidTopK is returned when K is < 1.
	ErrInvalidTopK = errors.New("top k must be greater than 0")

	// ErrInvalidCeiling is returned when the score ceiling is <= 0.
	ErrInvalidCeiling = errors.New("score ceiling must be greater than 0")
)
