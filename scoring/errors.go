package scoring

import "errors"

var (
	// ErrTenderRepositoryRequired is returned when the tender repository is nil.
	ErrTenderRepositoryRequired = errors.New("tender repository is required")

	// ErrProfileRepositoryRequired is returned when the profile repository is nil.
	ErrProfileRepositoryRequired = errors.New("profile repository is required")

	// ErrParticipationRepositoryRequired is returned when the participation repository is nil.
	ErrParticipationRepositoryRequired = errors.New("participation repository is required")

	// ErrKeywordSearcherRequired is returned when the keyword searcher is nil.
	ErrKeywordSearcherRequired = errors.New("keyword searcher is required")

	// ErrScoreStoreRequired is returned when the score store is nil.
	ErrScoreStoreRequired = errors.New("score store is required")

	// ErrInvalidBatchSize is returned when the batch size is < 1.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrInvalidMidpoint is returned when the default midpoint is <= 0.
	ErrInvalidMidpoint = errors.New("default midpoint must be greater than 0")

	// ErrUnknownKeywordPolicy is returned for an unrecognised policy name.
	ErrUnknownKeywordPolicy = errors.New("unknown keyword policy")
)
