package storage

import (
	"context"

	"github.com/poiesic/tendermatch/core"
)

// TenderRepository stores tenders. Tenders are read-only to the scoring engine;
// writes come from import tooling and tests.
type TenderRepository interface {
	// PutTenders inserts or replaces tenders keyed by ID.
	PutTenders(ctx context.Context, tenders ...*core.Tender) error

	// GetTender retrieves a single tender.
	// Returns ErrNotFound if the tender doesn't exist.
	GetTender(ctx context.Context, id string) (*core.Tender, error)

	// AllTenders returns every stored tender ordered by ID.
	AllTenders(ctx context.Context) ([]*core.Tender, error)
}

// KeywordSearcher is the full-text capability used for keyword boosts.
type KeywordSearcher interface {
	// MatchPhrases returns the IDs of tenders where at least one phrase
	// occurs in the work description, description, organization, product
	// category or product sub-category. An empty phrase list matches nothing.
	MatchPhrases(ctx context.Context, phrases []string) (map[string]struct{}, error)
}

// ProfileRepository stores company profiles.
type ProfileRepository interface {
	// PutProfiles inserts or replaces profiles keyed by user ID.
	PutProfiles(ctx context.Context, profiles ...*core.CompanyProfile) error

	// AllProfiles returns every profile ordered by user ID.
	AllProfiles(ctx context.Context) ([]*core.CompanyProfile, error)
}

// ParticipationRepository stores historical competitor and result records.
type ParticipationRepository interface {
	PutCompetitors(ctx context.Context, records ...*core.ParticipationRecord) error
	PutResults(ctx context.Context, records ...*core.ResultRecord) error

	// FindCompetitor looks up a participation record by company name.
	// Returns ErrNotFound if no record exists.
	FindCompetitor(ctx context.Context, name string) (*core.ParticipationRecord, error)

	// GetResults retrieves result records by ID.
	// Returns only the records that exist (no error for missing records).
	GetResults(ctx context.Context, ids ...string) ([]*core.ResultRecord, error)
}

// EmbeddingRepository stores tender embedding vectors keyed by tender ID.
type EmbeddingRepository interface {
	PutEmbeddings(ctx context.Context, vectors map[string][]float32) error

	// GetEmbedding retrieves the vector for a tender.
	// Returns ErrNotFound if the tender has no embedding.
	GetEmbedding(ctx context.Context, tenderID string) ([]float32, error)

	// MissingEmbeddings returns up to limit tenders that have no embedding.
	// A limit <= 0 returns all of them.
	MissingEmbeddings(ctx context.Context, limit int) ([]*core.Tender, error)
}

// NeighborSearcher is the k-nearest-neighbour capability over embeddings.
type NeighborSearcher interface {
	// FindSimilar returns up to k tenders ordered by descending similarity.
	// Similarity is normalized to [0,1].
	FindSimilar(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error)
}

// Index names a secondary structure on the score store.
type Index int

const (
	// UserScoreIndex orders each user's scores descending.
	UserScoreIndex Index = iota
	// PairIndex enforces one score per (tender, user) pair.
	PairIndex
)

func (i Index) String() string {
	switch i {
	case UserScoreIndex:
		return "user_score"
	case PairIndex:
		return "tender_user_unique"
	default:
		return "unknown"
	}
}

// ScoreStore is the durable (tender, user) -> score mapping.
type ScoreStore interface {
	// DropScores removes every score and every score index.
	DropScores(ctx context.Context) error

	// InsertScores appends score rows. Uniqueness is not checked.
	InsertScores(ctx context.Context, scores []core.Score) error

	// CreateIndex builds idx over the existing rows. Creating PairIndex over
	// duplicate pairs fails with ErrDuplicateKey.
	CreateIndex(ctx context.Context, idx Index) error

	// ApplyBoosts adds each boost to the user's score for that tender, capped
	// at ceiling and rounded to 2 decimals. Missing pairs are created with the
	// boost as their score. A score is never lowered. Each pair is updated
	// atomically. Requires PairIndex; returns ErrIndexMissing otherwise.
	ApplyBoosts(ctx context.Context, userID string, boosts map[string]float64, ceiling float64) error

	// GetScore returns the score of one pair.
	// Returns ErrNotFound if the pair doesn't exist.
	GetScore(ctx context.Context, tenderID, userID string) (float64, error)

	// TopForUser returns up to limit scores for a user, highest first.
	TopForUser(ctx context.Context, userID string, limit int) ([]core.Score, error)

	// CountScores returns the number of score rows.
	CountScores(ctx context.Context) (int, error)
}

// Store combines every repository a backend provides.
// Implementations must be thread-safe.
type Store interface {
	TenderRepository
	KeywordSearcher
	ProfileRepository
	ParticipationRepository
	EmbeddingRepository
	NeighborSearcher
	ScoreStore

	// Close closes the storage backend and releases resources.
	Close() error
}
