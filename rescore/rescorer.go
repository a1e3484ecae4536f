package rescore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/poiesic/tendermatch/storage"
)

const (
	defaultTopK    = 10
	defaultCeiling = 100.0
)

// Stats summarises a rescoring run.
type Stats struct {
	RunID               string
	Users               int
	UsersWithoutSaved   int
	UsersApplied        int
	UsersFailed         int
	SavedTendersSkipped int
	KNNFailures         int
	BoostsApplied       int
	Duration            time.Duration
}

// Rescorer applies similarity boosts for every user's saved tenders.
type Rescorer struct {
	profiles   storage.ProfileRepository
	embeddings storage.EmbeddingRepository
	neighbors  storage.NeighborSearcher
	scores     storage.ScoreStore

	topK    int
	ceiling float64
	metrics *metrics.Manager
	logger  *slog.Logger
}

// Option configures a Rescorer.
type Option func(*Rescorer) error

// WithTopK sets how many neighbours are fetched per saved tender.
// Default is 10.
func WithTopK(k int) Option {
	return func(r *Rescorer) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		r.topK = k
		return nil
	}
}

// WithCeiling sets the maximum score a boost can reach.
// Default is 100.
func WithCeiling(ceiling float64) Option {
	return func(r *Rescorer) error {
		if ceiling <= 0 {
			return ErrInvalidCeiling
		}
		r.ceiling = ceiling
		return nil
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(r *Rescorer) error {
		r.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rescorer) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRescorer creates a rescorer.
func NewRescorer(
	profiles storage.ProfileRepository,
	embeddings storage.EmbeddingRepository,
	neighbors storage.NeighborSearcher,
	scores storage.ScoreStore,
	opts ...Option,
) (*Rescorer, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if neighbors == nil {
		return nil, ErrNeighborSearcherRequired
	}
	if scores == nil {
		return nil, ErrScoreStoreRequired
	}

	r := &Rescorer{
		profiles:   profiles,
		embeddings: embeddings,
		neighbors:  neighbors,
		scores:     scores,
		topK:       defaultTopK,
		ceiling:    defaultCeiling,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run boosts scores for every profile with saved tenders.
//
// A missing pair index aborts the whole run with storage.ErrIndexMissing
// rather than failing each user in turn. Apart from that, only a failure to
// load profiles or a cancelled context stops the run. Everything else is
// logged and skipped at the smallest unit it affects.
func (r *Rescorer) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", stats.RunID)

	profiles, err := r.profiles.AllProfiles(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load profiles: %w", err)
	}
	stats.Users = len(profiles)
	logger.Info("rescoring profiles", "profiles", len(profiles), "top_k", r.topK)

	for i, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		userLog := logger.With("user_id", profile.UserID, "company", profile.CompanyName, "profile", i+1)

		if len(profile.SavedTenders) == 0 {
			userLog.Debug("no saved tenders, skipping")
			stats.UsersWithoutSaved++
			r.metrics.RecordRescoreUser("no_saved", 0)
			continue
		}

		boosts := r.userBoosts(ctx, userLog, profile, stats)
		if len(boosts) == 0 {
			userLog.Warn("no similarity scores to apply")
			r.metrics.RecordRescoreUser("empty", 0)
			continue
		}

		err := r.scores.ApplyBoosts(ctx, profile.UserID, boosts, r.ceiling)
		if errors.Is(err, storage.ErrIndexMissing) || errors.Is(err, context.Canceled) {
			return stats, fmt.Errorf("failed to apply boosts: %w", err)
		}
		if err != nil {
			userLog.Error("failed to apply boosts", "tenders", len(boosts), "err", err)
			stats.UsersFailed++
			r.metrics.RecordRescoreUser("failed", 0)
			continue
		}

		userLog.Info("applied similarity boosts", "tenders", len(boosts))
		stats.UsersApplied++
		stats.BoostsApplied += len(boosts)
		r.metrics.RecordRescoreUser("applied", len(boosts))
	}

	stats.Duration = time.Since(start)
	r.metrics.ObservePhase("rescore", stats.Duration)
	logger.Info("rescoring complete",
		"users_applied", stats.UsersApplied,
		"users_failed", stats.UsersFailed,
		"users_without_saved", stats.UsersWithoutSaved,
		"boosts_applied", stats.BoostsApplied,
		"saved_tenders_skipped", stats.SavedTendersSkipped,
		"duration", stats.Duration)
	return stats, nil
}

// userBoosts queries neighbours for each saved tender and merges the boosts.
func (r *Rescorer) userBoosts(ctx context.Context, logger *slog.Logger, profile *core.CompanyProfile, stats *Stats) map[string]float64 {
	boosts := make(map[string]float64)
	for _, savedID := range profile.SavedTenders {
		tenderLog := logger.With("saved_tender", savedID)

		vec, err := r.embeddings.GetEmbedding(ctx, savedID)
		if errors.Is(err, storage.ErrNotFound) {
			tenderLog.Warn("saved tender has no embedding, skipping")
			stats.SavedTendersSkipped++
			r.metrics.RecordMissingEmbedding()
			continue
		}
		if err != nil {
			tenderLog.Error("failed to read embedding, skipping", "err", err)
			stats.SavedTendersSkipped++
			continue
		}

		neighbors, err := r.neighbors.FindSimilar(ctx, vec, r.topK)
		if err != nil {
			tenderLog.Error("nearest-neighbour query failed, skipping", "err", err)
			stats.KNNFailures++
			stats.SavedTendersSkipped++
			r.metrics.RecordKNNFailure()
			continue
		}
		tenderLog.Debug("found similar tenders", "count", len(neighbors))
		collectBoosts(boosts, neighbors)
	}
	return boosts
}
