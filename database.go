// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tendermatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tendermatch/ai"
	"github.com/poiesic/tendermatch/ai/openai"
	"github.com/poiesic/tendermatch/config"
	"github.com/poiesic/tendermatch/embedding"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/poiesic/tendermatch/rescore"
	"github.com/poiesic/tendermatch/scoring"
	"github.com/poiesic/tendermatch/storage"
	"github.com/poiesic/tendermatch/storage/badger"
	"github.com/poiesic/tendermatch/storage/postgres"
)

// Database wires a storage backend to the scoring, rescoring and embedding
// components using one configuration.
type Database struct {
	store   storage.Store
	cfg     *config.Config
	metrics *metrics.Manager
	logger  *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	store   storage.Store
	metrics *metrics.Manager
	logger  *slog.Logger
}

// WithStore uses an already opened store instead of the configured backend.
// The Database takes ownership and closes it.
func WithStore(store storage.Store) DatabaseOption {
	return func(o *databaseOptions) {
		o.store = store
	}
}

// WithMetrics records component metrics on m.
func WithMetrics(m *metrics.Manager) DatabaseOption {
	return func(o *databaseOptions) {
		o.metrics = m
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// OpenDatabase opens the backend named by cfg.Backend. A nil cfg uses
// config.New().
func OpenDatabase(ctx context.Context, cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.New()
	}
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	store := options.store
	if store == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		var err error
		store, err = openStore(ctx, cfg, options.logger)
		if err != nil {
			return nil, err
		}
	}

	return &Database{
		store:   store,
		cfg:     cfg,
		metrics: options.metrics,
		logger:  options.logger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return badger.NewStore(cfg.DBPath, logger)
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL,
			postgres.WithDimensions(cfg.EmbeddingDimensions),
			postgres.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// Close closes the underlying store.
func (db *Database) Close() error {
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Store returns the underlying store.
func (db *Database) Store() storage.Store {
	return db.store
}

// NewEngine creates a full scoring engine from the configuration. Extra
// options are applied last.
func (db *Database) NewEngine(opts ...scoring.Option) (*scoring.Engine, error) {
	policy, err := scoring.ParseKeywordPolicy(db.cfg.KeywordPolicy)
	if err != nil {
		return nil, err
	}
	base := []scoring.Option{
		scoring.WithBatchSize(db.cfg.BatchSize),
		scoring.WithDefaultMidpoint(db.cfg.DefaultMidpoint),
		scoring.WithKeywordPolicy(policy),
		scoring.WithMetrics(db.metrics),
		scoring.WithLogger(db.logger),
	}
	return scoring.NewEngine(db.store, db.store, db.store, db.store, db.store, append(base, opts...)...)
}

// NewRescorer creates a similarity rescorer from the configuration.
func (db *Database) NewRescorer(opts ...rescore.Option) (*rescore.Rescorer, error) {
	base := []rescore.Option{
		rescore.WithTopK(db.cfg.TopK),
		rescore.WithCeiling(db.cfg.ScoreCap),
		rescore.WithMetrics(db.metrics),
		rescore.WithLogger(db.logger),
	}
	return rescore.NewRescorer(db.store, db.store, db.store, db.store, append(base, opts...)...)
}

// NewBackfiller creates an embedding backfiller. A nil embedder is built
// from the configured embedding service.
func (db *Database) NewBackfiller(embedder ai.Embedder, opts ...embedding.Option) (*embedding.Backfiller, error) {
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(db.cfg.AI())
		if err != nil {
			return nil, err
		}
	}
	e := db.cfg.Embedding
	base := []embedding.Option{
		embedding.WithBatchSize(e.BatchSize),
		embedding.WithWorkers(e.Workers),
		embedding.WithDimensions(db.cfg.EmbeddingDimensions),
		embedding.WithRetryPolicy(embedding.RetryPolicy{MaxAttempts: e.MaxRetries, BaseDelay: e.RetryDelay}),
		embedding.WithMetrics(db.metrics),
		embedding.WithLogger(db.logger),
	}
	return embedding.NewBackfiller(db.store, embedder, append(base, opts...)...)
}

// RunReport holds the statistics of a full pipeline run.
type RunReport struct {
	Scoring   *scoring.RunStats
	Rescoring *rescore.Stats
}

// Run performs full scoring and then similarity rescoring. Rescoring only
// starts once scoring has finished and its indexes exist.
func (db *Database) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}

	engine, err := db.NewEngine()
	if err != nil {
		return report, err
	}
	report.Scoring, err = engine.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("scoring failed: %w", err)
	}

	rescorer, err := db.NewRescorer()
	if err != nil {
		return report, err
	}
	report.Rescoring, err = rescorer.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("rescoring failed: %w", err)
	}
	return report, nil
}
