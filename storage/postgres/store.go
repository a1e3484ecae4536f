package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/tendermatch/storage"
)

const defaultDimensions = 1536

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool       *pgxpool.Pool
	dimensions int
	logger     *slog.Logger
	closed     atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithDimensions sets the embedding column width. Default is 1536.
func WithDimensions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.dimensions = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to databaseURL, verifies the connection and creates any
// missing tables.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool, dimensions: defaultDimensions, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaSQL(s.dimensions) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	s.logger.Debug("postgres schema ready", "dimensions", s.dimensions)
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return storage.ErrStorageClosed
	}
	s.pool.Close()
	return nil
}

func (s *Store) checkOpen(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

// sendBatch runs every queued statement and returns the first failure.
func (s *Store) sendBatch(ctx context.Context, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	br := s.pool.SendBatch(ctx, b)
	for range b.Len() {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return mapError(err)
		}
	}
	return mapError(br.Close())
}

// collectDocs scans single-column JSONB rows into values of T.
func collectDocs[T any](rows pgx.Rows) ([]*T, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*T, error) {
		var v T
		err := row.Scan(&v)
		return &v, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
