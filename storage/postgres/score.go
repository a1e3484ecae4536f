package postgres

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// DropScores drops the scores table, taking its indexes with it, and
// recreates it empty.
func (s *Store) DropScores(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, sqlDropScores); err != nil {
		return mapError(err)
	}
	_, err := s.pool.Exec(ctx, sqlCreateScores)
	return mapError(err)
}

// InsertScores bulk loads rows with COPY.
func (s *Store) InsertScores(ctx context.Context, scores []core.Score) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"scores"},
		[]string{"tender_id", "user_id", "score"},
		pgx.CopyFromSlice(len(scores), func(i int) ([]any, error) {
			return []any{scores[i].TenderID, scores[i].UserID, scores[i].Score}, nil
		}),
	)
	return mapError(err)
}

// CreateIndex builds a score index. Building PairIndex over duplicate pairs
// fails with storage.ErrDuplicateKey.
func (s *Store) CreateIndex(ctx context.Context, idx storage.Index) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	ddl, err := createIndexSQL(idx)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create index %s: %w", idx, mapError(err))
	}
	return nil
}

func (s *Store) hasIndex(ctx context.Context, idx storage.Index) (bool, error) {
	name, err := indexName(idx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, sqlIndexExists, name).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// ApplyBoosts upserts every boost for a user in one transaction. Rows are
// touched in tender ID order so concurrent runs lock in the same order.
func (s *Store) ApplyBoosts(ctx context.Context, userID string, boosts map[string]float64, ceiling float64) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	ok, err := s.hasIndex(ctx, storage.PairIndex)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, storage.PairIndex)
	}

	b := &pgx.Batch{}
	for _, tenderID := range slices.Sorted(maps.Keys(boosts)) {
		b.Queue(sqlBoostScore, tenderID, userID, boosts[tenderID], ceiling)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, b)
		for range b.Len() {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return mapError(err)
			}
		}
		return mapError(br.Close())
	})
}

// GetScore returns the score of one pair.
func (s *Store) GetScore(ctx context.Context, tenderID, userID string) (float64, error) {
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}
	var score float64
	if err := s.pool.QueryRow(ctx, sqlSelectScore, tenderID, userID).Scan(&score); err != nil {
		return 0, mapError(err)
	}
	return score, nil
}

// TopForUser returns a user's highest scores, ties ordered by tender ID.
func (s *Store) TopForUser(ctx context.Context, userID string, limit int) ([]core.Score, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	rows, err := s.pool.Query(ctx, sqlTopForUser, userID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	top, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Score])
	if err != nil {
		return nil, mapError(err)
	}
	return top, nil
}

// CountScores returns the number of score rows.
func (s *Store) CountScores(ctx context.Context) (int, error) {
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}
	var n int64
	if err := s.pool.QueryRow(ctx, sqlCountScores).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return int(n), nil
}
