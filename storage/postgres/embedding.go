package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// PutEmbeddings upserts vectors keyed by tender ID.
func (s *Store) PutEmbeddings(ctx context.Context, vectors map[string][]float32) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	b := &pgx.Batch{}
	for id, vec := range vectors {
		if len(vec) != s.dimensions {
			return fmt.Errorf("%w: tender %s embedding has %d dimensions, want %d",
				storage.ErrInvalidQuery, id, len(vec), s.dimensions)
		}
		b.Queue(sqlUpsertEmbedding, id, pgvector.NewVector(vec))
	}
	return s.sendBatch(ctx, b)
}

// GetEmbedding retrieves the vector for a tender.
func (s *Store) GetEmbedding(ctx context.Context, tenderID string) ([]float32, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var vec pgvector.Vector
	if err := s.pool.QueryRow(ctx, sqlSelectEmbedding, tenderID).Scan(&vec); err != nil {
		return nil, mapError(err)
	}
	return vec.Slice(), nil
}

// MissingEmbeddings returns tenders without a vector, in ID order.
func (s *Store) MissingEmbeddings(ctx context.Context, limit int) ([]*core.Tender, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, missingEmbeddingsSQL(limit))
	if err != nil {
		return nil, mapError(err)
	}
	return collectDocs[core.Tender](rows)
}

// FindSimilar queries the HNSW index for the k nearest vectors.
func (s *Store) FindSimilar(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}

	rows, err := s.pool.Query(ctx, sqlNearestNeighbors, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, mapError(err)
	}
	neighbors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Neighbor, error) {
		var (
			id       string
			distance float64
		)
		err := row.Scan(&id, &distance)
		return core.Neighbor{TenderID: id, Similarity: similarityFromDistance(distance)}, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return neighbors, nil
}

// similarityFromDistance maps cosine distance in [0,2] to similarity in
// [0,1]. Zero vectors yield NaN distance and count as orthogonal.
func similarityFromDistance(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0.5
	}
	return min(max(1-distance/2, 0), 1)
}
