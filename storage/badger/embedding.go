package badger

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// PutEmbeddings stores vectors keyed by tender ID.
func (s *Store) PutEmbeddings(ctx context.Context, vectors map[string][]float32) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	wb := s.backend.NewWriteBatch()
	defer wb.Cancel()
	for id, vec := range vectors {
		data, err := storage.MarshalVector(vec)
		if err != nil {
			return err
		}
		if err := wb.Set(makeEmbeddingKey(id), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// GetEmbedding retrieves the vector for a tender.
func (s *Store) GetEmbedding(ctx context.Context, tenderID string) ([]float32, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var vec []float32
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(tenderID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec, err = storage.UnmarshalVector(val)
			return err
		})
	}, false)
	return vec, err
}

// MissingEmbeddings returns tenders with no stored vector, in ID order.
func (s *Store) MissingEmbeddings(ctx context.Context, limit int) ([]*core.Tender, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var missing []*core.Tender
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tenderPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(missing) >= limit {
				return nil
			}
			var tender *core.Tender
			err := iter.Item().Value(func(val []byte) error {
				var err error
				tender, err = storage.Unmarshal[core.Tender](val)
				return err
			})
			if err != nil {
				return err
			}
			_, err = tx.Get(makeEmbeddingKey(tender.ID))
			if err == badger.ErrKeyNotFound {
				missing = append(missing, tender)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return missing, err
}

// FindSimilar scans every stored embedding and returns the k nearest by
// cosine similarity, mapped from [-1,1] to [0,1]. Ties are broken by tender ID.
func (s *Store) FindSimilar(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}

	var results []core.Neighbor
	err := s.backend.scanPrefix([]byte(embeddingPrefix), false, func(key, val []byte) error {
		vec, err := storage.UnmarshalVector(val)
		if err != nil {
			return err
		}
		if len(vec) == 0 {
			return nil
		}
		results = append(results, core.Neighbor{
			TenderID:   tenderIDFromEmbeddingKey(key),
			Similarity: (1 + cosineSimilarity(vector, vec)) / 2,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b core.Neighbor) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.TenderID, b.TenderID)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosineSimilarity compares two vectors over their common length.
// Zero vectors have similarity 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
