package badger

import (
	"context"
	"testing"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Embeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutTenders(ctx, &core.Tender{ID: "a"}, &core.Tender{ID: "b"}, &core.Tender{ID: "c"}))
	require.NoError(t, store.PutEmbeddings(ctx, map[string][]float32{"b": {1, 0}}))

	vec, err := store.GetEmbedding(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	_, err = store.GetEmbedding(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	missing, err := store.MissingEmbeddings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, "a", missing[0].ID)
	assert.Equal(t, "c", missing[1].ID)

	limited, err := store.MissingEmbeddings(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFindSimilar_NoRecords(t *testing.T) {
	store := newTestStore(t)

	results, err := store.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_RankingAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutEmbeddings(ctx, map[string][]float32{
		"same":     {1, 0, 0},
		"close":    {0.9, 0.1, 0},
		"orthog":   {0, 0, 1},
		"opposite": {-1, 0, 0},
		"twin":     {2, 0, 0},
	}))

	results, err := store.FindSimilar(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 5)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.TenderID
	}
	assert.Equal(t, []string{"same", "twin", "close", "orthog", "opposite"}, ids)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.InDelta(t, 0.5, results[3].Similarity, 1e-9)
	assert.InDelta(t, 0.0, results[4].Similarity, 1e-9)

	top2, err := store.FindSimilar(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, top2, 2)
}

func TestFindSimilar_InvalidK(t *testing.T) {
	store := newTestStore(t)
	_, err := store.FindSimilar(context.Background(), []float32{1}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{3, 4}, []float32{6, 8}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
