package badger

import (
	"context"
	"testing"

	"github.com/poiesic/tendermatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPhrases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutTenders(ctx,
		&core.Tender{ID: "t1", WorkDescription: "Construction of a steel bridge over river"},
		&core.Tender{ID: "t2", Description: "Supply of bridge bearings", ProductCategory: "Steel"},
		&core.Tender{ID: "t3", Organization: "Public Works Department"},
		&core.Tender{ID: "t4", ProductSubCategory: "Road Marking (Thermoplastic)"},
	))

	tests := []struct {
		name    string
		phrases []string
		want    []string
	}{
		{"empty list", nil, nil},
		{"blank phrases", []string{"  ", "--"}, nil},
		{"single word in two tenders", []string{"bridge"}, []string{"t1", "t2"}},
		{"phrase must be contiguous", []string{"steel bridge"}, []string{"t1"}},
		{"phrase across fields does not match", []string{"bearings steel"}, nil},
		{"case insensitive organization", []string{"public works"}, []string{"t3"}},
		{"punctuation trimmed", []string{"road marking"}, []string{"t4"}},
		{"any phrase matches", []string{"thermoplastic", "river"}, []string{"t1", "t4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.MatchPhrases(ctx, tt.phrases)
			require.NoError(t, err)
			assert.Len(t, got, len(tt.want))
			for _, id := range tt.want {
				assert.Contains(t, got, id)
			}
		})
	}
}

func TestContainsPhrase(t *testing.T) {
	words := []string{"a", "b", "c"}
	assert.True(t, containsPhrase(words, []string{"b", "c"}))
	assert.False(t, containsPhrase(words, []string{"a", "c"}))
	assert.False(t, containsPhrase(words, []string{"a", "b", "c", "d"}))
	assert.False(t, containsPhrase(words, nil))
}
