package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
	"github.com/poiesic/tendermatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSignal(t *testing.T) {
	tests := []struct {
		name    string
		results []*core.ResultRecord
		want    Signal
	}{
		{
			name: "no results",
			want: Signal{},
		},
		{
			name: "organizations and websites counted separately",
			results: []*core.ResultRecord{
				{ID: "r1", Organization: "PWD", Website: "pwd.gov"},
				{ID: "r2", Organization: " PWD ", Website: "pwd.gov"},
				{ID: "r3", Organization: "NHAI"},
				{ID: "r4", Organization: "NHAI"},
			},
			want: Signal{
				"PWD":     2.0/4*10 + 5,
				"NHAI":    2.0/4*10 + 5,
				"pwd.gov": 2.0 / 4 * 5,
			},
		},
		{
			name: "websites without organizations use a total of one",
			results: []*core.ResultRecord{
				{ID: "r1", Website: "a.gov"},
				{ID: "r2", Website: "a.gov"},
			},
			want: Signal{"a.gov": 10},
		},
		{
			name: "organization overrides identical website",
			results: []*core.ResultRecord{
				{ID: "r1", Organization: "X", Website: "X"},
			},
			want: Signal{"X": 15},
		},
		{
			name: "blank strings ignored",
			results: []*core.ResultRecord{
				{ID: "r1", Organization: "   ", Website: ""},
				{ID: "r2", Organization: "PWD"},
			},
			want: Signal{"PWD": 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSignal(tt.results)
			require.Len(t, got, len(tt.want))
			for k, v := range tt.want {
				assert.InDelta(t, v, got[k], 1e-9, k)
			}
		})
	}
}

func TestSignal_Lookup(t *testing.T) {
	s := Signal{"PWD": 15, "pwd.gov": 2.5}
	org, web := s.Lookup(" PWD", "pwd.gov ")
	assert.Equal(t, 15.0, org)
	assert.Equal(t, 2.5, web)

	org, web = s.Lookup("", "unknown")
	assert.Zero(t, org)
	assert.Zero(t, web)
}

type failingParticipation struct {
	storage.ParticipationRepository
	err error
}

func (f failingParticipation) FindCompetitor(context.Context, string) (*core.ParticipationRecord, error) {
	return nil, f.err
}

func TestParticipationBuilder(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.PutCompetitors(ctx,
		&core.ParticipationRecord{Name: "Acme", ParticipatedTenders: []string{"r1", "r2", "missing"}},
		&core.ParticipationRecord{Name: "Idle"},
	))
	require.NoError(t, store.PutResults(ctx,
		&core.ResultRecord{ID: "r1", Organization: "PWD", Website: "pwd.gov"},
		&core.ResultRecord{ID: "r2", Organization: "PWD"},
	))

	builder, err := NewParticipationBuilder(store)
	require.NoError(t, err)

	t.Run("known company", func(t *testing.T) {
		signal, err := builder.Build(ctx, "Acme")
		require.NoError(t, err)
		assert.InDelta(t, 15.0, signal["PWD"], 1e-9)
		assert.InDelta(t, 2.5, signal["pwd.gov"], 1e-9)
	})

	t.Run("unknown company yields empty signal", func(t *testing.T) {
		signal, err := builder.Build(ctx, "Nobody")
		require.NoError(t, err)
		assert.Empty(t, signal)
	})

	t.Run("company with no history", func(t *testing.T) {
		signal, err := builder.Build(ctx, "Idle")
		require.NoError(t, err)
		assert.Empty(t, signal)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		boom := errors.New("connection reset")
		b, err := NewParticipationBuilder(failingParticipation{err: boom})
		require.NoError(t, err)
		_, err = b.Build(ctx, "Acme")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewParticipationBuilder(nil)
		assert.ErrorIs(t, err, ErrParticipationRepositoryRequired)
	})
}
