package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/poiesic/tendermatch/storage"
	"github.com/poiesic/tendermatch/storage/badger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

// seedStore loads a small world: one company with an HQ at the origin and
// three tenders covering the large, small and missing-value paths.
func seedStore(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, store.PutTenders(ctx,
		&core.Tender{ID: "large", Value: floatPtr(6e8), Description: "Construction of river bridge"},
		&core.Tender{ID: "small", Value: floatPtr(1e8), Coordinates: &core.Coordinates{Lat: latForKm(40)}},
		&core.Tender{ID: "novalue", Coordinates: &core.Coordinates{}},
	))
	require.NoError(t, store.PutProfiles(ctx,
		&core.CompanyProfile{
			UserID:      "u1",
			CompanyName: "Acme",
			Midpoint:    5e8,
			Info: &core.CompanyInfo{
				PreferredRange: &core.AmountRange{Min: 4e8, Max: 8e8},
				HQLocations:    []core.Site{{Coordinates: &core.Coordinates{}}},
			},
		},
		&core.CompanyProfile{UserID: "u0", CompanyName: "Shell Co"},
	))
	return store
}

func newTestEngine(t *testing.T, store storage.Store, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(store, store, store, store, store, opts...)
	require.NoError(t, err)
	return engine
}

func scoreOf(t *testing.T, store storage.ScoreStore, tenderID, userID string) float64 {
	t.Helper()
	got, err := store.GetScore(context.Background(), tenderID, userID)
	require.NoError(t, err)
	return got
}

func TestEngine_Run(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	stats, err := newTestEngine(t, store).Run(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 3, stats.Tenders)
	assert.Equal(t, 2, stats.Profiles)
	assert.Equal(t, 1, stats.ProfilesScored)
	assert.Equal(t, 1, stats.ProfilesSkipped)
	assert.Equal(t, 1, stats.TendersSkipped)
	assert.Equal(t, 2, stats.ScoresWritten)

	assert.Equal(t, 55.0, scoreOf(t, store, "large", "u1"))
	assert.Equal(t, 49.0, scoreOf(t, store, "small", "u1"))

	_, err = store.GetScore(ctx, "novalue", "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	top, err := store.TopForUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "large", top[0].TenderID)
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	engine := newTestEngine(t, store, WithBatchSize(1))

	_, err := engine.Run(ctx)
	require.NoError(t, err)
	first, err := store.TopForUser(ctx, "u1", 100)
	require.NoError(t, err)

	_, err = engine.Run(ctx)
	require.NoError(t, err)
	second, err := store.TopForUser(ctx, "u1", 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	count, err := store.CountScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEngine_RunClearsStaleScores(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertScores(ctx, []core.Score{{TenderID: "gone", UserID: "u9", Score: 80}}))

	_, err := newTestEngine(t, store).Run(ctx)
	require.NoError(t, err)

	_, err = store.GetScore(ctx, "gone", "u9")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_KeywordBonus(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutProfiles(ctx, &core.CompanyProfile{
		UserID:   "u1",
		Midpoint: 5e8,
		Info: &core.CompanyInfo{
			Keywords:       []string{"river bridge"},
			PreferredRange: &core.AmountRange{Min: 4e8, Max: 8e8},
			HQLocations:    []core.Site{{Coordinates: &core.Coordinates{}}},
		},
	}))

	stats, err := newTestEngine(t, store).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.KeywordHits)
	assert.Equal(t, 65.0, scoreOf(t, store, "large", "u1"))
	assert.Equal(t, 49.0, scoreOf(t, store, "small", "u1"))
}

func TestEngine_ParticipationBonus(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutTenders(ctx,
		&core.Tender{ID: "pwd-large", Value: floatPtr(9e8), Organization: "PWD", Website: "pwd.gov"},
		&core.Tender{ID: "pwd-small", Value: floatPtr(1e8), Organization: "PWD", Website: "pwd.gov"},
	))
	require.NoError(t, store.PutCompetitors(ctx, &core.ParticipationRecord{
		Name: "Acme", ParticipatedTenders: []string{"r1", "r2"},
	}))
	require.NoError(t, store.PutResults(ctx,
		&core.ResultRecord{ID: "r1", Organization: "PWD", Website: "pwd.gov"},
		&core.ResultRecord{ID: "r2", Organization: "PWD", Website: "pwd.gov"},
	))

	_, err := newTestEngine(t, store).Run(ctx)
	require.NoError(t, err)

	// org 15, web 5; large: 0 fit + 15 uncoordinated + 20 + 10
	assert.Equal(t, 45.0, scoreOf(t, store, "pwd-large", "u1"))
	// small: 2 fit + 0 uncoordinated + 15/3 + 5/2
	assert.Equal(t, 9.5, scoreOf(t, store, "pwd-small", "u1"))
}

func TestEngine_DefaultMidpoint(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutProfiles(ctx, &core.CompanyProfile{
		UserID: "u1",
		Info:   &core.CompanyInfo{PreferredRange: &core.AmountRange{Min: 4e8, Max: 8e8}},
	}))

	_, err := newTestEngine(t, store, WithDefaultMidpoint(7e8)).Run(ctx)
	require.NoError(t, err)

	// 6e8 < 7e8 is small: 6e8/7e8*10 = 8.571 -> 8.57, uncoordinated proximity 0
	assert.Equal(t, 8.6, scoreOf(t, store, "large", "u1"))
}

type searchFailingStore struct {
	storage.Store
}

func (searchFailingStore) MatchPhrases(context.Context, []string) (map[string]struct{}, error) {
	return nil, errors.New("search index unavailable")
}

func TestEngine_KeywordFailurePolicy(t *testing.T) {
	withKeywords := &core.CompanyProfile{
		UserID:   "u1",
		Midpoint: 5e8,
		Info: &core.CompanyInfo{
			Keywords:       []string{"bridge"},
			PreferredRange: &core.AmountRange{Min: 4e8, Max: 8e8},
		},
	}

	t.Run("skip company by default", func(t *testing.T) {
		store := seedStore(t)
		ctx := context.Background()
		require.NoError(t, store.PutProfiles(ctx, withKeywords))
		m := metrics.NewManager()

		stats, err := newTestEngine(t, searchFailingStore{Store: store}, WithMetrics(m)).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.ScoresWritten)
		assert.Equal(t, 2, stats.ProfilesSkipped)
		expected := `
# HELP tendermatch_scoring_keyword_failures_total Keyword searches that failed
# TYPE tendermatch_scoring_keyword_failures_total counter
tendermatch_scoring_keyword_failures_total 1
`
		assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
			"tendermatch_scoring_keyword_failures_total"))
	})

	t.Run("no matches when opted in", func(t *testing.T) {
		store := seedStore(t)
		ctx := context.Background()
		require.NoError(t, store.PutProfiles(ctx, withKeywords))

		stats, err := newTestEngine(t, searchFailingStore{Store: store}, WithKeywordPolicy(KeywordPolicyNoMatches)).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.ScoresWritten)
		assert.Equal(t, 55.0, scoreOf(t, store, "large", "u1"))
	})

	t.Run("profiles without keywords never query", func(t *testing.T) {
		store := seedStore(t)
		stats, err := newTestEngine(t, searchFailingStore{Store: store}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.ScoresWritten)
	})
}

type duplicatingStore struct {
	storage.Store
}

func (d duplicatingStore) InsertScores(ctx context.Context, scores []core.Score) error {
	if err := d.Store.InsertScores(ctx, scores); err != nil {
		return err
	}
	return d.Store.InsertScores(ctx, scores)
}

func TestEngine_DuplicatePairsAbortRun(t *testing.T) {
	store := seedStore(t)

	_, err := newTestEngine(t, duplicatingStore{Store: store}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

type flakyWriteStore struct {
	storage.Store
	failUser string
}

func (f flakyWriteStore) InsertScores(ctx context.Context, scores []core.Score) error {
	for _, s := range scores {
		if s.UserID == f.failUser {
			return errors.New("write timeout")
		}
	}
	return f.Store.InsertScores(ctx, scores)
}

func TestEngine_WriteFailureSkipsOnlyThatCompany(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutProfiles(ctx, &core.CompanyProfile{
		UserID: "u2", CompanyName: "Beta", Info: &core.CompanyInfo{},
	}))

	stats, err := newTestEngine(t, flakyWriteStore{Store: store, failUser: "u1"}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProfilesScored)
	assert.Equal(t, 2, stats.ScoresWritten)

	_, err = store.GetScore(ctx, "large", "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetScore(ctx, "large", "u2")
	assert.NoError(t, err)
}

func TestEngine_CancelledContext(t *testing.T) {
	store := seedStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t, store).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngine_Validation(t *testing.T) {
	store := seedStore(t)

	tests := []struct {
		name    string
		build   func() (*Engine, error)
		wantErr error
	}{
		{"nil tenders", func() (*Engine, error) { return NewEngine(nil, store, store, store, store) }, ErrTenderRepositoryRequired},
		{"nil profiles", func() (*Engine, error) { return NewEngine(store, nil, store, store, store) }, ErrProfileRepositoryRequired},
		{"nil participation", func() (*Engine, error) { return NewEngine(store, store, nil, store, store) }, ErrParticipationRepositoryRequired},
		{"nil searcher", func() (*Engine, error) { return NewEngine(store, store, store, nil, store) }, ErrKeywordSearcherRequired},
		{"nil scores", func() (*Engine, error) { return NewEngine(store, store, store, store, nil) }, ErrScoreStoreRequired},
		{"bad batch size", func() (*Engine, error) { return NewEngine(store, store, store, store, store, WithBatchSize(0)) }, ErrInvalidBatchSize},
		{"bad midpoint", func() (*Engine, error) { return NewEngine(store, store, store, store, store, WithDefaultMidpoint(-1)) }, ErrInvalidMidpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseKeywordPolicy(t *testing.T) {
	p, err := ParseKeywordPolicy("no_matches")
	require.NoError(t, err)
	assert.Equal(t, KeywordPolicyNoMatches, p)

	p, err = ParseKeywordPolicy("")
	require.NoError(t, err)
	assert.Equal(t, KeywordPolicySkipCompany, p)

	_, err = ParseKeywordPolicy("retry")
	assert.ErrorIs(t, err, ErrUnknownKeywordPolicy)
}
