package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/poiesic/tendermatch/storage"
)

const defaultBatchSize = 1000

// RunStats summarises a full scoring run.
type RunStats struct {
	RunID           string
	Tenders         int
	Profiles        int
	ProfilesScored  int
	ProfilesSkipped int
	// TendersSkipped counts (company, tender) pairs skipped for a missing value.
	TendersSkipped int
	KeywordHits    int
	ScoresWritten  int
	Duration       time.Duration
}

// Engine runs the full scoring pass.
type Engine struct {
	tenders       storage.TenderRepository
	profiles      storage.ProfileRepository
	participation *ParticipationBuilder
	keywords      *KeywordBooster
	scores        storage.ScoreStore

	batchSize       int
	defaultMidpoint float64
	keywordPolicy   KeywordPolicy
	metrics         *metrics.Manager
	logger          *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithBatchSize sets how many rows are inserted per bulk write.
// Default is 1000.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		e.batchSize = size
		return nil
	}
}

// WithDefaultMidpoint sets the midpoint for profiles that have none.
// Default is core.DefaultMidpoint.
func WithDefaultMidpoint(midpoint float64) Option {
	return func(e *Engine) error {
		if midpoint <= 0 {
			return ErrInvalidMidpoint
		}
		e.defaultMidpoint = midpoint
		return nil
	}
}

// WithKeywordPolicy sets how keyword search failures are handled.
// Default is KeywordPolicySkipCompany.
func WithKeywordPolicy(policy KeywordPolicy) Option {
	return func(e *Engine) error {
		e.keywordPolicy = policy
		return nil
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a scoring engine.
func NewEngine(
	tenders storage.TenderRepository,
	profiles storage.ProfileRepository,
	participation storage.ParticipationRepository,
	searcher storage.KeywordSearcher,
	scores storage.ScoreStore,
	opts ...Option,
) (*Engine, error) {
	if tenders == nil {
		return nil, ErrTenderRepositoryRequired
	}
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if scores == nil {
		return nil, ErrScoreStoreRequired
	}
	builder, err := NewParticipationBuilder(participation)
	if err != nil {
		return nil, err
	}
	booster, err := NewKeywordBooster(searcher)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		tenders:         tenders,
		profiles:        profiles,
		participation:   builder,
		keywords:        booster,
		scores:          scores,
		batchSize:       defaultBatchSize,
		defaultMidpoint: core.DefaultMidpoint,
		keywordPolicy:   KeywordPolicySkipCompany,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Run regenerates the score store from scratch.
//
// The store is dropped first, so a failed run leaves it partially populated;
// rerunning is the only recovery. Failures scoped to one company are logged
// and that company is skipped. A duplicate (tender, user) pair found while
// building the unique index aborts the run with storage.ErrDuplicateKey.
func (e *Engine) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{RunID: uuid.NewString()}
	logger := e.logger.With("run_id", stats.RunID)

	if err := e.scores.DropScores(ctx); err != nil {
		return stats, fmt.Errorf("failed to drop scores: %w", err)
	}
	logger.Info("score store cleared")

	tenders, err := e.tenders.AllTenders(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load tenders: %w", err)
	}
	profiles, err := e.profiles.AllProfiles(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load profiles: %w", err)
	}
	stats.Tenders = len(tenders)
	stats.Profiles = len(profiles)
	logger.Info("loaded scoring inputs", "tenders", len(tenders), "profiles", len(profiles))

	writer := newBatchWriter(e.scores, e.batchSize, e.metrics)
	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if reason := e.scoreProfile(ctx, logger, writer, profile, tenders, stats); reason != "" {
			stats.ProfilesSkipped++
			e.metrics.RecordProfileSkipped(reason)
			continue
		}
		stats.ProfilesScored++
	}
	stats.ScoresWritten = writer.Written()

	if err := e.scores.CreateIndex(ctx, storage.UserScoreIndex); err != nil {
		return stats, fmt.Errorf("failed to create %s index: %w", storage.UserScoreIndex, err)
	}
	if err := e.scores.CreateIndex(ctx, storage.PairIndex); err != nil {
		logger.Error("unique pair index creation failed", "err", err)
		return stats, fmt.Errorf("failed to create %s index: %w", storage.PairIndex, err)
	}

	stats.Duration = time.Since(start)
	e.metrics.ObservePhase("score", stats.Duration)
	logger.Info("scoring complete",
		"profiles_scored", stats.ProfilesScored,
		"profiles_skipped", stats.ProfilesSkipped,
		"scores_written", stats.ScoresWritten,
		"tenders_skipped", stats.TendersSkipped,
		"keyword_hits", stats.KeywordHits,
		"duration", stats.Duration)
	return stats, nil
}

// scoreProfile scores one company against every tender. It returns a
// non-empty skip reason when the company was abandoned.
func (e *Engine) scoreProfile(
	ctx context.Context,
	logger *slog.Logger,
	writer *batchWriter,
	profile *core.CompanyProfile,
	tenders []*core.Tender,
	stats *RunStats,
) string {
	logger = logger.With("user_id", profile.UserID, "company", profile.CompanyName)
	if profile.Info == nil {
		logger.Debug("profile has no company info, skipping")
		return "no_info"
	}

	signal, err := e.participation.Build(ctx, profile.CompanyName)
	if err != nil {
		logger.Error("participation lookup failed, skipping company", "err", err)
		return "participation_error"
	}

	matches, err := e.keywords.Matches(ctx, profile.Info.Keywords)
	if err != nil {
		e.metrics.RecordKeywordFailure()
		if e.keywordPolicy == KeywordPolicySkipCompany {
			logger.Error("keyword search failed, skipping company", "err", err)
			return "keyword_error"
		}
		logger.Warn("keyword search failed, scoring without keyword matches", "err", err)
		matches = nil
	}

	c := company{
		rng:      profile.Info.Range(),
		sites:    profile.Info.Sites(),
		midpoint: profile.MidpointOr(e.defaultMidpoint),
		signal:   signal,
	}
	rows, skipped, hits := 0, 0, 0
	for _, tender := range tenders {
		score, ok := c.score(tender)
		if !ok {
			skipped++
			continue
		}
		if _, hit := matches[tender.ID]; hit {
			score = ApplyKeywordBonus(score, true)
			hits++
		}
		err := writer.Add(ctx, core.Score{TenderID: tender.ID, UserID: profile.UserID, Score: score})
		if err != nil {
			logger.Error("score write failed, abandoning company", "err", err)
			return "write_error"
		}
		rows++
	}
	if err := writer.Flush(ctx); err != nil {
		logger.Error("score write failed, abandoning company", "err", err)
		return "write_error"
	}

	stats.TendersSkipped += skipped
	stats.KeywordHits += hits
	e.metrics.RecordTendersSkipped(skipped)
	e.metrics.RecordProfileScored(rows)
	logger.Debug("company scored", "rows", rows, "skipped_without_value", skipped, "keyword_hits", hits)
	return ""
}

// company holds the per-company inputs shared by every tender.
type company struct {
	rng      core.AmountRange
	sites    []core.Site
	midpoint float64
	signal   Signal
}

// score computes the base score of tender. It reports false when the tender
// has no value and must not be scored.
func (c *company) score(tender *core.Tender) (float64, bool) {
	if tender.Value == nil {
		return 0, false
	}
	value := *tender.Value
	org, web := c.signal.Lookup(tender.Organization, tender.Website)
	return Score(core.SelectTier(value, c.midpoint), Input{
		Value:       value,
		Coordinates: tender.Coordinates,
		Range:       c.rng,
		Midpoint:    c.midpoint,
		Sites:       c.sites,
		OrgBonus:    org,
		WebBonus:    web,
	}), true
}
