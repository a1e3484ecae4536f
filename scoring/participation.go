package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// Signal maps an organization or website string to its raw participation bonus.
type Signal map[string]float64

// Lookup returns the bonuses for a tender's organization and website.
// Keys are trimmed before lookup; blank keys score 0.
func (s Signal) Lookup(organization, website string) (org, web float64) {
	return s.get(organization), s.get(website)
}

func (s Signal) get(key string) float64 {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0
	}
	return s[key]
}

// BuildSignal derives bonuses from historical results.
//
// Organizations and websites are counted separately. Both are normalized by
// the total number of organization mentions (1 if there are none). An
// organization earns count/total*10 + 5; a website earns count/total*5.
// When a string appears as both, the organization bonus wins.
func BuildSignal(results []*core.ResultRecord) Signal {
	orgs := make(map[string]int)
	webs := make(map[string]int)
	totalOrgs := 0
	for _, r := range results {
		if org := strings.TrimSpace(r.Organization); org != "" {
			orgs[org]++
			totalOrgs++
		}
		if web := strings.TrimSpace(r.Website); web != "" {
			webs[web]++
		}
	}
	if totalOrgs == 0 {
		totalOrgs = 1
	}

	signal := make(Signal, len(orgs)+len(webs))
	for web, count := range webs {
		signal[web] = float64(count) / float64(totalOrgs) * 5
	}
	for org, count := range orgs {
		signal[org] = float64(count)/float64(totalOrgs)*10 + 5
	}
	return signal
}

// ParticipationBuilder looks up a company's history and builds its Signal.
type ParticipationBuilder struct {
	repo storage.ParticipationRepository
}

// NewParticipationBuilder creates a builder reading from repo.
func NewParticipationBuilder(repo storage.ParticipationRepository) (*ParticipationBuilder, error) {
	if repo == nil {
		return nil, ErrParticipationRepositoryRequired
	}
	return &ParticipationBuilder{repo: repo}, nil
}

// Build returns the signal for companyName. A company with no record gets an
// empty signal.
func (b *ParticipationBuilder) Build(ctx context.Context, companyName string) (Signal, error) {
	record, err := b.repo.FindCompetitor(ctx, companyName)
	if errors.Is(err, storage.ErrNotFound) {
		return Signal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find participation record: %w", err)
	}
	if len(record.ParticipatedTenders) == 0 {
		return Signal{}, nil
	}

	results, err := b.repo.GetResults(ctx, record.ParticipatedTenders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	return BuildSignal(results), nil
}
