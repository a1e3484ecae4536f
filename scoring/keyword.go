package scoring

import (
	"context"
	"fmt"

	"github.com/poiesic/tendermatch/storage"
)

// KeywordPolicy decides what a keyword search failure does to a company.
type KeywordPolicy int

const (
	// KeywordPolicySkipCompany abandons the company for this run.
	KeywordPolicySkipCompany KeywordPolicy = iota
	// KeywordPolicyNoMatches scores the company as if nothing matched.
	KeywordPolicyNoMatches
)

// ParseKeywordPolicy parses "skip_company" or "no_matches".
func ParseKeywordPolicy(s string) (KeywordPolicy, error) {
	switch s {
	case "", "skip_company":
		return KeywordPolicySkipCompany, nil
	case "no_matches":
		return KeywordPolicyNoMatches, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKeywordPolicy, s)
	}
}

func (p KeywordPolicy) String() string {
	switch p {
	case KeywordPolicySkipCompany:
		return "skip_company"
	case KeywordPolicyNoMatches:
		return "no_matches"
	default:
		return "unknown"
	}
}

// KeywordBooster finds the tenders that earn a company the keyword bonus.
type KeywordBooster struct {
	searcher storage.KeywordSearcher
}

// NewKeywordBooster creates a booster backed by searcher.
func NewKeywordBooster(searcher storage.KeywordSearcher) (*KeywordBooster, error) {
	if searcher == nil {
		return nil, ErrKeywordSearcherRequired
	}
	return &KeywordBooster{searcher: searcher}, nil
}

// Matches returns the IDs of tenders matching any keyword. An empty keyword
// list returns an empty set without querying. Search failures are returned
// unchanged; retrying is the caller's decision.
func (b *KeywordBooster) Matches(ctx context.Context, keywords []string) (map[string]struct{}, error) {
	if len(keywords) == 0 {
		return map[string]struct{}{}, nil
	}
	return b.searcher.MatchPhrases(ctx, keywords)
}
