package core

// Tier classifies a tender relative to a company's midpoint and selects
// the scoring formula.
type Tier int

const (
	// TierSmall applies to tenders below the company midpoint.
	TierSmall Tier = iota
	// TierLarge applies to tenders at or above the company midpoint.
	TierLarge
)

// SelectTier returns TierLarge when value >= midpoint.
func SelectTier(value, midpoint float64) Tier {
	if value >= midpoint {
		return TierLarge
	}
	return TierSmall
}

func (t Tier) String() string {
	switch t {
	case TierSmall:
		return "small"
	case TierLarge:
		return "large"
	default:
		return "unknown"
	}
}
