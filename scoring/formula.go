package scoring

import (
	"math"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/geo"
)

const (
	largeBaseline         = 10.0
	largeMaxValueFit      = 30.0
	largeUncoordinatedFit = 15.0
	smallValueFitScale    = 10.0

	// KeywordBonus is added to a tender matching any company keyword.
	KeywordBonus = 10.0
	// MaxScore bounds a score after the keyword bonus.
	MaxScore = 100.0
)

// Input carries everything the tier formulas read for one (company, tender) pair.
type Input struct {
	Value       float64
	Coordinates *core.Coordinates
	Range       core.AmountRange
	Midpoint    float64
	Sites       []core.Site

	// Raw, unweighted participation bonuses for the tender's organization and website.
	OrgBonus float64
	WebBonus float64
}

// Score evaluates the tier formula, rounded to 1 decimal.
func Score(tier core.Tier, in Input) float64 {
	fit := core.RoundTo(ValueFit(tier, in.Value, in.Range, in.Midpoint), 2)
	prox := core.RoundTo(Proximity(tier, in.Coordinates, in.Sites), 2)
	participation := ParticipationBonus(tier, in.OrgBonus, in.WebBonus)

	total := fit + prox + participation
	if tier == core.TierLarge {
		total += largeBaseline
	}
	return core.RoundTo(total, 1)
}

// ValueFit returns the value-fit component for tier.
func ValueFit(tier core.Tier, value float64, r core.AmountRange, midpoint float64) float64 {
	if tier == core.TierLarge {
		return LargeValueFit(value, r)
	}
	return SmallValueFit(value, midpoint)
}

// LargeValueFit is triangular over the preferred range: 0 at or outside the
// bounds, 30 at the centre. A degenerate range scores 0.
func LargeValueFit(value float64, r core.AmountRange) float64 {
	if r.Min >= r.Max || value <= r.Min || value >= r.Max {
		return 0
	}
	centre := (r.Min + r.Max) / 2
	if value <= centre {
		return (value - r.Min) / (centre - r.Min) * largeMaxValueFit
	}
	return (r.Max - value) / (r.Max - centre) * largeMaxValueFit
}

// SmallValueFit scales linearly with value. It is not clamped, so values
// above the midpoint score more than 10.
func SmallValueFit(value, midpoint float64) float64 {
	if midpoint <= 0 || math.IsNaN(value) {
		return 0
	}
	return value / midpoint * smallValueFitScale
}

// Proximity returns the best weighted site score for the tier's curve.
// Uncoordinated tenders score a flat 15 when large and 0 when small.
func Proximity(tier core.Tier, target *core.Coordinates, sites []core.Site) float64 {
	if tier == core.TierLarge {
		if target == nil {
			return largeUncoordinatedFit
		}
		return geo.BestSiteScore(target, sites, geo.LargeTenderCurve)
	}
	return geo.BestSiteScore(target, sites, geo.SmallTenderCurve)
}

// ParticipationBonus weights raw bonuses: full weight for large tenders,
// org/3 + web/2 for small ones.
func ParticipationBonus(tier core.Tier, org, web float64) float64 {
	if tier == core.TierLarge {
		return org + web
	}
	return org/3 + web/2
}

// ApplyKeywordBonus adds KeywordBonus and clamps to MaxScore when hit is set.
// Scores without a hit are returned unchanged.
func ApplyKeywordBonus(score float64, hit bool) float64 {
	if !hit {
		return score
	}
	return math.Min(score+KeywordBonus, MaxScore)
}
