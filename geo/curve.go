package geo

import (
	"math"

	"github.com/poiesic/tendermatch/core"
)

// Curve maps a distance in kilometres to a proximity sub-score.
type Curve func(km float64) float64

// LargeTenderCurve scores distance for large tenders:
// 25 up to 50 km, 25 to 15 across 50-250 km, 15 to 5 across 250-500 km,
// then a flat 5.
func LargeTenderCurve(km float64) float64 {
	switch {
	case math.IsInf(km, 1) || math.IsNaN(km):
		return 0
	case km <= 50:
		return 25
	case km <= 250:
		return 25 - (km-50)/200*10
	case km <= 500:
		return 15 - (km-250)/250*10
	default:
		return 5
	}
}

// SmallTenderCurve scores distance for small tenders. The first band runs
// to 55 km but its slope is defined over 50 km, so the curve steps down
// slightly at 55 km.
func SmallTenderCurve(km float64) float64 {
	switch {
	case math.IsInf(km, 1) || math.IsNaN(km):
		return 0
	case km <= 55:
		return 55 - km/50*10
	case km <= 200:
		return 45 - (km-50)/150*35
	default:
		return math.Max(0, 10-(km-200)/800*10)
	}
}

// BestSiteScore evaluates curve for every site with coordinates, weights it by
// the site's importance factor, and returns the maximum. Sites are never
// summed. It returns 0 when target is nil or no site is usable.
func BestSiteScore(target *core.Coordinates, sites []core.Site, curve Curve) float64 {
	if target == nil {
		return 0
	}
	best := 0.0
	for _, site := range sites {
		if site.Coordinates == nil {
			continue
		}
		weighted := curve(Haversine(target, site.Coordinates)) * site.Importance()
		if weighted > best {
			best = weighted
		}
	}
	return best
}
