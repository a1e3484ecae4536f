package rescore

import (
	"github.com/poiesic/tendermatch/core"
)

// BoostFor converts a normalized similarity into a score boost.
func BoostFor(similarity float64) float64 {
	return core.RoundTo(similarity*10, 2)
}

// mergeMax records boost for tenderID unless a larger one is already held.
func mergeMax(boosts map[string]float64, tenderID string, boost float64) {
	if current, ok := boosts[tenderID]; !ok || boost > current {
		boosts[tenderID] = boost
	}
}

// collectBoosts folds neighbours into boosts, keeping the maximum per tender.
func collectBoosts(boosts map[string]float64, neighbors []core.Neighbor) {
	for _, n := range neighbors {
		mergeMax(boosts, n.TenderID, BoostFor(n.Similarity))
	}
}
