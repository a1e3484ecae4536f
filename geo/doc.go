// Package geo converts distances between tenders and company sites into
// proximity sub-scores.
//
// Distances use the haversine great-circle formula. A missing coordinate
// yields an infinite distance, which every curve maps to zero benefit.
// Callers decide what an uncoordinated tender is worth per tier.
package geo
