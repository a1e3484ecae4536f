// Package scoring computes the base compatibility score of every tender for
// every company and writes the result to a storage.ScoreStore.
//
// A score combines four signals. Value-fit measures how well the tender
// value suits the company. Proximity is the best importance-weighted
// distance score over the company's sites. Participation reflects how often
// the company has engaged with the tender's organization or website. A
// keyword bonus is added when the tender text matches a company keyword.
//
// The formula depends on the tender's tier (see core.Tier):
//
//	large: valueFit[0,30] + proximity[0,25 | 15 uncoordinated] + org + web + 10
//	small: value/midpoint*10 + proximity[0,55 | 0 uncoordinated] + org/3 + web/2
//
// Value-fit and proximity are rounded to 2 decimals, the sum to 1 decimal.
// A keyword hit adds 10 and clamps the result to 100.
//
// Engine.Run performs the full run: it drops the score store, loads tenders
// once, scores companies sequentially, bulk-inserts rows in batches, then
// builds the (user, score desc) and unique (tender, user) indexes.
package scoring
