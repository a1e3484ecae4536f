// Package rescore raises existing scores using embedding similarity to the
// tenders each user has saved.
//
// For every saved tender with an embedding, the rescorer asks a
// storage.NeighborSearcher for the K nearest tenders. Each neighbour earns a
// boost of round(similarity*10, 2). A neighbour reached from several saved
// tenders keeps only its largest boost. The user's boosts are then applied
// through storage.ScoreStore.ApplyBoosts, which adds, caps and never lowers.
//
// Missing embeddings and failed neighbour queries skip that saved tender. A
// failed write skips that user. Users are processed sequentially.
package rescore
