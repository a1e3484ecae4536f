// Package embedding backfills tender vectors for similarity rescoring.
//
// A Backfiller finds tenders without a stored embedding, splits them into
// batches and embeds each batch on a bounded worker pool. A batch is retried
// with exponential backoff; after the final attempt it is logged and skipped
// so the rest of the run continues. Vectors are normalized to unit length
// before they are stored.
package embedding
