// Package postgres implements the tendermatch storage contracts on
// PostgreSQL with the pgvector extension.
//
// Tenders, profiles and participation records are stored as JSONB documents.
// Keyword matching uses a generated tsvector column with a GIN index and
// rechecks each searchable field so a phrase never spans two fields.
// Embeddings live in a vector column with an HNSW cosine index.
//
// The scores table is created without indexes so bulk loads stay fast;
// CreateIndex adds the (user_id, score DESC) index and the unique
// (tender_id, user_id) index once the load is complete.
package postgres
