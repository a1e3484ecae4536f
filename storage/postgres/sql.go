package postgres

import (
	"fmt"

	"github.com/poiesic/tendermatch/storage"
)

const (
	sqlCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	sqlCreateTenders = `
		CREATE TABLE IF NOT EXISTS tenders (
			id     TEXT PRIMARY KEY,
			doc    JSONB NOT NULL,
			search TSVECTOR GENERATED ALWAYS AS (
				to_tsvector('simple',
					coalesce(doc->>'work_description', '') || ' ' ||
					coalesce(doc->>'description', '') || ' ' ||
					coalesce(doc->>'organization', '') || ' ' ||
					coalesce(doc->>'product_category', '') || ' ' ||
					coalesce(doc->>'product_sub_category', ''))
			) STORED
		)`

	sqlCreateTenderSearchIndex = `CREATE INDEX IF NOT EXISTS tenders_search_idx ON tenders USING gin (search)`

	sqlCreateProfiles = `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			doc     JSONB NOT NULL
		)`

	sqlCreateCompetitors = `
		CREATE TABLE IF NOT EXISTS competitors (
			name TEXT PRIMARY KEY,
			doc  JSONB NOT NULL
		)`

	sqlCreateResults = `
		CREATE TABLE IF NOT EXISTS results (
			id           TEXT PRIMARY KEY,
			organization TEXT NOT NULL DEFAULT '',
			website      TEXT NOT NULL DEFAULT ''
		)`

	sqlCreateEmbeddings = `
		CREATE TABLE IF NOT EXISTS embeddings (
			tender_id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL
		)`

	sqlCreateEmbeddingIndex = `CREATE INDEX IF NOT EXISTS embeddings_hnsw_idx ON embeddings USING hnsw (embedding vector_cosine_ops)`

	sqlCreateScores = `
		CREATE TABLE IF NOT EXISTS scores (
			tender_id TEXT NOT NULL,
			user_id   TEXT NOT NULL,
			score     DOUBLE PRECISION NOT NULL
		)`

	sqlDropScores = `DROP TABLE IF EXISTS scores`

	sqlUpsertTender = `
		INSERT INTO tenders (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`

	sqlSelectTender  = `SELECT doc FROM tenders WHERE id = $1`
	sqlSelectTenders = `SELECT doc FROM tenders ORDER BY id`

	// Phrases are prefiltered on the indexed column, then rechecked per
	// field.
	sqlMatchPhrases = `
		SELECT DISTINCT t.id
		FROM tenders t, unnest($1::text[]) AS p(phrase)
		WHERE t.search @@ phraseto_tsquery('simple', p.phrase)
		  AND EXISTS (
			SELECT 1
			FROM unnest(ARRAY[
				t.doc->>'work_description',
				t.doc->>'description',
				t.doc->>'organization',
				t.doc->>'product_category',
				t.doc->>'product_sub_category'
			]) AS f(body)
			WHERE to_tsvector('simple', coalesce(f.body, '')) @@ phraseto_tsquery('simple', p.phrase)
		  )`

	sqlUpsertProfile = `
		INSERT INTO profiles (user_id, doc) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc`

	sqlSelectProfiles = `SELECT doc FROM profiles ORDER BY user_id`

	sqlUpsertCompetitor = `
		INSERT INTO competitors (name, doc) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc`

	sqlSelectCompetitor = `SELECT doc FROM competitors WHERE name = $1`

	sqlUpsertResult = `
		INSERT INTO results (id, organization, website) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET organization = EXCLUDED.organization, website = EXCLUDED.website`

	sqlSelectResults = `SELECT id, organization, website FROM results WHERE id = ANY($1) ORDER BY id`

	sqlUpsertEmbedding = `
		INSERT INTO embeddings (tender_id, embedding) VALUES ($1, $2)
		ON CONFLICT (tender_id) DO UPDATE SET embedding = EXCLUDED.embedding`

	sqlSelectEmbedding = `SELECT embedding FROM embeddings WHERE tender_id = $1`

	sqlSelectMissingEmbeddings = `
		SELECT t.doc
		FROM tenders t
		LEFT JOIN embeddings e ON e.tender_id = t.id
		WHERE e.tender_id IS NULL
		ORDER BY t.id`

	// <=> is cosine distance, 1 - cos.
	sqlNearestNeighbors = `
		SELECT tender_id, embedding <=> $1 AS distance
		FROM embeddings
		ORDER BY distance, tender_id
		LIMIT $2`

	sqlIndexExists = `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = current_schema() AND tablename = 'scores' AND indexname = $1
		)`

	// The inserted value is the boosted score of an absent pair, whose
	// current score is 0.
	sqlBoostScore = `
		INSERT INTO scores (tender_id, user_id, score)
		VALUES ($1, $2, GREATEST(0, ROUND(LEAST($3::float8, $4::float8)::numeric, 2)::float8))
		ON CONFLICT (tender_id, user_id) DO UPDATE
		SET score = GREATEST(scores.score, ROUND(LEAST(scores.score + $3::float8, $4::float8)::numeric, 2)::float8)`

	sqlSelectScore = `SELECT score FROM scores WHERE tender_id = $1 AND user_id = $2 ORDER BY score DESC LIMIT 1`

	sqlTopForUser = `
		SELECT tender_id, user_id, score FROM scores
		WHERE user_id = $1
		ORDER BY score DESC, tender_id
		LIMIT $2`

	sqlCountScores = `SELECT count(*) FROM scores`
)

// indexName returns the database name of a score index.
func indexName(idx storage.Index) (string, error) {
	switch idx {
	case storage.UserScoreIndex:
		return "scores_user_score_idx", nil
	case storage.PairIndex:
		return "scores_tender_user_unique_idx", nil
	default:
		return "", fmt.Errorf("%w: unknown index %d", storage.ErrInvalidQuery, idx)
	}
}

// createIndexSQL builds the DDL for a score index.
func createIndexSQL(idx storage.Index) (string, error) {
	name, err := indexName(idx)
	if err != nil {
		return "", err
	}
	switch idx {
	case storage.PairIndex:
		return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON scores (tender_id, user_id)`, name), nil
	default:
		return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON scores (user_id, score DESC)`, name), nil
	}
}

// schemaSQL lists the statements that create every table, in order.
func schemaSQL(dimensions int) []string {
	return []string{
		sqlCreateExtension,
		sqlCreateTenders,
		sqlCreateTenderSearchIndex,
		sqlCreateProfiles,
		sqlCreateCompetitors,
		sqlCreateResults,
		fmt.Sprintf(sqlCreateEmbeddings, dimensions),
		sqlCreateEmbeddingIndex,
		sqlCreateScores,
	}
}

// missingEmbeddingsSQL appends a LIMIT when limit is positive.
func missingEmbeddingsSQL(limit int) string {
	if limit > 0 {
		return fmt.Sprintf("%s\n\t\tLIMIT %d", sqlSelectMissingEmbeddings, limit)
	}
	return sqlSelectMissingEmbeddings
}
