package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/tendermatch/core"
)

// PutTenders upserts tenders as JSONB documents.
func (s *Store) PutTenders(ctx context.Context, tenders ...*core.Tender) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	b := &pgx.Batch{}
	for _, t := range tenders {
		b.Queue(sqlUpsertTender, t.ID, t)
	}
	return s.sendBatch(ctx, b)
}

// GetTender retrieves a single tender.
func (s *Store) GetTender(ctx context.Context, id string) (*core.Tender, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var t core.Tender
	if err := s.pool.QueryRow(ctx, sqlSelectTender, id).Scan(&t); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// AllTenders returns every tender ordered by ID.
func (s *Store) AllTenders(ctx context.Context) ([]*core.Tender, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sqlSelectTenders)
	if err != nil {
		return nil, mapError(err)
	}
	return collectDocs[core.Tender](rows)
}

// MatchPhrases returns IDs of tenders where any phrase occurs as a
// contiguous word sequence inside one searchable field.
func (s *Store) MatchPhrases(ctx context.Context, phrases []string) (map[string]struct{}, error) {
	matches := make(map[string]struct{})

	queries := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			queries = append(queries, p)
		}
	}
	if len(queries) == 0 {
		return matches, nil
	}
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlMatchPhrases, queries)
	if err != nil {
		return nil, mapError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError(err)
	}
	for _, id := range ids {
		matches[id] = struct{}{}
	}
	return matches, nil
}
