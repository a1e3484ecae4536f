package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/tendermatch/core"
)

func (s *Store) PutCompetitors(ctx context.Context, records ...*core.ParticipationRecord) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(sqlUpsertCompetitor, r.Name, r)
	}
	return s.sendBatch(ctx, b)
}

func (s *Store) PutResults(ctx context.Context, records ...*core.ResultRecord) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(sqlUpsertResult, r.ID, r.Organization, r.Website)
	}
	return s.sendBatch(ctx, b)
}

// FindCompetitor looks up a participation record by exact company name.
func (s *Store) FindCompetitor(ctx context.Context, name string) (*core.ParticipationRecord, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var r core.ParticipationRecord
	if err := s.pool.QueryRow(ctx, sqlSelectCompetitor, name).Scan(&r); err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

// GetResults retrieves the result records that exist among ids.
func (s *Store) GetResults(ctx context.Context, ids ...string) ([]*core.ResultRecord, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*core.ResultRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, sqlSelectResults, ids)
	if err != nil {
		return nil, mapError(err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[core.ResultRecord])
	if err != nil {
		return nil, mapError(err)
	}
	return results, nil
}
