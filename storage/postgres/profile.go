package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/tendermatch/core"
)

// PutProfiles upserts profiles keyed by user ID.
func (s *Store) PutProfiles(ctx context.Context, profiles ...*core.CompanyProfile) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	b := &pgx.Batch{}
	for _, p := range profiles {
		b.Queue(sqlUpsertProfile, p.UserID, p)
	}
	return s.sendBatch(ctx, b)
}

// AllProfiles returns every profile ordered by user ID.
func (s *Store) AllProfiles(ctx context.Context) ([]*core.CompanyProfile, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sqlSelectProfiles)
	if err != nil {
		return nil, mapError(err)
	}
	return collectDocs[core.CompanyProfile](rows)
}
