package badger

import (
	"context"

	"github.com/poiesic/tendermatch/core"
)

// PutProfiles inserts or replaces profiles keyed by user ID.
func (s *Store) PutProfiles(ctx context.Context, profiles ...*core.CompanyProfile) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return putAll(s.backend, profiles, func(p *core.CompanyProfile) []byte {
		return makeProfileKey(p.UserID)
	})
}

// AllProfiles returns every profile ordered by user ID.
func (s *Store) AllProfiles(ctx context.Context) ([]*core.CompanyProfile, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	return scanAll[core.CompanyProfile](s.backend, profilePrefix)
}
