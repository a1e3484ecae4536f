package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tendermatch/core"
)

// PutTenders inserts or replaces tenders keyed by ID.
func (s *Store) PutTenders(ctx context.Context, tenders ...*core.Tender) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return putAll(s.backend, tenders, func(t *core.Tender) []byte {
		return makeTenderKey(t.ID)
	})
}

// GetTender retrieves a single tender.
func (s *Store) GetTender(ctx context.Context, id string) (*core.Tender, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var tender *core.Tender
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		tender, err = getValue[core.Tender](tx, makeTenderKey(id))
		return err
	}, false)
	return tender, err
}

// AllTenders returns every stored tender ordered by ID.
func (s *Store) AllTenders(ctx context.Context) ([]*core.Tender, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	return scanAll[core.Tender](s.backend, tenderPrefix)
}
