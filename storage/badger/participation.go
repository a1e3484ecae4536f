package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// PutCompetitors stores participation records keyed by company name.
func (s *Store) PutCompetitors(ctx context.Context, records ...*core.ParticipationRecord) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return putAll(s.backend, records, func(r *core.ParticipationRecord) []byte {
		return makeCompetitorKey(r.Name)
	})
}

// PutResults stores historical result records keyed by ID.
func (s *Store) PutResults(ctx context.Context, records ...*core.ResultRecord) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return putAll(s.backend, records, func(r *core.ResultRecord) []byte {
		return makeResultKey(r.ID)
	})
}

// FindCompetitor looks up a participation record by exact company name.
func (s *Store) FindCompetitor(ctx context.Context, name string) (*core.ParticipationRecord, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	var record *core.ParticipationRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = getValue[core.ParticipationRecord](tx, makeCompetitorKey(name))
		return err
	}, false)
	return record, err
}

// GetResults retrieves result records by ID, skipping missing ones.
// Repeated IDs return their record once.
func (s *Store) GetResults(ctx context.Context, ids ...string) ([]*core.ResultRecord, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	results := make([]*core.ResultRecord, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			record, err := getValue[core.ResultRecord](tx, makeResultKey(id))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	return results, err
}
