package badger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tendermatch/storage"
)

// Store implements storage.Store on top of BadgerDB.
type Store struct {
	backend *Backend
	logger  *slog.Logger

	seqMu  sync.Mutex
	rowSeq *badger.Sequence
}

var _ storage.Store = (*Store)(nil)

// NewStore opens (or creates) a store at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	backend, err := OpenBackend(path, false, logger)
	if err != nil {
		return nil, err
	}
	return newStore(backend)
}

func newStore(backend *Backend) (*Store, error) {
	seq, err := backend.GetSequence(scoreRowSeq)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to lease score sequence: %w", err)
	}
	return &Store{
		backend: backend,
		logger:  backend.logger,
		rowSeq:  seq,
	}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := s.rowSeq.Release(); err != nil {
		s.logger.Warn("failed to release score sequence", "err", err)
	}
	return s.backend.Close()
}

func (s *Store) nextRowSeq() (uint64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	return s.rowSeq.Next()
}

func (s *Store) checkOpen(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

// getValue reads and decodes a single record. Returns storage.ErrNotFound
// when the key is absent.
func getValue[T any](tx *badger.Txn, key []byte) (*T, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var record *T
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.Unmarshal[T](val)
		return err
	})
	return record, err
}

// putAll encodes and writes records in a single write batch.
func putAll[T any](b *Backend, records []*T, key func(*T) []byte) error {
	wb := b.NewWriteBatch()
	defer wb.Cancel()
	for _, record := range records {
		data, err := storage.Marshal(record)
		if err != nil {
			return err
		}
		if err := wb.Set(key(record), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// scanAll decodes every record under prefix.
func scanAll[T any](b *Backend, prefix string) ([]*T, error) {
	var records []*T
	err := b.scanPrefix([]byte(prefix), false, func(_, val []byte) error {
		record, err := storage.Unmarshal[T](val)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}
