package badger

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// DropScores removes every score row, index entry and index flag.
func (s *Store) DropScores(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.backend.DropPrefix(scorePrefix)
}

// InsertScores appends rows. Without indexes this is a blind batch write;
// with indexes present each row goes through the indexed path instead.
func (s *Store) InsertScores(ctx context.Context, scores []core.Score) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	pairIdx, userIdx, err := s.indexFlags()
	if err != nil {
		return err
	}
	if pairIdx || userIdx {
		return s.insertIndexed(scores, pairIdx, userIdx)
	}

	wb := s.backend.NewWriteBatch()
	defer wb.Cancel()
	for i := range scores {
		seq, err := s.nextRowSeq()
		if err != nil {
			return err
		}
		if err := wb.Set(makeScoreRowKey(seq), storage.MarshalScore(&scores[i])); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *Store) insertIndexed(scores []core.Score, pairIdx, userIdx bool) error {
	for i := range scores {
		score := scores[i]
		err := s.backend.UpdateWithRetry(func(tx *badger.Txn) error {
			if pairIdx {
				_, err := tx.Get(makeScorePairKey(score.TenderID, score.UserID))
				if err == nil {
					return fmt.Errorf("%w: tender %q user %q", storage.ErrDuplicateKey, score.TenderID, score.UserID)
				}
				if err != badger.ErrKeyNotFound {
					return err
				}
			}
			seq, err := s.nextRowSeq()
			if err != nil {
				return err
			}
			return writeScoreRow(tx, seq, score, pairIdx, userIdx)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateIndex builds idx over existing rows. It is a no-op when the index
// already exists.
func (s *Store) CreateIndex(ctx context.Context, idx storage.Index) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	exists, err := s.hasIndex(idx)
	if err != nil || exists {
		return err
	}

	wb := s.backend.NewWriteBatch()
	defer wb.Cancel()

	switch idx {
	case storage.PairIndex:
		seen := make(map[[16]byte]struct{})
		err = s.scanRows(func(seq uint64, score *core.Score) error {
			pk := core.PairKey(score.TenderID, score.UserID)
			if _, dup := seen[pk]; dup {
				return fmt.Errorf("%w: tender %q user %q", storage.ErrDuplicateKey, score.TenderID, score.UserID)
			}
			seen[pk] = struct{}{}
			return wb.Set(makeScorePairKey(score.TenderID, score.UserID), seqBytes(seq))
		})
	case storage.UserScoreIndex:
		err = s.scanRows(func(_ uint64, score *core.Score) error {
			return wb.Set(makeUserScoreKey(score.UserID, score.Score, score.TenderID), nil)
		})
	default:
		return fmt.Errorf("%w: unknown index %d", storage.ErrInvalidQuery, idx)
	}
	if err != nil {
		return err
	}
	if err := wb.Set(makeIndexMetaKey(idx.String()), []byte{1}); err != nil {
		return err
	}
	return wb.Flush()
}

// ApplyBoosts adds boosts to a user's scores one pair per transaction.
// Pairs are processed in tender ID order; the first failure stops the call.
func (s *Store) ApplyBoosts(ctx context.Context, userID string, boosts map[string]float64, ceiling float64) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	pairIdx, userIdx, err := s.indexFlags()
	if err != nil {
		return err
	}
	if !pairIdx {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, storage.PairIndex)
	}

	for _, tenderID := range slices.Sorted(maps.Keys(boosts)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		boost := boosts[tenderID]
		err := s.backend.UpdateWithRetry(func(tx *badger.Txn) error {
			return s.boostPair(tx, tenderID, userID, boost, ceiling, userIdx)
		})
		if err != nil {
			return fmt.Errorf("failed to boost tender %q: %w", tenderID, err)
		}
	}
	return nil
}

func (s *Store) boostPair(tx *badger.Txn, tenderID, userID string, boost, ceiling float64, userIdx bool) error {
	item, err := tx.Get(makeScorePairKey(tenderID, userID))
	if err == badger.ErrKeyNotFound {
		seq, err := s.nextRowSeq()
		if err != nil {
			return err
		}
		score := core.Score{TenderID: tenderID, UserID: userID, Score: boostedScore(0, boost, ceiling)}
		return writeScoreRow(tx, seq, score, true, userIdx)
	}
	if err != nil {
		return err
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	seq := binary.BigEndian.Uint64(raw)
	current, err := getScoreRow(tx, seq)
	if err != nil {
		return err
	}

	updated := *current
	updated.Score = boostedScore(current.Score, boost, ceiling)
	if updated.Score == current.Score {
		return nil
	}
	if userIdx {
		if err := tx.Delete(makeUserScoreKey(userID, current.Score, tenderID)); err != nil {
			return err
		}
	}
	return writeScoreRow(tx, seq, updated, false, userIdx)
}

// boostedScore computes min(current+boost, ceiling) rounded to 2 decimals,
// never returning less than current.
func boostedScore(current, boost, ceiling float64) float64 {
	next := core.RoundTo(math.Min(current+boost, ceiling), 2)
	return math.Max(current, next)
}

// getScoreRow reads the MUS-encoded row stored under seq.
func getScoreRow(tx *badger.Txn, seq uint64) (*core.Score, error) {
	item, err := tx.Get(makeScoreRowKey(seq))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var score *core.Score
	err = item.Value(func(val []byte) error {
		var err error
		score, err = storage.UnmarshalScore(val)
		return err
	})
	return score, err
}

// writeScoreRow stores a row and the requested index entries.
func writeScoreRow(tx *badger.Txn, seq uint64, score core.Score, pairIdx, userIdx bool) error {
	if err := tx.Set(makeScoreRowKey(seq), storage.MarshalScore(&score)); err != nil {
		return err
	}
	if pairIdx {
		if err := tx.Set(makeScorePairKey(score.TenderID, score.UserID), seqBytes(seq)); err != nil {
			return err
		}
	}
	if userIdx {
		return tx.Set(makeUserScoreKey(score.UserID, score.Score, score.TenderID), nil)
	}
	return nil
}

// GetScore returns the score of one pair, using the pair index when present.
func (s *Store) GetScore(ctx context.Context, tenderID, userID string) (float64, error) {
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}
	pairIdx, _, err := s.indexFlags()
	if err != nil {
		return 0, err
	}

	if !pairIdx {
		found := math.NaN()
		err := s.scanRows(func(_ uint64, score *core.Score) error {
			if score.TenderID == tenderID && score.UserID == userID {
				found = score.Score
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		if math.IsNaN(found) {
			return 0, storage.ErrNotFound
		}
		return found, nil
	}

	var result float64
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeScorePairKey(tenderID, userID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		score, err := getScoreRow(tx, binary.BigEndian.Uint64(raw))
		if err != nil {
			return err
		}
		result = score.Score
		return nil
	}, false)
	return result, err
}

// TopForUser returns a user's highest scores, ties ordered by tender ID.
func (s *Store) TopForUser(ctx context.Context, userID string, limit int) ([]core.Score, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	_, userIdx, err := s.indexFlags()
	if err != nil {
		return nil, err
	}

	var top []core.Score
	if userIdx {
		errStop := errors.New("stop")
		err := s.backend.scanPrefix(makeUserScorePrefix(userID), true, func(key, _ []byte) error {
			score, tenderID, ok := parseUserScoreKey(key, userID)
			if !ok {
				return nil
			}
			top = append(top, core.Score{TenderID: tenderID, UserID: userID, Score: score})
			if len(top) >= limit {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			return nil, err
		}
		return top, nil
	}

	err = s.scanRows(func(_ uint64, score *core.Score) error {
		if score.UserID == userID {
			top = append(top, *score)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(top, func(a, b core.Score) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.TenderID, b.TenderID)
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// CountScores returns the number of score rows.
func (s *Store) CountScores(ctx context.Context) (int, error) {
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}
	count := 0
	err := s.backend.scanPrefix([]byte(scoreRowPrefix), true, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

func (s *Store) scanRows(fn func(seq uint64, score *core.Score) error) error {
	return s.backend.scanPrefix([]byte(scoreRowPrefix), false, func(key, val []byte) error {
		score, err := storage.UnmarshalScore(val)
		if err != nil {
			return err
		}
		return fn(binary.BigEndian.Uint64(key[len(scoreRowPrefix):]), score)
	})
}

func (s *Store) hasIndex(idx storage.Index) (bool, error) {
	exists := false
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeIndexMetaKey(idx.String()))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		exists = err == nil
		return err
	}, false)
	return exists, err
}

func (s *Store) indexFlags() (pair, user bool, err error) {
	if pair, err = s.hasIndex(storage.PairIndex); err != nil {
		return false, false, err
	}
	user, err = s.hasIndex(storage.UserScoreIndex)
	return pair, user, err
}

func seqBytes(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}
