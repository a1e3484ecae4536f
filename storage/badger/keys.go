package badger

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/poiesic/tendermatch/core"
)

// Key prefixes for different data types. Every score key lives under
// scorePrefix so a full run can drop them in one call.
const (
	tenderPrefix     = "tdr:"
	profilePrefix    = "prf:"
	competitorPrefix = "cmp:"
	resultPrefix     = "res:"
	embeddingPrefix  = "emb:"

	scorePrefix     = "scr:"
	scoreRowPrefix  = scorePrefix + "row:"
	scorePairPrefix = scorePrefix + "pk:"
	scoreUserPrefix = scorePrefix + "usr:"
	scoreMetaPrefix = scorePrefix + "meta:"

	// Outside scorePrefix: a leased sequence must survive DropScores.
	scoreRowSeq = "seq:scr"
)

func makeTenderKey(id string) []byte {
	return []byte(tenderPrefix + id)
}

func makeProfileKey(userID string) []byte {
	return []byte(profilePrefix + userID)
}

func makeCompetitorKey(name string) []byte {
	return []byte(competitorPrefix + name)
}

func makeResultKey(id string) []byte {
	return []byte(resultPrefix + id)
}

func makeEmbeddingKey(tenderID string) []byte {
	return []byte(embeddingPrefix + tenderID)
}

func tenderIDFromEmbeddingKey(key []byte) string {
	return strings.TrimPrefix(string(key), embeddingPrefix)
}

// makeScoreRowKey generates a key for a score row.
// Format: prefix:seq (big endian so rows iterate in insertion order)
func makeScoreRowKey(seq uint64) []byte {
	buf := make([]byte, len(scoreRowPrefix)+8)
	offset := copy(buf, scoreRowPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeScorePairKey generates the unique-pair index key.
// Format: prefix:blake2b(tender,user)
func makeScorePairKey(tenderID, userID string) []byte {
	pk := core.PairKey(tenderID, userID)
	buf := make([]byte, len(scorePairPrefix)+len(pk))
	offset := copy(buf, scorePairPrefix)
	copy(buf[offset:], pk[:])
	return buf
}

// makeUserScorePrefix returns the prefix of every index entry for userID.
// Format: prefix:user\x00
func makeUserScorePrefix(userID string) []byte {
	buf := make([]byte, 0, len(scoreUserPrefix)+len(userID)+1)
	buf = append(buf, scoreUserPrefix...)
	buf = append(buf, userID...)
	return append(buf, 0)
}

// makeUserScoreKey generates a (user, score desc, tender) index key.
// Format: prefix:user\x00descScore(8)tender
func makeUserScoreKey(userID string, score float64, tenderID string) []byte {
	prefix := makeUserScorePrefix(userID)
	buf := make([]byte, len(prefix)+8+len(tenderID))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], descendingScoreBits(score))
	offset += 8
	copy(buf[offset:], tenderID)
	return buf
}

// parseUserScoreKey extracts score and tender ID from a user index key.
func parseUserScoreKey(key []byte, userID string) (float64, string, bool) {
	prefixLen := len(scoreUserPrefix) + len(userID) + 1
	if len(key) < prefixLen+8 {
		return 0, "", false
	}
	bits := binary.BigEndian.Uint64(key[prefixLen:])
	return scoreFromDescendingBits(bits), string(key[prefixLen+8:]), true
}

func makeIndexMetaKey(name string) []byte {
	return []byte(scoreMetaPrefix + name)
}

// descendingScoreBits maps a float so that larger values sort first
// under unsigned big-endian byte comparison.
func descendingScoreBits(v float64) uint64 {
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return ^bits
}

func scoreFromDescendingBits(bits uint64) float64 {
	bits = ^bits
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}
