package badger

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescendingScoreBits_Order(t *testing.T) {
	values := []float64{100, 55.5, 49, 1, 0, -0.5, -10}
	for i := 0; i < len(values)-1; i++ {
		hi := makeUserScoreKey("u", values[i], "t")
		lo := makeUserScoreKey("u", values[i+1], "t")
		assert.Negative(t, bytes.Compare(hi, lo), "%v should sort before %v", values[i], values[i+1])
	}
}

func TestDescendingScoreBits_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.25, 100, -3.5, math.MaxFloat64} {
		assert.Equal(t, v, scoreFromDescendingBits(descendingScoreBits(v)))
	}
}

func TestParseUserScoreKey(t *testing.T) {
	key := makeUserScoreKey("user-1", 87.25, "tender-9")
	score, tenderID, ok := parseUserScoreKey(key, "user-1")
	assert.True(t, ok)
	assert.Equal(t, 87.25, score)
	assert.Equal(t, "tender-9", tenderID)

	_, _, ok = parseUserScoreKey([]byte("scr:usr:x"), "user-1")
	assert.False(t, ok)
}

func TestUserScorePrefix_IsolatesUsers(t *testing.T) {
	key := makeUserScoreKey("u10", 50, "t")
	assert.False(t, bytes.HasPrefix(key, makeUserScorePrefix("u1")))
	assert.True(t, bytes.HasPrefix(key, makeUserScorePrefix("u10")))
}

func TestScoreRowKey_Ordering(t *testing.T) {
	assert.Negative(t, bytes.Compare(makeScoreRowKey(1), makeScoreRowKey(256)))
	assert.True(t, bytes.HasPrefix(makeScoreRowKey(7), []byte(scorePrefix)))
	assert.False(t, bytes.HasPrefix([]byte(scoreRowSeq), []byte(scorePrefix)))
}
