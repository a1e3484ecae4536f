package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
)

// ScoreMUS serializes Score rows in MUS format: tender ID, user ID, then the
// score as a fixed-width float64.
var ScoreMUS = scoreMUS{}

type scoreMUS struct{}

func (s scoreMUS) Marshal(v Score, bs []byte) (n int) {
	n = ord.String.Marshal(v.TenderID, bs)
	n += ord.String.Marshal(v.UserID, bs[n:])
	return n + raw.Float64.Marshal(v.Score, bs[n:])
}

func (s scoreMUS) Unmarshal(bs []byte) (v Score, n int, err error) {
	v.TenderID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.UserID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Score, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (s scoreMUS) Size(v Score) (size int) {
	size = ord.String.Size(v.TenderID)
	size += ord.String.Size(v.UserID)
	return size + raw.Float64.Size(v.Score)
}

func (s scoreMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.Float64.Skip(bs[n:])
	n += n1
	return
}
