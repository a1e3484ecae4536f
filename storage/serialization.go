// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/poiesic/tendermatch/core"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("storage: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("storage: cbor decoder: %v", err))
	}
}

// Marshal serializes a record to deterministic CBOR.
func Marshal[T any](record *T) ([]byte, error) {
	data, err := encMode.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// Unmarshal deserializes a CBOR record.
func Unmarshal[T any](data []byte) (*T, error) {
	var record T
	if err := decMode.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalVector serializes an embedding vector.
func MarshalVector(vec []float32) ([]byte, error) {
	return Marshal(&vec)
}

// UnmarshalVector deserializes an embedding vector.
func UnmarshalVector(data []byte) ([]float32, error) {
	vec, err := Unmarshal[[]float32](data)
	if err != nil {
		return nil, err
	}
	return *vec, nil
}

// MarshalScore serializes a score row in MUS format.
func MarshalScore(score *core.Score) []byte {
	buf := make([]byte, core.ScoreMUS.Size(*score))
	core.ScoreMUS.Marshal(*score, buf)
	return buf
}

// UnmarshalScore deserializes a MUS score row.
func UnmarshalScore(data []byte) (*core.Score, error) {
	score, _, err := core.ScoreMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &score, nil
}
