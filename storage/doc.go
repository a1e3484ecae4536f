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

// Package storage provides the storage abstraction layer for tendermatch.
//
// This package defines repository interfaces that decouple the scoring engine
// from any particular database. Two backends implement them: an embedded
// BadgerDB store (storage/badger) and PostgreSQL with pgvector
// (storage/postgres).
//
// # Architecture
//
//   - TenderRepository, ProfileRepository, ParticipationRepository: read-mostly inputs
//   - KeywordSearcher: phrase search over tender text fields
//   - EmbeddingRepository and NeighborSearcher: vectors and k-NN queries
//   - ScoreStore: the scoring output, rebuilt by full runs and boosted by rescoring
//   - Store: all of the above plus Close
//
// # Usage
//
//	store, err := badger.NewStore("/path/to/db", slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Score updates
//
// ApplyBoosts must express "increase, cap, round" as a single atomic update
// per pair so that concurrent rescoring writers cannot interleave a read and
// a write.
//
// # Serialization
//
// Score rows are encoded with the MUS serializer core.ScoreMUS via
// MarshalScore and UnmarshalScore. Other records persisted as opaque values
// are encoded with CBOR via Marshal and Unmarshal; CBOR falls back to the
// json struct tags on core types.
package storage
