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

import "errors"

var (
	// ErrNotFound is returned when a tender, competitor, embedding or score
	// pair does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique index cannot be built because
	// two rows share a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrIndexMissing indicates an operation that requires an index which has
	// not been created.
	ErrIndexMissing = errors.New("required index missing")

	// ErrStorageClosed is returned by every call made after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery covers non-positive limits, unknown indexes and vectors
	// of the wrong dimension.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed wraps cbor encode and decode errors.
	ErrSerializationFailed = errors.New("serialization failed")
)
