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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTender indicates a Tender failed validation.
	ErrInvalidTender = errors.New("invalid tender")

	// ErrInvalidProfile indicates a CompanyProfile failed validation.
	ErrInvalidProfile = errors.New("invalid company profile")

	// ErrEmptyID indicates a record identifier is empty.
	ErrEmptyID = errors.New("identifier cannot be empty")

	// ErrNegativeValue indicates a monetary amount below zero.
	ErrNegativeValue = errors.New("monetary value cannot be negative")

	// ErrInvalidCoordinates indicates a latitude or longitude outside its range.
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrInvalidRange indicates a preferred amount range with negative bounds.
	ErrInvalidRange = errors.New("invalid amount range")
)
