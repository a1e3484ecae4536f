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

import (
	"fmt"
	"math"
)

// ValidateTender validates a Tender according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Value, when present, must be finite and non-negative
//   - Coordinates, when present, must be within range
//
// A tender with no value is valid; the scoring engine skips it.
func ValidateTender(t *Tender) error {
	if t == nil {
		return fmt.Errorf("%w: tender is nil", ErrInvalidTender)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTender, ErrEmptyID)
	}
	if t.Value != nil && (math.IsNaN(*t.Value) || math.IsInf(*t.Value, 0) || *t.Value < 0) {
		return fmt.Errorf("%w: %w", ErrInvalidTender, ErrNegativeValue)
	}
	if err := ValidateCoordinates(t.Coordinates); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTender, err)
	}
	return nil
}

// ValidateProfile validates a CompanyProfile.
//
// Validation rules:
//   - UserID must not be empty
//   - Midpoint must not be negative
//   - Preferred range bounds must not be negative
//   - Every site coordinate must be within range
//
// A degenerate preferred range (min >= max) is allowed and scores zero.
func ValidateProfile(p *CompanyProfile) error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyID)
	}
	if p.Midpoint < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrNegativeValue)
	}
	if p.Info == nil {
		return nil
	}
	if r := p.Info.PreferredRange; r != nil && (r.Min < 0 || r.Max < 0) {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrInvalidRange)
	}
	for _, s := range p.Info.Sites() {
		if err := ValidateCoordinates(s.Coordinates); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
	}
	return nil
}

// ValidateCoordinates checks latitude and longitude bounds. Nil is valid.
func ValidateCoordinates(c *Coordinates) error {
	if c == nil {
		return nil
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: (%g, %g)", ErrInvalidCoordinates, c.Lat, c.Lng)
	}
	return nil
}
