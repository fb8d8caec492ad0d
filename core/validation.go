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

import "fmt"

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//
// NOT validated:
//   - Title and Description (both may be empty)
//   - Embedding (nil until backfilled)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	return nil
}

// ValidateUpdate validates an Update before it is written.
//
// Validation rules:
//   - Id must not be empty
//   - Embedding must contain at least one value
func ValidateUpdate(update Update) error {
	if update.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUpdate, ErrEmptyID)
	}

	if len(update.Embedding) == 0 {
		return fmt.Errorf("%w: %w: id %s", ErrInvalidUpdate, ErrEmptyEmbedding, update.Id)
	}

	return nil
}
