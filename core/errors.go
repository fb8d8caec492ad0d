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

// Failure kinds. Every error that ends a run wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	// ErrConfiguration indicates a missing or invalid configuration value.
	// It is raised before the first iteration and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrProvider indicates the embedding provider failed or returned a
	// malformed response for a batch.
	ErrProvider = errors.New("embedding provider error")

	// ErrStore indicates the record store failed to fetch or upsert a batch.
	ErrStore = errors.New("record store error")
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidUpdate indicates an Update failed validation.
	ErrInvalidUpdate = errors.New("invalid update")

	// ErrEmptyID indicates the Id field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyEmbedding indicates an Update carries no vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrCorruptRecord indicates an encoded record could not be decoded.
	ErrCorruptRecord = errors.New("corrupt record encoding")
)
