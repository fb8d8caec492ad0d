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


// Package storage provides the record store abstraction for embedfill.
//
// RecordStore decouples the drain loop from the database holding the
// records. Two backends implement it:
//
//   - postgres: a SQL table reached through gorm (PostgreSQL with pgvector,
//     or SQLite for local runs and tests)
//   - badger: an embedded key-value store with a pending-embedding index
//
// # Usage
//
//	store, err := postgres.Open(ctx, url, "courses")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Drain Contract
//
// FetchMissing and Upsert together form a queue drained by predicate:
// a record leaves the "missing" set exactly when an upsert writes its
// embedding. Upsert is atomic per call and idempotent, so a batch that
// fails midway can simply be fetched again.
package storage
