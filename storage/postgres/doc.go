// Package postgres implements storage.RecordStore over a SQL table using
// GORM. PostgreSQL (including Supabase) stores embeddings in a pgvector
// column; SQLite stores the same vector literal as text, which keeps local
// runs and tests free of external services.
package postgres
