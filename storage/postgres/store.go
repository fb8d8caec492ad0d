package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/embedfill/core"
	"github.com/poiesic/embedfill/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTable is the table drained when none is configured.
const DefaultTable = "courses"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// recordRow maps the columns the store reads.
// Title and description may be NULL in the source table.
type recordRow struct {
	ID          string           `gorm:"column:id;primaryKey"`
	Title       *string          `gorm:"column:title"`
	Description *string          `gorm:"column:description"`
	Embedding   *pgvector.Vector `gorm:"column:embedding"`
}

// embeddingRow is the shape written by Upsert: only the key and the vector.
type embeddingRow struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Embedding pgvector.Vector `gorm:"column:embedding"`
}

// RecordStore implements storage.RecordStore over a SQL table with
// columns id, title, description and embedding.
type RecordStore struct {
	db    Database
	table string
}

var _ storage.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a RecordStore for table on an open database.
// The store takes ownership of db and closes it on Close.
func NewRecordStore(db Database, table string) (*RecordStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidTable, table)
	}
	return &RecordStore{db: db, table: table}, nil
}

// Open connects to rawURL and returns a store for table.
// SQLite databases get the table created when it does not exist.
func Open(ctx context.Context, rawURL, table string) (*RecordStore, error) {
	db, err := NewDatabase(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	store, err := NewRecordStore(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if db.IsSQLite() {
		if err := store.EnsureTable(ctx, 0); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

// Table returns the name of the drained table.
func (s *RecordStore) Table() string {
	return s.table
}

// EnsureTable creates the table when it does not exist. On PostgreSQL the
// embedding column is a pgvector column of the given dimension (unsized
// when dimension is 0) and the vector extension is created if needed.
func (s *RecordStore) EnsureTable(ctx context.Context, dimension int) error {
	session := s.db.Session(ctx)

	if !s.db.IsPostgres() {
		return session.Exec(fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, title TEXT, description TEXT, embedding TEXT)",
			s.table,
		)).Error
	}

	if err := session.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	vectorType := "vector"
	if dimension > 0 {
		vectorType = fmt.Sprintf("vector(%d)", dimension)
	}
	return session.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, title TEXT, description TEXT, embedding %s)",
		s.table, vectorType,
	)).Error
}

// Close closes the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// FetchMissing selects id, title and description of up to limit rows whose
// embedding is NULL. No ORDER BY is applied.
func (s *RecordStore) FetchMissing(ctx context.Context, limit int) ([]*core.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var rows []recordRow
	err := s.db.Session(ctx).
		Table(s.table).
		Select("id", "title", "description").
		Where("embedding IS NULL").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch missing embeddings: %w", err)
	}

	records := make([]*core.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

// Upsert writes all embeddings in a single transaction with
// INSERT ... ON CONFLICT (id) DO UPDATE SET embedding = excluded.embedding.
func (s *RecordStore) Upsert(ctx context.Context, updates ...core.Update) error {
	if len(updates) == 0 {
		return nil
	}

	rows := make([]embeddingRow, len(updates))
	for i, update := range updates {
		if err := core.ValidateUpdate(update); err != nil {
			return err
		}
		rows[i] = embeddingRow{
			ID:        string(update.Id),
			Embedding: pgvector.NewVector(update.Embedding),
		}
	}

	return s.db.Session(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Table(s.table).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"embedding"}),
			}).
			Create(&rows)
		if result.Error != nil {
			return fmt.Errorf("upsert embeddings: %w", result.Error)
		}
		return nil
	})
}

// CountMissing counts rows whose embedding is NULL.
func (s *RecordStore) CountMissing(ctx context.Context) (int, error) {
	var count int64
	err := s.db.Session(ctx).
		Table(s.table).
		Where("embedding IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count missing embeddings: %w", err)
	}
	return int(count), nil
}

// Insert adds rows, leaving rows whose id already exists untouched.
func (s *RecordStore) Insert(ctx context.Context, records ...*core.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]recordRow, len(records))
	for i, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return err
		}
		rows[i] = fromRecord(record)
	}

	return s.db.Session(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Table(s.table).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).
			Create(&rows)
		if result.Error != nil {
			return fmt.Errorf("insert records: %w", result.Error)
		}
		return nil
	})
}

// Get retrieves rows by id, skipping ids that do not exist.
func (s *RecordStore) Get(ctx context.Context, ids ...core.ID) ([]*core.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	var rows []recordRow
	err := s.db.Session(ctx).
		Table(s.table).
		Select("id", "title", "description", "embedding").
		Where("id IN ?", keys).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}

	byID := make(map[string]*core.Record, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.toRecord()
	}
	results := make([]*core.Record, 0, len(rows))
	for _, key := range keys {
		if record, ok := byID[key]; ok {
			results = append(results, record)
			delete(byID, key)
		}
	}
	return results, nil
}

func (r recordRow) toRecord() *core.Record {
	record := &core.Record{Id: core.ID(r.ID)}
	if r.Title != nil {
		record.Title = *r.Title
	}
	if r.Description != nil {
		record.Description = *r.Description
	}
	if r.Embedding != nil {
		record.Embedding = r.Embedding.Slice()
	}
	return record
}

func fromRecord(record *core.Record) recordRow {
	title := record.Title
	description := record.Description
	row := recordRow{
		ID:          string(record.Id),
		Title:       &title,
		Description: &description,
	}
	if record.HasEmbedding() {
		vec := pgvector.NewVector(record.Embedding)
		row.Embedding = &vec
	}
	return row
}
