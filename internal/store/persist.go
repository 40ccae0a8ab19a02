package store

import (
	"context"
	"time"
)

// Row is the persisted form of one record.
type Row struct {
	ID        string
	Position  int
	Checksum  string
	Payload   []byte
	UpdatedAt time.Time
}

// Persister stores collection rows outside the process.
type Persister interface {
	// Load returns the rows of kind ordered by position.
	Load(ctx context.Context, kind string) ([]Row, error)
	// Upsert inserts or replaces rows of kind in one transaction.
	Upsert(ctx context.Context, kind string, rows ...Row) error
	// Delete removes one row.
	Delete(ctx context.Context, kind, id string) error
	// ReplaceAll swaps every row of kind for rows in one transaction.
	ReplaceAll(ctx context.Context, kind string, rows []Row) error
}

// Verify *SQLite satisfies Persister at compile time.
var _ Persister = (*SQLite)(nil)
