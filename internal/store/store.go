// Package store is the record store client for the notes table.
//
// A Client validates requests, stamps timestamps and classifies failures;
// the actual I/O is done by a Table backend (PostgREST, Postgres, SQLite or
// in-memory).
package store

import (
	"context"
	"errors"
	"time"

	"notely/internal/notes"
)

// ErrNoRows is returned by a Table when an update matched no row.
var ErrNoRows = errors.New("no matching row")

// Table is the raw contract every backend implements.
type Table interface {
	// Select returns all rows ordered by updated_at descending.
	Select(ctx context.Context) ([]notes.Note, error)

	// Insert stores one row. The backend assigns the id; the timestamps
	// on row are written as given.
	Insert(ctx context.Context, row notes.Note) (notes.Note, error)

	// UpdateByID overwrites title, content and updated_at of the row with
	// the given id and returns the stored row.
	UpdateByID(ctx context.Context, id, title, content string, updatedAt time.Time) (notes.Note, error)

	// DeleteByID removes the row with the given id.
	DeleteByID(ctx context.Context, id string) error
}

// Initializer is implemented by tables that can create their schema.
type Initializer interface {
	Initialize(ctx context.Context) error
}
