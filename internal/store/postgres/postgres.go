// Package postgres talks to the notes table directly over the Postgres wire
// protocol using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notely/internal/notes"
	"notely/internal/store"
)

const columns = "id::text AS id, title, content, created_at, updated_at"

// Table is a notes table in Postgres
type Table struct {
	pool  *pgxpool.Pool
	ident string // sanitized table identifier
}

// Open connects to databaseURL. The pool connects lazily, so an unreachable
// server surfaces on the first query.
func Open(ctx context.Context, databaseURL, table string) (*Table, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(pool, table), nil
}

// New wraps an existing pool
func New(pool *pgxpool.Pool, table string) *Table {
	return &Table{pool: pool, ident: pgx.Identifier{table}.Sanitize()}
}

// Close releases the pool
func (t *Table) Close() error {
	t.pool.Close()
	return nil
}

// Initialize creates the table with server-side defaults when missing
func (t *Table) Initialize(ctx context.Context) error {
	_, err := t.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	title text NOT NULL DEFAULT '',
	content text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
)`, t.ident))
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.ident, err)
	}
	return nil
}

func (t *Table) Select(ctx context.Context) ([]notes.Note, error) {
	rows, err := t.pool.Query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY updated_at DESC", columns, t.ident))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[notes.Note])
}

func (t *Table) Insert(ctx context.Context, row notes.Note) (notes.Note, error) {
	rows, err := t.pool.Query(ctx, fmt.Sprintf(
		"INSERT INTO %s (title, content, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING %s",
		t.ident, columns),
		row.Title, row.Content, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return notes.Note{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[notes.Note])
}

func (t *Table) UpdateByID(ctx context.Context, id, title, content string, updatedAt time.Time) (notes.Note, error) {
	rows, err := t.pool.Query(ctx, fmt.Sprintf(
		"UPDATE %s SET title = $2, content = $3, updated_at = $4 WHERE id = $1 RETURNING %s",
		t.ident, columns),
		id, title, content, updatedAt)
	if err != nil {
		return notes.Note{}, err
	}
	n, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[notes.Note])
	if errors.Is(err, pgx.ErrNoRows) {
		return notes.Note{}, fmt.Errorf("update %s: %w", id, store.ErrNoRows)
	}
	return n, err
}

func (t *Table) DeleteByID(ctx context.Context, id string) error {
	_, err := t.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.ident), id)
	return err
}
