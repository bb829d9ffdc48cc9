// Package sqlite stores notes in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"notely/internal/notes"
	"notely/internal/store"
)

// Table is a notes table in a SQLite file
type Table struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the database file at path. Use ":memory:" for a
// throwaway database.
func Open(path, table string) (*Table, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if !validIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	return &Table{db: db, table: table}, nil
}

// Close closes the database
func (t *Table) Close() error {
	return t.db.Close()
}

// Initialize creates the table when it does not exist
func (t *Table) Initialize(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`, t.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.table, err)
	}
	return nil
}

func (t *Table) Select(ctx context.Context) ([]notes.Note, error) {
	rows, err := t.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, title, content, created_at, updated_at FROM %s ORDER BY updated_at DESC", t.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []notes.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Text timestamps do not always compare lexically; sort on the parsed values.
	notes.SortByUpdated(list)
	return list, nil
}

func (t *Table) Insert(ctx context.Context, row notes.Note) (notes.Note, error) {
	row.ID = uuid.NewString()
	_, err := t.db.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", t.table),
		row.ID, row.Title, row.Content, row.CreatedAt.UTC(), row.UpdatedAt.UTC())
	if err != nil {
		return notes.Note{}, err
	}
	return t.get(ctx, row.ID)
}

func (t *Table) UpdateByID(ctx context.Context, id, title, content string, updatedAt time.Time) (notes.Note, error) {
	res, err := t.db.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET title = ?, content = ?, updated_at = ? WHERE id = ?", t.table),
		title, content, updatedAt.UTC(), id)
	if err != nil {
		return notes.Note{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return notes.Note{}, err
	}
	if affected == 0 {
		return notes.Note{}, fmt.Errorf("update %s: %w", id, store.ErrNoRows)
	}
	return t.get(ctx, id)
}

func (t *Table) DeleteByID(ctx context.Context, id string) error {
	_, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.table), id)
	return err
}

func (t *Table) get(ctx context.Context, id string) (notes.Note, error) {
	row := t.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT id, title, content, created_at, updated_at FROM %s WHERE id = ?", t.table), id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return notes.Note{}, fmt.Errorf("get %s: %w", id, store.ErrNoRows)
	}
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (notes.Note, error) {
	var n notes.Note
	if err := s.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return notes.Note{}, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

// validIdent accepts plain SQL identifiers only, since the table name is
// interpolated into statements.
func validIdent(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) < 0
}
