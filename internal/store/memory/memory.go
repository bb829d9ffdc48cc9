// Package memory is an in-process notes table.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"notely/internal/notes"
	"notely/internal/store"
)

// Table keeps rows in a map keyed by id
type Table struct {
	mu   sync.RWMutex
	rows map[string]notes.Note
	fail error
}

// New returns an empty table seeded with the given rows
func New(seed ...notes.Note) *Table {
	t := &Table{rows: make(map[string]notes.Note)}
	for _, n := range seed {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		t.rows[n.ID] = n
	}
	return t
}

// SetFailure makes every following call return err, until called with nil.
func (t *Table) SetFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = err
}

// Len returns the number of stored rows
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table) Select(ctx context.Context) ([]notes.Note, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	list := make([]notes.Note, 0, len(t.rows))
	for _, n := range t.rows {
		list = append(list, n)
	}
	notes.SortByUpdated(list)
	return list, nil
}

func (t *Table) Insert(ctx context.Context, row notes.Note) (notes.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return notes.Note{}, err
	}

	row.ID = uuid.NewString()
	t.rows[row.ID] = row
	return row, nil
}

func (t *Table) UpdateByID(ctx context.Context, id, title, content string, updatedAt time.Time) (notes.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return notes.Note{}, err
	}

	row, ok := t.rows[id]
	if !ok {
		return notes.Note{}, fmt.Errorf("update %s: %w", id, store.ErrNoRows)
	}
	row.Title = title
	row.Content = content
	row.UpdatedAt = updatedAt
	t.rows[id] = row
	return row, nil
}

func (t *Table) DeleteByID(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}

	delete(t.rows, id)
	return nil
}

func (t *Table) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.fail
}
