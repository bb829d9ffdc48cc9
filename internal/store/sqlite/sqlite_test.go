package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notely/internal/notes"
	"notely/internal/store"
)

func openTemp(t *testing.T) *Table {
	t.Helper()
	tbl, err := Open(filepath.Join(t.TempDir(), "notes.db"), "notes")
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	require.NoError(t, tbl.Initialize(context.Background()))
	return tbl
}

func TestTable_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tbl := openTemp(t)
	t0 := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	first, err := tbl.Insert(ctx, notes.Note{Title: "first", CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
	second, err := tbl.Insert(ctx, notes.Note{Title: "second", Content: "x", CreatedAt: t0, UpdatedAt: t0.Add(time.Second)})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.True(t, first.CreatedAt.Equal(t0))

	list, err := tbl.Select(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "x", list[0].Content)

	saved, err := tbl.UpdateByID(ctx, first.ID, "first!", "body", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "first!", saved.Title)
	assert.True(t, saved.CreatedAt.Equal(t0))
	assert.True(t, saved.UpdatedAt.Equal(t0.Add(time.Hour)))

	list, err = tbl.Select(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)

	require.NoError(t, tbl.DeleteByID(ctx, second.ID))
	list, err = tbl.Select(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTable_UpdateMissing(t *testing.T) {
	tbl := openTemp(t)

	_, err := tbl.UpdateByID(context.Background(), "missing", "", "", time.Now())
	assert.ErrorIs(t, err, store.ErrNoRows)
}

func TestTable_InitializeIsIdempotent(t *testing.T) {
	tbl := openTemp(t)
	assert.NoError(t, tbl.Initialize(context.Background()))
}

func TestOpen_RejectsBadTableName(t *testing.T) {
	_, err := Open(":memory:", "notes; DROP TABLE x")
	assert.Error(t, err)
}

func TestValidIdent(t *testing.T) {
	assert.True(t, validIdent("notes_v2"))
	assert.False(t, validIdent(""))
	assert.False(t, validIdent("a-b"))
}
