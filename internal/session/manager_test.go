package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notely/internal/notes"
)

const delay = 500 * time.Millisecond

var errBoom = errors.New("boom")

func newManager(t *testing.T, st *fakeStore) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	m := New(st, WithClock(clock), WithSaveDelay(delay), WithLogger(zerolog.Nop()))
	t.Cleanup(m.Close)
	return m, clock
}

func loaded(t *testing.T, n int) (*Manager, *fakeClock, *fakeStore) {
	t.Helper()
	st := newFakeStore(seedNotes(n)...)
	m, clock := newManager(t, st)
	require.NoError(t, m.Load(context.Background()))
	return m, clock, st
}

func active(t *testing.T, snap Snapshot) notes.Note {
	t.Helper()
	n, ok := snap.Active()
	require.True(t, ok, "no active note")
	return n
}

func ids(list []notes.Note) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestLoadSortsAndSelectsFirst(t *testing.T) {
	m, _, st := loaded(t, 3)

	snap := m.Snapshot()
	assert.Equal(t, []string{"n3", "n2", "n1"}, ids(snap.Notes))
	assert.Equal(t, "n3", snap.ActiveID)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Err)
	assert.Equal(t, 1, st.lists)
	for _, n := range snap.Notes {
		assert.Equal(t, StateClean, snap.State(n.ID))
	}
}

func TestLoadKeepsExistingSelection(t *testing.T) {
	m, _, _ := loaded(t, 3)
	require.True(t, m.Select("n1"))

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, "n1", m.Snapshot().ActiveID)
}

func TestLoadEmpty(t *testing.T) {
	m, _, _ := loaded(t, 0)

	snap := m.Snapshot()
	assert.Empty(t, snap.Notes)
	assert.Empty(t, snap.ActiveID)
	_, ok := snap.Active()
	assert.False(t, ok)
}

func TestLoadFailure(t *testing.T) {
	st := newFakeStore(seedNotes(2)...)
	st.listErr = errBoom
	m, _ := newManager(t, st)

	err := m.Load(context.Background())
	require.Error(t, err)
	assert.True(t, notes.IsBackend(err))
	assert.ErrorIs(t, err, errBoom)

	snap := m.Snapshot()
	require.NotNil(t, snap.Err)
	assert.Equal(t, notes.KindBackend, snap.Err.Kind)
	assert.Empty(t, snap.Notes)
	assert.False(t, snap.Loading)
}

func TestLoadClearsPreviousError(t *testing.T) {
	st := newFakeStore(seedNotes(1)...)
	st.listErr = errBoom
	m, _ := newManager(t, st)
	require.Error(t, m.Load(context.Background()))

	st.set(func(s *fakeStore) { s.listErr = nil })
	require.NoError(t, m.Load(context.Background()))
	assert.Nil(t, m.Snapshot().Err)
	assert.Len(t, m.Snapshot().Notes, 1)
}

func TestCreatePrependsAndActivates(t *testing.T) {
	m, _, _ := loaded(t, 2)

	created, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notes.DefaultTitle, created.Title)
	assert.Empty(t, created.Content)

	assert.Equal(t, created.ID, m.Notes()[0].ID)
	snap := m.Snapshot()
	assert.Equal(t, created.ID, snap.ActiveID)
	assert.Equal(t, created.ID, snap.Notes[0].ID)
	assert.Len(t, snap.Notes, 3)
	assert.Equal(t, StateClean, snap.State(created.ID))
}

func TestCreateFailure(t *testing.T) {
	m, _, st := loaded(t, 2)
	st.set(func(s *fakeStore) { s.createErr = errBoom })

	_, err := m.Create(context.Background())
	require.Error(t, err)
	assert.True(t, notes.IsBackend(err))

	snap := m.Snapshot()
	assert.Len(t, snap.Notes, 2)
	assert.Equal(t, "n2", snap.ActiveID)
	assert.NotNil(t, snap.Err)
}

func TestUpdateAppliesLocallyBeforeSave(t *testing.T) {
	m, clock, st := loaded(t, 1)

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Title: notes.String("draft")}))

	snap := m.Snapshot()
	assert.Equal(t, "draft", active(t, snap).Title)
	assert.Equal(t, StateDirty, snap.State("n1"))
	assert.Equal(t, "n1", snap.PendingID)
	assert.Equal(t, clock.Now(), snap.PendingSince)
	assert.Empty(t, st.Updates())
}

func TestUpdateDebounceCoalescesEdits(t *testing.T) {
	m, clock, st := loaded(t, 1)

	for _, c := range []string{"E1", "E2", "E3"} {
		require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String(c)}))
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, st.Updates())

	clock.Advance(delay)

	updates := st.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, "E3", updates[0].Content)
	assert.Equal(t, "note 1", updates[0].Title)

	snap := m.Snapshot()
	assert.Equal(t, StateClean, snap.State("n1"))
	assert.Equal(t, "E3", active(t, snap).Content)
	assert.Empty(t, snap.PendingID)
}

func TestUpdatePendingSinceIsFirstEdit(t *testing.T) {
	m, clock, _ := loaded(t, 1)
	first := clock.Now()

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("a")}))
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("ab")}))

	assert.Equal(t, first, m.Snapshot().PendingSince)
}

func TestUpdateSeparatedEditsSaveTwice(t *testing.T) {
	m, clock, st := loaded(t, 1)

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("first")}))
	clock.Advance(delay + 100*time.Millisecond)
	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("second")}))
	clock.Advance(delay + 100*time.Millisecond)

	updates := st.Updates()
	require.Len(t, updates, 2)
	assert.Equal(t, "first", updates[0].Content)
	assert.Equal(t, "second", updates[1].Content)
}

func TestUpdateAdoptsServerTimestamps(t *testing.T) {
	m, clock, st := loaded(t, 1)

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Title: notes.String("x")}))
	clock.Advance(delay)

	st.mu.Lock()
	want := st.serverTime
	st.mu.Unlock()
	assert.Equal(t, want, active(t, m.Snapshot()).UpdatedAt)
}

func TestUpdateValidation(t *testing.T) {
	m, clock, st := loaded(t, 1)

	err := m.Update(notes.Patch{Title: notes.String("x")})
	require.Error(t, err)
	assert.True(t, notes.IsValidation(err))
	assert.ErrorIs(t, err, notes.ErrIDRequired)
	assert.Equal(t, notes.KindValidation, m.Snapshot().Err.Kind)

	err = m.Update(notes.Patch{ID: "missing", Title: notes.String("x")})
	require.Error(t, err)
	assert.True(t, notes.IsValidation(err))
	assert.ErrorIs(t, err, notes.ErrUnknownNote)

	assert.Zero(t, clock.Armed())
	clock.Advance(time.Minute)
	assert.Empty(t, st.Updates())
	assert.Equal(t, "note 1", active(t, m.Snapshot()).Title)
}

func TestUpdateOtherNoteSendsPendingEdit(t *testing.T) {
	m, clock, st := loaded(t, 2)

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("one")}))
	require.NoError(t, m.Update(notes.Patch{ID: "n2", Content: notes.String("two")}))

	require.Eventually(t, func() bool { return len(st.Updates()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "n1", st.Updates()[0].ID)
	assert.Equal(t, "n2", m.Snapshot().PendingID)

	clock.Advance(delay)

	updates := st.Updates()
	require.Len(t, updates, 2)
	assert.Equal(t, "two", updates[1].Content)
	require.Eventually(t, func() bool {
		snap := m.Snapshot()
		return snap.State("n1") == StateClean && snap.State("n2") == StateClean
	}, time.Second, time.Millisecond)
}

func TestSaveFailureKeepsLocalEdit(t *testing.T) {
	m, clock, st := loaded(t, 1)
	st.set(func(s *fakeStore) { s.updateErr = errBoom })

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("unsaved")}))
	clock.Advance(delay)

	snap := m.Snapshot()
	require.NotNil(t, snap.Err)
	assert.Equal(t, notes.KindBackend, snap.Err.Kind)
	assert.Equal(t, StateFailed, snap.State("n1"))
	assert.Equal(t, "unsaved", active(t, snap).Content)
	assert.Empty(t, snap.PendingID)

	// no retry without a new edit
	clock.Advance(time.Minute)
	assert.Len(t, st.Updates(), 1)

	st.set(func(s *fakeStore) { s.updateErr = nil })
	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("unsaved!")}))
	assert.Equal(t, StateDirty, m.Snapshot().State("n1"))
	clock.Advance(delay)

	assert.Len(t, st.Updates(), 2)
	assert.Equal(t, StateClean, m.Snapshot().State("n1"))
}

func TestEditDuringSaveIsSentNextCycle(t *testing.T) {
	m, clock, st := loaded(t, 1)
	gate := make(chan struct{})
	st.set(func(s *fakeStore) { s.gates[0] = gate })

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("E1")}))
	done := make(chan struct{})
	go func() {
		clock.Advance(delay)
		close(done)
	}()
	sent := <-st.started
	assert.Equal(t, "E1", sent.Content)
	assert.Equal(t, StateSaving, m.Snapshot().State("n1"))

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("E2")}))
	assert.Equal(t, StateSaving, m.Snapshot().State("n1"))

	close(gate)
	<-done

	snap := m.Snapshot()
	assert.Equal(t, "E2", active(t, snap).Content)
	assert.Equal(t, StateDirty, snap.State("n1"))
	assert.Equal(t, "n1", snap.PendingID)

	clock.Advance(delay)

	updates := st.Updates()
	require.Len(t, updates, 2)
	assert.Equal(t, "E2", updates[1].Content)
	assert.Equal(t, StateClean, m.Snapshot().State("n1"))
}

func TestStaleSaveResponseIgnored(t *testing.T) {
	m, _, st := loaded(t, 1)
	gate := make(chan struct{})
	st.set(func(s *fakeStore) { s.gates[0] = gate })
	ctx := context.Background()

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("old")}))
	done := make(chan struct{})
	go func() {
		_ = m.Flush(ctx)
		close(done)
	}()
	<-st.started

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("new")}))
	require.NoError(t, m.Flush(ctx))
	<-st.started

	close(gate)
	<-done

	snap := m.Snapshot()
	assert.Equal(t, "new", active(t, snap).Content)
	assert.Equal(t, StateClean, snap.State("n1"))
}

func TestStaleSaveFailureAfterNewerSuccess(t *testing.T) {
	m, _, st := loaded(t, 1)
	gate := make(chan struct{})
	st.set(func(s *fakeStore) {
		s.gates[0] = gate
		s.callErrs[0] = errBoom
	})
	ctx := context.Background()

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("old")}))
	errc := make(chan error, 1)
	go func() { errc <- m.Flush(ctx) }()
	<-st.started

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("new")}))
	require.NoError(t, m.Flush(ctx))
	<-st.started

	close(gate)
	assert.NoError(t, <-errc)

	snap := m.Snapshot()
	assert.Nil(t, snap.Err)
	assert.Equal(t, "new", active(t, snap).Content)
	assert.Equal(t, StateClean, snap.State("n1"))
}

func TestSaveDurationUsesClock(t *testing.T) {
	var buf bytes.Buffer
	st := newFakeStore(seedNotes(1)...)
	clock := newFakeClock()
	m := New(st, WithClock(clock), WithSaveDelay(delay), WithLogger(zerolog.New(&buf)))
	t.Cleanup(m.Close)
	require.NoError(t, m.Load(context.Background()))

	gate := make(chan struct{})
	st.set(func(s *fakeStore) { s.gates[0] = gate })
	require.NoError(t, m.Update(notes.Patch{ID: "n1", Title: notes.String("slow")}))

	done := make(chan error, 1)
	go func() { done <- m.Flush(context.Background()) }()
	<-st.started
	clock.Advance(3 * time.Second)
	close(gate)
	require.NoError(t, <-done)

	assert.Contains(t, buf.String(), `"duration":3000`)
}

func TestFlushSendsPendingNow(t *testing.T) {
	m, clock, st := loaded(t, 1)

	require.NoError(t, m.Flush(context.Background()))
	assert.Empty(t, st.Updates())

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Title: notes.String("now")}))
	require.NoError(t, m.Flush(context.Background()))
	assert.Len(t, st.Updates(), 1)
	assert.Zero(t, clock.Armed())

	clock.Advance(time.Minute)
	assert.Len(t, st.Updates(), 1)
}

func TestFlushReturnsSaveError(t *testing.T) {
	m, _, st := loaded(t, 1)
	st.set(func(s *fakeStore) { s.updateErr = errBoom })

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Title: notes.String("x")}))
	err := m.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, notes.IsBackend(err))
}

func TestDeleteActiveSelectsAnother(t *testing.T) {
	m, _, st := loaded(t, 3)
	ctx := context.Background()
	require.Equal(t, "n3", m.Snapshot().ActiveID)

	require.NoError(t, m.Delete(ctx, "n3"))

	snap := m.Snapshot()
	assert.Len(t, snap.Notes, 2)
	assert.NotEmpty(t, snap.ActiveID)
	assert.NotEqual(t, "n3", snap.ActiveID)
	_, ok := snap.Active()
	assert.True(t, ok)
	assert.Equal(t, 1, st.deletes)
}

func TestDeleteInactiveKeepsSelection(t *testing.T) {
	m, _, _ := loaded(t, 3)

	require.NoError(t, m.Delete(context.Background(), "n1"))
	assert.Equal(t, "n3", m.Snapshot().ActiveID)
}

func TestDeleteLastNoteClearsSelection(t *testing.T) {
	m, _, _ := loaded(t, 1)

	require.NoError(t, m.Delete(context.Background(), "n1"))

	snap := m.Snapshot()
	assert.Empty(t, snap.Notes)
	assert.Empty(t, snap.ActiveID)
}

func TestDeleteFailure(t *testing.T) {
	m, _, st := loaded(t, 2)
	st.set(func(s *fakeStore) { s.deleteErr = errBoom })

	err := m.Delete(context.Background(), "n2")
	require.Error(t, err)
	assert.True(t, notes.IsBackend(err))

	snap := m.Snapshot()
	assert.Len(t, snap.Notes, 2)
	assert.Equal(t, "n2", snap.ActiveID)
}

func TestDeleteRequiresID(t *testing.T) {
	m, _, st := loaded(t, 1)

	err := m.Delete(context.Background(), "")
	require.Error(t, err)
	assert.True(t, notes.IsValidation(err))
	assert.Zero(t, st.deletes)
}

func TestDeleteDiscardsPendingEdit(t *testing.T) {
	m, clock, st := loaded(t, 2)

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("gone")}))
	require.NoError(t, m.Delete(context.Background(), "n1"))

	assert.Zero(t, clock.Armed())
	assert.Empty(t, m.Snapshot().PendingID)
	clock.Advance(time.Minute)
	assert.Empty(t, st.Updates())
}

func TestCloseCancelsArmedSave(t *testing.T) {
	m, clock, st := loaded(t, 1)

	require.NoError(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("late")}))
	m.Close()
	clock.Advance(time.Minute)
	assert.Empty(t, st.Updates())

	assert.ErrorIs(t, m.Update(notes.Patch{ID: "n1", Content: notes.String("x")}), ErrClosed)
	assert.ErrorIs(t, m.Flush(context.Background()), ErrClosed)
}

func TestSelect(t *testing.T) {
	m, _, _ := loaded(t, 2)

	assert.True(t, m.Select("n1"))
	assert.Equal(t, "n1", m.Snapshot().ActiveID)
	assert.False(t, m.Select("nope"))
	assert.Equal(t, "n1", m.Snapshot().ActiveID)
	assert.True(t, m.Select(""))
	_, ok := m.Snapshot().Active()
	assert.False(t, ok)
}

func TestClearError(t *testing.T) {
	m, _, _ := loaded(t, 1)
	require.Error(t, m.Update(notes.Patch{}))
	require.NotNil(t, m.Snapshot().Err)

	m.ClearError()
	assert.Nil(t, m.Snapshot().Err)
}

func TestSubscribeDeliversVersionedSnapshots(t *testing.T) {
	st := newFakeStore(seedNotes(1)...)
	m, _ := newManager(t, st)

	var mu sync.Mutex
	var got []Snapshot
	unsubscribe := m.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	require.NoError(t, m.Load(context.Background()))
	_, err := m.Create(context.Background())
	require.NoError(t, err)

	mu.Lock()
	require.NotEmpty(t, got)
	assert.True(t, got[0].Loading)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Version, got[i-1].Version)
	}
	last := got[len(got)-1]
	count := len(got)
	mu.Unlock()

	assert.False(t, last.Loading)
	assert.Equal(t, "new-1", last.ActiveID)

	unsubscribe()
	m.Select("n1")
	mu.Lock()
	assert.Len(t, got, count)
	mu.Unlock()
}

func TestSaveStateString(t *testing.T) {
	assert.Equal(t, "saved", StateClean.String())
	assert.Equal(t, "editing", StateDirty.String())
	assert.Equal(t, "saving", StateSaving.String())
	assert.Equal(t, "not saved", StateFailed.String())
}
