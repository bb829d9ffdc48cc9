// Package session holds the client-side state of the notes UI: the loaded
// notes, the active selection, loading and error flags, and the debounced
// autosave of local edits.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"notely/internal/logs"
	"notely/internal/notes"
)

// DefaultSaveDelay is the quiet period after the last edit before it is saved.
const DefaultSaveDelay = 500 * time.Millisecond

// ErrClosed is returned by operations on a closed Manager.
var ErrClosed = errors.New("session closed")

// Store is the record store the manager reads and writes through.
type Store interface {
	List(ctx context.Context) ([]notes.Note, error)
	Create(ctx context.Context, fields notes.Fields) (notes.Note, error)
	Update(ctx context.Context, n notes.Note) (notes.Note, error)
	Delete(ctx context.Context, id string) error
}

// pendingEdit is the latest unsaved edit
type pendingEdit struct {
	note  notes.Note
	since time.Time
}

// Manager owns the local note collection. All methods are safe for
// concurrent use; no lock is held across store calls.
type Manager struct {
	store Store
	clock Clock
	delay time.Duration
	log   zerolog.Logger

	mu       sync.Mutex
	notes    []notes.Note // local order: load order, creations prepended
	activeID string
	loading  int
	err      *notes.Error
	states   map[string]SaveState

	pending  *pendingEdit
	timer    Timer
	timerGen uint64

	// per-note save sequence: issued and last reconciled
	issued  map[string]uint64
	applied map[string]uint64

	closed    bool
	version   uint64
	listeners map[int]func(Snapshot)
	nextSub   int
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the wall clock, mainly for tests
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithSaveDelay sets the autosave quiet period
func WithSaveDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New creates a Manager over store. Call Load to populate it.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		clock:     realClock{},
		delay:     DefaultSaveDelay,
		log:       logs.Logger,
		states:    make(map[string]SaveState),
		issued:    make(map[string]uint64),
		applied:   make(map[string]uint64),
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With().Str("component", "session").Logger()
	return m
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. Calls happen outside the manager's lock, possibly from a
// timer goroutine. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Notes returns the collection in local order (not sorted)
func (m *Manager) Notes() []notes.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notes.Note, len(m.notes))
	copy(out, m.notes)
	return out
}

// Load fetches the full list, replacing the local collection. When nothing
// is selected the first returned note becomes active.
func (m *Manager) Load(ctx context.Context) error {
	m.begin()

	list, err := m.store.List(ctx)

	m.mu.Lock()
	m.loading--
	if err != nil {
		e := m.failLocked("load", err)
		m.mu.Unlock()
		m.notify()
		return e
	}

	m.notes = make([]notes.Note, len(list))
	copy(m.notes, list)

	present := make(map[string]bool, len(list))
	for _, n := range list {
		present[n.ID] = true
	}
	for id := range m.states {
		if !present[id] {
			delete(m.states, id)
		}
	}
	for _, n := range list {
		if _, ok := m.states[n.ID]; !ok {
			m.states[n.ID] = StateClean
		}
	}
	// Keep showing an edit that has not been saved yet
	if m.pending != nil {
		if i := notes.IndexOf(m.notes, m.pending.note.ID); i >= 0 {
			m.notes[i] = m.pending.note
		}
	}
	if m.activeID != "" && !present[m.activeID] {
		m.activeID = ""
	}
	if m.activeID == "" && len(m.notes) > 0 {
		m.activeID = m.notes[0].ID
	}
	m.log.Info().Int("count", len(m.notes)).Msg("notes loaded")
	m.mu.Unlock()

	m.notify()
	return nil
}

// Create adds a blank "Untitled" note, prepends it and makes it active.
func (m *Manager) Create(ctx context.Context) (notes.Note, error) {
	m.begin()

	created, err := m.store.Create(ctx, notes.Fields{
		Title:   notes.String(notes.DefaultTitle),
		Content: notes.String(""),
	})

	m.mu.Lock()
	m.loading--
	if err != nil {
		e := m.failLocked("create", err)
		m.mu.Unlock()
		m.notify()
		return notes.Note{}, e
	}

	m.notes = append([]notes.Note{created}, m.notes...)
	m.activeID = created.ID
	m.states[created.ID] = StateClean
	m.log.Info().Str("note_id", created.ID).Msg("note created")
	m.mu.Unlock()

	m.notify()
	return created, nil
}

// Select makes the note with the given id active, or clears the selection
// for "". Ids not in the collection are rejected.
func (m *Manager) Select(id string) bool {
	m.mu.Lock()
	if id != "" && notes.IndexOf(m.notes, id) < 0 {
		m.mu.Unlock()
		return false
	}
	changed := m.activeID != id
	m.activeID = id
	m.mu.Unlock()

	if changed {
		m.notify()
	}
	return true
}

// Update applies p to the local note immediately and schedules a save after
// the quiet period. Each call re-arms the timer; only the latest edit is sent.
func (m *Manager) Update(p notes.Patch) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if p.ID == "" {
		e := m.failLocked("update", notes.Validation("update", notes.ErrIDRequired))
		m.mu.Unlock()
		m.notify()
		return e
	}
	i := notes.IndexOf(m.notes, p.ID)
	if i < 0 {
		e := m.failLocked("update", notes.Validation("update", notes.ErrUnknownNote))
		m.mu.Unlock()
		m.notify()
		return e
	}

	now := m.clock.Now().UTC()
	merged := p.Apply(m.notes[i])
	merged.UpdatedAt = now
	m.notes[i] = merged

	// A pending edit of another note is sent right away instead of being replaced.
	var other *pendingEdit
	var otherSeq uint64
	if m.pending != nil && m.pending.note.ID != p.ID {
		other = m.pending
		m.pending = nil
		otherSeq = m.startSaveLocked(other.note.ID)
	}

	since := now
	if m.pending != nil {
		since = m.pending.since
	}
	m.pending = &pendingEdit{note: merged, since: since}
	if m.states[p.ID] != StateSaving {
		m.states[p.ID] = StateDirty
	}
	m.armLocked()
	m.mu.Unlock()

	m.notify()

	if other != nil {
		go m.save(context.Background(), *other, otherSeq)
	}
	return nil
}

// Flush sends the pending edit now instead of waiting for the timer.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	p, seq, ok := m.takePendingLocked()
	m.mu.Unlock()
	if !ok {
		return nil
	}

	m.notify()
	return m.save(ctx, p, seq)
}

// Delete removes the note remotely and then locally. When the active note is
// deleted the first remaining note in local order becomes active.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if id == "" {
		m.mu.Lock()
		e := m.failLocked("delete", notes.Validation("delete", notes.ErrIDRequired))
		m.mu.Unlock()
		m.notify()
		return e
	}

	m.begin()

	err := m.store.Delete(ctx, id)

	m.mu.Lock()
	m.loading--
	if err != nil {
		e := m.failLocked("delete", err)
		m.mu.Unlock()
		m.notify()
		return e
	}

	if i := notes.IndexOf(m.notes, id); i >= 0 {
		m.notes = append(m.notes[:i:i], m.notes[i+1:]...)
	}
	delete(m.states, id)
	if m.pending != nil && m.pending.note.ID == id {
		m.pending = nil
		m.stopTimerLocked()
	}
	if m.activeID == id {
		m.activeID = ""
		if len(m.notes) > 0 {
			m.activeID = m.notes[0].ID
		}
	}
	m.log.Info().Str("note_id", id).Msg("note deleted")
	m.mu.Unlock()

	m.notify()
	return nil
}

// ClearError drops the current error
func (m *Manager) ClearError() {
	m.mu.Lock()
	had := m.err != nil
	m.err = nil
	m.mu.Unlock()
	if had {
		m.notify()
	}
}

// Close cancels the armed save timer. A save already in flight still
// completes; no new one is started.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopTimerLocked()
	if m.pending != nil {
		m.log.Warn().Str("note_id", m.pending.note.ID).Msg("closing with unsaved edit")
	}
	m.mu.Unlock()
}

// begin marks the start of a list/create/delete request
func (m *Manager) begin() {
	m.mu.Lock()
	m.loading++
	m.err = nil
	m.mu.Unlock()
	m.notify()
}

// armLocked cancels the previous timer and schedules a new one
func (m *Manager) armLocked() {
	m.stopTimerLocked()
	gen := m.timerGen
	m.timer = m.clock.AfterFunc(m.delay, func() { m.fire(gen) })
}

// stopTimerLocked is the single cancellation path, used for re-arming,
// deletes and Close. Bumping the generation also voids a callback that has
// already started running.
func (m *Manager) stopTimerLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// fire runs when the quiet period elapses
func (m *Manager) fire(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.timerGen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	p, seq, ok := m.takePendingLocked()
	m.mu.Unlock()
	if !ok {
		return
	}

	m.notify()
	_ = m.save(context.Background(), p, seq)
}

// takePendingLocked empties the pending slot and marks its note as saving
func (m *Manager) takePendingLocked() (pendingEdit, uint64, bool) {
	if m.pending == nil {
		return pendingEdit{}, 0, false
	}
	p := *m.pending
	m.pending = nil
	m.stopTimerLocked()
	return p, m.startSaveLocked(p.note.ID), true
}

func (m *Manager) startSaveLocked(id string) uint64 {
	m.issued[id]++
	m.states[id] = StateSaving
	return m.issued[id]
}

// save sends one edit and reconciles the response
func (m *Manager) save(ctx context.Context, p pendingEdit, seq uint64) error {
	id := p.note.ID
	start := m.clock.Now()
	saved, err := m.store.Update(ctx, p.note)

	m.mu.Lock()
	exists := notes.IndexOf(m.notes, id) >= 0
	pendingNewer := m.pending != nil && m.pending.note.ID == id
	inFlightNewer := m.issued[id] > seq
	var result error
	switch {
	case seq < m.applied[id]:
		// An older request finished after a newer one was applied
		m.log.Debug().Err(err).Str("note_id", id).Uint64("seq", seq).Msg("ignoring stale save response")

	case err != nil:
		result = m.failLocked("save", err)
		if exists {
			switch {
			case pendingNewer:
				m.states[id] = StateDirty
			case inFlightNewer:
				// the newer request decides the final state
			default:
				m.states[id] = StateFailed
			}
		}
		m.log.Error().Err(err).Str("note_id", id).Dur("pending_for", m.clock.Now().Sub(p.since)).Msg("autosave failed")

	case !exists:
		// deleted while saving
		m.applied[id] = seq

	case pendingNewer || inFlightNewer:
		// Keep the newer local text; adopt the server timestamps
		m.applied[id] = seq
		i := notes.IndexOf(m.notes, id)
		m.notes[i].CreatedAt = saved.CreatedAt
		m.notes[i].UpdatedAt = saved.UpdatedAt
		if pendingNewer {
			m.states[id] = StateDirty
		}

	default:
		m.applied[id] = seq
		m.notes[notes.IndexOf(m.notes, id)] = saved
		m.states[id] = StateClean
		m.log.Debug().Str("note_id", id).Dur("duration", m.clock.Now().Sub(start)).Msg("note saved")
	}
	m.mu.Unlock()

	m.notify()
	return result
}

// failLocked records err as the current error and returns it tagged
func (m *Manager) failLocked(op string, err error) *notes.Error {
	var e *notes.Error
	if !errors.As(err, &e) {
		e = notes.Backend(op, err)
	}
	m.err = e
	return e
}

func (m *Manager) snapshotLocked() Snapshot {
	states := make(map[string]SaveState, len(m.states))
	for id, s := range m.states {
		states[id] = s
	}
	snap := Snapshot{
		Version:  m.version,
		Notes:    notes.Sorted(m.notes),
		ActiveID: m.activeID,
		Loading:  m.loading > 0,
		Err:      m.err,
		States:   states,
	}
	if m.pending != nil {
		snap.PendingID = m.pending.note.ID
		snap.PendingSince = m.pending.since
	}
	return snap
}

func (m *Manager) notify() {
	m.mu.Lock()
	if len(m.listeners) == 0 {
		m.mu.Unlock()
		return
	}
	m.version++
	snap := m.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
