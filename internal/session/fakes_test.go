package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"notely/internal/notes"
)

// fakeClock fires timers only when advanced
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due timers on the calling goroutine
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Armed returns the number of timers that are neither stopped nor fired
func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory Store with failure injection and gates that
// hold individual update calls until released
type fakeStore struct {
	mu         sync.Mutex
	rows       []notes.Note
	serverTime time.Time
	nextID     int

	listErr, createErr, updateErr, deleteErr error

	lists, creates, deletes int
	updates                 []notes.Note
	gates                   map[int]chan struct{} // by update call index
	callErrs                map[int]error         // by update call index
	started                 chan notes.Note
}

func newFakeStore(rows ...notes.Note) *fakeStore {
	return &fakeStore{
		rows:       rows,
		serverTime: time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC),
		gates:      make(map[int]chan struct{}),
		callErrs:   make(map[int]error),
		started:    make(chan notes.Note, 16),
	}
}

func (s *fakeStore) List(ctx context.Context) ([]notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, notes.Backend("list", s.listErr)
	}
	return notes.Sorted(s.rows), nil
}

func (s *fakeStore) Create(ctx context.Context, f notes.Fields) (notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return notes.Note{}, notes.Backend("create", s.createErr)
	}
	s.nextID++
	n := notes.Note{
		ID:        fmt.Sprintf("new-%d", s.nextID),
		Title:     *f.Title,
		Content:   *f.Content,
		CreatedAt: s.serverTime,
		UpdatedAt: s.serverTime,
	}
	s.rows = append(s.rows, n)
	return n, nil
}

func (s *fakeStore) Update(ctx context.Context, n notes.Note) (notes.Note, error) {
	s.mu.Lock()
	idx := len(s.updates)
	s.updates = append(s.updates, n)
	gate := s.gates[idx]
	callErr := s.callErrs[idx]
	s.mu.Unlock()

	s.started <- n
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if callErr != nil {
		return notes.Note{}, notes.Backend("update", callErr)
	}
	if s.updateErr != nil {
		return notes.Note{}, notes.Backend("update", s.updateErr)
	}
	s.serverTime = s.serverTime.Add(time.Second)
	for i := range s.rows {
		if s.rows[i].ID == n.ID {
			s.rows[i].Title = n.Title
			s.rows[i].Content = n.Content
			s.rows[i].UpdatedAt = s.serverTime
			return s.rows[i], nil
		}
	}
	return notes.Note{}, notes.Backend("update", fmt.Errorf("no row %s", n.ID))
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return notes.Backend("delete", s.deleteErr)
	}
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) Updates() []notes.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notes.Note, len(s.updates))
	copy(out, s.updates)
	return out
}

func (s *fakeStore) set(fn func(s *fakeStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// seedNotes returns n notes with strictly increasing updated_at
func seedNotes(n int) []notes.Note {
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]notes.Note, n)
	for i := range out {
		out[i] = notes.Note{
			ID:        fmt.Sprintf("n%d", i+1),
			Title:     fmt.Sprintf("note %d", i+1),
			CreatedAt: t0,
			UpdatedAt: t0.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}
