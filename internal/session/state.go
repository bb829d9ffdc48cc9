package session

import (
	"time"

	"notely/internal/notes"
)

// SaveState is the autosave state of one note
type SaveState int

const (
	StateClean  SaveState = iota // local matches the last saved record
	StateDirty                   // edited, save timer armed
	StateSaving                  // save request in flight
	StateFailed                  // last save failed, local copy is stale
)

func (s SaveState) String() string {
	switch s {
	case StateClean:
		return "saved"
	case StateDirty:
		return "editing"
	case StateSaving:
		return "saving"
	case StateFailed:
		return "not saved"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session state
type Snapshot struct {
	Version      uint64       // increases with every change notification
	Notes        []notes.Note // most recently updated first
	ActiveID     string
	Loading      bool
	Err          *notes.Error
	States       map[string]SaveState
	PendingID    string    // note waiting for the save timer, if any
	PendingSince time.Time // when that edit was first made
}

// Active returns the active note
func (s Snapshot) Active() (notes.Note, bool) {
	if s.ActiveID == "" {
		return notes.Note{}, false
	}
	i := notes.IndexOf(s.Notes, s.ActiveID)
	if i < 0 {
		return notes.Note{}, false
	}
	return s.Notes[i], true
}

// State returns the save state of the note with the given id
func (s Snapshot) State(id string) SaveState {
	return s.States[id]
}
