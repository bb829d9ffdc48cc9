package messages

import "notely/internal/session"

// Pane identifies which part of the screen has keyboard focus
type Pane int

const (
	PaneList Pane = iota
	PaneEditor
)

// SessionChangedMsg carries a snapshot published by the session manager
type SessionChangedMsg struct {
	Snapshot session.Snapshot
}

// OpDoneMsg reports the end of a session operation started by a command.
// The error, if any, is also recorded in the session snapshot.
type OpDoneMsg struct {
	Op  string // load, create, delete, flush
	Err error
}

// QuitMsg is sent once pending edits are flushed and the program may exit
type QuitMsg struct{}
