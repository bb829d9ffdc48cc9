package tui

import "notely/internal/tui/messages"

// Re-export types from messages package for convenience
type Pane = messages.Pane

const (
	PaneList   = messages.PaneList
	PaneEditor = messages.PaneEditor
)

type SessionChangedMsg = messages.SessionChangedMsg
type OpDoneMsg = messages.OpDoneMsg
type QuitMsg = messages.QuitMsg
