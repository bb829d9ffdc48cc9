// Package notelist renders the sidebar of notes and tracks the cursor.
package notelist

import (
	"fmt"
	"strings"
	"time"

	"notely/internal/notes"
	"notely/internal/session"
	"notely/internal/tui/shared"
	"notely/internal/tui/theme"
)

// Model is the note list pane. The cursor always sits on the active note
// when there is one.
type Model struct {
	notes  []notes.Note
	states map[string]session.SaveState
	cursor int
	offset int
	width  int
	height int
	theme  theme.Theme
	now    func() time.Time
}

func New(t theme.Theme) Model {
	return Model{theme: t, now: time.Now}
}

func (m *Model) SetTheme(t theme.Theme) { m.theme = t }

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.scroll()
}

// SetSnapshot replaces the rows and moves the cursor to the active note
func (m *Model) SetSnapshot(s session.Snapshot) {
	m.notes = s.Notes
	m.states = s.States
	if i := notes.IndexOf(m.notes, s.ActiveID); i >= 0 {
		m.cursor = i
	}
	if m.cursor >= len(m.notes) {
		m.cursor = len(m.notes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

// Move shifts the cursor by delta and returns the id under it
func (m *Model) Move(delta int) (string, bool) {
	if len(m.notes) == 0 {
		return "", false
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.notes) {
		m.cursor = len(m.notes) - 1
	}
	m.scroll()
	return m.notes[m.cursor].ID, true
}

// Top and Bottom jump to the first and last row
func (m *Model) Top() (string, bool) { return m.Move(-len(m.notes)) }
func (m *Model) Bottom() (string, bool) { return m.Move(len(m.notes)) }

// Current returns the note under the cursor
func (m Model) Current() (notes.Note, bool) {
	if m.cursor < 0 || m.cursor >= len(m.notes) {
		return notes.Note{}, false
	}
	return m.notes[m.cursor], true
}

// rows per note: title line and detail line
const rowHeight = 2

func (m *Model) visible() int {
	v := m.height / rowHeight
	if v < 1 {
		return 1
	}
	return v
}

func (m *Model) scroll() {
	v := m.visible()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+v {
		m.offset = m.cursor - v + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) View() string {
	t := m.theme
	if len(m.notes) == 0 {
		return shared.CenterContent(t.Muted.Render("No notes yet.\nPress n to create one."), m.height)
	}

	inner := m.width
	if inner < 4 {
		inner = 4
	}

	var lines []string
	end := m.offset + m.visible()
	if end > len(m.notes) {
		end = len(m.notes)
	}
	for i := m.offset; i < end; i++ {
		n := m.notes[i]
		marker := "  "
		titleStyle := t.Text
		if i == m.cursor {
			marker = t.Cursor.Render("> ")
			titleStyle = t.SelectedBg.Bold(true)
		}
		title := shared.Truncate(n.DisplayTitle(), inner-4) + stateMark(m.states[n.ID])
		lines = append(lines, marker+titleStyle.Render(title))

		detail := relativeTime(m.now(), n.UpdatedAt)
		if first := shared.FirstLine(n.Content); first != "" {
			detail += " · " + first
		}
		lines = append(lines, "  "+t.Muted.Render(shared.Truncate(detail, inner-2)))
	}

	if len(m.notes) > end || m.offset > 0 {
		lines = append(lines, t.Muted.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.notes))))
	}
	return strings.Join(lines, "\n")
}

func stateMark(s session.SaveState) string {
	switch s {
	case session.StateDirty, session.StateSaving:
		return " •"
	case session.StateFailed:
		return " !"
	default:
		return ""
	}
}

// relativeTime formats t relative to now, e.g. "just now", "5m ago", "Jan 2"
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case t.Year() == now.Year():
		return t.Local().Format("Jan 2")
	default:
		return t.Local().Format("Jan 2 2006")
	}
}
