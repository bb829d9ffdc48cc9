// Package editor is the title and body editor for the active note.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notely/internal/notes"
	"notely/internal/tui/shared"
	"notely/internal/tui/theme"
)

type field int

const (
	fieldTitle field = iota
	fieldContent
)

// Model edits one note. Keystrokes change the widgets immediately; the
// caller collects the resulting edit with TakePatch.
type Model struct {
	noteID  string
	title   textinput.Model
	content textarea.Model
	field   field
	focused bool

	// values last exchanged with the session
	syncedTitle   string
	syncedContent string

	width  int
	height int
	theme  theme.Theme
}

func New(t theme.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = notes.DefaultTitle
	ti.Prompt = ""
	ti.CharLimit = 0

	ta := textarea.New()
	ta.Placeholder = "Start writing…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""

	m := Model{title: ti, content: ta}
	m.SetTheme(t)
	return m
}

func (m *Model) SetTheme(t theme.Theme) {
	m.theme = t
	m.title.TextStyle = t.Bold
	m.title.PlaceholderStyle = t.Muted
	m.content.FocusedStyle.CursorLine = lipgloss.NewStyle()
	m.content.FocusedStyle.Placeholder = t.Muted
	m.content.BlurredStyle.Placeholder = t.Muted
	m.content.FocusedStyle.Text = t.Text
	m.content.BlurredStyle.Text = t.Muted
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.title.Width = width - 3
	m.content.SetWidth(width)
	// title row and separator
	h := height - 2
	if h < 1 {
		h = 1
	}
	m.content.SetHeight(h)
}

// NoteID is the id of the note being edited, "" when empty
func (m Model) NoteID() string { return m.noteID }

func (m Model) Focused() bool { return m.focused }

// SetNote shows n. While focused on the same note the local text is kept,
// since it is never older than what the session reports.
func (m *Model) SetNote(n notes.Note, ok bool) {
	if !ok {
		m.noteID = ""
		m.load("", "")
		return
	}
	if n.ID == m.noteID && m.focused {
		return
	}
	if n.ID != m.noteID {
		m.field = fieldTitle
	}
	m.noteID = n.ID
	if n.Title != m.title.Value() || n.Content != m.content.Value() {
		m.load(n.Title, n.Content)
	} else {
		m.syncedTitle, m.syncedContent = n.Title, n.Content
	}
}

func (m *Model) load(title, content string) {
	m.title.SetValue(title)
	m.content.SetValue(content)
	// the widgets normalize text (tabs become spaces), so compare against
	// what they hold rather than the raw note
	m.syncedTitle, m.syncedContent = m.title.Value(), m.content.Value()
}

// Focus starts editing; no-op without a note
func (m *Model) Focus() tea.Cmd {
	if m.noteID == "" {
		return nil
	}
	m.focused = true
	return m.focusField()
}

func (m *Model) Blur() {
	m.focused = false
	m.title.Blur()
	m.content.Blur()
}

func (m *Model) focusField() tea.Cmd {
	if m.field == fieldTitle {
		m.content.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	return m.content.Focus()
}

// Update forwards keys to the focused widget. tab switches fields and
// enter in the title moves to the body.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab":
			if m.field == fieldTitle {
				m.field = fieldContent
			} else {
				m.field = fieldTitle
			}
			return m, m.focusField()
		case "enter":
			if m.field == fieldTitle {
				m.field = fieldContent
				return m, m.focusField()
			}
		}
	}

	var cmd tea.Cmd
	if m.field == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

// TakePatch returns the fields changed since the last call or SetNote
func (m *Model) TakePatch() (notes.Patch, bool) {
	if m.noteID == "" {
		return notes.Patch{}, false
	}
	p := notes.Patch{ID: m.noteID}
	if v := m.title.Value(); v != m.syncedTitle {
		p.Title = notes.String(v)
		m.syncedTitle = v
	}
	if v := m.content.Value(); v != m.syncedContent {
		p.Content = notes.String(v)
		m.syncedContent = v
	}
	return p, p.Title != nil || p.Content != nil
}

func (m Model) View() string {
	t := m.theme
	if m.noteID == "" {
		return shared.CenterContent(t.Muted.Render("No note selected."), m.height)
	}

	label := t.Muted
	if m.focused && m.field == fieldTitle {
		label = t.Subtitle
	}
	sep := t.Muted.Render(strings.Repeat("─", max(m.width, 0)))
	return lipgloss.JoinVertical(lipgloss.Left,
		label.Render("# ")+m.title.View(),
		sep,
		m.content.View(),
	)
}
