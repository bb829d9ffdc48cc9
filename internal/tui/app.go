package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notely/internal/config"
	"notely/internal/logs"
	"notely/internal/session"
	"notely/internal/tui/editor"
	"notely/internal/tui/notelist"
	"notely/internal/tui/shared"
	"notely/internal/tui/theme"
)

// AppModel is the root model: the note list on the left and the editor for
// the active note on the right. All note state lives in the session; the
// model only keeps the latest snapshot and UI state.
type AppModel struct {
	ctx      context.Context
	cfg      *config.Config
	sess     *session.Manager
	snap     session.Snapshot
	theme    theme.Theme
	list     notelist.Model
	editor   editor.Model
	focus    Pane
	confirm  *shared.ConfirmationModal
	showHelp bool
	quitting bool
	width    int
	height   int
	ready    bool
}

// NewAppModel creates the root application model
func NewAppModel(ctx context.Context, cfg *config.Config, sess *session.Manager) AppModel {
	t := theme.ByName(cfg.Theme)
	return AppModel{
		ctx:    ctx,
		cfg:    cfg,
		sess:   sess,
		theme:  t,
		list:   notelist.New(t),
		editor: editor.New(t),
		focus:  PaneList,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case SessionChangedMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case OpDoneMsg:
		m.applySnapshot(m.sess.Snapshot())
		if msg.Err != nil {
			logs.Logger.Warn().Err(msg.Err).Str("op", msg.Op).Msg("operation failed")
			return m, nil
		}
		if msg.Op == "create" {
			return m, m.setFocus(PaneEditor)
		}
		return m, nil

	case shared.ConfirmationResultMsg:
		m.confirm = nil
		if msg.Confirmed {
			return m, m.deleteCmd(msg.Payload)
		}
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blinks and other widget messages
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	// ctrl+c always quits, even from modals
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	// Dismiss help overlay on any key
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.confirm != nil {
		return m, m.confirm.Update(msg)
	}

	switch msg.String() {
	case "ctrl+t":
		m.setTheme(m.theme.Toggled())
		return m, nil
	case "ctrl+s":
		return m, m.flushCmd()
	}

	if m.focus == PaneEditor {
		if msg.String() == "esc" {
			return m, m.setFocus(PaneList)
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		m.pushEdit()
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "?":
		m.showHelp = true
	case "j", "down":
		m.selectID(m.list.Move(1))
	case "k", "up":
		m.selectID(m.list.Move(-1))
	case "g", "home":
		m.selectID(m.list.Top())
	case "G", "end":
		m.selectID(m.list.Bottom())
	case "enter", "e", "i":
		return m, m.setFocus(PaneEditor)
	case "n":
		return m, m.createCmd()
	case "d", "x":
		if n, ok := m.snap.Active(); ok {
			m.confirm = shared.NewConfirmationModal("Delete note?", n.DisplayTitle(), n.ID, 50)
		}
	case "r":
		return m, m.loadCmd()
	case "esc":
		m.sess.ClearError()
		m.applySnapshot(m.sess.Snapshot())
	}
	return m, nil
}

// applySnapshot adopts s unless a newer snapshot was already applied
func (m *AppModel) applySnapshot(s session.Snapshot) {
	if s.Version < m.snap.Version {
		return
	}
	m.snap = s
	m.list.SetSnapshot(s)
	n, ok := s.Active()
	m.editor.SetNote(n, ok)
	if !ok && m.focus == PaneEditor {
		m.focus = PaneList
		m.editor.Blur()
	}
}

// pushEdit hands the editor's latest change to the session
func (m *AppModel) pushEdit() {
	p, ok := m.editor.TakePatch()
	if !ok {
		return
	}
	if err := m.sess.Update(p); err != nil {
		logs.Logger.Warn().Err(err).Str("note_id", p.ID).Msg("edit rejected")
	}
	m.applySnapshot(m.sess.Snapshot())
}

func (m *AppModel) selectID(id string, ok bool) {
	if !ok {
		return
	}
	m.sess.Select(id)
	m.applySnapshot(m.sess.Snapshot())
}

func (m *AppModel) setFocus(p Pane) tea.Cmd {
	if p == PaneEditor {
		cmd := m.editor.Focus()
		if m.editor.Focused() {
			m.focus = PaneEditor
		}
		return cmd
	}
	m.editor.Blur()
	m.focus = PaneList
	return nil
}

func (m *AppModel) setTheme(t theme.Theme) {
	m.theme = t
	m.list.SetTheme(t)
	m.editor.SetTheme(t)
}

// ---------------------------------------------------------------------------
// Commands: session calls run off the update loop and report back
// ---------------------------------------------------------------------------

func (m AppModel) loadCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "load", Err: sess.Load(ctx)}
	}
}

func (m AppModel) createCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		_, err := sess.Create(ctx)
		return OpDoneMsg{Op: "create", Err: err}
	}
}

func (m AppModel) deleteCmd(id string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "delete", Err: sess.Delete(ctx, id)}
	}
}

func (m AppModel) flushCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "flush", Err: sess.Flush(ctx)}
	}
}

// quit saves the pending edit before exiting
func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.pushEdit()
	m.quitting = true
	sess, ctx := m.sess, m.ctx
	return m, func() tea.Msg {
		if err := sess.Flush(ctx); err != nil {
			logs.Logger.Error().Err(err).Msg("final save failed")
		}
		sess.Close()
		return QuitMsg{}
	}
}

// ---------------------------------------------------------------------------
// Layout and rendering
// ---------------------------------------------------------------------------

const (
	headerHeight = 2 // text + bottom border
	statusHeight = 2 // top border + text
	paneChrome   = 2 // border on each side
	panePadding  = 2 // one column each side
)

func (m AppModel) bodyHeight() int {
	return max(m.height-headerHeight-statusHeight, 3)
}

func (m AppModel) listWidth() int {
	return min(max(m.width/3, 24), m.width)
}

func (m *AppModel) layout() {
	inner := m.bodyHeight() - paneChrome
	lw := m.listWidth()
	m.list.SetSize(lw-paneChrome-panePadding, inner)
	m.editor.SetSize(m.width-lw-paneChrome-panePadding, inner)
}

func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return shared.RenderHelpPopup(m.theme, helpSections, m.width, m.height)
	}

	var body string
	if m.confirm != nil {
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, m.confirm.View(m.theme))
	} else {
		body = m.renderPanes()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatusBar())
}

func (m AppModel) renderPanes() string {
	listStyle, editorStyle := m.theme.PaneFocused, m.theme.Pane
	if m.focus == PaneEditor {
		listStyle, editorStyle = m.theme.Pane, m.theme.PaneFocused
	}
	h := m.bodyHeight() - paneChrome
	lw := m.listWidth()

	return lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Width(lw-paneChrome).Height(h).Render(m.list.View()),
		editorStyle.Width(max(m.width-lw-paneChrome, 1)).Height(h).Render(m.editor.View()),
	)
}

func (m AppModel) renderHeader() string {
	t := m.theme
	left := t.Title.Render("notely")
	count := fmt.Sprintf("%d note", len(m.snap.Notes))
	if len(m.snap.Notes) != 1 {
		count += "s"
	}
	right := t.Muted.Render(fmt.Sprintf("%s · %s · %s theme", count, m.cfg.Backend, t.Name))

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return t.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m AppModel) renderStatusBar() string {
	t := m.theme
	var parts []string

	if m.snap.Loading {
		parts = append(parts, t.Warn.Render("loading…"))
	}
	if n, ok := m.snap.Active(); ok {
		st := m.snap.State(n.ID)
		style := t.Ok
		switch st {
		case session.StateDirty, session.StateSaving:
			style = t.Warn
		case session.StateFailed:
			style = t.Error
		}
		parts = append(parts, style.Render(st.String()))
	}
	if m.snap.Err != nil {
		parts = append(parts, t.Error.Render(m.snap.Err.Error()))
	}

	hints := "n:new  d:delete  enter:edit  ctrl+t:theme  ?:help  q:quit"
	if m.focus == PaneEditor {
		hints = "esc:back  tab:title/body  ctrl+s:save now  ctrl+t:theme"
	}
	parts = append(parts, t.HelpHint.Render(hints))

	return t.StatusBar.Width(m.width).Render(strings.Join(parts, "  │  "))
}

var helpSections = []shared.HelpSection{
	{
		Title: "Notes",
		Binds: []shared.HelpBind{
			{Key: "j / k", Desc: "Next / previous note"},
			{Key: "g / G", Desc: "First / last note"},
			{Key: "enter", Desc: "Edit note"},
			{Key: "n", Desc: "New note"},
			{Key: "d", Desc: "Delete note"},
			{Key: "r", Desc: "Reload"},
			{Key: "esc", Desc: "Dismiss error"},
		},
	},
	{
		Title: "Editor",
		Binds: []shared.HelpBind{
			{Key: "tab", Desc: "Switch title / body"},
			{Key: "esc", Desc: "Back to list"},
			{Key: "ctrl+s", Desc: "Save now"},
		},
	},
	{
		Title: "Global",
		Binds: []shared.HelpBind{
			{Key: "ctrl+t", Desc: "Toggle light / dark theme"},
			{Key: "?", Desc: "Show this help"},
			{Key: "q", Desc: "Save and quit"},
			{Key: "ctrl+c", Desc: "Save and quit"},
		},
	},
}
