package shared

import (
	tea "github.com/charmbracelet/bubbletea"

	"notely/internal/tui/theme"
)

// ConfirmationModal displays a simple yes/no confirmation dialog
type ConfirmationModal struct {
	Message string // Primary question
	Details string // Additional context (optional)
	Width   int
	Payload string // carried back in the result, e.g. a note id
}

// ConfirmationResultMsg is sent when the user answers
type ConfirmationResultMsg struct {
	Confirmed bool
	Payload   string
}

// NewConfirmationModal creates a new confirmation modal
func NewConfirmationModal(message, details, payload string, width int) *ConfirmationModal {
	return &ConfirmationModal{
		Message: message,
		Details: details,
		Width:   width,
		Payload: payload,
	}
}

// Update handles key events. Keys other than yes/no are ignored.
func (m *ConfirmationModal) Update(msg tea.KeyMsg) tea.Cmd {
	var confirmed bool
	switch msg.String() {
	case "y", "Y", "enter":
		confirmed = true
	case "n", "N", "esc":
		confirmed = false
	default:
		return nil
	}
	payload := m.Payload
	return func() tea.Msg {
		return ConfirmationResultMsg{Confirmed: confirmed, Payload: payload}
	}
}

// View renders the modal box
func (m *ConfirmationModal) View(t theme.Theme) string {
	content := t.ModalTitle.Render(m.Message) + "\n"
	if m.Details != "" {
		content += "\n" + m.Details + "\n"
	}
	content += "\n"
	content += t.Ok.Render("[y]") + " Yes  "
	content += t.Error.Render("[n/esc]") + " No"

	return t.ModalBox.Width(m.Width).Render(content)
}
