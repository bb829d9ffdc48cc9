package shared

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"notely/internal/tui/theme"
)

// HelpBind represents a single keybind entry
type HelpBind struct {
	Key  string
	Desc string
}

// HelpSection represents a group of related keybinds
type HelpSection struct {
	Title string
	Binds []HelpBind
}

// RenderHelpPopup renders a centered help popup with the given sections
func RenderHelpPopup(t theme.Theme, sections []HelpSection, width, height int) string {
	line := func(key, desc string) string {
		return "  " + t.HelpKey.Width(14).Render(key) + t.HelpDesc.Render(desc)
	}

	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.HelpSection.Render(section.Title) + "\n")
		for _, bind := range section.Binds {
			b.WriteString(line(bind.Key, bind.Desc) + "\n")
		}
	}
	b.WriteString("\n" + t.ModalHelp.Render("Press any key to close"))

	box := t.ModalBox.Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
