package theme

import "github.com/charmbracelet/lipgloss"

const (
	NameDark  = "dark"
	NameLight = "light"
)

// Palette is the set of colors a theme is built from
type Palette struct {
	Text       lipgloss.Color
	TextMuted  lipgloss.Color
	TextBright lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Danger    lipgloss.Color
	Surface   lipgloss.Color // selection background

	Border        lipgloss.Color
	BorderFocused lipgloss.Color
}

// ---------------------------------------------------------------------------
// Palettes: ANSI 0-15 plus one 256-color surface
// ---------------------------------------------------------------------------

var darkPalette = Palette{
	Text:          lipgloss.Color("7"),
	TextMuted:     lipgloss.Color("8"),
	TextBright:    lipgloss.Color("15"),
	Primary:       lipgloss.Color("4"),
	Secondary:     lipgloss.Color("6"),
	Success:       lipgloss.Color("2"),
	Warning:       lipgloss.Color("3"),
	Danger:        lipgloss.Color("1"),
	Surface:       lipgloss.Color("236"),
	Border:        lipgloss.Color("8"),
	BorderFocused: lipgloss.Color("4"),
}

var lightPalette = Palette{
	Text:          lipgloss.Color("0"),
	TextMuted:     lipgloss.Color("245"),
	TextBright:    lipgloss.Color("16"),
	Primary:       lipgloss.Color("25"),
	Secondary:     lipgloss.Color("30"),
	Success:       lipgloss.Color("28"),
	Warning:       lipgloss.Color("130"),
	Danger:        lipgloss.Color("160"),
	Surface:       lipgloss.Color("254"),
	Border:        lipgloss.Color("250"),
	BorderFocused: lipgloss.Color("25"),
}

// Theme holds every style the UI renders with
type Theme struct {
	Name    string
	Palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Error lipgloss.Style
	Warn  lipgloss.Style
	Ok    lipgloss.Style

	Cursor     lipgloss.Style
	SelectedBg lipgloss.Style

	Header    lipgloss.Style
	StatusBar lipgloss.Style
	HelpHint  lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style

	ModalBox   lipgloss.Style
	ModalTitle lipgloss.Style
	ModalHelp  lipgloss.Style

	HelpSection lipgloss.Style
	HelpKey     lipgloss.Style
	HelpDesc    lipgloss.Style
}

// Dark is the default theme
func Dark() Theme { return build(NameDark, darkPalette) }

// Light is a theme for light terminal backgrounds
func Light() Theme { return build(NameLight, lightPalette) }

// ByName returns the named theme, falling back to Dark
func ByName(name string) Theme {
	if name == NameLight {
		return Light()
	}
	return Dark()
}

// Toggled returns the other theme
func (t Theme) Toggled() Theme {
	if t.Name == NameLight {
		return Dark()
	}
	return Light()
}

func build(name string, p Palette) Theme {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	return Theme{
		Name:    name,
		Palette: p,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		Text:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.TextMuted),
		Bold:     lipgloss.NewStyle().Bold(true),

		Error: lipgloss.NewStyle().Bold(true).Foreground(p.Danger),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(p.Warning),
		Ok:    lipgloss.NewStyle().Bold(true).Foreground(p.Success),

		Cursor:     lipgloss.NewStyle().Bold(true).Foreground(p.Success),
		SelectedBg: lipgloss.NewStyle().Foreground(p.TextBright).Background(p.Surface),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border).
			PaddingLeft(1),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.TextMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(p.Border),
		HelpHint: lipgloss.NewStyle().Foreground(p.TextMuted),

		Pane:        pane,
		PaneFocused: pane.BorderForeground(p.BorderFocused),

		ModalBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().Bold(true).Foreground(p.Warning),
		ModalHelp:  lipgloss.NewStyle().Foreground(p.TextMuted),

		HelpSection: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		HelpKey:     lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		HelpDesc:    lipgloss.NewStyle().Foreground(p.Text),
	}
}
