package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name    string
	Primary lipgloss.Color // tracks
	Accent  lipgloss.Color // headers
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeDefault = Theme{
		Name:    "default",
		Primary: lipgloss.Color("49"),
		Accent:  lipgloss.Color("86"),
		Text:    lipgloss.Color("252"),
		Muted:   lipgloss.Color("245"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	Themes = []Theme{ThemeDefault, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns a theme by name, or the default theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDefault
}

// NextTheme returns the theme after t in Themes.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDefault
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	status lipgloss.Style
	paused lipgloss.Style
	stats  lipgloss.Style
	canvas lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		header: lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		graph:  lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		status: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		paused: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		stats:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(48),
		canvas: lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 2),
	}
}
