package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	colorPrimary = lipgloss.Color("#101F38")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#2a3850")
	colorWarning = lipgloss.Color("#FFC107")
)

// Styles holds the lipgloss styles used by the storefront view.
type Styles struct {
	Header   lipgloss.Style
	Badge    lipgloss.Style
	Banner   lipgloss.Style
	CTA      lipgloss.Style
	Pane     lipgloss.Style
	Title    lipgloss.Style
	Selected lipgloss.Style
	Price    lipgloss.Style
	Muted    lipgloss.Style
	Total    lipgloss.Style
	Button   lipgloss.Style
	Status   lipgloss.Style
}

// DefaultStyles returns the standard storefront styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(colorPrimary).
			Padding(0, 1),
		Banner: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
		CTA:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Pane:  lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorBorder).Padding(0, 1),
		Title: lipgloss.NewStyle().Bold(true),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent),
		Price:  lipgloss.NewStyle().Foreground(colorWarning),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
		Total:  lipgloss.NewStyle().Bold(true),
		Button: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(colorAccent).Padding(0, 1),
		Status: lipgloss.NewStyle().Italic(true).Foreground(colorWarning),
	}
}

// focused returns the pane style with a highlighted border.
func (s Styles) focused() lipgloss.Style {
	return s.Pane.BorderForeground(colorAccent)
}
