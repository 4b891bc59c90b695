package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ramops/bagdesk/internal/api"
)

// Theme is a named palette. Every color is a hex string.
type Theme struct {
	Name string

	Background string // behind overlays
	Surface    string // header and command bar
	SurfaceAlt string // unfocused panes
	FocusBg    string // focused pane

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors is keyed by statusKey.
	StatusColors map[string]string
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style
	SurfaceAlt lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	chipText     string
	chipFallback string
	statusColors map[string]string
}

func fg(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

func panel(bg, text string) lipgloss.Style {
	return fg(text).Background(lipgloss.Color(bg))
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	return Styles{
		Background: lipgloss.NewStyle().Background(lipgloss.Color(t.Background)),
		Surface:    panel(t.Surface, t.Text),
		SurfaceAlt: panel(t.SurfaceAlt, t.Text),

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   panel(t.Surface, t.Text).Padding(0, 1),
		Logo:     fg(t.Danger).Bold(true),
		Selected: panel(t.SelectionBg, t.SelectionText),

		chipText:     t.Background,
		chipFallback: t.Muted,
		statusColors: t.StatusColors,
	}
}

// StatusStyle returns the chip style for a status key.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.statusColors[status]
	if !ok || color == "" {
		color = s.chipFallback
	}
	return panel(color, s.chipText).Padding(0, 1)
}

// WithBackground repaints every text style onto bgHex so nested renders do
// not punch holes in a pane.
func (s Styles) WithBackground(bgHex string) Styles {
	bg := lipgloss.Color(bgHex)
	for _, st := range []*lipgloss.Style{
		&s.Background, &s.Surface, &s.SurfaceAlt,
		&s.Text, &s.MutedText, &s.FaintText, &s.AccentText,
		&s.SuccessText, &s.WarningText, &s.DangerText, &s.InfoText,
		&s.Header, &s.Logo,
	} {
		*st = st.Background(bg)
	}
	return s
}

const (
	statusLost    = "lost"
	statusFound   = "found"
	statusUnknown = "unknown"
)

// statusKey maps a bag onto a StatusColors key.
func statusKey(b api.Baggage) string {
	switch b.State() {
	case api.StatusLost:
		return statusLost
	case api.StatusFound:
		return statusFound
	default:
		return statusUnknown
	}
}

var themeOrder = []Theme{atlasTheme(), tarmacTheme(), saharaTheme()}

// GetTheme returns a theme by name, falling back to Atlas.
func GetTheme(name string) Theme {
	for _, t := range themeOrder {
		if t.Name == name {
			return t
		}
	}
	return themeOrder[0]
}

// NextTheme returns the theme after current in the cycle. Unknown names
// restart the cycle.
func NextTheme(current string) string {
	for i, t := range themeOrder {
		if t.Name == current {
			return themeOrder[(i+1)%len(themeOrder)].Name
		}
	}
	return themeOrder[0].Name
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeOrder))
	for i, t := range themeOrder {
		names[i] = t.Name
	}
	return names
}

// Carrier livery: deep red on charcoal.
func atlasTheme() Theme {
	return Theme{
		Name:       "Atlas",
		Background: "#121212",
		Surface:    "#1b1b1d",
		SurfaceAlt: "#232326",
		FocusBg:    "#2b2b2f",

		SelectionBg:   "#C4002A",
		SelectionText: "#fafafa",
		Border:        "#3a3a40",
		BorderFocus:   "#e0435f",

		Text:    "#ececec",
		Muted:   "#a1a1aa",
		Faint:   "#71717a",
		Accent:  "#e0435f",
		Success: "#4ade80",
		Warning: "#d4a84b",
		Danger:  "#C4002A",
		Info:    "#60a5fa",

		StatusColors: map[string]string{
			statusLost:    "#C4002A",
			statusFound:   "#4ade80",
			statusUnknown: "#d4a84b",
		},
	}
}

// Apron night lighting: sodium amber on blue-grey asphalt.
func tarmacTheme() Theme {
	return Theme{
		Name:       "Tarmac",
		Background: "#0d1117",
		Surface:    "#161c24",
		SurfaceAlt: "#1d2530",
		FocusBg:    "#25303d",

		SelectionBg:   "#b9770e",
		SelectionText: "#0d1117",
		Border:        "#3b4756",
		BorderFocus:   "#f0a830",

		Text:    "#dfe6ee",
		Muted:   "#9aa7b5",
		Faint:   "#687585",
		Accent:  "#f0a830",
		Success: "#5cc98a",
		Warning: "#f0a830",
		Danger:  "#e5534b",
		Info:    "#6cb6ff",

		StatusColors: map[string]string{
			statusLost:    "#e5534b",
			statusFound:   "#5cc98a",
			statusUnknown: "#c69026",
		},
	}
}

// Light terminal palette: sand and terracotta.
func saharaTheme() Theme {
	return Theme{
		Name:       "Sahara",
		Background: "#f6efe3",
		Surface:    "#ecdfc8",
		SurfaceAlt: "#f1e7d6",
		FocusBg:    "#fbf6ee",

		SelectionBg:   "#b5532a",
		SelectionText: "#fff8ee",
		Border:        "#c9b08a",
		BorderFocus:   "#b5532a",

		Text:    "#3b2a1a",
		Muted:   "#6e5a44",
		Faint:   "#9c8769",
		Accent:  "#b5532a",
		Success: "#3f7d3a",
		Warning: "#a86b00",
		Danger:  "#a3231b",
		Info:    "#2f6690",

		StatusColors: map[string]string{
			statusLost:    "#a3231b",
			statusFound:   "#3f7d3a",
			statusUnknown: "#a86b00",
		},
	}
}
