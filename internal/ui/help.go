package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpTitles = []string{"Navigation", "Vols", "Bagage", "Admin", "Général"}

// helpSections groups the full key map under helpTitles.
func (m Model) helpSections() []helpSection {
	groups := m.keys.FullHelp()
	sections := make([]helpSection, 0, len(groups))
	for i, group := range groups {
		title := ""
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		section := helpSection{title: title}
		for _, b := range group {
			h := b.Help()
			section.items = append(section.items, helpItem{key: h.Key, desc: h.Desc})
		}
		sections = append(sections, section)
	}
	return sections
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Raccourcis clavier"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 34)))
	b.WriteString("\n\n")

	sections := m.helpSections()
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return m.placeModal(b.String(), 46, m.theme.Accent)
}
