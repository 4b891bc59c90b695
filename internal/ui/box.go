package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderTitledBox draws content inside a frame with the title set into the
// top border: ┌─── Title ───┐. Focused boxes use the focus palette.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return ""
	}
	borderHex, bgHex := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderHex, bgHex = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgHex)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderHex))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := width - 2
	title = truncate(title, innerWidth-4)
	titleWidth := lipgloss.Width(title) + 2
	leftPad := max((innerWidth-titleWidth)/2, 0)
	rightPad := max(innerWidth-titleWidth-leftPad, 0)

	top := bg.Render("┌"+strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad)+"┐", borderStyle)
	bottom := bg.Render("└"+strings.Repeat("─", innerWidth)+"┘", borderStyle)

	body := lipgloss.NewStyle().
		Width(innerWidth).
		MaxWidth(innerWidth).
		Background(lipgloss.Color(bgHex))
	side := bg.Render("│", borderStyle)

	lines := strings.Split(content, "\n")
	rows := make([]string, 0, height)
	rows = append(rows, top)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, side+body.Render(line)+side)
	}
	rows = append(rows, bottom)
	return strings.Join(rows, "\n")
}

// placeModal centers a rounded modal holding content over the screen.
func (m Model) placeModal(content string, width int, borderHex string) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderHex)).
		Padding(1, 2).
		Width(width).
		Render(content)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// renderAlert shows a blocking message; any key dismisses it.
func (m Model) renderAlert() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render(m.alert))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Appuyez sur une touche pour fermer"))
	return m.placeModal(b.String(), 40, m.theme.Danger)
}

// renderCentered places a single message in the middle of the content area.
func (m Model) renderCentered(msg string, height int) string {
	return lipgloss.Place(m.width, max(height, 1), lipgloss.Center, lipgloss.Center, msg)
}
