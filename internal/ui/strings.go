package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens value to limit runes, ending in "..." when cut.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if width <= 0 || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// cell truncates then pads value to exactly width runes.
func cell(value string, width int) string {
	return padRight(truncate(value, width), width)
}

// orDash renders blanks as "-".
func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return strings.TrimSpace(value)
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// plural returns "s" for counts above one, the French rule.
func plural(n int) string {
	return ternary(n > 1, "s", "")
}
