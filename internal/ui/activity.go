package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramops/bagdesk/internal/journal"
)

const (
	activityLines   = 200
	activityRefresh = 2 * time.Second
)

// activityState tails the dashboard's own log file.
type activityState struct {
	viewport viewport.Model
	entries  []journal.Entry
	err      error
	loadedAt time.Time
	follow   bool
}

func newActivityState() activityState {
	return activityState{viewport: viewport.New(80, 20), follow: true}
}

func (a *activityState) resize(width, height int) {
	a.viewport.Width = max(width, 10)
	a.viewport.Height = max(height, 3)
}

func (a activityState) stale() bool {
	return time.Since(a.loadedAt) >= activityRefresh
}

func (m *Model) handleJournal(msg journalMsg) {
	if msg.gen != m.gen || m.current != screenActivity {
		return
	}
	a := &m.activity
	a.loadedAt = time.Now()
	a.err = msg.err
	a.entries = msg.entries
	a.viewport.SetContent(m.formatEntries(a.entries))
	if a.follow {
		a.viewport.GotoBottom()
	}
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := &m.activity
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadJournalCmd()
	case msg.String() == "G", msg.String() == "end":
		a.follow = true
		a.viewport.GotoBottom()
		return m, nil
	case msg.String() == "g", msg.String() == "home":
		a.follow = false
		a.viewport.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	a.follow = a.viewport.AtBottom()
	return m, cmd
}

func (m Model) formatEntries(entries []journal.Entry) string {
	styles := m.theme.Styles()
	if len(entries) == 0 {
		return styles.MutedText.Render("Aucune activité.")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		ts := "--:--:--"
		if !e.Time.IsZero() {
			ts = e.Time.Local().Format("15:04:05")
		}
		level := strings.ToUpper(e.Level)
		levelStyle := styles.InfoText
		switch e.Level {
		case "warn":
			levelStyle = styles.WarningText
		case "error", "fatal", "panic":
			levelStyle = styles.DangerText
		case "debug":
			levelStyle = styles.FaintText
		}
		line := styles.FaintText.Render(ts) + " " +
			levelStyle.Render(padRight(level, 5)) + " " +
			styles.Text.Render(e.Message)
		if summary := e.Summary(); summary != "" {
			line += " " + styles.MutedText.Render(summary)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderActivity() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	a := m.activity

	title := "Activité"
	if m.logPath != "" {
		title += " · " + truncate(m.logPath, 48)
	}
	if a.err != nil {
		body := styles.DangerText.Render("Journal illisible") + "\n" + styles.MutedText.Render(a.err.Error())
		return m.renderTitledBox(title, body, m.width, height, true)
	}
	return m.renderTitledBox(title, a.viewport.View(), m.width, height, true)
}
