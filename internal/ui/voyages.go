package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/poll"
	"github.com/ramops/bagdesk/internal/search"
	"github.com/ramops/bagdesk/internal/state"
)

// voyagesState backs the search screen. The browser outlives the poller so
// the query, field filters and page survive a trip to a detail screen.
type voyagesState struct {
	browser *search.Browser
	store   *state.Store[[]api.Voyage]
	poller  *poll.Controller[[]api.Voyage]
	snap    state.Snapshot[[]api.Voyage]
	version uint64
	cursor  int

	search    textinput.Model
	searching bool

	showFilters  bool
	filterInputs [4]textinput.Model
	filterFocus  int
}

func newVoyagesState(m Model) voyagesState {
	store := state.NewStore(slices.Clone[[]api.Voyage])
	s := voyagesState{
		browser: search.NewBrowser(m.pager, search.WithRefreshPolicy(search.ClampOnRefresh)),
		store:   store,
	}
	if m.api != nil {
		opts := []poll.Option[[]api.Voyage]{
			poll.WithTimeout[[]api.Voyage](m.timeout),
			poll.WithLogger[[]api.Voyage](m.log),
			poll.WithSize(func(v []api.Voyage) int { return len(v) }),
		}
		if m.observer != nil {
			opts = append(opts, poll.WithObserver[[]api.Voyage](m.observer))
		}
		s.poller = poll.New("voyages", m.voyagesPoll, m.api.FetchVoyages, store.Update, opts...)
	}

	s.search = textinput.New()
	s.search.Placeholder = "Rechercher"
	s.search.Prompt = "/ "
	s.search.CharLimit = 64
	s.search.Width = 32

	placeholders := [4]string{"PNR", "Nom de famille", "Ville de départ", "Destination"}
	for i, f := range search.AllFields {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 48
		in.Width = 30
		s.filterInputs[f] = in
	}
	return s
}

func (s *voyagesState) start(ctx context.Context) {
	s.browser.Unload()
	if s.poller != nil {
		s.poller.Start(ctx)
	}
}

// stop cancels polling and discards the raw listing.
func (s *voyagesState) stop() {
	if s.poller != nil {
		s.poller.Stop()
	}
	s.store.Reset()
	s.browser.Unload()
	s.snap = state.Snapshot[[]api.Voyage]{}
}

// restart forces an immediate fetch.
func (s *voyagesState) restart(ctx context.Context) {
	if s.poller == nil {
		return
	}
	s.poller.Stop()
	s.poller.Start(ctx)
}

// sync pulls the latest poll result into the browser.
func (s *voyagesState) sync() {
	snap := s.store.Snapshot()
	if snap.Version == s.version {
		return
	}
	s.version = snap.Version
	s.snap = snap
	if !snap.Loaded {
		return
	}
	if snap.LastError != nil {
		s.browser.Fail(snap.LastError)
	} else {
		s.browser.Replace(snap.Data)
	}
	s.clampCursor()
}

func (s *voyagesState) clampCursor() {
	n := len(s.browser.Visible())
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s voyagesState) selected() (api.Voyage, bool) {
	visible := s.browser.Visible()
	if s.cursor < 0 || s.cursor >= len(visible) {
		return api.Voyage{}, false
	}
	return visible[s.cursor], true
}

func (m Model) handleVoyagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.voyages
	switch {
	case key.Matches(msg, m.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if v.cursor < len(v.browser.Visible())-1 {
			v.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		v.browser.PrevPage()
		v.cursor = 0
	case key.Matches(msg, m.keys.NextPage):
		v.browser.NextPage()
		v.cursor = 0
	case key.Matches(msg, m.keys.Open):
		if voyage, ok := v.selected(); ok {
			m.voyage.id = voyage.ID
			cmd := m.push(screenVoyage)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Search):
		v.searching = true
		cmd := v.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Filters):
		cmd := m.openFilters()
		return m, cmd
	case key.Matches(msg, m.keys.ClearFilters):
		v.browser.ClearFilters()
		v.search.SetValue("")
		v.cursor = 0
	case key.Matches(msg, m.keys.Refresh):
		v.restart(m.ctx)
	case key.Matches(msg, m.keys.Admin):
		cmd := m.push(screenAdmin)
		return m, cmd
	}
	return m, nil
}

// handleVoyagesInputKey drives the search line and the filter modal.
func (m Model) handleVoyagesInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.voyages.showFilters {
		return m.handleFiltersKey(msg)
	}

	v := &m.voyages
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Confirm):
		v.searching = false
		v.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	// The listing narrows as the user types.
	if q := v.search.Value(); q != v.browser.Query() {
		v.browser.SetQuery(q)
		v.cursor = 0
	}
	return m, cmd
}

func (m *Model) openFilters() tea.Cmd {
	v := &m.voyages
	fields := v.browser.Fields()
	for _, f := range search.AllFields {
		v.filterInputs[f].SetValue(fields.Get(f))
		v.filterInputs[f].Blur()
	}
	v.filterFocus = 0
	v.showFilters = true
	return v.filterInputs[0].Focus()
}

func (m Model) handleFiltersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.voyages
	switch {
	case key.Matches(msg, m.keys.Escape):
		v.showFilters = false
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		var fields search.Fields
		for _, f := range search.AllFields {
			fields.Set(f, v.filterInputs[f].Value())
		}
		v.browser.SetFields(fields)
		v.cursor = 0
		v.showFilters = false
		return m, nil

	case key.Matches(msg, m.keys.Tab), msg.String() == "down":
		v.filterInputs[v.filterFocus].Blur()
		v.filterFocus = (v.filterFocus + 1) % len(v.filterInputs)
		cmd := v.filterInputs[v.filterFocus].Focus()
		return m, cmd

	case key.Matches(msg, m.keys.ShiftTab), msg.String() == "up":
		v.filterInputs[v.filterFocus].Blur()
		v.filterFocus = (v.filterFocus - 1 + len(v.filterInputs)) % len(v.filterInputs)
		cmd := v.filterInputs[v.filterFocus].Focus()
		return m, cmd

	case key.Matches(msg, m.keys.ClearForm):
		for i := range v.filterInputs {
			v.filterInputs[i].SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	v.filterInputs[v.filterFocus], cmd = v.filterInputs[v.filterFocus].Update(msg)
	return m, cmd
}

func (m Model) renderFilterModal() string {
	styles := m.theme.Styles()
	labels := [4]string{"PNR:       ", "Nom:       ", "Départ:    ", "Arrivée:   "}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Filtres"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Laisser vide pour désactiver un filtre."))
	b.WriteString("\n\n")

	for i, input := range m.voyages.filterInputs {
		label := labels[i]
		if m.voyages.filterFocus == i {
			label = styles.AccentText.Render(label)
		} else {
			label = styles.MutedText.Render(label)
		}
		b.WriteString(label)
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(styles.FaintText.Render("enter: appliquer  esc: annuler  ctrl+x: vider"))
	return m.placeModal(b.String(), 56, m.theme.Accent)
}

type voyageColumn struct {
	title string
	width int
	value func(api.Voyage) string
}

var voyageColumns = []voyageColumn{
	{"PNR", 8, func(v api.Voyage) string { return v.PNR }},
	{"N° VOL", 8, func(v api.Voyage) string { return v.FlightNumber }},
	{"NOM COMPLET", 0, api.Voyage.FullName},
	{"DÉPART", 14, func(v api.Voyage) string { return v.DepartureCity }},
	{"ARRIVÉE", 14, func(v api.Voyage) string { return v.ArrivalCity }},
	{"DATE", 10, func(v api.Voyage) string { return v.Date }},
	{"HEURE", 5, func(v api.Voyage) string { return v.Time }},
}

// columnWidths gives the flexible column whatever the fixed ones leave.
func columnWidths(total int) []int {
	widths := make([]int, len(voyageColumns))
	fixed := 0
	for i, c := range voyageColumns {
		widths[i] = c.width
		fixed += c.width + 1
	}
	for i, c := range voyageColumns {
		if c.width == 0 {
			widths[i] = max(total-fixed, 12)
		}
	}
	return widths
}

func (m Model) renderVoyages() string {
	height := m.contentHeight()
	v := m.voyages
	b := v.browser

	count := b.Count()
	title := fmt.Sprintf("Vols · %d vol%s trouvé%s", count, plural(count), plural(count))
	bgHex := m.theme.FocusBg
	styles := m.theme.Styles().WithBackground(bgHex)
	inner := m.width - 4

	var lines []string
	lines = append(lines, m.renderSearchLine(styles, inner))
	lines = append(lines, "")

	switch {
	case !b.Loaded():
		lines = append(lines, m.busy("Chargement...", styles.WarningText))
	case b.Err() != nil:
		lines = append(lines,
			styles.DangerText.Render("Erreur de chargement"),
			styles.MutedText.Render(truncate(b.Err().Error(), inner)))
	case count == 0:
		lines = append(lines, styles.MutedText.Render("Aucun vol trouvé."))
	default:
		lines = append(lines, m.renderVoyageTable(styles, inner)...)
	}

	body := strings.Join(lines, "\n")
	footer := styles.MutedText.Render(fmt.Sprintf("Page %d / %d", b.Page(), b.TotalPages()))
	bodyHeight := height - 3
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return m.renderTitledBox(title, body+"\n"+footer, m.width, height, true)
}

func (m Model) renderSearchLine(styles Styles, width int) string {
	v := m.voyages
	var parts []string
	if v.searching {
		parts = append(parts, v.search.View())
	} else if q := v.browser.Query(); q != "" {
		parts = append(parts, styles.AccentText.Render("/ "+q))
	} else {
		parts = append(parts, styles.FaintText.Render("/ Rechercher"))
	}

	fields := v.browser.Fields()
	for _, f := range search.AllFields {
		if value := fields.Get(f); value != "" {
			parts = append(parts, styles.InfoText.Render(f.Label()+"="+value))
		}
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, styles.Text.Render("  ")))
}

func (m Model) renderVoyageTable(styles Styles, width int) []string {
	widths := columnWidths(width)

	header := make([]string, len(voyageColumns))
	for i, c := range voyageColumns {
		header[i] = cell(c.title, widths[i])
	}
	lines := []string{styles.MutedText.Bold(true).Render(strings.Join(header, " "))}

	for row, voyage := range m.voyages.browser.Visible() {
		cells := make([]string, len(voyageColumns))
		for i, c := range voyageColumns {
			cells[i] = cell(c.value(voyage), widths[i])
		}
		line := strings.Join(cells, " ")
		if row == m.voyages.cursor {
			lines = append(lines, styles.Selected.Render(padRight(line, width)))
		} else {
			lines = append(lines, styles.Text.Render(line))
		}
	}
	return lines
}
