package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/poll"
	"github.com/ramops/bagdesk/internal/state"
)

// voyageDetail is one poll of the detail screen. Found is false when the
// listing no longer holds the voyage.
type voyageDetail struct {
	Voyage api.Voyage
	Found  bool
	Bags   []api.Baggage
}

func cloneVoyageDetail(d voyageDetail) voyageDetail {
	d.Bags = slices.Clone(d.Bags)
	return d
}

type voyageState struct {
	id      api.ID
	store   *state.Store[voyageDetail]
	poller  *poll.Controller[voyageDetail]
	snap    state.Snapshot[voyageDetail]
	version uint64
	cursor  int
}

func newVoyageState() voyageState {
	return voyageState{store: state.NewStore(cloneVoyageDetail)}
}

// fetchVoyageDetail looks the voyage up in the staff listing, then loads its
// bags.
func fetchVoyageDetail(client api.StaffAPI, id api.ID) poll.FetchFunc[voyageDetail] {
	return func(ctx context.Context) (voyageDetail, error) {
		var d voyageDetail
		v, err := client.FetchVoyage(ctx, id)
		switch {
		case errors.Is(err, api.ErrNotFound):
			return d, nil
		case err != nil:
			return d, err
		}
		d.Voyage, d.Found = v, true

		bags, err := client.FetchVoyageBaggage(ctx, id)
		if err != nil {
			return voyageDetail{}, fmt.Errorf("voyage %s baggage: %w", id, err)
		}
		d.Bags = bags
		return d, nil
	}
}

func (m Model) newVoyagePoller(id api.ID) *poll.Controller[voyageDetail] {
	if m.api == nil {
		return nil
	}
	opts := []poll.Option[voyageDetail]{
		poll.WithTimeout[voyageDetail](m.timeout),
		poll.WithLogger[voyageDetail](m.log.With("voyage", id.String())),
		poll.WithSize(func(d voyageDetail) int { return len(d.Bags) }),
	}
	if m.observer != nil {
		opts = append(opts, poll.WithObserver[voyageDetail](m.observer))
	}
	return poll.New("voyage", m.voyagePoll, fetchVoyageDetail(m.api, id), m.voyage.store.Update, opts...)
}

func (s *voyageState) start(ctx context.Context, poller *poll.Controller[voyageDetail]) {
	s.cursor = 0
	s.snap = state.Snapshot[voyageDetail]{}
	s.poller = poller
	if poller != nil {
		poller.Start(ctx)
	}
}

func (s *voyageState) stop() {
	if s.poller != nil {
		s.poller.Stop()
		s.poller = nil
	}
	s.store.Reset()
	s.snap = state.Snapshot[voyageDetail]{}
}

func (s *voyageState) sync() {
	snap := s.store.Snapshot()
	if snap.Version == s.version {
		return
	}
	s.version = snap.Version
	s.snap = snap
	if s.cursor >= len(snap.Data.Bags) {
		s.cursor = max(len(snap.Data.Bags)-1, 0)
	}
}

func (m Model) handleVoyageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.voyage
	bags := v.snap.Data.Bags
	switch {
	case key.Matches(msg, m.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if v.cursor < len(bags)-1 {
			v.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if v.cursor < len(bags) {
			m.baggage = baggageState{id: bags[v.cursor].ID}
			cmd := m.push(screenBaggage)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Refresh):
		if v.poller != nil {
			v.poller.Stop()
			v.poller.Start(m.ctx)
		}
	}
	return m, nil
}

func (m Model) renderVoyage() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	snap := m.voyage.snap
	d := snap.Data

	title := "Vol"
	if d.Found {
		title = "Vol " + orDash(d.Voyage.FlightNumber)
	}

	var lines []string
	switch {
	case !snap.Loaded:
		lines = append(lines, m.busy("Chargement...", styles.WarningText))
	case snap.LastError != nil:
		lines = append(lines,
			styles.DangerText.Render("Erreur de chargement"),
			styles.MutedText.Render(truncate(snap.LastError.Error(), m.width-6)))
	case !d.Found:
		lines = append(lines, styles.MutedText.Render("Vol introuvable."))
	default:
		lines = append(lines, m.voyageCard(styles, d.Voyage)...)
		lines = append(lines, "", styles.AccentText.Bold(true).Render(fmt.Sprintf("Bagages (%d)", len(d.Bags))))
		lines = append(lines, m.bagRows(styles, d.Bags, m.width-4)...)
	}

	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}

// voyageCard renders the fields shared by the voyage and baggage screens.
func (m Model) voyageCard(styles Styles, v api.Voyage) []string {
	row := func(label, value string) string {
		return styles.MutedText.Render(padRight(label, 10)) + styles.Text.Render(orDash(value))
	}
	return []string{
		row("Vol", v.FlightNumber),
		row("PNR", v.PNR),
		row("Passager", v.FullName()),
		row("Trajet", v.Route()),
		row("Date", dateLabel(v)),
		row("Heure", strings.TrimSpace(v.Time)),
	}
}

var weekdays = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}

// dateLabel renders the departure day as "lun. 19/10/2026". Dates in an
// unknown format are shown as sent.
func dateLabel(v api.Voyage) string {
	dep := v.ParsedDeparture()
	if dep.IsZero() {
		return strings.TrimSpace(v.Date)
	}
	return weekdays[dep.Weekday()] + " " + dep.Format("02/01/2006")
}

func (m Model) bagRows(styles Styles, bags []api.Baggage, width int) []string {
	if len(bags) == 0 {
		return []string{styles.MutedText.Render("Aucun bagage lié à ce vol.")}
	}
	nameWidth := 20
	descWidth := max(width-nameWidth-14, 10)
	lines := make([]string, 0, len(bags))
	for i, bag := range bags {
		chip := styles.StatusStyle(statusKey(bag)).Render(bag.StatusLabel())
		text := cell(bag.Name, nameWidth) + " " + cell(bag.Description, descWidth) + " "
		if i == m.voyage.cursor {
			lines = append(lines, styles.Selected.Render(text)+chip)
		} else {
			lines = append(lines, styles.Text.Render(text)+chip)
		}
	}
	return lines
}
