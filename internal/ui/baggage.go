package ui

import (
	"errors"
	"image"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/photo"
)

const msgActionFailed = "Erreur lors de l'action."

type baggageState struct {
	id     api.ID
	bag    api.Baggage
	loaded bool
	err    error
	busy   bool // a report is in flight or being confirmed by a refetch

	photoRef     string
	photo        image.Image
	photoErr     error
	photoLoading bool
	photoArt     string // photo rendered for the current pane size
}

func (m Model) handleBaggageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleStatus):
		return m.toggleBaggage()
	case key.Matches(msg, m.keys.Refresh):
		if !m.baggage.busy {
			return m, m.fetchBaggageCmd(m.baggage.id)
		}
	}
	return m, nil
}

// toggleBaggage reports the bag lost, or found when it is lost already.
func (m Model) toggleBaggage() (tea.Model, tea.Cmd) {
	b := &m.baggage
	if b.busy || !b.loaded || b.err != nil || !b.bag.CanToggle() {
		return m, nil
	}
	b.busy = true
	m.log.Info("report bag", "bag", b.bag.ID.String(), "from", b.bag.Status)
	return m, m.reportCmd(b.bag)
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.current != screenBaggage {
		return m, nil
	}
	if msg.err != nil {
		m.log.Error("report bag failed", "bag", msg.id.String(), "error", msg.err)
		m.baggage.busy = false
		m.alert = msgActionFailed
		return m, nil
	}
	// Stay busy until the refetch shows the server's view of the bag.
	return m, m.fetchBaggageCmd(msg.id)
}

func (m Model) handleBaggage(msg baggageMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.current != screenBaggage {
		return m, nil
	}
	b := &m.baggage
	b.busy = false
	b.loaded = true
	if msg.err != nil {
		if !errors.Is(msg.err, api.ErrNotFound) {
			m.log.Warn("fetch bag failed", "bag", b.id.String(), "error", msg.err)
		}
		b.err = msg.err
		b.bag = api.Baggage{}
		return m, nil
	}
	b.err = nil
	b.bag = msg.bag

	ref := strings.TrimSpace(msg.bag.PhotoURL)
	if ref == "" || m.photos == nil {
		b.photoRef, b.photo, b.photoErr, b.photoLoading, b.photoArt = "", nil, nil, false, ""
		return m, nil
	}
	if ref == b.photoRef {
		return m, nil
	}
	b.photoRef, b.photo, b.photoErr, b.photoLoading, b.photoArt = ref, nil, nil, true, ""
	return m, m.fetchPhotoCmd(ref)
}

func (m *Model) handlePhoto(msg photoMsg) {
	if msg.gen != m.gen || m.current != screenBaggage || msg.ref != m.baggage.photoRef {
		return
	}
	m.baggage.photoLoading = false
	m.baggage.photo = msg.img
	m.baggage.photoErr = msg.err
	if msg.err != nil {
		m.log.Warn("fetch photo failed", "ref", msg.ref, "error", msg.err)
	}
	m.renderPhotoArt()
}

// renderPhotoArt scales the photo into the preview pane. Scaling is costly,
// so it runs when the photo lands or the window changes, never from View.
func (m *Model) renderPhotoArt() {
	if m.baggage.photo == nil {
		m.baggage.photoArt = ""
		return
	}
	_, photoWidth, height := m.baggageLayout()
	m.baggage.photoArt = photo.Render(m.baggage.photo, photoWidth-2, height-2)
}

// baggageLayout splits the content area between the info and photo boxes.
func (m Model) baggageLayout() (infoWidth, photoWidth, height int) {
	photoWidth = min(max(m.width*2/5, 24), 64)
	return m.width - photoWidth, photoWidth, m.contentHeight()
}

// actionLabel is the text of the single lost/found button.
func actionLabel(b api.Baggage, busy bool) string {
	switch {
	case busy:
		return "Traitement..."
	case b.State() == api.StatusLost:
		return "Signaler retrouvé"
	default:
		return "Signaler perdu"
	}
}

func (m Model) renderBaggage() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	b := m.baggage

	switch {
	case !b.loaded:
		return m.renderTitledBox("Bagage", m.busy("Chargement...", styles.WarningText), m.width, height, true)
	case b.err != nil:
		msg := styles.MutedText.Render("Bagage introuvable.")
		if !errors.Is(b.err, api.ErrNotFound) {
			msg = styles.DangerText.Render("Erreur de chargement") + "\n" +
				styles.MutedText.Render(truncate(b.err.Error(), m.width-6))
		}
		return m.renderTitledBox("Bagage", msg, m.width, height, true)
	}

	infoWidth, photoWidth, _ := m.baggageLayout()
	info := m.renderTitledBox("Bagage "+orDash(b.bag.Name), m.baggageInfo(styles, infoWidth-4), infoWidth, height, true)
	preview := m.renderTitledBox("Photo", m.photoPane(), photoWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, info, preview)
}

func (m Model) baggageInfo(styles Styles, width int) string {
	b := m.baggage
	var lines []string
	lines = append(lines,
		styles.AccentText.Bold(true).Render(orDash(b.bag.Name)),
		styles.Text.Render(truncate(b.bag.Description, width)),
		"",
		styles.MutedText.Render(padRight("État", 10))+styles.StatusStyle(statusKey(b.bag)).Render(b.bag.StatusLabel()),
	)

	if b.bag.Voyage != nil {
		lines = append(lines, "", styles.AccentText.Bold(true).Render("Vol"))
		lines = append(lines, m.voyageCard(styles, *b.bag.Voyage)...)
	}

	lines = append(lines, "")
	label := actionLabel(b.bag, b.busy)
	switch {
	case b.busy:
		lines = append(lines, m.busy(label, styles.WarningText))
	case !b.bag.CanToggle():
		lines = append(lines, styles.FaintText.Render("[s] "+label+" (état inconnu)"))
	default:
		lines = append(lines, styles.Selected.Render(" [s] "+label+" "))
	}
	return strings.Join(lines, "\n")
}

func (m Model) photoPane() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	b := m.baggage
	switch {
	case b.photoLoading:
		return m.busy("Chargement...", styles.WarningText)
	case b.photoArt != "":
		return b.photoArt
	case b.photoErr != nil:
		return styles.DangerText.Render("Image indisponible")
	default:
		return styles.MutedText.Render("Aucune image")
	}
}
