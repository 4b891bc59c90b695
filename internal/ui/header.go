package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top status line: logo, screen, signed-in badge
// and, on polled screens, how fresh the data is.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("bagdesk", styles.Logo),
		bg.Render(m.current.title(), styles.Text.Bold(true)),
	}
	if m.principal.Email != "" {
		who := strings.ToUpper(m.principal.Badge)
		if who == "" {
			who = m.principal.Email
		}
		parts = append(parts,
			bg.Render(who, styles.AccentText)+bg.Space()+
				bg.Render(m.principal.Role().String(), styles.FaintText))
	}
	if status := m.pollStatus(styles, bg); status != "" {
		parts = append(parts, status)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// pollStatus describes the active poller's last outcome.
func (m Model) pollStatus(styles Styles, bg BgStyle) string {
	var (
		updated  time.Time
		lastErr  error
		offline  bool
		interval time.Duration
	)
	switch m.current {
	case screenVoyages:
		s := m.voyages.snap
		updated, lastErr, offline = s.LastUpdated, s.LastError, s.IsOffline()
		if m.voyages.poller != nil {
			interval = m.voyages.poller.Interval()
		}
	case screenVoyage:
		s := m.voyage.snap
		updated, lastErr, offline = s.LastUpdated, s.LastError, s.IsOffline()
		if m.voyage.poller != nil {
			interval = m.voyage.poller.Interval()
		}
	default:
		return ""
	}

	every := ""
	if interval > 0 {
		every = bg.Render("↻ "+interval.String(), styles.FaintText)
	}
	switch {
	case updated.IsZero():
		return bg.Join([]string{bg.Render("Connexion...", styles.WarningText), every}, "  ")
	case offline:
		return bg.Join([]string{
			bg.Render(classifyConnectionError(lastErr), styles.DangerText),
			bg.Render("Nouvel essai...", styles.WarningText),
			bg.Render(updated.Format("15:04:05"), styles.MutedText),
		}, "  ")
	case lastErr != nil:
		return bg.Join([]string{
			bg.Render("ERREUR", styles.DangerText),
			bg.Render(updated.Format("15:04:05"), styles.MutedText),
		}, "  ")
	default:
		return bg.Join([]string{
			bg.Render("MAJ "+updated.Format("15:04:05"), styles.MutedText),
			every,
		}, "  ")
	}
}

// classifyConnectionError returns a short label for a poll error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "HORS LIGNE"
	case strings.Contains(msg, "no such host"):
		return "HÔTE INTROUVABLE"
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return "DÉLAI DÉPASSÉ"
	case strings.Contains(msg, "status 401"), strings.Contains(msg, "status 403"):
		return "ACCÈS REFUSÉ"
	default:
		return "ERREUR"
	}
}

// renderCommandBar lists the keys that work on the current screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.current {
	case screenVoyages:
		commands = []cmd{
			{"/", "Rechercher"},
			{"f", "Filtres"},
			{"x", "Effacer"},
			{"[/]", "Page"},
			{"enter", "Ouvrir"},
			{"a", "Admin"},
		}
	case screenVoyage:
		commands = []cmd{
			{"j/k", "Bagage"},
			{"enter", "Ouvrir"},
			{"r", "Actualiser"},
			{"esc", "Retour"},
		}
	case screenBaggage:
		commands = []cmd{
			{"s", actionLabel(m.baggage.bag, m.baggage.busy)},
			{"r", "Actualiser"},
			{"esc", "Retour"},
		}
	case screenAdmin:
		commands = []cmd{
			{"tab", "Staff/Utilisateurs"},
			{"[/]", "Page"},
			{"u", ternary(m.selectedUIDShown(), "Masquer UID", "Afficher UID")},
			{"n", "Créer"},
			{"esc", "Retour"},
		}
	case screenActivity:
		commands = []cmd{
			{"j/k", "Défiler"},
			{"G", "Suivre"},
			{"r", "Relire"},
			{"esc", "Retour"},
		}
	}
	commands = append(commands, cmd{"L", "Activité"}, cmd{"O", "Déconnexion"}, cmd{"?", "Aide"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

func (m Model) selectedUIDShown() bool {
	a := m.admin
	u, ok := a.selected()
	return ok && a.showUID[u.UID]
}
