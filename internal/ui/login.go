package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginBadge = iota
	loginPassword
)

const msgBadCredentials = "Identifiants incorrects."

type loginState struct {
	inputs [2]textinput.Model
	focus  int
	busy   bool
	err    string
}

func newLoginState(lastBadge string) loginState {
	badge := textinput.New()
	badge.Placeholder = "Numéro de badge"
	badge.CharLimit = 32
	badge.Width = 28
	badge.SetValue(strings.ToUpper(strings.TrimSpace(lastBadge)))

	password := textinput.New()
	password.Placeholder = "Mot de passe"
	password.CharLimit = 128
	password.Width = 28
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	s := loginState{inputs: [2]textinput.Model{badge, password}}
	if badge.Value() != "" {
		s.focus = loginPassword
	}
	s.inputs[s.focus].Focus()
	return s
}

func (s *loginState) setFocus(i int) tea.Cmd {
	s.inputs[s.focus].Blur()
	s.focus = i
	return s.inputs[i].Focus()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		if m.login.focus == loginBadge && m.login.inputs[loginPassword].Value() == "" {
			cmd := m.login.setFocus(loginPassword)
			return m, cmd
		}
		return m.submitLogin()

	case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab),
		msg.String() == "up", msg.String() == "down":
		cmd := m.login.setFocus(1 - m.login.focus)
		return m, cmd
	}

	var cmd tea.Cmd
	i := m.login.focus
	m.login.inputs[i], cmd = m.login.inputs[i].Update(msg)
	if i == loginBadge {
		// Badges are shown the way they are printed.
		v := m.login.inputs[i].Value()
		if up := strings.ToUpper(v); up != v {
			m.login.inputs[i].SetValue(up)
		}
	}
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.auth == nil {
		m.login.err = msgBadCredentials
		return m, nil
	}
	badge := strings.TrimSpace(m.login.inputs[loginBadge].Value())
	password := m.login.inputs[loginPassword].Value()
	m.login.busy = true
	m.login.err = ""
	return m, m.signInCmd(badge, password)
}

func (m Model) handleSignIn(msg signInMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.current != screenLogin {
		return m, nil
	}
	m.login.busy = false
	if msg.err != nil {
		m.log.Warn("sign in failed", "badge", msg.badge, "error", msg.err)
		m.login.err = msgBadCredentials
		m.login.inputs[loginPassword].SetValue("")
		cmd := m.login.setFocus(loginPassword)
		return m, cmd
	}

	m.principal = msg.principal
	m.lastBadge = strings.ToUpper(msg.badge)
	m.savePrefs()
	m.log.Info("signed in", "email", msg.principal.Email, "role", msg.principal.Role().String())
	cmd := m.reset(screenVoyages)
	return m, cmd
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	labels := [2]string{"Numéro de badge", "Mot de passe"}

	var b strings.Builder
	b.WriteString(styles.Logo.Render("bagdesk"))
	b.WriteString(styles.MutedText.Render("  Espace Staff"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")

	for i, input := range m.login.inputs {
		label := labels[i]
		if m.login.focus == i {
			label = styles.AccentText.Render(label)
		} else {
			label = styles.MutedText.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.login.busy:
		b.WriteString(m.busy("Connexion...", styles.WarningText))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	default:
		b.WriteString(styles.FaintText.Render("enter: Se connecter  tab: champ suivant  esc: quitter"))
	}

	return m.placeModal(b.String(), 44, m.theme.Danger)
}
