package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramops/bagdesk/internal/api"
)

const (
	formGivenName = iota
	formFamilyName
	formBadge
	formPassword
	formConfirm
	formFieldCount
)

const (
	msgFieldsRequired   = "Tous les champs sont obligatoires"
	msgPasswordMismatch = "Les mots de passe ne correspondent pas"
	msgCreateFailed     = "Erreur lors de la création"
)

var formLabels = [formFieldCount]string{
	"Prénom",
	"Nom",
	"Numéro de badge",
	"Mot de passe",
	"Confirmer le mot de passe",
}

// staffForm is the "Créer un compte Staff" modal.
type staffForm struct {
	open         bool
	inputs       [formFieldCount]textinput.Model
	focus        int
	showPassword bool
	creating     bool
	err          string
	notice       string
}

func newStaffForm() staffForm {
	var f staffForm
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = formLabels[i]
		in.CharLimit = 64
		in.Width = 32
		if i == formPassword || i == formConfirm {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[i] = in
	}
	return f
}

func (f *staffForm) show() tea.Cmd {
	f.open = true
	f.err = ""
	f.notice = ""
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.focus = formGivenName
	return f.inputs[f.focus].Focus()
}

func (f *staffForm) hide() {
	f.open = false
	f.creating = false
	f.setShowPassword(false)
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *staffForm) clear() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
}

func (f *staffForm) setShowPassword(show bool) {
	f.showPassword = show
	mode := textinput.EchoPassword
	if show {
		mode = textinput.EchoNormal
	}
	f.inputs[formPassword].EchoMode = mode
	f.inputs[formConfirm].EchoMode = mode
}

func (f *staffForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + formFieldCount) % formFieldCount
	return f.inputs[f.focus].Focus()
}

// request validates the form. A non-empty message means no request may be
// sent.
func (f staffForm) request() (api.StaffRequest, string) {
	badge := strings.TrimSpace(f.inputs[formBadge].Value())
	password := f.inputs[formPassword].Value()
	confirm := f.inputs[formConfirm].Value()
	if badge == "" || password == "" || confirm == "" {
		return api.StaffRequest{}, msgFieldsRequired
	}
	if password != confirm {
		return api.StaffRequest{}, msgPasswordMismatch
	}
	return api.StaffRequest{
		Badge:      strings.ToLower(badge),
		Password:   password,
		FamilyName: strings.TrimSpace(f.inputs[formFamilyName].Value()),
		GivenName:  strings.TrimSpace(f.inputs[formGivenName].Value()),
	}, ""
}

func (m Model) handleStaffFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.admin.form
	if f.creating {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Escape):
		f.hide()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		return m.submitStaffForm()

	case key.Matches(msg, m.keys.Tab), msg.String() == "down":
		cmd := f.move(1)
		return m, cmd

	case key.Matches(msg, m.keys.ShiftTab), msg.String() == "up":
		cmd := f.move(-1)
		return m, cmd

	case key.Matches(msg, m.keys.ShowPassword):
		f.setShowPassword(!f.showPassword)
		return m, nil

	case key.Matches(msg, m.keys.ClearForm):
		f.clear()
		return m, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m Model) submitStaffForm() (tea.Model, tea.Cmd) {
	f := &m.admin.form
	req, problem := f.request()
	if problem != "" {
		f.err = problem
		return m, nil
	}
	f.err = ""
	f.notice = ""
	f.creating = true
	m.log.Info("create staff", "badge", req.Badge)
	return m, m.createStaffCmd(req)
}

func (m Model) handleStaffCreated(msg staffCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.current != screenAdmin {
		return m, nil
	}
	f := &m.admin.form
	f.creating = false
	f.setShowPassword(false)
	if msg.err != nil {
		m.log.Error("create staff failed", "badge", msg.badge, "error", msg.err)
		if text, ok := api.ServerMessage(msg.err); ok {
			f.err = text
		} else {
			f.err = msgCreateFailed
		}
		return m, nil
	}

	m.log.Info("staff created", "badge", msg.badge)
	f.clear()
	f.err = ""
	f.notice = "Compte " + strings.ToUpper(msg.badge) + " créé."
	m.admin.loading = true
	return m, m.fetchUsersCmd()
}

func (m Model) renderStaffForm() string {
	styles := m.theme.Styles()
	f := m.admin.form

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Créer un compte Staff"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 44)))
	b.WriteString("\n\n")

	for i, input := range f.inputs {
		label := formLabels[i]
		if f.focus == i {
			label = styles.AccentText.Render(label)
		} else {
			label = styles.MutedText.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	toggle := ternary(f.showPassword, "Masquer mot de passe", "Afficher mot de passe")
	b.WriteString(styles.FaintText.Render("ctrl+r: " + toggle))
	b.WriteString("\n\n")

	switch {
	case f.creating:
		b.WriteString(m.busy("Création...", styles.WarningText))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	case f.notice != "":
		b.WriteString(styles.SuccessText.Render(f.notice))
	default:
		b.WriteString(styles.FaintText.Render("enter: Créer le compte  esc: Fermer"))
	}

	return m.placeModal(b.String(), 52, m.theme.Danger)
}
