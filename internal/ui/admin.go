package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/identity"
	"github.com/ramops/bagdesk/internal/pager"
)

const (
	tableStaff = iota
	tableUsers
)

const (
	msgAccessDenied = "Accès refusé - Vous n'êtes pas admin."
	msgUsersFailed  = "Erreur lors du chargement des utilisateurs"
	maskedUID       = "••••••••••••"
)

type adminState struct {
	denied  bool
	loading bool
	loaded  bool
	err     string

	users  []api.User
	staff  []api.User
	others []api.User

	pager pager.Pager
	pages [2]int
	rows  [2]int
	table int

	// showUID is keyed by uid; absent means masked.
	showUID map[string]bool

	form staffForm
}

func newAdminState(p pager.Pager) adminState {
	return adminState{
		pager:   p,
		pages:   [2]int{1, 1},
		showUID: make(map[string]bool),
		form:    newStaffForm(),
	}
}

func (m *Model) mountAdmin() tea.Cmd {
	if !m.principal.IsAdmin(m.admins) {
		m.admin.denied = true
		m.log.Warn("admin screen refused", "email", m.principal.Email)
		return nil
	}
	m.admin.denied = false
	m.admin.loading = true
	return m.fetchUsersCmd()
}

// setUsers splits the listing into staff and other accounts.
func (a *adminState) setUsers(users []api.User) {
	a.users = users
	a.staff, a.others = nil, nil
	for _, u := range users {
		if identity.IsStaffAddress(u.Email) {
			a.staff = append(a.staff, u)
		} else {
			a.others = append(a.others, u)
		}
	}
	for i, list := range [2][]api.User{a.staff, a.others} {
		a.pages[i] = a.pager.Clamp(a.pages[i], len(list))
		a.clampRow(i)
	}
}

func (a *adminState) list(table int) []api.User {
	if table == tableStaff {
		return a.staff
	}
	return a.others
}

func (a *adminState) visible(table int) []api.User {
	return pager.Slice(a.pager, a.list(table), a.pages[table])
}

func (a *adminState) clampRow(table int) {
	n := len(a.visible(table))
	a.rows[table] = min(a.rows[table], n-1)
	a.rows[table] = max(a.rows[table], 0)
}

func (a *adminState) selected() (api.User, bool) {
	visible := a.visible(a.table)
	row := a.rows[a.table]
	if row < 0 || row >= len(visible) {
		return api.User{}, false
	}
	return visible[row], true
}

func (m *Model) handleUsers(msg usersMsg) {
	if msg.gen != m.gen || m.current != screenAdmin {
		return
	}
	a := &m.admin
	a.loading = false
	a.loaded = true
	if msg.err != nil {
		m.log.Error("fetch users failed", "error", msg.err)
		a.err = msgUsersFailed
		a.setUsers(nil)
		return
	}
	a.err = ""
	a.setUsers(msg.users)
}

func (m Model) handleAdminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := &m.admin
	if a.denied {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.SwitchTable):
		a.table = 1 - a.table
	case key.Matches(msg, m.keys.Up):
		if a.rows[a.table] > 0 {
			a.rows[a.table]--
		}
	case key.Matches(msg, m.keys.Down):
		if a.rows[a.table] < len(a.visible(a.table))-1 {
			a.rows[a.table]++
		}
	case key.Matches(msg, m.keys.PrevPage):
		a.pages[a.table] = a.pager.Prev(a.pages[a.table])
		a.rows[a.table] = 0
	case key.Matches(msg, m.keys.NextPage):
		a.pages[a.table] = a.pager.Next(a.pages[a.table], len(a.list(a.table)))
		a.rows[a.table] = 0
	case key.Matches(msg, m.keys.RevealUID):
		if u, ok := a.selected(); ok && u.UID != "" {
			a.showUID[u.UID] = !a.showUID[u.UID]
		}
	case key.Matches(msg, m.keys.NewStaff):
		cmd := a.form.show()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		if !a.loading {
			a.loading = true
			return m, m.fetchUsersCmd()
		}
	}
	return m, nil
}

func (m Model) renderAdmin() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	a := m.admin

	if a.denied {
		return m.renderTitledBox("Admin Staff", styles.DangerText.Render(msgAccessDenied), m.width, height, true)
	}

	var lines []string
	switch {
	case !a.loaded:
		lines = append(lines, m.busy("Chargement...", styles.WarningText))
	case a.err != "":
		lines = append(lines, styles.DangerText.Render(a.err))
	default:
		n := len(a.users)
		lines = append(lines, styles.MutedText.Render(fmt.Sprintf("%d utilisateur%s total", n, plural(n))))
		if a.form.notice != "" {
			lines = append(lines, styles.SuccessText.Render(a.form.notice))
		}
	}
	header := strings.Join(lines, "\n")

	tableHeight := max((height-len(lines)-1)/2, 4)
	staffBox := m.renderTitledBox(
		fmt.Sprintf("Staff (%d) · Page %d / %d", len(a.staff), a.pages[tableStaff], a.pager.TotalPages(len(a.staff))),
		m.userTable(tableStaff, m.width-4),
		m.width, tableHeight, a.table == tableStaff)
	usersBox := m.renderTitledBox(
		fmt.Sprintf("Utilisateurs (%d) · Page %d / %d", len(a.others), a.pages[tableUsers], a.pager.TotalPages(len(a.others))),
		m.userTable(tableUsers, m.width-4),
		m.width, tableHeight, a.table == tableUsers)

	return header + "\n" + staffBox + "\n" + usersBox
}

func (m Model) userTable(table, width int) string {
	a := m.admin
	focused := a.table == table
	bgHex := ternary(focused, m.theme.FocusBg, m.theme.SurfaceAlt)
	styles := m.theme.Styles().WithBackground(bgHex)

	if !a.loaded {
		return m.busy("Chargement...", styles.WarningText)
	}
	visible := a.visible(table)
	if len(visible) == 0 {
		return styles.MutedText.Render(ternary(table == tableStaff, "Aucun staff trouvé.", "Aucun utilisateur trouvé."))
	}

	uidWidth := 30
	emailWidth := max(width-uidWidth-8-16-16-4, 16)
	columns := []struct {
		title string
		width int
	}{
		{"Badge", 8}, {"Prénom", 16}, {"Nom", 16}, {"Email", emailWidth}, {"Firebase UID", uidWidth},
	}
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = cell(c.title, c.width)
	}
	lines := []string{styles.MutedText.Bold(true).Render(strings.Join(headers, " "))}

	for i, u := range visible {
		uid := maskedUID
		if a.showUID[u.UID] {
			uid = u.UID
		}
		values := []string{strings.ToUpper(u.DisplayBadge()), u.GivenName, u.FamilyName, u.Email, uid}
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j] = cell(values[j], c.width)
		}
		line := strings.Join(cells, " ")
		if focused && i == a.rows[table] {
			lines = append(lines, styles.Selected.Render(padRight(line, width)))
		} else {
			lines = append(lines, styles.Text.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}
