package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/ramops/bagdesk/internal/api"
)

func adminFixture() *fakeAPI {
	f := newFakeAPI()
	f.users = []api.User{
		{UID: "Zq9xUid001", Email: "ram001@ram.test", Badge: "ram001", GivenName: "Amina", FamilyName: "Tazi"},
		{UID: "Zq9xUid002", Email: testAdmin, GivenName: "Omar", FamilyName: "Idrissi"},
		{UID: "Zq9xUid003", Email: "jane@example.com", GivenName: "Jane", FamilyName: "Doe"},
	}
	return f
}

func openAdmin(t *testing.T, f *fakeAPI) Model {
	t.Helper()
	m := newTestModel(t, f, nil)
	m, cmd := signedIn(m, testAdmin, screenAdmin)
	m, _ = run(t, m, cmd)
	return m
}

func fillStaffForm(m *Model, values ...string) {
	for i, v := range values {
		m.admin.form.inputs[i].SetValue(v)
	}
}

func TestAdminSplitsStaffFromUsers(t *testing.T) {
	m := openAdmin(t, adminFixture())

	require.True(t, m.admin.loaded)
	require.Len(t, m.admin.staff, 2)
	require.Len(t, m.admin.others, 1)
	require.Equal(t, "jane@example.com", m.admin.others[0].Email)

	view := m.View()
	require.Contains(t, view, "3 utilisateurs total")
	require.Contains(t, view, "Staff (2)")
	require.Contains(t, view, "Utilisateurs (1)")
}

func TestAdminRefusesNonAdmins(t *testing.T) {
	f := adminFixture()
	m := newTestModel(t, f, nil)

	m, cmd := signedIn(m, "ram001@ram.test", screenAdmin)
	if cmd != nil {
		t.Fatalf("non-admin mount returned a command")
	}
	require.True(t, m.admin.denied)
	require.Equal(t, 0, f.calls("users"))
	require.Contains(t, m.View(), msgAccessDenied)

	// Nothing on the screen reacts, including the create form.
	m = update(t, m, runes("n"))
	require.False(t, m.admin.form.open)
}

func TestAdminUsersFailure(t *testing.T) {
	f := adminFixture()
	f.usersErr = errors.New("503")
	m := openAdmin(t, f)

	require.Equal(t, msgUsersFailed, m.admin.err)
	require.Contains(t, m.View(), msgUsersFailed)
}

func TestAdminUIDMaskToggle(t *testing.T) {
	m := openAdmin(t, adminFixture())

	view := m.View()
	require.Contains(t, view, maskedUID)
	require.NotContains(t, view, "Zq9xUid001")

	m = update(t, m, runes("u"))
	require.Contains(t, m.View(), "Zq9xUid001")
	require.NotContains(t, m.View(), "Zq9xUid002")

	m = update(t, m, runes("u"))
	require.NotContains(t, m.View(), "Zq9xUid001")
}

func TestAdminPagesEachTableSeparately(t *testing.T) {
	f := newFakeAPI()
	for i := 0; i < 25; i++ {
		f.users = append(f.users, api.User{UID: fmt.Sprintf("s%02d", i), Email: fmt.Sprintf("ram%02d@ram.test", i)})
	}
	f.users = append(f.users, api.User{UID: "p1", Email: "p1@example.com"})
	m := openAdmin(t, f)

	m = update(t, m, runes("]"))
	m = update(t, m, runes("]"))
	m = update(t, m, runes("]"))
	require.Equal(t, 3, m.admin.pages[tableStaff])
	require.Len(t, m.admin.visible(tableStaff), 5)

	m = update(t, m, tabKey)
	m = update(t, m, runes("]"))
	require.Equal(t, 1, m.admin.pages[tableUsers])
	require.Equal(t, 3, m.admin.pages[tableStaff])
}

func TestStaffFormRequiresFields(t *testing.T) {
	f := adminFixture()
	m := openAdmin(t, f)
	m = update(t, m, runes("n"))
	require.True(t, m.admin.form.open)

	fillStaffForm(&m, "Sara", "Alami", "", "secret1", "secret1")
	m, cmd := updateCmd(t, m, enterKey)
	if cmd != nil {
		t.Fatalf("invalid form sent a request")
	}
	require.Equal(t, msgFieldsRequired, m.admin.form.err)
	require.Contains(t, m.View(), msgFieldsRequired)
	require.Empty(t, f.created)
}

func TestStaffFormRejectsMismatchedPasswords(t *testing.T) {
	f := adminFixture()
	m := openAdmin(t, f)
	m = update(t, m, runes("n"))

	fillStaffForm(&m, "Sara", "Alami", "RAM777", "secret1", "secret2")
	m, cmd := updateCmd(t, m, enterKey)
	if cmd != nil {
		t.Fatalf("mismatched passwords sent a request")
	}
	require.Equal(t, msgPasswordMismatch, m.admin.form.err)
	require.Contains(t, m.View(), msgPasswordMismatch)
	require.Empty(t, f.created)
}

func TestStaffFormShowsServerMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server text", &api.Error{Method: "POST", Path: "/admin/staff", Status: 409, Body: "Ce badge existe déjà"}, "Ce badge existe déjà"},
		{"empty body", &api.Error{Method: "POST", Path: "/admin/staff", Status: 500}, msgCreateFailed},
		{"transport", errors.New("connection reset"), msgCreateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := adminFixture()
			f.createErr = tt.err
			m := openAdmin(t, f)
			m = update(t, m, runes("n"))
			fillStaffForm(&m, "Sara", "Alami", "RAM777", "secret1", "secret1")

			m, cmd := updateCmd(t, m, enterKey)
			require.True(t, m.admin.form.creating)
			require.Contains(t, m.View(), "Création...")

			m, _ = run(t, m, cmd)
			require.False(t, m.admin.form.creating)
			require.Equal(t, tt.want, m.admin.form.err)
			require.Equal(t, "RAM777", m.admin.form.inputs[formBadge].Value())
		})
	}
}

func TestStaffFormCreatesAndRefetches(t *testing.T) {
	f := adminFixture()
	m := openAdmin(t, f)
	require.Equal(t, 1, f.calls("users"))
	m = update(t, m, runes("n"))
	fillStaffForm(&m, "Sara", "Alami", "RAM777", "secret1", "secret1")

	m, cmd := updateCmd(t, m, enterKey)
	m, cmd = run(t, m, cmd)

	require.Len(t, f.created, 1)
	require.Equal(t, api.StaffRequest{Badge: "ram777", Password: "secret1", FamilyName: "Alami", GivenName: "Sara"}, f.created[0])

	form := m.admin.form
	require.True(t, form.open)
	require.Empty(t, form.err)
	require.Equal(t, "Compte RAM777 créé.", form.notice)
	for i, in := range form.inputs {
		require.Emptyf(t, in.Value(), "field %d not cleared", i)
	}

	m, _ = run(t, m, cmd)
	require.Equal(t, 2, f.calls("users"))
	require.Len(t, m.admin.staff, 3)
}

func TestStaffFormPasswordVisibility(t *testing.T) {
	m := openAdmin(t, adminFixture())
	m = update(t, m, runes("n"))
	require.Contains(t, m.View(), "Afficher mot de passe")

	m = update(t, m, tabKey)
	require.Equal(t, formFamilyName, m.admin.form.focus)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, m.admin.form.showPassword)
	require.Contains(t, m.View(), "Masquer mot de passe")

	m = update(t, m, escKey)
	require.False(t, m.admin.form.open)
	require.False(t, m.admin.form.showPassword)
}

func TestUserTableBadgeFallsBackToEmail(t *testing.T) {
	m := openAdmin(t, adminFixture())
	lines := strings.Split(m.userTable(tableStaff, 120), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[2], "ADMIN01")
}
