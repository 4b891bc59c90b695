package ui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/identity"
)

const testAdmin = "admin01@ram.test"

type fakeAPI struct {
	mu sync.Mutex

	voyages  []api.Voyage
	bags     map[api.ID]api.Baggage
	users    []api.User
	usersErr error

	reportErr error
	createErr error

	reports []string
	created []api.StaffRequest
	fetches map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bags: make(map[api.ID]api.Baggage), fetches: make(map[string]int)}
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	f.fetches[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[name]
}

func (f *fakeAPI) FetchVoyages(context.Context) ([]api.Voyage, error) {
	f.count("voyages")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Voyage(nil), f.voyages...), nil
}

func (f *fakeAPI) FetchVoyage(_ context.Context, id api.ID) (api.Voyage, error) {
	f.count("voyage")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.voyages {
		if v.ID == id {
			return v, nil
		}
	}
	return api.Voyage{}, api.ErrNotFound
}

func (f *fakeAPI) FetchVoyageBaggage(_ context.Context, id api.ID) ([]api.Baggage, error) {
	f.count("voyage-bags")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Baggage
	for _, b := range f.bags {
		if b.Voyage != nil && b.Voyage.ID == id {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAPI) FetchBaggage(_ context.Context, id api.ID) (api.Baggage, error) {
	f.count("bag")
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bags[id]
	if !ok {
		return api.Baggage{}, api.ErrNotFound
	}
	return b, nil
}

func (f *fakeAPI) report(id api.ID, action, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, action+":"+id.String())
	if f.reportErr != nil {
		return f.reportErr
	}
	b := f.bags[id]
	b.Status = status
	f.bags[id] = b
	return nil
}

func (f *fakeAPI) ReportLost(_ context.Context, id api.ID) error {
	return f.report(id, "lost", "PERDU")
}

func (f *fakeAPI) ReportFound(_ context.Context, id api.ID) error {
	return f.report(id, "found", "RETROUVE")
}

func (f *fakeAPI) FetchUsers(context.Context) ([]api.User, error) {
	f.count("users")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return append([]api.User(nil), f.users...), nil
}

func (f *fakeAPI) CreateStaff(_ context.Context, req api.StaffRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return f.createErr
	}
	f.users = append(f.users, api.User{
		UID:        "uid-" + req.Badge,
		Email:      req.Badge + "@ram.test",
		Badge:      req.Badge,
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
	})
	return nil
}

type fakeAuth struct {
	mu        sync.Mutex
	principal identity.Principal
	signedIn  bool
	err       error
	attempts  []string
	signOuts  int
}

func (a *fakeAuth) CurrentPrincipal() (identity.Principal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.principal, a.signedIn
}

func (a *fakeAuth) IssueToken(context.Context) (string, error) {
	return "token", nil
}

func (a *fakeAuth) SignIn(_ context.Context, badge, _ string) (identity.Principal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts = append(a.attempts, badge)
	if a.err != nil {
		return identity.Principal{}, a.err
	}
	a.principal = identity.Principal{
		UID:   "uid-" + badge,
		Email: identity.BadgeAddress(badge, "ram.test"),
		Badge: badge,
	}
	a.signedIn = true
	return a.principal, nil
}

func (a *fakeAuth) SignOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts++
	a.signedIn = false
	a.principal = identity.Principal{}
}

// newTestModel builds a sized model whose preferences live in a temp dir.
func newTestModel(t *testing.T, client api.StaffAPI, auth identity.Provider) Model {
	t.Helper()
	opts := Options{
		API:         client,
		AdminEmails: []string{testAdmin},
		PrefsPath:   filepath.Join(t.TempDir(), "prefs.toml"),
		LogPath:     filepath.Join(t.TempDir(), "bagdesk.log"),
		PageSize:    10,
	}
	if auth != nil {
		opts.Auth = auth
	}
	m := New(opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return m
}

// update feeds msg to the model and drops the returned command.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd, which must be a single network command, and feeds its
// message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	return updateCmd(t, m, cmd())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEscape}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
)

// signedIn switches m to screen as the given account.
func signedIn(m Model, email string, to screen) (Model, tea.Cmd) {
	m.principal = identity.Principal{UID: "uid", Email: email}
	cmd := m.reset(to)
	return m, cmd
}
