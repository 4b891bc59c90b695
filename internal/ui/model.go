package ui

import (
	"context"
	"image"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/identity"
	"github.com/ramops/bagdesk/internal/logging"
	"github.com/ramops/bagdesk/internal/pager"
	"github.com/ramops/bagdesk/internal/poll"
	"github.com/ramops/bagdesk/internal/prefs"
)

// screen identifies the active view.
type screen int

const (
	screenLogin screen = iota
	screenVoyages
	screenVoyage
	screenBaggage
	screenAdmin
	screenActivity
)

func (s screen) title() string {
	switch s {
	case screenLogin:
		return "Connexion"
	case screenVoyages:
		return "Recherche"
	case screenVoyage:
		return "Détail du vol"
	case screenBaggage:
		return "Détail du bagage"
	case screenAdmin:
		return "Admin Staff"
	case screenActivity:
		return "Activité"
	default:
		return ""
	}
}

// PhotoSource downloads bag photos. *photo.Fetcher implements it.
type PhotoSource interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

// Options configures the UI.
type Options struct {
	Context        context.Context
	API            api.StaffAPI
	Auth           identity.Provider
	Photos         PhotoSource   // nil disables previews
	Logger         logging.Logger
	Observer       poll.Observer // receives poll outcomes; may be nil
	PageSize       int
	VoyagesPoll    time.Duration
	VoyagePoll     time.Duration
	RequestTimeout time.Duration
	AdminEmails    []string
	LogPath        string // activity pane source
	ThemeName      string
	PrefsPath      string
	LastBadge      string
	Tick           time.Duration // how often the UI re-reads poll snapshots
}

const (
	defaultTick           = 500 * time.Millisecond
	defaultRequestTimeout = 5 * time.Second
)

var busySpinner = spinner.Spinner{
	Frames: spinner.MiniDot.Frames,
	FPS:    150 * time.Millisecond,
}

// busy prefixes a pending-state label with the spinner.
func (m Model) busy(label string, style lipgloss.Style) string {
	return style.Render(m.spinner.View() + " " + label)
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	api      api.StaffAPI
	auth     identity.Provider
	photos   PhotoSource
	log      logging.Logger
	observer poll.Observer
	keys     keyMap

	pager       pager.Pager
	voyagesPoll time.Duration
	voyagePoll  time.Duration
	timeout     time.Duration
	tick        time.Duration
	admins      []string
	logPath     string
	prefsPath   string
	lastBadge   string

	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	alert    string
	spinner  spinner.Model

	current screen
	history []screen
	// gen changes on every screen switch; async results carrying an older
	// value belong to a torn-down screen and are dropped.
	gen uint64

	principal identity.Principal

	login    loginState
	voyages  voyagesState
	voyage   voyageState
	baggage  baggageState
	admin    adminState
	activity activityState
}

// New creates the root model on the sign-in screen.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:         ctx,
		api:         opts.API,
		auth:        opts.Auth,
		photos:      opts.Photos,
		log:         log.With("component", "ui"),
		observer:    opts.Observer,
		keys:        DefaultKeyMap(),
		pager:       pager.New(opts.PageSize),
		voyagesPoll: opts.VoyagesPoll,
		voyagePoll:  opts.VoyagePoll,
		timeout:     timeout,
		tick:        tick,
		admins:      opts.AdminEmails,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		lastBadge:   opts.LastBadge,
		theme:       GetTheme(opts.ThemeName),
		spinner:     spinner.New(spinner.WithSpinner(busySpinner)),
		current:     screenLogin,
	}
	m.login = newLoginState(m.lastBadge)
	m.voyages = newVoyagesState(m)
	m.voyage = newVoyageState()
	m.admin = newAdminState(m.pager)
	m.activity = newActivityState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tickCmd(m.tick), m.spinner.Tick}
	if m.auth != nil {
		if p, ok := m.auth.CurrentPrincipal(); ok {
			cmds = append(cmds, func() tea.Msg { return resumeMsg{principal: p} })
		}
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.activity.resize(m.width-2, m.contentHeight()-2)
		m.renderPhotoArt()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resumeMsg:
		m.principal = msg.principal
		cmd := m.reset(screenVoyages)
		return m, cmd

	case signInMsg:
		return m.handleSignIn(msg)

	case baggageMsg:
		return m.handleBaggage(msg)

	case photoMsg:
		m.handlePhoto(msg)
		return m, nil

	case actionMsg:
		return m.handleAction(msg)

	case usersMsg:
		m.handleUsers(msg)
		return m, nil

	case staffCreatedMsg:
		return m.handleStaffCreated(msg)

	case journalMsg:
		m.handleJournal(msg)
		return m, nil
	}

	// Cursor blinks and other input housekeeping go to whichever field
	// has focus.
	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Chargement..."
	}
	if m.alert != "" {
		return m.renderAlert()
	}
	if m.showHelp {
		return m.renderHelp()
	}

	switch {
	case m.current == screenLogin:
		return m.renderLogin()
	case m.current == screenVoyages && m.voyages.showFilters:
		return m.renderFilterModal()
	case m.current == screenAdmin && m.admin.form.open:
		return m.renderStaffForm()
	}

	return m.renderHeader() + "\n" + m.renderCommandBar() + "\n" + m.renderContent()
}

func (m Model) renderContent() string {
	switch m.current {
	case screenVoyages:
		return m.renderVoyages()
	case screenVoyage:
		return m.renderVoyage()
	case screenBaggage:
		return m.renderBaggage()
	case screenAdmin:
		return m.renderAdmin()
	case screenActivity:
		return m.renderActivity()
	default:
		return ""
	}
}

func (m Model) contentHeight() int {
	return max(m.height-2, 3) // header + command bar
}

// typing reports whether a text field owns the keyboard.
func (m Model) typing() bool {
	switch m.current {
	case screenLogin:
		return true
	case screenVoyages:
		return m.voyages.searching || m.voyages.showFilters
	case screenAdmin:
		return m.admin.form.open
	}
	return false
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		m.shutdown()
		return m, tea.Quit
	}

	if m.typing() {
		switch m.current {
		case screenLogin:
			return m.handleLoginKey(msg)
		case screenVoyages:
			return m.handleVoyagesInputKey(msg)
		case screenAdmin:
			return m.handleStaffFormKey(msg)
		}
	}

	switch msg.String() {
	case "q":
		m.shutdown()
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case "L":
		if m.current != screenActivity {
			cmd := m.push(screenActivity)
			return m, cmd
		}
		return m, nil

	case "O":
		cmd := m.signOut()
		return m, cmd
	}

	if k := msg.String(); k == "esc" || k == "backspace" {
		cmd := m.goBack()
		return m, cmd
	}

	switch m.current {
	case screenVoyages:
		return m.handleVoyagesKey(msg)
	case screenVoyage:
		return m.handleVoyageKey(msg)
	case screenBaggage:
		return m.handleBaggageKey(msg)
	case screenAdmin:
		return m.handleAdminKey(msg)
	case screenActivity:
		return m.handleActivityKey(msg)
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	switch m.current {
	case screenVoyages:
		m.voyages.sync()
	case screenVoyage:
		m.voyage.sync()
	case screenActivity:
		if m.activity.stale() {
			cmds = append(cmds, m.loadJournalCmd())
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.current == screenLogin:
		i := m.login.focus
		m.login.inputs[i], cmd = m.login.inputs[i].Update(msg)
	case m.current == screenVoyages && m.voyages.showFilters:
		i := m.voyages.filterFocus
		m.voyages.filterInputs[i], cmd = m.voyages.filterInputs[i].Update(msg)
	case m.current == screenVoyages && m.voyages.searching:
		m.voyages.search, cmd = m.voyages.search.Update(msg)
	case m.current == screenAdmin && m.admin.form.open:
		i := m.admin.form.focus
		m.admin.form.inputs[i], cmd = m.admin.form.inputs[i].Update(msg)
	}
	return m, cmd
}

// push opens to on top of the current screen.
func (m *Model) push(to screen) tea.Cmd {
	m.teardown()
	m.history = append(m.history, m.current)
	m.current = to
	return m.mount()
}

// goBack returns to the previous screen, if any.
func (m *Model) goBack() tea.Cmd {
	if len(m.history) == 0 {
		return nil
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.teardown()
	m.current = prev
	return m.mount()
}

// reset makes to the only screen.
func (m *Model) reset(to screen) tea.Cmd {
	m.teardown()
	m.history = nil
	m.current = to
	return m.mount()
}

// teardown stops whatever the current screen runs in the background.
func (m *Model) teardown() {
	m.gen++
	switch m.current {
	case screenVoyages:
		m.voyages.stop()
	case screenVoyage:
		m.voyage.stop()
	}
}

// mount starts the current screen.
func (m *Model) mount() tea.Cmd {
	m.gen++
	switch m.current {
	case screenLogin:
		m.login = newLoginState(m.lastBadge)
		return m.login.inputs[m.login.focus].Focus()
	case screenVoyages:
		m.voyages.start(m.ctx)
	case screenVoyage:
		m.voyage.start(m.ctx, m.newVoyagePoller(m.voyage.id))
	case screenBaggage:
		return m.fetchBaggageCmd(m.baggage.id)
	case screenAdmin:
		return m.mountAdmin()
	case screenActivity:
		return m.loadJournalCmd()
	}
	return nil
}

// shutdown stops every background poller.
func (m *Model) shutdown() {
	m.gen++
	m.voyages.stop()
	m.voyage.stop()
}

func (m *Model) signOut() tea.Cmd {
	if m.auth != nil {
		m.auth.SignOut()
	}
	m.log.Info("signed out", "email", m.principal.Email)
	m.principal = identity.Principal{}
	m.admin = newAdminState(m.pager)
	return m.reset(screenLogin)
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastBadge: m.lastBadge}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn("save prefs failed", "error", err)
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	return err
}
