package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Back       key.Binding
	Activity   key.Binding
	SignOut    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Open     key.Binding
	Refresh  key.Binding

	// Voyages
	Search       key.Binding
	Filters      key.Binding
	ClearFilters key.Binding
	Admin        key.Binding

	// Baggage
	ToggleStatus key.Binding

	// Admin
	SwitchTable key.Binding
	RevealUID   key.Binding
	NewStaff    key.Binding

	// Forms
	Tab          key.Binding
	ShiftTab     key.Binding
	Confirm      key.Binding
	Escape       key.Binding
	ClearForm    key.Binding
	ShowPassword key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "Retour"),
		),
		Activity: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Activity log"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Sign out"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "[", "pgup"),
			key.WithHelp("[/left", "Précédent"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "]", "pgdown"),
			key.WithHelp("]/right", "Suivant"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Rechercher"),
		),
		Filters: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Field filters"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Clear filters"),
		),
		Admin: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Admin"),
		),

		ToggleStatus: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s", "Signaler perdu/retrouvé"),
		),

		SwitchTable: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "Staff/Utilisateurs"),
		),
		RevealUID: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Afficher/Masquer UID"),
		),
		NewStaff: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Créer un compte Staff"),
		),

		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		ClearForm: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Clear fields"),
		),
		ShowPassword: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Afficher/Masquer mot de passe"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage, k.Open, k.Back},
		{k.Search, k.Filters, k.ClearFilters, k.Refresh},
		{k.ToggleStatus},
		{k.Admin, k.SwitchTable, k.RevealUID, k.NewStaff},
		{k.Activity, k.SignOut, k.CycleTheme, k.Help, k.Quit},
	}
}
