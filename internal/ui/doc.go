// Package ui is the Bubble Tea front end of the baggage desk dashboard.
//
// # Screens
//
//   - Connexion: badge and password sign-in
//   - Recherche: voyage search with a free-text query, four field filters
//     and pagination, polled in the background
//   - Détail du vol: one voyage and its bags, polled while open
//   - Détail du bagage: one bag, its photo, and the lost/found action
//   - Admin Staff: staff and passenger accounts, UID reveal, account creation
//   - Activité: the tail of the dashboard's own log file
//
// Screens form a stack. Enter pushes, esc pops, and signing in or out
// replaces the whole stack.
//
// # Background work
//
// The search and voyage screens each own a poll.Controller that writes to a
// state.Store. The model re-reads the store on every tick and only rebuilds
// its view when the snapshot version moves. Leaving a screen stops its
// poller and clears its store before the next screen mounts.
//
// Every other request runs as a tea.Cmd and reports back with a message
// stamped with the screen generation. Messages from an older generation
// belong to a screen that is gone and are dropped.
//
// # Usage
//
//	err := ui.Run(ui.Options{
//		Context:     ctx,
//		API:         client,
//		Auth:        provider,
//		Photos:      fetcher,
//		PageSize:    cfg.PageSize,
//		VoyagesPoll: cfg.VoyagesPoll,
//		VoyagePoll:  cfg.VoyagePoll,
//		AdminEmails: cfg.AdminEmails,
//	})
//
// # Key bindings
//
// Press ? for the full list. Globally: T cycles the theme, L opens the
// activity pane, O signs out, q or ctrl+c quits.
package ui
