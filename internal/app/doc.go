// Package app is the composition root of the baggage desk dashboard.
//
// # Startup
//
//  1. Load .env files, then the TOML config with BAGDESK_* overrides
//  2. Open the JSON log file the activity pane tails
//  3. Start the Prometheus endpoint when metrics_bind is set
//  4. Build the identity provider, API client and photo fetcher
//  5. Load preferences and hand everything to ui.Run
//
// Build performs steps 4 and 5 without touching the terminal, which keeps
// the wiring testable against the sandbox server.
//
// # Errors
//
// Configuration, logging and client construction failures are returned
// from Run. Everything after the UI starts is reported on screen and in the
// log; a failing back end never stops the dashboard.
package app
