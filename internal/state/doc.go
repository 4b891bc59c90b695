// Package state holds the latest result of a background poll for the UI.
//
// A poll.Controller writes into a Store from its own goroutine; the Bubble
// Tea model reads Snapshot on every tick and compares Version to decide
// whether anything changed:
//
//	poll.Controller ──Update──▶ Store ◀──Snapshot── ui tick
//
// Snapshots are copies. Data passes through the clone function given to
// NewStore on the way in and on the way out, so neither side can mutate
// what the other holds.
//
// A failed fetch clears Data and bumps ConsecutiveFailures; two failures in
// a row make IsOffline report true, which the header shows as an outage.
// Reset returns the store to its unloaded state when a screen is torn down
// and still advances Version, so a reader never mistakes the next result
// for one it has already seen.
package state
