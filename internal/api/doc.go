// Package api is the HTTP client for the baggage back end.
//
// # Endpoints
//
// Staff endpoints (bearer token of a staff or admin account):
//
//	GET  /voyages/staff                   every voyage
//	GET  /bagages/staff/voyage/{id}       bags checked on one voyage
//	GET  /bagages/staff/{id}              one bag, with its voyage
//	POST /bagages/{id}/signaler-perdu     report a bag lost
//	POST /bagages/{id}/signaler-retrouve  report a bag found
//
// Admin endpoints:
//
//	GET  /admin/users   every account
//	POST /admin/staff   create a staff account
//
// FetchVoyage has no endpoint of its own; it scans /voyages/staff and
// returns ErrNotFound when the id is absent.
//
// # Usage
//
//	client, err := api.NewClient(cfg.APIURL, provider,
//		api.WithTimeout(5*time.Second),
//		api.WithObserver(metrics),
//	)
//	if err != nil {
//		return err
//	}
//	voyages, err := client.FetchVoyages(ctx)
//
// # Errors
//
// Non-2xx replies come back as *Error carrying the status and the raw body.
// A 404 matches ErrNotFound through errors.Is. ServerMessage extracts the
// body text so the admin form can show the server's own wording.
//
// # Identifiers
//
// The back end sends ids as JSON strings or numbers; ID accepts both and
// keeps numbers as their decimal text.
package api
