// Package config loads the dashboard configuration.
//
// Values come from three layers, later ones winning:
//
//  1. built-in defaults
//  2. a TOML file, ~/.config/bagdesk/config.toml unless --config is given
//  3. BAGDESK_* environment variables, optionally seeded from a .env file
//
// A missing config file is not an error. Example:
//
//	api_url = "https://bags.example.com"
//	email_domain = "ram.com"
//	admin_emails = ["admin123@ram.com"]
//	page_size = 5
//	voyages_poll = "5s"
//	voyage_poll = "3s"
//	log_path = "~/.local/state/bagdesk/bagdesk.log"
//
// identity_url defaults to api_url and token_url to identity_url, which is
// how the sandbox back end is laid out.
package config
