// Package prefs persists per-user dashboard choices in
// ~/.config/bagdesk/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/ramops/bagdesk/internal/config"
)

// Prefs holds user preferences. LastBadge pre-fills the login form.
type Prefs struct {
	Theme     string `toml:"theme"`
	LastBadge string `toml:"last_badge,omitempty"`
}

const (
	defaultPath  = "~/.config/bagdesk/prefs.toml"
	defaultTheme = "Atlas"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string { return defaultPath }

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs { return Prefs{Theme: defaultTheme} }

// Load reads preferences from path. Unreadable or malformed files yield the
// defaults; preferences never block startup.
func Load(path string) (Prefs, error) {
	resolved, err := location(path)
	if err != nil {
		return Defaults(), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Defaults(), nil
	}

	p := Defaults()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), nil
	}
	return p.normalized(), nil
}

// Save writes p next to path through a temporary file so a crash never
// leaves a truncated prefs file behind.
func Save(path string, p Prefs) error {
	resolved, err := location(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("stage prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastBadge = strings.ToUpper(strings.TrimSpace(p.LastBadge))
	return p
}

func location(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	return config.ExpandPath(path)
}
