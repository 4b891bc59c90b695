package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved dashboard configuration.
type Config struct {
	APIURL         string
	IdentityURL    string
	TokenURL       string
	APIKey         string
	EmailDomain    string
	AdminEmails    []string
	PageSize       int
	VoyagesPoll    time.Duration
	VoyagePoll     time.Duration
	RequestTimeout time.Duration
	LogPath        string
	LogLevel       string
	MetricsBind    string
}

const (
	defaultConfigPath     = "~/.config/bagdesk/config.toml"
	defaultAPIURL         = "http://127.0.0.1:8080"
	defaultEmailDomain    = "ram.com"
	defaultAdminEmail     = "admin123@ram.com"
	defaultPageSize       = 5
	defaultVoyagesPoll    = 5 * time.Second
	defaultVoyagePoll     = 3 * time.Second
	defaultRequestTimeout = 5 * time.Second
	defaultLogPath        = "~/.local/state/bagdesk/bagdesk.log"
	defaultLogLevel       = "info"
)

// fileConfig is the on-disk shape. Every key may also be set through a
// BAGDESK_* environment variable, which wins over the file.
type fileConfig struct {
	APIURL         string   `toml:"api_url" env:"BAGDESK_API_URL"`
	IdentityURL    string   `toml:"identity_url" env:"BAGDESK_IDENTITY_URL"`
	TokenURL       string   `toml:"token_url" env:"BAGDESK_TOKEN_URL"`
	APIKey         string   `toml:"api_key" env:"BAGDESK_API_KEY"`
	EmailDomain    string   `toml:"email_domain" env:"BAGDESK_EMAIL_DOMAIN"`
	AdminEmails    []string `toml:"admin_emails" env:"BAGDESK_ADMIN_EMAILS"`
	PageSize       int      `toml:"page_size" env:"BAGDESK_PAGE_SIZE"`
	VoyagesPoll    string   `toml:"voyages_poll" env:"BAGDESK_VOYAGES_POLL"`
	VoyagePoll     string   `toml:"voyage_poll" env:"BAGDESK_VOYAGE_POLL"`
	RequestTimeout string   `toml:"request_timeout" env:"BAGDESK_REQUEST_TIMEOUT"`
	LogPath        string   `toml:"log_path" env:"BAGDESK_LOG_PATH"`
	LogLevel       string   `toml:"log_level" env:"BAGDESK_LOG_LEVEL"`
	MetricsBind    string   `toml:"metrics_bind" env:"BAGDESK_METRICS_BIND"`
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

// LoadDotEnv exports the variables of each existing .env file. Missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the TOML file at path (or the default location), overlays
// BAGDESK_* environment variables and fills defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	if err := readFile(resolved, &raw); err != nil {
		return Config{}, err
	}
	if err := cleanenv.ReadEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return raw.resolve()
}

func readFile(path string, raw *fileConfig) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (raw fileConfig) resolve() (Config, error) {
	cfg := Config{
		APIURL:      orDefault(raw.APIURL, defaultAPIURL),
		APIKey:      strings.TrimSpace(raw.APIKey),
		EmailDomain: strings.TrimPrefix(orDefault(raw.EmailDomain, defaultEmailDomain), "@"),
		PageSize:    raw.PageSize,
		LogLevel:    strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		MetricsBind: strings.TrimSpace(raw.MetricsBind),
	}
	cfg.IdentityURL = orDefault(raw.IdentityURL, cfg.APIURL)
	cfg.TokenURL = orDefault(raw.TokenURL, cfg.IdentityURL)

	for _, email := range raw.AdminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, email)
		}
	}
	if len(cfg.AdminEmails) == 0 {
		cfg.AdminEmails = []string{defaultAdminEmail}
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	var err error
	if cfg.VoyagesPoll, err = parseDuration("voyages_poll", raw.VoyagesPoll, defaultVoyagesPoll); err != nil {
		return Config{}, err
	}
	if cfg.VoyagePoll, err = parseDuration("voyage_poll", raw.VoyagePoll, defaultVoyagePoll); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}

	cfg.LogPath = mustExpand(orDefault(raw.LogPath, defaultLogPath))
	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath trims path, resolves a leading ~ against the home directory
// and returns the absolute form.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
