package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/config"
	"github.com/ramops/bagdesk/internal/identity"
	"github.com/ramops/bagdesk/internal/logging"
	"github.com/ramops/bagdesk/internal/metrics"
	"github.com/ramops/bagdesk/internal/photo"
	"github.com/ramops/bagdesk/internal/prefs"
	"github.com/ramops/bagdesk/internal/ui"
)

// Options configure the dashboard.
type Options struct {
	ConfigPath string   // empty uses ~/.config/bagdesk/config.toml
	PrefsPath  string   // empty uses ~/.config/bagdesk/prefs.toml
	EnvFiles   []string // .env files loaded before the environment is read
	Version    string   // reported in the API User-Agent; empty means "dev"
}

// Run boots the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if err := config.LoadDotEnv(opts.envFiles()...); err != nil {
		return err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := metrics.New()
	if cfg.MetricsBind != "" {
		go func() {
			if err := reg.Serve(ctx, cfg.MetricsBind); err != nil {
				logger.Error("metrics server stopped", "bind", cfg.MetricsBind, "error", err)
			}
		}()
	}

	uiOpts, err := Build(ctx, cfg, opts, logger, reg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	logger.Info("dashboard starting",
		"version", opts.version(),
		"api", cfg.APIURL,
		"page_size", cfg.PageSize,
		"voyages_poll", cfg.VoyagesPoll.String(),
		"voyage_poll", cfg.VoyagePoll.String(),
	)
	err = ui.Run(uiOpts)
	logger.Info("dashboard stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Build wires the collaborators described by cfg into UI options. Only
// opts.PrefsPath and opts.Version are read. The returned options carry no
// terminal state, so Build is usable in tests.
func Build(ctx context.Context, cfg config.Config, opts Options, logger logging.Logger, reg *metrics.Metrics) (ui.Options, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	auth, err := identity.NewPasswordProvider(identity.Config{
		IdentityURL: cfg.IdentityURL,
		TokenURL:    cfg.TokenURL,
		APIKey:      cfg.APIKey,
		EmailDomain: cfg.EmailDomain,
		Timeout:     cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return ui.Options{}, fmt.Errorf("init identity: %w", err)
	}

	clientOpts := []api.Option{
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
		api.WithUserAgent("bagdesk/" + opts.version()),
	}
	if reg != nil {
		clientOpts = append(clientOpts, api.WithObserver(reg))
	}
	client, err := api.NewClient(cfg.APIURL, auth, clientOpts...)
	if err != nil {
		return ui.Options{}, fmt.Errorf("init api client: %w", err)
	}

	photos, err := photo.NewFetcher(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return ui.Options{}, fmt.Errorf("init photo fetcher: %w", err)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	uiOpts := ui.Options{
		Context:        ctx,
		API:            client,
		Auth:           auth,
		Photos:         photos,
		Logger:         logger,
		PageSize:       cfg.PageSize,
		VoyagesPoll:    cfg.VoyagesPoll,
		VoyagePoll:     cfg.VoyagePoll,
		RequestTimeout: cfg.RequestTimeout,
		AdminEmails:    cfg.AdminEmails,
		LogPath:        cfg.LogPath,
		ThemeName:      userPrefs.Theme,
		PrefsPath:      opts.PrefsPath,
		LastBadge:      userPrefs.LastBadge,
	}
	if reg != nil {
		uiOpts.Observer = reg
	}
	return uiOpts, nil
}

func (o Options) version() string {
	if v := strings.TrimSpace(o.Version); v != "" {
		return v
	}
	return "dev"
}

func (o Options) envFiles() []string {
	if len(o.EnvFiles) > 0 {
		return o.EnvFiles
	}
	return []string{".env"}
}
