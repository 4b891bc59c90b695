package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramops/bagdesk/internal/app"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file (default ~/.config/bagdesk/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences file (default ~/.config/bagdesk/prefs.toml)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment is read")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("bagdesk", version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		EnvFiles:   []string{*envFile},
		Version:    version,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "bagdesk: %v\n", err)
		return 1
	}
	return 0
}
