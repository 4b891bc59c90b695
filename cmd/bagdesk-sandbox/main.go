// Command bagdesk-sandbox serves an in-memory baggage back end and identity
// service for local use of the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ramops/bagdesk/internal/logging"
	"github.com/ramops/bagdesk/internal/sandbox"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	domain := flag.String("domain", "ram.com", "email domain for badge sign-in")
	admins := flag.String("admins", "admin123@ram.com", "comma-separated admin addresses")
	secret := flag.String("secret", "", "token signing secret (random demo value when empty)")
	ttl := flag.Duration("token-ttl", time.Hour, "ID token lifetime")
	seed := flag.Bool("seed", true, "load the demo data set")
	flag.Parse()

	zl, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bagdesk-sandbox: init logger: %v\n", err)
		return 1
	}
	log := logging.FromZap(zl)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := sandbox.New(sandbox.Options{
		Secret:   *secret,
		TokenTTL: *ttl,
		Domain:   *domain,
		Admins:   splitList(*admins),
		Logger:   log,
		Seed:     *seed,
	})

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("sandbox listening", "addr", *addr, "domain", *domain, "seeded", *seed)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "error", err)
			return 1
		}
		return 0
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
		return 1
	}
	return 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
