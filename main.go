package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	Sd "github.com/maroda/sargam/display"
	Ss "github.com/maroda/sargam/server"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	err := newRootCmd().Execute()
	if err != nil {
		sentry.CaptureException(err)
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	sentry.Flush(sentryFlushTimeout)
	if err != nil {
		os.Exit(1)
	}
}

// initSentry is optional, enabled by SENTRY_DSN.
// Without it every sentry call is a no-op.
func initSentry(cfg *Ss.Config) {
	if cfg.SentryDSN == "" {
		return
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:     cfg.SentryDSN,
		Release: "sargam@" + Sd.Version,
	}); err != nil {
		slog.Error("Failed to initialize Sentry", slog.Any("error", err))
		return
	}
	slog.Debug("Sentry enabled")
}
