package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	Sd "github.com/maroda/sargam/display"
	So "github.com/maroda/sargam/obvy"
	Ss "github.com/maroda/sargam/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, pitch stream and metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.Otel == "honeycomb" && Ss.FillEnvVar("HONEYCOMB_API_KEY") == "ENOENT" {
				slog.Warn("SARGAM_OTEL=honeycomb without HONEYCOMB_API_KEY, spans will be rejected")
			}
			shutdown, err := So.InitTracing(ctx, a.cfg.Otel)
			if err != nil {
				return err
			}
			defer shutdown()

			return Sd.StartStudio(ctx, a.cfg, a.catalog)
		},
	}
}
