package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	Ss "github.com/maroda/sargam/server"
)

// app is what every subcommand shares after PersistentPreRunE.
type app struct {
	cfg     *Ss.Config
	catalog *Ss.Catalog
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sargam",
		Short: "Raga grammar engine",
		Long: `Sargam generates melodies that follow raga grammar,
writes them as Standard MIDI Files and checks sung pitches
against a raga for practice.

Configuration comes from SARGAM_* environment variables,
optionally loaded from a .env file.

Examples:
  # A 20 second Yaman melody as a MIDI file
  sargam generate yaman -d 20 -o yaman.mid

  # Which swara is 440 Hz, and is it allowed in Bhairav?
  sargam classify 440 --raga bhairav

  # Serve the HTTP API and pitch stream
  sargam serve
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newClassifyCmd(a),
		newValidateCmd(a),
		newListCmd(a),
		newRecommendCmd(a),
	)
	return root
}

// init loads config, sets up logging and builds the catalog.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := Ss.LoadConfig(cmd.Context())
	if err != nil {
		return err
	}
	a.cfg = cfg

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
	initSentry(cfg)

	cat, err := Ss.DefaultCatalog()
	if err != nil {
		return err
	}
	if cfg.CatalogFile != "" {
		extra, err := Ss.LoadCatalogFileName(cfg.CatalogFile)
		if err != nil {
			slog.Error("Could not load catalog file", slog.String("file", cfg.CatalogFile), slog.Any("error", err))
			return err
		}
		cat = cat.Merge(extra)
	}
	a.catalog = cat
	return nil
}
