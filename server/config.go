package sargam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the runtime configuration, read from the environment.
// A .env file in the working directory is loaded first by the CLI.
type Config struct {
	Addr        string  `env:"SARGAM_ADDR, default=:8090"`
	TonicHz     float64 `env:"SARGAM_TONIC_HZ, default=261.63"`
	CatalogFile string  `env:"SARGAM_CATALOG_FILE"`
	LogLevel    string  `env:"SARGAM_LOG_LEVEL, default=info"`

	// Output adapter: none, badger, midi or smf
	Output       string        `env:"SARGAM_OUTPUT, default=none"`
	ArchivePath  string        `env:"SARGAM_ARCHIVE_PATH, default=sargam.db"`
	ArchiveBatch int           `env:"SARGAM_ARCHIVE_BATCH, default=16"`
	ArchiveFlush time.Duration `env:"SARGAM_ARCHIVE_FLUSH, default=10s"`
	MIDIPort     string        `env:"SARGAM_MIDI_PORT"`
	SMFDir       string        `env:"SARGAM_SMF_DIR, default=."`

	// Comma separated sample transformer chain for the pitch stream
	Transformers []string `env:"SARGAM_TRANSFORMERS, default=range_gate"`

	LinksURL string `env:"SARGAM_LINKS_URL"`

	// Telemetry: none, honeycomb or grafana
	Otel      string `env:"SARGAM_OTEL, default=none"`
	SentryDSN string `env:"SENTRY_DSN"`
}

// LoadConfig reads the process environment.
func LoadConfig(ctx context.Context) (*Config, error) {
	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

// LoadConfigWith reads configuration from any lookuper,
// tests use envconfig.MapLookuper.
func LoadConfigWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var c Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &c,
		Lookuper: l,
	}); err != nil {
		slog.Error("could not process environment", slog.Any("error", err))
		return nil, fmt.Errorf("%w: config: %w", ErrInvalidArgument, err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	c.Output = strings.ToLower(c.Output)
	switch c.Output {
	case "none", "badger", "midi", "smf":
	default:
		return fmt.Errorf("%w: SARGAM_OUTPUT %q", ErrInvalidArgument, c.Output)
	}

	c.Otel = strings.ToLower(c.Otel)
	switch c.Otel {
	case "none", "honeycomb", "grafana":
	default:
		return fmt.Errorf("%w: SARGAM_OTEL %q", ErrInvalidArgument, c.Otel)
	}

	if c.TonicHz <= 0 {
		return fmt.Errorf("%w: SARGAM_TONIC_HZ %v", ErrInvalidArgument, c.TonicHz)
	}
	if c.ArchiveBatch < 1 {
		return fmt.Errorf("%w: SARGAM_ARCHIVE_BATCH %d", ErrInvalidArgument, c.ArchiveBatch)
	}
	if c.ArchiveFlush <= 0 {
		return fmt.Errorf("%w: SARGAM_ARCHIVE_FLUSH %v", ErrInvalidArgument, c.ArchiveFlush)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level, unknown names are info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
