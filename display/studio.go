package sargam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	So "github.com/maroda/sargam/obvy"
	Sp "github.com/maroda/sargam/plugin"
	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

// Studio is the running service: the engine plus
// everything that carries its results somewhere.
type Studio struct {
	Catalog      *Ss.Catalog
	Generator    *Ss.Generator
	Trainer      *Ss.Trainer
	Links        *Ss.LinkSource
	Progress     *Ss.ProgressTracker
	Output       Sp.OutputAdapter // nil when SARGAM_OUTPUT=none
	Transformers []string
	Stats        *So.StatsInternal
	Supervisor   *FlushSupervisor
	Config       *Ss.Config

	server *http.Server
}

// NewStudio assembles a Studio without any output adapter.
func NewStudio(cfg *Ss.Config, cat *Ss.Catalog) (*Studio, error) {
	if cfg == nil || cat == nil {
		return nil, errors.New("studio needs a config and a catalog")
	}

	// Validate the pitch chain up front, streams build their own copy
	if _, err := Sp.NewChain(cfg.Transformers); err != nil {
		slog.Error("Invalid transformer chain", slog.Any("error", err))
		return nil, err
	}

	return &Studio{
		Catalog:      cat,
		Generator:    Ss.NewGenerator(cat, nil),
		Trainer:      Ss.NewTrainer(cat, Ss.NewClassifier(cfg.TonicHz)),
		Links:        Ss.NewLinkSource(cfg.LinksURL),
		Progress:     Ss.NewProgressTracker(),
		Transformers: cfg.Transformers,
		Stats:        So.NewStatsInternal(),
		Config:       cfg,
	}, nil
}

// Generate renders a melody, records it and hands it to the output.
// An output failure is logged, the melody is still returned.
func (s *Studio) Generate(ctx context.Context, id string, opts Ss.GenerateOptions) (*St.GeneratedMelody, error) {
	_, span := So.Tracer().Start(ctx, "generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("raga", id),
		attribute.String("complexity", string(opts.Complexity)),
		attribute.Float64("duration", opts.TargetDurationSeconds),
		attribute.Float64("tempo", opts.TempoBPM))

	start := time.Now()
	m, err := s.Generator.Generate(id, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cx := string(opts.Complexity)
	if cx == "" {
		cx = string(Ss.DefaultComplexity)
	}
	s.Stats.RecMelody(m.GrammarID, cx, len(m.Notes), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("notes", len(m.Notes)))
	s.recordPractice(St.PracticeSession{
		GrammarID:       m.GrammarID,
		Activity:        St.ActivityMelody,
		DurationSeconds: m.TotalDurationSeconds,
	})

	if s.Output != nil {
		if err := s.Output.WriteMelody(m); err != nil {
			slog.Error("Output failed to take melody",
				slog.String("output", s.Output.Type()),
				slog.String("id", m.ID),
				slog.Any("error", err))
		}
	}
	return m, nil
}

// recordPractice adds a session to the learner history.
// A rejected session is logged, practice is never blocked on it.
func (s *Studio) recordPractice(ps St.PracticeSession) {
	if _, err := s.Progress.Add(ps); err != nil {
		slog.Error("Could not record practice session",
			slog.String("raga", ps.GrammarID),
			slog.String("activity", string(ps.Activity)),
			slog.Any("error", err))
	}
}

// Serialize renders a melody as SMF bytes inside a span.
func (s *Studio) Serialize(ctx context.Context, m *St.GeneratedMelody) []byte {
	_, span := So.Tracer().Start(ctx, "serialize")
	defer span.End()
	b := Ss.SerializeSMF(m)
	span.SetAttributes(attribute.Int("bytes", len(b)))
	return b
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (s *Studio) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		s.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// InitOutput opens the adapter named by the config.
func (s *Studio) InitOutput() error {
	cfg := s.Config
	switch cfg.Output {
	case "none":
		return nil
	case "badger":
		out, err := Sp.NewBadgerOutput(cfg.ArchivePath, cfg.ArchiveBatch)
		if err != nil {
			return err
		}
		s.Output = out
	case "smf":
		out, err := Sp.NewSMFOutput(cfg.SMFDir)
		if err != nil {
			return err
		}
		s.Output = out
	case "midi":
		if err := InitMIDIOutput(s, cfg.MIDIPort); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output %q", cfg.Output)
	}
	slog.Info("Output adapter enabled", slog.String("output", s.Output.Type()))
	return nil
}

// StartStudio is called by main to run the service until ctx ends.
func StartStudio(ctx context.Context, cfg *Ss.Config, cat *Ss.Catalog) error {
	studio, err := NewStudio(cfg, cat)
	if err != nil {
		return err
	}
	if err := studio.InitOutput(); err != nil {
		slog.Error("Failed to init output", slog.String("output", cfg.Output), slog.Any("error", err))
		return err
	}

	if studio.Output != nil {
		studio.NewFlushSupervisor(cfg.ArchiveFlush).Start()
	}

	studio.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(studio.SetupMux(), "sargam"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Starting Sargam studio...",
			slog.String("addr", cfg.Addr),
			slog.String("api", Ss.UrlCat("http://", hostPort(cfg.Addr), "/api/ragas")))
		if err := studio.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start studio", slog.Any("error", err))
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		studio.shutdownOutput()
		return err
	}

	slog.Info("Shutting down studio")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = studio.server.Shutdown(shutCtx)
	studio.shutdownOutput()
	return err
}

// hostPort fills in localhost for a bare ":port" listen address.
func hostPort(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func (s *Studio) shutdownOutput() {
	if s.Supervisor != nil {
		s.Supervisor.Stop()
	}
	if s.Output != nil {
		if err := s.Output.Close(); err != nil {
			slog.Error("Output close failed", slog.Any("error", err))
		}
	}
}
