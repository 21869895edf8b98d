package sargam

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket pitch stream for live practice
// - Version and system info for programmatic use
// - Raga catalog, melody generation, classification and archive queries
// - Learner progress, with export and import of the history
func (s *Studio) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", s.Stats.Handler())
	r.HandleFunc("/ws/pitch/{raga}", s.PitchStreamHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.StatsMiddleware)
	api.HandleFunc("/version", s.VersionHandler).Methods(http.MethodGet)
	api.HandleFunc("/system", s.SystemHandler).Methods(http.MethodGet)
	api.HandleFunc("/ragas", s.RagasHandler).Methods(http.MethodGet)
	api.HandleFunc("/ragas/{id}", s.RagaHandler).Methods(http.MethodGet)
	api.HandleFunc("/ragas/{id}/melody", s.MelodyHandler).Methods(http.MethodGet)
	api.HandleFunc("/classify", s.ClassifyHandler).Methods(http.MethodGet)
	api.HandleFunc("/recommend", s.RecommendHandler).Methods(http.MethodGet)
	api.HandleFunc("/moods", s.MoodsHandler).Methods(http.MethodGet)
	api.HandleFunc("/archive", s.ArchiveHandler).Methods(http.MethodGet)
	api.HandleFunc("/progress", s.ProgressHandler).Methods(http.MethodGet)
	api.HandleFunc("/progress/sessions", s.SessionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/progress/sessions", s.AddSessionHandler).Methods(http.MethodPost)
	api.HandleFunc("/progress/export", s.ExportHandler).Methods(http.MethodGet)
	api.HandleFunc("/progress/import", s.ImportHandler).Methods(http.MethodPost)

	return r
}

var Version = "dev"

const maxUploadBytes = 1 << 20

func (s *Studio) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// SystemInfo describes how this studio is wired.
type SystemInfo struct {
	Version      string   `json:"version"`
	Output       string   `json:"output"`
	Transformers []string `json:"transformers"`
	Ragas        int      `json:"ragas"`
	TonicHz      float64  `json:"tonicHz"`
	MIDIPort     string   `json:"midiPort,omitempty"`
	MIDIChannel  int      `json:"midiChannel,omitempty"`
}

func (s *Studio) SystemHandler(w http.ResponseWriter, r *http.Request) {
	info := SystemInfo{
		Version:      Version,
		Output:       "none",
		Transformers: s.Transformers,
		Ragas:        len(s.Catalog.IDs()),
		TonicHz:      s.Trainer.Classifier.TonicHz,
	}
	if s.Output != nil {
		info.Output = s.Output.Type()
	}
	s.getMIDISystemInfo(&info)
	writeJSON(w, http.StatusOK, info)
}

func (s *Studio) RagasHandler(w http.ResponseWriter, r *http.Request) {
	if mood := r.URL.Query().Get("mood"); mood != "" {
		writeJSON(w, http.StatusOK, s.Catalog.ByMood(mood))
		return
	}
	if tod := r.URL.Query().Get("time"); tod != "" {
		writeJSON(w, http.StatusOK, s.Catalog.ByTime(tod))
		return
	}
	writeJSON(w, http.StatusOK, s.Catalog.All())
}

// RagaDetail is a grammar with its display links.
type RagaDetail struct {
	St.ScaleGrammar
	Links []string `json:"links"`
}

func (s *Studio) RagaHandler(w http.ResponseWriter, r *http.Request) {
	g, err := s.Catalog.Lookup(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	links := s.Links.LinksFor(g.ID)
	if links == nil {
		links = []string{}
	}
	writeJSON(w, http.StatusOK, RagaDetail{ScaleGrammar: g, Links: links})
}

// MelodyResponse is a generated melody with its analysis.
type MelodyResponse struct {
	Melody   *St.GeneratedMelody `json:"melody"`
	Analysis St.MelodyAnalysis   `json:"analysis"`
}

// MelodyHandler generates a melody.
// Query: duration, tempo, complexity, ornaments, pakad, format=json|midi
func (s *Studio) MelodyHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	opts, err := ParseGenerateOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	m, err := s.Generate(r.Context(), id, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "midi" {
		body := s.Serialize(r.Context(), m)
		w.Header().Set("Content-Type", "audio/midi")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", m.GrammarID+".mid"))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			slog.Error("Could not write midi body", slog.Any("error", err))
		}
		return
	}

	g, err := s.Catalog.Lookup(m.GrammarID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MelodyResponse{Melody: m, Analysis: Ss.Analyze(m, g)})
}

// ParseGenerateOptions reads generation options from a query string.
// Anything absent keeps its default.
func ParseGenerateOptions(r *http.Request) (Ss.GenerateOptions, error) {
	q := r.URL.Query()
	opts := Ss.DefaultGenerateOptions()

	var err error
	if v := q.Get("duration"); v != "" {
		if opts.TargetDurationSeconds, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, fmt.Errorf("%w: duration %q", Ss.ErrInvalidArgument, v)
		}
	}
	if v := q.Get("tempo"); v != "" {
		if opts.TempoBPM, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, fmt.Errorf("%w: tempo %q", Ss.ErrInvalidArgument, v)
		}
	}
	if v := q.Get("complexity"); v != "" {
		opts.Complexity = St.Complexity(v)
	}
	if v := q.Get("ornaments"); v != "" {
		if opts.IncludeOrnaments, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("%w: ornaments %q", Ss.ErrInvalidArgument, v)
		}
	}
	if v := q.Get("pakad"); v != "" {
		if opts.OpenWithSignature, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("%w: pakad %q", Ss.ErrInvalidArgument, v)
		}
	}
	return opts, nil
}

// ClassifyResponse is one classified frequency,
// validated when a raga is given.
type ClassifyResponse struct {
	FrequencyHz float64              `json:"frequency"`
	Degree      St.Degree            `json:"swara"`
	Cents       float64              `json:"cents"`
	Quality     St.PitchQuality      `json:"quality"`
	Confidence  float64              `json:"confidence"`
	Validation  *St.ValidationResult `json:"validation,omitempty"`
}

func (s *Studio) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hz, err := strconv.ParseFloat(q.Get("hz"), 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: hz %q", Ss.ErrInvalidArgument, q.Get("hz")))
		return
	}

	resp, err := s.classify(hz, q.Get("raga"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Studio) classify(hz float64, raga string) (ClassifyResponse, error) {
	d, cents, err := s.Trainer.Classifier.Classify(hz)
	if err != nil {
		return ClassifyResponse{}, err
	}
	resp := ClassifyResponse{
		FrequencyHz: hz,
		Degree:      d,
		Cents:       Ss.FloatPrecise(cents, 2),
		Quality:     Ss.QualityFor(cents),
		Confidence:  Ss.ConfidenceFor(cents),
	}
	if raga != "" {
		res, err := s.Catalog.Validate(d, raga)
		if err != nil {
			return ClassifyResponse{}, err
		}
		res.CentsDeviation = resp.Cents
		resp.Validation = &res
		s.Stats.RecSample(string(res.Classification))
	}
	return resp, nil
}

func (s *Studio) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	intensity := 0
	if v := q.Get("intensity"); v != "" {
		var err error
		if intensity, err = strconv.Atoi(v); err != nil {
			writeError(w, fmt.Errorf("%w: intensity %q", Ss.ErrInvalidArgument, v))
			return
		}
	}

	recs, err := s.Catalog.Recommend(q.Get("mood"), intensity, q.Get("context"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// MoodsHandler lists the mood tags a client can pass to /recommend.
func (s *Studio) MoodsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.Moods())
}

// ArchiveHandler queries the output for melodies created in [start, end).
// start and end are RFC3339, defaulting to the last hour.
func (s *Studio) ArchiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.Output == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no output configured"})
		return
	}

	end := time.Now()
	start := end.Add(-time.Hour)
	var err error
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, fmt.Errorf("%w: start %q", Ss.ErrInvalidArgument, v))
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, fmt.Errorf("%w: end %q", Ss.ErrInvalidArgument, v))
			return
		}
	}

	if err := s.Output.Flush(); err != nil {
		slog.Error("Flush before query failed", slog.Any("error", err))
	}
	melodies, err := s.Output.QueryRange(start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if melodies == nil {
		melodies = []*St.GeneratedMelody{}
	}
	writeJSON(w, http.StatusOK, melodies)
}

// ProgressHandler summarizes the learner history.
// Before any session the summary is empty, not an error.
func (s *Studio) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	prog, ok := s.Progress.Progress()
	if !ok {
		prog = St.Progress{
			RagasLearned:  []string{},
			FavoriteRagas: []string{},
			WeakAreas:     []string{},
			Achievements:  []St.Achievement{},
		}
	}
	writeJSON(w, http.StatusOK, prog)
}

// SessionsHandler lists recorded sessions, optionally by raga or activity.
func (s *Studio) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var sessions []St.PracticeSession
	switch {
	case q.Get("raga") != "":
		sessions = s.Progress.ByRaga(q.Get("raga"))
	case q.Get("activity") != "":
		sessions = s.Progress.ByActivity(St.Activity(q.Get("activity")))
	default:
		sessions = s.Progress.Sessions()
	}
	if sessions == nil {
		sessions = []St.PracticeSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// AddSessionHandler records a session reported by a client,
// such as an emotion mapping exercise.
func (s *Studio) AddSessionHandler(w http.ResponseWriter, r *http.Request) {
	var ps St.PracticeSession
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&ps); err != nil {
		writeError(w, fmt.Errorf("%w: session: %w", Ss.ErrInvalidArgument, err))
		return
	}
	if _, err := s.Catalog.Lookup(ps.GrammarID); err != nil {
		writeError(w, err)
		return
	}

	added, err := s.Progress.Add(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// ExportHandler downloads the history and summary as a JSON file.
func (s *Studio) ExportHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.Progress.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="sargam-progress.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Could not write progress export", slog.Any("error", err))
	}
}

// ImportHandler replaces the history with an earlier export
// and answers with the recomputed summary.
func (s *Studio) ImportHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: progress import: %w", Ss.ErrInvalidArgument, err))
		return
	}
	if err := s.Progress.Import(data); err != nil {
		writeError(w, err)
		return
	}
	s.ProgressHandler(w, r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Could not encode response", slog.Any("error", err))
	}
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, Ss.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, Ss.ErrInvalidArgument):
		code = http.StatusBadRequest
	default:
		slog.Error("Request failed", slog.Any("error", err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
