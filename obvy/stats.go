package sargam

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sargam"

// StatsInternal is the internal prometheus registry.
// Each server gets its own so tests never collide
// on the global default registry.
type StatsInternal struct {
	Registry *prometheus.Registry

	MelodiesGenerated *prometheus.CounterVec
	GenerateSeconds   prometheus.Histogram
	MelodyNotes       prometheus.Histogram
	PitchSamples      *prometheus.CounterVec
	SamplesDropped    prometheus.Counter
	ArchiveFlushes    *prometheus.CounterVec
	WWWRequests       *prometheus.CounterVec
}

// NewStatsInternal creates and registers all collectors.
func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		MelodiesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "melodies_generated_total",
			Help:      "Melodies generated, by raga and complexity.",
		}, []string{"raga", "complexity"}),
		GenerateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Wall time spent generating and serializing a melody.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		MelodyNotes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "melody_notes",
			Help:      "Notes per generated melody.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
		}),
		PitchSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pitch_samples_total",
			Help:      "Pitch samples validated, by classification.",
		}, []string{"classification"}),
		SamplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pitch_samples_dropped_total",
			Help:      "Pitch samples discarded by the transformer chain.",
		}),
		ArchiveFlushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_flushes_total",
			Help:      "Output adapter flushes, by result.",
		}, []string{"result"}),
		WWWRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by status code and method.",
		}, []string{"code", "method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.MelodiesGenerated,
		s.GenerateSeconds,
		s.MelodyNotes,
		s.PitchSamples,
		s.SamplesDropped,
		s.ArchiveFlushes,
		s.WWWRequests,
	)

	return s
}

// Handler serves this registry for /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

// RecMelody records one generated melody.
func (s *StatsInternal) RecMelody(raga, complexity string, notes int, seconds float64) {
	s.MelodiesGenerated.WithLabelValues(raga, complexity).Inc()
	s.MelodyNotes.Observe(float64(notes))
	s.GenerateSeconds.Observe(seconds)
}

// RecSample records one validated pitch sample.
func (s *StatsInternal) RecSample(classification string) {
	s.PitchSamples.WithLabelValues(classification).Inc()
}

// RecDropped records a sample the transformer chain discarded.
func (s *StatsInternal) RecDropped() {
	s.SamplesDropped.Inc()
}

// RecFlush records an output flush, ok or error.
func (s *StatsInternal) RecFlush(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.ArchiveFlushes.WithLabelValues(result).Inc()
}

// RecWWW records an API request.
func (s *StatsInternal) RecWWW(code, method string) {
	s.WWWRequests.WithLabelValues(code, method).Inc()
}
