package sargam_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	So "github.com/maroda/sargam/obvy"
)

func TestStatsInternal(t *testing.T) {
	stats := So.NewStatsInternal()

	stats.RecMelody("yaman", "medium", 42, 0.002)
	stats.RecMelody("yaman", "medium", 40, 0.001)
	stats.RecSample("forbidden")
	stats.RecDropped()
	stats.RecFlush(nil)
	stats.RecFlush(errors.New("disk full"))
	stats.RecWWW("200", http.MethodGet)

	t.Run("Counts by label", func(t *testing.T) {
		assert.Equal(t, 2.0, testutil.ToFloat64(stats.MelodiesGenerated.WithLabelValues("yaman", "medium")))
		assert.Equal(t, 1.0, testutil.ToFloat64(stats.PitchSamples.WithLabelValues("forbidden")))
		assert.Equal(t, 1.0, testutil.ToFloat64(stats.SamplesDropped))
		assert.Equal(t, 1.0, testutil.ToFloat64(stats.ArchiveFlushes.WithLabelValues("ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(stats.ArchiveFlushes.WithLabelValues("error")))
	})

	t.Run("Handler serves the private registry", func(t *testing.T) {
		w := httptest.NewRecorder()
		stats.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, `sargam_melodies_generated_total{complexity="medium",raga="yaman"} 2`)
		assert.Contains(t, body, `sargam_melody_notes_count 2`)
		assert.Contains(t, body, `sargam_http_requests_total{code="200",method="GET"} 1`)
		assert.Contains(t, body, "go_goroutines")
	})

	t.Run("Registries are independent", func(t *testing.T) {
		other := So.NewStatsInternal()
		assert.Zero(t, testutil.ToFloat64(other.SamplesDropped))
	})
}

func TestInitTracing(t *testing.T) {
	t.Run("None installs a no-op shutdown", func(t *testing.T) {
		shutdown, err := So.InitTracing(context.Background(), "none")
		require.NoError(t, err)
		assert.NotPanics(t, shutdown)

		_, span := So.Tracer().Start(context.Background(), "test")
		span.End()
	})

	t.Run("Unknown mode is an error", func(t *testing.T) {
		_, err := So.InitTracing(context.Background(), "carrier-pigeon")
		assert.ErrorContains(t, err, "carrier-pigeon")
	})
}
