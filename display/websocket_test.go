package sargam_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	Sd "github.com/maroda/sargam/display"
	St "github.com/maroda/sargam/types"
)

func dialPitch(t *testing.T, srv *httptest.Server, raga string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/pitch/" + raga
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, frame string) Sd.PitchFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	var reply Sd.PitchFrame
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestStudio_PitchStreamHandler(t *testing.T) {
	studio := makeTestStudio(t)
	srv := httptest.NewServer(studio.SetupMux())
	defer srv.Close()

	t.Run("Flags a forbidden swara", func(t *testing.T) {
		conn := dialPitch(t, srv, "yaman")

		reply := exchange(t, conn, `{"frequency": 349.23, "confidence": 0.9}`)
		assert.Empty(t, reply.Error)
		assert.False(t, reply.Dropped)
		require.NotNil(t, reply.Validation)
		assert.Equal(t, St.Forbidden, reply.Validation.Classification)
		assert.Equal(t, St.Degree("M"), reply.Validation.NearestDegree)
		assert.False(t, reply.Validation.IsValid)
		assert.Equal(t, St.Excellent, reply.Quality)
		assert.Equal(t, 1, reply.Session.TotalAttempts)
		assert.Equal(t, 0, reply.Session.CorrectAttempts)
	})

	t.Run("Counts correct attempts across frames", func(t *testing.T) {
		conn := dialPitch(t, srv, "yaman")

		reply := exchange(t, conn, `{"frequency": 261.63, "confidence": 1}`)
		require.NotNil(t, reply.Validation)
		assert.True(t, reply.Validation.IsValid)

		reply = exchange(t, conn, `{"frequency": 329.63, "confidence": 1}`)
		require.NotNil(t, reply.Validation)
		assert.Equal(t, St.Emphasized, reply.Validation.Classification)
		assert.Equal(t, 2, reply.Session.TotalAttempts)
		assert.Equal(t, 2, reply.Session.CorrectAttempts)
		assert.InDelta(t, 100.0, reply.Session.Accuracy, 1e-9)
	})

	t.Run("Drops a sample outside the gate", func(t *testing.T) {
		conn := dialPitch(t, srv, "yaman")

		reply := exchange(t, conn, `{"frequency": 20, "confidence": 0.9}`)
		assert.True(t, reply.Dropped)
		assert.Nil(t, reply.Validation)
		assert.Zero(t, reply.Session.TotalAttempts)
	})

	t.Run("Reports bad frames and keeps going", func(t *testing.T) {
		conn := dialPitch(t, srv, "bhairav")

		reply := exchange(t, conn, `{frequency`)
		assert.NotEmpty(t, reply.Error)

		reply = exchange(t, conn, `{"confidence": 0.4}`)
		assert.Contains(t, reply.Error, "frequency")

		reply = exchange(t, conn, `{"frequency": 261.63}`)
		assert.Empty(t, reply.Error)
		require.NotNil(t, reply.Validation)
		assert.Equal(t, 1, reply.Session.TotalAttempts)
	})

	t.Run("Refuses an unknown raga before upgrading", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/pitch/craquemattic"
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Records samples in the metrics", func(t *testing.T) {
		w := serve(t, studio.SetupMux(), "/metrics")
		assert.Contains(t, w.Body.String(), `sargam_pitch_samples_total{classification="forbidden"} 1`)
		assert.Contains(t, w.Body.String(), `sargam_pitch_samples_dropped_total 1`)
	})
}
