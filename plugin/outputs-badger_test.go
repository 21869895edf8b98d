package plugin_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	Sp "github.com/maroda/sargam/plugin"
	St "github.com/maroda/sargam/types"
)

func makeTestMelody(id, raga string, at time.Time) *St.GeneratedMelody {
	return &St.GeneratedMelody{
		ID:          id,
		GrammarID:   raga,
		GrammarName: raga,
		TempoBPM:    120,
		Notes: []St.GeneratedNote{
			{Degree: "S", Pitch: 60, Duration: 0.5, Velocity: 80},
			{Degree: "G", Pitch: 64, Duration: 0.75, Velocity: 95, Offset: 0.5, Ornament: "meend"},
			{Degree: "S", Pitch: 60, Duration: 0.5, Velocity: 80, Offset: 1.75},
		},
		TimeSignature:        St.TimeSignature{Beats: 4, Unit: 4},
		TotalDurationSeconds: 2.25,
		CreatedAt:            at,
	}
}

func TestMelodyKey(t *testing.T) {
	at := time.Unix(1700000000, 42)
	key := Sp.MelodyKey(makeTestMelody("abc", "yaman", at))

	t.Run("Starts with the creation time", func(t *testing.T) {
		assert.Equal(t, uint64(at.UnixNano()), binary.BigEndian.Uint64(key[:8]))
	})

	t.Run("Carries a five byte raga prefix and the id", func(t *testing.T) {
		assert.Equal(t, []byte("yamanabc"), key[8:])
	})

	t.Run("Pads a short raga id", func(t *testing.T) {
		k := Sp.MelodyKey(makeTestMelody("x", "des", at))
		assert.Equal(t, []byte{'d', 'e', 's', 0, 0, 'x'}, k[8:])
	})

	t.Run("Sorts by time", func(t *testing.T) {
		later := Sp.MelodyKey(makeTestMelody("abc", "bhairav", at.Add(time.Nanosecond)))
		assert.Equal(t, -1, bytes.Compare(key, later))
	})
}

func TestMelodyEncode(t *testing.T) {
	m := makeTestMelody("abc", "yaman", time.Unix(1700000000, 0))
	data, err := Sp.MelodyEncode(m)
	require.NoError(t, err)

	got, err := Sp.MelodyDecode(data)
	require.NoError(t, err)
	assert.Equal(t, m.Notes, got.Notes)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))

	_, err = Sp.MelodyDecode([]byte("garbage"))
	assert.Error(t, err)
}

func TestBadgerOutput(t *testing.T) {
	base := time.Unix(1700000000, 0)

	t.Run("Buffers until the batch is full", func(t *testing.T) {
		bo, err := Sp.NewBadgerMemOutput(3)
		require.NoError(t, err)
		defer bo.Close()

		require.NoError(t, bo.WriteMelody(makeTestMelody("1", "yaman", base)))
		require.NoError(t, bo.WriteMelody(makeTestMelody("2", "yaman", base.Add(time.Second))))
		assert.Len(t, bo.Buffer, 2)

		got, err := bo.QueryRange(base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, bo.WriteMelody(makeTestMelody("3", "yaman", base.Add(2*time.Second))))
		assert.Empty(t, bo.Buffer)

		got, err = bo.QueryRange(base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("Query range is half open and in time order", func(t *testing.T) {
		bo, err := Sp.NewBadgerMemOutput(10)
		require.NoError(t, err)
		defer bo.Close()

		require.NoError(t, bo.WriteBatch([]*St.GeneratedMelody{
			makeTestMelody("c", "des", base.Add(2*time.Minute)),
			makeTestMelody("a", "yaman", base),
			makeTestMelody("b", "bhairav", base.Add(time.Minute)),
		}))

		got, err := bo.QueryRange(base, base.Add(2*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
		assert.Equal(t, "bhairav", got[1].GrammarID)
	})

	t.Run("Flush writes a partial batch", func(t *testing.T) {
		bo, err := Sp.NewBadgerMemOutput(100)
		require.NoError(t, err)
		defer bo.Close()

		require.NoError(t, bo.WriteMelody(makeTestMelody("1", "yaman", base)))
		require.NoError(t, bo.Flush())
		require.NoError(t, bo.Flush())

		got, err := bo.QueryRange(base, base.Add(time.Second))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "meend", got[0].Notes[1].Ornament)
	})

	t.Run("Close flushes to disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "archive")
		bo, err := Sp.NewBadgerOutput(path, 100)
		require.NoError(t, err)
		require.NoError(t, bo.WriteMelody(makeTestMelody("1", "yaman", base)))
		require.NoError(t, bo.Close())

		reopened, err := Sp.NewBadgerOutput(path, 100)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.QueryRange(base, base.Add(time.Second))
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "BadgerDB", reopened.Type())
	})

	t.Run("Close alongside writers loses nothing", func(t *testing.T) {
		const writers = 50
		path := filepath.Join(t.TempDir(), "archive")
		bo, err := Sp.NewBadgerOutput(path, 1000)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m := makeTestMelody(fmt.Sprintf("m%02d", i), "yaman", base.Add(time.Duration(i)*time.Second))
				assert.NoError(t, bo.WriteMelody(m))
			}()
		}
		closed := make(chan error, 1)
		go func() { closed <- bo.Close() }()
		wg.Wait()
		require.NoError(t, <-closed)

		// Each melody is either on disk or still buffered after Close
		bo.MU.Lock()
		late := len(bo.Buffer)
		bo.MU.Unlock()

		reopened, err := Sp.NewBadgerOutput(path, 1000)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.QueryRange(base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, writers, len(got)+late)
	})
}
