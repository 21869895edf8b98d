package sargam_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

func TestAppendVLQ(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x00}},
		{480, []byte{0x83, 0x60}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("Encodes %d", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, Ss.AppendVLQ(nil, tt.in))
		})
	}

	t.Run("Caps values above four bytes", func(t *testing.T) {
		assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0x7F}, Ss.AppendVLQ(nil, 0xFFFFFFFF))
	})

	t.Run("Appends to what is already there", func(t *testing.T) {
		assert.Equal(t, []byte{0xAA, 0x81, 0x00}, Ss.AppendVLQ([]byte{0xAA}, 128))
	})
}

func TestSecondsToTicks(t *testing.T) {
	t.Run("One beat is one quarter", func(t *testing.T) {
		assert.Equal(t, uint32(480), Ss.SecondsToTicks(0.5, 120))
		assert.Equal(t, uint32(480), Ss.SecondsToTicks(1, 60))
	})

	t.Run("Non-positive input is zero ticks", func(t *testing.T) {
		assert.Zero(t, Ss.SecondsToTicks(-1, 120))
		assert.Zero(t, Ss.SecondsToTicks(1, 0))
	})
}

func makeSMFMelody() *St.GeneratedMelody {
	return &St.GeneratedMelody{
		GrammarID:   "yaman",
		GrammarName: "Yaman",
		TempoBPM:    120,
		Notes: []St.GeneratedNote{
			{Degree: "S", Pitch: 60, Duration: 0.5, Velocity: 80, Offset: 0},
			{Degree: "G", Pitch: 64, Duration: 0.75, Velocity: 95, Offset: 0.5},
			// half second rest before this one
			{Degree: "S", Pitch: 60, Duration: 0.5, Velocity: 80, Offset: 1.75},
		},
		TotalDurationSeconds: 2.25,
	}
}

func TestSerializeSMF(t *testing.T) {
	data := Ss.SerializeSMF(makeSMFMelody())

	t.Run("Starts with the fixed header", func(t *testing.T) {
		want := []byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0x01, 0xE0}
		require.GreaterOrEqual(t, len(data), 14)
		assert.Equal(t, want, data[:14])
		assert.Equal(t, Ss.SMFHeader, data[:14])
	})

	t.Run("Track length matches the track", func(t *testing.T) {
		require.GreaterOrEqual(t, len(data), 22)
		assert.Equal(t, []byte("MTrk"), data[14:18])
		assert.Equal(t, uint32(len(data)-22), binary.BigEndian.Uint32(data[18:22]))
	})

	t.Run("Writes the tempo in microseconds per quarter", func(t *testing.T) {
		// 500000 us = 0x07A120
		assert.Equal(t, []byte{0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}, data[22:29])
	})

	t.Run("Names the track after the raga", func(t *testing.T) {
		assert.True(t, bytes.Contains(data, []byte("Raga Yaman")))
	})

	t.Run("Ends with end of track", func(t *testing.T) {
		assert.Equal(t, []byte{0x00, 0xFF, 0x2F, 0x00}, data[len(data)-4:])
	})

	t.Run("Long durations use two byte deltas", func(t *testing.T) {
		// G lasts 0.75s = 720 ticks = 0x85 0x50, before its note off
		want := append([]byte{0x85, 0x50}, midi.NoteOff(0, 64)...)
		assert.True(t, bytes.Contains(data, want))
	})

	t.Run("Parses as a Standard MIDI File", func(t *testing.T) {
		f, err := smf.ReadFrom(bytes.NewReader(data))
		require.NoError(t, err)
		require.Len(t, f.Tracks, 1)

		var (
			bpm     float64
			name    string
			program uint8
			starts  []uint8
			ticks   []uint32
			abs     uint32
		)
		for _, ev := range f.Tracks[0] {
			abs += ev.Delta
			var ch, key, vel uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
			case ev.Message.GetMetaTrackName(&name):
			case midi.Message(ev.Message).GetProgramChange(&ch, &program):
			case midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel):
				starts = append(starts, key)
				ticks = append(ticks, abs)
			}
		}

		assert.InDelta(t, 120.0, bpm, 0.01)
		assert.Equal(t, "Raga Yaman", name)
		assert.Equal(t, uint8(Ss.FluteProgram), program)
		assert.Equal(t, []uint8{60, 64, 60}, starts)
		// 0, after 480, after 480+720 plus a 480 tick rest
		assert.Equal(t, []uint32{0, 480, 1680}, ticks)
	})

	t.Run("Empty melody is still a valid file", func(t *testing.T) {
		empty := Ss.SerializeSMF(&St.GeneratedMelody{GrammarName: "Yaman"})
		_, err := smf.ReadFrom(bytes.NewReader(empty))
		assert.NoError(t, err)
	})

	t.Run("Serializes a generated melody", func(t *testing.T) {
		m, err := Ss.NewGenerator(makeTestCatalog(t), seeded()).Generate("bhairav", Ss.DefaultGenerateOptions())
		require.NoError(t, err)

		f, err := smf.ReadFrom(bytes.NewReader(Ss.SerializeSMF(m)))
		require.NoError(t, err)

		var on int
		for _, ev := range f.Tracks[0] {
			var ch, key, vel uint8
			if midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
				on++
			}
		}
		assert.Equal(t, len(m.Notes), on)
	})
}
