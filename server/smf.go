package sargam

import (
	"bytes"
	"encoding/binary"
	"math"

	"gitlab.com/gomidi/midi/v2"

	St "github.com/maroda/sargam/types"
)

// Standard MIDI File layout constants.
const (
	TicksPerQuarter = 480
	FluteProgram    = 73
	smfChannel      = 0
)

// SMFHeader is the fixed MThd chunk: format 0, one track, 480 TPQN.
var SMFHeader = []byte{
	'M', 'T', 'h', 'd',
	0x00, 0x00, 0x00, 0x06,
	0x00, 0x00,
	0x00, 0x01,
	0x01, 0xE0,
}

// SerializeSMF renders a melody as a format 0 Standard MIDI File.
//
// Track: tempo, track name, flute program, then a note on/off
// pair per note and end of track. Delta times are ticks at the
// melody tempo, so a silence before a note lands on its note-on.
func SerializeSMF(m *St.GeneratedMelody) []byte {
	bpm := m.TempoBPM
	if bpm <= 0 {
		bpm = DefaultTempoBPM
	}

	var trk bytes.Buffer

	// Tempo, microseconds per quarter in 3 bytes
	usPerQuarter := uint32(math.Round(60_000_000 / bpm))
	trk.Write([]byte{0x00, 0xFF, 0x51, 0x03,
		byte(usPerQuarter >> 16), byte(usPerQuarter >> 8), byte(usPerQuarter)})

	// Track name
	name := []byte("Raga " + m.GrammarName)
	trk.Write([]byte{0x00, 0xFF, 0x03})
	trk.Write(AppendVLQ(nil, uint32(len(name))))
	trk.Write(name)

	trk.WriteByte(0x00)
	trk.Write(midi.ProgramChange(smfChannel, FluteProgram))

	var lastEnd float64
	for i, n := range m.Notes {
		var delta uint32
		if i > 0 && n.Offset > lastEnd {
			delta = SecondsToTicks(n.Offset-lastEnd, bpm)
		}
		key := uint8(clampInt(n.Pitch, 0, 127))
		vel := uint8(clampInt(n.Velocity, 0, 127))

		trk.Write(AppendVLQ(nil, delta))
		trk.Write(midi.NoteOn(smfChannel, key, vel))
		trk.Write(AppendVLQ(nil, SecondsToTicks(n.Duration, bpm)))
		trk.Write(midi.NoteOff(smfChannel, key))

		lastEnd = n.Offset + n.Duration
	}

	trk.Write([]byte{0x00, 0xFF, 0x2F, 0x00})

	out := make([]byte, 0, len(SMFHeader)+8+trk.Len())
	out = append(out, SMFHeader...)
	out = append(out, 'M', 'T', 'r', 'k')
	out = binary.BigEndian.AppendUint32(out, uint32(trk.Len()))
	out = append(out, trk.Bytes()...)
	return out
}

// SecondsToTicks converts a duration at a tempo into MIDI ticks.
func SecondsToTicks(sec, bpm float64) uint32 {
	if sec <= 0 || bpm <= 0 {
		return 0
	}
	t := math.Round(sec * bpm / 60 * TicksPerQuarter)
	if t > 0x0FFFFFFF {
		return 0x0FFFFFFF
	}
	return uint32(t)
}

// AppendVLQ appends v as a MIDI variable-length quantity,
// seven bits per byte, most significant first.
// Values are capped at the four byte maximum 0x0FFFFFFF.
func AppendVLQ(dst []byte, v uint32) []byte {
	v = min(v, 0x0FFFFFFF)
	var tmp [4]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7F) | 0x80
	}
	return append(dst, tmp[i:]...)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
