//go:build !nomidi

package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

// MIDIOutput plays melodies on a live MIDI port.
type MIDIOutput struct {
	Port    drivers.Out
	Send    func(msg midi.Message) error
	Channel uint8
	WG      sync.WaitGroup
	Sleep   func(time.Duration)
}

// NewMIDIOutput opens the named port, or the first port when name is empty.
func NewMIDIOutput(name string) (*MIDIOutput, error) {
	var (
		out drivers.Out
		err error
	)
	if name == "" {
		out, err = midi.OutPort(0)
	} else {
		out, err = midi.FindOutPort(name)
	}
	if err != nil {
		slog.Error("Error opening MIDI port", slog.String("port", name))
		return nil, fmt.Errorf("error opening MIDI port: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.String("port", name))
		return nil, fmt.Errorf("error sending to MIDI port: %w", err)
	}

	return NewMIDIOutputWithSender(out, send), nil
}

// NewMIDIOutputWithSender wires a MIDIOutput to any sender.
func NewMIDIOutputWithSender(port drivers.Out, send func(midi.Message) error) *MIDIOutput {
	return &MIDIOutput{
		Port:  port,
		Send:  send,
		Sleep: time.Sleep,
	}
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// WriteMelody plays the melody in the background, in real time.
// Notes start at their offsets, so phrase gaps are heard as rests.
func (mo *MIDIOutput) WriteMelody(m *St.GeneratedMelody) error {
	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		if err := mo.play(m); err != nil {
			slog.Error("MIDI playback failed, attempting Flush",
				slog.String("id", m.ID),
				slog.Any("error", err))
			mo.Flush()
		}
	}()
	return nil
}

func (mo *MIDIOutput) play(m *St.GeneratedMelody) error {
	if err := mo.Send(midi.ProgramChange(mo.Channel, Ss.FluteProgram)); err != nil {
		return err
	}

	var clock float64
	for _, n := range m.Notes {
		if rest := n.Offset - clock; rest > 0 {
			mo.Sleep(seconds(rest))
		}
		key := uint8(min(max(n.Pitch, 0), 127))
		vel := uint8(min(max(n.Velocity, 0), 127))
		if err := mo.SendNoteOnMIDI(mo.Channel, key, vel); err != nil {
			return fmt.Errorf("NoteOn event failed: %w", err)
		}
		mo.Sleep(seconds(n.Duration))
		if err := mo.SendNoteOffMIDI(mo.Channel, key); err != nil {
			return fmt.Errorf("NoteOff event failed: %w", err)
		}
		clock = n.Offset + n.Duration
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WriteBatch plays each melody in turn.
func (mo *MIDIOutput) WriteBatch(ms []*St.GeneratedMelody) error {
	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		for _, m := range ms {
			if err := mo.play(m); err != nil {
				slog.Error("MIDI batch playback failed", slog.Any("error", err))
				mo.Flush()
				return
			}
		}
	}()
	return nil
}

func (mo *MIDIOutput) QueryRange(start, end time.Time) ([]*St.GeneratedMelody, error) {
	return nil, errors.New("MIDI output keeps no history")
}

// Flush silences every note on the channel.
func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(mo.Channel, midi.AllNotesOff, midi.Off))
}

// Close waits for playback to finish.
func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }
