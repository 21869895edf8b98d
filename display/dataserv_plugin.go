//go:build !nomidi

package sargam

import (
	Sp "github.com/maroda/sargam/plugin"
)

func (s *Studio) getMIDISystemInfo(systemInfo *SystemInfo) {
	// If the output type is MIDI, fill in the details
	if midiOut, ok := s.Output.(*Sp.MIDIOutput); ok && midiOut.Port != nil {
		systemInfo.MIDIPort = midiOut.Port.String()
		systemInfo.MIDIChannel = int(midiOut.Channel)
	}
}
