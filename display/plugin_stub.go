//go:build nomidi

package sargam

import (
	"fmt"
	"log/slog"
)

func InitMIDIOutput(studio *Studio, port string) error {
	slog.Warn("MIDI support not compiled in this build")
	return fmt.Errorf("MIDI support not available")
}
