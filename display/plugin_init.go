//go:build !nomidi

package sargam

import (
	"log/slog"

	Sp "github.com/maroda/sargam/plugin"
)

func InitMIDIOutput(studio *Studio, port string) error {
	output, err := Sp.NewMIDIOutput(port)
	if err != nil {
		slog.Error("Failed to create adapter",
			slog.String("output", "midi"),
			slog.String("port", port),
			slog.Any("error", err))
		return err
	}
	studio.Output = output
	slog.Info("MIDI Adapter Enabled", slog.String("port", output.Port.String()))
	return nil
}
