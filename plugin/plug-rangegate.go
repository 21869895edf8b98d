package plugin

/*
	RangeGate

	Drops samples outside the singing range, or below a confidence floor.
	Frequencies under 80 Hz or over 2000 Hz are detector noise.

	~~~ Plugin Reference Implementation ~~~
*/

import (
	"math"

	St "github.com/maroda/sargam/types"
)

const (
	DefaultMinHz = 80.0
	DefaultMaxHz = 2000.0
)

type RangeGatePlugin struct {
	MinHz         float64
	MaxHz         float64
	MinConfidence float64
}

func NewRangeGate() *RangeGatePlugin {
	return &RangeGatePlugin{MinHz: DefaultMinHz, MaxHz: DefaultMaxHz}
}

// Transform is the main wrapper for the interface.
func (p *RangeGatePlugin) Transform(s St.PitchSample, _ []St.PitchSample) (St.PitchSample, bool, error) {
	return s, InRange(s, p.MinHz, p.MaxHz, p.MinConfidence), nil
}

// InRange reports whether a sample is a usable reading.
func InRange(s St.PitchSample, lo, hi, minConf float64) bool {
	f := s.FrequencyHz
	if math.IsNaN(f) || f < lo || f > hi {
		return false
	}
	return s.Confidence >= minConf
}

func (p *RangeGatePlugin) HistoryReq() int { return 0 }
func (p *RangeGatePlugin) Type() string    { return "range_gate" }
