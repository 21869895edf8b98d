package plugin

/*
	GlideGate

	Drops samples taken while the voice is sliding between
	notes: when the pitch moves faster than MaxCentsPerSec
	from the last kept sample, the reading is mid-glide and
	would classify as whatever swara it happened to cross.
*/

import (
	"math"

	St "github.com/maroda/sargam/types"
)

const DefaultMaxCentsPerSec = 1200.0

type GlideGatePlugin struct {
	MaxCentsPerSec float64
}

func NewGlideGate(limit float64) *GlideGatePlugin {
	if limit <= 0 {
		limit = DefaultMaxCentsPerSec
	}
	return &GlideGatePlugin{MaxCentsPerSec: limit}
}

// Transform keeps the first sample and any sample whose
// rate against the previous kept one is within the limit.
func (p *GlideGatePlugin) Transform(s St.PitchSample, history []St.PitchSample) (St.PitchSample, bool, error) {
	if len(history) < 1 {
		return s, true, nil
	}
	prev := history[len(history)-1]
	rate := CalcRate(s.FrequencyHz, prev.FrequencyHz, s.TimestampMs, prev.TimestampMs)
	return s, rate <= p.MaxCentsPerSec, nil
}

// CalcRate is the absolute pitch movement in cents per second
// between two timestamped readings. Readings with no time between
// them, or out of order, count as an instant jump unless equal.
func CalcRate(curr, prev float64, currMs, prevMs int64) float64 {
	if curr <= 0 || prev <= 0 {
		return math.Inf(1)
	}
	cents := math.Abs(1200 * math.Log2(curr/prev))
	if cents == 0 {
		return 0
	}

	elapsed := float64(currMs-prevMs) / 1000
	if elapsed <= 0 {
		return math.Inf(1)
	}
	return cents / elapsed
}

func (p *GlideGatePlugin) HistoryReq() int { return 1 }
func (p *GlideGatePlugin) Type() string    { return "glide_gate" }
