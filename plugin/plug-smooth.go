package plugin

/*
	MedianSmooth

	Replaces the frequency with the median of the sample
	and the kept samples before it, which knocks out single
	octave jumps from the detector.
*/

import (
	"slices"

	St "github.com/maroda/sargam/types"
)

const DefaultSmoothWindow = 4

type MedianSmoothPlugin struct {
	Window int // past samples considered
}

func NewMedianSmooth(window int) *MedianSmoothPlugin {
	return &MedianSmoothPlugin{Window: max(window, 0)}
}

func (p *MedianSmoothPlugin) Transform(s St.PitchSample, history []St.PitchSample) (St.PitchSample, bool, error) {
	if len(history) == 0 {
		return s, true, nil
	}

	freqs := make([]float64, 0, len(history)+1)
	for _, h := range history {
		freqs = append(freqs, h.FrequencyHz)
	}
	freqs = append(freqs, s.FrequencyHz)

	s.FrequencyHz = Median(freqs)
	return s, true, nil
}

// Median of a non-empty slice, the mean of the middle pair when even.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sorted := slices.Clone(v)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func (p *MedianSmoothPlugin) HistoryReq() int { return p.Window }
func (p *MedianSmoothPlugin) Type() string    { return "median_smooth" }
