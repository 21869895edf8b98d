package sargam

import (
	St "github.com/maroda/sargam/types"
)

// Accent shaping for generated notes.
// Every note that leaves a phrase is stretched, weighted
// and maybe ornamented according to its role in the raga.

const (
	velocityVadi    = 95
	velocitySamvadi = 85
	velocityAnchor  = 80 // Sa and Pa
	velocityBase    = 70
	velocitySpread  = 15

	velocityPakadVadi = 90
	velocityPakad     = 80
	velocityFinal     = 80

	stretchVadi    = 1.5
	stretchSamvadi = 1.25

	ornamentChance = 0.3
)

// accentDuration stretches the base beat for vadi and samvadi.
// Complex melodies also get a random factor in [0.5, 2.0).
func accentDuration(g *St.ScaleGrammar, d St.Degree, beat float64, cx St.Complexity, rng Rand) float64 {
	dur := beat
	switch d {
	case g.Emphasized:
		dur *= stretchVadi
	case g.SecondaryEmphasis:
		dur *= stretchSamvadi
	}
	if cx == St.Complex {
		dur *= 0.5 + rng.Float64()*1.5
	}
	return dur
}

// accentVelocity weights a note by its importance.
func accentVelocity(g *St.ScaleGrammar, d St.Degree, rng Rand) int {
	switch {
	case d == g.Emphasized:
		return velocityVadi
	case d == g.SecondaryEmphasis:
		return velocitySamvadi
	case d == tonic || d == fifth:
		return velocityAnchor
	default:
		return velocityBase + rng.IntN(velocitySpread)
	}
}

// accentOrnament picks one of the grammar's ornaments, or none.
func accentOrnament(g *St.ScaleGrammar, include bool, rng Rand) string {
	if !include || len(g.Ornaments) == 0 {
		return ""
	}
	if rng.Float64() >= ornamentChance {
		return ""
	}
	return g.Ornaments[rng.IntN(len(g.Ornaments))]
}
