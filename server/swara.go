package sargam

import (
	"fmt"
	"math"

	St "github.com/maroda/sargam/types"
)

// DefaultTonicHz is Sa at C4
const DefaultTonicHz = 261.63

const tonic St.Degree = "S"
const fifth St.Degree = "P"

// Swara is one row of the degree table.
type Swara struct {
	Degree St.Degree
	Name   string
	Pitch  int     // MIDI note number, Sa = C4 = 60
	Ratio  float64 // just intonation ratio to the tonic
	Cents  float64 // 1200 * log2(Ratio)
}

// Hz returns the reference frequency of the swara for a given tonic.
func (s Swara) Hz(tonicHz float64) float64 {
	return tonicHz * s.Ratio
}

// The middle octave, in ascending order.
// Ratios follow the just intonation table, not equal temperament.
var middleOctave = []Swara{
	{Degree: "S", Name: "Sa (Shadja)", Pitch: 60, Ratio: 1.0 / 1.0},
	{Degree: "r", Name: "Komal Re", Pitch: 61, Ratio: 16.0 / 15.0},
	{Degree: "R", Name: "Shuddha Re", Pitch: 62, Ratio: 9.0 / 8.0},
	{Degree: "g", Name: "Komal Ga", Pitch: 63, Ratio: 32.0 / 27.0},
	{Degree: "G", Name: "Shuddha Ga", Pitch: 64, Ratio: 5.0 / 4.0},
	{Degree: "M", Name: "Shuddha Ma", Pitch: 65, Ratio: 4.0 / 3.0},
	{Degree: "M+", Name: "Tivra Ma", Pitch: 66, Ratio: 45.0 / 32.0},
	{Degree: "P", Name: "Pa (Panchama)", Pitch: 67, Ratio: 3.0 / 2.0},
	{Degree: "d", Name: "Komal Dha", Pitch: 68, Ratio: 8.0 / 5.0},
	{Degree: "D", Name: "Shuddha Dha", Pitch: 69, Ratio: 27.0 / 16.0},
	{Degree: "n", Name: "Komal Ni", Pitch: 70, Ratio: 16.0 / 9.0},
	{Degree: "N", Name: "Shuddha Ni", Pitch: 71, Ratio: 15.0 / 8.0},
}

// swaraTable holds both octaves, built once at init.
var (
	swaraTable []Swara
	swaraIndex map[St.Degree]int
)

func init() {
	swaraTable = make([]Swara, 0, 2*len(middleOctave))
	for _, s := range middleOctave {
		s.Cents = 1200 * math.Log2(s.Ratio)
		swaraTable = append(swaraTable, s)
	}
	for _, s := range middleOctave {
		swaraTable = append(swaraTable, Swara{
			Degree: s.Degree + "'",
			Name:   "Tar " + s.Name,
			Pitch:  s.Pitch + 12,
			Ratio:  s.Ratio * 2,
			Cents:  1200*math.Log2(s.Ratio) + 1200,
		})
	}

	swaraIndex = make(map[St.Degree]int, len(swaraTable))
	for i, s := range swaraTable {
		swaraIndex[s.Degree] = i
	}
}

// Swaras returns a copy of the full degree table, low to high.
func Swaras() []Swara {
	out := make([]Swara, len(swaraTable))
	copy(out, swaraTable)
	return out
}

// LookupSwara finds the table row for a degree symbol.
func LookupSwara(d St.Degree) (Swara, bool) {
	i, ok := swaraIndex[d]
	if !ok {
		return Swara{}, false
	}
	return swaraTable[i], true
}

// PitchOf maps a degree to its MIDI pitch.
// An unmapped degree is a catalog defect, never defaulted to Sa.
func PitchOf(d St.Degree) (int, error) {
	s, ok := LookupSwara(d)
	if !ok {
		return 0, fmt.Errorf("%w: unmapped swara %q", ErrDataIntegrity, d)
	}
	return s.Pitch, nil
}
