package sargam

import (
	"fmt"
	"math"
	"slices"
	"strings"

	St "github.com/maroda/sargam/types"
)

// Classifier maps frequencies onto the swara table
// relative to a tonic. It is immutable and safe to share.
type Classifier struct {
	TonicHz float64
}

// NewClassifier returns a classifier for the given Sa frequency.
// A non-positive tonic falls back to DefaultTonicHz.
func NewClassifier(tonicHz float64) *Classifier {
	if tonicHz <= 0 || math.IsNaN(tonicHz) || math.IsInf(tonicHz, 0) {
		tonicHz = DefaultTonicHz
	}
	return &Classifier{TonicHz: tonicHz}
}

// FrequencyToCents is the distance of hz above the tonic, 1200 per octave.
func FrequencyToCents(hz, tonicHz float64) float64 {
	return 1200 * math.Log2(hz/tonicHz)
}

// Classify finds the nearest swara to hz and the signed
// deviation in cents from that swara's canonical position.
// Positive means sharp.
func (c *Classifier) Classify(hz float64) (St.Degree, float64, error) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return "", 0, fmt.Errorf("%w: frequency %v Hz", ErrInvalidArgument, hz)
	}

	cents := FrequencyToCents(hz, c.TonicHz)

	best := swaraTable[0]
	bestDist := math.Abs(cents - best.Cents)
	for _, s := range swaraTable[1:] {
		if d := math.Abs(cents - s.Cents); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best.Degree, cents - best.Cents, nil
}

// Validate classifies a swara against a raga. It reads the catalog only,
// so the same inputs always give the same result.
// Precedence: forbidden, vadi, samvadi, allowed, then out of grammar.
// Grammars list middle octave swaras, so a tar swara such as S' is
// always out of grammar, as the classifier reports it.
// The returned deviation is zero, ValidateSample fills it in.
func (c *Catalog) Validate(d St.Degree, grammarID string) (St.ValidationResult, error) {
	g, err := c.Lookup(grammarID)
	if err != nil {
		return St.ValidationResult{}, err
	}
	if _, ok := LookupSwara(d); !ok {
		return St.ValidationResult{}, fmt.Errorf("%w: swara %q", ErrNotFound, d)
	}

	res := St.ValidationResult{NearestDegree: d}
	allowed := joinDegrees(g.Allowed)

	switch {
	case slices.Contains(g.Forbidden, d):
		res.Classification = St.Forbidden
		res.Feedback = fmt.Sprintf("%s is forbidden in %s", d, g.Name)
		res.Suggestion = fmt.Sprintf("Try %s instead", allowed)
	case d == g.Emphasized:
		res.IsValid = true
		res.Classification = St.Emphasized
		res.Feedback = fmt.Sprintf("Excellent! %s is the Vadi (most important note) of %s", d, g.Name)
	case d == g.SecondaryEmphasis:
		res.IsValid = true
		res.Classification = St.SecondaryEmphasis
		res.Feedback = fmt.Sprintf("Great! %s is the Samvadi (second most important note) of %s", d, g.Name)
	case slices.Contains(g.Allowed, d):
		res.IsValid = true
		res.Classification = St.Allowed
		res.Feedback = fmt.Sprintf("Correct! %s belongs to %s", d, g.Name)
	default:
		res.Classification = St.OutOfGrammar
		res.Feedback = fmt.Sprintf("%s is not typically used in %s", d, g.Name)
		res.Suggestion = fmt.Sprintf("This raga uses: %s", allowed)
	}
	return res, nil
}

func joinDegrees(ds []St.Degree) string {
	s := make([]string, len(ds))
	for i, d := range ds {
		s[i] = string(d)
	}
	return strings.Join(s, ", ")
}

// Trainer pairs a catalog with a classifier for live pitch practice.
type Trainer struct {
	Catalog    *Catalog
	Classifier *Classifier
}

func NewTrainer(c *Catalog, cl *Classifier) *Trainer {
	return &Trainer{Catalog: c, Classifier: cl}
}

// ValidateSample classifies one pitch reading and checks it against a raga.
func (t *Trainer) ValidateSample(grammarID string, s St.PitchSample) (St.ValidationResult, error) {
	d, cents, err := t.Classifier.Classify(s.FrequencyHz)
	if err != nil {
		return St.ValidationResult{}, err
	}
	res, err := t.Catalog.Validate(d, grammarID)
	if err != nil {
		return St.ValidationResult{}, err
	}
	res.CentsDeviation = cents
	return res, nil
}

// QualityFor grades intonation by absolute deviation.
func QualityFor(cents float64) St.PitchQuality {
	switch c := math.Abs(cents); {
	case c < 10:
		return St.Excellent
	case c < 25:
		return St.Good
	case c < 50:
		return St.Acceptable
	case c < 100:
		return St.Poor
	default:
		return St.VeryPoor
	}
}

// ConfidenceFor maps the same bands as QualityFor onto [0,1].
func ConfidenceFor(cents float64) float64 {
	switch QualityFor(cents) {
	case St.Excellent:
		return 0.95
	case St.Good:
		return 0.85
	case St.Acceptable:
		return 0.7
	case St.Poor:
		return 0.5
	default:
		return 0.25
	}
}
