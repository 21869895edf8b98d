package sargam

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	St "github.com/maroda/sargam/types"
)

// Generation defaults and limits.
const (
	DefaultDurationSeconds = 30.0
	DefaultTempoBPM        = 120.0
	DefaultComplexity      = St.Medium

	MaxDurationSeconds = 3600.0
	MinTempoBPM        = 4.0
	MaxTempoBPM        = 1000.0

	// PhraseGapSeconds is the silence inserted between phrases.
	PhraseGapSeconds = 0.5

	patternChance  = 0.6 // copy a phrase pattern instead of walking
	ascendChance   = 0.6 // a walk starts ascending
	flipChance     = 0.2 // a walk turns around after a note
	gapLeadSeconds = 1.0 // no gap once within this of the target
)

// Rand is the randomness a Generator draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// globalRand uses the top-level math/rand/v2 functions,
// which are safe for concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// GenerateOptions controls one melody. Start from DefaultGenerateOptions,
// duration and tempo must be positive. An empty complexity is medium.
type GenerateOptions struct {
	TargetDurationSeconds float64
	TempoBPM              float64
	Complexity            St.Complexity
	IncludeOrnaments      bool
	OpenWithSignature     bool
}

// DefaultGenerateOptions is 30 seconds of medium complexity at 120 BPM,
// ornamented and opening with the pakad.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		TargetDurationSeconds: DefaultDurationSeconds,
		TempoBPM:              DefaultTempoBPM,
		Complexity:            DefaultComplexity,
		IncludeOrnaments:      true,
		OpenWithSignature:     true,
	}
}

// normalize fills defaults and rejects values outside the documented ranges.
func (o GenerateOptions) normalize() (GenerateOptions, error) {
	if o.Complexity == "" {
		o.Complexity = DefaultComplexity
	}

	d := o.TargetDurationSeconds
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 || d > MaxDurationSeconds {
		return o, fmt.Errorf("%w: duration %v outside (0, %v] seconds", ErrInvalidArgument, d, MaxDurationSeconds)
	}
	t := o.TempoBPM
	if math.IsNaN(t) || t < MinTempoBPM || t > MaxTempoBPM {
		return o, fmt.Errorf("%w: tempo %v outside [%v, %v] BPM", ErrInvalidArgument, t, MinTempoBPM, MaxTempoBPM)
	}
	switch o.Complexity {
	case St.Simple, St.Medium, St.Complex:
	default:
		return o, fmt.Errorf("%w: complexity %q", ErrInvalidArgument, o.Complexity)
	}
	return o, nil
}

// Generator builds melodies from catalog grammars.
// It holds no per-melody state, one Generator can serve
// concurrent callers as long as its Rand is safe to share.
type Generator struct {
	catalog *Catalog
	rng     Rand
	now     func() time.Time
}

// NewGenerator returns a Generator over the catalog.
// A nil rng draws from the shared math/rand/v2 source.
func NewGenerator(c *Catalog, rng Rand) *Generator {
	if rng == nil {
		rng = globalRand{}
	}
	return &Generator{
		catalog: c,
		rng:     rng,
		now:     time.Now,
	}
}

// Generate renders a melody in the named raga.
// Options are checked before the raga is looked up.
func (gen *Generator) Generate(grammarID string, opts GenerateOptions) (*St.GeneratedMelody, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	g, err := gen.catalog.Lookup(grammarID)
	if err != nil {
		return nil, err
	}

	m := &melodyBuilder{
		g:    &g,
		rng:  gen.rng,
		opts: opts,
		beat: 60 / opts.TempoBPM,
	}

	// Opening signature phrase
	if opts.OpenWithSignature && len(g.SignaturePhrases) > 0 {
		if err := m.pakad(g.SignaturePhrases[0]); err != nil {
			return nil, err
		}
	}

	for m.elapsed < opts.TargetDurationSeconds {
		if err := m.phrase(); err != nil {
			return nil, err
		}
		if m.elapsed < opts.TargetDurationSeconds-gapLeadSeconds {
			m.elapsed += PhraseGapSeconds
		}
	}

	// Resolve to Sa, always
	if err := m.note(tonic, m.beat, velocityFinal, ""); err != nil {
		return nil, err
	}

	melody := &St.GeneratedMelody{
		ID:                   uuid.NewString(),
		GrammarID:            g.ID,
		GrammarName:          g.Name,
		Notes:                m.notes,
		TempoBPM:             opts.TempoBPM,
		TimeSignature:        St.TimeSignature{Beats: 4, Unit: 4},
		TotalDurationSeconds: m.elapsed,
		CreatedAt:            gen.now(),
	}

	slog.Debug("melody generated",
		slog.String("raga", g.ID),
		slog.Int("notes", len(melody.Notes)),
		slog.Float64("seconds", melody.TotalDurationSeconds))

	return melody, nil
}

// melodyBuilder accumulates the notes of one melody.
// elapsed is the running clock, notes plus gaps.
type melodyBuilder struct {
	g       *St.ScaleGrammar
	rng     Rand
	opts    GenerateOptions
	beat    float64
	notes   []St.GeneratedNote
	elapsed float64
}

func (m *melodyBuilder) note(d St.Degree, dur float64, vel int, ornament string) error {
	pitch, err := PitchOf(d)
	if err != nil {
		return fmt.Errorf("raga %q: %w", m.g.ID, err)
	}
	m.notes = append(m.notes, St.GeneratedNote{
		Degree:   d,
		Pitch:    pitch,
		Duration: dur,
		Velocity: vel,
		Ornament: ornament,
		Offset:   m.elapsed,
	})
	m.elapsed += dur
	return nil
}

// pakad renders a signature phrase, one beat per swara
// and two for the last one. The vadi is marked.
func (m *melodyBuilder) pakad(phrase []St.Degree) error {
	for i, d := range phrase {
		dur := m.beat
		if i == len(phrase)-1 {
			dur *= 2
		}
		vel := velocityPakad
		ornament := ""
		if d == m.g.Emphasized {
			vel = velocityPakadVadi
			if m.opts.IncludeOrnaments && len(m.g.Ornaments) > 0 {
				ornament = m.g.Ornaments[0]
			}
		}
		if err := m.note(d, dur, vel, ornament); err != nil {
			return err
		}
	}
	return nil
}

// phrase adds one shaped phrase, copied from the patterns or walked.
func (m *melodyBuilder) phrase() error {
	var degrees []St.Degree
	if len(m.g.PhrasePatterns) > 0 && m.rng.Float64() < patternChance {
		degrees = m.g.PhrasePatterns[m.rng.IntN(len(m.g.PhrasePatterns))]
	} else {
		degrees = walkPhrase(m.g, phraseLength(m.opts.Complexity, m.rng), m.rng)
	}

	for _, d := range degrees {
		dur := accentDuration(m.g, d, m.beat, m.opts.Complexity, m.rng)
		ornament := accentOrnament(m.g, m.opts.IncludeOrnaments, m.rng)
		vel := accentVelocity(m.g, d, m.rng)
		if err := m.note(d, dur, vel, ornament); err != nil {
			return err
		}
	}
	return nil
}

// phraseLength draws a walk length for the complexity, inclusive ranges.
func phraseLength(cx St.Complexity, rng Rand) int {
	switch cx {
	case St.Simple:
		return 4 + rng.IntN(3)
	case St.Complex:
		return 8 + rng.IntN(6)
	default:
		return 6 + rng.IntN(4)
	}
}

// walkPhrase walks the raga from Sa for n swaras.
//
// Each step may go to the next swara of the current direction's
// sequence or to any allowed swara. The direction turns around
// at random, and whenever a step has nowhere to go.
func walkPhrase(g *St.ScaleGrammar, n int, rng Rand) []St.Degree {
	phrase := make([]St.Degree, 0, n)
	current := tonic
	ascending := rng.Float64() < ascendChance

	for range n {
		phrase = append(phrase, current)

		next := nextDegrees(g, current, ascending)
		if len(next) == 0 {
			ascending = !ascending
			next = nextDegrees(g, current, ascending)
		}
		if len(next) == 0 {
			current = tonic
		} else {
			current = next[rng.IntN(len(next))]
		}

		if rng.Float64() < flipChance {
			ascending = !ascending
		}
	}
	return phrase
}

// nextDegrees is the candidate set after current: the following
// swara of the aroha or avroha, plus every allowed swara.
// Both sequences are already written in their own direction.
func nextDegrees(g *St.ScaleGrammar, current St.Degree, ascending bool) []St.Degree {
	seq := g.Descending
	if ascending {
		seq = g.Ascending
	}

	var out []St.Degree
	if i := slices.Index(seq, current); i >= 0 && i < len(seq)-1 {
		out = append(out, seq[i+1])
	}
	for _, d := range g.Allowed {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
