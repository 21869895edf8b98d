package sargam

import (
	"slices"

	St "github.com/maroda/sargam/types"
)

const (
	maxPhraseNotes = 8
	gapEpsilon     = 1e-9

	authBase      = 0.5
	authVadi      = 0.15
	authSamvadi   = 0.10
	authPakad     = 0.10
	authForbidden = 0.20
	authResolve   = 0.05
	vadiShare     = 0.10
)

// Analyze summarizes a melody against its grammar.
// It never fails, an empty melody yields an empty analysis
// with the base authenticity score.
func Analyze(m *St.GeneratedMelody, g St.ScaleGrammar) St.MelodyAnalysis {
	a := St.MelodyAnalysis{
		GrammarName: g.Name,
		StyleGroup:  g.StyleGroup,
		TotalNotes:  len(m.Notes),
		Duration:    m.TotalDurationSeconds,
		TempoBPM:    m.TempoBPM,
	}

	degrees := make([]St.Degree, 0, len(m.Notes))
	for _, n := range m.Notes {
		degrees = append(degrees, n.Degree)
		if !slices.Contains(a.DegreesUsed, n.Degree) {
			a.DegreesUsed = append(a.DegreesUsed, n.Degree)
		}
		if n.Ornament != "" && !slices.Contains(a.OrnamentsUsed, n.Ornament) {
			a.OrnamentsUsed = append(a.OrnamentsUsed, n.Ornament)
		}
		switch n.Degree {
		case g.Emphasized:
			a.EmphasizedCount++
		case g.SecondaryEmphasis:
			a.SecondaryCount++
		}
	}

	a.Phrases = segmentPhrases(m.Notes)
	a.TotalPhrases = len(a.Phrases)
	if a.TotalPhrases > 0 {
		a.AveragePhraseLength = float64(len(m.Notes)) / float64(a.TotalPhrases)
	}

	a.Authenticity = authenticity(degrees, a.EmphasizedCount, a.SecondaryCount, g)
	return a
}

// segmentPhrases splits notes wherever the silence before a note is
// longer than a phrase gap, or the running phrase is full.
// A gap of exactly PhraseGapSeconds does not split.
func segmentPhrases(notes []St.GeneratedNote) []St.Phrase {
	var (
		phrases []St.Phrase
		cur     St.Phrase
		lastEnd float64
	)
	flush := func() {
		if cur.NoteCount > 0 {
			phrases = append(phrases, cur)
		}
		cur = St.Phrase{}
	}

	for i, n := range notes {
		gap := n.Offset - lastEnd
		if i > 0 && (gap > PhraseGapSeconds+gapEpsilon || cur.NoteCount >= maxPhraseNotes) {
			flush()
		}
		cur.Degrees = append(cur.Degrees, n.Degree)
		cur.Duration += n.Duration
		cur.NoteCount++
		lastEnd = n.Offset + n.Duration
	}
	flush()
	return phrases
}

func authenticity(degrees []St.Degree, vadi, samvadi int, g St.ScaleGrammar) float64 {
	score := authBase
	total := len(degrees)

	if total > 0 && float64(vadi) > vadiShare*float64(total) {
		score += authVadi
	}
	if samvadi > 0 {
		score += authSamvadi
	}
	for _, p := range g.SignaturePhrases {
		if containsRun(degrees, p) {
			score += authPakad
		}
	}
	for _, d := range degrees {
		if slices.Contains(g.Forbidden, d) {
			score -= authForbidden
			break
		}
	}
	if total > 0 && degrees[total-1] == tonic {
		score += authResolve
	}

	return min(max(score, 0), 1)
}

// containsRun reports whether sub occurs contiguously in seq.
func containsRun(seq, sub []St.Degree) bool {
	if len(sub) == 0 || len(sub) > len(seq) {
		return false
	}
	for i := 0; i+len(sub) <= len(seq); i++ {
		if slices.Equal(seq[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}
