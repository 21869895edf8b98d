package sargam

import (
	"math"
	"sync"

	St "github.com/maroda/sargam/types"
)

// trendWindow is how many recent attempts decide the trend.
const trendWindow = 5

// Session folds validation results into running practice stats.
// The caller owns it, one per practice session or connection.
type Session struct {
	mu            sync.Mutex
	total         int
	correct       int
	confidenceSum float64
	recent        []bool // last trendWindow outcomes, oldest first
}

func NewSession() *Session {
	return &Session{recent: make([]bool, 0, trendWindow)}
}

// Record adds one attempt. confidence is the detector's
// score for the sample, clamped to [0,1].
func (s *Session) Record(res St.ValidationResult, confidence float64) St.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if res.IsValid {
		s.correct++
	}
	if !math.IsNaN(confidence) {
		s.confidenceSum += min(max(confidence, 0), 1)
	}

	if len(s.recent) == trendWindow {
		s.recent = append(s.recent[:0], s.recent[1:]...)
	}
	s.recent = append(s.recent, res.IsValid)

	return s.statsLocked()
}

// Stats returns the current aggregate.
func (s *Session) Stats() St.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

// Reset clears the session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total, s.correct, s.confidenceSum = 0, 0, 0
	s.recent = s.recent[:0]
}

func (s *Session) statsLocked() St.SessionStats {
	st := St.SessionStats{
		TotalAttempts:   s.total,
		CorrectAttempts: s.correct,
		Trend:           TrendOf(s.recent),
	}
	if s.total > 0 {
		st.Accuracy = float64(s.correct) / float64(s.total) * 100
		st.AverageConfidence = s.confidenceSum / float64(s.total)
	}
	return st
}

// TrendOf classifies a window of recent outcomes.
func TrendOf(recent []bool) St.Trend {
	if len(recent) == 0 {
		return St.TrendStarting
	}
	ok := 0
	for _, r := range recent {
		if r {
			ok++
		}
	}
	ratio := float64(ok) / float64(len(recent))
	switch {
	case ratio > 0.8:
		return St.TrendExcellent
	case ratio > 0.6:
		return St.TrendImproving
	case ratio < 0.4:
		return St.TrendNeedsPractice
	default:
		return St.TrendStable
	}
}
