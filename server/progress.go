package sargam

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	St "github.com/maroda/sargam/types"
)

// Progress thresholds.
const (
	favoriteCount      = 3
	weakScore          = 70.0
	weakMinSessions    = 3
	explorerRagas      = 5
	pitchPerfectScore  = 90.0
	pitchPerfectNeeded = 3
	consistentSessions = 10
)

// ProgressTracker keeps a learner's practice history in memory
// and derives the progress summary from it.
// Durable storage is up to the caller, see Export and Import.
type ProgressTracker struct {
	mu       sync.RWMutex
	sessions []St.PracticeSession
	now      func() time.Time
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{now: time.Now}
}

// Add records a session, assigning its ID and timestamp.
func (p *ProgressTracker) Add(s St.PracticeSession) (St.PracticeSession, error) {
	if s.GrammarID == "" {
		return s, fmt.Errorf("%w: session without raga", ErrInvalidArgument)
	}
	switch s.Activity {
	case St.ActivityEmotionMapping, St.ActivityMelody, St.ActivityPitchTraining:
	default:
		return s, fmt.Errorf("%w: activity %q", ErrInvalidArgument, s.Activity)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s.ID = uuid.NewString()
	s.Timestamp = p.now()
	p.sessions = append(p.sessions, s)
	return s, nil
}

// Sessions returns a copy of the history, oldest first.
func (p *ProgressTracker) Sessions() []St.PracticeSession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.sessions)
}

// ByRaga filters the history to one raga.
func (p *ProgressTracker) ByRaga(id string) []St.PracticeSession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return filterSessions(p.sessions, func(s St.PracticeSession) bool { return s.GrammarID == id })
}

// ByActivity filters the history to one activity.
func (p *ProgressTracker) ByActivity(a St.Activity) []St.PracticeSession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return filterSessions(p.sessions, func(s St.PracticeSession) bool { return s.Activity == a })
}

func filterSessions(in []St.PracticeSession, keep func(St.PracticeSession) bool) []St.PracticeSession {
	var out []St.PracticeSession
	for _, s := range in {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

type ragaStat struct {
	id        string
	frequency int
	avgScore  float64
}

// Progress summarizes the history. ok is false before any session.
func (p *ProgressTracker) Progress() (St.Progress, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.sessions) == 0 {
		return St.Progress{}, false
	}

	var (
		learned []string
		stats   = make(map[string]*ragaStat)
		sums    = make(map[string]float64)
		scored  = make(map[string]int)
		total   float64
		nScored int
	)
	for _, s := range p.sessions {
		st, ok := stats[s.GrammarID]
		if !ok {
			st = &ragaStat{id: s.GrammarID}
			stats[s.GrammarID] = st
			learned = append(learned, s.GrammarID)
		}
		st.frequency++
		if s.Score != nil {
			sums[s.GrammarID] += *s.Score
			scored[s.GrammarID]++
			total += *s.Score
			nScored++
		}
	}

	ranked := make([]ragaStat, 0, len(learned))
	for _, id := range learned {
		st := stats[id]
		if scored[id] > 0 {
			st.avgScore = sums[id] / float64(scored[id])
		}
		ranked = append(ranked, *st)
	}

	prog := St.Progress{
		TotalSessions: len(p.sessions),
		RagasLearned:  learned,
		LastActivity:  p.sessions[len(p.sessions)-1].Timestamp,
		WeakAreas:     []string{},
	}
	if nScored > 0 {
		prog.AverageScore = total / float64(nScored)
	}

	for _, st := range ranked {
		if st.avgScore < weakScore && st.frequency >= weakMinSessions {
			prog.WeakAreas = append(prog.WeakAreas, st.id)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return float64(ranked[i].frequency)*ranked[i].avgScore > float64(ranked[j].frequency)*ranked[j].avgScore
	})
	for _, st := range ranked[:min(favoriteCount, len(ranked))] {
		prog.FavoriteRagas = append(prog.FavoriteRagas, st.id)
	}

	prog.Achievements = p.achievementsLocked(len(learned))
	return prog, true
}

// achievementCatalog holds the fixed text of every milestone.
var achievementCatalog = map[string]St.Achievement{
	"first_session": {
		ID:          "first_session",
		Name:        "First Steps",
		Description: "Completed your first learning session",
		Category:    "consistency",
	},
	"raga_explorer": {
		ID:          "raga_explorer",
		Name:        "Raga Explorer",
		Description: "Explored 5 different ragas",
		Category:    "exploration",
	},
	"pitch_perfect": {
		ID:          "pitch_perfect",
		Name:        "Pitch Perfect",
		Description: "Achieved 90%+ accuracy in 3 pitch training sessions",
		Category:    "pitch_accuracy",
	},
	"consistent_learner": {
		ID:          "consistent_learner",
		Name:        "Consistent Learner",
		Description: "Completed 10 learning sessions",
		Category:    "consistency",
	},
}

func (p *ProgressTracker) achievementsLocked(uniqueRagas int) []St.Achievement {
	high := 0
	for _, s := range p.sessions {
		if s.Activity == St.ActivityPitchTraining && s.Score != nil && *s.Score >= pitchPerfectScore {
			high++
		}
	}

	unlocked := []struct {
		id string
		ok bool
	}{
		{"first_session", len(p.sessions) >= 1},
		{"raga_explorer", uniqueRagas >= explorerRagas},
		{"pitch_perfect", high >= pitchPerfectNeeded},
		{"consistent_learner", len(p.sessions) >= consistentSessions},
	}

	now := p.now()
	var out []St.Achievement
	for _, u := range unlocked {
		if u.ok {
			a := achievementCatalog[u.id]
			a.UnlockedAt = now
			out = append(out, a)
		}
	}
	return out
}

type progressExport struct {
	Sessions   []St.PracticeSession `json:"sessions"`
	Progress   *St.Progress         `json:"progress,omitempty"`
	ExportedAt time.Time            `json:"exportDate"`
}

// Export serializes the history and current summary as JSON.
func (p *ProgressTracker) Export() ([]byte, error) {
	prog, ok := p.Progress()
	out := progressExport{Sessions: p.Sessions(), ExportedAt: p.now()}
	if ok {
		out.Progress = &prog
	}
	return json.MarshalIndent(out, "", "  ")
}

// Import replaces the history with an exported one.
// The summary is always recomputed, never trusted from the input.
func (p *ProgressTracker) Import(data []byte) error {
	var in progressExport
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: progress import: %w", ErrInvalidArgument, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = in.Sessions
	return nil
}
