package types

/*

	These are the "immutable" core types of Sargam,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here.
	Constructors and behavior live in the server package.

*/

import "time"

// Degree is a swara symbol, the atomic unit of melody.
// Lowercase is komal (flat), M+ is tivra (sharp) Ma,
// and a trailing apostrophe marks the upper (tar) octave.
type Degree string

// ScaleGrammar is one raga definition from the catalog.
// Loaded once, never mutated after validation.
type ScaleGrammar struct {
	ID                string     `yaml:"id" json:"id"`
	Name              string     `yaml:"name" json:"name"`
	StyleGroup        string     `yaml:"thaat" json:"thaat"`
	Ascending         []Degree   `yaml:"aroha" json:"aroha"`
	Descending        []Degree   `yaml:"avroha" json:"avroha"`
	Emphasized        Degree     `yaml:"vadi" json:"vadi"`
	SecondaryEmphasis Degree     `yaml:"samvadi" json:"samvadi"`
	SignaturePhrases  [][]Degree `yaml:"pakad" json:"pakad"`
	Allowed           []Degree   `yaml:"allowed" json:"allowed"`
	Forbidden         []Degree   `yaml:"forbidden" json:"forbidden"`
	TimeCategory      string     `yaml:"time" json:"timeOfDay"`
	MoodTags          []string   `yaml:"mood" json:"mood"`
	Ornaments         []string   `yaml:"ornaments" json:"ornaments"`
	PhrasePatterns    [][]Degree `yaml:"phrases" json:"phrasePatterns"`
}

// Complexity selects the phrase length range of a walked phrase.
type Complexity string

const (
	Simple  Complexity = "simple"  // 4-6 degrees
	Medium  Complexity = "medium"  // 6-9 degrees
	Complex Complexity = "complex" // 8-13 degrees, randomized rhythm
)

// GeneratedNote is a single timed note. Offset is the start
// time in seconds from the beginning of the melody.
type GeneratedNote struct {
	Degree   Degree  `json:"swara"`
	Pitch    int     `json:"midiNote"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
	Ornament string  `json:"ornament,omitempty"`
	Offset   float64 `json:"offset"`
}

// TimeSignature is beats per bar over the beat unit.
type TimeSignature struct {
	Beats int `json:"beats"`
	Unit  int `json:"unit"`
}

// GeneratedMelody is owned by whoever asked for it.
type GeneratedMelody struct {
	ID                   string          `json:"id"`
	GrammarID            string          `json:"ragaId"`
	GrammarName          string          `json:"ragaName"`
	Notes                []GeneratedNote `json:"notes"`
	TempoBPM             float64         `json:"tempo"`
	TimeSignature        TimeSignature   `json:"timeSignature"`
	TotalDurationSeconds float64         `json:"totalDuration"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// Phrase is one segment found by melody analysis.
type Phrase struct {
	Degrees   []Degree `json:"swaras"`
	Duration  float64  `json:"duration"`
	NoteCount int      `json:"noteCount"`
}

// MelodyAnalysis is the structural summary of a melody against its grammar.
type MelodyAnalysis struct {
	GrammarName         string   `json:"ragaName"`
	StyleGroup          string   `json:"thaat"`
	TotalNotes          int      `json:"totalNotes"`
	Duration            float64  `json:"duration"`
	TempoBPM            float64  `json:"tempo"`
	DegreesUsed         []Degree `json:"swarasUsed"`
	EmphasizedCount     int      `json:"vadiEmphasis"`
	SecondaryCount      int      `json:"samvadiEmphasis"`
	OrnamentsUsed       []string `json:"ornamentsUsed"`
	Phrases             []Phrase `json:"phrases"`
	TotalPhrases        int      `json:"totalPhrases"`
	AveragePhraseLength float64  `json:"averagePhraseLength"`
	Authenticity        float64  `json:"authenticity"`
}

// PitchSample is one reading from an external pitch estimator.
type PitchSample struct {
	FrequencyHz float64 `json:"frequency"`
	Confidence  float64 `json:"confidence"`
	TimestampMs int64   `json:"timestamp"`
}

// Classification of a degree against a grammar.
type Classification string

const (
	Emphasized        Classification = "emphasized"
	SecondaryEmphasis Classification = "secondary_emphasis"
	Allowed           Classification = "allowed"
	Forbidden         Classification = "forbidden"
	OutOfGrammar      Classification = "out_of_grammar"
)

// ValidationResult is the outcome of checking one degree against a grammar.
type ValidationResult struct {
	IsValid        bool           `json:"isValid"`
	NearestDegree  Degree         `json:"swara"`
	CentsDeviation float64        `json:"cents"`
	Classification Classification `json:"classification"`
	Feedback       string         `json:"feedback"`
	Suggestion     string         `json:"suggestion,omitempty"`
}

// PitchQuality grades the absolute cents deviation.
type PitchQuality string

const (
	Excellent  PitchQuality = "excellent"
	Good       PitchQuality = "good"
	Acceptable PitchQuality = "acceptable"
	Poor       PitchQuality = "poor"
	VeryPoor   PitchQuality = "very_poor"
)

// Trend summarizes the most recent attempts of a practice session.
type Trend string

const (
	TrendStarting      Trend = "starting"
	TrendExcellent     Trend = "excellent"
	TrendImproving     Trend = "improving"
	TrendStable        Trend = "stable"
	TrendNeedsPractice Trend = "needs_practice"
)

// SessionStats is the rolling aggregate of a practice session.
type SessionStats struct {
	TotalAttempts     int     `json:"totalAttempts"`
	CorrectAttempts   int     `json:"correctAttempts"`
	Accuracy          float64 `json:"accuracy"` // percent
	AverageConfidence float64 `json:"averageConfidence"`
	Trend             Trend   `json:"improvementTrend"`
}

// Activity is the kind of practice a learner did.
type Activity string

const (
	ActivityEmotionMapping Activity = "emotion_mapping"
	ActivityMelody         Activity = "midi_generation"
	ActivityPitchTraining  Activity = "pitch_training"
)

// PracticeSession is one recorded learning session.
// A nil Score means the activity was not graded.
type PracticeSession struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	GrammarID       string    `json:"ragaId"`
	Activity        Activity  `json:"activity"`
	Score           *float64  `json:"score,omitempty"`
	DurationSeconds float64   `json:"duration"`
	Notes           string    `json:"notes,omitempty"`
}

// Achievement is a milestone unlocked by practice.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// Progress is the learner summary derived from all sessions.
type Progress struct {
	TotalSessions int           `json:"totalSessions"`
	RagasLearned  []string      `json:"ragasLearned"`
	AverageScore  float64       `json:"averageScore"`
	FavoriteRagas []string      `json:"favoriteRagas"`
	WeakAreas     []string      `json:"weakAreas"`
	Achievements  []Achievement `json:"achievements"`
	LastActivity  time.Time     `json:"lastActivity"`
}

// Recommendation is a raga suggested for a mood.
type Recommendation struct {
	GrammarID  string   `json:"ragaId"`
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Time       string   `json:"timeOfDay"`
	Mood       []string `json:"mood"`
}
