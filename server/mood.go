package sargam

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	St "github.com/maroda/sargam/types"
)

// DefaultIntensity is used when no intensity is given.
const DefaultIntensity = 5

// Recommend suggests ragas for a mood, on a 1 to 10 intensity
// scale, with an optional free-text context such as "morning walk".
//
// High intensity narrows to energetic or joyful ragas, low intensity
// to peaceful or contemplative ones, and a morning or evening context
// narrows by time of day. If narrowing leaves nothing, every raga
// tagged with the mood is returned. Results are ordered by confidence.
func (c *Catalog) Recommend(mood string, intensity int, context string) ([]St.Recommendation, error) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if mood == "" {
		return nil, fmt.Errorf("%w: mood is required", ErrInvalidArgument)
	}
	if intensity == 0 {
		intensity = DefaultIntensity
	}
	if intensity < 1 || intensity > 10 {
		return nil, fmt.Errorf("%w: intensity %d outside 1-10", ErrInvalidArgument, intensity)
	}

	base := c.ByMood(mood)
	matched := base

	switch {
	case intensity > 7:
		matched = filterMood(matched, "energetic", "joyful")
	case intensity < 4:
		matched = filterMood(matched, "peaceful", "contemplative")
	}

	timeOfDay := contextTime(context)
	if timeOfDay != "" {
		matched = slices.DeleteFunc(slices.Clone(matched), func(g St.ScaleGrammar) bool {
			return !strings.Contains(strings.ToLower(g.TimeCategory), timeOfDay)
		})
	}

	if len(matched) == 0 {
		matched = base
	}

	out := make([]St.Recommendation, 0, len(matched))
	for _, g := range matched {
		out = append(out, St.Recommendation{
			GrammarID:  g.ID,
			Name:       g.Name,
			Confidence: moodConfidence(g, mood, intensity, timeOfDay),
			Time:       g.TimeCategory,
			Mood:       g.MoodTags,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// contextTime picks the time of day named in a context string.
func contextTime(context string) string {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "morning"):
		return "morning"
	case strings.Contains(ctx, "evening"):
		return "evening"
	}
	return ""
}

func filterMood(in []St.ScaleGrammar, tags ...string) []St.ScaleGrammar {
	var out []St.ScaleGrammar
	for _, g := range in {
		for _, t := range tags {
			if hasMood(g, t) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

func moodConfidence(g St.ScaleGrammar, mood string, intensity int, timeOfDay string) float64 {
	conf := 0.5
	if hasMood(g, mood) {
		conf += 0.3
	}
	if timeOfDay != "" && strings.Contains(strings.ToLower(g.TimeCategory), timeOfDay) {
		conf += 0.2
	}

	energetic := hasMood(g, "energetic") || hasMood(g, "joyful")
	calm := hasMood(g, "peaceful") || hasMood(g, "contemplative")
	if (intensity > 6 && energetic) || (intensity < 5 && calm) {
		conf += 0.15
	}
	return min(conf, 1.0)
}
