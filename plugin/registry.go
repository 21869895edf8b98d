package plugin

import (
	"fmt"
	"strings"
	"sync"

	St "github.com/maroda/sargam/types"
)

// Transformers is a global map of SampleTransformer plugins.
var Transformers = map[string]func() SampleTransformer{
	"range_gate": func() SampleTransformer {
		return NewRangeGate()
	},
	"median_smooth": func() SampleTransformer {
		return NewMedianSmooth(DefaultSmoothWindow)
	},
	"glide_gate": func() SampleTransformer {
		return NewGlideGate(DefaultMaxCentsPerSec)
	},
}

func TransformerLookup(name string) (SampleTransformer, error) {
	factory, ok := Transformers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformer: %s", name)
	}
	return factory(), nil
}

// Chain runs a sample through transformers in order.
// Each chain keeps its own history, so use one per stream.
type Chain struct {
	mu      sync.Mutex
	steps   []SampleTransformer
	history []St.PitchSample
	depth   int
}

// NewChain builds a chain from registry names, empty names are skipped.
func NewChain(names []string) (*Chain, error) {
	c := &Chain{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		t, err := TransformerLookup(n)
		if err != nil {
			return nil, err
		}
		c.steps = append(c.steps, t)
		c.depth = max(c.depth, t.HistoryReq())
	}
	return c, nil
}

// Apply transforms a sample. keep is false when any step drops it,
// dropped samples never enter the history.
func (c *Chain) Apply(s St.PitchSample) (St.PitchSample, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw := s
	for _, t := range c.steps {
		var (
			keep bool
			err  error
		)
		s, keep, err = t.Transform(s, c.tail(t.HistoryReq()))
		if err != nil {
			return s, false, fmt.Errorf("%s: %w", t.Type(), err)
		}
		if !keep {
			return s, false, nil
		}
	}

	if c.depth > 0 {
		c.history = append(c.history, raw)
		if len(c.history) > c.depth {
			c.history = c.history[len(c.history)-c.depth:]
		}
	}
	return s, true, nil
}

// Types lists the chain's transformer IDs in order.
func (c *Chain) Types() []string {
	out := make([]string, len(c.steps))
	for i, t := range c.steps {
		out[i] = t.Type()
	}
	return out
}

func (c *Chain) tail(n int) []St.PitchSample {
	if n <= 0 || len(c.history) == 0 {
		return nil
	}
	return c.history[max(0, len(c.history)-n):]
}
