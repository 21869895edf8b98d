package sargam

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	St "github.com/maroda/sargam/types"
)

// Catalog is the Scale Grammar Store.
// It is read-only after load, so every caller
// can share the same *Catalog without locking.
//
// Grammars are handed out as deep copies,
// a caller can never mutate what the store holds.
type Catalog struct {
	grammars map[string]St.ScaleGrammar
	order    []string // IDs in load order
}

//go:embed ragas.yaml
var builtinRagas []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the built-in catalog, decoded once per process.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadCatalog(builtinRagas)
		if defaultErr != nil {
			slog.Error("built-in catalog failed to load", slog.Any("error", defaultErr))
		}
	})
	return defaultCatalog, defaultErr
}

// LoadCatalog decodes a YAML list of grammars and validates every one.
// Any defect in the data is ErrDataIntegrity.
func LoadCatalog(data []byte) (*Catalog, error) {
	var grammars []St.ScaleGrammar
	if err := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict()).Decode(&grammars); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %w", ErrDataIntegrity, err)
	}

	c := &Catalog{grammars: make(map[string]St.ScaleGrammar, len(grammars))}
	for _, g := range grammars {
		if err := c.add(g); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalogFileName pulls extra grammars off local disk.
// Validation is performed on the file before decoding.
func LoadCatalogFileName(filename string) (*Catalog, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := validateLoad(file); err != nil {
		slog.Error("Validation failed", slog.Any("error", err))
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		slog.Error("could not read file", slog.String("file", filename))
		return nil, err
	}

	return LoadCatalog(buf.Bytes())
}

func validateLoad(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// Merge returns a new catalog holding c plus every grammar of other.
// A grammar in other with an existing ID replaces it.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{grammars: make(map[string]St.ScaleGrammar, len(c.grammars))}
	for _, id := range c.order {
		out.grammars[id] = c.grammars[id]
		out.order = append(out.order, id)
	}
	if other == nil {
		return out
	}
	for _, id := range other.order {
		if _, ok := out.grammars[id]; !ok {
			out.order = append(out.order, id)
		} else {
			slog.Info("grammar replaced", slog.String("id", id))
		}
		out.grammars[id] = other.grammars[id]
	}
	return out
}

func (c *Catalog) add(g St.ScaleGrammar) error {
	if err := ValidateGrammar(g); err != nil {
		return err
	}
	if _, ok := c.grammars[g.ID]; ok {
		return fmt.Errorf("%w: duplicate grammar id %q", ErrDataIntegrity, g.ID)
	}
	c.grammars[g.ID] = g
	c.order = append(c.order, g.ID)
	return nil
}

// ValidateGrammar checks the invariants every catalog entry must hold:
//   - every referenced symbol is in the degree table
//   - Sa is allowed and never forbidden
//   - no pakad is empty
//   - vadi and samvadi are allowed
//   - allowed and forbidden are disjoint
//   - no forbidden symbol appears in aroha, avroha, pakad or phrase patterns
func ValidateGrammar(g St.ScaleGrammar) error {
	bad := func(format string, a ...any) error {
		return fmt.Errorf("%w: grammar %q: %s", ErrDataIntegrity, g.ID, fmt.Sprintf(format, a...))
	}

	if g.ID == "" {
		return fmt.Errorf("%w: grammar with empty id", ErrDataIntegrity)
	}
	if len(g.Allowed) == 0 {
		return bad("no allowed swaras")
	}

	sequences := [][]St.Degree{g.Ascending, g.Descending, g.Allowed, g.Forbidden, {g.Emphasized, g.SecondaryEmphasis}}
	sequences = append(sequences, g.SignaturePhrases...)
	sequences = append(sequences, g.PhrasePatterns...)
	for _, seq := range sequences {
		for _, d := range seq {
			if _, ok := LookupSwara(d); !ok {
				return bad("unmapped swara %q", d)
			}
		}
	}

	// Every melody starts and resolves on Sa
	if !slices.Contains(g.Allowed, tonic) {
		return bad("tonic %q not allowed", tonic)
	}
	if slices.Contains(g.Forbidden, tonic) {
		return bad("tonic %q forbidden", tonic)
	}
	for i, p := range g.SignaturePhrases {
		if len(p) == 0 {
			return bad("pakad %d is empty", i)
		}
	}

	if !slices.Contains(g.Allowed, g.Emphasized) {
		return bad("vadi %q not allowed", g.Emphasized)
	}
	if !slices.Contains(g.Allowed, g.SecondaryEmphasis) {
		return bad("samvadi %q not allowed", g.SecondaryEmphasis)
	}

	for _, f := range g.Forbidden {
		if slices.Contains(g.Allowed, f) {
			return bad("swara %q both allowed and forbidden", f)
		}
	}

	melodic := [][]St.Degree{g.Ascending, g.Descending}
	melodic = append(melodic, g.SignaturePhrases...)
	melodic = append(melodic, g.PhrasePatterns...)
	for _, seq := range melodic {
		for _, d := range seq {
			if slices.Contains(g.Forbidden, d) {
				return bad("forbidden swara %q used in a sequence", d)
			}
		}
	}

	return nil
}

// Lookup returns a copy of the grammar with the given ID.
func (c *Catalog) Lookup(id string) (St.ScaleGrammar, error) {
	g, ok := c.grammars[id]
	if !ok {
		return St.ScaleGrammar{}, fmt.Errorf("%w: raga %q", ErrNotFound, id)
	}
	return cloneGrammar(g), nil
}

// IDs lists every grammar ID in load order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}

// All returns copies of every grammar in load order.
func (c *Catalog) All() []St.ScaleGrammar {
	out := make([]St.ScaleGrammar, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneGrammar(c.grammars[id]))
	}
	return out
}

// ByMood returns the grammars tagged with mood, case-insensitive.
func (c *Catalog) ByMood(mood string) []St.ScaleGrammar {
	mood = strings.ToLower(strings.TrimSpace(mood))
	var out []St.ScaleGrammar
	for _, id := range c.order {
		g := c.grammars[id]
		if hasMood(g, mood) {
			out = append(out, cloneGrammar(g))
		}
	}
	return out
}

// ByTime returns the grammars whose time category contains t, case-insensitive.
// "evening" matches both Evening and Late Evening.
func (c *Catalog) ByTime(t string) []St.ScaleGrammar {
	t = strings.ToLower(strings.TrimSpace(t))
	var out []St.ScaleGrammar
	for _, id := range c.order {
		g := c.grammars[id]
		if strings.Contains(strings.ToLower(g.TimeCategory), t) {
			out = append(out, cloneGrammar(g))
		}
	}
	return out
}

// Moods lists every distinct mood tag in the catalog, sorted.
func (c *Catalog) Moods() []string {
	seen := make(map[string]bool)
	for _, g := range c.grammars {
		for _, m := range g.MoodTags {
			seen[strings.ToLower(m)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func hasMood(g St.ScaleGrammar, mood string) bool {
	for _, m := range g.MoodTags {
		if strings.ToLower(m) == mood {
			return true
		}
	}
	return false
}

func cloneGrammar(g St.ScaleGrammar) St.ScaleGrammar {
	out := g
	out.Ascending = slices.Clone(g.Ascending)
	out.Descending = slices.Clone(g.Descending)
	out.Allowed = slices.Clone(g.Allowed)
	out.Forbidden = slices.Clone(g.Forbidden)
	out.MoodTags = slices.Clone(g.MoodTags)
	out.Ornaments = slices.Clone(g.Ornaments)
	out.SignaturePhrases = cloneNested(g.SignaturePhrases)
	out.PhrasePatterns = cloneNested(g.PhrasePatterns)
	return out
}

func cloneNested(in [][]St.Degree) [][]St.Degree {
	if in == nil {
		return nil
	}
	out := make([][]St.Degree, len(in))
	for i, p := range in {
		out[i] = slices.Clone(p)
	}
	return out
}
