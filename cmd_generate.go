package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	Sd "github.com/maroda/sargam/display"
	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

type generateFlags struct {
	duration    float64
	tempo       float64
	complexity  string
	noOrnaments bool
	noPakad     bool
	output      string
	json        bool
	seed        uint64
}

func newGenerateCmd(a *app) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <raga>",
		Short: "Generate a melody in a raga",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rng Ss.Rand
			if f.seed != 0 {
				rng = rand.New(rand.NewPCG(f.seed, f.seed))
			}
			gen := Ss.NewGenerator(a.catalog, rng)

			opts := Ss.GenerateOptions{
				TargetDurationSeconds: f.duration,
				TempoBPM:              f.tempo,
				Complexity:            St.Complexity(f.complexity),
				IncludeOrnaments:      !f.noOrnaments,
				OpenWithSignature:     !f.noPakad,
			}
			m, err := gen.Generate(args[0], opts)
			if err != nil {
				return err
			}

			if f.output != "" {
				if err := os.WriteFile(f.output, Ss.SerializeSMF(m), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", f.output, err)
				}
			}

			g, err := a.catalog.Lookup(m.GrammarID)
			if err != nil {
				return err
			}
			analysis := Ss.Analyze(m, g)

			out := cmd.OutOrStdout()
			if f.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(Sd.MelodyResponse{Melody: m, Analysis: analysis})
			}
			printMelody(out, m, analysis, f.output)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64VarP(&f.duration, "duration", "d", Ss.DefaultDurationSeconds, "target duration in seconds")
	fl.Float64VarP(&f.tempo, "tempo", "t", Ss.DefaultTempoBPM, "tempo in BPM")
	fl.StringVarP(&f.complexity, "complexity", "c", string(Ss.DefaultComplexity), "simple, medium or complex")
	fl.BoolVar(&f.noOrnaments, "no-ornaments", false, "leave notes unornamented")
	fl.BoolVar(&f.noPakad, "no-pakad", false, "do not open with the signature phrase")
	fl.StringVarP(&f.output, "output", "o", "", "write a Standard MIDI File")
	fl.BoolVar(&f.json, "json", false, "print melody and analysis as JSON")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed for reproducible output (0 = random)")
	return cmd
}

func printMelody(w io.Writer, m *St.GeneratedMelody, a St.MelodyAnalysis, file string) {
	fmt.Fprintf(w, "Raga %s (%s thaat)\n", a.GrammarName, a.StyleGroup)
	fmt.Fprintf(w, "  id:           %s\n", m.ID)
	fmt.Fprintf(w, "  notes:        %d\n", a.TotalNotes)
	fmt.Fprintf(w, "  duration:     %.2fs at %.0f BPM\n", m.TotalDurationSeconds, m.TempoBPM)
	fmt.Fprintf(w, "  phrases:      %d (avg %.1f notes)\n", a.TotalPhrases, a.AveragePhraseLength)
	fmt.Fprintf(w, "  vadi/samvadi: %d/%d\n", a.EmphasizedCount, a.SecondaryCount)
	fmt.Fprintf(w, "  authenticity: %.2f\n", a.Authenticity)
	if len(a.OrnamentsUsed) > 0 {
		fmt.Fprintf(w, "  ornaments:    %s\n", strings.Join(a.OrnamentsUsed, ", "))
	}
	for i, p := range a.Phrases {
		ds := make([]string, len(p.Degrees))
		for j, d := range p.Degrees {
			ds[j] = string(d)
		}
		fmt.Fprintf(w, "  %3d  %s\n", i+1, strings.Join(ds, " "))
	}
	if file != "" {
		fmt.Fprintf(w, "wrote %s\n", file)
	}
}
