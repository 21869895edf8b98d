package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	St "github.com/maroda/sargam/types"
)

func newListCmd(a *app) *cobra.Command {
	var (
		mood   string
		tod    string
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the ragas in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ragas := a.catalog.All()
			switch {
			case mood != "":
				ragas = a.catalog.ByMood(mood)
			case tod != "":
				ragas = a.catalog.ByTime(tod)
			}

			out := cmd.OutOrStdout()
			if asYAML {
				b, err := yaml.Marshal(ragas)
				if err != nil {
					return err
				}
				_, err = out.Write(b)
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTHAAT\tTIME\tVADI\tSAMVADI\tMOOD")
			for _, g := range ragas {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					g.ID, g.Name, g.StyleGroup, g.TimeCategory,
					g.Emphasized, g.SecondaryEmphasis, strings.Join(g.MoodTags, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&mood, "mood", "", "only ragas with this mood tag")
	cmd.Flags().StringVar(&tod, "time", "", "only ragas performed at this time of day")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print full grammars as YAML")
	return cmd
}

func newRecommendCmd(a *app) *cobra.Command {
	var (
		intensity int
		context   string
	)

	cmd := &cobra.Command{
		Use:   "recommend <mood>",
		Short: "Suggest ragas for a mood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.catalog.Recommend(args[0], intensity, context)
			if err != nil {
				return err
			}
			printRecommendations(cmd, recs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&intensity, "intensity", "i", 5, "intensity from 1 to 10")
	cmd.Flags().StringVar(&context, "context", "", "free text, e.g. \"morning walk\"")
	return cmd
}

func printRecommendations(cmd *cobra.Command, recs []St.Recommendation) {
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "no ragas match that mood")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RAGA\tCONFIDENCE\tTIME\tMOOD")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\n", r.Name, r.Confidence, r.Time, strings.Join(r.Mood, ","))
	}
	tw.Flush()
}
