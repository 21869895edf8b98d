package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

func newClassifyCmd(a *app) *cobra.Command {
	var raga string

	cmd := &cobra.Command{
		Use:   "classify <hz>",
		Short: "Find the swara nearest to a frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hz, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("%w: frequency %q", Ss.ErrInvalidArgument, args[0])
			}

			d, cents, err := Ss.NewClassifier(a.cfg.TonicHz).Classify(hz)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%.2f Hz -> %s %+.1f cents (%s)\n",
				hz, d, cents, Ss.QualityFor(cents))

			if raga != "" {
				res, err := a.catalog.Validate(d, raga)
				if err != nil {
					return err
				}
				printValidation(cmd, res)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&raga, "raga", "r", "", "validate the swara against this raga")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <swara> <raga>",
		Short: "Check a swara against a raga",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.catalog.Validate(St.Degree(args[0]), args[1])
			if err != nil {
				return err
			}
			printValidation(cmd, res)
			return nil
		},
	}
}

func printValidation(cmd *cobra.Command, res St.ValidationResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", res.Classification, res.Feedback)
	if res.Suggestion != "" {
		fmt.Fprintf(out, "  %s\n", res.Suggestion)
	}
}
