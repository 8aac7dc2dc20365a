package main

import (
	"strings"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"
	"portfolioSim/internal/report"

	"github.com/spf13/cobra"
)

func (a *app) scoreCmd() *cobra.Command {
	var frequency string
	cmd := &cobra.Command{
		Use:   "score ASSET WEIGHT [ASSET WEIGHT ...]",
		Short: "Score a fixed allocation in-sample and out-of-sample",
		Example: `  portopt score ES 0.4 ZN 0.3 TF 0.2 PAIR 0.1
  portopt score "ES 0.5, ZN 0.5"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.cfg.Params()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frequency") {
				if p.Frequency, err = finance.ParseFrequency(frequency); err != nil {
					return err
				}
			}
			return a.score(cmd, strings.Join(args, " "), p)
		},
	}
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "", "Data frequency (daily|monthly)")
	return cmd
}

func (a *app) score(cmd *cobra.Command, input string, p pipeline.Params) error {
	table, err := a.loadTable(p.Frequency)
	if err != nil {
		return err
	}
	weights, err := finance.ParseAllocation(input, table.Assets)
	if err != nil {
		return err
	}
	s, err := pipeline.Score(table, weights, p)
	if err != nil {
		return err
	}
	return report.WriteScore(cmd.OutOrStdout(), s)
}
