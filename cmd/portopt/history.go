package main

import (
	"fmt"

	"portfolioSim/internal/report"

	"github.com/spf13/cobra"
)

func (a *app) historyCmd() *cobra.Command {
	var (
		limit  int
		chatID int64
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			runs, err := store.ListRuns(chatID, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded yet")
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Only runs requested from this Telegram chat")
	return cmd
}
