package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/bono-engine/roster"
	"go.uber.org/zap"
)

func newJoinCmd(a *app) *cobra.Command {
	var (
		requestersPath string
		rosterPath     string
		onlyNotFound   bool
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Match a requester list against the master roster",
		Long: `Reads both files (.xlsx or .csv), normalizes DNIs to 8 digits and
prints the join counters and the joined rows. Use --not-found to list only
the requesters missing from the roster.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requesters, master, err := loadInputs(requestersPath, rosterPath)
			if err != nil {
				return err
			}
			res, err := roster.JoinTables(requesters, master)
			if err != nil {
				return err
			}
			a.logger.Debug("joined",
				zap.Int("requesters", res.Stats.Requesters),
				zap.Int("found", res.Stats.Found),
			)

			out := cmd.OutOrStdout()
			printStats(out, res.Stats)
			rows := res.Rows
			if onlyNotFound {
				rows = res.NotFound()
			}
			printWorkers(out, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestersPath, "requesters", "r", "", "requester list (.xlsx or .csv)")
	cmd.Flags().StringVarP(&rosterPath, "roster", "b", "", "master roster (.xlsx or .csv)")
	cmd.Flags().BoolVar(&onlyNotFound, "not-found", false, "only list requesters missing from the roster")
	cmd.MarkFlagRequired("requesters")
	cmd.MarkFlagRequired("roster")
	return cmd
}
