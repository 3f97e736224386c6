package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/observability"
)

func newRankCmd(a *app) *cobra.Command {
	var (
		k       int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "rank <job-id>",
		Short: "Rank stored resumes against a stored job description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ranker, err := a.ranker(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") {
				k = a.settings.Retrieval.TopK
			}

			candidates, err := ranker.RankCandidates(ctx, args[0], k)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), "", candidates)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintCandidates(args[0], candidates)
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 10, "Number of resumes to retrieve")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print candidates as JSON")
	return cmd
}
