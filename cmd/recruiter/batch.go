package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/observability"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		out         string
		concurrency int
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "batch <jobs.json>",
		Short: "Run the workflow for every job configuration in a JSON file",
		Long: `Runs the workflow once per entry of a JSON array of job configurations.
Entries without a job_description are reported as errors without stopping the batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			configs, err := batch.LoadConfigs(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				a.settings.Batch.Concurrency = concurrency
			}

			processor, _, err := a.processor(ctx, strict)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			results := processor.Process(ctx, configs, func(index, total int, label string) {
				_, _ = fmt.Fprintf(stderr, "[%d/%d] %s\n", index+1, total, label)
			})

			observability.NewPrinter(stderr).PrintBatchResults(results)
			return writeJSON(cmd.OutOrStdout(), out, results)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the results as JSON to this file instead of stdout")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of workflows to run at once")
	cmd.Flags().BoolVar(&strict, "strict", false, "Skip the job parser when input validation fails")
	return cmd
}
