package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/pipeline/steps"
)

func newStepsCmd(_ *app) *cobra.Command {
	var completed []string
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the workflow steps and their dependencies",
		Long: `Lists every workflow step in execution order. With --completed, also shows
which steps can run next and which are still blocked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			done := make(map[string]bool, len(completed))
			for _, name := range completed {
				if steps.CategoryOf(name) == "" {
					return fmt.Errorf("unknown step: %s", name)
				}
				done[name] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STEP\tCATEGORY\tDEPENDS ON\tDESCRIPTION")
			for _, def := range steps.All() {
				deps := strings.Join(def.Dependencies, ",")
				if deps == "" {
					deps = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Name, def.Category, deps, def.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(completed) > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\navailable: %s\nblocked:   %s\n",
					strings.Join(steps.GetAvailableSteps(done), ", "),
					strings.Join(steps.GetBlockedSteps(done), ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "Comma-separated list of completed steps")
	return cmd
}
