package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCollectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Inspect or clear vector store collections",
	}

	resolve := func(name string) (string, error) {
		c := a.collections()
		switch name {
		case "jobs", "job_descriptions", c.Jobs:
			return c.Jobs, nil
		case "resumes", c.Resumes:
			return c.Resumes, nil
		}
		return "", fmt.Errorf("unknown collection %q (use jobs or resumes)", name)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "count <jobs|resumes>",
		Short: "Print the number of documents in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolve(args[0])
			if err != nil {
				return err
			}
			store, err := a.vectorStore(cmd.Context())
			if err != nil {
				return err
			}
			n, err := store.Count(cmd.Context(), name)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", name, n)
			return nil
		},
	})

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear <jobs|resumes>",
		Short: "Delete every document in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolve(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to clear %s without --yes", name)
			}
			store, err := a.vectorStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context(), name); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", name)
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	cmd.AddCommand(clearCmd)
	return cmd
}
