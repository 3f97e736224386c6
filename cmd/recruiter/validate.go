package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/schemas"
	"github.com/jonathan/recruiting-agent/internal/validation"
	embedded "github.com/jonathan/recruiting-agent/schemas"
)

func newValidateCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <jobs.json>",
		Short: "Check job configurations without calling the LLM",
		Long: `Checks a job configuration file (a single JSON object or an array of them)
against the batch schema and the workflow input rules. Defaults are applied
first, exactly as a workflow run would.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if obj, ok := doc.(map[string]any); ok {
				doc = []any{obj}
				data, _ = json.Marshal(doc)
			}
			if err := schemas.ValidateDocument(embedded.JobBatch, doc); err != nil {
				return err
			}
			configs, err := batch.ParseConfigs(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var invalid []error
			for i, cfg := range configs {
				result := validation.ValidateInput(cfg.WithDefaults().Input())
				mark := "✓"
				if err := validation.AsError(batch.Label(cfg, i), result); err != nil {
					mark = "✗"
					invalid = append(invalid, err)
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", mark, batch.Label(cfg, i))
				for _, e := range result.Errors {
					_, _ = fmt.Fprintf(out, "    error: %s\n", e)
				}
				for _, w := range result.Warnings {
					_, _ = fmt.Fprintf(out, "    warning: %s\n", w)
				}
			}

			if len(invalid) > 0 {
				return fmt.Errorf("%d of %d job configurations are invalid: %w",
					len(invalid), len(configs), errors.Join(invalid...))
			}
			return nil
		},
	}
}
