package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree around a shared app.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "recruiter",
		Short: "HR recruiting workflow engine",
		Long: `recruiter turns a job description into a job analysis, sourcing strategy,
screening criteria, compensation package and offer letter, and ranks stored
resumes against stored job descriptions.

Settings are read from an optional YAML file (--settings), a .env file and
RECRUITER_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "", "Path to a YAML settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newRunCmd(a),
		newBatchCmd(a),
		newIngestJobCmd(a),
		newIngestResumeCmd(a),
		newRankCmd(a),
		newCollectionsCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newStepsCmd(a),
		newTokenCmd(a),
	)
	return root
}
