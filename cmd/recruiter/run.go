package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/config"
	"github.com/jonathan/recruiting-agent/internal/ingestion"
	"github.com/jonathan/recruiting-agent/internal/observability"
	"github.com/jonathan/recruiting-agent/internal/pipeline"
	"github.com/jonathan/recruiting-agent/internal/types"
)

type runFlags struct {
	configPath    string
	job           string
	jobURL        string
	jobTitle      string
	company       string
	department    string
	salaryFloor   int
	salaryCeiling int
	apiKey        string
	useBrowser    bool
	verbose       bool
	strict        bool
	databaseURL   string
	out           string
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the recruiting workflow for one job description",
		Long: `Runs the full workflow: job parsing -> candidate sourcing, screening criteria and
compensation analysis -> offer letter.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkflowCmd(cmd, a, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVarP(&f.job, "job", "j", "", "Path to job description text file (mutually exclusive with --job-url)")
	flags.StringVar(&f.jobURL, "job-url", "", "URL to fetch the job posting from (mutually exclusive with --job)")
	flags.StringVar(&f.jobTitle, "job-title", "", "Job title used in progress output")
	flags.StringVarP(&f.company, "company", "c", "", "Company name")
	flags.StringVar(&f.department, "department", "", "Department")
	flags.IntVar(&f.salaryFloor, "salary-floor", 0, "Minimum salary of the budget")
	flags.IntVar(&f.salaryCeiling, "salary-ceiling", 0, "Maximum salary of the budget")
	flags.StringVar(&f.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	flags.BoolVar(&f.useBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Print every stage result")
	flags.BoolVar(&f.strict, "strict", false, "Skip the job parser when input validation fails")
	flags.StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL for run history (optional, defaults to DATABASE_URL env var)")
	flags.StringVarP(&f.out, "out", "o", "", "Write the final workflow state as JSON to this file")
	return cmd
}

// resolveRunConfig merges the config file, explicitly set flags and defaults.
func resolveRunConfig(cmd *cobra.Command, f *runFlags) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	changed := cmd.Flags().Changed
	if changed("job") {
		cfg.Job = f.job
	}
	if changed("job-url") {
		cfg.JobURL = f.jobURL
	}
	if changed("job-title") {
		cfg.JobTitle = f.jobTitle
	}
	if changed("company") {
		cfg.CompanyName = f.company
	}
	if changed("department") {
		cfg.Department = f.department
	}
	if changed("salary-floor") {
		cfg.SalaryFloor = f.salaryFloor
	}
	if changed("salary-ceiling") {
		cfg.SalaryCeiling = f.salaryCeiling
	}
	if changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("strict") {
		cfg.Strict = f.strict
	}
	if changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		CompanyName:   types.DefaultCompanyName,
		Department:    types.DefaultDepartment,
		SalaryFloor:   types.DefaultSalaryFloor,
		SalaryCeiling: types.DefaultSalaryCeiling,
	})

	if cfg.Job == "" && cfg.JobURL == "" {
		return cfg, errors.New("either --job or --job-url must be provided (via flag or config)")
	}
	if cfg.Job != "" && cfg.JobURL != "" {
		return cfg, errors.New("--job and --job-url are mutually exclusive; provide only one")
	}
	return cfg, nil
}

func runWorkflowCmd(cmd *cobra.Command, a *app, f *runFlags) error {
	ctx := cmd.Context()
	cfg, err := resolveRunConfig(cmd, f)
	if err != nil {
		return err
	}
	if cfg.APIKey != "" {
		a.settings.LLM.APIKey = cfg.APIKey
	}
	if cfg.DatabaseURL != "" {
		a.settings.Database.URL = cfg.DatabaseURL
	}

	var description string
	if cfg.Job != "" {
		description, err = ingestion.ReadFile(cfg.Job)
		if err != nil {
			return err
		}
	} else {
		fetcher, err := a.fetcher(ctx, cfg.UseBrowser)
		if err != nil {
			return err
		}
		posting, err := fetcher.Fetch(ctx, cfg.JobURL)
		if err != nil {
			return err
		}
		description = posting.Text
		if cfg.JobTitle == "" {
			cfg.JobTitle = posting.Title
		}
	}

	graph, err := a.graph(ctx, cfg.Strict)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	jobCfg := cfg.JobConfig(description)
	_, _ = fmt.Fprintf(stderr, "Running workflow for %s\n", batch.Label(jobCfg, 0))
	state := graph.Run(ctx, jobCfg.Input(), func(ev pipeline.ProgressEvent) {
		if ev.Type == pipeline.EventStageStarted || ev.Fallback {
			_, _ = fmt.Fprintf(stderr, "  %s\n", ev.Message)
		}
	})

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if cfg.Verbose {
		printer.PrintWorkflow(state)
	}
	if f.out != "" || !cfg.Verbose {
		if err := writeJSON(cmd.OutOrStdout(), f.out, state); err != nil {
			return err
		}
	}
	if f.out != "" && !cfg.Verbose {
		printer.PrintSummary(state)
	}
	return nil
}
