package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/ingestion"
)

// parseMetadata parses repeated key=value flags.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		meta[k] = v
	}
	return meta, nil
}

func newIngestJobCmd(a *app) *cobra.Command {
	var (
		id         string
		url        string
		useBrowser bool
		metadata   []string
	)
	cmd := &cobra.Command{
		Use:   "ingest-job [file]",
		Short: "Store a job description in the vector store",
		Long:  `Cleans and embeds a job description from a text file or a posting URL and stores it for candidate ranking.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (len(args) == 0) == (url == "") {
				return errors.New("provide either a job description file or --url")
			}
			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			svc, err := a.ingestion(ctx, url != "", useBrowser)
			if err != nil {
				return err
			}

			if url != "" {
				jobID, posting, err := svc.IngestJobFromURL(ctx, url, meta)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Fetched %q from %s (%d chars)\n", posting.Title, posting.Platform, len(posting.Text))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), jobID)
				return nil
			}

			text, err := ingestion.ReadFile(args[0])
			if err != nil {
				return err
			}
			jobID, err := svc.IngestJob(ctx, ingestion.Document{ID: id, Text: text, Filename: filepath.Base(args[0]), Extra: meta})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), jobID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Document ID (a UUID is generated when empty)")
	cmd.Flags().StringVar(&url, "url", "", "Fetch the job posting from this URL")
	cmd.Flags().BoolVar(&useBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	cmd.Flags().StringArrayVarP(&metadata, "meta", "m", nil, "Extra metadata as key=value (repeatable)")
	return cmd
}

func newIngestResumeCmd(a *app) *cobra.Command {
	var (
		id       string
		metadata []string
	)
	cmd := &cobra.Command{
		Use:   "ingest-resume <file>...",
		Short: "Store resumes in the vector store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if id != "" && len(args) > 1 {
				return errors.New("--id can only be used with a single resume")
			}
			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}
			svc, err := a.ingestion(ctx, false, false)
			if err != nil {
				return err
			}

			for _, path := range args {
				text, err := ingestion.ReadFile(path)
				if err != nil {
					return err
				}
				resumeID, err := svc.IngestResume(ctx, ingestion.Document{ID: id, Text: text, Filename: filepath.Base(path), Extra: meta})
				if err != nil {
					return fmt.Errorf("failed to ingest %s: %w", path, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resumeID, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Document ID (a UUID is generated when empty)")
	cmd.Flags().StringArrayVarP(&metadata, "meta", "m", nil, "Extra metadata as key=value (repeatable)")
	return cmd
}
