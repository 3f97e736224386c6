package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/server"
	"github.com/jonathan/recruiting-agent/internal/server/ratelimit"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server that exposes REST endpoints for workflows, batches, document ingestion and candidate ranking.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := a.settings
			if cmd.Flags().Changed("port") {
				s.Server.Port = port
			}

			processor, graph, err := a.processor(ctx, false)
			if err != nil {
				return err
			}
			ingest, err := a.ingestion(ctx, true, false)
			if err != nil {
				return err
			}
			ranker, err := a.ranker(ctx)
			if err != nil {
				return err
			}

			deps := server.Deps{
				Workflow:  graph,
				Batch:     processor,
				Ingestion: ingest,
				Ranker:    ranker,
				Logger:    a.logger,
			}
			database, err := a.db(ctx)
			if err != nil {
				return err
			}
			if database != nil {
				deps.Runs = database
			}

			rl := s.Server.RateLimit
			srv, err := server.New(server.Config{
				Port:        s.Server.Port,
				JWT:         s.Server.JWT,
				RateLimit:   ratelimit.NewConfig(rl.Enabled, rl.Limit, rl.Window, rl.Whitelist, rl.Blacklist),
				CORSOrigins: s.Server.CORSOrigins,
				DefaultTopK: s.Retrieval.TopK,
			}, deps)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	return cmd
}
