package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiting-agent/internal/server"
)

func newTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token <client-name>",
		Short: "Issue an API token for a client",
		Long:  `Signs a bearer token for the REST API with the configured JWT secret.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jwtCfg := a.settings.Server.JWT
			if !jwtCfg.Enabled() {
				return errors.New("server.jwt.secret (JWT_SECRET) is not configured")
			}
			token, err := server.NewJWTService(jwtCfg).GenerateToken(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
