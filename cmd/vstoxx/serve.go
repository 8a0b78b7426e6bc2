package main

import (
	"context"

	"github.com/spf13/cobra"

	"vstoxxcli/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				c.cfg.Server.Port = port
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			application, err := app.NewApplication(ctx, c.cfg, c.logger, c.build)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().IntP("port", "p", 0, "listen port (default: server.port)")
	return cmd
}
