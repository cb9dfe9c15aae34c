package main

import (
	"context"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the document API over HTTP: document reads, command batches,
template lookups, validation, Prometheus metrics and an SSE stream of diffs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		return withApp(cmd, func(app *cli.App) error {
			sigCtx := cli.NewSignalContext(context.Background())
			defer sigCtx.Cancel()
			return cli.RunServe(sigCtx, app, port, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config, 8080)")
}
