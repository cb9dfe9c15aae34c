package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <doc-id> <script>",
	Short: "Apply a command script to a document",
	Long: `Runs the commands of a YAML or JSON script in order against the document,
creating it when missing. Use "-" to read a YAML script from stdin.
Commands applied before a failing one stay applied.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.ApplyScript(cmd.Context(), app, args[0], args[1], cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
