package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <doc-id>",
	Short: "Check a document for consistency",
	Long:  `Reports duplicate or reserved ids, invalid kinds, broken stubs and missing popup or mega-menu targets.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.ValidateDocument(cmd.Context(), app, args[0], cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
