package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage stored documents",
}

var docListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List document ids",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.ListDocuments(cmd.Context(), app, cmd.OutOrStdout())
		})
	},
}

var docInspectCmd = &cobra.Command{
	Use:   "inspect <doc-id>",
	Short: "Print a document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.InspectDocument(cmd.Context(), app, args[0], cmd.OutOrStdout())
		})
	},
}

var docRemoveCmd = &cobra.Command{
	Use:     "rm <doc-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.RemoveDocument(cmd.Context(), app, args[0], cmd.OutOrStdout())
		})
	},
}

func init() {
	docCmd.AddCommand(docListCmd, docInspectCmd, docRemoveCmd)
	rootCmd.AddCommand(docCmd)
}
