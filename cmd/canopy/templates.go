package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Share templates through a Loam directory",
	Long:  `Templates are written one Markdown file each: metadata in frontmatter, the master tree in the body.`,
}

var templatesExportCmd = &cobra.Command{
	Use:   "export <doc-id> <dir>",
	Short: "Write a document's templates to a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.ExportTemplates(cmd.Context(), app, args[0], args[1], cmd.OutOrStdout())
		})
	},
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <doc-id> <dir>",
	Short: "Merge the templates of a directory into a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			return cli.ImportTemplates(cmd.Context(), app, args[0], args[1], cmd.OutOrStdout())
		})
	},
}

func init() {
	templatesCmd.AddCommand(templatesExportCmd, templatesImportCmd)
	rootCmd.AddCommand(templatesCmd)
}
