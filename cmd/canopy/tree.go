package main

import (
	"os"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree <doc-id>",
	Short: "Print the document tree",
	Long:  `Prints the page tree and the template registry as a Markdown outline (styled on a terminal) or a Mermaid diagram (graph TD).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		markdown, _ := cmd.Flags().GetBool("markdown")

		format := cli.FormatOutline
		if mermaid {
			format = cli.FormatMermaid
		}

		var render func(string) (string, error)
		if !mermaid && !markdown && tui.IsTerminal(os.Stdout) {
			render = tui.NewRenderer()
		}

		return withApp(cmd, func(app *cli.App) error {
			return cli.PrintTree(cmd.Context(), app, args[0], format, render, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Bool("mermaid", false, "Output a Mermaid diagram")
	treeCmd.Flags().Bool("markdown", false, "Output the raw Markdown outline")
	treeCmd.MarkFlagsMutuallyExclusive("mermaid", "markdown")
}
