package main

import (
	"fmt"
	"os"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy is the document-tree engine of a visual page builder",
	Long: `Canopy stores page documents (a node tree plus a registry of reusable templates)
and applies structural edits to them from scripts, an HTTP API or MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default canopy.yaml when present)")
	rootCmd.PersistentFlags().String("dir", "", "Project directory; documents are kept in <dir>/.canopy/documents")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "Shorthand for --log-level=debug")
}

// newApp builds the engine from the global flags. Callers must Close it.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("dir")
	level, _ := cmd.Flags().GetString("log-level")
	debug, _ := cmd.Flags().GetBool("debug")

	return cli.NewApp(cli.Options{
		ConfigPath: configPath,
		Dir:        dir,
		LogLevel:   level,
		Debug:      debug,
	})
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(app *cli.App) error) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
