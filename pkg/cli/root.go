// Package cli implements the hemera command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hemera",
	Short: "hemera is a lightweight application server runtime",
	Long: `hemera serves REST resources over HTTP using a cyclic task scheduler:
the connection listener and every client connection are small repeating
units of work instead of dedicated blocking threads.

Configuration is provided via flags or a YAML/JSON configuration file.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	initServeCmd()
	initValidateCmd()
	initVersionCmd()
}
