package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neakor/hemera/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a configuration file without starting the server",
	Long: `Validate a configuration file without starting any services.

This command checks:
  - YAML/JSON syntax
  - Value ranges (port, timeouts, buffer sizes)
  - TLS certificate and key file presence`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		cfg, err := config.Load(cmdArgs[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration is invalid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (port %d)\n", cmdArgs[0], cfg.Port)
		return nil
	},
}

func initValidateCmd() {
	rootCmd.AddCommand(validateCmd)
}
