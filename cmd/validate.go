// =============================================================================
// Sales Analytics - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   sales-analytics validate [--config config.yaml]
//
// Loads the configuration (file, SALES_* environment, defaults), checks it
// and prints the effective settings as YAML.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-analytics/internal/console"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := console.New(cmd.OutOrStdout())

		cfg, err := loadedConfig()
		if err != nil {
			out.Failure("%v", err)
			return err
		}

		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))

		if err := cfg.Validate(); err != nil {
			out.Failure("Configuration is invalid: %v", err)
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if src := cfg.Source(); src != "" {
			out.Success("Configuration is valid (%s)", src)
		} else {
			out.Success("Configuration is valid (built-in defaults)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
