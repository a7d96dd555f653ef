// =============================================================================
// Sales Analytics - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sales-analytics)
//   ├── processCmd  (sales-analytics process)
//   ├── validateCmd (sales-analytics validate)
//   ├── generateCmd (sales-analytics generate)
//   ├── catalogCmd  (sales-analytics catalog serve)
//   └── versionCmd  (sales-analytics version)
//
// CONFIGURATION:
//   initConfig runs before every command (cobra.OnInitialize). It loads
//   config.yaml through viper, applies SALES_* environment overrides and
//   builds the logger. Commands read the result from appConfig/appLogger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file (--config).
var cfgFile string

// verbose forces debug logging (--verbose).
var verbose bool

// logFormat overrides logging.format when set (--log-format).
var logFormat string

// appConfig is the configuration loaded by initConfig.
var appConfig *config.Config

// appConfigErr holds the load error, reported by the command that needs
// the config rather than by initConfig itself.
var appConfigErr error

// appLogger writes structured logs to stderr.
var appLogger = logging.Discard()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "sales-analytics",
	Short: "Sales Analytics - clean, analyse and enrich e-commerce sales exports",
	Long: `Sales Analytics reads a pipe-delimited sales export, drops invalid
records, computes revenue analytics, enriches every sale with product
metadata from a third-party catalog and writes an enriched data file plus
a plain-text report.

Example Usage:
  sales-analytics process                          # Run with config.yaml
  sales-analytics process --input data/sales.txt   # Override the input file
  sales-analytics process --offline                # Skip the catalog call
  sales-analytics validate                         # Check the configuration
  sales-analytics generate --rows 500 --out x.txt  # Write a synthetic export`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text or json (overrides logging.format)",
	)
}

// initConfig loads the configuration and sets up logging.
func initConfig() {
	appConfig, appConfigErr = config.Load(cfgFile)
	if appConfigErr != nil {
		appConfig = config.Default()
	}

	if verbose {
		appConfig.Logging.Level = "debug"
	}
	if logFormat != "" {
		appConfig.Logging.Format = logFormat
	}
	appLogger = logging.New(appConfig.Logging.Level, appConfig.Logging.Format, os.Stderr)

	if src := appConfig.Source(); src != "" {
		appLogger.Debug("config loaded", logging.Path(src))
	}
}

// loadedConfig returns the configuration or the error initConfig hit.
func loadedConfig() (*config.Config, error) {
	if appConfigErr != nil {
		return nil, fmt.Errorf("failed to load config: %w", appConfigErr)
	}
	return appConfig, nil
}
