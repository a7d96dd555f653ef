// =============================================================================
// Sales Analytics - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main entry point of the
// pipeline.
//
// COMMAND USAGE:
//   sales-analytics process [flags]
//
// FLAGS:
//   --input                   : Sales export to read (input.path)
//   --output-dir              : Directory for all outputs (output.dir)
//   --workbook                : Also write an xlsx workbook with this name
//   --region                  : Keep only this region
//   --min-amount/--max-amount : Keep only line totals in this range
//   --offline                 : Skip the catalog; every row gets sentinels
//   --catalog-file            : Read the catalog from a local JSON file
//   --abort-on-catalog-error  : Fail the run when the catalog is unavailable
//
// Flags override the config file only when they are given explicitly.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/console"
	"github.com/ginjaninja78/sales-analytics/internal/enrich"
	"github.com/ginjaninja78/sales-analytics/internal/metrics"
	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
	"github.com/ginjaninja78/sales-analytics/internal/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputPath           string
	outputDir           string
	workbookFile        string
	regionFilter        string
	minAmount           string
	maxAmount           string
	offline             bool
	catalogFile         string
	abortOnCatalogError bool
)

const processSteps = 9

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Clean, analyse and enrich a sales export",
	Long: `The process command runs the full pipeline over the sales export:

  1. Parse the pipe-delimited file (UTF-8 with a latin-1 fallback)
  2. Drop invalid records (bad transaction id, quantity or price)
  3. Apply the optional region and amount filters
  4. Compute revenue analytics
  5. Fetch the product catalog with a single HTTP GET
  6. Enrich every record with category, brand and rating
  7. Write the enriched data file
  8. Write the text report (and the xlsx workbook when configured)

If the catalog cannot be fetched, every record is enriched with Unknown/N/A
unless --abort-on-catalog-error is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the sales export")
	processCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the output files")
	processCmd.Flags().StringVar(&workbookFile, "workbook", "", "Also write an xlsx workbook with this file name")
	processCmd.Flags().StringVar(&regionFilter, "region", "", "Keep only records from this region")
	processCmd.Flags().StringVar(&minAmount, "min-amount", "", "Keep only records whose line total is at least this amount")
	processCmd.Flags().StringVar(&maxAmount, "max-amount", "", "Keep only records whose line total is at most this amount")
	processCmd.Flags().BoolVar(&offline, "offline", false, "Do not call the catalog; enrich with sentinel values")
	processCmd.Flags().StringVar(&catalogFile, "catalog-file", "", "Read the catalog from a local JSON file instead of HTTP")
	processCmd.Flags().BoolVar(&abortOnCatalogError, "abort-on-catalog-error", false, "Fail the run when the catalog is unavailable")
}

// applyProcessFlags copies explicitly set flags onto cfg.
func applyProcessFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = inputPath
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("workbook") {
		cfg.Output.WorkbookFile = workbookFile
	}
	if flags.Changed("region") {
		cfg.Filter.Region = regionFilter
	}
	if flags.Changed("min-amount") {
		cfg.Filter.MinAmount = minAmount
	}
	if flags.Changed("max-amount") {
		cfg.Filter.MaxAmount = maxAmount
	}
	if flags.Changed("offline") {
		cfg.Catalog.Offline = offline
	}
	if flags.Changed("catalog-file") {
		cfg.Catalog.File = catalogFile
	}
	if abortOnCatalogError {
		cfg.Catalog.OnError = config.OnErrorAbort
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	loaded, err := loadedConfig()
	if err != nil {
		return err
	}
	cfg := *loaded
	applyProcessFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := console.New(cmd.OutOrStdout())
	out.Banner("SALES ANALYTICS SYSTEM")
	fmt.Fprintln(cmd.OutOrStdout())

	var opts []pipeline.Option
	if cfg.Metrics.Textfile != "" {
		opts = append(opts, pipeline.WithMetrics(metrics.New()))
	}

	res, runErr := pipeline.New(&cfg, appLogger, opts...).Run(ctx)
	printSummary(out, &cfg, res, runErr)

	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrCatalogUnavailable) {
			return fmt.Errorf("%w (rerun without --abort-on-catalog-error to use sentinel values)", runErr)
		}
		return runErr
	}
	return nil
}

// printSummary prints the numbered step list for whatever the run reached.
func printSummary(out *console.Printer, cfg *config.Config, res *pipeline.Result, runErr error) {
	if res == nil {
		return
	}

	// Steps 1-2 are only meaningful once parsing succeeded.
	if res.Total == 0 && runErr != nil {
		out.Step(1, processSteps, "Reading sales data...")
		out.Failure("%v", runErr)
		return
	}

	out.Step(1, processSteps, "Reading sales data...")
	out.Success("Read %d records from %s", res.Total, res.InputFile)

	out.Step(2, processSteps, "Parsing and cleaning data...")
	out.Success("Valid: %d | Invalid: %d", res.Valid, res.Invalid)
	if res.RejectsFile != "" && res.Invalid > 0 {
		out.Detail("Rejected records: %s", res.RejectsFile)
	}

	out.Step(3, processSteps, "Applying filters...")
	if len(res.Available.Regions) > 0 {
		out.Detail("Regions: %s", strings.Join(res.Available.Regions, ", "))
		out.Detail("Amount range: %s - %s",
			report.FormatMoney(res.Available.MinAmount), report.FormatMoney(res.Available.MaxAmount))
	}
	if cfg.Filter.Region == "" && cfg.Filter.MinAmount == "" && cfg.Filter.MaxAmount == "" {
		out.Success("No filters configured")
	} else {
		out.Success("Filtered out %d records", res.Filtered)
	}

	if res.Summary != nil {
		out.Step(4, processSteps, "Performing data analysis...")
		out.Success("Total revenue %s over %d days", report.FormatMoney(res.Summary.TotalRevenue), len(res.Summary.DailyTrend))
	}

	out.Step(5, processSteps, "Fetching product catalog...")
	switch {
	case errors.Is(runErr, pipeline.ErrCatalogUnavailable):
		out.Failure("%v", runErr)
		return
	case res.CatalogStatus == pipeline.CatalogOffline:
		out.Warn("Offline mode: catalog skipped")
	case res.CatalogErr != nil:
		out.Warn("Catalog unavailable, using sentinel values: %v", res.CatalogErr)
	default:
		out.Success("Fetched %d products", res.ProductsFetched)
	}

	if runErr != nil {
		out.Failure("%v", runErr)
		return
	}

	stats := enrich.StatsOf(res.Enriched)
	out.Step(6, processSteps, "Enriching sales data...")
	out.Success("Matched %d/%d = %.1f%%", stats.Matched, stats.Total, stats.MatchRate())

	out.Step(7, processSteps, "Saving enriched data...")
	out.Success("%s", res.EnrichedFile)

	out.Step(8, processSteps, "Generating report...")
	if res.ReportFile != "" {
		out.Success("%s", res.ReportFile)
	}
	if res.WorkbookFile != "" {
		out.Success("%s", res.WorkbookFile)
	}

	out.Step(9, processSteps, "Process complete!")
	out.Rule()
	out.Info("Files generated:")
	out.Detail("Enriched data: %s", res.EnrichedFile)
	if res.ReportFile != "" {
		out.Detail("Full report:   %s", res.ReportFile)
	}
	if res.WorkbookFile != "" {
		out.Detail("Workbook:      %s", res.WorkbookFile)
	}
	out.Detail("Duration:      %s", res.Duration.Round(time.Millisecond))
	out.Rule()
}
