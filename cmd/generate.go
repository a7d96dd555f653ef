// =============================================================================
// Sales Analytics - Generate Command
// =============================================================================
//
// Writes a synthetic sales export, and optionally a matching catalog JSON
// file, for load testing and demos.
//
// COMMAND USAGE:
//   sales-analytics generate [flags]
//
// FLAGS:
//   --rows          : Number of data rows (default 80)
//   --seed          : Random seed; 0 picks a random one (default 42)
//   --invalid-ratio : Share of rows that fail validation (default 0.125)
//   --out           : Output file; "-" writes to stdout
//   --catalog-out   : Also write a catalog JSON file here
//   --catalog-size  : Number of catalog products (default 100)
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/console"
	"github.com/ginjaninja78/sales-analytics/internal/fixture"
	"github.com/ginjaninja78/sales-analytics/internal/logging"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

var (
	genRows         int
	genSeed         int64
	genInvalidRatio float64
	genOut          string
	genCatalogOut   string
	genCatalogSize  int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic sales export",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	def := fixture.DefaultOptions()
	generateCmd.Flags().IntVar(&genRows, "rows", def.Rows, "Number of data rows")
	generateCmd.Flags().Int64Var(&genSeed, "seed", def.Seed, "Random seed (0 picks a random seed)")
	generateCmd.Flags().Float64Var(&genInvalidRatio, "invalid-ratio", def.InvalidRatio, "Share of rows that fail validation (0..1)")
	generateCmd.Flags().StringVar(&genOut, "out", "data/generated_sales.txt", `Output file ("-" for stdout)`)
	generateCmd.Flags().StringVar(&genCatalogOut, "catalog-out", "", "Also write a catalog JSON file to this path")
	generateCmd.Flags().IntVar(&genCatalogSize, "catalog-size", 100, "Number of products in the generated catalog")
}

func runGenerate(cmd *cobra.Command) error {
	if genInvalidRatio < 0 || genInvalidRatio > 1 {
		return fmt.Errorf("invalid-ratio must be between 0 and 1, got %g", genInvalidRatio)
	}

	opts := fixture.DefaultOptions()
	opts.Rows = genRows
	opts.Seed = genSeed
	opts.InvalidRatio = genInvalidRatio

	var stats fixture.Stats
	generate := func(w io.Writer) error {
		var err error
		stats, err = fixture.Generate(w, opts)
		return err
	}

	// Stdout carries the data, so the summary goes to stderr.
	out := console.New(cmd.ErrOrStderr())
	if genOut == "-" {
		if err := generate(cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		if err := utils.WriteFileAtomic(genOut, generate); err != nil {
			return fmt.Errorf("failed to write %s: %w", genOut, err)
		}
		out = console.New(cmd.OutOrStdout())
		out.Success("Wrote %d rows to %s", stats.Rows, genOut)
	}
	out.Detail("Valid: %d | Invalid: %d", stats.Valid, stats.Invalid)
	appLogger.Debug("fixture generated", logging.Count(stats.Rows), logging.Path(genOut))

	if genCatalogOut == "" {
		return nil
	}
	data, err := catalog.Marshal(fixture.Catalog(fixture.CatalogOptions{Size: genCatalogSize, Seed: genSeed}))
	if err != nil {
		return err
	}
	if err := utils.WriteBytesAtomic(genCatalogOut, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", genCatalogOut, err)
	}
	out.Success("Wrote %d catalog products to %s", genCatalogSize, genCatalogOut)
	return nil
}
