// =============================================================================
// Sales Analytics - Catalog Command
// =============================================================================
//
// Serves a product catalog over HTTP in the same JSON shape the pipeline
// fetches, so runs can be pointed at a local endpoint instead of the
// public one.
//
// COMMAND USAGE:
//   sales-analytics catalog serve [--addr :8081] [--file products.json]
//   sales-analytics catalog serve --generate 100
//
// ROUTES:
//   GET /products?limit=N&skip=M
//   GET /products/{id}
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/console"
	"github.com/ginjaninja78/sales-analytics/internal/fixture"
	"github.com/ginjaninja78/sales-analytics/internal/logging"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

var (
	serveAddr     string
	serveFile     string
	serveGenerate int
	serveSeed     int64
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Product catalog utilities",
}

var catalogServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a catalog JSON file over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCatalogServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogServeCmd)

	catalogServeCmd.Flags().StringVar(&serveAddr, "addr", ":8081", "Listen address")
	catalogServeCmd.Flags().StringVar(&serveFile, "file", "internal/catalog/testdata/products.json", "Catalog JSON file to serve")
	catalogServeCmd.Flags().IntVar(&serveGenerate, "generate", 0, "Serve N generated products instead of --file")
	catalogServeCmd.Flags().Int64Var(&serveSeed, "seed", 42, "Seed for --generate")
}

// catalogEntries returns the products to serve.
func catalogEntries() ([]types.CatalogEntry, error) {
	if serveGenerate > 0 {
		return fixture.Catalog(fixture.CatalogOptions{Size: serveGenerate, Seed: serveSeed}), nil
	}
	return catalog.LoadEntries(serveFile)
}

func runCatalogServe(cmd *cobra.Command) error {
	entries, err := catalogEntries()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           catalog.Handler(entries),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := console.New(cmd.OutOrStdout())
	out.Success("Serving %d products on %s", len(entries), serveAddr)
	out.Detail("GET http://localhost%s/products?limit=100", serveAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("catalog server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	appLogger.Info("shutdown signal received", logging.Stage("catalog"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
