package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logging"
	"github.com/ginjaninja78/sales-analytics/internal/metrics"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
)

var catalogFixture = filepath.Join("..", "catalog", "testdata", "products.json")

// catalogServer serves the 100-product fixture and counts requests.
func catalogServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	entries, err := catalog.LoadEntries(catalogFixture)
	require.NoError(t, err)

	hits := new(atomic.Int32)
	handler := catalog.Handler(entries)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, catalogURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Input.Path = filepath.Join("testdata", "sales_data.txt")
	cfg.Output.Dir = t.TempDir()
	cfg.Catalog.URL = catalogURL
	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRunFixture(t *testing.T) {
	srv, hits := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")
	cfg.Output.WorkbookFile = "sales.xlsx"

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 80, res.Total)
	assert.Equal(t, 10, res.Invalid)
	assert.Equal(t, 70, res.Valid)
	assert.Equal(t, res.Total, res.Valid+res.Invalid)
	assert.Zero(t, res.Filtered)
	assert.Equal(t, "3527808.00", res.Revenue.StringFixed(2))
	assert.Equal(t, 100, res.ProductsFetched)
	assert.Equal(t, 40, res.Matched)
	assert.Equal(t, CatalogOK, res.CatalogStatus)
	assert.NoError(t, res.CatalogErr)
	assert.Equal(t, int32(1), hits.Load(), "exactly one catalog request")
	assert.NotEmpty(t, res.RunID)
	assert.Positive(t, res.Duration)
	assert.Equal(t, map[validation.Reason]int{
		validation.ReasonMalformed:     1,
		validation.ReasonTransactionID: 3,
		validation.ReasonQuantity:      3,
		validation.ReasonUnitPrice:     3,
	}, res.Reasons)

	require.Len(t, res.Enriched, 70)
	for _, row := range res.Enriched {
		assert.Len(t, row.Row(), 12)
	}

	lines := readLines(t, res.EnrichedFile)
	require.Len(t, lines, 71)
	assert.Equal(t, strings.Join(types.OutputColumns, "|"), lines[0])
	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, "|"), 12)
	}
	assert.Equal(t, "T080|2024-12-18|P111|Workstation|7|51933.36|C007|North|Unknown|Unknown|N/A|363533.52", lines[70])

	reportText, err := os.ReadFile(res.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(reportText), "3,527,808.00")
	assert.Contains(t, string(reportText), "8. SUMMARY COUNTS")
	assert.NotContains(t, string(reportText), res.RunID)

	assert.Len(t, readLines(t, res.RejectsFile), 10)
	assert.FileExists(t, res.WorkbookFile)

	assert.Equal(t, []string{"East", "North", "South", "West"}, res.Available.Regions)
	assert.LessOrEqual(t, res.Available.MinAmount.Cmp(res.Available.MaxAmount), 0)
	assert.Positive(t, res.Available.MinAmount.Sign())
}

func TestRunIsIdempotent(t *testing.T) {
	srv, _ := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")

	first, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	enriched1, err := os.ReadFile(first.EnrichedFile)
	require.NoError(t, err)
	report1, err := os.ReadFile(first.ReportFile)
	require.NoError(t, err)

	second, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	enriched2, err := os.ReadFile(second.EnrichedFile)
	require.NoError(t, err)
	report2, err := os.ReadFile(second.ReportFile)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.True(t, bytes.Equal(enriched1, enriched2))
	assert.True(t, bytes.Equal(report1, report2))
}

func TestRunCatalogFailureSentinel(t *testing.T) {
	cfg := testConfig(t, failingServer(t).URL)

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, res.CatalogErr, catalog.ErrUnexpectedStatus)
	assert.Equal(t, CatalogUnavailable, res.CatalogStatus)
	assert.Zero(t, res.ProductsFetched)
	assert.Zero(t, res.Matched)
	require.Len(t, res.Enriched, 70)
	for _, row := range res.Enriched {
		assert.Equal(t, types.UnknownCategory, row.Category)
		assert.Equal(t, types.UnknownBrand, row.Brand)
		assert.Equal(t, types.NoRating, row.Rating)
	}
	assert.Len(t, readLines(t, res.EnrichedFile), 71)
}

func TestRunCatalogFailureAbort(t *testing.T) {
	cfg := testConfig(t, failingServer(t).URL)
	cfg.Catalog.OnError = config.OnErrorAbort

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.True(t, errors.Is(err, catalog.ErrUnexpectedStatus))

	require.NotNil(t, res)
	assert.Equal(t, 80, res.Total)
	assert.Equal(t, 10, res.Invalid)
	assert.Equal(t, 70, res.Valid)
	assert.Empty(t, res.Enriched)
	assert.NoFileExists(t, res.EnrichedFile)
}

func TestRunOffline(t *testing.T) {
	srv, hits := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")
	cfg.Catalog.Offline = true

	res, err := New(cfg, logging.Discard(), WithCatalog(catalog.NewClient(cfg.Catalog))).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, hits.Load())
	assert.Equal(t, CatalogOffline, res.CatalogStatus)
	assert.Zero(t, res.ProductsFetched)
	assert.Zero(t, res.Matched)
	assert.Len(t, res.Enriched, 70)
}

func TestRunCatalogFile(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Catalog.File = catalogFixture

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, res.ProductsFetched)
	assert.Equal(t, 40, res.Matched)
}

func TestRunWithInjectedCatalog(t *testing.T) {
	cfg := testConfig(t, "https://catalog.invalid/products")

	res, err := New(cfg, logging.Discard(), WithCatalog(FileFetcher{Path: catalogFixture})).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, res.ProductsFetched)
}

func TestRunEmptyDataset(t *testing.T) {
	srv, _ := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")
	cfg.Input.Path = filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(cfg.Input.Path, []byte(strings.Join(types.InputColumns, "|")+"\n"), 0o644))

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.Total)
	assert.Zero(t, res.Valid)
	assert.True(t, res.Revenue.IsZero())
	assert.Nil(t, res.Summary.PeakDay)
	assert.Equal(t, []string{strings.Join(types.OutputColumns, "|")}, readLines(t, res.EnrichedFile))

	reportText, err := os.ReadFile(res.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(reportText), "No sales recorded.")
}

func TestRunRegionFilter(t *testing.T) {
	srv, _ := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")
	cfg.Filter.Region = "north"

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 70, res.Valid)
	assert.Equal(t, 70-len(res.Enriched), res.Filtered)
	assert.Positive(t, res.Filtered)
	assert.Equal(t, "2233823.88", res.Revenue.StringFixed(2))
	require.Len(t, res.Summary.Regions, 1)
	assert.Equal(t, "100.00", res.Summary.Regions[0].Percentage.String())
}

func TestRunMetrics(t *testing.T) {
	srv, _ := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")
	cfg.Metrics.Textfile = filepath.Join(cfg.Output.Dir, "sales.prom")

	m := metrics.New()
	_, err := New(cfg, logging.Discard(), WithMetrics(m)).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sales_records_total{status="valid"} 70`)
	assert.Contains(t, string(data), `sales_records_total{status="invalid"} 10`)
	assert.Contains(t, string(data), "sales_catalog_products_fetched 100")
	assert.Contains(t, string(data), `sales_enriched_rows_total{match="name"} 40`)
}

func TestRunErrors(t *testing.T) {
	t.Run("missing input file", func(t *testing.T) {
		cfg := testConfig(t, "https://catalog.invalid/products")
		cfg.Input.Path = filepath.Join(t.TempDir(), "missing.txt")

		_, err := New(cfg, logging.Discard()).Run(context.Background())
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t, "https://catalog.invalid/products")
		cfg.Catalog.OnError = "retry"

		_, err := New(cfg, logging.Discard()).Run(context.Background())
		assert.ErrorIs(t, err, config.ErrInvalidOnError)
	})
}

func TestRunRejectsQuotedDelimiter(t *testing.T) {
	srv, _ := catalogServer(t)
	cfg := testConfig(t, srv.URL+"/products")
	cfg.Input.Path = filepath.Join(t.TempDir(), "quoted.txt")
	data := strings.Join(types.InputColumns, "|") + "\n" +
		`T100|2024-12-01|P101|"Laptop|Pro"|1|100|C001|North` + "\n"
	require.NoError(t, os.WriteFile(cfg.Input.Path, []byte(data), 0o644))

	res, err := New(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Invalid)
	assert.Zero(t, res.Valid)
	assert.Equal(t, map[validation.Reason]int{validation.ReasonMalformed: 1}, res.Reasons)
	assert.Equal(t, []string{strings.Join(types.OutputColumns, "|")}, readLines(t, res.EnrichedFile))
}

func TestRunAbortStillExportsMetrics(t *testing.T) {
	cfg := testConfig(t, failingServer(t).URL)
	cfg.Catalog.OnError = config.OnErrorAbort
	cfg.Metrics.Textfile = filepath.Join(cfg.Output.Dir, "sales.prom")

	_, err := New(cfg, logging.Discard(), WithMetrics(metrics.New())).Run(context.Background())
	require.ErrorIs(t, err, ErrCatalogUnavailable)

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sales_records_total{status="valid"} 70`)
	assert.Contains(t, string(data), `sales_records_total{status="invalid"} 10`)
	assert.Contains(t, string(data), "sales_catalog_fetch_errors_total 1")
	assert.Contains(t, string(data), "sales_run_duration_seconds")
}
