// Package metrics records pipeline counters in a private Prometheus registry
// and dumps them in the node-exporter textfile format at the end of a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Record status label values.
const (
	StatusValid    = "valid"
	StatusInvalid  = "invalid"
	StatusFiltered = "filtered"
)

// Recorder holds the run metrics. A nil Recorder ignores every call.
type Recorder struct {
	registry *prometheus.Registry

	RecordsTotal       *prometheus.CounterVec
	RevenueTotal       prometheus.Gauge
	ProductsFetched    prometheus.Gauge
	CatalogFetch       prometheus.Histogram
	CatalogFetchErrors prometheus.Counter
	EnrichedRows       *prometheus.CounterVec
	RunDuration        prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Record metrics
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sales_records_total",
				Help: "Total number of input records by validation status",
			},
			[]string{"status"},
		),

		RevenueTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sales_revenue_total",
				Help: "Total revenue of the analysed records",
			},
		),

		// Catalog metrics
		ProductsFetched: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sales_catalog_products_fetched",
				Help: "Number of products returned by the catalog",
			},
		),

		CatalogFetch: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sales_catalog_fetch_seconds",
				Help:    "Duration of the catalog fetch in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		CatalogFetchErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sales_catalog_fetch_errors_total",
				Help: "Total number of failed catalog fetches",
			},
		),

		// Enrichment metrics
		EnrichedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sales_enriched_rows_total",
				Help: "Total number of enriched rows by match kind",
			},
			[]string{"match"},
		),

		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sales_run_duration_seconds",
				Help: "Wall-clock duration of the last pipeline run",
			},
		),
	}
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRecords records the validation outcome.
func (r *Recorder) ObserveRecords(valid, invalid, filtered int) {
	if r == nil {
		return
	}
	r.RecordsTotal.WithLabelValues(StatusValid).Add(float64(valid))
	r.RecordsTotal.WithLabelValues(StatusInvalid).Add(float64(invalid))
	r.RecordsTotal.WithLabelValues(StatusFiltered).Add(float64(filtered))
}

// ObserveRevenue sets the revenue gauge.
func (r *Recorder) ObserveRevenue(total money.Decimal) {
	if r == nil {
		return
	}
	r.RevenueTotal.Set(total.Float64())
}

// ObserveCatalogFetch records one catalog fetch attempt.
func (r *Recorder) ObserveCatalogFetch(d time.Duration, products int, err error) {
	if r == nil {
		return
	}
	r.CatalogFetch.Observe(d.Seconds())
	if err != nil {
		r.CatalogFetchErrors.Inc()
		return
	}
	r.ProductsFetched.Set(float64(products))
}

// ObserveEnriched counts enriched rows per match kind.
func (r *Recorder) ObserveEnriched(rows []types.EnrichedRecord) {
	if r == nil {
		return
	}
	for _, kind := range []types.MatchKind{types.MatchName, types.MatchID, types.MatchNone} {
		r.EnrichedRows.WithLabelValues(kind.String()).Add(0)
	}
	for _, row := range rows {
		r.EnrichedRows.WithLabelValues(row.Match.String()).Inc()
	}
}

// ObserveRun sets the run duration gauge.
func (r *Recorder) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.RunDuration.Set(d.Seconds())
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
