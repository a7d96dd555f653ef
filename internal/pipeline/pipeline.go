// =============================================================================
// Sales Analytics - Pipeline Module
// =============================================================================
//
// This module orchestrates one run over a sales file, from raw text to the
// enriched data file and the analytics report.
//
// PIPELINE:
//   1. Parse the input file
//   2. Validate records (counts are logged immediately)
//   3. Apply the optional region/amount filter
//   4. Compute analytics
//   5. Fetch the product catalog (one GET, no retry)
//   6. Enrich every record
//   7. Write the enriched data file
//   8. Write the text report and the optional workbook
//   9. Export metrics
//
// CATALOG FAILURES:
//   With catalog.on_error=sentinel the run carries on and every row gets the
//   Unknown/N/A sentinels. With on_error=abort the run stops after step 5 and
//   returns ErrCatalogUnavailable; the cleaning counts are already in Result.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/enrich"
	"github.com/ginjaninja78/sales-analytics/internal/logging"
	"github.com/ginjaninja78/sales-analytics/internal/metrics"
	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/report"
	"github.com/ginjaninja78/sales-analytics/internal/salesparser"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// ErrCatalogUnavailable is returned when the catalog fetch fails and
// catalog.on_error is abort.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Catalog status values reported in Result and the text report.
const (
	CatalogOK          = "ok"
	CatalogOffline     = "offline"
	CatalogUnavailable = "unavailable (sentinel values used)"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID correlates the log lines of this run. It is never written to
	// the output files.
	RunID string

	InputFile    string
	EnrichedFile string
	ReportFile   string
	WorkbookFile string
	RejectsFile  string

	// Record counts. Total == Valid + Invalid; Filtered is the number of
	// valid records removed by the filter.
	Total    int
	Invalid  int
	Valid    int
	Filtered int
	Reasons  map[validation.Reason]int

	// Available lists the regions and line-total range of the valid records,
	// before any filter is applied.
	Available analytics.FilterOptions

	Revenue         money.Decimal
	ProductsFetched int
	Matched         int

	// CatalogStatus is one of the Catalog* constants.
	CatalogStatus string

	// CatalogErr is the fetch error when the run fell back to sentinels.
	CatalogErr error

	Summary  *analytics.Summary
	Enriched []types.EnrichedRecord
	Duration time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Fetcher loads the product catalog. catalog.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]types.CatalogEntry, error)
}

// FileFetcher serves the catalog from a local JSON file.
type FileFetcher struct {
	Path string
}

// Fetch implements Fetcher.
func (f FileFetcher) Fetch(context.Context) ([]types.CatalogEntry, error) {
	return catalog.LoadEntries(f.Path)
}

// Pipeline runs the stages for one configuration.
type Pipeline struct {
	cfg     *config.Config
	log     *logging.Logger
	fetcher Fetcher
	metrics *metrics.Recorder
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCatalog replaces the catalog source chosen from the config.
func WithCatalog(f Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a Pipeline. The catalog source follows the config: none when
// offline, a FileFetcher when catalog.file is set, otherwise the HTTP client.
func New(cfg *config.Config, log *logging.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	p := &Pipeline{cfg: cfg, log: log}

	switch {
	case cfg.Catalog.Offline:
	case cfg.Catalog.File != "":
		p.fetcher = FileFetcher{Path: cfg.Catalog.File}
	default:
		p.fetcher = catalog.NewClient(cfg.Catalog)
	}

	for _, opt := range opts {
		opt(p)
	}
	if cfg.Catalog.Offline {
		p.fetcher = nil
	}
	return p
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline. On error the returned Result holds whatever
// was computed before the failing step.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := p.cfg
	result := &Result{
		RunID:        uuid.NewString(),
		InputFile:    cfg.Input.Path,
		EnrichedFile: cfg.Output.EnrichedPath(),
		ReportFile:   cfg.Output.ReportPath(),
		WorkbookFile: cfg.Output.WorkbookPath(),
		RejectsFile:  cfg.Output.RejectsPath(),
		Revenue:      money.Zero(),
	}
	log := p.log.With(logging.RunID(result.RunID))
	defer func() {
		result.Duration = time.Since(start)
	}()

	if err := cfg.Validate(); err != nil {
		return result, fmt.Errorf("invalid configuration: %w", err)
	}

	// =========================================================================
	// STEP 1: PARSE INPUT
	// =========================================================================

	parseOpts, err := salesparser.OptionsFromConfig(cfg.Input)
	if err != nil {
		return result, fmt.Errorf("invalid input options: %w", err)
	}
	parsed, err := salesparser.ParseFile(cfg.Input.Path, parseOpts)
	if err != nil {
		return result, err
	}
	log.Info("input parsed",
		logging.Stage("parse"),
		logging.Path(cfg.Input.Path),
		logging.Count(len(parsed.Records)),
		"encoding", parsed.Encoding,
		"malformed", parsed.Malformed,
	)

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================

	validated := validation.New(validation.Options{
		StrictReferences: cfg.Input.StrictReferences,
	}).Validate(parsed.Records)

	result.Total = validated.Total
	result.Invalid = validated.Invalid
	result.Valid = len(validated.Valid)
	result.Reasons = validated.Reasons

	log.Info("records validated",
		logging.Stage("validate"),
		"total", result.Total,
		"valid", result.Valid,
		"invalid", result.Invalid,
	)
	for _, reason := range validated.SortedReasons() {
		log.Debug("rejected records", "reason", string(reason), logging.Count(validated.Reasons[reason]))
	}

	if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
		return result, err
	}
	if result.RejectsFile != "" {
		if err := validation.WriteErrorLog(validated.Errors, result.RejectsFile); err != nil {
			return result, err
		}
	}

	// =========================================================================
	// STEP 3: FILTER
	// =========================================================================

	filter, err := analytics.FilterFromConfig(cfg.Filter)
	if err != nil {
		return result, err
	}
	result.Available = analytics.AvailableFilters(validated.Valid)
	records, removed := filter.Apply(validated.Valid)
	result.Filtered = removed
	if !filter.IsZero() {
		log.Info("filter applied", logging.Stage("filter"), "region", filter.Region, "removed", removed, "kept", len(records))
	}

	// =========================================================================
	// STEP 4: ANALYTICS
	// =========================================================================

	summary := analytics.Summarize(records, analytics.Options{
		TopN:          cfg.Analytics.TopN,
		PercentPlaces: int32(cfg.Analytics.PercentPlaces),
	})
	result.Summary = summary
	result.Revenue = summary.TotalRevenue
	log.Info("analytics computed",
		logging.Stage("analytics"),
		"revenue", summary.TotalRevenue.StringFixed(2),
		"days", len(summary.DailyTrend),
	)

	// =========================================================================
	// STEP 5: FETCH CATALOG
	// =========================================================================

	var lookup enrich.Lookup
	switch {
	case p.fetcher == nil:
		result.CatalogStatus = CatalogOffline
		log.Info("catalog skipped", logging.Stage("catalog"), "reason", "offline")
	default:
		log.Debug("fetching catalog", append([]any{logging.Stage("catalog")}, catalogSource(p.fetcher)...)...)
		fetchStart := time.Now()
		entries, err := p.fetcher.Fetch(ctx)
		elapsed := time.Since(fetchStart)
		p.metrics.ObserveCatalogFetch(elapsed, len(entries), err)

		if err != nil {
			if cfg.Catalog.OnError == config.OnErrorAbort {
				log.Error("catalog fetch failed", logging.Stage("catalog"), logging.Err(err))
				p.metrics.ObserveRecords(result.Valid, result.Invalid, result.Filtered)
				p.metrics.ObserveRevenue(result.Revenue)
				p.exportMetrics(log, start)
				return result, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
			}
			log.Warn("catalog fetch failed, using sentinel values",
				logging.Stage("catalog"), logging.Err(err), logging.Duration(elapsed))
			result.CatalogStatus = CatalogUnavailable
			result.CatalogErr = err
			break
		}

		result.ProductsFetched = len(entries)
		result.CatalogStatus = CatalogOK
		lookup = catalog.NewIndex(entries)
		log.Info("catalog fetched", logging.Stage("catalog"), logging.Count(len(entries)), logging.Duration(elapsed))
	}

	// =========================================================================
	// STEP 6: ENRICH
	// =========================================================================

	strategy, err := enrich.ParseStrategy(cfg.Enrichment.Strategy)
	if err != nil {
		return result, err
	}
	result.Enriched = enrich.Enrich(records, lookup, strategy)
	stats := enrich.StatsOf(result.Enriched)
	result.Matched = stats.Matched
	log.Info("records enriched",
		logging.Stage("enrich"),
		logging.Count(stats.Total),
		"matched", stats.Matched,
		"match_rate", fmt.Sprintf("%.1f", stats.MatchRate()),
	)

	// =========================================================================
	// STEP 7: WRITE ENRICHED DATA
	// =========================================================================

	outDelim, err := config.DelimiterRune(cfg.Output.Delimiter)
	if err != nil {
		return result, err
	}
	if err := report.WriteEnrichedFile(result.EnrichedFile, result.Enriched, outDelim); err != nil {
		return result, err
	}
	logWritten(log, "enriched data written", "write", result.EnrichedFile)

	// =========================================================================
	// STEP 8: WRITE REPORTS
	// =========================================================================

	in := report.Input{
		Source:   filepath.Base(cfg.Input.Path),
		Summary:  summary,
		Enriched: result.Enriched,
		Counts: report.Counts{
			Total:           result.Total,
			Invalid:         result.Invalid,
			Valid:           result.Valid,
			Filtered:        result.Filtered,
			ProductsFetched: result.ProductsFetched,
		},
		TopCustomers:  cfg.Analytics.TopCustomers,
		CatalogStatus: result.CatalogStatus,
	}
	if result.ReportFile != "" {
		if err := report.WriteTextFile(result.ReportFile, in); err != nil {
			return result, err
		}
		logWritten(log, "report written", "report", result.ReportFile)
	}
	if result.WorkbookFile != "" {
		if err := report.WriteWorkbook(result.WorkbookFile, in); err != nil {
			return result, err
		}
		logWritten(log, "workbook written", "report", result.WorkbookFile)
	}

	// =========================================================================
	// STEP 9: METRICS
	// =========================================================================

	p.metrics.ObserveRecords(result.Valid, result.Invalid, result.Filtered)
	p.metrics.ObserveRevenue(result.Revenue)
	p.metrics.ObserveEnriched(result.Enriched)
	p.exportMetrics(log, start)

	log.Info("run complete", logging.Duration(time.Since(start)))
	return result, nil
}

// exportMetrics records the run duration and writes the metrics textfile.
// A failed export is logged, never fatal.
func (p *Pipeline) exportMetrics(log *logging.Logger, start time.Time) {
	p.metrics.ObserveRun(time.Since(start))
	if err := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		log.Warn("metrics export failed", logging.Err(err))
	}
}

// catalogSource describes where a fetcher reads from, for logging.
func catalogSource(f Fetcher) []any {
	switch src := f.(type) {
	case *catalog.Client:
		u, err := src.URL()
		if err != nil {
			return []any{logging.Err(err)}
		}
		return []any{logging.URL(u)}
	case FileFetcher:
		return []any{logging.Path(src.Path)}
	default:
		return []any{"source", fmt.Sprintf("%T", f)}
	}
}

func logWritten(log *logging.Logger, msg, stage, path string) {
	attrs := []any{logging.Stage(stage), logging.Path(path)}
	if size, err := utils.GetFileSize(path); err == nil {
		attrs = append(attrs, "bytes", size)
	}
	log.Info(msg, attrs...)
}
