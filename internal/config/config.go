// =============================================================================
// Sales Analytics - Configuration Module
// =============================================================================
//
// This module loads the run configuration. Values come from three layers,
// later layers winning:
//   1. Built-in defaults (setDefaults)
//   2. The YAML config file (config.yaml by default, optional)
//   3. Environment variables prefixed SALES_ (e.g. SALES_CATALOG_URL)
//
// The loaded Config is passed explicitly to every stage. There is no
// package-level config state.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SALES"

// Catalog failure policies.
const (
	OnErrorSentinel = "sentinel"
	OnErrorAbort    = "abort"
)

// Enrichment join strategies.
const (
	StrategyName       = "name"
	StrategyID         = "id"
	StrategyNameThenID = "name_then_id"
)

var (
	ErrMissingInput       = errors.New("input path is required")
	ErrInvalidDelimiter   = errors.New("delimiter must be a single character")
	ErrInvalidEncoding    = errors.New("unsupported input encoding")
	ErrInvalidCatalogURL  = errors.New("catalog url must be an absolute http(s) url")
	ErrInvalidCatalogSize = errors.New("catalog limit must be positive")
	ErrInvalidTimeout     = errors.New("catalog timeout must be positive")
	ErrInvalidOnError     = errors.New("catalog on_error must be sentinel or abort")
	ErrInvalidStrategy    = errors.New("unknown enrichment strategy")
	ErrInvalidTopN        = errors.New("analytics top_n must be positive")
	ErrInvalidPlaces      = errors.New("analytics percent_places must be between 0 and 6")
	ErrInvalidAmountRange = errors.New("invalid amount filter")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds everything a single pipeline run needs.
type Config struct {
	Input      InputConfig      `mapstructure:"input" yaml:"input"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Catalog    CatalogConfig    `mapstructure:"catalog" yaml:"catalog"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment" yaml:"enrichment"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics" yaml:"analytics"`
	Filter     FilterConfig     `mapstructure:"filter" yaml:"filter"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`

	// source is the config file that was read, empty when none was found.
	source string
}

// InputConfig describes the sales file and how to read it.
type InputConfig struct {
	// Path is the pipe-delimited sales file.
	Path string `mapstructure:"path" yaml:"path"`

	// Delimiter separates fields. Default: "|"
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// Encoding is auto, utf-8, latin-1 or cp1252. auto keeps valid UTF-8 and
	// falls back to latin-1 otherwise.
	Encoding string `mapstructure:"encoding" yaml:"encoding"`

	// HasHeader drops the first non-blank line.
	HasHeader bool `mapstructure:"has_header" yaml:"has_header"`

	// StrictReferences additionally requires P/C prefixes on product and
	// customer IDs and a non-empty region.
	StrictReferences bool `mapstructure:"strict_references" yaml:"strict_references"`
}

// OutputConfig names the files a run writes. Relative names resolve
// against Dir. An empty WorkbookFile or RejectsFile disables that output.
type OutputConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	EnrichedFile string `mapstructure:"enriched_file" yaml:"enriched_file"`
	ReportFile   string `mapstructure:"report_file" yaml:"report_file"`
	WorkbookFile string `mapstructure:"workbook_file" yaml:"workbook_file"`
	RejectsFile  string `mapstructure:"rejects_file" yaml:"rejects_file"`
	Delimiter    string `mapstructure:"delimiter" yaml:"delimiter"`
}

// CatalogConfig controls the single catalog fetch.
type CatalogConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	Limit     int           `mapstructure:"limit" yaml:"limit"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`

	// OnError is sentinel (enrich every row with placeholders) or abort.
	OnError string `mapstructure:"on_error" yaml:"on_error"`

	// File, when set, replaces the HTTP fetch with a local catalog JSON file.
	File string `mapstructure:"file" yaml:"file"`

	// Offline skips the catalog entirely; every row gets sentinels.
	Offline bool `mapstructure:"offline" yaml:"offline"`
}

type EnrichmentConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
}

type AnalyticsConfig struct {
	TopN          int `mapstructure:"top_n" yaml:"top_n"`
	TopCustomers  int `mapstructure:"top_customers" yaml:"top_customers"`
	PercentPlaces int `mapstructure:"percent_places" yaml:"percent_places"`
}

// FilterConfig narrows the valid records before analytics and enrichment.
// Amounts are decimal strings compared against the line total.
type FilterConfig struct {
	Region    string `mapstructure:"region" yaml:"region"`
	MinAmount string `mapstructure:"min_amount" yaml:"min_amount"`
	MaxAmount string `mapstructure:"max_amount" yaml:"max_amount"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig enables a Prometheus textfile dump at the end of a run.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from path (optional) and SALES_* environment
// variables on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source := ""
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			source = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.source = source

	return &cfg, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode; a failure here is a programming error.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &cfg
}

// setDefaults sets every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "data/sales_data.txt")
	v.SetDefault("input.delimiter", "|")
	v.SetDefault("input.encoding", "auto")
	v.SetDefault("input.has_header", true)
	v.SetDefault("input.strict_references", false)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.enriched_file", "enriched_sales_data.txt")
	v.SetDefault("output.report_file", "sales_report.txt")
	v.SetDefault("output.workbook_file", "")
	v.SetDefault("output.rejects_file", "rejected_records.log")
	v.SetDefault("output.delimiter", "|")

	v.SetDefault("catalog.url", "https://dummyjson.com/products")
	v.SetDefault("catalog.limit", 100)
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.user_agent", "sales-analytics/1.0")
	v.SetDefault("catalog.on_error", OnErrorSentinel)
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.offline", false)

	v.SetDefault("enrichment.strategy", StrategyNameThenID)

	v.SetDefault("analytics.top_n", 5)
	v.SetDefault("analytics.top_customers", 10)
	v.SetDefault("analytics.percent_places", 2)

	v.SetDefault("filter.region", "")
	v.SetDefault("filter.min_amount", "")
	v.SetDefault("filter.max_amount", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.textfile", "")
}

// Source returns the config file that was read, or "" if defaults were used.
func (c *Config) Source() string {
	return c.source
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return ErrMissingInput
	}
	if _, err := DelimiterRune(c.Input.Delimiter); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if _, err := DelimiterRune(c.Output.Delimiter); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	switch strings.ToLower(c.Input.Encoding) {
	case "auto", "utf-8", "utf8", "latin-1", "latin1", "iso-8859-1", "cp1252", "windows-1252":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, c.Input.Encoding)
	}

	if !c.Catalog.Offline && c.Catalog.File == "" {
		u, err := url.Parse(c.Catalog.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidCatalogURL, c.Catalog.URL)
		}
	}
	if c.Catalog.Limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCatalogSize, c.Catalog.Limit)
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Catalog.Timeout)
	}
	if c.Catalog.OnError != OnErrorSentinel && c.Catalog.OnError != OnErrorAbort {
		return fmt.Errorf("%w: %q", ErrInvalidOnError, c.Catalog.OnError)
	}

	switch NormalizeStrategy(c.Enrichment.Strategy) {
	case StrategyName, StrategyID, StrategyNameThenID:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Enrichment.Strategy)
	}

	if c.Analytics.TopN <= 0 || c.Analytics.TopCustomers <= 0 {
		return ErrInvalidTopN
	}
	if c.Analytics.PercentPlaces < 0 || c.Analytics.PercentPlaces > 6 {
		return fmt.Errorf("%w: %d", ErrInvalidPlaces, c.Analytics.PercentPlaces)
	}

	if _, _, err := c.Filter.Bounds(); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}

// NormalizeStrategy lowercases and trims an enrichment strategy name.
// An empty name means StrategyNameThenID.
func NormalizeStrategy(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StrategyNameThenID
	}
	return s
}

// DelimiterRune converts a configured delimiter to the rune the readers use.
// "pipe" and "tab" are accepted as names.
func DelimiterRune(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "pipe":
		return '|', nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '\n' || r == '\r' || r == '"' || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r, nil
}

// Bounds parses the amount filters. A nil bound means unbounded.
func (f FilterConfig) Bounds() (lo, hi *money.Decimal, err error) {
	parse := func(name, s string) (*money.Decimal, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		d, err := money.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAmountRange, name, err)
		}
		return &d, nil
	}

	if lo, err = parse("min_amount", f.MinAmount); err != nil {
		return nil, nil, err
	}
	if hi, err = parse("max_amount", f.MaxAmount); err != nil {
		return nil, nil, err
	}
	if lo != nil && hi != nil && lo.Cmp(*hi) > 0 {
		return nil, nil, fmt.Errorf("%w: min_amount %s > max_amount %s", ErrInvalidAmountRange, lo, hi)
	}
	return lo, hi, nil
}

// =============================================================================
// OUTPUT PATHS
// =============================================================================

// Resolve returns name joined to Dir, or name itself when it is absolute.
// An empty name stays empty.
func (o OutputConfig) Resolve(name string) string {
	return utils.OutputPath(o.Dir, name)
}

func (o OutputConfig) EnrichedPath() string { return o.Resolve(o.EnrichedFile) }
func (o OutputConfig) ReportPath() string   { return o.Resolve(o.ReportFile) }
func (o OutputConfig) WorkbookPath() string { return o.Resolve(o.WorkbookFile) }
func (o OutputConfig) RejectsPath() string  { return o.Resolve(o.RejectsFile) }

// =============================================================================
// DUMPING
// =============================================================================

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
