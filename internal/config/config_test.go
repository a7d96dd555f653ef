package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "", cfg.Source())
		assert.Equal(t, "data/sales_data.txt", cfg.Input.Path)
		assert.Equal(t, "|", cfg.Input.Delimiter)
		assert.True(t, cfg.Input.HasHeader)
		assert.Equal(t, 100, cfg.Catalog.Limit)
		assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
		assert.Equal(t, OnErrorSentinel, cfg.Catalog.OnError)
		assert.Equal(t, StrategyNameThenID, cfg.Enrichment.Strategy)
		assert.Equal(t, 5, cfg.Analytics.TopN)
		require.NoError(t, cfg.Validate())
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
input:
  path: fixtures/sales.txt
  strict_references: true
catalog:
  url: http://localhost:8089/products
  timeout: 3s
  on_error: abort
analytics:
  top_n: 3
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.Source())
		assert.Equal(t, "fixtures/sales.txt", cfg.Input.Path)
		assert.True(t, cfg.Input.StrictReferences)
		assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
		assert.Equal(t, OnErrorAbort, cfg.Catalog.OnError)
		assert.Equal(t, 3, cfg.Analytics.TopN)
		// untouched keys keep their defaults
		assert.Equal(t, "output", cfg.Output.Dir)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "catalog:\n  limit: 50\n")
		t.Setenv("SALES_CATALOG_LIMIT", "25")
		t.Setenv("SALES_LOGGING_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Catalog.Limit)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := writeConfig(t, "input: [unterminated\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty input", func(c *Config) { c.Input.Path = " " }, ErrMissingInput},
		{"long delimiter", func(c *Config) { c.Input.Delimiter = "||" }, ErrInvalidDelimiter},
		{"quote delimiter", func(c *Config) { c.Output.Delimiter = `"` }, ErrInvalidDelimiter},
		{"encoding", func(c *Config) { c.Input.Encoding = "ebcdic" }, ErrInvalidEncoding},
		{"relative url", func(c *Config) { c.Catalog.URL = "/products" }, ErrInvalidCatalogURL},
		{"ftp url", func(c *Config) { c.Catalog.URL = "ftp://example.com/products" }, ErrInvalidCatalogURL},
		{"limit", func(c *Config) { c.Catalog.Limit = 0 }, ErrInvalidCatalogSize},
		{"timeout", func(c *Config) { c.Catalog.Timeout = 0 }, ErrInvalidTimeout},
		{"on_error", func(c *Config) { c.Catalog.OnError = "retry" }, ErrInvalidOnError},
		{"strategy", func(c *Config) { c.Enrichment.Strategy = "fuzzy" }, ErrInvalidStrategy},
		{"top_n", func(c *Config) { c.Analytics.TopN = 0 }, ErrInvalidTopN},
		{"places", func(c *Config) { c.Analytics.PercentPlaces = -1 }, ErrInvalidPlaces},
		{"min amount", func(c *Config) { c.Filter.MinAmount = "lots" }, ErrInvalidAmountRange},
		{"inverted range", func(c *Config) { c.Filter.MinAmount = "500"; c.Filter.MaxAmount = "100" }, ErrInvalidAmountRange},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	t.Run("offline run does not need a catalog url", func(t *testing.T) {
		cfg := Default()
		cfg.Catalog.URL = ""
		cfg.Catalog.Offline = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("strategy is case-insensitive", func(t *testing.T) {
		for _, name := range []string{"Name_Then_ID", " NAME ", "Id", ""} {
			cfg := Default()
			cfg.Enrichment.Strategy = name
			assert.NoError(t, cfg.Validate(), name)
		}
	})
}

func TestNormalizeStrategy(t *testing.T) {
	assert.Equal(t, StrategyNameThenID, NormalizeStrategy(""))
	assert.Equal(t, StrategyName, NormalizeStrategy(" Name "))
	assert.Equal(t, "fuzzy", NormalizeStrategy("FUZZY"))
}

func TestDelimiterRune(t *testing.T) {
	for in, want := range map[string]rune{"|": '|', "pipe": '|', "tab": '\t', ";": ';', "comma": ','} {
		got, err := DelimiterRune(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestFilterBounds(t *testing.T) {
	lo, hi, err := FilterConfig{MinAmount: "1000", MaxAmount: "50000.50"}.Bounds()
	require.NoError(t, err)
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, "1000", lo.String())
	assert.Equal(t, "50000.50", hi.String())

	lo, hi, err = FilterConfig{}.Bounds()
	require.NoError(t, err)
	assert.Nil(t, lo)
	assert.Nil(t, hi)
}

func TestOutputPaths(t *testing.T) {
	out := OutputConfig{Dir: "out", EnrichedFile: "enriched.txt", ReportFile: "/tmp/report.txt"}
	assert.Equal(t, filepath.Join("out", "enriched.txt"), out.EnrichedPath())
	assert.Equal(t, "/tmp/report.txt", out.ReportPath())
	assert.Equal(t, "", out.WorkbookPath())
}

func TestYAML(t *testing.T) {
	data, err := Default().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "on_error: sentinel")
	assert.Contains(t, string(data), "strategy: name_then_id")
	assert.Contains(t, string(data), "timeout: 10s")
}
