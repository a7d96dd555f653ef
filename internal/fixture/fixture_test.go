package fixture

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-analytics/internal/salesparser"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
)

func generate(t *testing.T, opts Options) (string, Stats) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := Generate(&buf, opts)
	require.NoError(t, err)
	return buf.String(), stats
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, _ := generate(t, DefaultOptions())
	b, _ := generate(t, DefaultOptions())
	assert.Equal(t, a, b)

	other := DefaultOptions()
	other.Seed = 7
	c, _ := generate(t, other)
	assert.NotEqual(t, a, c)
}

func TestGenerateValidatesAsReported(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 500
	opts.InvalidRatio = 0.2

	out, stats := generate(t, opts)
	assert.Equal(t, 500, stats.Rows)
	assert.Equal(t, stats.Rows, stats.Valid+stats.Invalid)
	assert.Positive(t, stats.Invalid)

	parsed, err := salesparser.Parse(strings.NewReader(out), salesparser.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, parsed.Records, 500)

	res := validation.New(validation.Options{StrictReferences: true}).Validate(parsed.Records)
	assert.Equal(t, stats.Valid, len(res.Valid))
	assert.Equal(t, stats.Invalid, res.Invalid)
	for kind, n := range stats.Kinds {
		assert.Equal(t, n, res.Reasons[validation.Reason(kind)], kind)
	}
	assert.Equal(t, stats.Kinds[KindMalformed], parsed.Malformed)
}

func TestGenerateAllValid(t *testing.T) {
	opts := DefaultOptions()
	opts.InvalidRatio = 0

	out, stats := generate(t, opts)
	assert.Zero(t, stats.Invalid)
	assert.True(t, strings.HasPrefix(out, "TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region\n"))
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 81)
}

func TestGenerateEmpty(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 0

	out, stats := generate(t, opts)
	assert.Zero(t, stats.Valid)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestCatalog(t *testing.T) {
	entries := Catalog(CatalogOptions{Size: 100, Seed: 1})
	require.Len(t, entries, 100)

	titles := make(map[string]bool)
	for i, e := range entries {
		assert.Equal(t, i+1, e.ID)
		assert.NotEmpty(t, e.Title)
		assert.False(t, titles[strings.ToLower(e.Title)], "duplicate title %q", e.Title)
		titles[strings.ToLower(e.Title)] = true
		if e.HasRating {
			assert.GreaterOrEqual(t, e.Rating, 1.0)
			assert.LessOrEqual(t, e.Rating, 5.0)
		}
	}
	assert.Equal(t, "Laptop", entries[0].Title)
	assert.False(t, titles["mouse,wireless"])

	assert.Equal(t, entries, Catalog(CatalogOptions{Size: 100, Seed: 1}))
	assert.Len(t, Catalog(CatalogOptions{Size: 3, Seed: 1}), 3)
}
