package report

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/enrich"
	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/salesparser"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
)

var sectionTitles = []string{
	"1. TOTALS",
	"2. DAILY SALES TREND",
	"3. PEAK SALES DAY",
	"4. CUSTOMER ANALYSIS",
	"5. TOP PRODUCTS",
	"6. LOW PERFORMING PRODUCTS",
	"7. REGION-WISE SALES",
	"8. SUMMARY COUNTS",
}

func fixtureInput(t *testing.T) Input {
	t.Helper()
	parsed, err := salesparser.ParseFile(filepath.Join("..", "pipeline", "testdata", "sales_data.txt"), salesparser.DefaultOptions())
	require.NoError(t, err)
	res := validation.New(validation.Options{}).Validate(parsed.Records)

	entries, err := catalog.LoadEntries(filepath.Join("..", "catalog", "testdata", "products.json"))
	require.NoError(t, err)

	return Input{
		Source:   "sales_data.txt",
		Summary:  analytics.Summarize(res.Valid, analytics.DefaultOptions()),
		Enriched: enrich.Enrich(res.Valid, catalog.NewIndex(entries), enrich.ByNameThenID),
		Counts: Counts{
			Total:           res.Total,
			Invalid:         res.Invalid,
			Valid:           len(res.Valid),
			ProductsFetched: len(entries),
		},
		TopCustomers:  10,
		CatalogStatus: "ok",
	}
}

func render(t *testing.T, in Input) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, in))
	return buf.String()
}

func TestWriteEnriched(t *testing.T) {
	in := fixtureInput(t)

	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, in.Enriched, '|'))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 71)
	assert.Equal(t, "TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region|Category|Brand|Rating|Total", lines[0])
	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, "|"), 12, line)
	}
	assert.Equal(t, "T001|2024-12-14|P104|External Hard Drive|4|5200|C020|North|Unknown|Unknown|N/A|20800.00", lines[1])
}

func TestWriteEnrichedKeepsColumnCount(t *testing.T) {
	rec := types.CleanRecord{
		TransactionID: "T100",
		Date:          time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		ProductID:     "P101",
		ProductName:   "Laptop",
		Quantity:      1,
		UnitPrice:     money.MustParse("100"),
		CustomerID:    "C001",
		Region:        "North,East",
	}
	idx := catalog.NewIndex([]types.CatalogEntry{
		{ID: 1, Title: "Laptop", Category: "laptops|gaming", Brand: "Acme\r\nCorp"},
	})
	rows := enrich.Enrich([]types.CleanRecord{rec}, idx, enrich.ByName)

	t.Run("pipe delimiter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEnriched(&buf, rows, '|'))

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Len(t, strings.Split(lines[1], "|"), 12)
		assert.Equal(t, "T100|2024-12-01|P101|Laptop|1|100|C001|North,East|laptops gaming|Acme Corp|N/A|100.00", lines[1])
	})

	t.Run("comma delimiter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEnriched(&buf, rows, ','))

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Len(t, strings.Split(lines[1], ","), 12)
		assert.Contains(t, lines[1], ",North East,laptops|gaming,")
	})
}

func TestWriteEnrichedEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enriched.txt")
	require.NoError(t, WriteEnrichedFile(path, nil, '|'))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region|Category|Brand|Rating|Total\n", string(data))
}

func TestRenderTextSections(t *testing.T) {
	out := render(t, fixtureInput(t))

	last := -1
	for _, title := range sectionTitles {
		idx := strings.Index(out, title)
		require.GreaterOrEqual(t, idx, 0, title)
		assert.Greater(t, idx, last, "%s is out of order", title)
		last = idx
	}

	assert.Contains(t, out, "Period: 2024-12-01 to 2024-12-30")
	assert.Contains(t, out, "3,527,808.00")
	assert.Contains(t, out, "50,397.26")
	assert.Contains(t, out, "2024-12-18")
	assert.Contains(t, out, "389,785.77")
	assert.Contains(t, out, "Customers: 20 (showing 10)")
	assert.Contains(t, out, "63.32%")
	assert.Contains(t, out, "8.22%")
	assert.Contains(t, out, "Products Fetched:  100")
	assert.Contains(t, out, "Matched Rows:      40 (name 40, id 0)")
	assert.Contains(t, out, "Match Rate:        57.14%")

	top := out[strings.Index(out, "5. TOP PRODUCTS"):strings.Index(out, "6. LOW PERFORMING PRODUCTS")]
	assert.Less(t, strings.Index(top, "Laptop"), strings.Index(top, "Smartphone"))
	assert.NotContains(t, top, "USB Cable")
}

func TestRenderTextIsIdempotent(t *testing.T) {
	in := fixtureInput(t)
	assert.Equal(t, render(t, in), render(t, in))

	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")
	require.NoError(t, WriteTextFile(a, in))
	require.NoError(t, WriteTextFile(b, in))
	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestRenderTextEmpty(t *testing.T) {
	out := render(t, Input{})

	for _, title := range sectionTitles {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "Total Revenue:        0.00")
	assert.Contains(t, out, "Period: n/a")
	assert.Contains(t, out, "No sales recorded.")
	assert.Contains(t, out, "Match Rate:        0.00%")
	assert.Contains(t, out, "(no data)")
}

func TestTableAlignment(t *testing.T) {
	var buf bytes.Buffer
	w := &textWriter{w: bufio.NewWriter(&buf)}
	w.table([]string{"Name", "Amount"}, [][]string{{"Café", "1.00"}, {"Laptop", "1,000.00"}}, rightAligned(1))
	require.NoError(t, w.flush())

	assert.Equal(t, strings.Join([]string{
		"| Name   |   Amount |",
		"| ------ | -------- |",
		"| Café   |     1.00 |",
		"| Laptop | 1,000.00 |",
	}, "\n")+"\n", buf.String())
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":          "0.00",
		"12.5":       "12.50",
		"999.999":    "1,000.00",
		"1000":       "1,000.00",
		"3527808.00": "3,527,808.00",
		"-1234567.8": "-1,234,567.80",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMoney(money.MustParse(in)), in)
	}
}

func TestWriteWorkbook(t *testing.T) {
	in := fixtureInput(t)
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, WriteWorkbook(path, in))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDaily, SheetCustomers, SheetProducts, SheetRegions, SheetEnriched}, f.GetSheetList())

	rows, err := f.GetRows(SheetEnriched)
	require.NoError(t, err)
	require.Len(t, rows, 71)
	assert.Len(t, rows[0], 12)
	assert.Equal(t, "T001", rows[1][0])

	daily, err := f.GetRows(SheetDaily)
	require.NoError(t, err)
	assert.Len(t, daily, 30)

	regions, err := f.GetRows(SheetRegions)
	require.NoError(t, err)
	require.Len(t, regions, 5)
	assert.Equal(t, "North", regions[1][0])
}
