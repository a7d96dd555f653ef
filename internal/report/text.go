package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/enrich"
	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

const ruleWidth = 80

// Counts are the record totals of a run.
type Counts struct {
	Total           int
	Invalid         int
	Valid           int
	Filtered        int
	ProductsFetched int
}

// Input is everything the report renderers need.
type Input struct {
	// Source names the input file in the report header.
	Source string

	Summary  *analytics.Summary
	Enriched []types.EnrichedRecord
	Counts   Counts

	// TopCustomers limits the customer table. Zero lists every customer.
	TopCustomers int

	// CatalogStatus describes the catalog fetch, e.g. "ok" or "offline".
	CatalogStatus string
}

func (in Input) summary() *analytics.Summary {
	if in.Summary == nil {
		return analytics.Summarize(nil, analytics.DefaultOptions())
	}
	return in.Summary
}

// RenderText writes the eight-section plain-text report.
func RenderText(w io.Writer, in Input) error {
	s := in.summary()
	r := &textWriter{w: bufio.NewWriter(w)}

	r.line(strings.Repeat("=", ruleWidth))
	r.line("SALES ANALYTICS REPORT")
	r.line(strings.Repeat("=", ruleWidth))
	if in.Source != "" {
		r.line("Source: " + in.Source)
	}
	if s.Transactions > 0 {
		r.line(fmt.Sprintf("Period: %s to %s", s.FirstDate.Format(types.DateLayout), s.LastDate.Format(types.DateLayout)))
	} else {
		r.line("Period: n/a")
	}

	r.section(1, "TOTALS")
	r.pairs([][2]string{
		{"Total Revenue", FormatMoney(s.TotalRevenue)},
		{"Transactions", strconv.Itoa(s.Transactions)},
		{"Average Order Value", FormatMoney(s.AverageOrderValue)},
		{"Days With Sales", strconv.Itoa(len(s.DailyTrend))},
	})

	r.section(2, "DAILY SALES TREND")
	daily := make([][]string, 0, len(s.DailyTrend))
	for _, d := range s.DailyTrend {
		daily = append(daily, []string{
			d.Date.Format(types.DateLayout),
			FormatMoney(d.Revenue),
			strconv.Itoa(d.Transactions),
			strconv.Itoa(d.UniqueCustomers),
		})
	}
	r.table([]string{"Date", "Revenue", "Transactions", "Customers"}, daily, rightAligned(1, 2, 3))

	r.section(3, "PEAK SALES DAY")
	if s.PeakDay == nil {
		r.line("No sales recorded.")
	} else {
		r.pairs([][2]string{
			{"Date", s.PeakDay.Date.Format(types.DateLayout)},
			{"Revenue", FormatMoney(s.PeakDay.Revenue)},
			{"Transactions", strconv.Itoa(s.PeakDay.Transactions)},
			{"Customers", strconv.Itoa(s.PeakDay.UniqueCustomers)},
		})
	}

	r.section(4, "CUSTOMER ANALYSIS")
	customers := s.Customers
	if in.TopCustomers > 0 && len(customers) > in.TopCustomers {
		customers = customers[:in.TopCustomers]
	}
	r.line(fmt.Sprintf("Customers: %d (showing %d)", len(s.Customers), len(customers)))
	custRows := make([][]string, 0, len(customers))
	for i, c := range customers {
		custRows = append(custRows, []string{
			strconv.Itoa(i + 1),
			c.CustomerID,
			FormatMoney(c.Revenue),
			strconv.Itoa(c.Transactions),
			FormatMoney(c.AverageOrder),
			strings.Join(c.Products, ", "),
		})
	}
	r.table([]string{"#", "Customer", "Revenue", "Orders", "Avg Order", "Products"}, custRows, rightAligned(0, 2, 3, 4))

	r.section(5, "TOP PRODUCTS")
	r.table(productHeader, productRows(s.TopProducts), rightAligned(0, 2, 3, 4))

	r.section(6, "LOW PERFORMING PRODUCTS")
	r.table(productHeader, productRows(s.LowProducts), rightAligned(0, 2, 3, 4))

	r.section(7, "REGION-WISE SALES")
	regionRows := make([][]string, 0, len(s.Regions))
	for _, g := range s.Regions {
		regionRows = append(regionRows, []string{
			g.Region,
			FormatMoney(g.Revenue),
			g.Percentage.String() + "%",
			strconv.Itoa(g.Transactions),
		})
	}
	r.table([]string{"Region", "Revenue", "Share", "Transactions"}, regionRows, rightAligned(1, 2, 3))

	r.section(8, "SUMMARY COUNTS")
	stats := enrich.StatsOf(in.Enriched)
	status := in.CatalogStatus
	if status == "" {
		status = "ok"
	}
	r.pairs([][2]string{
		{"Total Records", strconv.Itoa(in.Counts.Total)},
		{"Invalid Records", strconv.Itoa(in.Counts.Invalid)},
		{"Valid Records", strconv.Itoa(in.Counts.Valid)},
		{"Filtered Out", strconv.Itoa(in.Counts.Filtered)},
		{"Products Fetched", strconv.Itoa(in.Counts.ProductsFetched)},
		{"Enriched Rows", strconv.Itoa(stats.Total)},
		{"Matched Rows", fmt.Sprintf("%d (name %d, id %d)", stats.Matched, stats.ByName, stats.ByID)},
		{"Match Rate", fmt.Sprintf("%.2f%%", stats.MatchRate())},
		{"Catalog Status", status},
	})
	r.line("")
	r.line(strings.Repeat("=", ruleWidth))

	return r.flush()
}

// WriteTextFile renders the report to path atomically.
func WriteTextFile(path string, in Input) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return RenderText(w, in)
	})
}

var productHeader = []string{"#", "Product", "Revenue", "Quantity", "Transactions"}

func productRows(products []analytics.ProductSales) [][]string {
	rows := make([][]string, 0, len(products))
	for i, p := range products {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			p.ProductName,
			FormatMoney(p.Revenue),
			strconv.Itoa(p.Quantity),
			strconv.Itoa(p.Transactions),
		})
	}
	return rows
}

// FormatMoney renders d with two decimals and comma thousands separators.
func FormatMoney(d money.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + sb.String() + "." + frac
}

// =============================================================================
// TEXT LAYOUT
// =============================================================================

type textWriter struct {
	w   *bufio.Writer
	err error
}

func (t *textWriter) line(s string) {
	if t.err != nil {
		return
	}
	_, t.err = t.w.WriteString(s + "\n")
}

func (t *textWriter) section(n int, title string) {
	t.line("")
	t.line(fmt.Sprintf("%d. %s", n, title))
	t.line(strings.Repeat("-", ruleWidth))
}

func (t *textWriter) pairs(kv [][2]string) {
	width := 0
	for _, p := range kv {
		if w := runewidth.StringWidth(p[0]); w > width {
			width = w
		}
	}
	for _, p := range kv {
		t.line(runewidth.FillRight(p[0]+":", width+1) + "  " + p[1])
	}
}

func rightAligned(cols ...int) map[int]bool {
	m := make(map[int]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// table renders a pipe table padded to display width.
func (t *textWriter) table(header []string, rows [][]string, right map[int]bool) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	render := func(cells []string) string {
		var sb strings.Builder
		sb.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" ")
			if right[i] {
				sb.WriteString(runewidth.FillLeft(cell, w))
			} else {
				sb.WriteString(runewidth.FillRight(cell, w))
			}
			sb.WriteString(" |")
		}
		return sb.String()
	}

	t.line(render(header))
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	t.line(render(sep))
	if len(rows) == 0 {
		t.line("(no data)")
		return
	}
	for _, row := range rows {
		t.line(render(row))
	}
}

func (t *textWriter) flush() error {
	if t.err != nil {
		return fmt.Errorf("failed to write report: %w", t.err)
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
