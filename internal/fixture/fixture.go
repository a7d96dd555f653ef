// Package fixture generates synthetic sales files and product catalogs for
// demos and load tests. Output is fully determined by the seed.
package fixture

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Invalid row kinds, named after the validation predicate they trip.
const (
	KindMalformed     = "malformed"
	KindTransactionID = "transaction_id"
	KindQuantity      = "quantity"
	KindUnitPrice     = "unit_price"
)

var invalidKinds = []string{KindMalformed, KindTransactionID, KindQuantity, KindUnitPrice}

// product is a sellable item with a plausible unit price range.
type product struct {
	id       string
	name     string
	minPrice float64
	maxPrice float64
}

// products mirrors the names used in real exports, including the comma
// artifact on the wireless mouse.
var products = []product{
	{"P101", "Laptop", 35000, 60000},
	{"P102", "Mouse,Wireless", 300, 900},
	{"P103", "Keyboard", 800, 2500},
	{"P104", "External Hard Drive", 3500, 7000},
	{"P105", "Monitor", 9000, 25000},
	{"P106", "Webcam", 1200, 3000},
	{"P107", "Headphones", 1000, 3500},
	{"P108", "USB Cable", 99, 299},
	{"P109", "Printer", 6000, 12000},
	{"P110", "Smartphone", 15000, 45000},
	{"P111", "Workstation", 40000, 90000},
}

var regions = []string{"North", "South", "East", "West"}

// Options controls Generate.
type Options struct {
	// Rows is the number of data lines, excluding the header.
	Rows int

	// Seed makes output reproducible. Zero picks a random seed.
	Seed int64

	// InvalidRatio is the share of rows (0..1) that must fail validation.
	InvalidRatio float64

	// StartDate and Days bound the transaction dates.
	StartDate time.Time
	Days      int

	// Customers is the size of the customer pool.
	Customers int
}

// DefaultOptions returns 80 rows over December 2024 with 1 in 8 invalid.
func DefaultOptions() Options {
	return Options{
		Rows:         80,
		Seed:         42,
		InvalidRatio: 0.125,
		StartDate:    time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		Days:         30,
		Customers:    20,
	}
}

// Stats describes a generated file.
type Stats struct {
	Rows    int
	Valid   int
	Invalid int
	Kinds   map[string]int
}

// Generate writes a pipe-delimited sales file with a header line to w.
func Generate(w io.Writer, opts Options) (Stats, error) {
	opts = withDefaults(opts)
	f := gofakeit.New(opts.Seed)
	stats := Stats{Rows: opts.Rows, Kinds: make(map[string]int)}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, strings.Join(types.InputColumns, "|")); err != nil {
		return stats, fmt.Errorf("failed to write header: %w", err)
	}

	for i := 1; i <= opts.Rows; i++ {
		fields := validRow(f, i, opts)

		if f.Float64Range(0, 1) < opts.InvalidRatio {
			kind := invalidKinds[f.Number(0, len(invalidKinds)-1)]
			fields = corrupt(f, fields, kind)
			stats.Invalid++
			stats.Kinds[kind]++
		} else {
			stats.Valid++
		}

		if _, err := fmt.Fprintln(bw, strings.Join(fields, "|")); err != nil {
			return stats, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush fixture: %w", err)
	}
	return stats, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Rows < 0 {
		opts.Rows = 0
	}
	if opts.StartDate.IsZero() {
		opts.StartDate = def.StartDate
	}
	if opts.Days <= 0 {
		opts.Days = def.Days
	}
	if opts.Customers <= 0 {
		opts.Customers = def.Customers
	}
	opts.InvalidRatio = math.Max(0, math.Min(1, opts.InvalidRatio))
	return opts
}

func validRow(f *gofakeit.Faker, n int, opts Options) []string {
	p := products[f.Number(0, len(products)-1)]
	date := opts.StartDate.AddDate(0, 0, f.Number(0, opts.Days-1))

	price := f.Float64Range(p.minPrice, p.maxPrice)
	price = math.Round(price*100) / 100
	if price <= 0 {
		price = p.minPrice
	}

	return []string{
		fmt.Sprintf("T%03d", n),
		date.Format(types.DateLayout),
		p.id,
		p.name,
		strconv.Itoa(f.Number(1, 10)),
		formatPrice(f, price),
		fmt.Sprintf("C%03d", f.Number(1, opts.Customers)),
		regions[f.Number(0, len(regions)-1)],
	}
}

// formatPrice renders some prices with thousands separators, the way
// spreadsheet exports do.
func formatPrice(f *gofakeit.Faker, price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if price < 1000 || !f.Bool() {
		return s
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	if hasFrac {
		sb.WriteString("." + frac)
	}
	return sb.String()
}

func corrupt(f *gofakeit.Faker, fields []string, kind string) []string {
	out := append([]string{}, fields...)
	switch kind {
	case KindMalformed:
		drop := f.Number(1, len(out)-1)
		out = append(out[:drop], out[drop+1:]...)
	case KindTransactionID:
		out[types.ColTransactionID] = "X" + strings.TrimPrefix(out[types.ColTransactionID], "T")
	case KindQuantity:
		out[types.ColQuantity] = strconv.Itoa(-f.Number(0, 3))
	case KindUnitPrice:
		out[types.ColUnitPrice] = "-" + strings.ReplaceAll(out[types.ColUnitPrice], ",", "")
	}
	return out
}

// CatalogOptions controls Catalog.
type CatalogOptions struct {
	Size int
	Seed int64
}

// Catalog builds a synthetic product catalog with IDs 1..Size. The first
// entries carry the product names Generate uses, so enrichment finds matches.
func Catalog(opts CatalogOptions) []types.CatalogEntry {
	if opts.Size <= 0 {
		opts.Size = 100
	}
	f := gofakeit.New(opts.Seed)

	entries := make([]types.CatalogEntry, 0, opts.Size)
	seen := make(map[string]bool, opts.Size)

	add := func(title string) {
		title = uniqueTitle(title, seen)
		e := types.CatalogEntry{
			ID:       len(entries) + 1,
			Title:    title,
			Category: f.ProductCategory(),
		}
		if f.Number(1, 10) > 1 {
			e.Brand = f.Company()
		}
		if f.Number(1, 20) > 1 {
			e.Rating = math.Round(f.Float64Range(1, 5)*100) / 100
			e.HasRating = true
		}
		entries = append(entries, e)
	}

	for _, p := range products {
		if len(entries) == opts.Size {
			break
		}
		// Names with the comma artifact never match, like the real catalog.
		if strings.Contains(p.name, ",") {
			continue
		}
		add(p.name)
	}
	for len(entries) < opts.Size {
		add(f.ProductName())
	}
	return entries
}

func uniqueTitle(title string, seen map[string]bool) string {
	candidate := title
	for n := 2; seen[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s %d", title, n)
	}
	seen[strings.ToLower(candidate)] = true
	return candidate
}
