// Package analytics computes the descriptive statistics of a cleaned sales
// data set. Everything here is a pure function of its input: no I/O, no
// shared state, and all money arithmetic is exact.
package analytics

import (
	"sort"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Options tunes the summary.
type Options struct {
	// TopN is the length of the top and low product rankings.
	TopN int

	// PercentPlaces is the number of decimals kept in region percentages.
	PercentPlaces int32
}

// DefaultOptions returns TopN 5 and two-decimal percentages.
func DefaultOptions() Options {
	return Options{TopN: 5, PercentPlaces: 2}
}

// DailySales is the revenue of one calendar day.
type DailySales struct {
	Date            time.Time
	Revenue         money.Decimal
	Transactions    int
	UniqueCustomers int
}

// CustomerSales aggregates one customer.
type CustomerSales struct {
	CustomerID   string
	Revenue      money.Decimal
	Transactions int
	AverageOrder money.Decimal
	Products     []string
}

// ProductSales aggregates one product name.
type ProductSales struct {
	ProductName  string
	Revenue      money.Decimal
	Quantity     int
	Transactions int
}

// RegionSales aggregates one region, with its share of total revenue.
type RegionSales struct {
	Region       string
	Revenue      money.Decimal
	Transactions int
	Percentage   money.Decimal
}

// Summary is the full analytics view of a record set.
type Summary struct {
	TotalRevenue      money.Decimal
	Transactions      int
	AverageOrderValue money.Decimal

	// FirstDate and LastDate are zero when there are no records.
	FirstDate time.Time
	LastDate  time.Time

	// DailyTrend is sorted by date ascending.
	DailyTrend []DailySales

	// PeakDay is the highest-revenue day, earliest on ties. Nil when empty.
	PeakDay *DailySales

	// Customers is sorted by revenue descending, then customer ID.
	Customers []CustomerSales

	// Products is the full ranking by revenue descending, then name.
	Products []ProductSales

	// TopProducts and LowProducts hold at most TopN entries each. LowProducts
	// is ordered by revenue ascending, then name.
	TopProducts []ProductSales
	LowProducts []ProductSales

	// Regions is sorted by revenue descending, then region name.
	Regions []RegionSales
}

// Summarize computes the Summary of records. An empty input yields zero
// totals and empty slices.
func Summarize(records []types.CleanRecord, opts Options) *Summary {
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	if opts.PercentPlaces < 0 {
		opts.PercentPlaces = 0
	}

	s := &Summary{
		TotalRevenue:      money.Zero(),
		AverageOrderValue: money.Zero(),
		DailyTrend:        []DailySales{},
		Customers:         []CustomerSales{},
		Products:          []ProductSales{},
		TopProducts:       []ProductSales{},
		LowProducts:       []ProductSales{},
		Regions:           []RegionSales{},
	}

	for _, r := range records {
		s.TotalRevenue = s.TotalRevenue.Add(r.Amount())
	}
	s.Transactions = len(records)
	if s.Transactions > 0 {
		if avg, err := s.TotalRevenue.Div(money.FromInt(int64(s.Transactions))); err == nil {
			s.AverageOrderValue = avg.Round(2)
		}
	}

	s.DailyTrend = dailyTrend(records)
	if n := len(s.DailyTrend); n > 0 {
		s.FirstDate = s.DailyTrend[0].Date
		s.LastDate = s.DailyTrend[n-1].Date
		s.PeakDay = peakDay(s.DailyTrend)
	}

	s.Customers = customers(records)
	s.Products = products(records)
	s.TopProducts = topProducts(s.Products, opts.TopN)
	s.LowProducts = lowProducts(s.Products, opts.TopN)
	s.Regions = regions(records, s.TotalRevenue, opts.PercentPlaces)

	return s
}

func dailyTrend(records []types.CleanRecord) []DailySales {
	byDay := make(map[string]*DailySales)
	seen := make(map[string]map[string]struct{})

	for _, r := range records {
		key := r.DateString()
		d, ok := byDay[key]
		if !ok {
			d = &DailySales{Date: r.Date, Revenue: money.Zero()}
			byDay[key] = d
			seen[key] = make(map[string]struct{})
		}
		d.Revenue = d.Revenue.Add(r.Amount())
		d.Transactions++
		seen[key][r.CustomerID] = struct{}{}
	}

	out := make([]DailySales, 0, len(byDay))
	for key, d := range byDay {
		d.UniqueCustomers = len(seen[key])
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// peakDay expects trend sorted by date, so the first maximum is the earliest.
func peakDay(trend []DailySales) *DailySales {
	best := 0
	for i := 1; i < len(trend); i++ {
		if trend[i].Revenue.Cmp(trend[best].Revenue) > 0 {
			best = i
		}
	}
	peak := trend[best]
	return &peak
}

func customers(records []types.CleanRecord) []CustomerSales {
	byID := make(map[string]*CustomerSales)
	productSet := make(map[string]map[string]struct{})

	for _, r := range records {
		c, ok := byID[r.CustomerID]
		if !ok {
			c = &CustomerSales{CustomerID: r.CustomerID, Revenue: money.Zero()}
			byID[r.CustomerID] = c
			productSet[r.CustomerID] = make(map[string]struct{})
		}
		c.Revenue = c.Revenue.Add(r.Amount())
		c.Transactions++
		productSet[r.CustomerID][r.ProductName] = struct{}{}
	}

	out := make([]CustomerSales, 0, len(byID))
	for id, c := range byID {
		if avg, err := c.Revenue.Div(money.FromInt(int64(c.Transactions))); err == nil {
			c.AverageOrder = avg.Round(2)
		}
		for name := range productSet[id] {
			c.Products = append(c.Products, name)
		}
		sort.Strings(c.Products)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Revenue.Cmp(out[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

func products(records []types.CleanRecord) []ProductSales {
	byName := make(map[string]*ProductSales)
	for _, r := range records {
		p, ok := byName[r.ProductName]
		if !ok {
			p = &ProductSales{ProductName: r.ProductName, Revenue: money.Zero()}
			byName[r.ProductName] = p
		}
		p.Revenue = p.Revenue.Add(r.Amount())
		p.Quantity += r.Quantity
		p.Transactions++
	}

	out := make([]ProductSales, 0, len(byName))
	for _, p := range byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Revenue.Cmp(out[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

func topProducts(ranked []ProductSales, n int) []ProductSales {
	if n > len(ranked) {
		n = len(ranked)
	}
	return append([]ProductSales{}, ranked[:n]...)
}

// lowProducts re-sorts rather than reversing ranked so that ties still
// break by name ascending.
func lowProducts(ranked []ProductSales, n int) []ProductSales {
	asc := append([]ProductSales{}, ranked...)
	sort.Slice(asc, func(i, j int) bool {
		if cmp := asc[i].Revenue.Cmp(asc[j].Revenue); cmp != 0 {
			return cmp < 0
		}
		return asc[i].ProductName < asc[j].ProductName
	})
	if n > len(asc) {
		n = len(asc)
	}
	return asc[:n]
}

func regions(records []types.CleanRecord, total money.Decimal, places int32) []RegionSales {
	byRegion := make(map[string]*RegionSales)
	for _, r := range records {
		g, ok := byRegion[r.Region]
		if !ok {
			g = &RegionSales{Region: r.Region, Revenue: money.Zero()}
			byRegion[r.Region] = g
		}
		g.Revenue = g.Revenue.Add(r.Amount())
		g.Transactions++
	}

	out := make([]RegionSales, 0, len(byRegion))
	for _, g := range byRegion {
		g.Percentage = Percentage(g.Revenue, total, places)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Revenue.Cmp(out[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// Percentage returns part/total*100 rounded to places, or zero when total is zero.
func Percentage(part, total money.Decimal, places int32) money.Decimal {
	if total.IsZero() {
		return money.Zero().Round(places)
	}
	pct, err := part.MulInt(100).Div(total)
	if err != nil {
		return money.Zero().Round(places)
	}
	return pct.Round(places)
}
