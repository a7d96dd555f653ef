package analytics

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Filter narrows a clean record set by region and line-total range.
// The zero Filter keeps everything.
type Filter struct {
	Region    string
	MinAmount *money.Decimal
	MaxAmount *money.Decimal
}

// FilterFromConfig parses the filter section of the config.
func FilterFromConfig(cfg config.FilterConfig) (Filter, error) {
	lo, hi, err := cfg.Bounds()
	if err != nil {
		return Filter{}, err
	}
	return Filter{
		Region:    strings.TrimSpace(cfg.Region),
		MinAmount: lo,
		MaxAmount: hi,
	}, nil
}

// IsZero reports whether the filter keeps every record.
func (f Filter) IsZero() bool {
	return f.Region == "" && f.MinAmount == nil && f.MaxAmount == nil
}

// Apply returns the records that pass, in input order, and how many were removed.
func (f Filter) Apply(records []types.CleanRecord) ([]types.CleanRecord, int) {
	if f.IsZero() {
		return records, 0
	}

	kept := make([]types.CleanRecord, 0, len(records))
	for _, r := range records {
		if f.Region != "" && !strings.EqualFold(r.Region, f.Region) {
			continue
		}
		amount := r.Amount()
		if f.MinAmount != nil && amount.Cmp(*f.MinAmount) < 0 {
			continue
		}
		if f.MaxAmount != nil && amount.Cmp(*f.MaxAmount) > 0 {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

// FilterOptions describes the values a filter could meaningfully take.
type FilterOptions struct {
	Regions   []string
	MinAmount money.Decimal
	MaxAmount money.Decimal
}

// AvailableFilters lists the distinct regions and the line-total range of records.
func AvailableFilters(records []types.CleanRecord) FilterOptions {
	opts := FilterOptions{Regions: []string{}, MinAmount: money.Zero(), MaxAmount: money.Zero()}

	seen := make(map[string]struct{})
	for i, r := range records {
		if _, ok := seen[r.Region]; !ok {
			seen[r.Region] = struct{}{}
			opts.Regions = append(opts.Regions, r.Region)
		}
		amount := r.Amount()
		if i == 0 || amount.Cmp(opts.MinAmount) < 0 {
			opts.MinAmount = amount
		}
		if i == 0 || amount.Cmp(opts.MaxAmount) > 0 {
			opts.MaxAmount = amount
		}
	}
	sort.Strings(opts.Regions)
	return opts
}
