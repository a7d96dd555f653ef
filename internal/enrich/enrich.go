// Package enrich joins clean sales records with catalog metadata.
//
// Enrich is a pure function: the same records and the same lookup always
// produce the same rows, one per input record, in input order. Records that
// find no catalog entry carry the Unknown/N/A sentinels.
package enrich

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Lookup resolves catalog entries. catalog.Index implements it.
type Lookup interface {
	ByName(name string) (types.CatalogEntry, bool)
	ByID(id int) (types.CatalogEntry, bool)
}

// Strategy selects which keys the join tries.
type Strategy string

const (
	ByName       Strategy = "name"
	ByID         Strategy = "id"
	ByNameThenID Strategy = "name_then_id"
)

// ParseStrategy maps a config value to a Strategy. Empty means ByNameThenID.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(config.NormalizeStrategy(s)) {
	case ByNameThenID:
		return ByNameThenID, nil
	case ByName:
		return ByName, nil
	case ByID:
		return ByID, nil
	default:
		return "", fmt.Errorf("unknown enrichment strategy %q", s)
	}
}

// Enrich returns one EnrichedRecord per record. A nil lookup enriches every
// record with sentinels.
func Enrich(records []types.CleanRecord, lookup Lookup, strategy Strategy) []types.EnrichedRecord {
	out := make([]types.EnrichedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, enrichOne(r, lookup, strategy))
	}
	return out
}

// Sentinel returns r enriched with the no-match placeholders.
func Sentinel(r types.CleanRecord) types.EnrichedRecord {
	return types.EnrichedRecord{
		CleanRecord: r,
		Category:    types.UnknownCategory,
		Brand:       types.UnknownBrand,
		Rating:      types.NoRating,
		Match:       types.MatchNone,
	}
}

func enrichOne(r types.CleanRecord, lookup Lookup, strategy Strategy) types.EnrichedRecord {
	if lookup == nil {
		return Sentinel(r)
	}

	if strategy != ByID {
		if e, ok := lookup.ByName(r.ProductName); ok {
			return apply(r, e, types.MatchName)
		}
	}
	if strategy != ByName {
		if id, ok := catalog.ProductNumber(r.ProductID); ok {
			if e, ok := lookup.ByID(id); ok {
				return apply(r, e, types.MatchID)
			}
		}
	}
	return Sentinel(r)
}

func apply(r types.CleanRecord, e types.CatalogEntry, kind types.MatchKind) types.EnrichedRecord {
	out := Sentinel(r)
	out.Match = kind
	if c := catalogText(e.Category); c != "" {
		out.Category = c
	}
	if b := catalogText(e.Brand); b != "" {
		out.Brand = b
	}
	if e.HasRating {
		out.Rating = fmt.Sprintf("%.2f", e.Rating)
	}
	return out
}

// catalogText collapses every run of whitespace, line breaks included, into
// one space. Catalog strings are third-party data and must stay on one line.
func catalogText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Stats counts how the rows of an enrichment were matched.
type Stats struct {
	Total     int
	Matched   int
	ByName    int
	ByID      int
	Unmatched int
}

// StatsOf tallies enriched rows.
func StatsOf(rows []types.EnrichedRecord) Stats {
	s := Stats{Total: len(rows)}
	for _, r := range rows {
		switch r.Match {
		case types.MatchName:
			s.ByName++
		case types.MatchID:
			s.ByID++
		default:
			s.Unmatched++
		}
	}
	s.Matched = s.ByName + s.ByID
	return s
}

// MatchRate returns Matched/Total as a percentage, 0 when there are no rows.
func (s Stats) MatchRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Matched) * 100 / float64(s.Total)
}
