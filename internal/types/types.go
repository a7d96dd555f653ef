// =============================================================================
// Sales Analytics - Shared Types
// =============================================================================
//
// This package contains the record types that flow between the pipeline
// stages. Keeping them here avoids import cycles between:
//   - salesparser (produces RawRecord)
//   - validation  (RawRecord -> CleanRecord)
//   - analytics   (consumes CleanRecord)
//   - enrich      (CleanRecord + CatalogEntry -> EnrichedRecord)
//   - report      (consumes everything)
//
// =============================================================================

package types

import (
	"strconv"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/money"
)

// =============================================================================
// COLUMN LAYOUT
// =============================================================================

// Input column positions. The order is fixed by the source export.
const (
	ColTransactionID = iota
	ColDate
	ColProductID
	ColProductName
	ColQuantity
	ColUnitPrice
	ColCustomerID
	ColRegion

	// InputArity is the number of fields every well-formed line carries.
	InputArity
)

// DateLayout is the calendar date format used in input and output files.
const DateLayout = "2006-01-02"

// InputColumns names the input fields in file order.
var InputColumns = []string{
	"TransactionID",
	"Date",
	"ProductID",
	"ProductName",
	"Quantity",
	"UnitPrice",
	"CustomerID",
	"Region",
}

// OutputColumns names the enriched output fields: the input fields followed
// by the catalog fields and the computed line total.
var OutputColumns = append(append([]string{}, InputColumns...),
	"Category",
	"Brand",
	"Rating",
	"Total",
)

// Sentinel values written when a record has no catalog match.
const (
	UnknownCategory = "Unknown"
	UnknownBrand    = "Unknown"
	NoRating        = "N/A"
)

// =============================================================================
// RAW RECORDS
// =============================================================================

// RawRecord is one input line split into fields. Its arity is whatever the
// line produced; the validator rejects anything other than InputArity.
type RawRecord struct {
	// Line is the 1-based line number in the source file.
	Line int

	// Fields holds the normalized field values.
	Fields []string
}

// Arity returns the number of fields on the line.
func (r RawRecord) Arity() int {
	return len(r.Fields)
}

// Field returns the i-th field, or "" when the line is too short.
func (r RawRecord) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// =============================================================================
// CLEAN RECORDS
// =============================================================================

// CleanRecord is a RawRecord that passed validation, with typed fields.
type CleanRecord struct {
	TransactionID string
	Date          time.Time
	ProductID     string
	ProductName   string
	Quantity      int
	UnitPrice     money.Decimal
	CustomerID    string
	Region        string

	// Line is the source line number, kept for diagnostics.
	Line int
}

// Amount returns quantity * unit price.
func (c CleanRecord) Amount() money.Decimal {
	return c.UnitPrice.MulInt(int64(c.Quantity))
}

// DateString returns the record date in DateLayout.
func (c CleanRecord) DateString() string {
	return c.Date.Format(DateLayout)
}

// =============================================================================
// CATALOG AND ENRICHMENT
// =============================================================================

// CatalogEntry is a product as described by the external catalog.
type CatalogEntry struct {
	ID        int
	Title     string
	Category  string
	Brand     string
	Rating    float64
	HasRating bool
}

// MatchKind records how an enriched record found its catalog entry.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchName
	MatchID
)

func (m MatchKind) String() string {
	switch m {
	case MatchName:
		return "name"
	case MatchID:
		return "id"
	default:
		return "none"
	}
}

// EnrichedRecord is a CleanRecord plus catalog metadata. Unmatched records
// carry the Unknown/N/A sentinels, never empty strings.
type EnrichedRecord struct {
	CleanRecord

	Category string
	Brand    string
	Rating   string
	Match    MatchKind
}

// Total returns the computed line total.
func (e EnrichedRecord) Total() money.Decimal {
	return e.Amount()
}

// Row renders the record as len(OutputColumns) strings in column order.
func (e EnrichedRecord) Row() []string {
	return []string{
		e.TransactionID,
		e.DateString(),
		e.ProductID,
		e.ProductName,
		strconv.Itoa(e.Quantity),
		e.UnitPrice.String(),
		e.CustomerID,
		e.Region,
		e.Category,
		e.Brand,
		e.Rating,
		e.Total().StringFixed(2),
	}
}
