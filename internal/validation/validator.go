// =============================================================================
// Sales Analytics - Validation Engine
// =============================================================================
//
// This module splits parsed records into valid and invalid sets. Each record
// is checked against a fixed list of predicates; the first one that fails
// classifies the record. A record that passes all of them is coerced into a
// typed CleanRecord.
//
// PREDICATES (in order):
//   0. The line has exactly 8 fields
//   1. TransactionID is non-empty and starts with "T"
//   2. Quantity is an integer > 0
//   3. UnitPrice is a decimal > 0
//   4. Date is a calendar date (YYYY-MM-DD)
//   5. (strict mode) ProductID starts with "P", CustomerID with "C",
//      Region is non-empty
//
// ERROR HANDLING:
//   Failures are data, not errors. They are counted per reason and kept as
//   ValidationErrors for the rejects log. Nothing here aborts a run.
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/money"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Reason identifies which predicate rejected a record.
type Reason string

const (
	ReasonMalformed     Reason = "malformed"
	ReasonTransactionID Reason = "transaction_id"
	ReasonQuantity      Reason = "quantity"
	ReasonUnitPrice     Reason = "unit_price"
	ReasonDate          Reason = "date"
	ReasonReference     Reason = "reference"
)

// ValidationError describes why one record was rejected.
type ValidationError struct {
	// Line is the source line number.
	Line int

	// Reason is the predicate that failed.
	Reason Reason

	// Field is the offending column, empty for malformed lines.
	Field string

	// Value is the offending value as read.
	Value string

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d, field '%s': %s (value: '%s')", e.Line, e.Field, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result is the outcome of validating a full record set.
type Result struct {
	// Valid holds the clean records in input order.
	Valid []types.CleanRecord

	// Invalid is the number of rejected records.
	Invalid int

	// Total is the number of records examined.
	Total int

	// Reasons counts rejected records per failing predicate.
	Reasons map[Reason]int

	// Errors has one entry per rejected record, in input order.
	Errors []*ValidationError
}

// Consistent reports whether every record was either kept or counted.
func (r *Result) Consistent() bool {
	return len(r.Valid)+r.Invalid == r.Total
}

// SortedReasons returns the rejection reasons in a stable order.
func (r *Result) SortedReasons() []Reason {
	reasons := make([]Reason, 0, len(r.Reasons))
	for reason := range r.Reasons {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options contains options for validation.
type Options struct {
	// StrictReferences enables the ProductID/CustomerID/Region checks.
	// Default: false
	StrictReferences bool
}

// Validator checks RawRecords. It holds no state between calls.
type Validator struct {
	options Options
}

// New creates a Validator with the given options.
func New(options Options) *Validator {
	return &Validator{options: options}
}

// Validate checks every record and partitions them. The partition is stable
// and len(Valid)+Invalid always equals len(raw).
func (v *Validator) Validate(raw []types.RawRecord) *Result {
	result := &Result{
		Valid:   make([]types.CleanRecord, 0, len(raw)),
		Total:   len(raw),
		Reasons: make(map[Reason]int),
	}

	for _, rec := range raw {
		clean, verr := v.Check(rec)
		if verr != nil {
			result.Invalid++
			result.Reasons[verr.Reason]++
			result.Errors = append(result.Errors, verr)
			continue
		}
		result.Valid = append(result.Valid, clean)
	}

	return result
}

// Check validates a single record, returning either a CleanRecord or the
// first failing predicate.
func (v *Validator) Check(rec types.RawRecord) (types.CleanRecord, *ValidationError) {
	if rec.Arity() != types.InputArity {
		return types.CleanRecord{}, &ValidationError{
			Line:    rec.Line,
			Reason:  ReasonMalformed,
			Message: fmt.Sprintf("expected %d fields, got %d", types.InputArity, rec.Arity()),
		}
	}

	fail := func(reason Reason, col int, msg string) (types.CleanRecord, *ValidationError) {
		return types.CleanRecord{}, &ValidationError{
			Line:    rec.Line,
			Reason:  reason,
			Field:   types.InputColumns[col],
			Value:   rec.Field(col),
			Message: msg,
		}
	}

	id := rec.Field(types.ColTransactionID)
	if id == "" || !strings.HasPrefix(id, "T") {
		return fail(ReasonTransactionID, types.ColTransactionID, "transaction id must start with 'T'")
	}

	qty, err := strconv.Atoi(rec.Field(types.ColQuantity))
	if err != nil {
		return fail(ReasonQuantity, types.ColQuantity, "quantity is not an integer")
	}
	if qty <= 0 {
		return fail(ReasonQuantity, types.ColQuantity, "quantity must be greater than zero")
	}

	price, err := money.Parse(rec.Field(types.ColUnitPrice))
	if err != nil {
		return fail(ReasonUnitPrice, types.ColUnitPrice, "unit price is not a decimal")
	}
	if price.Sign() <= 0 {
		return fail(ReasonUnitPrice, types.ColUnitPrice, "unit price must be greater than zero")
	}

	date, err := time.Parse(types.DateLayout, rec.Field(types.ColDate))
	if err != nil {
		return fail(ReasonDate, types.ColDate, "date is not YYYY-MM-DD")
	}

	if v.options.StrictReferences {
		switch {
		case !strings.HasPrefix(rec.Field(types.ColProductID), "P"):
			return fail(ReasonReference, types.ColProductID, "product id must start with 'P'")
		case !strings.HasPrefix(rec.Field(types.ColCustomerID), "C"):
			return fail(ReasonReference, types.ColCustomerID, "customer id must start with 'C'")
		case rec.Field(types.ColRegion) == "":
			return fail(ReasonReference, types.ColRegion, "region is empty")
		}
	}

	return types.CleanRecord{
		TransactionID: id,
		Date:          date,
		ProductID:     rec.Field(types.ColProductID),
		ProductName:   rec.Field(types.ColProductName),
		Quantity:      qty,
		UnitPrice:     price,
		CustomerID:    rec.Field(types.ColCustomerID),
		Region:        rec.Field(types.ColRegion),
		Line:          rec.Line,
	}, nil
}

// =============================================================================
// ERROR OUTPUT
// =============================================================================

// FormatErrors renders rejected records one per line, for the rejects log.
func FormatErrors(errors []*ValidationError) string {
	var sb strings.Builder
	for _, e := range errors {
		sb.WriteString(string(e.Reason))
		sb.WriteString("\t")
		sb.WriteString(e.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteErrorLog writes FormatErrors output to filePath.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	if err := utils.WriteBytesAtomic(filePath, []byte(FormatErrors(errors))); err != nil {
		return fmt.Errorf("failed to write rejects log: %w", err)
	}
	return nil
}
