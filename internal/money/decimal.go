// Package money holds the exact decimal type used for prices, revenue and
// percentages. Arithmetic never goes through float64.
package money

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// precision is the number of significant digits kept by every operation.
const precision = 34

var (
	ErrInvalidDecimal = errors.New("invalid decimal")
	ErrDivisionByZero = errors.New("division by zero")
)

type Decimal struct {
	value apd.Decimal
}

func arith() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(precision)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}

// Parse reads a plain or exponent decimal string. NaN and infinities are rejected.
func Parse(s string) (Decimal, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return Decimal{}, fmt.Errorf("%w %q: %v", ErrInvalidDecimal, s, err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("%w %q: not a finite number", ErrInvalidDecimal, s)
	}
	return Decimal{value: d}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func FromInt(i int64) Decimal {
	var d apd.Decimal
	d.SetInt64(i)
	return Decimal{value: d}
}

func Zero() Decimal {
	return Decimal{}
}

func (d Decimal) String() string {
	return d.value.Text('f')
}

// StringFixed renders d rounded half-up to exactly places fractional digits.
func (d Decimal) StringFixed(places int32) string {
	r := d.Round(places)
	return r.value.Text('f')
}

func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

func (d Decimal) Sign() int {
	return d.value.Sign()
}

func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

// Add returns the sum of d and other.
func (d Decimal) Add(other Decimal) Decimal {
	var result apd.Decimal
	arith().Add(&result, &d.value, &other.value)
	return Decimal{value: result}
}

// Mul returns the product of d and other.
func (d Decimal) Mul(other Decimal) Decimal {
	var result apd.Decimal
	arith().Mul(&result, &d.value, &other.value)
	return Decimal{value: result}
}

func (d Decimal) MulInt(i int64) Decimal {
	return d.Mul(FromInt(i))
}

// Div returns the quotient of d divided by other.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	if other.IsZero() {
		return Decimal{}, ErrDivisionByZero
	}
	var result apd.Decimal
	if _, err := arith().Quo(&result, &d.value, &other.value); err != nil {
		return Decimal{}, fmt.Errorf("divide %s by %s: %w", d, other, err)
	}
	return Decimal{value: result}, nil
}

// Round returns d rounded half-up to places fractional digits.
func (d Decimal) Round(places int32) Decimal {
	var result apd.Decimal
	if _, err := arith().Quantize(&result, &d.value, -places); err != nil {
		return d
	}
	return Decimal{value: result}
}

// Float64 is for metrics and spreadsheet export only.
func (d Decimal) Float64() float64 {
	f, err := d.value.Float64()
	if err != nil {
		return 0
	}
	return f
}
