// Package decimal provides the fixed-precision decimal value used across the
// tax computation pipeline. It composes shopspring/decimal and quantizes every
// comparison to the crypto precision mask, so tiny residuals left over by
// repeated fractional splits of a lot never flip an equality or ordering test.
package decimal

import (
	"fmt"

	sd "github.com/shopspring/decimal"
)

// CryptoPlaces is the quantization applied to every comparison: two values
// whose difference rounds to zero at 13 decimal places are equal.
const CryptoPlaces int32 = 13

// FiatPlaces is the quantization used for fiat cross-checks and display.
const FiatPlaces int32 = 2

// CryptoDisplayPlaces is the precision used when rendering crypto amounts.
const CryptoDisplayPlaces int32 = 8

// BalancePlaces is the looser mask used by balance negativity checks.
const BalancePlaces int32 = 10

// Decimal is an immutable fixed-precision decimal value. The zero value is 0.
type Decimal struct {
	d sd.Decimal
}

// Zero is the zero value, exported for readability at call sites.
var Zero = Decimal{}

// New parses s as a decimal value.
func New(s string) (Decimal, error) {
	d, err := sd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// MustNew parses s and panics on malformed input. Reserved for literals.
func MustNew(s string) Decimal {
	d, err := New(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInt converts an integer.
func FromInt(n int64) Decimal {
	return Decimal{d: sd.NewFromInt(n)}
}

func (d Decimal) Add(o Decimal) Decimal { return Decimal{d: d.d.Add(o.d)} }
func (d Decimal) Sub(o Decimal) Decimal { return Decimal{d: d.d.Sub(o.d)} }
func (d Decimal) Mul(o Decimal) Decimal { return Decimal{d: d.d.Mul(o.d)} }
func (d Decimal) Neg() Decimal          { return Decimal{d: d.d.Neg()} }

// Div divides d by o. Division by zero panics, matching shopspring semantics;
// callers guard with IsZero where a zero divisor is a data condition.
func (d Decimal) Div(o Decimal) Decimal { return Decimal{d: d.d.Div(o.d)} }

// Cmp compares d and o with the difference quantized to the crypto mask.
// Returns -1, 0 or 1.
func (d Decimal) Cmp(o Decimal) int {
	return d.d.Sub(o.d).Round(CryptoPlaces).Sign()
}

func (d Decimal) Eq(o Decimal) bool  { return d.Cmp(o) == 0 }
func (d Decimal) Gt(o Decimal) bool  { return d.Cmp(o) > 0 }
func (d Decimal) Gte(o Decimal) bool { return d.Cmp(o) >= 0 }
func (d Decimal) Lt(o Decimal) bool  { return d.Cmp(o) < 0 }
func (d Decimal) Lte(o Decimal) bool { return d.Cmp(o) <= 0 }

// IsZero reports whether d is zero within the crypto mask.
func (d Decimal) IsZero() bool { return d.Cmp(Zero) == 0 }

// IsNegative reports whether d is strictly below zero within the crypto mask.
func (d Decimal) IsNegative() bool { return d.Cmp(Zero) < 0 }

// IsPositive reports whether d is strictly above zero within the crypto mask.
func (d Decimal) IsPositive() bool { return d.Cmp(Zero) > 0 }

// EqualWithinPrecision reports whether a-b quantized to the given number of
// decimal places is zero. Use FiatPlaces for fiat cross-checks and
// BalancePlaces for balance negativity tests.
func EqualWithinPrecision(a, b Decimal, places int32) bool {
	return a.d.Sub(b.d).Round(places).IsZero()
}

// String renders the exact value without padding.
func (d Decimal) String() string { return d.d.String() }

// StringFixed renders the value rounded to the given number of places.
func (d Decimal) StringFixed(places int32) string { return d.d.StringFixed(places) }

// Float64 returns a float approximation, for report cells only.
func (d Decimal) Float64() float64 {
	f, _ := d.d.Float64()
	return f
}
