package decimal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	d, err := New("0.1")
	require.NoError(t, err)
	assert.Equal(t, "0.1", d.String())

	_, err = New("not-a-number")
	assert.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	a := MustNew("1.2")
	b := MustNew("0.4")

	assert.Equal(t, "1.6", a.Add(b).String())
	assert.Equal(t, "0.8", a.Sub(b).String())
	assert.Equal(t, "0.48", a.Mul(b).String())
	assert.Equal(t, "3", a.Div(b).String())
	assert.Equal(t, "-1.2", a.Neg().String())
}

func TestMaskedComparisons(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a    string
		b    string
		cmp  int
	}{
		{name: "equal", a: "1", b: "1", cmp: 0},
		{name: "less", a: "1", b: "2", cmp: -1},
		{name: "greater", a: "2", b: "1", cmp: 1},
		{name: "residual below mask is equal", a: "1.00000000000000004", b: "1", cmp: 0},
		{name: "difference at mask is not equal", a: "1.0000000000001", b: "1", cmp: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := MustNew(tc.a)
			b := MustNew(tc.b)
			assert.Equal(t, tc.cmp, a.Cmp(b))
			assert.Equal(t, tc.cmp == 0, a.Eq(b))
			assert.Equal(t, tc.cmp < 0, a.Lt(b))
			assert.Equal(t, tc.cmp > 0, a.Gt(b))
		})
	}
}

func TestEqualWithinPrecision(t *testing.T) {
	t.Parallel()

	// 0.004 rounds away at fiat precision, 0.006 doesn't.
	assert.True(t, EqualWithinPrecision(MustNew("10.004"), MustNew("10"), FiatPlaces))
	assert.False(t, EqualWithinPrecision(MustNew("10.006"), MustNew("10"), FiatPlaces))

	// Crypto mask is far tighter.
	assert.False(t, EqualWithinPrecision(MustNew("10.004"), MustNew("10"), CryptoPlaces))
}

func TestZeroValue(t *testing.T) {
	t.Parallel()

	var d Decimal
	assert.True(t, d.IsZero())
	assert.True(t, d.Eq(Zero))
	assert.False(t, d.IsNegative())
	assert.True(t, MustNew("-0.5").IsNegative())
	assert.True(t, MustNew("0.5").IsPositive())
}

func TestStringFixed(t *testing.T) {
	t.Parallel()

	d := MustNew("1234.56789")
	assert.Equal(t, "1234.57", d.StringFixed(FiatPlaces))
	assert.Equal(t, "1234.56789000", d.StringFixed(CryptoDisplayPlaces))
}

func TestRatioDiscipline(t *testing.T) {
	t.Parallel()

	// (whole * amount) / wholeAmount keeps more precision than
	// whole * (amount / wholeAmount); the package exposes the operands so the
	// caller can order them correctly. Sanity-check the recommended order.
	whole := MustNew("12000")
	amount := MustNew("0.2")
	wholeAmount := MustNew("1.2")
	got := whole.Mul(amount).Div(wholeAmount)
	assert.True(t, got.Eq(MustNew("2000")))
}
