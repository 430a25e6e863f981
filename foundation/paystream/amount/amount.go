// Package amount provides support for the fixed point monetary values used
// across the payroll system. Every amount is an unsigned 256 bit integer
// carrying 18 decimal places.
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Decimals is the number of fractional decimal digits in an amount.
const Decimals = 18

// BpsDenominator is the value of 100% expressed in basis points.
const BpsDenominator = 10_000

// ErrOverflow is returned when a calculation exceeds 256 bits.
var ErrOverflow = errors.New("amount overflow")

// one is 10^18, the base unit count of a single whole unit.
var one = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// One returns a single whole unit expressed in base units.
func One() *uint256.Int {
	return one.Clone()
}

// Units returns n whole units expressed in base units.
func Units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

// Parse converts a decimal string like "1.5" into base units. A string
// without a decimal point is read as whole units.
func Parse(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > Decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, Decimals)
	}
	if whole == "" {
		whole = "0"
	}

	w, err := uint256.FromDecimal(whole)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}

	v, overflow := new(uint256.Int).MulOverflow(w, one)
	if overflow {
		return nil, ErrOverflow
	}

	if frac != "" {
		f, err := uint256.FromDecimal(frac + strings.Repeat("0", Decimals-len(frac)))
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", s, err)
		}
		if _, overflow := v.AddOverflow(v, f); overflow {
			return nil, ErrOverflow
		}
	}

	return v, nil
}

// MustParse is Parse for values known to be correct.
func MustParse(s string) *uint256.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders base units as a decimal string with trailing zeros in the
// fraction removed.
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}

	var whole, frac uint256.Int
	whole.DivMod(v, one, &frac)

	if frac.IsZero() {
		return whole.Dec()
	}

	f := frac.Dec()
	f = strings.Repeat("0", Decimals-len(f)) + f
	return whole.Dec() + "." + strings.TrimRight(f, "0")
}

// MulDiv returns x*y/d rounded down, failing when the result does not fit.
// The intermediate product may use up to 512 bits.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, errors.New("division by zero")
	}

	v, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

// Bps returns the basis point share of v, rounded down.
func Bps(v *uint256.Int, bps uint64) (*uint256.Int, error) {
	return MulDiv(v, uint256.NewInt(bps), uint256.NewInt(BpsDenominator))
}

// Min returns the smaller of the two values.
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x.Clone()
	}
	return y.Clone()
}
