package num

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Fraction is an exact rational trade amount. Token amounts must match on-chain
// precision, so float64 is never used to carry them. The denominator must be
// non-zero; callers own that invariant and it is not re-checked here. Fractions
// are not reduced to lowest terms.
type Fraction struct {
	Num uint64
	Den uint64
}

func New(num, den uint64) Fraction {
	return Fraction{Num: num, Den: den}
}

// FromUint builds a whole-number amount (denominator 1).
func FromUint(n uint64) Fraction {
	return Fraction{Num: n, Den: 1}
}

func (f Fraction) IsZero() bool {
	return f.Num == 0
}

// Float64 is a lossy view, for logging and threshold comparison only.
func (f Fraction) Float64() float64 {
	return float64(f.Num) / float64(f.Den)
}

// Eq reports observational equality: 5/1 equals 10/2. Cross-multiplication is
// done in big.Int so u64*u64 cannot overflow.
func (f Fraction) Eq(other Fraction) bool {
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(f.Num), new(big.Int).SetUint64(other.Den))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(other.Num), new(big.Int).SetUint64(f.Den))
	return lhs.Cmp(rhs) == 0
}

// BaseUnits converts the fraction into integer token base units for a token
// with the given number of decimals: num * 10^decimals / den, truncated.
// A zero denominator yields zero units; the swap path rejects empty amounts.
func (f Fraction) BaseUnits(decimals int) *big.Int {
	if f.Den == 0 {
		return new(big.Int)
	}
	if decimals < 0 {
		decimals = 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	units := new(big.Int).Mul(new(big.Int).SetUint64(f.Num), scale)
	return units.Quo(units, new(big.Int).SetUint64(f.Den))
}

// Decimal is a high-precision view for human-facing output (alerts, tables).
func (f Fraction) Decimal() decimal.Decimal {
	if f.Den == 0 {
		return decimal.Decimal{}
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(f.Num), 0)
	den := decimal.NewFromBigInt(new(big.Int).SetUint64(f.Den), 0)
	return num.DivRound(den, 18)
}

func (f Fraction) String() string {
	if f.Den == 1 {
		return fmt.Sprintf("%d", f.Num)
	}
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}
