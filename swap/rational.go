package swap

import (
	"fmt"
	"math/big"
)

// Rational is an exact fraction over integers. Slippage is kept rational so
// on-chain amount comparisons never go through floating point.
type Rational struct {
	Num   *big.Int
	Denom *big.Int
}

func NewRational(num, denom uint64) Rational {
	return Rational{
		Num:   new(big.Int).SetUint64(num),
		Denom: new(big.Int).SetUint64(denom),
	}
}

// Permill builds a rational out of parts-per-million, the granularity the
// slippage settings use.
func Permill(parts uint64) Rational {
	return NewRational(parts, 1_000_000)
}

func (r Rational) String() string {
	return fmt.Sprintf("%s/%s", r.Num, r.Denom)
}

func (r Rational) IsZero() bool {
	return r.Num == nil || r.Num.Sign() == 0
}

// MulFloor returns floor(amount * r). The zero rational multiplies to zero.
func (r Rational) MulFloor(amount *big.Int) *big.Int {
	if r.IsZero() {
		return new(big.Int)
	}
	result := new(big.Int).Mul(amount, r.Num)
	return result.Quo(result, r.Denom)
}

// MulCeil returns ceil(amount * r).
func (r Rational) MulCeil(amount *big.Int) *big.Int {
	if r.IsZero() {
		return new(big.Int)
	}
	result := new(big.Int).Mul(amount, r.Num)
	rem := new(big.Int)
	result.QuoRem(result, r.Denom, rem)
	if rem.Sign() != 0 {
		result.Add(result, big.NewInt(1))
	}
	return result
}
