package swap

import (
	"math/big"

	"swaproute/util"
)

// Limit bounds the amounts an execution may settle at. AmountIn and
// AmountOut are the quoted pair; which of the two is exact depends on
// Direction, the other one is defended by Slippage.
type Limit struct {
	Direction Direction
	AmountIn  *big.Int
	AmountOut *big.Int
	Slippage  Rational
}

func NewLimit(direction Direction, amountIn, amountOut *big.Int, slippage Rational) Limit {
	return Limit{
		Direction: direction,
		AmountIn:  util.CloneBig(amountIn),
		AmountOut: util.CloneBig(amountOut),
		Slippage:  slippage,
	}
}

// MinAmountOut is the least acceptable output for a sell execution: the
// quoted output reduced by slippage.
func (l Limit) MinAmountOut() *big.Int {
	if l.Direction == DirectionBuy {
		return util.CloneBig(l.AmountOut)
	}
	reduction := l.Slippage.MulFloor(l.AmountOut)
	return new(big.Int).Sub(l.AmountOut, reduction)
}

// MaxAmountIn is the most acceptable input for a buy execution: the quoted
// input increased by slippage.
func (l Limit) MaxAmountIn() *big.Int {
	if l.Direction == DirectionSell {
		return util.CloneBig(l.AmountIn)
	}
	increase := l.Slippage.MulCeil(l.AmountIn)
	return new(big.Int).Add(l.AmountIn, increase)
}

// ReplacingAmountIn rebinds the input amount, keeping the direction and the
// quoted output as the slippage anchor.
func (l Limit) ReplacingAmountIn(amountIn *big.Int) Limit {
	replaced := l
	replaced.AmountIn = util.CloneBig(amountIn)
	replaced.AmountOut = util.CloneBig(l.AmountOut)
	return replaced
}

// ReplacingBuyWithSell converts an exact-out limit into an exact-in one.
// Mid-route hops spend whatever the previous hop settled at, so their input
// is exact no matter which direction the route was quoted in.
func (l Limit) ReplacingBuyWithSell() Limit {
	converted := l
	converted.Direction = DirectionSell
	converted.AmountIn = util.CloneBig(l.AmountIn)
	converted.AmountOut = util.CloneBig(l.AmountOut)
	return converted
}
