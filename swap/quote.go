package swap

import "math/big"

// QuoteArgs is a single quote request: amount is the exact side selected by
// Direction.
type QuoteArgs struct {
	Amount    *big.Int
	Direction Direction
}

// Quote pairs the request with the converted counter-amount.
type Quote struct {
	Args   QuoteArgs
	Amount *big.Int
}

// AmountIn returns the input side of the quote.
func (q Quote) AmountIn() *big.Int {
	if q.Args.Direction == DirectionSell {
		return q.Args.Amount
	}
	return q.Amount
}

// AmountOut returns the output side of the quote.
func (q Quote) AmountOut() *big.Int {
	if q.Args.Direction == DirectionSell {
		return q.Amount
	}
	return q.Args.Amount
}
