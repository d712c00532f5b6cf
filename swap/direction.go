// Package swap holds the value types shared by quoting, routing, fee
// composition and execution: trade direction, exact rational slippage and
// the limits that bound acceptable execution amounts.
package swap

// Direction selects the exact-amount side of a quote or execution.
type Direction uint8

const (
	// DirectionSell quotes/executes with an exact input amount.
	DirectionSell Direction = iota
	// DirectionBuy quotes/executes with an exact output amount.
	DirectionBuy
)

func (d Direction) String() string {
	switch d {
	case DirectionSell:
		return "sell"
	case DirectionBuy:
		return "buy"
	default:
		return "unknown"
	}
}

// Opposite returns the reversed direction, used when amounts propagate
// backward through a route.
func (d Direction) Opposite() Direction {
	if d == DirectionSell {
		return DirectionBuy
	}
	return DirectionSell
}
