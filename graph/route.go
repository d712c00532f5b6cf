package graph

import (
	"math/big"

	"swaproute/chain"
	"swaproute/swap"
	"swaproute/util"
)

// RouteItem is one edge of a route together with the amount flowing through
// it. For a sell route Amount is the item's exact input and Quote the
// computed output; for a buy route Amount is the exact output and Quote the
// required input.
type RouteItem struct {
	Edge   Edge
	Amount *big.Int
	Quote  *big.Int
}

func (item RouteItem) AmountIn(direction swap.Direction) *big.Int {
	if direction == swap.DirectionSell {
		return item.Amount
	}
	return item.Quote
}

func (item RouteItem) AmountOut(direction swap.Direction) *big.Int {
	if direction == swap.DirectionSell {
		return item.Quote
	}
	return item.Amount
}

// Route is an ordered, direction-aware sequence of route items, always
// materialized origin to destination. A route is an immutable snapshot of
// the quotes it was built from; later pool changes do not touch it.
type Route struct {
	Direction swap.Direction
	Items     []RouteItem
}

// AmountIn is derived from the first item, never stored redundantly.
func (r *Route) AmountIn() *big.Int {
	if len(r.Items) == 0 {
		return new(big.Int)
	}
	return r.Items[0].AmountIn(r.Direction)
}

// AmountOut is derived from the last item.
func (r *Route) AmountOut() *big.Int {
	if len(r.Items) == 0 {
		return new(big.Int)
	}
	return r.Items[len(r.Items)-1].AmountOut(r.Direction)
}

func (r *Route) AssetIn() chain.AssetID {
	if len(r.Items) == 0 {
		return chain.AssetID{}
	}
	return r.Items[0].Edge.Origin()
}

func (r *Route) AssetOut() chain.AssetID {
	if len(r.Items) == 0 {
		return chain.AssetID{}
	}
	return r.Items[len(r.Items)-1].Edge.Destination()
}

// Quote condenses the route into a single converted amount for the caller.
func (r *Route) Quote() swap.Quote {
	args := swap.QuoteArgs{Direction: r.Direction}
	quote := swap.Quote{Args: args}
	if r.Direction == swap.DirectionSell {
		quote.Args.Amount = r.AmountIn()
		quote.Amount = r.AmountOut()
	} else {
		quote.Args.Amount = r.AmountOut()
		quote.Amount = r.AmountIn()
	}
	return quote
}

// Limit derives the execution bound for one item of the route.
func (r *Route) Limit(i int, slippage swap.Rational) (swap.Limit, error) {
	if i < 0 || i >= len(r.Items) {
		return swap.Limit{}, util.ErrEmptyRoute
	}
	item := r.Items[i]
	return swap.NewLimit(
		r.Direction,
		item.AmountIn(r.Direction),
		item.AmountOut(r.Direction),
		slippage,
	), nil
}
