package graph

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"swaproute/chain"
	"swaproute/swap"
	"swaproute/util"
)

const defaultMaxHops = 4

// SearchOptions tune one route search.
type SearchOptions struct {
	// MaxHops caps the route length; zero means the default.
	MaxHops int

	// RequireIntermediateFeeSupport is set when the caller pays fees in a
	// non-native asset: edges that cannot honor that in an intermediate
	// position are then only admitted as the final hop.
	RequireIntermediateFeeSupport bool
}

// QuoteFailure records an edge pruned from the search because it could not
// quote.
type QuoteFailure struct {
	Edge Edge
	Err  error
}

// NoRouteError carries the diagnostics of an exhausted search: every edge
// that was pruned because its quote failed.
type NoRouteError struct {
	From          chain.AssetID
	To            chain.AssetID
	QuoteFailures []QuoteFailure
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route from %s to %s (%d edges failed to quote)", e.From, e.To, len(e.QuoteFailures))
}

func (e *NoRouteError) Unwrap() error {
	return util.ErrNoRoute
}

// PathFinder runs weighted searches over an index snapshot.
type PathFinder struct {
	index  *Index
	logger *zerolog.Logger
}

func NewPathFinder(index *Index, logger *zerolog.Logger) *PathFinder {
	return &PathFinder{index: index, logger: logger}
}

// FindRoute searches for the cheapest route converting amount between from
// and to. For buy direction the search runs over the reversed graph so the
// required input propagates backward; the returned route is always in
// forward order. Given a fixed edge ordering the result is deterministic:
// equal-cost candidates resolve by discovery order.
func (pf *PathFinder) FindRoute(
	ctx context.Context,
	from, to chain.AssetID,
	amount *big.Int,
	direction swap.Direction,
	opts SearchOptions,
) (*Route, error) {
	defer util.TimeTrack(time.Now(), "graph.FindRoute", pf.logger)

	// reachability precheck: an absent pair must not trigger any quote call
	if !pf.index.TransitivelyReaches(from, to) {
		return nil, &NoRouteError{From: from, To: to}
	}

	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}

	if direction == swap.DirectionSell {
		return pf.search(ctx, from, to, amount, direction, maxHops, opts)
	}
	return pf.search(ctx, to, from, amount, direction, maxHops, opts)
}

type relaxation struct {
	edge   Edge
	amount *big.Int // exact-side amount entering the relaxed edge
	quote  *big.Int // converted counter-amount
}

// search runs uniform-cost search from start. For sell, start is the route
// source and edges are followed forward; for buy, start is the route
// destination and edges are followed inverse, so amounts propagate from the
// exact side in both cases.
func (pf *PathFinder) search(
	ctx context.Context,
	start, goal chain.AssetID,
	amount *big.Int,
	direction swap.Direction,
	maxHops int,
	opts SearchOptions,
) (*Route, error) {
	sell := direction == swap.DirectionSell
	dist := make(map[chain.AssetID]int)
	settled := make(map[chain.AssetID]bool)
	cameBy := make(map[chain.AssetID]relaxation)
	failures := make([]QuoteFailure, 0)

	pq := newFrontier()
	pq.push(frontierItem{node: start, amount: amount, priority: 0})
	dist[start] = 0

	for pq.Len() > 0 {
		item := pq.pop()
		if settled[item.node] {
			continue
		}
		settled[item.node] = true
		if item.node == goal {
			route := pf.materialize(start, goal, direction, cameBy)
			pf.logger.Debug().
				Str("from", route.AssetIn().String()).
				Str("to", route.AssetOut().String()).
				Int("hops", len(route.Items)).
				Msg("route found")
			return route, nil
		}
		if item.hops >= maxHops {
			continue
		}

		for _, edge := range pf.neighbors(item.node, sell) {
			next := pf.farEnd(edge, sell)
			if settled[next] {
				continue
			}
			if pf.violatesFeeConstraint(edge, direction, goal, start, opts) {
				continue
			}

			newCost := item.priority + edge.Weight(item.via)
			known, seen := dist[next]
			if seen && newCost >= known {
				continue
			}

			quoted, err := edge.Quote(ctx, item.amount, direction)
			if err != nil {
				failures = append(failures, QuoteFailure{Edge: edge, Err: err})
				continue
			}

			dist[next] = newCost
			cameBy[next] = relaxation{edge: edge, amount: item.amount, quote: quoted}
			pq.push(frontierItem{
				node:     next,
				amount:   quoted,
				priority: newCost,
				hops:     item.hops + 1,
				via:      edge,
			})
		}
	}

	routeFrom, routeTo := start, goal
	if !sell {
		routeFrom, routeTo = goal, start
	}
	pf.logger.Debug().
		Str("from", routeFrom.String()).
		Str("to", routeTo.String()).
		Int("quoteFailures", len(failures)).
		Msg("no route")
	return nil, &NoRouteError{From: routeFrom, To: routeTo, QuoteFailures: failures}
}

func (pf *PathFinder) neighbors(node chain.AssetID, sell bool) []Edge {
	if sell {
		return pf.index.edgesFrom[node]
	}
	return pf.index.edgesTo[node]
}

func (pf *PathFinder) farEnd(edge Edge, sell bool) chain.AssetID {
	if sell {
		return edge.Destination()
	}
	return edge.Origin()
}

// violatesFeeConstraint enforces the topology rule: with non-native fee
// payment requested, an edge lacking intermediate fee support may only be
// the final hop of the materialized route.
func (pf *PathFinder) violatesFeeConstraint(
	edge Edge,
	direction swap.Direction,
	goal, start chain.AssetID,
	opts SearchOptions,
) bool {
	if !opts.RequireIntermediateFeeSupport || edge.CanPayIntermediateNonNativeFees() {
		return false
	}
	if direction == swap.DirectionSell {
		// forward search: the final hop ends at the goal
		return edge.Destination() != goal
	}
	// reverse search: the final hop is relaxed first, out of the start node
	return edge.Destination() != start
}

// materialize rebuilds the settled predecessor chain into a forward-ordered
// route.
func (pf *PathFinder) materialize(
	start, goal chain.AssetID,
	direction swap.Direction,
	cameBy map[chain.AssetID]relaxation,
) *Route {
	items := make([]RouteItem, 0, 4)
	if direction == swap.DirectionSell {
		for node := goal; node != start; node = cameBy[node].edge.Origin() {
			rec := cameBy[node]
			items = append([]RouteItem{{Edge: rec.edge, Amount: rec.amount, Quote: rec.quote}}, items...)
		}
	} else {
		// reverse search settled origins; walking forward from the route
		// source yields forward order directly
		for node := goal; node != start; node = cameBy[node].edge.Destination() {
			rec := cameBy[node]
			items = append(items, RouteItem{Edge: rec.edge, Amount: rec.amount, Quote: rec.quote})
		}
	}
	return &Route{Direction: direction, Items: items}
}
