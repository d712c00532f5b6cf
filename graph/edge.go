// Package graph models convertibility between assets as a directed graph of
// venue-owned edges, answers reachability queries over it and searches it
// for routes.
package graph

import (
	"context"
	"math/big"

	"swaproute/chain"
	"swaproute/execution"
	"swaproute/swap"
)

// Edge is a directed convertibility relation between two assets owned by
// one exchange venue. Edges are immutable for the lifetime of a route
// computation; the registry replaces the whole edge set on upstream change.
type Edge interface {
	Origin() chain.AssetID
	Destination() chain.AssetID

	// Venue names the owning venue, used by predecessor-dependent weight
	// rules and by fusing.
	Venue() string

	// Weight is the path-search cost of taking this edge after prev (nil on
	// the first hop). Lower is preferred.
	Weight(prev Edge) int

	// Quote converts an amount across the edge from current pool state.
	// Sell treats amount as exact input, buy as exact output. Safe for
	// concurrent use. A failure means the edge currently cannot quote.
	Quote(ctx context.Context, amount *big.Int, direction swap.Direction) (*big.Int, error)

	// CanPayIntermediateNonNativeFees reports whether the edge can pay fees
	// in a non-native asset while in an intermediate route position. Edges
	// without it may only appear as the final hop of such routes.
	CanPayIntermediateNonNativeFees() bool

	// RequiresOriginKeepAlive reports whether the origin account must stay
	// above its existential deposit through the operation.
	RequiresOriginKeepAlive() bool

	// IgnoresFeeRequirementAfter reports whether the predecessor edge
	// already covers this edge's fee requirement when chained.
	IgnoresFeeRequirementAfter(prev Edge) bool

	// BeginOperation creates the execution unit for this edge.
	BeginOperation(args execution.Args) (execution.AtomicOperation, error)

	// AppendToOperation tries to absorb this edge into the predecessor's
	// operation (same-venue fused call sequence). Returns nil when the
	// venue does not support fusing; the default is to never fuse.
	AppendToOperation(prev execution.AtomicOperation, args execution.Args) execution.AtomicOperation
}
