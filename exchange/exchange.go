// Package exchange implements the concrete swap venues as a closed set of
// edge kinds behind the graph.Edge interface, and the registry that
// discovers which venues are usable per chain and account.
package exchange

import (
	"context"

	"swaproute/chain"
	"swaproute/graph"
)

// Exchange is one swap venue. A venue owns a set of directed edges and
// knows which assets it can pay submission fees in.
type Exchange interface {
	// ID names the venue instance, unique within the registry.
	ID() string

	// AvailableEdges enumerates the venue's current edges from remote
	// state. The result replaces the venue's previous edges wholesale.
	AvailableEdges(ctx context.Context) ([]graph.Edge, error)

	// FeePayableAssets lists the assets usable to pay this venue's
	// submission fees in place of the native one.
	FeePayableAssets(ctx context.Context) ([]chain.AssetID, error)
}
