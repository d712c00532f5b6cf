package exchange

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"swaproute/chain"
	"swaproute/execution"
	"swaproute/graph"
	"swaproute/swap"
	"swaproute/util"
)

// Runtime API methods of the conversion pallet.
const (
	assetHubPoolsMethod     = "AssetConversionApi_pools"
	assetHubQuoteSellMethod = "AssetConversionApi_quote_price_exact_tokens_for_tokens"
	assetHubQuoteBuyMethod  = "AssetConversionApi_quote_price_tokens_for_exact_tokens"
)

const (
	assetHubEdgeWeight = 10
	// a second AMM hop on the same chain fuses into the predecessor's call
	// sequence, so it is cheaper to take
	assetHubFusedEdgeWeight = 8
)

// AssetHub is a single-chain AMM venue: every enumerated pool pair yields
// an edge in both directions, quoted through the chain's conversion runtime
// API.
type AssetHub struct {
	chain    *chain.Chain
	conn     chain.Connection
	coder    chain.Coder
	signer   chain.Signer
	balances chain.BalanceSource
	logger   *zerolog.Logger
}

func NewAssetHub(
	chainModel *chain.Chain,
	conn chain.Connection,
	coder chain.Coder,
	signer chain.Signer,
	balances chain.BalanceSource,
	logger *zerolog.Logger,
) *AssetHub {
	return &AssetHub{
		chain:    chainModel,
		conn:     conn,
		coder:    coder,
		signer:   signer,
		balances: balances,
		logger:   logger,
	}
}

func (a *AssetHub) ID() string {
	return "assethub:" + a.chain.ID
}

// AvailableEdges enumerates pool pairs and folds them into bidirectional
// edges. Pairs referring to assets the chain model does not know are
// skipped.
func (a *AssetHub) AvailableEdges(ctx context.Context) ([]graph.Edge, error) {
	pairs, err := a.poolPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating pools on %s: %w", a.chain.ID, err)
	}

	edges := make([]graph.Edge, 0, len(pairs)*2)
	for _, pair := range pairs {
		if _, ok := a.chain.Asset(pair[0]); !ok {
			continue
		}
		if _, ok := a.chain.Asset(pair[1]); !ok {
			continue
		}
		first := chain.NewAssetID(a.chain.ID, pair[0])
		second := chain.NewAssetID(a.chain.ID, pair[1])
		edges = append(edges,
			&assetHubEdge{venue: a, origin: first, destination: second},
			&assetHubEdge{venue: a, origin: second, destination: first},
		)
	}
	return edges, nil
}

func (a *AssetHub) poolPairs(ctx context.Context) ([][2]uint32, error) {
	raw, err := a.conn.StateCall(ctx, assetHubPoolsMethod, nil)
	if err != nil {
		return nil, err
	}
	decoded, err := a.coder.DecodeStateResult(ctx, assetHubPoolsMethod, raw)
	if err != nil {
		return nil, err
	}
	pairs, ok := decoded.([][2]uint32)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected pools result %T", util.ErrUnsupportedPair, decoded)
	}
	return pairs, nil
}

// FeePayableAssets reports every asset with a direct pool against the
// native asset: those can settle submission fees through the conversion
// pallet.
func (a *AssetHub) FeePayableAssets(ctx context.Context) ([]chain.AssetID, error) {
	utility, ok := a.chain.UtilityAssetID()
	if !ok {
		return nil, util.ErrNoUtilityAsset
	}
	pairs, err := a.poolPairs(ctx)
	if err != nil {
		return nil, err
	}

	payable := []chain.AssetID{utility}
	for _, pair := range pairs {
		first := chain.NewAssetID(a.chain.ID, pair[0])
		second := chain.NewAssetID(a.chain.ID, pair[1])
		switch {
		case first == utility:
			payable = append(payable, second)
		case second == utility:
			payable = append(payable, first)
		}
	}
	return payable, nil
}

// quote performs a single conversion query against current pool state.
func (a *AssetHub) quote(
	ctx context.Context,
	assetIn, assetOut chain.AssetID,
	amount *big.Int,
	direction swap.Direction,
) (*big.Int, error) {
	method := assetHubQuoteSellMethod
	if direction == swap.DirectionBuy {
		method = assetHubQuoteBuyMethod
	}

	wireIn, err := a.coder.ResolveAsset(ctx, assetIn.AssetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuoteUnavailable, err)
	}
	wireOut, err := a.coder.ResolveAsset(ctx, assetOut.AssetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuoteUnavailable, err)
	}

	args, err := a.coder.EncodeStateArgs(ctx, method, map[string]any{
		"asset1":      wireIn,
		"asset2":      wireOut,
		"amount":      amount,
		"include_fee": true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuoteUnavailable, err)
	}

	raw, err := a.conn.StateCall(ctx, method, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuoteUnavailable, err)
	}
	decoded, err := a.coder.DecodeStateResult(ctx, method, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrQuoteUnavailable, err)
	}
	quoted, ok := decoded.(*big.Int)
	if !ok || quoted == nil {
		return nil, fmt.Errorf("%w: pool has no liquidity for %s -> %s", util.ErrQuoteUnavailable, assetIn, assetOut)
	}
	return quoted, nil
}

// assetHubEdge is one direction of a pool pair.
type assetHubEdge struct {
	venue       *AssetHub
	origin      chain.AssetID
	destination chain.AssetID
}

func (e *assetHubEdge) Origin() chain.AssetID      { return e.origin }
func (e *assetHubEdge) Destination() chain.AssetID { return e.destination }
func (e *assetHubEdge) Venue() string              { return e.venue.ID() }

func (e *assetHubEdge) Weight(prev graph.Edge) int {
	if prev != nil && prev.Venue() == e.Venue() {
		return assetHubFusedEdgeWeight
	}
	return assetHubEdgeWeight
}

func (e *assetHubEdge) Quote(ctx context.Context, amount *big.Int, direction swap.Direction) (*big.Int, error) {
	return e.venue.quote(ctx, e.origin, e.destination, amount, direction)
}

// The conversion pallet charges fees in the asset being sold, so the edge
// works in any route position regardless of the fee asset.
func (e *assetHubEdge) CanPayIntermediateNonNativeFees() bool { return true }

func (e *assetHubEdge) RequiresOriginKeepAlive() bool { return true }

// A same-venue predecessor fuses this edge into its call sequence and its
// submission already covers the combined fee.
func (e *assetHubEdge) IgnoresFeeRequirementAfter(prev graph.Edge) bool {
	return prev != nil && prev.Venue() == e.Venue()
}

func (e *assetHubEdge) BeginOperation(args execution.Args) (execution.AtomicOperation, error) {
	return newAssetHubOperation(e.venue, []*assetHubEdge{e}, args), nil
}

func (e *assetHubEdge) AppendToOperation(prev execution.AtomicOperation, args execution.Args) execution.AtomicOperation {
	op, ok := prev.(*assetHubOperation)
	if !ok || op.venue.chain.ID != e.venue.chain.ID {
		return nil
	}
	return op.appending(e, args)
}
