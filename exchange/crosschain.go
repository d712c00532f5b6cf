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

const crosschainEdgeWeight = 30

// Transfer is one configured cross-chain corridor: the same logical token
// moving between two chains, with a fixed delivery fee taken out of the
// transferred amount on arrival.
type Transfer struct {
	OriginChain string
	OriginAsset uint32
	DestChain   string
	DestAsset   uint32
	DeliveryFee *big.Int
}

// Crosschain is the transfer venue. It is amount-preserving up to the
// delivery fee: no pool state is involved, so quoting is local arithmetic.
type Crosschain struct {
	chains    *chain.Registry
	balances  chain.BalanceSource
	transfers []Transfer
	logger    *zerolog.Logger
}

func NewCrosschain(
	chains *chain.Registry,
	balances chain.BalanceSource,
	transfers []Transfer,
	logger *zerolog.Logger,
) *Crosschain {
	return &Crosschain{
		chains:    chains,
		balances:  balances,
		transfers: transfers,
		logger:    logger,
	}
}

func (c *Crosschain) ID() string {
	return "crosschain"
}

// AvailableEdges yields one edge per corridor whose both ends are currently
// registered chains with an account. Corridors missing a prerequisite are
// excluded, not errors.
func (c *Crosschain) AvailableEdges(ctx context.Context) ([]graph.Edge, error) {
	edges := make([]graph.Edge, 0, len(c.transfers))
	for _, transfer := range c.transfers {
		if !c.corridorUsable(transfer) {
			continue
		}
		edges = append(edges, &crosschainEdge{venue: c, transfer: transfer})
	}
	return edges, nil
}

func (c *Crosschain) corridorUsable(transfer Transfer) bool {
	for _, chainID := range []string{transfer.OriginChain, transfer.DestChain} {
		if _, err := c.chains.Chain(chainID); err != nil {
			return false
		}
		if _, err := c.chains.Connection(chainID); err != nil {
			return false
		}
		if _, err := c.chains.Signer(chainID); err != nil {
			return false
		}
	}
	if _, err := c.chains.Coder(transfer.OriginChain); err != nil {
		return false
	}
	return true
}

// FeePayableAssets: transfers only pay submission fees in the origin
// chain's native asset.
func (c *Crosschain) FeePayableAssets(_ context.Context) ([]chain.AssetID, error) {
	assets := make([]chain.AssetID, 0, len(c.transfers))
	seen := make(map[chain.AssetID]struct{})
	for _, transfer := range c.transfers {
		chainModel, err := c.chains.Chain(transfer.OriginChain)
		if err != nil {
			continue
		}
		utility, ok := chainModel.UtilityAssetID()
		if !ok {
			continue
		}
		if _, dup := seen[utility]; dup {
			continue
		}
		seen[utility] = struct{}{}
		assets = append(assets, utility)
	}
	return assets, nil
}

// crosschainEdge is one corridor direction.
type crosschainEdge struct {
	venue    *Crosschain
	transfer Transfer
}

func (e *crosschainEdge) Origin() chain.AssetID {
	return chain.NewAssetID(e.transfer.OriginChain, e.transfer.OriginAsset)
}

func (e *crosschainEdge) Destination() chain.AssetID {
	return chain.NewAssetID(e.transfer.DestChain, e.transfer.DestAsset)
}

func (e *crosschainEdge) Venue() string { return e.venue.ID() }

func (e *crosschainEdge) Weight(graph.Edge) int { return crosschainEdgeWeight }

// Quote is amount-preserving minus the delivery fee: sell deducts it from
// the output, buy adds it to the required input.
func (e *crosschainEdge) Quote(_ context.Context, amount *big.Int, direction swap.Direction) (*big.Int, error) {
	deliveryFee := e.transfer.DeliveryFee
	if deliveryFee == nil {
		deliveryFee = new(big.Int)
	}
	if direction == swap.DirectionSell {
		out := new(big.Int).Sub(amount, deliveryFee)
		if out.Sign() <= 0 {
			return nil, fmt.Errorf("%w: amount %s does not cover delivery fee %s",
				util.ErrQuoteUnavailable, amount, deliveryFee)
		}
		return out, nil
	}
	return new(big.Int).Add(amount, deliveryFee), nil
}

// Transfers cannot settle fees in a non-native asset mid-route.
func (e *crosschainEdge) CanPayIntermediateNonNativeFees() bool { return false }

func (e *crosschainEdge) RequiresOriginKeepAlive() bool { return true }

func (e *crosschainEdge) IgnoresFeeRequirementAfter(graph.Edge) bool { return false }

func (e *crosschainEdge) BeginOperation(args execution.Args) (execution.AtomicOperation, error) {
	return newCrosschainOperation(e.venue, e, args), nil
}

// Transfers never fuse.
func (e *crosschainEdge) AppendToOperation(execution.AtomicOperation, execution.Args) execution.AtomicOperation {
	return nil
}
