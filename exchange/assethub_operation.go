package exchange

import (
	"context"
	"fmt"
	"math/big"

	"swaproute/chain"
	"swaproute/execution"
	"swaproute/fee"
	"swaproute/swap"
	"swaproute/util"
)

const (
	assetHubSwapModule = "assetConversion"
	assetHubSwapEvent  = "SwapExecuted"

	assetHubSellCall = "swap_exact_tokens_for_tokens"
	assetHubBuyCall  = "swap_tokens_for_exact_tokens"
)

// assetHubOperation executes one or more fused AMM hops as a single call
// sequence on one chain. Fusing keeps one submission and one monitoring
// cycle for the combined path.
type assetHubOperation struct {
	execution.Lifecycle

	venue *AssetHub
	edges []*assetHubEdge
	args  execution.Args
}

func newAssetHubOperation(venue *AssetHub, edges []*assetHubEdge, args execution.Args) *assetHubOperation {
	return &assetHubOperation{venue: venue, edges: edges, args: args}
}

// appending absorbs the next same-chain hop. Ownership of the combined call
// sequence transfers to the returned operation; the original must no longer
// be used.
func (op *assetHubOperation) appending(edge *assetHubEdge, args execution.Args) *assetHubOperation {
	combined := op.args
	combined.Limit = swap.Limit{
		Direction: op.args.Limit.Direction,
		AmountIn:  util.CloneBig(op.args.Limit.AmountIn),
		AmountOut: util.CloneBig(args.Limit.AmountOut),
		Slippage:  op.args.Limit.Slippage,
	}
	return newAssetHubOperation(op.venue, append(op.edges, edge), combined)
}

func (op *assetHubOperation) AssetIn() chain.AssetID {
	return op.edges[0].origin
}

func (op *assetHubOperation) AssetOut() chain.AssetID {
	return op.edges[len(op.edges)-1].destination
}

func (op *assetHubOperation) Limit() swap.Limit {
	return op.args.Limit
}

func (op *assetHubOperation) IgnoresFeeRequirement() bool {
	return op.args.IgnoresFeeRequirement
}

// buildCall materializes the router call for the full fused path.
func (op *assetHubOperation) buildCall(ctx context.Context, limit swap.Limit) (chain.Call, error) {
	path := make([][]byte, 0, len(op.edges)+1)
	wireIn, err := op.venue.coder.ResolveAsset(ctx, op.AssetIn().AssetID)
	if err != nil {
		return chain.Call{}, err
	}
	path = append(path, wireIn)
	for _, edge := range op.edges {
		wire, err := op.venue.coder.ResolveAsset(ctx, edge.destination.AssetID)
		if err != nil {
			return chain.Call{}, err
		}
		path = append(path, wire)
	}

	method := assetHubSellCall
	args := map[string]any{
		"path":           path,
		"amount_in":      limit.AmountIn,
		"amount_out_min": limit.MinAmountOut(),
		"send_to":        string(op.venue.signer.Address()),
		"keep_alive":     true,
	}
	if limit.Direction == swap.DirectionBuy {
		method = assetHubBuyCall
		args = map[string]any{
			"path":          path,
			"amount_out":    limit.AmountOut,
			"amount_in_max": limit.MaxAmountIn(),
			"send_to":       string(op.venue.signer.Address()),
			"keep_alive":    true,
		}
	}
	return chain.Call{Module: assetHubSwapModule, Method: method, Args: args}, nil
}

// EstimateFee prices the submission in the requested fee asset. The chain
// reports the fee in its native asset; paying in another asset converts the
// requirement through the pool quoting it against the native one.
func (op *assetHubOperation) EstimateFee(ctx context.Context) (*fee.OperationFee, error) {
	op.To(execution.StateFeeEstimating)

	call, err := op.buildCall(ctx, op.args.Limit)
	if err != nil {
		return nil, fmt.Errorf("building swap call: %w", err)
	}
	encoded, err := op.venue.coder.EncodeCall(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("encoding swap call: %w", err)
	}
	nativeFee, err := op.venue.conn.PaymentInfo(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("querying payment info: %w", err)
	}

	utility, ok := op.venue.chain.UtilityAssetID()
	if !ok {
		return nil, util.ErrNoUtilityAsset
	}

	amount := nativeFee
	if op.args.FeeAsset != utility {
		amount, err = op.venue.quote(ctx, op.args.FeeAsset, utility, nativeFee, swap.DirectionBuy)
		if err != nil {
			return nil, fmt.Errorf("converting fee to %s: %w", op.args.FeeAsset, err)
		}
	}

	return &fee.OperationFee{
		Submission: fee.Charge{
			AmountWithAsset: fee.AmountWithAsset{Amount: amount, Asset: op.args.FeeAsset},
			Payer:           fee.Payer{},
		},
	}, nil
}

// RequiredAmountIn back-propagates an output requirement through the fused
// path with buy-direction quotes.
func (op *assetHubOperation) RequiredAmountIn(ctx context.Context, amountOut *big.Int) (*big.Int, error) {
	required := amountOut
	for i := len(op.edges) - 1; i >= 0; i-- {
		edge := op.edges[i]
		converted, err := op.venue.quote(ctx, edge.origin, edge.destination, required, swap.DirectionBuy)
		if err != nil {
			return nil, err
		}
		required = converted
	}
	return required, nil
}

// Execute submits the swap and extracts the realized output from the
// SwapExecuted event. A successful transaction without a matching event is
// a distinct failure, never treated as zero output.
func (op *assetHubOperation) Execute(ctx context.Context, limit swap.Limit) (*big.Int, error) {
	if op.PastSubmission() {
		return nil, util.ErrAlreadySubmitted
	}
	call, err := op.buildCall(ctx, limit)
	if err != nil {
		return nil, op.Fail(fmt.Errorf("building swap call: %w", err))
	}
	encoded, err := op.venue.coder.EncodeCall(ctx, call)
	if err != nil {
		return nil, op.Fail(fmt.Errorf("encoding swap call: %w", err))
	}
	signature, err := op.venue.signer.Sign(ctx, encoded)
	if err != nil {
		return nil, op.Fail(fmt.Errorf("signing: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return nil, op.Fail(util.ErrOperationCancelled)
	}

	statuses, err := op.venue.conn.SubmitAndWatch(ctx, append(encoded, signature...))
	if err != nil {
		return nil, op.Fail(fmt.Errorf("submitting: %w", err))
	}
	op.To(execution.StateSubmitted)

	for status := range statuses {
		switch status.Phase {
		case chain.PhaseBroadcast, chain.PhaseInBlock:
			op.To(execution.StateMonitoring)
		case chain.PhaseDropped:
			return nil, op.Fail(util.ErrTransactionDropped)
		case chain.PhaseFinalized:
			if status.ExecutionErr != nil {
				return nil, op.Fail(status.ExecutionErr)
			}
			amountOut, found := op.venue.coder.MatchSwapExecuted(status.Events, assetHubSwapModule, assetHubSwapEvent)
			if !found {
				return nil, op.Fail(util.ErrNoEventsInResult)
			}
			op.To(execution.StateSettled)
			return amountOut, nil
		}
	}
	// stream ended without a terminal phase: monitoring stopped locally
	return nil, op.Fail(util.ErrOperationCancelled)
}
