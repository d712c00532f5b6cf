package exchange

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"swaproute/chain"
	"swaproute/execution"
	"swaproute/fee"
	"swaproute/swap"
	"swaproute/util"
)

const (
	crosschainTransferModule = "xTokens"
	crosschainTransferCall   = "transfer"

	arrivalPollInterval = 6 * time.Second
	arrivalTimeout      = 5 * time.Minute
)

// crosschainOperation moves one amount across one corridor: submit the
// transfer on the origin chain, then confirm arrival by watching the
// destination balance. The realized output is the observed balance
// increase, not the pre-trade quote.
type crosschainOperation struct {
	execution.Lifecycle

	venue *Crosschain
	edge  *crosschainEdge
	args  execution.Args
}

func newCrosschainOperation(venue *Crosschain, edge *crosschainEdge, args execution.Args) *crosschainOperation {
	return &crosschainOperation{venue: venue, edge: edge, args: args}
}

func (op *crosschainOperation) AssetIn() chain.AssetID  { return op.edge.Origin() }
func (op *crosschainOperation) AssetOut() chain.AssetID { return op.edge.Destination() }
func (op *crosschainOperation) Limit() swap.Limit       { return op.args.Limit }

func (op *crosschainOperation) IgnoresFeeRequirement() bool {
	return op.args.IgnoresFeeRequirement
}

func (op *crosschainOperation) buildCall(ctx context.Context, amount *big.Int) (chain.Call, chain.Signer, error) {
	coder, err := op.venue.chains.Coder(op.edge.transfer.OriginChain)
	if err != nil {
		return chain.Call{}, nil, err
	}
	originSigner, err := op.venue.chains.Signer(op.edge.transfer.OriginChain)
	if err != nil {
		return chain.Call{}, nil, err
	}
	destSigner, err := op.venue.chains.Signer(op.edge.transfer.DestChain)
	if err != nil {
		return chain.Call{}, nil, err
	}
	wireAsset, err := coder.ResolveAsset(ctx, op.edge.transfer.OriginAsset)
	if err != nil {
		return chain.Call{}, nil, err
	}

	call := chain.Call{
		Module: crosschainTransferModule,
		Method: crosschainTransferCall,
		Args: map[string]any{
			"asset":       wireAsset,
			"amount":      amount,
			"dest_chain":  op.edge.transfer.DestChain,
			"beneficiary": string(destSigner.Address()),
		},
	}
	return call, originSigner, nil
}

// EstimateFee prices the origin submission in the origin chain's native
// asset and models the delivery fee as a post-submission entry paid
// directly from the transferred amount: it never debits an account, which
// is why it sits in its own bucket.
func (op *crosschainOperation) EstimateFee(ctx context.Context) (*fee.OperationFee, error) {
	op.To(execution.StateFeeEstimating)

	originChain, err := op.venue.chains.Chain(op.edge.transfer.OriginChain)
	if err != nil {
		return nil, err
	}
	utility, ok := originChain.UtilityAssetID()
	if !ok {
		return nil, util.ErrNoUtilityAsset
	}
	conn, err := op.venue.chains.Connection(op.edge.transfer.OriginChain)
	if err != nil {
		return nil, err
	}
	coder, err := op.venue.chains.Coder(op.edge.transfer.OriginChain)
	if err != nil {
		return nil, err
	}

	call, _, err := op.buildCall(ctx, op.args.Limit.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("building transfer call: %w", err)
	}
	encoded, err := coder.EncodeCall(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("encoding transfer call: %w", err)
	}
	submissionFee, err := conn.PaymentInfo(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("querying payment info: %w", err)
	}

	operationFee := &fee.OperationFee{
		Submission: fee.Charge{
			AmountWithAsset: fee.AmountWithAsset{Amount: submissionFee, Asset: utility},
			Payer:           fee.Payer{},
		},
	}
	if op.edge.transfer.DeliveryFee != nil && op.edge.transfer.DeliveryFee.Sign() > 0 {
		operationFee.PostSubmissionFromAmount = []fee.AmountWithAsset{{
			Amount: util.CloneBig(op.edge.transfer.DeliveryFee),
			Asset:  op.edge.Destination(),
		}}
	}
	return operationFee, nil
}

func (op *crosschainOperation) RequiredAmountIn(ctx context.Context, amountOut *big.Int) (*big.Int, error) {
	return op.edge.Quote(ctx, amountOut, swap.DirectionBuy)
}

func (op *crosschainOperation) Execute(ctx context.Context, limit swap.Limit) (*big.Int, error) {
	if op.PastSubmission() {
		return nil, util.ErrAlreadySubmitted
	}
	conn, err := op.venue.chains.Connection(op.edge.transfer.OriginChain)
	if err != nil {
		return nil, op.Fail(err)
	}
	coder, err := op.venue.chains.Coder(op.edge.transfer.OriginChain)
	if err != nil {
		return nil, op.Fail(err)
	}
	destSigner, err := op.venue.chains.Signer(op.edge.transfer.DestChain)
	if err != nil {
		return nil, op.Fail(err)
	}

	call, originSigner, err := op.buildCall(ctx, limit.AmountIn)
	if err != nil {
		return nil, op.Fail(fmt.Errorf("building transfer call: %w", err))
	}
	encoded, err := coder.EncodeCall(ctx, call)
	if err != nil {
		return nil, op.Fail(fmt.Errorf("encoding transfer call: %w", err))
	}
	signature, err := originSigner.Sign(ctx, encoded)
	if err != nil {
		return nil, op.Fail(fmt.Errorf("signing: %w", err))
	}

	// baseline before submission so the arrival diff is attributable
	destAccount := destSigner.Address()
	baseline, err := op.venue.balances.Balance(ctx, destAccount, op.edge.Destination())
	if err != nil {
		return nil, op.Fail(fmt.Errorf("reading destination balance: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return nil, op.Fail(util.ErrOperationCancelled)
	}

	statuses, err := conn.SubmitAndWatch(ctx, append(encoded, signature...))
	if err != nil {
		return nil, op.Fail(fmt.Errorf("submitting: %w", err))
	}
	op.To(execution.StateSubmitted)

	if err := op.awaitInclusion(statuses); err != nil {
		return nil, op.Fail(err)
	}
	return op.awaitArrival(ctx, destAccount, baseline, limit)
}

func (op *crosschainOperation) awaitInclusion(statuses <-chan chain.SubmissionStatus) error {
	for status := range statuses {
		switch status.Phase {
		case chain.PhaseBroadcast, chain.PhaseInBlock:
			op.To(execution.StateMonitoring)
		case chain.PhaseDropped:
			return util.ErrTransactionDropped
		case chain.PhaseFinalized:
			if status.ExecutionErr != nil {
				return status.ExecutionErr
			}
			return nil
		}
	}
	return util.ErrOperationCancelled
}

// awaitArrival polls the destination balance until the transferred amount
// lands or the timeout hits. The origin side has already committed at this
// point; a timeout is terminal for the hop but funds may still arrive.
func (op *crosschainOperation) awaitArrival(
	ctx context.Context,
	account chain.AccountID,
	baseline *big.Int,
	limit swap.Limit,
) (*big.Int, error) {
	minExpected := limit.MinAmountOut()
	deadline := time.NewTimer(arrivalTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(arrivalPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, op.Fail(util.ErrOperationCancelled)
		case <-deadline.C:
			return nil, op.Fail(util.ErrArrivalTimeout)
		case <-tick.C:
			current, err := op.venue.balances.Balance(ctx, account, op.edge.Destination())
			if err != nil {
				op.venue.logger.Warn().Err(err).Msg("arrival poll failed")
				continue
			}
			arrived := new(big.Int).Sub(current, baseline)
			if arrived.Cmp(minExpected) >= 0 {
				op.To(execution.StateSettled)
				return arrived, nil
			}
		}
	}
}
