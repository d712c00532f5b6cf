package execution

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaproute/chain"
	"swaproute/fee"
	"swaproute/swap"
)

var (
	dot  = chain.NewAssetID("assethub", 0)
	usdt = chain.NewAssetID("assethub", 1984)
	usdc = chain.NewAssetID("assethub", 1337)
)

// fakeOperation settles at a fixed fraction of its input or fails.
type fakeOperation struct {
	Lifecycle
	assetIn, assetOut chain.AssetID
	limit             swap.Limit

	settleNum, settleDenom int64
	execErr                error
	preSubmitErr           error

	executedWith *swap.Limit
}

func (o *fakeOperation) AssetIn() chain.AssetID  { return o.assetIn }
func (o *fakeOperation) AssetOut() chain.AssetID { return o.assetOut }
func (o *fakeOperation) Limit() swap.Limit       { return o.limit }

func (o *fakeOperation) EstimateFee(context.Context) (*fee.OperationFee, error) {
	return &fee.OperationFee{}, nil
}

func (o *fakeOperation) RequiredAmountIn(_ context.Context, amountOut *big.Int) (*big.Int, error) {
	return new(big.Int).Set(amountOut), nil
}

func (o *fakeOperation) IgnoresFeeRequirement() bool { return false }

func (o *fakeOperation) Execute(_ context.Context, limit swap.Limit) (*big.Int, error) {
	o.executedWith = &limit
	o.To(StateFeeEstimating)
	if o.preSubmitErr != nil {
		return nil, o.Fail(o.preSubmitErr)
	}
	o.To(StateSubmitted)
	if o.execErr != nil {
		return nil, o.Fail(o.execErr)
	}
	o.To(StateSettled)
	settled := new(big.Int).Mul(limit.AmountIn, big.NewInt(o.settleNum))
	return settled.Quo(settled, big.NewInt(o.settleDenom)), nil
}

func hop(assetIn, assetOut chain.AssetID, amountIn, amountOut int64) *fakeOperation {
	return &fakeOperation{
		assetIn:     assetIn,
		assetOut:    assetOut,
		limit:       swap.NewLimit(swap.DirectionSell, big.NewInt(amountIn), big.NewInt(amountOut), swap.Rational{}),
		settleNum:   1,
		settleDenom: 1,
	}
}

func newTestManager(t *testing.T, operations ...AtomicOperation) *Manager {
	t.Helper()
	logger := zerolog.Nop()
	manager, err := NewManager(operations, nil, nil, &logger)
	require.NoError(t, err)
	return manager
}

func TestManagerRequiresOperations(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewManager(nil, nil, nil, &logger)
	assert.Error(t, err)
}

func TestManagerRejectsMismatchedFee(t *testing.T) {
	logger := zerolog.Nop()
	routeFee := &fee.RouteFee{Operations: []fee.OperationFee{{}, {}}}

	_, err := NewManager([]AtomicOperation{hop(dot, usdt, 1000, 2000)}, routeFee, nil, &logger)
	assert.Error(t, err)
}

func TestRunChainsSettledAmounts(t *testing.T) {
	// hop 1 settles 10% short of its quote; hop 2 must start from the
	// settled amount, not the quoted 2000
	first := hop(dot, usdt, 1000, 2000)
	first.settleNum, first.settleDenom = 18, 10
	second := hop(usdt, usdc, 2000, 2000)

	manager := newTestManager(t, first, second)

	out, err := manager.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(1800), out)
	require.NotNil(t, second.executedWith)
	assert.Equal(t, big.NewInt(1800), second.executedWith.AmountIn)
	assert.Equal(t, swap.DirectionSell, second.executedWith.Direction)
}

func TestRunPadsInitialInputWithIntermediateFees(t *testing.T) {
	only := hop(dot, usdt, 1000, 2000)
	routeFee := &fee.RouteFee{
		Operations:            []fee.OperationFee{{}},
		IntermediateInAssetIn: big.NewInt(50),
		FeeAsset:              dot,
	}

	logger := zerolog.Nop()
	manager, err := NewManager([]AtomicOperation{only}, routeFee, nil, &logger)
	require.NoError(t, err)

	_, err = manager.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1050), only.executedWith.AmountIn)
}

func TestRunHaltsOnMidRouteFailure(t *testing.T) {
	execErr := errors.New("transaction dropped")
	first := hop(dot, usdt, 1000, 2000)
	second := hop(usdt, usdc, 2000, 2000)
	second.execErr = execErr
	third := hop(usdc, dot, 2000, 1000)

	manager := newTestManager(t, first, second, third)

	_, err := manager.Run(context.Background())
	require.Error(t, err)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 0, partial.LastSettledHop)
	assert.ErrorIs(t, err, execErr)

	// the hop after the failure must never start
	assert.Nil(t, third.executedWith)
	assert.Equal(t, StateCreated, third.State())
}

func TestRunFirstHopFailureSettlesNothing(t *testing.T) {
	first := hop(dot, usdt, 1000, 2000)
	first.execErr = errors.New("dispatch error")

	manager := newTestManager(t, first)

	_, err := manager.Run(context.Background())
	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, -1, partial.LastSettledHop)
}

func TestRunEmitsHopEvents(t *testing.T) {
	first := hop(dot, usdt, 1000, 2000)
	manager := newTestManager(t, first)

	_, err := manager.Run(context.Background())
	require.NoError(t, err)

	events := []HopEvent{}
	for event := range manager.Events() {
		events = append(events, event)
	}
	require.Len(t, events, 2)
	assert.Equal(t, StateFeeEstimating, events[0].State)
	assert.Equal(t, StateSettled, events[1].State)
	assert.Equal(t, big.NewInt(2000), events[1].AmountOut)
}

func TestRunNeverReportsSubmissionForUnsubmittedHop(t *testing.T) {
	// a hop that dies while building its call was never submitted and must
	// not be streamed as such
	first := hop(dot, usdt, 1000, 2000)
	first.preSubmitErr = errors.New("encoding failed")
	manager := newTestManager(t, first)

	_, err := manager.Run(context.Background())
	require.Error(t, err)

	events := []HopEvent{}
	for event := range manager.Events() {
		events = append(events, event)
	}
	require.Len(t, events, 2)
	assert.Equal(t, StateFeeEstimating, events[0].State)
	assert.Equal(t, StateFailed, events[1].State)
	for _, event := range events {
		assert.NotEqual(t, StateSubmitted, event.State)
	}
}

func TestRunKeepsBuyDirectionOnFirstHop(t *testing.T) {
	only := hop(dot, usdt, 1000, 2000)
	only.limit = swap.NewLimit(swap.DirectionBuy, big.NewInt(1000), big.NewInt(2000), swap.Permill(10000))
	manager := newTestManager(t, only)

	_, err := manager.Run(context.Background())
	require.NoError(t, err)

	// an exact-out route executes its first hop exact-out: the venue call
	// guarantees the requested output, not output minus slippage
	require.NotNil(t, only.executedWith)
	assert.Equal(t, swap.DirectionBuy, only.executedWith.Direction)
	assert.Equal(t, big.NewInt(1000), only.executedWith.AmountIn)
	assert.Equal(t, big.NewInt(2000), only.executedWith.AmountOut)
}

func TestRunReplacesBuyWithSellAfterFirstHop(t *testing.T) {
	first := hop(dot, usdt, 1000, 2000)
	first.limit = swap.NewLimit(swap.DirectionBuy, big.NewInt(1000), big.NewInt(2000), swap.Permill(10000))
	second := hop(usdt, usdc, 2000, 1900)
	second.limit = swap.NewLimit(swap.DirectionBuy, big.NewInt(2000), big.NewInt(1900), swap.Permill(10000))

	manager := newTestManager(t, first, second)

	_, err := manager.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, swap.DirectionBuy, first.executedWith.Direction)
	// the second hop spends the settled amount, so its input is exact
	assert.Equal(t, swap.DirectionSell, second.executedWith.Direction)
	assert.Equal(t, big.NewInt(2000), second.executedWith.AmountIn)
}

func TestHopPastSubmissionDistinguishesEarlyFailure(t *testing.T) {
	submitted := hop(dot, usdt, 1000, 2000)
	manager := newTestManager(t, submitted)

	_, err := manager.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, manager.HopPastSubmission(0))

	// a hop that failed before submission never crossed the line
	early := hop(dot, usdt, 1000, 2000)
	early.To(StateFeeEstimating)
	require.Error(t, early.Fail(errors.New("estimation failed")))
	manager = newTestManager(t, early)
	assert.False(t, manager.HopPastSubmission(0))
	assert.False(t, manager.HopPastSubmission(7))
}

func TestLifecycleTracksSubmission(t *testing.T) {
	var lifecycle Lifecycle
	assert.False(t, lifecycle.PastSubmission())

	lifecycle.To(StateSubmitted)
	assert.True(t, lifecycle.PastSubmission())

	// failure after submission keeps the flag: funds may have moved
	require.Error(t, lifecycle.Fail(errors.New("dispatch error")))
	assert.True(t, lifecycle.PastSubmission())
	assert.Equal(t, StateFailed, lifecycle.State())
}
