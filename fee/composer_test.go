package fee

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaproute/chain"
)

type fakeSegment struct {
	fee        *OperationFee
	feeErr     error
	ignoresFee bool

	// requiredAmountIn multiplies the requirement to emulate a conversion
	// rate through the segment
	rateNum, rateDenom int64

	requiredCalls []*big.Int
}

func (s *fakeSegment) EstimateFee(context.Context) (*OperationFee, error) {
	if s.feeErr != nil {
		return nil, s.feeErr
	}
	return s.fee, nil
}

func (s *fakeSegment) RequiredAmountIn(_ context.Context, amountOut *big.Int) (*big.Int, error) {
	s.requiredCalls = append(s.requiredCalls, new(big.Int).Set(amountOut))
	converted := new(big.Int).Mul(amountOut, big.NewInt(s.rateNum))
	return converted.Quo(converted, big.NewInt(s.rateDenom)), nil
}

func (s *fakeSegment) IgnoresFeeRequirement() bool {
	return s.ignoresFee
}

func initiatorFee(asset chain.AssetID, amount int64) *OperationFee {
	return &OperationFee{Submission: charge(asset, amount, "")}
}

func TestComposeBackPropagatesIntermediateFees(t *testing.T) {
	// the last two hops pay their own submission fees, which must surface
	// as extra input on the way in
	first := &fakeSegment{fee: initiatorFee(dot, 100), rateNum: 2, rateDenom: 1}
	second := &fakeSegment{fee: initiatorFee(usdt, 30), rateNum: 3, rateDenom: 1}
	third := &fakeSegment{fee: initiatorFee(usdc, 10)}

	routeFee, err := Compose(context.Background(), []Segment{first, second, third}, dot)
	require.NoError(t, err)

	// 10 usdc through hop 2 costs 30 usdt, plus hop 2's own 30 usdt fee,
	// then 60 usdt through hop 1 costs 120 dot
	assert.Equal(t, big.NewInt(120), routeFee.IntermediateInAssetIn)
	require.Len(t, second.requiredCalls, 1)
	assert.Equal(t, big.NewInt(10), second.requiredCalls[0])
	require.Len(t, first.requiredCalls, 1)
	assert.Equal(t, big.NewInt(60), first.requiredCalls[0])
}

func TestComposeSkipsIgnoredSegments(t *testing.T) {
	first := &fakeSegment{fee: initiatorFee(dot, 100), rateNum: 2, rateDenom: 1}
	// a fused follower whose cost the predecessor's submission covers
	second := &fakeSegment{fee: initiatorFee(usdt, 30), ignoresFee: true, rateNum: 1, rateDenom: 1}

	routeFee, err := Compose(context.Background(), []Segment{first, second}, dot)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(0), routeFee.IntermediateInAssetIn)
	assert.Empty(t, first.requiredCalls, "nothing to convert when every follower is covered")
}

func TestComposeFirstHopFeeIsNotIntermediate(t *testing.T) {
	only := &fakeSegment{fee: initiatorFee(dot, 100)}

	routeFee, err := Compose(context.Background(), []Segment{only}, dot)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(0), routeFee.IntermediateInAssetIn)
	require.Len(t, routeFee.Operations, 1)
	assert.Equal(t, big.NewInt(100), routeFee.Operations[0].Submission.Amount)
}

func TestComposeIsAllOrNothing(t *testing.T) {
	broken := errors.New("no connection")
	first := &fakeSegment{fee: initiatorFee(dot, 100)}
	second := &fakeSegment{feeErr: broken}

	_, err := Compose(context.Background(), []Segment{first, second}, dot)
	require.Error(t, err)
	assert.ErrorIs(t, err, broken)
}
