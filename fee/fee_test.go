package fee

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaproute/chain"
	"swaproute/util"
)

var (
	dot  = chain.NewAssetID("assethub", 0)
	usdt = chain.NewAssetID("assethub", 1984)
	usdc = chain.NewAssetID("assethub", 1337)
)

func charge(asset chain.AssetID, amount int64, account chain.AccountID) Charge {
	return Charge{
		AmountWithAsset: AmountWithAsset{Asset: asset, Amount: big.NewInt(amount)},
		Payer:           Payer{Account: account},
	}
}

func TestOperationFeeBucketsAreExclusive(t *testing.T) {
	operationFee := OperationFee{
		Submission: charge(dot, 100, ""),
		PostSubmissionByAccount: []Charge{
			charge(dot, 30, ""),
			charge(usdt, 500, "delivery-account"),
		},
		PostSubmissionFromAmount: []AmountWithAsset{
			{Asset: usdt, Amount: big.NewInt(200)},
		},
	}

	// same asset, different payers
	assert.Equal(t, big.NewInt(130), operationFee.TotalAmountIn(dot, MatchInitiator()))
	assert.Equal(t, big.NewInt(0), operationFee.TotalAmountIn(usdt, MatchInitiator()))
	assert.Equal(t, big.NewInt(500), operationFee.TotalAmountIn(usdt, MatchAccount("delivery-account")))

	// from-amount entries never appear in account totals
	assert.Equal(t, big.NewInt(200), operationFee.TotalFromSwappedAmount(usdt))
	assert.Equal(t, big.NewInt(0), operationFee.TotalFromSwappedAmount(dot))
}

func TestTotalEnsuringSubmissionAssetRejectsForeignAsset(t *testing.T) {
	operationFee := OperationFee{
		Submission: charge(dot, 100, ""),
		PostSubmissionByAccount: []Charge{
			charge(usdt, 500, ""),
		},
	}

	_, err := operationFee.TotalEnsuringSubmissionAsset(MatchInitiator())
	require.Error(t, err)
	assert.ErrorAs(t, err, &util.ErrFeeBucketMismatch{})
}

func TestTotalEnsuringSubmissionAssetSkipsUnmatchedPayers(t *testing.T) {
	operationFee := OperationFee{
		Submission: charge(dot, 100, ""),
		PostSubmissionByAccount: []Charge{
			// different asset but also a different payer, so never summed
			charge(usdt, 500, "delivery-account"),
		},
	}

	total, err := operationFee.TotalEnsuringSubmissionAsset(MatchInitiator())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), total)
}

func TestRouteFeeGrandTotal(t *testing.T) {
	routeFee := RouteFee{
		Operations: []OperationFee{
			{Submission: charge(dot, 100, "")},
			{Submission: charge(dot, 40, ""), PostSubmissionByAccount: []Charge{charge(dot, 10, "")}},
		},
		FeeAsset: dot,
	}

	total, err := routeFee.TotalAmountIn(dot, MatchInitiator())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), total)
	assert.Equal(t, big.NewInt(140), routeFee.InitiatorSubmissionTotal())
}

func TestRouteFeeRejectsUnknownAsset(t *testing.T) {
	routeFee := RouteFee{
		Operations: []OperationFee{
			{Submission: charge(dot, 100, "")},
		},
		FeeAsset: dot,
	}

	// usdc appears in no bucket of this fee: wrong shape, not zero
	_, err := routeFee.TotalAmountIn(usdc, MatchInitiator())
	require.Error(t, err)
	assert.ErrorAs(t, err, &util.ErrFeeBucketMismatch{})
}

func TestDeductedFromPrincipal(t *testing.T) {
	routeFee := RouteFee{
		Operations: []OperationFee{
			{PostSubmissionFromAmount: []AmountWithAsset{{Asset: usdt, Amount: big.NewInt(200)}}},
			{PostSubmissionFromAmount: []AmountWithAsset{{Asset: usdt, Amount: big.NewInt(50)}}},
		},
	}

	totals := routeFee.DeductedFromPrincipal()
	require.Contains(t, totals, usdt)
	assert.Equal(t, big.NewInt(250), totals[usdt])
}

func TestInitialAmountInPadsIntermediates(t *testing.T) {
	routeFee := RouteFee{IntermediateInAssetIn: big.NewInt(42)}

	assert.Equal(t, big.NewInt(1042), routeFee.InitialAmountIn(big.NewInt(1000)))
	assert.Equal(t, big.NewInt(1000), (&RouteFee{}).InitialAmountIn(big.NewInt(1000)))
}
