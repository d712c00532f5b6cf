package fee

import (
	"math/big"

	"swaproute/chain"
	"swaproute/util"
)

// RouteFee aggregates the fees of every atomic operation of one route. The
// total of a multi-hop route is the per-hop sum, bucketed by (asset, payer).
type RouteFee struct {
	Operations []OperationFee

	// IntermediateInAssetIn is the extra input, denominated in the route's
	// first asset, required so that hops beyond the first can cover their
	// own account-debited fees.
	IntermediateInAssetIn *big.Int

	// FeeAsset is the asset the caller chose to pay the first submission
	// fee in.
	FeeAsset chain.AssetID
}

// TotalAmountIn sums entries across every hop matching both asset and payer
// matcher. The asset must belong to the fee model: querying an asset the fee
// never mentions is a wrong-shape call and errors rather than returning a
// silent zero.
func (f *RouteFee) TotalAmountIn(asset chain.AssetID, matcher PayerMatcher) (*big.Int, error) {
	known := false
	total := new(big.Int)
	for i := range f.Operations {
		op := &f.Operations[i]
		if _, ok := op.assets()[asset]; ok {
			known = true
		}
		total.Add(total, op.TotalAmountIn(asset, matcher))
	}
	if !known {
		return nil, util.NewFeeBucketMismatchError(asset.String(), "no bucket for asset")
	}
	return total, nil
}

// InitiatorSubmissionTotal is the amount the initiating account must hold in
// the chosen fee asset to cover submissions. This feeds the account balance
// sufficiency check.
func (f *RouteFee) InitiatorSubmissionTotal() *big.Int {
	total := new(big.Int)
	for i := range f.Operations {
		op := &f.Operations[i]
		if op.Submission.Asset == f.FeeAsset && op.Submission.Payer.IsInitiator() {
			total.Add(total, op.Submission.Amount)
		}
	}
	return total
}

// DeductedFromPrincipal is the amount taken directly out of the swapped
// principal across the route, per asset. This feeds the swapped-amount
// sufficiency check, not the account balance check.
func (f *RouteFee) DeductedFromPrincipal() map[chain.AssetID]*big.Int {
	totals := make(map[chain.AssetID]*big.Int)
	for i := range f.Operations {
		for _, entry := range f.Operations[i].PostSubmissionFromAmount {
			if _, ok := totals[entry.Asset]; !ok {
				totals[entry.Asset] = new(big.Int)
			}
			totals[entry.Asset].Add(totals[entry.Asset], entry.Amount)
		}
	}
	return totals
}

// InitialAmountIn is the route input padded with the intermediate fee
// requirement, the amount that must actually be available in the input
// asset before execution starts.
func (f *RouteFee) InitialAmountIn(routeAmountIn *big.Int) *big.Int {
	total := util.CloneBig(routeAmountIn)
	if f.IntermediateInAssetIn != nil {
		total.Add(total, f.IntermediateInAssetIn)
	}
	return total
}
