// Package fee models exchange fees as (asset, payer) buckets. Amounts from
// different buckets are never commensurable: queries sum only matching
// entries and cross-bucket totals fail loudly instead of misreporting.
package fee

import (
	"math/big"

	"swaproute/chain"
	"swaproute/util"
)

// AmountWithAsset tags an amount with the asset it is denominated in.
type AmountWithAsset struct {
	Amount *big.Int
	Asset  chain.AssetID
}

// Payer identifies the account a fee entry debits. The zero value means the
// initiating account.
type Payer struct {
	Account chain.AccountID
}

func (p Payer) IsInitiator() bool {
	return p.Account == ""
}

// Charge is one fee entry debited from an account.
type Charge struct {
	AmountWithAsset
	Payer Payer
}

// OperationFee is the fee of a single atomic operation, split into the
// submission fee and post-submission fees. Post-submission entries paid
// directly from the swapped amount never debit an account, which changes
// how balance sufficiency is checked upstream.
type OperationFee struct {
	Submission               Charge
	PostSubmissionByAccount  []Charge
	PostSubmissionFromAmount []AmountWithAsset
}

// PayerMatcher selects fee entries by paying account.
type PayerMatcher func(Payer) bool

// MatchInitiator selects entries paid by the initiating account.
func MatchInitiator() PayerMatcher {
	return func(p Payer) bool { return p.IsInitiator() }
}

// MatchAccount selects entries paid by one specific account.
func MatchAccount(account chain.AccountID) PayerMatcher {
	return func(p Payer) bool { return p.Account == account }
}

// MatchAnyAccount selects every account-debited entry.
func MatchAnyAccount() PayerMatcher {
	return func(Payer) bool { return true }
}

// assets returns every asset the fee mentions, for bucket-shape validation.
func (f *OperationFee) assets() map[chain.AssetID]struct{} {
	known := make(map[chain.AssetID]struct{})
	known[f.Submission.Asset] = struct{}{}
	for _, charge := range f.PostSubmissionByAccount {
		known[charge.Asset] = struct{}{}
	}
	for _, entry := range f.PostSubmissionFromAmount {
		known[entry.Asset] = struct{}{}
	}
	return known
}

// TotalAmountIn sums the entries matching both the asset and the payer
// matcher. Entries in other buckets are excluded, never converted.
func (f *OperationFee) TotalAmountIn(asset chain.AssetID, matcher PayerMatcher) *big.Int {
	total := new(big.Int)
	if f.Submission.Asset == asset && matcher(f.Submission.Payer) {
		total.Add(total, f.Submission.Amount)
	}
	for _, charge := range f.PostSubmissionByAccount {
		if charge.Asset == asset && matcher(charge.Payer) {
			total.Add(total, charge.Amount)
		}
	}
	return total
}

// TotalFromSwappedAmount sums the entries deducted directly from the
// principal flowing through the operation.
func (f *OperationFee) TotalFromSwappedAmount(asset chain.AssetID) *big.Int {
	total := new(big.Int)
	for _, entry := range f.PostSubmissionFromAmount {
		if entry.Asset == asset {
			total.Add(total, entry.Amount)
		}
	}
	return total
}

// TotalEnsuringSubmissionAsset totals the account-debited entries matching
// the payer matcher, requiring every matched entry to be denominated in the
// submission asset. A matched entry in a different asset is a contract
// violation and fails loudly.
func (f *OperationFee) TotalEnsuringSubmissionAsset(matcher PayerMatcher) (*big.Int, error) {
	total := new(big.Int)
	if matcher(f.Submission.Payer) {
		total.Add(total, f.Submission.Amount)
	}
	for _, charge := range f.PostSubmissionByAccount {
		if !matcher(charge.Payer) {
			continue
		}
		if charge.Asset != f.Submission.Asset {
			return nil, util.NewFeeBucketMismatchError(
				f.Submission.Asset.String(),
				charge.Asset.String(),
			)
		}
		total.Add(total, charge.Amount)
	}
	return total, nil
}
