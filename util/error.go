package util

import (
	"errors"
	"fmt"
)

// ErrFeeBucketMismatch is a programming-contract violation: fee amounts were
// summed across different (asset, payer) buckets. Distinguished from the
// legitimate "no fee in this bucket" case, which returns zero.
type ErrFeeBucketMismatch struct {
	Wanted string
	Got    string
}

func NewFeeBucketMismatchError(wanted, got string) ErrFeeBucketMismatch {
	return ErrFeeBucketMismatch{
		Wanted: wanted,
		Got:    got,
	}
}

func (e ErrFeeBucketMismatch) Error() string {
	return fmt.Sprintf("fee bucket mismatch: summation requested for %s but entry belongs to %s", e.Wanted, e.Got)
}

var (
	ErrNoRoute             = errors.New("no route")
	ErrNoChain             = errors.New("no such chain")
	ErrNoAsset             = errors.New("no such asset")
	ErrNoConnection        = errors.New("no connection for chain")
	ErrNoCoder             = errors.New("no coder for chain")
	ErrNoAccount           = errors.New("no account for chain")
	ErrNoUtilityAsset      = errors.New("chain has no utility asset")
	ErrNoEventsInResult    = errors.New("no swap events in execution result")
	ErrQuoteUnavailable    = errors.New("edge cannot quote")
	ErrUnsupportedPair     = errors.New("unsupported asset pair")
	ErrOperationCancelled  = errors.New("operation cancelled")
	ErrAlreadySubmitted    = errors.New("operation already submitted")
	ErrEmptyRoute          = errors.New("route has no items")
	ErrFeeRouteMismatch    = errors.New("fee does not match route operations")
	ErrArrivalTimeout      = errors.New("timed out waiting for crosschain arrival")
	ErrRequestSuperseded   = errors.New("request superseded by a newer one")
	ErrTransactionDropped  = errors.New("transaction dropped before inclusion")
	ErrFeeAssetUnsupported = errors.New("asset cannot pay fees on any venue")
)
