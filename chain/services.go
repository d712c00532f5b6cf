package chain

import (
	"context"
	"math/big"
)

// Call is an abstract runtime call before encoding. Venues produce calls,
// the chain coder turns them into submittable transaction bytes.
type Call struct {
	Module string
	Method string
	Args   map[string]any
}

// Event is a raw execution event emitted by an included transaction. The
// coder is the only component that understands its payload.
type Event struct {
	Module string
	Name   string
	Data   []byte
}

// Coder is the versioned codec for one chain. Implementations wrap the
// chain's runtime metadata and are replaced wholesale on runtime upgrades.
type Coder interface {
	// ResolveAsset maps a chain-local asset id to its wire-level identifier
	// understood by runtime calls and storage keys.
	ResolveAsset(ctx context.Context, assetID uint32) ([]byte, error)

	// EncodeCall encodes an abstract call into a submittable transaction
	// fragment.
	EncodeCall(ctx context.Context, call Call) ([]byte, error)

	// EncodeStateArgs encodes the argument payload of a runtime API call.
	EncodeStateArgs(ctx context.Context, method string, args map[string]any) ([]byte, error)

	// DecodeStateResult decodes a runtime API result into the Go shape
	// registered for the method (callers type-assert).
	DecodeStateResult(ctx context.Context, method string, data []byte) (any, error)

	// MatchSwapExecuted scans execution events for the venue's "swap
	// executed" signature and extracts the realized output amount. The
	// second return is false when no event matches.
	MatchSwapExecuted(events []Event, module, name string) (*big.Int, bool)
}

// BalanceSource reports balances and deposit requirements for sufficiency
// checks.
type BalanceSource interface {
	Balance(ctx context.Context, account AccountID, asset AssetID) (*big.Int, error)
	ExistentialDeposit(ctx context.Context, asset AssetID) (*big.Int, error)
}

// Signer produces a signature for a built transaction payload on behalf of
// one account.
type Signer interface {
	Address() AccountID
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}
