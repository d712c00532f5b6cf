package chain

import (
	"context"
	"fmt"
	"math/big"

	"swaproute/util"
)

const balanceMethod = "AssetsApi_balance"

// RPCBalanceSource answers balance queries through each chain's state-call
// endpoint. Existential deposits come from the static chain model, never
// from RPC.
type RPCBalanceSource struct {
	chains *Registry
}

func NewRPCBalanceSource(chains *Registry) *RPCBalanceSource {
	return &RPCBalanceSource{chains: chains}
}

func (b *RPCBalanceSource) Balance(ctx context.Context, account AccountID, asset AssetID) (*big.Int, error) {
	conn, err := b.chains.Connection(asset.ChainID)
	if err != nil {
		return nil, err
	}
	coder, err := b.chains.Coder(asset.ChainID)
	if err != nil {
		return nil, err
	}

	args, err := coder.EncodeStateArgs(ctx, balanceMethod, map[string]any{
		"account": string(account),
		"asset":   asset.AssetID,
	})
	if err != nil {
		return nil, fmt.Errorf("querying balance of %s: %w", asset, err)
	}
	raw, err := conn.StateCall(ctx, balanceMethod, args)
	if err != nil {
		return nil, fmt.Errorf("querying balance of %s: %w", asset, err)
	}
	decoded, err := coder.DecodeStateResult(ctx, balanceMethod, raw)
	if err != nil {
		return nil, fmt.Errorf("querying balance of %s: %w", asset, err)
	}
	balance, ok := decoded.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance result %T for %s", decoded, asset)
	}
	return balance, nil
}

func (b *RPCBalanceSource) ExistentialDeposit(_ context.Context, asset AssetID) (*big.Int, error) {
	chainModel, err := b.chains.Chain(asset.ChainID)
	if err != nil {
		return nil, err
	}
	model, ok := chainModel.Asset(asset.AssetID)
	if !ok {
		return nil, util.ErrNoAsset
	}
	return util.CloneBig(model.ExistentialDeposit), nil
}
