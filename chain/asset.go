// Package chain holds the chain/asset model and the interfaces of the
// externally provided services the engine consumes: runtime coders, RPC
// connections, balance sources and signers.
package chain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// AssetID identifies an asset globally as a (chain, asset) pair. It is the
// node key of the exchange graph.
type AssetID struct {
	ChainID string
	AssetID uint32
}

func NewAssetID(chainID string, assetID uint32) AssetID {
	return AssetID{ChainID: chainID, AssetID: assetID}
}

func (a AssetID) String() string {
	return fmt.Sprintf("%s/%d", a.ChainID, a.AssetID)
}

// ParseAssetID parses the "chain/id" form String produces. The chain part
// may itself contain slashes; the asset number is everything after the
// last one.
func ParseAssetID(s string) (AssetID, error) {
	sep := strings.LastIndexByte(s, '/')
	if sep <= 0 || sep == len(s)-1 {
		return AssetID{}, fmt.Errorf("malformed asset id %q", s)
	}
	id, err := strconv.ParseUint(s[sep+1:], 10, 32)
	if err != nil {
		return AssetID{}, fmt.Errorf("malformed asset id %q: %w", s, err)
	}
	return AssetID{ChainID: s[:sep], AssetID: uint32(id)}, nil
}

// Asset is the chain-local asset description.
type Asset struct {
	ID                 uint32
	Symbol             string
	Decimals           uint8
	ExistentialDeposit *big.Int

	// Utility marks the chain's native fee asset.
	Utility bool
}

// Chain is the static chain model the registry hands out.
type Chain struct {
	ID     string
	Name   string
	Assets []Asset
}

func (c *Chain) Asset(id uint32) (Asset, bool) {
	for _, asset := range c.Assets {
		if asset.ID == id {
			return asset, true
		}
	}
	return Asset{}, false
}

// UtilityAsset returns the chain's native asset, the default fee payment
// asset for submissions on that chain.
func (c *Chain) UtilityAsset() (Asset, bool) {
	for _, asset := range c.Assets {
		if asset.Utility {
			return asset, true
		}
	}
	return Asset{}, false
}

func (c *Chain) UtilityAssetID() (AssetID, bool) {
	asset, ok := c.UtilityAsset()
	if !ok {
		return AssetID{}, false
	}
	return NewAssetID(c.ID, asset.ID), true
}

// AccountID is an opaque account address on some chain.
type AccountID string
