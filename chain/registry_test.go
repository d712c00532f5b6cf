package chain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaproute/util"
)

func polkadotAssetHub() *Chain {
	return &Chain{
		ID:   "polkadot-assethub",
		Name: "Polkadot Asset Hub",
		Assets: []Asset{
			{ID: 0, Symbol: "DOT", Decimals: 10, Utility: true},
			{ID: 1984, Symbol: "USDT", Decimals: 6},
		},
	}
}

func TestRegistryLookupErrors(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Chain("polkadot-assethub")
	assert.ErrorIs(t, err, util.ErrNoChain)
	_, err = registry.Connection("polkadot-assethub")
	assert.ErrorIs(t, err, util.ErrNoConnection)
	_, err = registry.Coder("polkadot-assethub")
	assert.ErrorIs(t, err, util.ErrNoCoder)
	_, err = registry.Signer("polkadot-assethub")
	assert.ErrorIs(t, err, util.ErrNoAccount)
}

func TestRegistryNotifiesOnEveryMutation(t *testing.T) {
	registry := NewRegistry()
	notified := 0
	registry.OnChange(func() { notified++ })

	registry.SetChain(polkadotAssetHub(), nil, nil, nil)
	registry.RemoveChain("polkadot-assethub")

	assert.Equal(t, 2, notified)
	_, err := registry.Chain("polkadot-assethub")
	assert.ErrorIs(t, err, util.ErrNoChain)
}

func TestChainUtilityAsset(t *testing.T) {
	model := polkadotAssetHub()

	utility, ok := model.UtilityAsset()
	require.True(t, ok)
	assert.Equal(t, "DOT", utility.Symbol)

	id, ok := model.UtilityAssetID()
	require.True(t, ok)
	assert.Equal(t, NewAssetID("polkadot-assethub", 0), id)

	_, ok = (&Chain{ID: "bare"}).UtilityAssetID()
	assert.False(t, ok)
}

func TestParseAssetIDRoundTrip(t *testing.T) {
	id := NewAssetID("polkadot-assethub", 1984)

	parsed, err := ParseAssetID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, malformed := range []string{"", "polkadot-assethub", "polkadot-assethub/", "/7", "chain/notanumber"} {
		_, err := ParseAssetID(malformed)
		assert.Error(t, err, malformed)
	}
}

func TestSignerFromSeed(t *testing.T) {
	signer, err := NewSignerFromSeed("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	require.NoError(t, err)
	assert.NotEmpty(t, signer.Address())

	signature, err := signer.Sign(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Len(t, signature, 64)

	_, err = NewSignerFromSeed("deadbeef")
	assert.Error(t, err, "short seeds are rejected")
}

func TestRPCBytesHexEncoding(t *testing.T) {
	payload := rpcBytes{0x01, 0xab}

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Equal(t, `"0x01ab"`, string(encoded))

	var decoded rpcBytes
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, payload, decoded)
}
