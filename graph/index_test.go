package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaproute/chain"
)

func TestIndexDirectReachability(t *testing.T) {
	ix := BuildIndex([]Edge{
		edge(dot, usdt, 10, 1, 1),
		edge(usdt, usdc, 10, 1, 1),
	})

	assert.True(t, ix.CanReach(dot, usdt))
	assert.False(t, ix.CanReach(dot, usdc), "CanReach is single-hop")
	assert.ElementsMatch(t, []chain.AssetID{usdt}, ix.ReachableFrom(dot))
	assert.ElementsMatch(t, []chain.AssetID{dot}, ix.Sources(usdt))
}

func TestIndexTransitiveReachability(t *testing.T) {
	ix := BuildIndex([]Edge{
		edge(dot, usdt, 10, 1, 1),
		edge(usdt, usdc, 10, 1, 1),
	})

	assert.True(t, ix.TransitivelyReaches(dot, usdc))
	assert.False(t, ix.TransitivelyReaches(usdc, dot), "edges are directed")
	assert.False(t, ix.TransitivelyReaches(dot, glmr))
}

func TestAvailableDirectionsCoversTransitiveClosure(t *testing.T) {
	ix := BuildIndex([]Edge{
		edge(dot, usdt, 10, 1, 1),
		edge(usdt, usdc, 10, 1, 1),
	})

	directions := ix.AvailableDirections()
	assert.ElementsMatch(t, []chain.AssetID{usdt, usdc}, directions[dot])
	assert.ElementsMatch(t, []chain.AssetID{usdc}, directions[usdt])
	assert.NotContains(t, directions, glmr)
}

func TestGraphSnapshotIsImmutableUnderReplace(t *testing.T) {
	g := NewGraph()
	g.Replace([]Edge{edge(dot, usdt, 10, 1, 1)})

	before := g.Snapshot()
	require.True(t, before.TransitivelyReaches(dot, usdt))

	g.Replace([]Edge{edge(dot, usdc, 10, 1, 1)})

	// the old snapshot still answers from the old edge set
	assert.True(t, before.TransitivelyReaches(dot, usdt))
	assert.False(t, g.Snapshot().TransitivelyReaches(dot, usdt))
	assert.True(t, g.Snapshot().TransitivelyReaches(dot, usdc))
}

func TestEmptyGraphHasNoDirections(t *testing.T) {
	g := NewGraph()
	g.Replace(nil)

	assert.Empty(t, g.Snapshot().AvailableDirections())
}
