package graph

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaproute/chain"
	"swaproute/execution"
	"swaproute/swap"
	"swaproute/util"
)

var (
	dot  = chain.NewAssetID("assethub", 0)
	usdt = chain.NewAssetID("assethub", 1984)
	usdc = chain.NewAssetID("assethub", 1337)
	glmr = chain.NewAssetID("moonbeam", 0)
)

// testEdge converts at a fixed integer rate, counting quote calls.
type testEdge struct {
	origin      chain.AssetID
	destination chain.AssetID
	venue       string
	weight      int

	rateNum, rateDenom int64
	quoteErr           error
	noIntermediateFees bool

	quoteCalls *int
}

func (e *testEdge) Origin() chain.AssetID      { return e.origin }
func (e *testEdge) Destination() chain.AssetID { return e.destination }

func (e *testEdge) Venue() string {
	if e.venue == "" {
		return "test"
	}
	return e.venue
}

func (e *testEdge) Weight(Edge) int { return e.weight }

func (e *testEdge) Quote(_ context.Context, amount *big.Int, direction swap.Direction) (*big.Int, error) {
	if e.quoteCalls != nil {
		*e.quoteCalls++
	}
	if e.quoteErr != nil {
		return nil, e.quoteErr
	}
	num, denom := e.rateNum, e.rateDenom
	if direction == swap.DirectionBuy {
		num, denom = denom, num
	}
	converted := new(big.Int).Mul(amount, big.NewInt(num))
	return converted.Quo(converted, big.NewInt(denom)), nil
}

func (e *testEdge) CanPayIntermediateNonNativeFees() bool { return !e.noIntermediateFees }
func (e *testEdge) RequiresOriginKeepAlive() bool         { return false }
func (e *testEdge) IgnoresFeeRequirementAfter(Edge) bool  { return false }

func (e *testEdge) BeginOperation(execution.Args) (execution.AtomicOperation, error) {
	return nil, errors.New("not executable")
}

func (e *testEdge) AppendToOperation(execution.AtomicOperation, execution.Args) execution.AtomicOperation {
	return nil
}

func edge(from, to chain.AssetID, weight int, rateNum, rateDenom int64) *testEdge {
	return &testEdge{origin: from, destination: to, weight: weight, rateNum: rateNum, rateDenom: rateDenom}
}

func finder(edges ...Edge) *PathFinder {
	logger := zerolog.Nop()
	return NewPathFinder(BuildIndex(edges), &logger)
}

func TestFindRouteDirect(t *testing.T) {
	pf := finder(edge(dot, usdt, 10, 2, 1))

	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{})
	require.NoError(t, err)

	require.Len(t, route.Items, 1)
	assert.Equal(t, dot, route.AssetIn())
	assert.Equal(t, usdt, route.AssetOut())
	assert.Equal(t, big.NewInt(1000), route.AmountIn())
	assert.Equal(t, big.NewInt(2000), route.AmountOut())
}

func TestFindRoutePrefersCheaperPath(t *testing.T) {
	pf := finder(
		edge(dot, usdt, 50, 2, 1),
		edge(dot, usdc, 10, 4, 1),
		edge(usdc, usdt, 10, 1, 2),
	)

	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{})
	require.NoError(t, err)

	require.Len(t, route.Items, 2)
	assert.Equal(t, usdc, route.Items[0].Edge.Destination())
	// amounts chain hop to hop
	assert.Equal(t, big.NewInt(4000), route.Items[1].AmountIn(route.Direction))
	assert.Equal(t, big.NewInt(2000), route.AmountOut())
}

func TestEqualCostResolvesByDiscoveryOrder(t *testing.T) {
	first := edge(dot, usdt, 10, 2, 1)
	first.venue = "first"
	second := edge(dot, usdt, 10, 3, 1)
	second.venue = "second"

	for i := 0; i < 5; i++ {
		pf := finder(first, second)
		route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(100), swap.DirectionSell, SearchOptions{})
		require.NoError(t, err)
		require.Len(t, route.Items, 1)
		assert.Equal(t, "first", route.Items[0].Edge.Venue())
	}
}

func TestUnreachablePairQuotesNothing(t *testing.T) {
	calls := 0
	connected := edge(dot, usdt, 10, 2, 1)
	connected.quoteCalls = &calls

	pf := finder(connected)

	_, err := pf.FindRoute(context.Background(), dot, glmr, big.NewInt(1000), swap.DirectionSell, SearchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrNoRoute)
	assert.Zero(t, calls, "unreachable pairs must be rejected before any quote")
}

func TestQuoteFailurePrunesEdgeAndSurvivesOnAlternative(t *testing.T) {
	broken := edge(dot, usdt, 10, 2, 1)
	broken.quoteErr = util.ErrQuoteUnavailable
	fallback := edge(dot, usdt, 20, 2, 1)
	fallback.venue = "fallback"

	pf := finder(broken, fallback)

	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", route.Items[0].Edge.Venue())
}

func TestQuoteFailuresReportedWhenExhausted(t *testing.T) {
	broken := edge(dot, usdt, 10, 2, 1)
	broken.quoteErr = util.ErrQuoteUnavailable

	pf := finder(broken)

	_, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{})
	require.Error(t, err)

	var noRoute *NoRouteError
	require.ErrorAs(t, err, &noRoute)
	require.Len(t, noRoute.QuoteFailures, 1)
	assert.ErrorIs(t, noRoute.QuoteFailures[0].Err, util.ErrQuoteUnavailable)
}

func TestBuyDirectionPropagatesRequirementBackward(t *testing.T) {
	pf := finder(
		edge(dot, usdc, 10, 4, 1),
		edge(usdc, usdt, 10, 1, 2),
	)

	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(2000), swap.DirectionBuy, SearchOptions{})
	require.NoError(t, err)

	// forward order despite the reverse search
	require.Len(t, route.Items, 2)
	assert.Equal(t, dot, route.AssetIn())
	assert.Equal(t, usdt, route.AssetOut())

	// 2000 usdt needs 4000 usdc needs 1000 dot
	assert.Equal(t, big.NewInt(2000), route.AmountOut())
	assert.Equal(t, big.NewInt(4000), route.Items[1].AmountIn(route.Direction))
	assert.Equal(t, big.NewInt(1000), route.AmountIn())
}

func TestMaxHopsBoundsSearch(t *testing.T) {
	pf := finder(
		edge(dot, usdc, 10, 1, 1),
		edge(usdc, glmr, 10, 1, 1),
		edge(glmr, usdt, 10, 1, 1),
	)

	_, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{MaxHops: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrNoRoute)

	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{MaxHops: 3})
	require.NoError(t, err)
	assert.Len(t, route.Items, 3)
}

func TestIntermediateFeeConstraintExcludesMidRouteEdges(t *testing.T) {
	restricted := edge(dot, usdc, 5, 1, 1)
	restricted.noIntermediateFees = true
	restrictedTail := edge(usdc, usdt, 5, 1, 1)

	supported := edge(dot, glmr, 20, 1, 1)
	supportedTail := edge(glmr, usdt, 20, 1, 1)

	pf := finder(restricted, restrictedTail, supported, supportedTail)

	// without the constraint the cheap path wins
	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, usdc, route.Items[0].Edge.Destination())

	// with it, the restricted edge cannot sit mid-route
	route, err = pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{RequireIntermediateFeeSupport: true})
	require.NoError(t, err)
	assert.Equal(t, glmr, route.Items[0].Edge.Destination())
}

func TestIntermediateFeeConstraintAdmitsFinalHop(t *testing.T) {
	lead := edge(dot, usdc, 10, 1, 1)
	final := edge(usdc, usdt, 10, 1, 1)
	final.noIntermediateFees = true

	pf := finder(lead, final)

	route, err := pf.FindRoute(context.Background(), dot, usdt, big.NewInt(1000), swap.DirectionSell, SearchOptions{RequireIntermediateFeeSupport: true})
	require.NoError(t, err)
	assert.Len(t, route.Items, 2)
}
