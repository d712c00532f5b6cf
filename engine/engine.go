package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/rs/zerolog"

	"swaproute/chain"
	"swaproute/exchange"
	"swaproute/execution"
	"swaproute/fee"
	"swaproute/graph"
	"swaproute/swap"
	"swaproute/util"
)

// Config bounds the search and sets the slippage applied to every hop limit.
type Config struct {
	MaxHops  int
	Slippage swap.Rational
}

// RouteArgs describes one conversion request. A zero FeeAsset defaults to
// the utility asset of the input chain.
type RouteArgs struct {
	AssetIn   chain.AssetID
	AssetOut  chain.AssetID
	Amount    *big.Int
	Direction swap.Direction
	FeeAsset  chain.AssetID
}

// Engine is the facade over routing, fee composition and execution. Quoting
// methods accept an optional slot name: a new request on the same slot
// cancels the one still in flight, which then fails with
// util.ErrRequestSuperseded. Executions never participate in slots.
type Engine struct {
	chains    *chain.Registry
	graph     *graph.Graph
	feeTokens *exchange.FeeTokenStore
	journal   *execution.Journal
	maxHops   int
	slippage  swap.Rational
	logger    *zerolog.Logger

	mu    sync.Mutex
	slots map[string]*slotEntry
}

type slotEntry struct {
	cancel context.CancelCauseFunc
}

func New(
	chains *chain.Registry,
	exchangeGraph *graph.Graph,
	feeTokens *exchange.FeeTokenStore,
	journal *execution.Journal,
	cfg Config,
	logger *zerolog.Logger,
) *Engine {
	return &Engine{
		chains:    chains,
		graph:     exchangeGraph,
		feeTokens: feeTokens,
		journal:   journal,
		maxHops:   cfg.MaxHops,
		slippage:  cfg.Slippage,
		logger:    logger,
		slots:     make(map[string]*slotEntry),
	}
}

// AvailableDirections reports every asset pair currently convertible,
// computed over the latest published graph.
func (e *Engine) AvailableDirections() map[chain.AssetID][]chain.AssetID {
	return e.graph.Snapshot().AvailableDirections()
}

// CanPayFees reports whether at least one venue accepts the asset for fee
// payment.
func (e *Engine) CanPayFees(asset chain.AssetID) bool {
	return e.feeTokens.Contains(asset)
}

// Quote finds the best route for the request and condenses it into a single
// converted amount.
func (e *Engine) Quote(ctx context.Context, args RouteArgs, slot string) (swap.Quote, error) {
	route, err := e.BuildRoute(ctx, args, slot)
	if err != nil {
		return swap.Quote{}, err
	}
	return route.Quote(), nil
}

// BuildRoute searches the current graph snapshot for the cheapest route
// satisfying the request and its fee-asset constraint.
func (e *Engine) BuildRoute(ctx context.Context, args RouteArgs, slot string) (*graph.Route, error) {
	_, nonNative, err := e.resolveFeeAsset(args)
	if err != nil {
		return nil, err
	}

	slotCtx, release := e.beginSlot(ctx, slot)
	defer release()

	finder := graph.NewPathFinder(e.graph.Snapshot(), e.logger)
	route, err := finder.FindRoute(slotCtx, args.AssetIn, args.AssetOut, args.Amount, args.Direction, graph.SearchOptions{
		MaxHops:                       e.maxHops,
		RequireIntermediateFeeSupport: nonNative,
	})
	if err != nil {
		return nil, e.slotErr(slotCtx, err)
	}
	return route, nil
}

// EstimateFee prices every operation of the route with the requested fee
// asset on the first hop and reports the aggregate, including downstream
// initiator fees converted back into the route's input asset.
func (e *Engine) EstimateFee(ctx context.Context, route *graph.Route, args RouteArgs) (*fee.RouteFee, error) {
	feeAsset, _, err := e.resolveFeeAsset(args)
	if err != nil {
		return nil, err
	}

	operations, err := e.prepareOperations(route, feeAsset)
	if err != nil {
		return nil, err
	}

	segments := make([]fee.Segment, len(operations))
	for i, operation := range operations {
		segments[i] = operation
	}
	return fee.Compose(ctx, segments, feeAsset)
}

// NewExecution materializes the route into atomic operations, composes the
// route fee over those exact operations and returns the manager that will
// run them. Fee and operations always come from the same materialization so
// their counts cannot drift apart.
func (e *Engine) NewExecution(ctx context.Context, route *graph.Route, args RouteArgs) (*execution.Manager, *fee.RouteFee, error) {
	feeAsset, _, err := e.resolveFeeAsset(args)
	if err != nil {
		return nil, nil, err
	}

	operations, err := e.prepareOperations(route, feeAsset)
	if err != nil {
		return nil, nil, err
	}

	segments := make([]fee.Segment, len(operations))
	for i, operation := range operations {
		segments[i] = operation
	}
	routeFee, err := fee.Compose(ctx, segments, feeAsset)
	if err != nil {
		return nil, nil, err
	}

	manager, err := execution.NewManager(operations, routeFee, e.journal, e.logger)
	if err != nil {
		return nil, nil, err
	}
	return manager, routeFee, nil
}

// Execute is the one-call path: materialize, price and run the route,
// returning the settled output amount.
func (e *Engine) Execute(ctx context.Context, route *graph.Route, args RouteArgs) (*big.Int, error) {
	manager, _, err := e.NewExecution(ctx, route, args)
	if err != nil {
		return nil, err
	}
	return manager.Run(ctx)
}

// prepareOperations turns route items into atomic operations, fusing
// consecutive edges that the venue can absorb into a single submission. The
// first operation pays its fee in the requested asset; every later group
// pays in its own input asset, which is what the composer converts back.
func (e *Engine) prepareOperations(route *graph.Route, feeAsset chain.AssetID) ([]execution.AtomicOperation, error) {
	if route == nil || len(route.Items) == 0 {
		return nil, util.ErrEmptyRoute
	}

	operations := make([]execution.AtomicOperation, 0, len(route.Items))
	var prevEdge graph.Edge
	for i, item := range route.Items {
		limit, err := route.Limit(i, e.slippage)
		if err != nil {
			return nil, err
		}

		operationFeeAsset := feeAsset
		if i > 0 {
			operationFeeAsset = item.Edge.Origin()
		}
		args := execution.Args{
			Limit:                 limit,
			FeeAsset:              operationFeeAsset,
			IgnoresFeeRequirement: prevEdge != nil && item.Edge.IgnoresFeeRequirementAfter(prevEdge),
		}

		if len(operations) > 0 {
			if fused := item.Edge.AppendToOperation(operations[len(operations)-1], args); fused != nil {
				operations[len(operations)-1] = fused
				prevEdge = item.Edge
				continue
			}
		}

		operation, err := item.Edge.BeginOperation(args)
		if err != nil {
			return nil, err
		}
		operations = append(operations, operation)
		prevEdge = item.Edge
	}
	return operations, nil
}

// resolveFeeAsset applies the utility-asset default and checks the result
// against the fee-payable set. The second return reports whether the fee is
// paid in something other than the input chain's utility asset, which
// constrains which edges may sit in intermediate route positions.
func (e *Engine) resolveFeeAsset(args RouteArgs) (chain.AssetID, bool, error) {
	chainModel, err := e.chains.Chain(args.AssetIn.ChainID)
	if err != nil {
		return chain.AssetID{}, false, err
	}
	utility, ok := chainModel.UtilityAssetID()
	if !ok {
		return chain.AssetID{}, false, util.ErrNoUtilityAsset
	}

	feeAsset := args.FeeAsset
	if feeAsset == (chain.AssetID{}) {
		feeAsset = utility
	}
	if feeAsset != utility && !e.feeTokens.Contains(feeAsset) {
		return chain.AssetID{}, false, util.ErrFeeAssetUnsupported
	}
	return feeAsset, feeAsset != utility, nil
}

// beginSlot registers the request under the slot, superseding any live
// predecessor. The returned release is idempotent for the caller's defer.
func (e *Engine) beginSlot(ctx context.Context, slot string) (context.Context, func()) {
	if slot == "" {
		return ctx, func() {}
	}

	slotCtx, cancel := context.WithCancelCause(ctx)
	entry := &slotEntry{cancel: cancel}

	e.mu.Lock()
	if prev, ok := e.slots[slot]; ok {
		prev.cancel(util.ErrRequestSuperseded)
	}
	e.slots[slot] = entry
	e.mu.Unlock()

	return slotCtx, func() {
		e.mu.Lock()
		if e.slots[slot] == entry {
			delete(e.slots, slot)
		}
		e.mu.Unlock()
		cancel(nil)
	}
}

// slotErr surfaces supersession as its own error instead of the generic
// context cancellation the search reports.
func (e *Engine) slotErr(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, util.ErrRequestSuperseded) {
		return util.ErrRequestSuperseded
	}
	return err
}
