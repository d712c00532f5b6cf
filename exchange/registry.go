package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"swaproute/chain"
	"swaproute/graph"
	"swaproute/util"
)

// Registry discovers which venues are usable given the current chain set
// and accounts, folds their edges into the shared graph and republishes the
// venue list wholesale on every change. Subscribers attaching late receive
// the last published value immediately.
type Registry struct {
	chains    *chain.Registry
	balances  chain.BalanceSource
	transfers []Transfer
	graph     *graph.Graph
	feeTokens *FeeTokenStore
	logger    *zerolog.Logger

	// rebuildMu serializes rebuilds so the published venue list and the
	// replaced edge set always come from the same generation
	rebuildMu sync.Mutex

	mu          sync.Mutex
	current     []Exchange
	published   bool
	subscribers map[int]chan []Exchange
	nextSubID   int
	cron        *cron.Cron
}

func NewRegistry(
	chains *chain.Registry,
	balances chain.BalanceSource,
	transfers []Transfer,
	exchangeGraph *graph.Graph,
	feeTokens *FeeTokenStore,
	logger *zerolog.Logger,
) *Registry {
	return &Registry{
		chains:      chains,
		balances:    balances,
		transfers:   transfers,
		graph:       exchangeGraph,
		feeTokens:   feeTokens,
		logger:      logger,
		subscribers: make(map[int]chan []Exchange),
	}
}

// Start performs the initial rebuild, re-triggers on chain registry changes
// and schedules the periodic resync that keeps pool-derived edges fresh.
func (r *Registry) Start(ctx context.Context, resyncInterval string) error {
	r.Rebuild(ctx)

	r.chains.OnChange(func() {
		r.Rebuild(context.Background())
	})

	c := cron.New()
	_, err := c.AddFunc("@every "+resyncInterval, func() {
		r.Rebuild(context.Background())
	})
	if err != nil {
		return err
	}
	c.Start()

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}

// Rebuild reconstructs the venue set and the edge graph from scratch and
// publishes the result. A venue that cannot be constructed or enumerated is
// excluded from this generation; the rest of the system keeps working.
func (r *Registry) Rebuild(ctx context.Context) {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()
	defer util.TimeTrack(time.Now(), "exchange.Rebuild", r.logger)

	exchanges := r.discoverVenues()

	edges := make([]graph.Edge, 0, 32)
	usable := make([]Exchange, 0, len(exchanges))
	for _, venue := range exchanges {
		venueEdges, err := venue.AvailableEdges(ctx)
		if err != nil {
			r.logger.Warn().Str("venue", venue.ID()).Err(err).Msg("venue excluded")
			continue
		}
		edges = append(edges, venueEdges...)
		usable = append(usable, venue)

		payable, err := venue.FeePayableAssets(ctx)
		if err != nil {
			r.logger.Debug().Str("venue", venue.ID()).Err(err).Msg("fee payable assets unavailable")
		} else {
			// additive merge: fee capability only grows within a session
			r.feeTokens.Add(payable...)
		}
	}

	// wholesale replacement: in-flight searches keep their snapshot
	r.graph.Replace(edges)
	r.publish(usable)

	r.logger.Info().
		Int("venues", len(usable)).
		Int("edges", len(edges)).
		Msg("exchange set rebuilt")
}

// discoverVenues constructs every venue whose prerequisites are currently
// met: an AMM venue per fully served chain, plus the transfer venue when
// corridors are configured.
func (r *Registry) discoverVenues() []Exchange {
	venues := make([]Exchange, 0, 4)
	for _, chainModel := range r.chains.Chains() {
		conn, err := r.chains.Connection(chainModel.ID)
		if err != nil {
			r.logger.Debug().Str("chain", chainModel.ID).Msg("no connection, skipping venue")
			continue
		}
		coder, err := r.chains.Coder(chainModel.ID)
		if err != nil {
			r.logger.Debug().Str("chain", chainModel.ID).Msg("no coder, skipping venue")
			continue
		}
		signer, err := r.chains.Signer(chainModel.ID)
		if err != nil {
			r.logger.Debug().Str("chain", chainModel.ID).Msg("no account, skipping venue")
			continue
		}
		venues = append(venues, NewAssetHub(chainModel, conn, coder, signer, r.balances, r.logger))
	}
	if len(r.transfers) > 0 {
		venues = append(venues, NewCrosschain(r.chains, r.balances, r.transfers, r.logger))
	}
	return venues
}

func (r *Registry) publish(exchanges []Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = exchanges
	r.published = true
	for _, subscriber := range r.subscribers {
		deliver(subscriber, exchanges)
	}
}

// deliver is at-least-once with last-value-wins: a full subscriber queue is
// drained of its stale value before the fresh one goes in.
func deliver(subscriber chan []Exchange, exchanges []Exchange) {
	for {
		select {
		case subscriber <- exchanges:
			return
		default:
			select {
			case <-subscriber:
			default:
			}
		}
	}
}

// Subscribe returns a channel of wholesale venue lists and an unsubscribe
// function. If a value was already published, it is delivered immediately.
func (r *Registry) Subscribe() (<-chan []Exchange, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	subscriber := make(chan []Exchange, 1)
	r.subscribers[id] = subscriber
	if r.published {
		subscriber <- r.current
	}

	unsubscribe := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, id)
	}
	return subscriber, unsubscribe
}

// Exchanges returns the last published venue list.
func (r *Registry) Exchanges() []Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
