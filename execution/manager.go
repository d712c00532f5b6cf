package execution

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"swaproute/fee"
	"swaproute/util"
)

// HopEvent is one per-hop progress notification emitted during a run.
type HopEvent struct {
	Index     int
	State     State
	AmountOut *big.Int
	Err       error
}

// PartialFailureError reports a route that failed mid-execution. Hops up to
// and including LastSettledHop have committed on-chain and are not reverted;
// reconciliation is the caller's responsibility.
type PartialFailureError struct {
	LastSettledHop int
	Err            error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("execution halted after hop %d settled: %v", e.LastSettledHop, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Manager runs one accepted route to completion or terminal failure. Hops
// execute strictly in sequence: hop N+1 starts from the amount hop N settled
// at, never from the pre-trade quote, so slippage is absorbed hop by hop.
// A manager is single-use.
type Manager struct {
	operations []AtomicOperation
	routeFee   *fee.RouteFee
	journal    *Journal
	events     chan HopEvent
	logger     *zerolog.Logger
}

func NewManager(
	operations []AtomicOperation,
	routeFee *fee.RouteFee,
	journal *Journal,
	logger *zerolog.Logger,
) (*Manager, error) {
	if len(operations) == 0 {
		return nil, util.ErrEmptyRoute
	}
	if routeFee != nil && len(routeFee.Operations) != len(operations) {
		return nil, util.ErrFeeRouteMismatch
	}
	return &Manager{
		operations: operations,
		routeFee:   routeFee,
		journal:    journal,
		events:     make(chan HopEvent, len(operations)*4),
		logger:     logger,
	}, nil
}

// Events streams per-hop settlement progress. The channel closes when the
// run terminates.
func (m *Manager) Events() <-chan HopEvent {
	return m.events
}

// HopPastSubmission reports whether hop i has crossed the point of no cheap
// cancellation.
func (m *Manager) HopPastSubmission(i int) bool {
	if i < 0 || i >= len(m.operations) {
		return false
	}
	type submissionAware interface{ PastSubmission() bool }
	if aware, ok := m.operations[i].(submissionAware); ok {
		return aware.PastSubmission()
	}
	state := m.operations[i].State()
	return state == StateSubmitted || state == StateMonitoring || state == StateSettled
}

// Run executes the chain and returns the final settled balance. On mid-route
// failure it returns a PartialFailureError carrying the index of the last
// hop that settled (-1 when none did).
func (m *Manager) Run(ctx context.Context) (*big.Int, error) {
	defer close(m.events)
	defer util.TimeTrack(time.Now(), "execution.Run", m.logger)

	amount := m.initialAmountIn()
	lastSettled := -1

	for i, operation := range m.operations {
		if err := ctx.Err(); err != nil {
			return nil, m.halt(i, lastSettled, util.ErrOperationCancelled)
		}

		// the first hop starts from the padded initial input and keeps the
		// route direction; later hops spend a settled amount, which makes
		// their input exact
		limit := operation.Limit().ReplacingAmountIn(amount)
		if i > 0 {
			limit = limit.ReplacingBuyWithSell()
		}

		m.emit(HopEvent{Index: i, State: StateFeeEstimating})
		m.logger.Info().
			Int("hop", i).
			Str("assetIn", operation.AssetIn().String()).
			Str("assetOut", operation.AssetOut().String()).
			Str("amountIn", amount.String()).
			Msg("executing hop")

		settled, err := operation.Execute(ctx, limit)
		if err != nil {
			m.record(i, operation, amount, nil, err)
			m.emit(HopEvent{Index: i, State: StateFailed, Err: err})
			return nil, m.halt(i, lastSettled, err)
		}

		m.record(i, operation, amount, settled, nil)
		m.emit(HopEvent{Index: i, State: StateSettled, AmountOut: settled})
		lastSettled = i
		amount = settled
	}

	m.logger.Info().Str("amountOut", amount.String()).Msg("route executed")
	return amount, nil
}

// initialAmountIn pads the first hop's input with the intermediate fee
// requirement so later hops can cover their own fees.
func (m *Manager) initialAmountIn() *big.Int {
	base := m.operations[0].Limit().AmountIn
	if m.routeFee == nil {
		return util.CloneBig(base)
	}
	return m.routeFee.InitialAmountIn(base)
}

func (m *Manager) halt(failedHop, lastSettled int, err error) error {
	m.logger.Error().
		Int("hop", failedHop).
		Int("lastSettled", lastSettled).
		Err(err).
		Msg("execution halted")
	return &PartialFailureError{LastSettledHop: lastSettled, Err: err}
}

func (m *Manager) emit(event HopEvent) {
	select {
	case m.events <- event:
	default:
		// a slow subscriber never blocks execution
	}
}

func (m *Manager) record(i int, op AtomicOperation, amountIn, amountOut *big.Int, execErr error) {
	if m.journal == nil {
		return
	}
	record := Record{
		Hop:       i,
		AssetIn:   op.AssetIn().String(),
		AssetOut:  op.AssetOut().String(),
		AmountIn:  amountIn.String(),
		Timestamp: time.Now().Unix(),
	}
	if execErr != nil {
		record.Error = execErr.Error()
	} else {
		record.AmountOut = amountOut.String()
	}
	if err := m.journal.Append(record); err != nil {
		m.logger.Warn().Err(err).Msg("journal append failed")
	}
}
