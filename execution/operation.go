// Package execution drives accepted routes hop by hop: one atomic
// operation per edge (or per fused edge run), strict sequencing, settled
// amounts re-derived from on-chain events rather than pre-trade quotes.
package execution

import (
	"context"
	"math/big"
	"sync"

	"swaproute/chain"
	"swaproute/fee"
	"swaproute/swap"
)

// State is the lifecycle of one atomic operation.
type State uint8

const (
	StateCreated State = iota
	StateFeeEstimating
	StateSubmitted
	StateMonitoring
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateFeeEstimating:
		return "feeEstimating"
	case StateSubmitted:
		return "submitted"
	case StateMonitoring:
		return "monitoring"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Args binds an operation to its swap limit and the asset its submission
// fee is paid in. IgnoresFeeRequirement is derived from the edge's chaining
// flag against its route predecessor.
type Args struct {
	Limit                 swap.Limit
	FeeAsset              chain.AssetID
	IgnoresFeeRequirement bool
}

// AtomicOperation is the execution unit for one hop, from fee estimation
// through submission to settlement. Implementations are venue-specific and
// are created fresh per execution attempt, never reused.
type AtomicOperation interface {
	fee.Segment

	AssetIn() chain.AssetID
	AssetOut() chain.AssetID
	Limit() swap.Limit
	State() State

	// Execute submits the operation bounded by the given limit, monitors
	// inclusion and returns the realized output amount extracted from
	// execution events. Cancelling the context before submission aborts
	// cheaply; afterwards it only stops local monitoring.
	Execute(ctx context.Context, limit swap.Limit) (*big.Int, error)
}

// Lifecycle is the shared state-machine bookkeeping venue operations embed.
type Lifecycle struct {
	mu        sync.Mutex
	state     State
	submitted bool
	err       error
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// PastSubmission reports whether the operation has reached the point where
// cancellation can no longer recall the on-chain transaction.
func (l *Lifecycle) PastSubmission() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submitted
}

func (l *Lifecycle) To(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	if state == StateSubmitted {
		l.submitted = true
	}
}

func (l *Lifecycle) Fail(err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateFailed
	l.err = err
	return err
}

func (l *Lifecycle) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
