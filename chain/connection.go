package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

// SubmissionPhase tracks a submitted transaction from broadcast to terminal
// inclusion.
type SubmissionPhase uint8

const (
	PhaseBroadcast SubmissionPhase = iota
	PhaseInBlock
	PhaseFinalized
	PhaseDropped
)

func (p SubmissionPhase) String() string {
	switch p {
	case PhaseBroadcast:
		return "broadcast"
	case PhaseInBlock:
		return "inBlock"
	case PhaseFinalized:
		return "finalized"
	case PhaseDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// SubmissionStatus is one update on a watched submission. Events are only
// populated on inclusion phases. ExecutionErr carries the on-chain dispatch
// failure verbatim when the transaction was included but failed.
type SubmissionStatus struct {
	Phase        SubmissionPhase
	TxHash       string
	Events       []Event
	ExecutionErr error
}

// Connection is the transport for one chain: state queries, fee queries and
// transaction submission with inclusion/finality notification.
type Connection interface {
	// StateCall performs a read-only runtime API call.
	StateCall(ctx context.Context, method string, args []byte) ([]byte, error)

	// PaymentInfo returns the submission fee the chain would charge for the
	// given encoded transaction.
	PaymentInfo(ctx context.Context, tx []byte) (*big.Int, error)

	// SubmitAndWatch broadcasts a signed transaction and streams status
	// updates until a terminal phase. The stream closes after the terminal
	// update; cancelling the context stops watching locally, it does not
	// recall an already broadcast transaction.
	SubmitAndWatch(ctx context.Context, tx []byte) (<-chan SubmissionStatus, error)
}

type rpcConnection struct {
	client *rpc.Client
	logger *zerolog.Logger
}

// Dial connects a JSON-RPC transport for one chain endpoint.
func Dial(ctx context.Context, url string, logger *zerolog.Logger) (Connection, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &rpcConnection{client: client, logger: logger}, nil
}

func (c *rpcConnection) StateCall(ctx context.Context, method string, args []byte) ([]byte, error) {
	var result rpcBytes
	if err := c.client.CallContext(ctx, &result, "state_call", method, rpcBytes(args)); err != nil {
		return nil, fmt.Errorf("state call %s: %w", method, err)
	}
	return result, nil
}

func (c *rpcConnection) PaymentInfo(ctx context.Context, tx []byte) (*big.Int, error) {
	var result struct {
		PartialFee string `json:"partialFee"`
	}
	if err := c.client.CallContext(ctx, &result, "payment_queryInfo", rpcBytes(tx)); err != nil {
		return nil, fmt.Errorf("payment info: %w", err)
	}
	fee, ok := new(big.Int).SetString(result.PartialFee, 10)
	if !ok {
		return nil, fmt.Errorf("payment info: malformed fee %q", result.PartialFee)
	}
	return fee, nil
}

func (c *rpcConnection) SubmitAndWatch(ctx context.Context, tx []byte) (<-chan SubmissionStatus, error) {
	updates := make(chan rawSubmissionUpdate, 8)
	sub, err := c.client.Subscribe(ctx, "author", updates, "submitAndWatchExtrinsic", rpcBytes(tx))
	if err != nil {
		return nil, fmt.Errorf("submit and watch: %w", err)
	}

	out := make(chan SubmissionStatus, 8)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					c.logger.Warn().Err(err).Msg("submission subscription failed")
				}
				return
			case update := <-updates:
				status, terminal := update.toStatus()
				select {
				case out <- status:
				case <-ctx.Done():
					return
				}
				if terminal {
					return
				}
			}
		}
	}()
	return out, nil
}

// rawSubmissionUpdate mirrors the wire shape of a submission status
// notification.
type rawSubmissionUpdate struct {
	Phase  string     `json:"phase"`
	TxHash string     `json:"txHash"`
	Error  string     `json:"error,omitempty"`
	Events []rawEvent `json:"events,omitempty"`
}

type rawEvent struct {
	Module string   `json:"module"`
	Name   string   `json:"name"`
	Data   rpcBytes `json:"data"`
}

func (u rawSubmissionUpdate) toStatus() (SubmissionStatus, bool) {
	status := SubmissionStatus{TxHash: u.TxHash}
	switch u.Phase {
	case "broadcast":
		status.Phase = PhaseBroadcast
	case "inBlock":
		status.Phase = PhaseInBlock
	case "finalized":
		status.Phase = PhaseFinalized
	case "dropped", "invalid":
		status.Phase = PhaseDropped
	}
	if u.Error != "" {
		status.ExecutionErr = fmt.Errorf("dispatch failed: %s", u.Error)
	}
	status.Events = make([]Event, 0, len(u.Events))
	for _, e := range u.Events {
		status.Events = append(status.Events, Event{Module: e.Module, Name: e.Name, Data: e.Data})
	}
	terminal := status.Phase == PhaseFinalized || status.Phase == PhaseDropped
	return status, terminal
}
