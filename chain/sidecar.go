package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
)

// ResultDecoder turns a sidecar JSON payload into the Go shape callers of
// DecodeStateResult type-assert for the method.
type ResultDecoder func(raw json.RawMessage) (any, error)

// SidecarCoder implements Coder by delegating metadata-dependent encoding
// and decoding to a per-chain codec sidecar. The sidecar tracks runtime
// upgrades; this side stays metadata-free.
type SidecarCoder struct {
	client *rpc.Client

	mu       sync.RWMutex
	decoders map[string]ResultDecoder
}

func NewSidecarCoder(ctx context.Context, url string) (*SidecarCoder, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing codec sidecar: %w", err)
	}
	coder := &SidecarCoder{
		client:   client,
		decoders: make(map[string]ResultDecoder),
	}
	coder.registerDefaults()
	return coder, nil
}

func (c *SidecarCoder) Close() {
	c.client.Close()
}

// RegisterResultDecoder binds a runtime API method to its result shape,
// replacing any previous binding.
func (c *SidecarCoder) RegisterResultDecoder(method string, decoder ResultDecoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[method] = decoder
}

func (c *SidecarCoder) registerDefaults() {
	c.decoders["AssetConversionApi_pools"] = decodePoolPairs
	c.decoders["AssetConversionApi_quote_price_exact_tokens_for_tokens"] = decodeOptionalAmount
	c.decoders["AssetConversionApi_quote_price_tokens_for_exact_tokens"] = decodeOptionalAmount
	c.decoders["AssetsApi_balance"] = decodeAmount
}

func (c *SidecarCoder) ResolveAsset(ctx context.Context, assetID uint32) ([]byte, error) {
	var resolved rpcBytes
	if err := c.client.CallContext(ctx, &resolved, "codec_resolveAsset", assetID); err != nil {
		return nil, fmt.Errorf("resolving asset %d: %w", assetID, err)
	}
	return resolved, nil
}

func (c *SidecarCoder) EncodeCall(ctx context.Context, call Call) ([]byte, error) {
	var encoded rpcBytes
	if err := c.client.CallContext(ctx, &encoded, "codec_encodeCall", call.Module, call.Method, call.Args); err != nil {
		return nil, fmt.Errorf("encoding %s.%s: %w", call.Module, call.Method, err)
	}
	return encoded, nil
}

func (c *SidecarCoder) EncodeStateArgs(ctx context.Context, method string, args map[string]any) ([]byte, error) {
	var encoded rpcBytes
	if err := c.client.CallContext(ctx, &encoded, "codec_encodeStateArgs", method, args); err != nil {
		return nil, fmt.Errorf("encoding args for %s: %w", method, err)
	}
	return encoded, nil
}

func (c *SidecarCoder) DecodeStateResult(ctx context.Context, method string, data []byte) (any, error) {
	c.mu.RLock()
	decoder, ok := c.decoders[method]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no result decoder registered for %s", method)
	}

	var raw json.RawMessage
	if err := c.client.CallContext(ctx, &raw, "codec_decodeStateResult", method, rpcBytes(data)); err != nil {
		return nil, fmt.Errorf("decoding result of %s: %w", method, err)
	}
	return decoder(raw)
}

// MatchSwapExecuted scans decoded events for the venue's swap signature.
// Event payloads arrive from the sidecar as JSON objects; the realized
// amount sits under "amount_out" as a decimal string.
func (c *SidecarCoder) MatchSwapExecuted(events []Event, module, name string) (*big.Int, bool) {
	for _, event := range events {
		if !strings.EqualFold(event.Module, module) || !strings.EqualFold(event.Name, name) {
			continue
		}
		var payload struct {
			AmountOut string `json:"amount_out"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			continue
		}
		amount, ok := new(big.Int).SetString(payload.AmountOut, 10)
		if !ok {
			continue
		}
		return amount, true
	}
	return nil, false
}

func decodePoolPairs(raw json.RawMessage) (any, error) {
	var pairs [][2]uint32
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("malformed pool list: %w", err)
	}
	return pairs, nil
}

func decodeAmount(raw json.RawMessage) (any, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("malformed amount: %w", err)
	}
	amount, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", text)
	}
	return amount, nil
}

// decodeOptionalAmount maps the runtime's Option<Balance> to a nil *big.Int
// when the quote is unavailable.
func decodeOptionalAmount(raw json.RawMessage) (any, error) {
	if string(raw) == "null" {
		return (*big.Int)(nil), nil
	}
	return decodeAmount(raw)
}
