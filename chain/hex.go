package chain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// rpcBytes marshals binary payloads as 0x-prefixed hex, the convention of
// the node RPC.
type rpcBytes []byte

func (b rpcBytes) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", "0x"+hex.EncodeToString(b))), nil
}

func (b *rpcBytes) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	s = strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decoding hex payload: %w", err)
	}
	*b = decoded
	return nil
}
