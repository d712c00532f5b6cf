package chain

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// InMemorySigner signs with an ed25519 key held in process memory. The
// account address is the hex-encoded public key.
type InMemorySigner struct {
	address AccountID
	key     ed25519.PrivateKey
}

// NewSignerFromSeed derives the keypair from a hex-encoded 32-byte seed.
func NewSignerFromSeed(seedHex string) (*InMemorySigner, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("malformed account seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("account seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	key := ed25519.NewKeyFromSeed(seed)
	public := key.Public().(ed25519.PublicKey)
	return &InMemorySigner{
		address: AccountID(hex.EncodeToString(public)),
		key:     key,
	}, nil
}

func (s *InMemorySigner) Address() AccountID {
	return s.address
}

func (s *InMemorySigner) Sign(_ context.Context, payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, payload), nil
}
