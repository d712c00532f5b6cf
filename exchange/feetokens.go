package exchange

import (
	"sync"

	"swaproute/chain"
)

// FeeTokenStore accumulates the set of assets currently known to be usable
// for fee payment. The set grows monotonically within a session: discovery
// sources merge additively and entries are only dropped when the store is
// torn down with the session. The store is injected, never a package
// global.
type FeeTokenStore struct {
	mu     sync.RWMutex
	assets map[chain.AssetID]struct{}
}

func NewFeeTokenStore() *FeeTokenStore {
	return &FeeTokenStore{assets: make(map[chain.AssetID]struct{})}
}

func (s *FeeTokenStore) Add(assets ...chain.AssetID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, asset := range assets {
		s.assets[asset] = struct{}{}
	}
}

func (s *FeeTokenStore) Contains(asset chain.AssetID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.assets[asset]
	return ok
}

func (s *FeeTokenStore) All() []chain.AssetID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make([]chain.AssetID, 0, len(s.assets))
	for asset := range s.assets {
		assets = append(assets, asset)
	}
	return assets
}
