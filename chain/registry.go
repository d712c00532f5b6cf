package chain

import (
	"sync"

	"swaproute/util"
)

// Registry is the explicitly owned lookup of chains and their per-chain
// services. It is populated at session start and updated wholesale when the
// chain list changes; there is no hidden process-wide state.
type Registry struct {
	mu          sync.RWMutex
	chains      map[string]*Chain
	connections map[string]Connection
	coders      map[string]Coder
	signers     map[string]Signer
	onChange    []func()
}

func NewRegistry() *Registry {
	return &Registry{
		chains:      make(map[string]*Chain),
		connections: make(map[string]Connection),
		coders:      make(map[string]Coder),
		signers:     make(map[string]Signer),
	}
}

// SetChain installs or replaces a chain together with its services and
// notifies change subscribers.
func (r *Registry) SetChain(chain *Chain, conn Connection, coder Coder, signer Signer) {
	r.mu.Lock()
	r.chains[chain.ID] = chain
	r.connections[chain.ID] = conn
	r.coders[chain.ID] = coder
	r.signers[chain.ID] = signer
	listeners := append([]func(){}, r.onChange...)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

// RemoveChain drops a chain and its services.
func (r *Registry) RemoveChain(chainID string) {
	r.mu.Lock()
	delete(r.chains, chainID)
	delete(r.connections, chainID)
	delete(r.coders, chainID)
	delete(r.signers, chainID)
	listeners := append([]func(){}, r.onChange...)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

// OnChange registers a callback fired after every chain set mutation. Used
// by the exchange registry to rebuild its venue set.
func (r *Registry) OnChange(listener func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, listener)
}

func (r *Registry) Chain(chainID string) (*Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain, ok := r.chains[chainID]
	if !ok {
		return nil, util.ErrNoChain
	}
	return chain, nil
}

func (r *Registry) Chains() []*Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]*Chain, 0, len(r.chains))
	for _, c := range r.chains {
		chains = append(chains, c)
	}
	return chains
}

func (r *Registry) Connection(chainID string) (Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[chainID]
	if !ok {
		return nil, util.ErrNoConnection
	}
	return conn, nil
}

func (r *Registry) Coder(chainID string) (Coder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	coder, ok := r.coders[chainID]
	if !ok {
		return nil, util.ErrNoCoder
	}
	return coder, nil
}

func (r *Registry) Signer(chainID string) (Signer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	signer, ok := r.signers[chainID]
	if !ok {
		return nil, util.ErrNoAccount
	}
	return signer, nil
}
