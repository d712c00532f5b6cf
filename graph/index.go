package graph

import (
	"sync/atomic"

	"github.com/gammazero/deque"

	"swaproute/chain"
)

// Index is an immutable snapshot of the edge set with one-hop reachability
// precomputed in both directions. Answers "can X reach Y", "what does X
// reach" and "what reaches Y" in O(1) amortized.
type Index struct {
	edges     []Edge
	edgesFrom map[chain.AssetID][]Edge
	edgesTo   map[chain.AssetID][]Edge
	forward   map[chain.AssetID]map[chain.AssetID]struct{}
	inverse   map[chain.AssetID]map[chain.AssetID]struct{}
}

// BuildIndex folds the edge set into a fresh index. Edge slice order is
// preserved per origin, which fixes route search discovery order.
func BuildIndex(edges []Edge) *Index {
	ix := &Index{
		edges:     edges,
		edgesFrom: make(map[chain.AssetID][]Edge),
		edgesTo:   make(map[chain.AssetID][]Edge),
		forward:   make(map[chain.AssetID]map[chain.AssetID]struct{}),
		inverse:   make(map[chain.AssetID]map[chain.AssetID]struct{}),
	}
	for _, edge := range edges {
		origin, destination := edge.Origin(), edge.Destination()
		ix.edgesFrom[origin] = append(ix.edgesFrom[origin], edge)
		ix.edgesTo[destination] = append(ix.edgesTo[destination], edge)
		allocate(ix.forward, origin)[destination] = struct{}{}
		allocate(ix.inverse, destination)[origin] = struct{}{}
	}
	return ix
}

func allocate(links map[chain.AssetID]map[chain.AssetID]struct{}, key chain.AssetID) map[chain.AssetID]struct{} {
	if links[key] == nil {
		links[key] = make(map[chain.AssetID]struct{})
	}
	return links[key]
}

func (ix *Index) Edges() []Edge {
	return ix.edges
}

// CanReach reports one-hop convertibility.
func (ix *Index) CanReach(from, to chain.AssetID) bool {
	_, ok := ix.forward[from][to]
	return ok
}

// ReachableFrom returns all one-hop destinations of an asset.
func (ix *Index) ReachableFrom(from chain.AssetID) []chain.AssetID {
	return setKeys(ix.forward[from])
}

// Sources returns all assets that reach the given asset in one hop.
func (ix *Index) Sources(to chain.AssetID) []chain.AssetID {
	return setKeys(ix.inverse[to])
}

func setKeys(set map[chain.AssetID]struct{}) []chain.AssetID {
	keys := make([]chain.AssetID, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	return keys
}

// TransitivelyReaches reports whether to is reachable from from over any
// number of hops. Used to short-circuit route searches before any quote
// call is made.
func (ix *Index) TransitivelyReaches(from, to chain.AssetID) bool {
	if from == to {
		return false
	}
	visited := map[chain.AssetID]struct{}{from: {}}
	var frontier deque.Deque[chain.AssetID]
	frontier.PushBack(from)
	for frontier.Len() > 0 {
		node := frontier.PopFront()
		for next := range ix.forward[node] {
			if next == to {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			frontier.PushBack(next)
		}
	}
	return false
}

// AvailableDirections maps every origin asset to its full multi-hop
// reachable set.
func (ix *Index) AvailableDirections() map[chain.AssetID][]chain.AssetID {
	result := make(map[chain.AssetID][]chain.AssetID, len(ix.forward))
	for origin := range ix.forward {
		result[origin] = ix.reachableSet(origin)
	}
	return result
}

func (ix *Index) reachableSet(from chain.AssetID) []chain.AssetID {
	visited := map[chain.AssetID]struct{}{from: {}}
	reachable := make([]chain.AssetID, 0)
	var frontier deque.Deque[chain.AssetID]
	frontier.PushBack(from)
	for frontier.Len() > 0 {
		node := frontier.PopFront()
		for next := range ix.forward[node] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			reachable = append(reachable, next)
			frontier.PushBack(next)
		}
	}
	return reachable
}

// Graph holds the current index and swaps it wholesale when the edge set
// changes. Readers take a snapshot and never observe a partial update.
type Graph struct {
	index atomic.Pointer[Index]
}

func NewGraph() *Graph {
	g := &Graph{}
	g.index.Store(BuildIndex(nil))
	return g
}

func (g *Graph) Replace(edges []Edge) {
	g.index.Store(BuildIndex(edges))
}

func (g *Graph) Snapshot() *Index {
	return g.index.Load()
}
