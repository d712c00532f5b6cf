package graph

import (
	"container/heap"
	"math/big"

	"swaproute/chain"
)

type frontierItem struct {
	node     chain.AssetID
	amount   *big.Int
	priority int
	hops     int
	via      Edge

	// seq breaks priority ties by discovery order, keeping searches
	// deterministic for a fixed edge ordering.
	seq int
}

type frontier struct {
	items []frontierItem
	seq   int
}

func newFrontier() *frontier {
	f := &frontier{items: make([]frontierItem, 0, 16)}
	heap.Init(f)
	return f
}

func (f *frontier) push(item frontierItem) {
	item.seq = f.seq
	f.seq++
	heap.Push(f, item)
}

func (f *frontier) pop() frontierItem {
	return heap.Pop(f).(frontierItem)
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	if f.items[i].priority != f.items[j].priority {
		return f.items[i].priority < f.items[j].priority
	}
	return f.items[i].seq < f.items[j].seq
}

func (f *frontier) Swap(i, j int) {
	f.items[i], f.items[j] = f.items[j], f.items[i]
}

func (f *frontier) Push(x any) {
	f.items = append(f.items, x.(frontierItem))
}

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	item := old[n-1]
	f.items = old[:n-1]
	return item
}
