package consensus

import (
	"container/heap"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

// orderItem is a heap entry for epoch ordering. The comparison fields are
// snapshotted when the entry is pushed so the order is a pure function of
// the DAG content at sealing time.
type orderItem struct {
	node          *blockNode
	parentEpoch   int64
	subtreeWeight int64
}

// baseOrderHeap is an implementation for heap.Interface over order items.
type baseOrderHeap []*orderItem

func (h baseOrderHeap) Len() int      { return len(h) }
func (h baseOrderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *baseOrderHeap) Push(x interface{}) {
	*h = append(*h, x.(*orderItem))
}

func (h *baseOrderHeap) Pop() interface{} {
	oldHeap := *h
	oldLength := len(oldHeap)
	popped := oldHeap[oldLength-1]
	*h = oldHeap[0 : oldLength-1]
	return popped
}

// epochOrderHeap extends baseOrderHeap with the deterministic epoch order:
// ascending parent epoch number, then descending subtree weight, then
// ascending hash. Arrival order never participates, so every node derives
// the identical sequence from the same block set.
type epochOrderHeap struct{ baseOrderHeap }

func (h epochOrderHeap) Less(i, j int) bool {
	a, b := h.baseOrderHeap[i], h.baseOrderHeap[j]
	if a.parentEpoch != b.parentEpoch {
		return a.parentEpoch < b.parentEpoch
	}
	if a.subtreeWeight != b.subtreeWeight {
		return a.subtreeWeight > b.subtreeWeight
	}
	return daghash.Less(&a.node.hash, &b.node.hash)
}

// OrderHeap represents a mutable heap of order items, popped in the
// deterministic epoch order.
type OrderHeap struct {
	impl heap.Interface
}

// newOrderHeap initializes and returns a new OrderHeap.
func newOrderHeap() OrderHeap {
	h := OrderHeap{impl: &epochOrderHeap{}}
	heap.Init(h.impl)
	return h
}

// push pushes an item onto the heap.
func (oh OrderHeap) push(item *orderItem) {
	heap.Push(oh.impl, item)
}

// pop removes the first item in the epoch order from this heap and returns
// it.
func (oh OrderHeap) pop() *orderItem {
	return heap.Pop(oh.impl).(*orderItem)
}

// Len returns the length of this heap.
func (oh OrderHeap) Len() int {
	return oh.impl.Len()
}
