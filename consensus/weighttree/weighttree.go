// Package weighttree maintains aggregate subtree weights over a dynamically
// growing forest. It is the weighted-forest abstraction the consensus engine
// uses to keep, for every block, the total proof-of-work weight of the
// block's entire subtree, updated in amortized logarithmic time per
// operation.
//
// The implementation is a link-cut tree: the represented forest is
// partitioned into preferred paths, each stored in a splay tree with a lazy
// addition tag. PathApply(v, delta) adds delta to v and every one of its
// represented-tree ancestors, which is exactly the update needed when a new
// block of weight delta joins the DAG: every ancestor's subtree weight grows
// by delta. Get(v) then reads v's subtree weight directly.
//
// Any dynamic-tree structure with the same Link/PathApply/Get contract is
// substitutable; nothing outside this package depends on splay internals.
package weighttree

// nilNode marks an absent node reference inside the tree.
const nilNode = -1

type node struct {
	parent int
	left   int
	right  int
	value  int64
	lazy   int64
}

// WeightTree is a growable forest of weighted nodes. Node identifiers are the
// caller's dense arena indices; MakeTree must be called for an index before
// it is used in any other operation.
//
// WeightTree is not safe for concurrent use. The consensus engine serializes
// all structural mutations behind its DAG lock.
type WeightTree struct {
	nodes []node
}

// New returns an empty WeightTree with capacity for hint nodes.
func New(hint int) *WeightTree {
	return &WeightTree{
		nodes: make([]node, 0, hint),
	}
}

// Size returns the number of nodes ever added to the forest.
func (wt *WeightTree) Size() int {
	return len(wt.nodes)
}

// MakeTree registers v as a new single-node tree with value zero. Indices
// must be registered in increasing order with no gaps, matching arena
// allocation.
func (wt *WeightTree) MakeTree(v int) {
	for len(wt.nodes) <= v {
		wt.nodes = append(wt.nodes, node{parent: nilNode, left: nilNode, right: nilNode})
	}
	wt.nodes[v] = node{parent: nilNode, left: nilNode, right: nilNode}
}

// Link attaches v, which must be the root of its own single-node tree, as a
// child of parent in the represented forest.
func (wt *WeightTree) Link(parent, v int) {
	wt.access(v)
	wt.access(parent)
	wt.nodes[v].parent = parent
}

// PathApply adds delta to v and to every ancestor of v in the represented
// tree.
func (wt *WeightTree) PathApply(v int, delta int64) {
	wt.access(v)
	// After access, the splay tree rooted at v holds exactly the path from
	// the represented root down to v: v itself plus its left subtree.
	wt.applyLazy(v, delta)
}

// Get returns the current value of v.
func (wt *WeightTree) Get(v int) int64 {
	wt.access(v)
	return wt.nodes[v].value
}

// Set overwrites the value of v without touching any other node.
func (wt *WeightTree) Set(v int, value int64) {
	wt.access(v)
	wt.nodes[v].value = value
}

// applyLazy adds delta to x's value and defers the same addition to x's splay
// subtree.
func (wt *WeightTree) applyLazy(x int, delta int64) {
	if x == nilNode {
		return
	}
	wt.nodes[x].value += delta
	wt.nodes[x].lazy += delta
}

// push propagates x's pending lazy addition to its splay children. It must be
// called before x's children change.
func (wt *WeightTree) push(x int) {
	if wt.nodes[x].lazy == 0 {
		return
	}
	lazy := wt.nodes[x].lazy
	if left := wt.nodes[x].left; left != nilNode {
		wt.nodes[left].value += lazy
		wt.nodes[left].lazy += lazy
	}
	if right := wt.nodes[x].right; right != nilNode {
		wt.nodes[right].value += lazy
		wt.nodes[right].lazy += lazy
	}
	wt.nodes[x].lazy = 0
}

// isSplayRoot returns whether x is the root of its preferred-path splay tree.
// A splay root's parent pointer, if any, is a path-parent pointer into
// another preferred path.
func (wt *WeightTree) isSplayRoot(x int) bool {
	parent := wt.nodes[x].parent
	return parent == nilNode || (wt.nodes[parent].left != x && wt.nodes[parent].right != x)
}

// rotate moves x one level up within its splay tree.
func (wt *WeightTree) rotate(x int) {
	p := wt.nodes[x].parent
	g := wt.nodes[p].parent
	pWasSplayRoot := wt.isSplayRoot(p)

	if wt.nodes[p].left == x {
		b := wt.nodes[x].right
		wt.nodes[p].left = b
		if b != nilNode {
			wt.nodes[b].parent = p
		}
		wt.nodes[x].right = p
	} else {
		b := wt.nodes[x].left
		wt.nodes[p].right = b
		if b != nilNode {
			wt.nodes[b].parent = p
		}
		wt.nodes[x].left = p
	}
	wt.nodes[p].parent = x
	wt.nodes[x].parent = g
	if !pWasSplayRoot {
		if wt.nodes[g].left == p {
			wt.nodes[g].left = x
		} else {
			wt.nodes[g].right = x
		}
	}
}

// splay brings x to the root of its preferred-path splay tree.
func (wt *WeightTree) splay(x int) {
	// Push pending additions from the splay root down to x so rotations
	// see settled values.
	stack := make([]int, 0, 32)
	for y := x; ; y = wt.nodes[y].parent {
		stack = append(stack, y)
		if wt.isSplayRoot(y) {
			break
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		wt.push(stack[i])
	}

	for !wt.isSplayRoot(x) {
		p := wt.nodes[x].parent
		if !wt.isSplayRoot(p) {
			g := wt.nodes[p].parent
			if (wt.nodes[g].left == p) == (wt.nodes[p].left == x) {
				wt.rotate(p)
			} else {
				wt.rotate(x)
			}
		}
		wt.rotate(x)
	}
}

// access makes the path from the represented root down to x a single
// preferred path with x as its splay root, and detaches any preferred child
// deeper than x.
func (wt *WeightTree) access(x int) {
	wt.splay(x)
	wt.push(x)
	// Detach the part of the preferred path deeper than x. The detached
	// subtree keeps x as its path parent.
	wt.nodes[x].right = nilNode

	for wt.nodes[x].parent != nilNode {
		y := wt.nodes[x].parent
		wt.splay(y)
		wt.push(y)
		// Replace y's preferred child with x.
		wt.nodes[y].right = x
		wt.splay(x)
	}
}
