package consensus

// Ancestor queries over the parent tree are served by binary lifting: every
// node records its 2^k-th ancestors when it activates, so walking to an
// arbitrary ancestor height, and hence finding the nearest common ancestor
// of two nodes, costs O(log height) with no extra bookkeeping on later
// insertions. The tables are append-only, like the arena itself.

// buildAncestors fills node.ancestors from its parent's table. The parent
// must already be in the arena with its own table built.
func (arena *blockArena) buildAncestors(node *blockNode) {
	if node.parent == nilIndex {
		return
	}
	node.ancestors = append(node.ancestors, node.parent)
	for k := 0; ; k++ {
		prev := arena.node(node.ancestors[k])
		if len(prev.ancestors) <= k {
			break
		}
		node.ancestors = append(node.ancestors, prev.ancestors[k])
	}
}

// ancestorAt returns the ancestor of node at the given height. It returns
// node itself when height equals node.height, and nil when height is above
// it.
func (arena *blockArena) ancestorAt(node *blockNode, height uint64) *blockNode {
	if height > node.height {
		return nil
	}
	current := node
	for current.height > height {
		diff := current.height - height
		k := 0
		for (uint64(1)<<uint(k+1)) <= diff && k+1 < len(current.ancestors) {
			k++
		}
		current = arena.node(current.ancestors[k])
	}
	return current
}

// lca returns the nearest common ancestor of a and b in the parent tree.
// Both nodes must be rooted at the same genesis, which holds for every
// active node.
func (arena *blockArena) lca(a, b *blockNode) *blockNode {
	if a.height > b.height {
		a = arena.ancestorAt(a, b.height)
	} else if b.height > a.height {
		b = arena.ancestorAt(b, a.height)
	}
	if a == b {
		return a
	}
	for k := len(a.ancestors) - 1; k >= 0; k-- {
		if k >= len(a.ancestors) || k >= len(b.ancestors) {
			continue
		}
		if a.ancestors[k] != b.ancestors[k] {
			a = arena.node(a.ancestors[k])
			b = arena.node(b.ancestors[k])
		}
	}
	return arena.node(a.ancestors[0])
}

// isAncestorOf returns whether a is an ancestor of b or b itself.
func (arena *blockArena) isAncestorOf(a, b *blockNode) bool {
	return arena.ancestorAt(b, a.height) == a
}
