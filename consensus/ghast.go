package consensus

import (
	"github.com/MazzeLabs/go-mazze/util/daghash"
)

// chainUpdates represents the updates made to the pivot chain after a block
// has been added to the DAG.
type chainUpdates struct {
	// forkHeight is the height of the deepest pivot block common to the
	// old and new chains. Equal to the old tip height when nothing was
	// removed.
	forkHeight uint64

	// removedPivotHashes are the abandoned pivot blocks, lowest height
	// first. Empty unless a reorganization happened.
	removedPivotHashes []*daghash.Hash

	// addedPivotHashes are the pivot blocks appended above the fork,
	// lowest height first.
	addedPivotHashes []*daghash.Hash

	// sealedEpochs are the epochs sealed for the added pivot blocks, in
	// ascending number order.
	sealedEpochs []*Epoch
}

func (u *chainUpdates) isReorganization() bool {
	return len(u.removedPivotHashes) > 0
}

// heavier reports whether child a beats child b in pivot descent. The
// comparison is strict: greater adjusted subtree weight wins, and an exact
// tie is broken by the byte-wise smaller block hash. The tie-break is
// content-derived, never arrival-order-derived, which is what lets every
// node agree on the winner.
func heavier(aWeight int64, aHash *daghash.Hash, bWeight int64, bHash *daghash.Hash) bool {
	if aWeight != bWeight {
		return aWeight > bWeight
	}
	return daghash.Less(aHash, bHash)
}

// bestChild returns the child of node that pivot descent selects, or nil if
// node has no children or the heaviest child's weight advantage over its
// strongest sibling stays below the descent threshold. With the threshold at
// zero, descent always continues to a leaf and exact ties fall to the hash
// tie-break.
//
// This function MUST be called with the dagLock held (for writes), since
// weight queries restructure the weight tree.
func (g *ConsensusGraph) bestChild(node *blockNode) *blockNode {
	var best *blockNode
	var bestWeight, runnerUpWeight int64
	for _, childIndex := range node.children {
		child := g.arena.node(childIndex)
		weight := g.weights.Get(int(child.index))
		if best == nil || heavier(weight, &child.hash, bestWeight, &best.hash) {
			if best != nil && bestWeight > runnerUpWeight {
				runnerUpWeight = bestWeight
			}
			best = child
			bestWeight = weight
		} else if weight > runnerUpWeight {
			runnerUpWeight = weight
		}
	}
	if best == nil || bestWeight-runnerUpWeight < g.Params.PivotConfirmThreshold {
		return nil
	}
	return best
}

// updatePivotChain re-evaluates the pivot chain after newNode joined the
// DAG. It re-runs the heaviest-subtree descent from the nearest common
// ancestor of the old tip and newNode, replaces the pivot chain suffix where
// the descent diverges from it, retracts the epochs sealed on abandoned
// pivot blocks and seals epochs for the new ones.
//
// This function MUST be called with the dagLock held (for writes).
func (g *ConsensusGraph) updatePivotChain(newNode *blockNode) *chainUpdates {
	oldTip := g.arena.node(g.pivotChain[len(g.pivotChain)-1])
	fork := g.arena.lca(oldTip, newNode)

	// Heaviest-subtree descent from the fork candidate. Everything at or
	// below fork.height is common to both chains by construction.
	newSegment := make([]int32, 0, newNode.height-fork.height+1)
	for current := g.bestChild(fork); current != nil; current = g.bestChild(current) {
		newSegment = append(newSegment, current.index)
	}

	// Find where the descent diverges from the current chain.
	divergeHeight := fork.height + 1
	for i, index := range newSegment {
		height := fork.height + 1 + uint64(i)
		if height >= uint64(len(g.pivotChain)) || g.pivotChain[height] != index {
			break
		}
		divergeHeight = height + 1
	}

	updates := &chainUpdates{forkHeight: divergeHeight - 1}

	// Retract abandoned pivot blocks and their epochs, deepest epoch
	// last so pastWeight truncates cleanly.
	for height := uint64(len(g.pivotChain)) - 1; height >= divergeHeight && height > 0; height-- {
		removed := g.arena.node(g.pivotChain[height])
		g.unsealEpoch(height)
		updates.removedPivotHashes = append(updates.removedPivotHashes, &removed.hash)
	}
	// Reverse to lowest height first.
	for i, j := 0, len(updates.removedPivotHashes)-1; i < j; i, j = i+1, j-1 {
		updates.removedPivotHashes[i], updates.removedPivotHashes[j] =
			updates.removedPivotHashes[j], updates.removedPivotHashes[i]
	}
	g.pivotChain = g.pivotChain[:divergeHeight]

	// Extend with the new suffix and seal its epochs in order.
	for i := divergeHeight - fork.height - 1; i < uint64(len(newSegment)); i++ {
		added := g.arena.node(newSegment[i])
		g.pivotChain = append(g.pivotChain, added.index)
		epoch := g.sealEpoch(added)
		updates.addedPivotHashes = append(updates.addedPivotHashes, &added.hash)
		updates.sealedEpochs = append(updates.sealedEpochs, epoch)
	}

	if updates.isReorganization() {
		log.Infof("Pivot chain reorganized at height %d: %d blocks removed, %d added",
			updates.forkHeight, len(updates.removedPivotHashes), len(updates.addedPivotHashes))
	}
	return updates
}
