package consensus

import (
	"fmt"
	"sync/atomic"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// Epoch is the set of DAG blocks newly attributed to one pivot block, placed
// in the deterministic execution order. An epoch is sealed once, when its
// pivot block joins the pivot chain, and is immutable afterwards; a
// reorganization retracts whole epochs and reseals their blocks under the
// new pivot chain.
type Epoch struct {
	// Number is the pivot chain height of the epoch's pivot block.
	Number uint64

	// PivotHash is the hash of the epoch's pivot block.
	PivotHash *daghash.Hash

	// Blocks are the epoch's blocks in execution order. The pivot block
	// is always last: every other member lies in its past. Transactions
	// execute in per-block order within this sequence.
	Blocks []*wire.MsgBlock
}

// BlockHashes returns the hashes of the epoch's blocks in execution order.
func (e *Epoch) BlockHashes() []*daghash.Hash {
	hashes := make([]*daghash.Hash, len(e.Blocks))
	for i, block := range e.Blocks {
		hash := block.BlockHash()
		hashes[i] = &hash
	}
	return hashes
}

// sealEpoch claims every unclaimed block in the pivot block's past, orders
// the claimed set deterministically and records the epoch. The pivot block
// must be the next pivot chain entry, at height len(pastWeight).
//
// The epoch set is computed by walking parent and reference edges backwards
// from the pivot and stopping at blocks already claimed by earlier epochs,
// so the union of all sealed epochs always partitions the active DAG.
//
// This function MUST be called with the dagLock held (for writes).
func (g *ConsensusGraph) sealEpoch(pivot *blockNode) *Epoch {
	number := pivot.height
	if number != uint64(len(g.pastWeight)) {
		panic(ruleError(ErrMalformedDagState, fmt.Sprintf(
			"sealing epoch %d but %d epochs are sealed", number, len(g.pastWeight))))
	}

	// Collect the unclaimed past of the pivot, pivot included.
	members := make([]*blockNode, 0, 8)
	visited := map[int32]struct{}{pivot.index: {}}
	queue := []*blockNode{pivot}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		members = append(members, node)

		deps := make([]int32, 0, len(node.referees)+1)
		if node.parent != nilIndex {
			deps = append(deps, node.parent)
		}
		deps = append(deps, node.referees...)
		for _, dep := range deps {
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			depNode := g.arena.node(dep)
			if depNode.epochNumber != unsealedEpoch {
				continue
			}
			queue = append(queue, depNode)
		}
	}

	// Claim the members before ordering so parentEpoch snapshots see the
	// new assignment for in-set parents.
	memberIndices := make([]int32, len(members))
	for i, member := range members {
		member.epochNumber = int64(number)
		memberIndices[i] = member.index
	}

	ordered := g.orderEpoch(members)

	epochWeight := int64(0)
	blocks := make([]*wire.MsgBlock, len(ordered))
	for i, member := range ordered {
		blocks[i] = member.block
		epochWeight += member.adjustedWeight(g.Params.AdaptiveWeightDiscount)
	}
	g.pastWeight = append(g.pastWeight, g.pastWeight[len(g.pastWeight)-1]+epochWeight)
	g.epochMembers[number] = memberIndices

	epoch := &Epoch{
		Number:    number,
		PivotHash: &pivot.hash,
		Blocks:    blocks,
	}
	g.epochCache.Add(number, epoch)

	log.Debugf("Sealed epoch %d with pivot %s (%d blocks)",
		number, pivot.hash, len(blocks))
	return epoch
}

// orderEpoch places the epoch members into the deterministic execution
// order: a topological order of the in-set dependency edges where ready
// candidates are drawn by ascending parent epoch number, then descending
// subtree weight, then ascending hash. Arrival order plays no part, so any
// node holding the same block set derives the identical sequence.
func (g *ConsensusGraph) orderEpoch(members []*blockNode) []*blockNode {
	inSet := make(map[int32]struct{}, len(members))
	for _, member := range members {
		inSet[member.index] = struct{}{}
	}

	// In-set dependency counts and reverse edges.
	inDegree := make(map[int32]int, len(members))
	dependents := make(map[int32][]int32, len(members))
	for _, member := range members {
		deps := make([]int32, 0, len(member.referees)+1)
		if member.parent != nilIndex {
			deps = append(deps, member.parent)
		}
		deps = append(deps, member.referees...)
		for _, dep := range deps {
			if _, ok := inSet[dep]; !ok {
				continue
			}
			inDegree[member.index]++
			dependents[dep] = append(dependents[dep], member.index)
		}
	}

	ready := newOrderHeap()
	for _, member := range members {
		if inDegree[member.index] == 0 {
			ready.push(g.orderItemFor(member))
		}
	}

	ordered := make([]*blockNode, 0, len(members))
	for ready.Len() > 0 {
		item := ready.pop()
		ordered = append(ordered, item.node)
		for _, dependent := range dependents[item.node.index] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready.push(g.orderItemFor(g.arena.node(dependent)))
			}
		}
	}

	if len(ordered) != len(members) {
		panic(ruleError(ErrMalformedDagState, fmt.Sprintf(
			"epoch ordering covered %d of %d blocks, the dependency "+
				"graph contains a cycle", len(ordered), len(members))))
	}
	return ordered
}

func (g *ConsensusGraph) orderItemFor(node *blockNode) *orderItem {
	parentEpoch := int64(0)
	if node.parent != nilIndex {
		parentEpoch = g.arena.node(node.parent).epochNumber
	}
	return &orderItem{
		node:          node,
		parentEpoch:   parentEpoch,
		subtreeWeight: g.weights.Get(int(node.index)),
	}
}

// unsealEpoch retracts the sealed epoch at the given pivot height, releasing
// its blocks for resealing under a new pivot chain.
//
// This function MUST be called with the dagLock held (for writes).
func (g *ConsensusGraph) unsealEpoch(number uint64) {
	members, ok := g.epochMembers[number]
	if !ok {
		panic(ruleError(ErrMalformedDagState, fmt.Sprintf(
			"retracting epoch %d which was never sealed", number)))
	}
	for _, index := range members {
		g.arena.node(index).epochNumber = unsealedEpoch
	}
	delete(g.epochMembers, number)
	g.epochCache.Remove(number)
	g.pastWeight = g.pastWeight[:number]
}

// EpochForBlock returns the epoch number the given block is sealed into.
// The second return value reports whether the block has been sealed at all;
// an active block ahead of the pivot tip is not an error, merely unsealed.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) EpochForBlock(hash *daghash.Hash) (uint64, bool, error) {
	if atomic.LoadInt32(&g.reorgInProgress) != 0 {
		return 0, false, ruleError(ErrReorgInProgress,
			"epoch assignment is being reorganized, retry shortly")
	}

	g.dagLock.RLock()
	defer g.dagLock.RUnlock()

	node := g.arena.lookup(hash)
	if node == nil {
		return 0, false, ruleError(ErrNotInDAG, fmt.Sprintf("block %s is not in the DAG", hash))
	}
	if node.epochNumber == unsealedEpoch {
		return 0, false, nil
	}
	return uint64(node.epochNumber), true, nil
}

// EpochByNumber returns the sealed epoch at the given pivot height. Recently
// sealed epochs are served from a bounded cache; older ones may have been
// evicted, in which case subscribers that received the NTEpochSealed
// notification hold the authoritative copy.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) EpochByNumber(number uint64) (*Epoch, error) {
	if atomic.LoadInt32(&g.reorgInProgress) != 0 {
		return nil, ruleError(ErrReorgInProgress,
			"epoch assignment is being reorganized, retry shortly")
	}

	g.dagLock.RLock()
	defer g.dagLock.RUnlock()

	if number >= uint64(len(g.pastWeight)) {
		return nil, ruleError(ErrNotInDAG, fmt.Sprintf("no sealed epoch %d", number))
	}
	cached, ok := g.epochCache.Get(number)
	if !ok {
		return nil, ruleError(ErrNotInDAG, fmt.Sprintf(
			"epoch %d is sealed but no longer cached", number))
	}
	return cached.(*Epoch), nil
}
