package consensus

import (
	"time"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// pendingBlock represents a block whose parent or referenced blocks are not
// yet active in the DAG. It is a normal block plus an expiration time to
// prevent buffering it forever when the missing dependency never arrives.
type pendingBlock struct {
	block      *wire.MsgBlock
	hash       daghash.Hash
	expiration time.Time
}

// blockDependencies returns the hashes a block needs active before it can
// activate itself: its parent and every referenced block. Only the network's
// genesis block is parentless; a block merely declaring the zero parent hash
// still depends on it.
func (g *ConsensusGraph) blockDependencies(block *wire.MsgBlock) []*daghash.Hash {
	header := &block.Header
	deps := make([]*daghash.Hash, 0, len(header.ReferenceHashes)+1)
	blockHash := block.BlockHash()
	if !blockHash.IsEqual(g.Params.GenesisHash) {
		deps = append(deps, &header.ParentHash)
	}
	for i := range header.ReferenceHashes {
		deps = append(deps, &header.ReferenceHashes[i])
	}
	return deps
}

// IsKnownPending returns whether the passed hash is currently buffered in
// the pending pool. Keep in mind that only a limited number of pending
// blocks are held onto for a limited amount of time, so this function must
// not be used as an absolute way to test whether a block is missing its
// dependencies.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) IsKnownPending(hash *daghash.Hash) bool {
	g.pendingLock.RLock()
	defer g.pendingLock.RUnlock()
	_, exists := g.pending[*hash]

	return exists
}

// MissingAncestors returns the hashes in the pending block's dependency
// closure that are neither active in the DAG nor buffered in the pending
// pool. These are the hashes the network layer must fetch before the block
// can activate.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) MissingAncestors(pendingHash *daghash.Hash) []*daghash.Hash {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()
	g.pendingLock.RLock()
	defer g.pendingLock.RUnlock()

	missing := make([]*daghash.Hash, 0)

	visited := make(map[daghash.Hash]bool)
	queue := []*daghash.Hash{pendingHash}
	for len(queue) > 0 {
		var current *daghash.Hash
		current, queue = queue[0], queue[1:]
		if visited[*current] {
			continue
		}
		visited[*current] = true
		if pending, exists := g.pending[*current]; exists {
			queue = append(queue, g.blockDependencies(pending.block)...)
		} else if g.arena.lookup(current) == nil && !current.IsEqual(pendingHash) {
			missing = append(missing, current)
		}
	}
	return missing
}

// removePendingBlock removes the passed block from the pending pool and the
// dependency index.
func (g *ConsensusGraph) removePendingBlock(pending *pendingBlock) {
	g.pendingLock.Lock()
	defer g.pendingLock.Unlock()

	delete(g.pending, pending.hash)

	for _, depHash := range g.blockDependencies(pending.block) {
		// An indexing for loop is intentionally used over a range here
		// as range does not reevaluate the slice on each iteration nor
		// does it adjust the index for the modified slice.
		dependents := g.pendingDeps[*depHash]
		for i := 0; i < len(dependents); i++ {
			if dependents[i].hash.IsEqual(&pending.hash) {
				dependents = append(dependents[:i], dependents[i+1:]...)
				i--
			}
		}

		if len(dependents) == 0 {
			delete(g.pendingDeps, *depHash)
			continue
		}
		g.pendingDeps[*depHash] = dependents
	}
}

// addPendingBlock adds the passed block (which was already determined to
// have missing dependencies prior to calling this function) to the pending
// pool. It lazily cleans up any expired blocks so a separate cleanup poller
// doesn't need to be run. It also imposes a maximum limit on the number of
// outstanding pending blocks and evicts the newest one when the limit would
// be exceeded, since the oldest buffered blocks are the ones most likely to
// have their dependencies already in flight.
func (g *ConsensusGraph) addPendingBlock(block *wire.MsgBlock) {
	// Remove expired pending blocks.
	for _, pending := range g.pending {
		if time.Now().After(pending.expiration) {
			g.removePendingBlock(pending)
			continue
		}

		// Track the newest buffered block so it can be evicted if the
		// pool fills up.
		if g.newestPending == nil ||
			pending.block.Header.Timestamp.After(g.newestPending.block.Header.Timestamp) {
			g.newestPending = pending
		}
	}

	// Limit pending blocks to prevent memory exhaustion.
	if len(g.pending)+1 > g.Params.MaxPendingBlocks {
		// If the new block is newer than the newest buffered block,
		// don't buffer it at all.
		if block.Header.Timestamp.After(g.newestPending.block.Header.Timestamp) {
			return
		}
		g.removePendingBlock(g.newestPending)
		g.newestPending = nil
	}

	// Protect concurrent access. This is intentionally done here instead
	// of near the top since removePendingBlock does its own locking and
	// the range iterator is not invalidated by removing map entries.
	g.pendingLock.Lock()
	defer g.pendingLock.Unlock()

	pending := &pendingBlock{
		block:      block,
		hash:       block.BlockHash(),
		expiration: time.Now().Add(g.Params.PendingBlockExpiration),
	}
	g.pending[pending.hash] = pending

	// Index by every dependency for fast promotion lookups.
	for _, depHash := range g.blockDependencies(block) {
		g.pendingDeps[*depHash] = append(g.pendingDeps[*depHash], pending)
	}
}

// processPendingBlocks promotes any pending blocks that were waiting on the
// passed hash and now have all their dependencies active. It repeats the
// process for each newly activated block until there are no more, so a
// single arriving parent can cascade through an arbitrarily deep buffered
// subtree without external re-submission.
//
// This function MUST be called with the dagLock held (for writes).
func (g *ConsensusGraph) processPendingBlocks(hash *daghash.Hash, flags BehaviorFlags) ([]*acceptedBlock, error) {
	var accepted []*acceptedBlock

	processHashes := make([]*daghash.Hash, 0, 10)
	processHashes = append(processHashes, hash)
	for len(processHashes) > 0 {
		processHash := processHashes[0]
		processHashes[0] = nil // Prevent GC leak.
		processHashes = processHashes[1:]

		// An indexing for loop is intentionally used over a range here
		// because the slice shrinks as promoted blocks are removed.
		for i := 0; i < len(g.pendingDeps[*processHash]); i++ {
			pending := g.pendingDeps[*processHash][i]
			if pending == nil {
				log.Warnf("Found a nil entry at index %d in the "+
					"pending dependency list for block %s", i, processHash)
				continue
			}

			// Skip this block if some of its dependencies are still
			// missing.
			if len(g.missingDependencies(pending.block)) > 0 {
				continue
			}

			pendingHash := pending.hash
			g.removePendingBlock(pending)
			i--

			updates, err := g.activateBlock(pending.block, flags|BFWasPending)
			if err != nil {
				return nil, err
			}
			accepted = append(accepted, &acceptedBlock{
				block:      pending.block,
				wasPending: true,
				updates:    updates,
			})

			processHashes = append(processHashes, &pendingHash)
		}
	}
	return accepted, nil
}

// missingDependencies returns the dependencies of block that are not yet
// active in the DAG.
//
// This function MUST be called with the dagLock held (for reads).
func (g *ConsensusGraph) missingDependencies(block *wire.MsgBlock) []*daghash.Hash {
	var missing []*daghash.Hash
	for _, depHash := range g.blockDependencies(block) {
		if g.arena.lookup(depHash) == nil {
			missing = append(missing, depHash)
		}
	}
	return missing
}
