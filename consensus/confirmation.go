package consensus

import (
	"fmt"
	"sync/atomic"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

// riskEntry is a cached confirmation-risk estimate, valid for as long as the
// DAG's total weight has not moved.
type riskEntry struct {
	risk        float64
	totalWeight int64
}

// ConfirmationRisk estimates the probability that the given block's epoch
// assignment will be reverted by a pivot chain reorganization. The estimate
// is the ratio of the weight accumulated on competing branches since the
// block's epoch to that competing weight plus the epoch pivot's own subtree
// weight, so it decreases monotonically as the subtree grows and reaches
// zero only when nothing competes.
//
// The result is advisory, for client-facing finality queries; the engine
// never takes protocol decisions from it. A block that is active but not
// yet sealed into an epoch reports the maximum risk of 1. A block that is
// not graph-ready cannot be estimated and fails with ErrNotInDAG.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) ConfirmationRisk(hash *daghash.Hash) (float64, error) {
	if atomic.LoadInt32(&g.reorgInProgress) != 0 {
		return 0, ruleError(ErrReorgInProgress,
			"epoch assignment is being reorganized, retry shortly")
	}

	g.dagLock.Lock()
	defer g.dagLock.Unlock()

	node := g.arena.lookup(hash)
	if node == nil {
		return 0, ruleError(ErrNotInDAG, fmt.Sprintf("block %s is not in the DAG", hash))
	}
	if node.epochNumber == unsealedEpoch {
		return 1, nil
	}

	if cached, ok := g.riskCache.Get(*hash); ok {
		entry := cached.(*riskEntry)
		if entry.totalWeight == g.totalWeight {
			return entry.risk, nil
		}
	}

	risk := g.confirmationRiskOfEpoch(uint64(node.epochNumber))
	g.riskCache.Add(*hash, &riskEntry{risk: risk, totalWeight: g.totalWeight})
	return risk, nil
}

// confirmationRiskOfEpoch computes the risk for the pivot block at the given
// epoch number.
//
// This function MUST be called with the dagLock held (for writes), since
// weight queries restructure the weight tree.
func (g *ConsensusGraph) confirmationRiskOfEpoch(number uint64) float64 {
	pivot := g.arena.node(g.pivotChain[number])
	own := g.weights.Get(int(pivot.index))

	weightBefore := int64(0)
	if number > 0 {
		weightBefore = g.pastWeight[number-1]
	}
	competing := g.totalWeight - weightBefore - own
	if competing < 0 {
		// Epoch side blocks overlap both accountings. Never report
		// negative competition.
		competing = 0
	}
	if competing == 0 {
		return 0
	}
	return float64(competing) / float64(competing+own)
}
