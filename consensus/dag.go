// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensus

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/consensus/weighttree"
	"github.com/MazzeLabs/go-mazze/dagconfig"
	"github.com/MazzeLabs/go-mazze/dbaccess"
	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

const (
	// arenaSizeHint is the initial arena capacity.
	arenaSizeHint = 1 << 14

	// epochCacheSize bounds the number of sealed epochs kept in memory
	// for query serving. Subscribers receive every epoch at sealing time;
	// the cache only backs later lookups.
	epochCacheSize = 4096

	// riskCacheSize bounds the confirmation-risk cache.
	riskCacheSize = 8192
)

// Config is a descriptor which specifies the ConsensusGraph instance
// configuration.
type Config struct {
	// DAGParams identifies which network parameters the DAG is associated
	// with.
	//
	// This field is required.
	DAGParams *dagconfig.Params

	// DatabaseContext is the database the DAG persists blocks and their
	// consensus metadata to, and recovers from on startup. It may be nil
	// for a memory-only DAG, which is used by the tests.
	DatabaseContext *dbaccess.DatabaseContext
}

// ConsensusGraph provides functions for working with the Tree-Graph block
// DAG. It ingests blocks, maintains subtree weight aggregates, selects the
// pivot chain, seals epochs into a deterministic order and answers
// confirmation queries.
type ConsensusGraph struct {
	// Params identifies the network the DAG belongs to.
	Params *dagconfig.Params

	databaseContext *dbaccess.DatabaseContext

	// dagLock protects every structural field below it. All mutations
	// (insertion, weight propagation, pivot selection, epoch sealing) are
	// serialized behind the write lock; read queries take the read lock.
	dagLock sync.RWMutex

	arena   *blockArena
	weights *weighttree.WeightTree
	genesis *blockNode

	// pivotChain holds the arena index of the pivot block at each height,
	// genesis at zero. It is a view derived from the DAG: pivot selection
	// rewrites its suffix, nothing else touches it.
	pivotChain []int32

	// pastWeight[h] is the cumulative adjusted weight of every block in
	// epochs zero through h. It trails pivotChain and is truncated
	// together with it on reorganization.
	pastWeight []int64

	// totalWeight is the adjusted weight of every active block.
	totalWeight int64

	// tips is the set of active blocks with no active children and no
	// active blocks referencing them. The mining subsystem builds the
	// next block template from it.
	tips map[int32]struct{}

	// blockCount counts the active blocks in the DAG.
	blockCount uint64

	// Pending pool for blocks whose parent or references are unknown.
	// Guarded by its own lock so membership queries don't contend with
	// DAG writes.
	pendingLock   sync.RWMutex
	pending       map[daghash.Hash]*pendingBlock
	pendingDeps   map[daghash.Hash][]*pendingBlock
	newestPending *pendingBlock

	// reorgInProgress counts reorganizations whose notifications are
	// queued or still being delivered outside the dagLock. Queries that
	// depend on epoch assignment fail with ErrReorgInProgress while it
	// is nonzero. Accessed atomically.
	reorgInProgress int32

	// epochMembers records, per sealed epoch, the arena indices the epoch
	// claimed. It is the authoritative membership record unsealEpoch
	// needs; epochCache only holds Epoch objects for query serving.
	epochMembers map[uint64][]int32

	epochCache *lru.Cache
	riskCache  *lru.Cache

	// The notifications field stores a slice of callbacks to be executed
	// on certain DAG events.
	notificationsLock sync.RWMutex
	notifications     []NotificationCallback

	// notificationQueue holds accepted blocks awaiting notification
	// delivery, in DAG write order. deliveryInProgress marks that one
	// caller is draining the queue; concurrent callers enqueue and
	// return, so subscribers observe events in write order no matter
	// how many goroutines feed blocks.
	notificationQueueLock sync.Mutex
	notificationQueue     []*acceptedBlock
	deliveryInProgress    bool
}

// New returns a ConsensusGraph instance using the provided configuration
// details. The genesis block is inserted immediately, and any blocks found
// in the database are replayed in their stored insertion order.
func New(config *Config) (*ConsensusGraph, error) {
	if config.DAGParams == nil {
		return nil, errors.New("consensus.New: DAG parameters must be specified")
	}

	epochCache, err := lru.New(epochCacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	riskCache, err := lru.New(riskCacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	g := &ConsensusGraph{
		Params:          config.DAGParams,
		databaseContext: config.DatabaseContext,
		arena:           newBlockArena(arenaSizeHint),
		weights:         weighttree.New(arenaSizeHint),
		tips:            make(map[int32]struct{}),
		pending:         make(map[daghash.Hash]*pendingBlock),
		pendingDeps:     make(map[daghash.Hash][]*pendingBlock),
		epochMembers:    make(map[uint64][]int32),
		epochCache:      epochCache,
		riskCache:       riskCache,
	}

	g.initGenesis()

	if g.databaseContext != nil {
		err = g.recoverFromDB()
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}

// initGenesis seats the genesis block at the root of the arena, the weight
// tree and the pivot chain, and seals epoch zero around it.
func (g *ConsensusGraph) initGenesis() {
	node := g.arena.insert(g.Params.GenesisBlock)
	g.weights.MakeTree(int(node.index))
	weight := node.adjustedWeight(g.Params.AdaptiveWeightDiscount)
	g.weights.PathApply(int(node.index), weight)
	g.totalWeight = weight
	g.blockCount = 1

	g.genesis = node
	g.pivotChain = append(g.pivotChain, node.index)
	g.tips[node.index] = struct{}{}

	node.epochNumber = 0
	g.pastWeight = append(g.pastWeight, weight)
	g.epochMembers[0] = []int32{node.index}
	g.epochCache.Add(uint64(0), &Epoch{
		Number:    0,
		PivotHash: &node.hash,
		Blocks:    []*wire.MsgBlock{node.block},
	})
}

// IsInDAG determines whether a block with the given hash is active in the
// DAG.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) IsInDAG(hash *daghash.Hash) bool {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()
	return g.arena.lookup(hash) != nil
}

// BlockByHash returns the block with the given hash.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) BlockByHash(hash *daghash.Hash) (*wire.MsgBlock, error) {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()

	node := g.arena.lookup(hash)
	if node == nil {
		return nil, ruleError(ErrNotInDAG, fmt.Sprintf("block %s is not in the DAG", hash))
	}
	return node.block, nil
}

// BlockCount returns the number of active blocks in the DAG.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) BlockCount() uint64 {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()
	return g.blockCount
}

// PivotTip returns the hash and height of the current pivot chain tip.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) PivotTip() (*daghash.Hash, uint64) {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()

	tip := g.arena.node(g.pivotChain[len(g.pivotChain)-1])
	return &tip.hash, tip.height
}

// PivotBlockByHeight returns the hash of the pivot chain block at the given
// height.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) PivotBlockByHeight(height uint64) (*daghash.Hash, error) {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()

	if height >= uint64(len(g.pivotChain)) {
		return nil, ruleError(ErrNotInDAG,
			fmt.Sprintf("no pivot block at height %d", height))
	}
	return &g.arena.node(g.pivotChain[height]).hash, nil
}

// IsOnPivotChain determines whether the block with the given hash is
// currently on the pivot chain.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) IsOnPivotChain(hash *daghash.Hash) (bool, error) {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()

	node := g.arena.lookup(hash)
	if node == nil {
		return false, ruleError(ErrNotInDAG, fmt.Sprintf("block %s is not in the DAG", hash))
	}
	if node.height >= uint64(len(g.pivotChain)) {
		return false, nil
	}
	return g.pivotChain[node.height] == node.index, nil
}

// SubtreeWeight returns the current adjusted subtree weight aggregate of the
// block with the given hash.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) SubtreeWeight(hash *daghash.Hash) (int64, error) {
	g.dagLock.Lock()
	defer g.dagLock.Unlock()

	node := g.arena.lookup(hash)
	if node == nil {
		return 0, ruleError(ErrNotInDAG, fmt.Sprintf("block %s is not in the DAG", hash))
	}
	return g.weights.Get(int(node.index)), nil
}

// TipHashes returns the hashes of the current DAG tips, sorted by hash so
// the result is deterministic.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) TipHashes() []*daghash.Hash {
	g.dagLock.RLock()
	defer g.dagLock.RUnlock()
	return g.tipHashesNoLock()
}

func (g *ConsensusGraph) tipHashesNoLock() []*daghash.Hash {
	hashes := make([]*daghash.Hash, 0, len(g.tips))
	for index := range g.tips {
		hashes = append(hashes, &g.arena.node(index).hash)
	}
	daghash.Sort(hashes)
	return hashes
}

// BlockTemplateInfo describes what the mining subsystem needs to construct
// the next block: the pivot tip to parent, the remaining tips to reference
// and the tip's current subtree weight.
type BlockTemplateInfo struct {
	ParentHash      *daghash.Hash
	ParentHeight    uint64
	ReferenceHashes []*daghash.Hash
	TipWeight       int64
}

// BlockTemplate returns the template information for mining the next block
// on top of the current pivot tip.
//
// This function is safe for concurrent access.
func (g *ConsensusGraph) BlockTemplate() *BlockTemplateInfo {
	g.dagLock.Lock()
	defer g.dagLock.Unlock()

	tip := g.arena.node(g.pivotChain[len(g.pivotChain)-1])
	references := make([]*daghash.Hash, 0, len(g.tips))
	for index := range g.tips {
		if index == tip.index {
			continue
		}
		references = append(references, &g.arena.node(index).hash)
	}
	daghash.Sort(references)

	return &BlockTemplateInfo{
		ParentHash:      &tip.hash,
		ParentHeight:    tip.height,
		ReferenceHashes: references,
		TipWeight:       g.weights.Get(int(tip.index)),
	}
}
