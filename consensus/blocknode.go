// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensus

import (
	"fmt"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// nilIndex marks an absent arena reference, used for the genesis parent.
const nilIndex = -1

// unsealedEpoch is the epochNumber of a block that no sealed epoch has
// claimed yet.
const unsealedEpoch = -1

// blockNode represents a block within the block DAG. The DAG is stored into
// a single arena owned by the ConsensusGraph, and nodes address each other
// by dense arena index rather than by pointer so that the weight tree, the
// ancestor tables and the epoch sets all share one cheap handle space.
type blockNode struct {
	// index is this node's handle in the arena. It doubles as the node's
	// identifier in the weight tree.
	index int32

	// hash is the double sha256 of the block header.
	hash daghash.Hash

	// parent is the arena index of the parent block, or nilIndex for
	// genesis. Parent edges form the tree backbone that pivot selection
	// descends.
	parent int32

	// referees are the arena indices of the blocks this block references.
	// Reference edges add weight and epoch membership but are never
	// followed by pivot descent.
	referees []int32

	// children are the arena indices of blocks parented by this block,
	// appended as they arrive. Order is arrival order and carries no
	// consensus meaning; pivot descent compares by weight and hash.
	children []int32

	// ancestors[k] is the arena index of this node's 2^k-th ancestor, or
	// nilIndex past the root. See ancestry.go.
	ancestors []int32

	// height is the parent's height plus one.
	height uint64

	// weight is the block's face proof-of-work weight.
	weight int64

	// timestamp is the declared creation time in milliseconds since the
	// unix epoch.
	timestamp int64

	// adaptive is the block's adaptive-weight classification, assigned
	// exactly once when the block activates and never revisited.
	adaptive bool

	// epochNumber is the pivot height of the sealed epoch that claimed
	// this block, or unsealedEpoch. It is reset when a reorganization
	// retracts the claiming epoch.
	epochNumber int64

	// block is the full block this node was created from. The node owns
	// it once inserted; all other components reach it through the arena.
	block *wire.MsgBlock
}

// adjustedWeight returns the weight this block contributes to ancestor
// subtree aggregates, after the adaptive discount.
func (node *blockNode) adjustedWeight(discount uint64) int64 {
	if node.adaptive {
		return node.weight / int64(discount)
	}
	return node.weight
}

// isGenesis returns whether this node is the DAG's root.
func (node *blockNode) isGenesis() bool {
	return node.parent == nilIndex
}

// String returns a string that contains the block hash and height.
func (node *blockNode) String() string {
	return fmt.Sprintf("%s (%d)", node.hash, node.height)
}

// blockArena owns every blockNode in the DAG. Nodes are appended, never
// removed, so an arena index is stable for the life of the process.
type blockArena struct {
	nodes   []*blockNode
	indices map[daghash.Hash]int32
}

func newBlockArena(hint int) *blockArena {
	return &blockArena{
		nodes:   make([]*blockNode, 0, hint),
		indices: make(map[daghash.Hash]int32, hint),
	}
}

// insert creates a node for the given block, assigns it the next dense
// index and registers its hash. The caller links edges afterwards.
func (arena *blockArena) insert(block *wire.MsgBlock) *blockNode {
	header := &block.Header
	node := &blockNode{
		index:       int32(len(arena.nodes)),
		hash:        header.BlockHash(),
		parent:      nilIndex,
		height:      header.Height,
		weight:      int64(header.Difficulty),
		timestamp:   header.Timestamp.UnixNano() / 1e6,
		epochNumber: unsealedEpoch,
		block:       block,
	}
	arena.nodes = append(arena.nodes, node)
	arena.indices[node.hash] = node.index
	return node
}

// lookup returns the node for the given hash, or nil if the hash is not in
// the arena.
func (arena *blockArena) lookup(hash *daghash.Hash) *blockNode {
	index, ok := arena.indices[*hash]
	if !ok {
		return nil
	}
	return arena.nodes[index]
}

// node returns the node at the given arena index.
func (arena *blockArena) node(index int32) *blockNode {
	return arena.nodes[index]
}

// len returns the number of nodes in the arena.
func (arena *blockArena) len() int {
	return len(arena.nodes)
}
