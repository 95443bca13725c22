package consensus

import (
	"math/rand"
	"testing"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

func TestEpochContainsUnclaimedPast(t *testing.T) {
	graph, params := newTestGraph(t)
	genesis := params.GenesisBlock

	// A side block S next to the pivot block A, and a follow-up pivot
	// block B that references S. Sealing B's epoch must claim S.
	blockA := childBlock(genesis, 5, 0)
	sideS := childBlock(genesis, 1, 1)
	blockB := childBlock(blockA, 2, 0, sideS)
	hashA, hashS, hashB := blockA.BlockHash(), sideS.BlockHash(), blockB.BlockHash()

	processAccepted(t, graph, blockA)
	processAccepted(t, graph, sideS)
	processAccepted(t, graph, blockB)

	epoch1, err := graph.EpochByNumber(1)
	if err != nil {
		t.Fatalf("EpochByNumber(1): %v", err)
	}
	if len(epoch1.Blocks) != 1 || !epoch1.PivotHash.IsEqual(&hashA) {
		t.Fatalf("epoch 1 has %d blocks with pivot %s, want 1 block with pivot %s",
			len(epoch1.Blocks), epoch1.PivotHash, hashA)
	}

	epoch2, err := graph.EpochByNumber(2)
	if err != nil {
		t.Fatalf("EpochByNumber(2): %v", err)
	}
	hashes := epoch2.BlockHashes()
	if len(hashes) != 2 {
		t.Fatalf("epoch 2 has %d blocks, want 2", len(hashes))
	}

	// The side block's parent lives in epoch 0, the pivot's parent in
	// epoch 1, so the order is side block first and the pivot block, as
	// always, last.
	if !hashes[0].IsEqual(&hashS) || !hashes[1].IsEqual(&hashB) {
		t.Fatalf("epoch 2 order is %v, want [%s %s]",
			daghash.Strings(hashes), hashS, hashB)
	}

	if number, sealed, _ := graph.EpochForBlock(&hashS); !sealed || number != 2 {
		t.Fatalf("EpochForBlock(S) = %d sealed %t, want 2 sealed", number, sealed)
	}
}

// TestEpochPartition checks that the sealed epochs exactly partition the
// pivot tip's past: every block reachable from the tip belongs to one epoch,
// and no block belongs to two.
func TestEpochPartition(t *testing.T) {
	graph, params := newTestGraph(t)
	prng := rand.New(rand.NewSource(5678))

	blocks := []*wire.MsgBlock{params.GenesisBlock}
	for i := 0; i < 80; i++ {
		parent := blocks[prng.Intn(len(blocks))]
		var references []*wire.MsgBlock
		for _, candidate := range blocks {
			if candidate != parent && prng.Intn(6) == 0 {
				references = append(references, candidate)
			}
		}
		block := childBlock(parent, uint64(1+prng.Intn(4)), uint64(i), references...)
		blocks = append(blocks, block)
		processAccepted(t, graph, block)
	}

	graph.dagLock.Lock()
	defer graph.dagLock.Unlock()

	// Membership lists and per-node assignments must agree, with no
	// duplicates.
	claimed := make(map[int32]uint64)
	for number, members := range graph.epochMembers {
		for _, index := range members {
			if previous, ok := claimed[index]; ok {
				t.Fatalf("block %s is in both epoch %d and epoch %d",
					graph.arena.node(index).hash, previous, number)
			}
			claimed[index] = number
			if got := graph.arena.node(index).epochNumber; got != int64(number) {
				t.Fatalf("block %s records epoch %d but epoch %d claims it",
					graph.arena.node(index).hash, got, number)
			}
		}
	}

	// The claimed set must be exactly the pivot tip's dependency closure.
	tip := graph.arena.node(graph.pivotChain[len(graph.pivotChain)-1])
	reachable := make(map[int32]bool)
	queue := []*blockNode{tip}
	reachable[tip.index] = true
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		deps := append([]int32{}, node.referees...)
		if node.parent != nilIndex {
			deps = append(deps, node.parent)
		}
		for _, dep := range deps {
			if !reachable[dep] {
				reachable[dep] = true
				queue = append(queue, graph.arena.node(dep))
			}
		}
	}
	for index := range reachable {
		if _, ok := claimed[index]; !ok {
			t.Fatalf("block %s is reachable from the pivot tip but unsealed",
				graph.arena.node(index).hash)
		}
	}
	for index := range claimed {
		if !reachable[index] {
			t.Fatalf("block %s is sealed but not reachable from the pivot tip",
				graph.arena.node(index).hash)
		}
	}

	// Unclaimed active blocks must record no epoch.
	for _, node := range graph.arena.nodes {
		if _, ok := claimed[node.index]; !ok && node.epochNumber != unsealedEpoch {
			t.Fatalf("unclaimed block %s records epoch %d", node.hash, node.epochNumber)
		}
	}
}

// TestEpochOrderIsTopological checks that within every sealed epoch each
// block comes after its in-epoch parent and references.
func TestEpochOrderIsTopological(t *testing.T) {
	graph, params := newTestGraph(t)
	prng := rand.New(rand.NewSource(91011))

	blocks := []*wire.MsgBlock{params.GenesisBlock}
	for i := 0; i < 50; i++ {
		parent := blocks[prng.Intn(len(blocks))]
		var references []*wire.MsgBlock
		for _, candidate := range blocks {
			if candidate != parent && prng.Intn(5) == 0 {
				references = append(references, candidate)
			}
		}
		block := childBlock(parent, uint64(1+prng.Intn(4)), uint64(i), references...)
		blocks = append(blocks, block)
		processAccepted(t, graph, block)
	}

	_, tipHeight := graph.PivotTip()
	for number := uint64(1); number <= tipHeight; number++ {
		epoch, err := graph.EpochByNumber(number)
		if err != nil {
			t.Fatalf("EpochByNumber(%d): %v", number, err)
		}
		position := make(map[daghash.Hash]int, len(epoch.Blocks))
		for i, block := range epoch.Blocks {
			position[block.BlockHash()] = i
		}
		for i, block := range epoch.Blocks {
			deps := append([]daghash.Hash{}, block.Header.ReferenceHashes...)
			deps = append(deps, block.Header.ParentHash)
			for _, dep := range deps {
				if depPosition, inEpoch := position[dep]; inEpoch && depPosition >= i {
					t.Fatalf("epoch %d: block %s at position %d precedes its "+
						"dependency %s at position %d",
						number, block.BlockHash(), i, dep, depPosition)
				}
			}
		}

		// The pivot block itself is always last.
		last := epoch.Blocks[len(epoch.Blocks)-1].BlockHash()
		if !last.IsEqual(epoch.PivotHash) {
			t.Fatalf("epoch %d: last block is %s, want the pivot %s",
				number, last, epoch.PivotHash)
		}
	}
}
