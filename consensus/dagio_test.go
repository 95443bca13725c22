package consensus

import (
	"math/rand"
	"testing"

	"github.com/MazzeLabs/go-mazze/dagconfig"
	"github.com/MazzeLabs/go-mazze/dbaccess"
	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// TestRecoverFromDB builds a DAG against a database, reopens the database in
// a fresh graph and checks the recovered state matches: same pivot chain,
// same tips, same weights, same adaptive classifications.
func TestRecoverFromDB(t *testing.T) {
	dbPath := t.TempDir()

	graph, databaseContext := newTestGraphWithDB(t, dbPath)
	prng := rand.New(rand.NewSource(1357))

	blocks := []*wire.MsgBlock{graph.Params.GenesisBlock}
	for i := 0; i < 40; i++ {
		parent := blocks[prng.Intn(len(blocks))]
		var references []*wire.MsgBlock
		for _, candidate := range blocks {
			if candidate != parent && prng.Intn(7) == 0 {
				references = append(references, candidate)
			}
		}
		block := childBlock(parent, uint64(1+prng.Intn(5)), uint64(i), references...)
		blocks = append(blocks, block)
		processAccepted(t, graph, block)
	}

	tipBefore, heightBefore := graph.PivotTip()
	tipsBefore := graph.TipHashes()
	countBefore := graph.BlockCount()
	genesisHash := graph.Params.GenesisBlock.BlockHash()
	rootWeightBefore, err := graph.SubtreeWeight(&genesisHash)
	if err != nil {
		t.Fatalf("SubtreeWeight before restart: %v", err)
	}

	err = databaseContext.Close()
	if err != nil {
		t.Fatalf("closing database: %v", err)
	}

	// Reopen: New must replay the stored sequence through the normal
	// insertion path.
	reopened, err := dbaccess.New(dbPath)
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer func() {
		if err := reopened.Close(); err != nil {
			t.Errorf("closing reopened database: %v", err)
		}
	}()
	params := dagconfig.SimnetParams
	recovered, err := New(&Config{
		DAGParams:       &params,
		DatabaseContext: reopened,
	})
	if err != nil {
		t.Fatalf("New over existing database: %v", err)
	}

	if recovered.BlockCount() != countBefore {
		t.Fatalf("recovered %d blocks, want %d", recovered.BlockCount(), countBefore)
	}
	tipAfter, heightAfter := recovered.PivotTip()
	if !tipAfter.IsEqual(tipBefore) || heightAfter != heightBefore {
		t.Fatalf("recovered pivot tip is %s at %d, want %s at %d",
			tipAfter, heightAfter, tipBefore, heightBefore)
	}
	if !daghash.HashesEqual(recovered.TipHashes(), tipsBefore) {
		t.Fatalf("recovered tips are %v, want %v",
			daghash.Strings(recovered.TipHashes()), daghash.Strings(tipsBefore))
	}
	rootWeightAfter, err := recovered.SubtreeWeight(&genesisHash)
	if err != nil {
		t.Fatalf("SubtreeWeight after restart: %v", err)
	}
	if rootWeightAfter != rootWeightBefore {
		t.Fatalf("recovered root weight is %d, want %d", rootWeightAfter, rootWeightBefore)
	}

	// Per-block adaptive classifications survive the restart.
	graph.dagLock.Lock()
	recovered.dagLock.Lock()
	for _, node := range graph.arena.nodes {
		recoveredNode := recovered.arena.lookup(&node.hash)
		if recoveredNode == nil {
			t.Fatalf("block %s missing after recovery", node.hash)
		}
		if recoveredNode.adaptive != node.adaptive {
			t.Fatalf("block %s adaptive flag flipped across restart", node.hash)
		}
	}
	recovered.dagLock.Unlock()
	graph.dagLock.Unlock()
}
