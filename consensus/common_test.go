package consensus

import (
	"testing"
	"time"

	"github.com/MazzeLabs/go-mazze/dagconfig"
	"github.com/MazzeLabs/go-mazze/dbaccess"
	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// newTestGraph returns a memory-only ConsensusGraph over a private copy of
// the simnet parameters, so tests can tweak protocol constants freely.
func newTestGraph(t *testing.T) (*ConsensusGraph, *dagconfig.Params) {
	t.Helper()
	params := dagconfig.SimnetParams
	graph, err := New(&Config{DAGParams: &params})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return graph, &params
}

// newTestGraphWithDB returns a ConsensusGraph backed by a database in a
// temporary directory.
func newTestGraphWithDB(t *testing.T, dbPath string) (*ConsensusGraph, *dbaccess.DatabaseContext) {
	t.Helper()
	databaseContext, err := dbaccess.New(dbPath)
	if err != nil {
		t.Fatalf("dbaccess.New: unexpected error: %v", err)
	}
	params := dagconfig.SimnetParams
	graph, err := New(&Config{
		DAGParams:       &params,
		DatabaseContext: databaseContext,
	})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return graph, databaseContext
}

// childBlock builds a block on top of the given parent with the given
// references. The timestamp defaults to one target interval after the
// parent's unless overridden with at().
func childBlock(parent *wire.MsgBlock, difficulty uint64, nonce uint64, references ...*wire.MsgBlock) *wire.MsgBlock {
	header := wire.BlockHeader{
		Version:         1,
		ParentHash:      parent.BlockHash(),
		ReferenceHashes: []daghash.Hash{},
		Height:          parent.Header.Height + 1,
		Difficulty:      difficulty,
		Timestamp:       parent.Header.Timestamp.Add(time.Second),
		Nonce:           nonce,
	}
	for _, reference := range references {
		header.ReferenceHashes = append(header.ReferenceHashes, reference.BlockHash())
	}
	return &wire.MsgBlock{Header: header}
}

// at returns a copy of the block with the given timestamp.
func at(block *wire.MsgBlock, timestamp time.Time) *wire.MsgBlock {
	copied := *block
	copied.Header.Timestamp = timestamp
	return &copied
}

// minedSiblings builds two sibling blocks of the given weights on top of
// parent and grinds the second block's nonce until its hash is byte-wise
// greater than the first's, so tests control which side the hash tie-break
// favors.
func minedSiblings(t *testing.T, parent *wire.MsgBlock, firstWeight, secondWeight uint64) (smaller, greater *wire.MsgBlock) {
	t.Helper()
	smaller = childBlock(parent, firstWeight, 0)
	smallerHash := smaller.BlockHash()
	for nonce := uint64(1); ; nonce++ {
		candidate := childBlock(parent, secondWeight, nonce)
		candidateHash := candidate.BlockHash()
		if daghash.Less(&smallerHash, &candidateHash) {
			return smaller, candidate
		}
		if nonce > 10000 {
			t.Fatal("minedSiblings: no greater hash found after 10000 nonces")
		}
	}
}

// processAccepted processes a block and fails the test if it errors or ends
// up pending.
func processAccepted(t *testing.T, graph *ConsensusGraph, block *wire.MsgBlock) {
	t.Helper()
	isPending, err := graph.ProcessBlock(block, BFNone)
	if err != nil {
		t.Fatalf("ProcessBlock(%s): unexpected error: %v", block.BlockHash(), err)
	}
	if isPending {
		t.Fatalf("ProcessBlock(%s): unexpectedly pending", block.BlockHash())
	}
}
