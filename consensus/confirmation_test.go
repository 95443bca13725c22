package consensus

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

func TestConfirmationRisk(t *testing.T) {
	graph, params := newTestGraph(t)
	genesis := params.GenesisBlock
	genesisHash := genesis.BlockHash()

	// Genesis has no competition.
	risk, err := graph.ConfirmationRisk(&genesisHash)
	if err != nil {
		t.Fatalf("ConfirmationRisk(genesis): %v", err)
	}
	if risk != 0 {
		t.Fatalf("genesis risk is %v, want 0", risk)
	}

	// Two competing siblings of weight 5: the pivot side's risk is the
	// competing half of the weight race.
	blockA, blockB := minedSiblings(t, genesis, 5, 5)
	hashA, hashB := blockA.BlockHash(), blockB.BlockHash()
	processAccepted(t, graph, blockA)
	processAccepted(t, graph, blockB)

	risk, err = graph.ConfirmationRisk(&hashA)
	if err != nil {
		t.Fatalf("ConfirmationRisk(A): %v", err)
	}
	if risk != 0.5 {
		t.Fatalf("risk of A with an equal competitor is %v, want 0.5", risk)
	}

	// The losing sibling is active but claimed by no epoch: maximum risk.
	risk, err = graph.ConfirmationRisk(&hashB)
	if err != nil {
		t.Fatalf("ConfirmationRisk(B): %v", err)
	}
	if risk != 1 {
		t.Fatalf("risk of the unsealed sibling is %v, want 1", risk)
	}

	// Weight accumulating on A's subtree must drive its risk down,
	// monotonically.
	previous := 0.5
	tip := blockA
	for i := 0; i < 5; i++ {
		tip = childBlock(tip, 5, uint64(i))
		processAccepted(t, graph, tip)

		risk, err = graph.ConfirmationRisk(&hashA)
		if err != nil {
			t.Fatalf("ConfirmationRisk(A) after extension %d: %v", i, err)
		}
		if risk > previous {
			t.Fatalf("risk of A rose from %v to %v as its subtree grew", previous, risk)
		}
		previous = risk
	}
	if previous >= 0.2 {
		t.Fatalf("risk of A is still %v after five extensions", previous)
	}
}

func TestConfirmationRiskUnknownBlock(t *testing.T) {
	graph, _ := newTestGraph(t)

	unknown := daghash.Hash{0xde, 0xad}
	_, err := graph.ConfirmationRisk(&unknown)
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) || ruleErr.ErrorCode != ErrNotInDAG {
		t.Fatalf("ConfirmationRisk(unknown) = %v, want ErrNotInDAG", err)
	}
}
