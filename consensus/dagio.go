package consensus

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/dbaccess"
	"github.com/MazzeLabs/go-mazze/infrastructure/logger"
	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// recoverFromDB rebuilds the DAG from the blocks persisted in the database,
// in their stored insertion order. That order is dependency-safe, since a
// block is only ever stored after its dependencies activated, so the replay
// re-runs the normal insertion path and re-derives the identical weight
// aggregates, pivot chain and epoch assignment without re-downloading
// history.
func (g *ConsensusGraph) recoverFromDB() error {
	g.dagLock.Lock()
	defer g.dagLock.Unlock()
	defer logger.LogAndMeasureExecutionTime(log, "recoverFromDB")()

	recovered := 0
	err := dbaccess.ForEachBlockHashBySequence(g.databaseContext, func(hash *daghash.Hash) error {
		blockBytes, err := dbaccess.FetchBlock(g.databaseContext, hash)
		if err != nil {
			return err
		}
		block := &wire.MsgBlock{}
		err = block.Deserialize(bytes.NewReader(blockBytes))
		if err != nil {
			return errors.Wrapf(err, "stored block %s is corrupt", hash)
		}

		isPending, err := g.processBlockNoLock(block, BFWasStored)
		if err != nil {
			var ruleErr RuleError
			if errors.As(err, &ruleErr) && ruleErr.ErrorCode == ErrDuplicateBlock {
				return nil
			}
			return err
		}
		if isPending {
			return errors.Errorf("stored block %s has missing "+
				"dependencies, the replay sequence is corrupt", hash)
		}
		recovered++
		return nil
	})
	if err != nil {
		return err
	}

	if recovered > 0 {
		tip := g.arena.node(g.pivotChain[len(g.pivotChain)-1])
		log.Infof("Recovered %d blocks from database, pivot tip %s at height %d",
			recovered, tip.hash, tip.height)
	}
	return nil
}
