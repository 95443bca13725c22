package dbaccess

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

const (
	blocksBucket         = "blocks"
	blockSequenceBucket  = "block-sequence"
	blockMetaBucket      = "block-meta"
	blockSequenceCounter = "block-sequence-counter"
)

// BlockMeta is the per-block consensus metadata that must survive restarts so
// that weight aggregates and pivot selection are reproducible without
// re-downloading history.
type BlockMeta struct {
	// Adaptive is the block's adaptive-weight classification. It is
	// assigned exactly once and never revisited, so persisting it keeps
	// the classification stable across restarts.
	Adaptive bool
}

// StoreBlock stores the given block bytes under its hash, and appends the
// hash to the replay sequence. The sequence preserves the local insertion
// order, which is dependency-safe: every parent was inserted before its
// children, so replaying the sequence on startup re-creates the identical
// DAG.
func StoreBlock(ctx *DatabaseContext, hash *daghash.Hash, blockBytes []byte) error {
	exists, err := HasBlock(ctx, hash)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf("block %s already exists", hash)
	}

	sequence, err := nextBlockSequence(ctx)
	if err != nil {
		return err
	}
	var sequenceKey [8]byte
	binary.BigEndian.PutUint64(sequenceKey[:], sequence)
	err = ctx.put(bucket(blockSequenceBucket, sequenceKey[:]), hash.CloneBytes())
	if err != nil {
		return err
	}

	return ctx.put(bucket(blocksBucket, hash.CloneBytes()), blockBytes)
}

// FetchBlock returns the bytes of the block with the given hash. Returns an
// error satisfying IsNotFoundError if the block is not stored.
func FetchBlock(ctx *DatabaseContext, hash *daghash.Hash) ([]byte, error) {
	return ctx.get(bucket(blocksBucket, hash.CloneBytes()))
}

// HasBlock returns whether a block with the given hash is stored.
func HasBlock(ctx *DatabaseContext, hash *daghash.Hash) (bool, error) {
	return ctx.has(bucket(blocksBucket, hash.CloneBytes()))
}

// StoreBlockMeta stores the consensus metadata for the given block.
func StoreBlockMeta(ctx *DatabaseContext, hash *daghash.Hash, meta *BlockMeta) error {
	value := []byte{0}
	if meta.Adaptive {
		value[0] = 1
	}
	return ctx.put(bucket(blockMetaBucket, hash.CloneBytes()), value)
}

// FetchBlockMeta returns the consensus metadata stored for the given block.
// Returns an error satisfying IsNotFoundError if no metadata is stored.
func FetchBlockMeta(ctx *DatabaseContext, hash *daghash.Hash) (*BlockMeta, error) {
	value, err := ctx.get(bucket(blockMetaBucket, hash.CloneBytes()))
	if err != nil {
		return nil, err
	}
	if len(value) != 1 {
		return nil, errors.Errorf("corrupt block meta for %s: %d bytes", hash, len(value))
	}
	return &BlockMeta{Adaptive: value[0] == 1}, nil
}

// ForEachBlockHashBySequence calls fn for every stored block hash in
// insertion-sequence order. Iteration stops early if fn returns an error.
func ForEachBlockHashBySequence(ctx *DatabaseContext, fn func(hash *daghash.Hash) error) error {
	iter := ctx.iterate(bucket(blockSequenceBucket, nil))
	defer iter.Release()
	for iter.Next() {
		hash, err := daghash.NewHash(iter.Value())
		if err != nil {
			return err
		}
		err = fn(hash)
		if err != nil {
			return err
		}
	}
	return errors.WithStack(iter.Error())
}

// nextBlockSequence increments and returns the block sequence counter.
func nextBlockSequence(ctx *DatabaseContext) (uint64, error) {
	counterKey := bucket(blockSequenceCounter, nil)
	var sequence uint64
	value, err := ctx.get(counterKey)
	if err != nil && !IsNotFoundError(err) {
		return 0, err
	}
	if err == nil {
		if len(value) != 8 {
			return 0, errors.Errorf("corrupt block sequence counter: %d bytes", len(value))
		}
		sequence = binary.BigEndian.Uint64(value)
	}

	var next [8]byte
	binary.BigEndian.PutUint64(next[:], sequence+1)
	err = ctx.put(counterKey, next[:])
	if err != nil {
		return 0, err
	}
	return sequence, nil
}
