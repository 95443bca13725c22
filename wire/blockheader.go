// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

// BaseBlockHeaderPayload is the base number of bytes a block header can be,
// not including the list of reference hashes.
// Version 4 bytes + Height 8 bytes + Difficulty 8 bytes + Timestamp 8 bytes +
// Nonce 8 bytes + NumReferences 1 byte + ParentHash and MerkleRoot hashes.
// To get the total size of a block header, len(ReferenceHashes) *
// daghash.HashSize should be added to this value.
const BaseBlockHeaderPayload = 37 + 2*daghash.HashSize

// MaxNumReferences is the maximum number of reference blocks a block header
// can carry. Currently set to 255 as the maximum number NumReferences can be
// due to it being a byte.
const MaxNumReferences = 255

// MaxBlockHeaderPayload is the maximum number of bytes a block header can be.
// BaseBlockHeaderPayload + up to MaxNumReferences reference hashes.
const MaxBlockHeaderPayload = BaseBlockHeaderPayload + (MaxNumReferences * daghash.HashSize)

// BlockHeader defines information about a block in the block DAG. Every block
// has exactly one parent, which defines the tree backbone the pivot chain is
// selected on, and any number of reference hashes pointing at other blocks
// the miner observed but did not parent.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version int32

	// Hash of the parent block. The zero hash for the genesis block.
	ParentHash daghash.Hash

	// Hashes of the referenced blocks in the DAG. References carry weight
	// and epoch membership but are never descended by pivot selection.
	ReferenceHashes []daghash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot daghash.Hash

	// Height is the parent's height plus one. Zero for genesis.
	Height uint64

	// Difficulty is the proof-of-work weight of this block. The upstream
	// validator has already checked the solution against it.
	Difficulty uint64

	// Time the block was created, truncated to millisecond precision.
	Timestamp time.Time

	// Nonce used to generate the block.
	Nonce uint64
}

// NumReferences returns the number of reference hashes in the header.
func (h *BlockHeader) NumReferences() byte {
	return byte(len(h.ReferenceHashes))
}

// BlockHash computes the block identifier hash for the given block header.
func (h *BlockHeader) BlockHash() daghash.Hash {
	// Encode the header and double sha256 everything. Ignore the error
	// returns since there is no way the encode could fail except being out
	// of memory which would cause a run-time panic.
	buf := bytes.NewBuffer(make([]byte, 0, BaseBlockHeaderPayload+len(h.ReferenceHashes)*daghash.HashSize))
	_ = writeBlockHeader(buf, h)

	return daghash.DoubleHashH(buf.Bytes())
}

// IsGenesis returns whether this header describes a genesis block, i.e. one
// with the zero parent hash.
func (h *BlockHeader) IsGenesis() bool {
	return h.ParentHash == daghash.ZeroHash
}

// Serialize encodes a block header from r into the receiver using a format
// that is suitable for long-term storage such as a database.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize decodes a block header from r into the receiver using a format
// that is suitable for long-term storage such as a database.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// SerializeSize returns the number of bytes it would take to serialize the
// block header.
func (h *BlockHeader) SerializeSize() int {
	return BaseBlockHeaderPayload + len(h.ReferenceHashes)*daghash.HashSize
}

// writeBlockHeader writes a block header to w.
func writeBlockHeader(w io.Writer, h *BlockHeader) error {
	timestamp := h.Timestamp.UnixNano() / int64(time.Millisecond)
	err := writeElements(w, h.Version, &h.ParentHash, h.NumReferences())
	if err != nil {
		return err
	}
	for i := range h.ReferenceHashes {
		err = writeElement(w, &h.ReferenceHashes[i])
		if err != nil {
			return err
		}
	}
	return writeElements(w, &h.MerkleRoot, h.Height, h.Difficulty, timestamp, h.Nonce)
}

// readBlockHeader reads a block header from r.
func readBlockHeader(r io.Reader, h *BlockHeader) error {
	var numReferences byte
	err := readElements(r, &h.Version, &h.ParentHash, &numReferences)
	if err != nil {
		return err
	}
	h.ReferenceHashes = make([]daghash.Hash, numReferences)
	for i := range h.ReferenceHashes {
		err = readElement(r, &h.ReferenceHashes[i])
		if err != nil {
			return err
		}
	}
	var timestamp int64
	err = readElements(r, &h.MerkleRoot, &h.Height, &h.Difficulty, &timestamp, &h.Nonce)
	if err != nil {
		return err
	}
	h.Timestamp = time.Unix(timestamp/1000, (timestamp%1000)*int64(time.Millisecond)).UTC()
	return nil
}
