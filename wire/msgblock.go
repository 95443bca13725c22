// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

// maxTxPerBlock is the maximum number of transactions a block can declare, as
// a sanity limit against corrupted input.
const maxTxPerBlock = 1 << 20

// MsgBlock implements the Message interface and represents a block message.
// It is used to deliver block and transaction information in response to a
// getdata-style request, and it is the unit the consensus engine ingests.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// NewMsgBlock returns a new block message that conforms to the Message
// interface using the passed header.
func NewMsgBlock(header *BlockHeader) *MsgBlock {
	return &MsgBlock{
		Header: *header,
	}
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// ClearTransactions removes all transactions from the message.
func (msg *MsgBlock) ClearTransactions() {
	msg.Transactions = make([]*MsgTx, 0)
}

// BlockHash computes the block identifier hash for this block.
func (msg *MsgBlock) BlockHash() daghash.Hash {
	return msg.Header.BlockHash()
}

// Serialize encodes the block to w using a format that is suitable for
// long-term storage such as a database.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	err := msg.Header.Serialize(w)
	if err != nil {
		return err
	}
	err = writeElement(w, uint32(len(msg.Transactions)))
	if err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		err = tx.Serialize(w)
		if err != nil {
			return err
		}
	}
	return nil
}

// Deserialize decodes a block from r into the receiver.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	err := msg.Header.Deserialize(r)
	if err != nil {
		return err
	}
	var numTx uint32
	err = readElement(r, &numTx)
	if err != nil {
		return err
	}
	if numTx > maxTxPerBlock {
		return errors.Errorf("block declares %d transactions which is "+
			"larger than the maximum of %d", numTx, maxTxPerBlock)
	}
	msg.Transactions = make([]*MsgTx, numTx)
	for i := range msg.Transactions {
		tx := &MsgTx{}
		err = tx.Deserialize(r)
		if err != nil {
			return err
		}
		msg.Transactions[i] = tx
	}
	return nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// block.
func (msg *MsgBlock) SerializeSize() int {
	n := msg.Header.SerializeSize() + 4
	for _, tx := range msg.Transactions {
		n += tx.SerializeSize()
	}
	return n
}
