// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

// MsgTx implements the Message interface and represents a transaction
// message. Transaction validation and execution happen outside the consensus
// engine, so only the identity and the opaque payload travel through it.
type MsgTx struct {
	// Version of the transaction encoding.
	Version int32

	// Payload is the serialized transaction body. The consensus engine
	// never interprets it; it is handed to the execution engine in epoch
	// order.
	Payload []byte
}

// NewMsgTx returns a new tx message carrying the passed payload.
func NewMsgTx(version int32, payload []byte) *MsgTx {
	return &MsgTx{
		Version: version,
		Payload: payload,
	}
}

// TxID generates the identifier hash for the transaction.
func (msg *MsgTx) TxID() daghash.TxID {
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	_ = msg.Serialize(buf)
	return daghash.TxID(daghash.DoubleHashH(buf.Bytes()))
}

// Serialize encodes the transaction to w using a format that is suitable for
// long-term storage such as a database.
func (msg *MsgTx) Serialize(w io.Writer) error {
	err := writeElement(w, msg.Version)
	if err != nil {
		return err
	}
	return writeVarBytes(w, msg.Payload)
}

// Deserialize decodes a transaction from r into the receiver.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	err := readElement(r, &msg.Version)
	if err != nil {
		return err
	}
	msg.Payload, err = readVarBytes(r)
	return err
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (msg *MsgTx) SerializeSize() int {
	return 8 + len(msg.Payload)
}
