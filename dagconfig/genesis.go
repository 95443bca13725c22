// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"time"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// genesisCoinbaseTx is the coinbase transaction for the genesis blocks.
var genesisCoinbaseTx = wire.MsgTx{
	Version: 1,
	Payload: []byte("mazze-treegraph-genesis"),
}

// genesisBlock defines the genesis block of the DAG which serves as the
// public transaction ledger for the main network.
var genesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:         1,
		ParentHash:      daghash.ZeroHash,
		ReferenceHashes: []daghash.Hash{},
		MerkleRoot:      daghash.DoubleHashH(genesisCoinbaseTx.Payload),
		Height:          0,
		Difficulty:      1,
		Timestamp:       time.Unix(0x66A00000, 0).UTC(),
		Nonce:           0,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// genesisHash is the hash of the first block in the block DAG for the main
// network (genesis block). It is derived from the header rather than
// hard-coded so that it can never drift from the encoding.
var genesisHash = genesisBlock.BlockHash()

// simnetGenesisCoinbaseTx is the coinbase transaction for the simnet genesis
// block.
var simnetGenesisCoinbaseTx = wire.MsgTx{
	Version: 1,
	Payload: []byte("mazze-treegraph-simnet-genesis"),
}

// simnetGenesisBlock defines the genesis block of the DAG for the simulation
// test network.
var simnetGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:         1,
		ParentHash:      daghash.ZeroHash,
		ReferenceHashes: []daghash.Hash{},
		MerkleRoot:      daghash.DoubleHashH(simnetGenesisCoinbaseTx.Payload),
		Height:          0,
		Difficulty:      1,
		Timestamp:       time.Unix(0x66A00000, 0).UTC(),
		Nonce:           0,
	},
	Transactions: []*wire.MsgTx{&simnetGenesisCoinbaseTx},
}

// simnetGenesisHash is the hash of the first block in the block DAG for the
// simulation test network.
var simnetGenesisHash = simnetGenesisBlock.BlockHash()
