// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
)

// MazzeNet represents which mazze network a message belongs to.
type MazzeNet uint32

// Constants used to indicate the message mazze network. They can also be
// used to seek to the next message when a stream's state is unknown, but
// this package does not provide that functionality since it's generally a
// better idea to simply disconnect clients that are misbehaving over TCP.
const (
	// Mainnet represents the main mazze network.
	Mainnet MazzeNet = 0x3652ceb1

	// Testnet represents the test network.
	Testnet MazzeNet = 0x0709110b

	// Simnet represents the simulation test network.
	Simnet MazzeNet = 0x12141c16
)

// bnStrings is a map of mazze networks back to their constant names for
// pretty printing.
var bnStrings = map[MazzeNet]string{
	Mainnet: "Mainnet",
	Testnet: "Testnet",
	Simnet:  "Simnet",
}

// String returns the MazzeNet in human-readable form.
func (n MazzeNet) String() string {
	if s, ok := bnStrings[n]; ok {
		return s
	}

	return fmt.Sprintf("Unknown MazzeNet (%d)", uint32(n))
}
