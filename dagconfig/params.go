// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"time"

	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

const (
	// targetTimePerBlock is the desired amount of time to generate each
	// block on the main network.
	targetTimePerBlock = 1 * time.Second

	// adaptiveTimeWindow is the protocol-fixed window used by adaptive
	// weight classification. A block whose own timestamp deviates from its
	// declared view by more than this window is classified adaptive.
	adaptiveTimeWindow = 240 * time.Second

	// adaptiveWeightDiscount is the divisor applied to the weight of an
	// adaptive block when it is aggregated into ancestor subtree weights.
	adaptiveWeightDiscount = 2

	// pendingBlockExpiration is how long a block whose parent or
	// references are unknown is buffered before it is dropped and must be
	// re-requested from the network layer.
	pendingBlockExpiration = time.Hour

	// maxPendingBlocks is the maximum number of blocks held in the
	// pending pool.
	maxPendingBlocks = 1024
)

// Params defines a Tree-Graph network by its parameters. These parameters may
// be used by applications to differentiate networks as well as addresses and
// keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.MazzeNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisBlock defines the first block of the DAG.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the starting block hash.
	GenesisHash *daghash.Hash

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// AdaptiveTimeWindow is the time window used by the adaptive weight
	// module. It is a protocol constant: all nodes must agree on it for
	// the adaptive classification to be consensus-compatible.
	AdaptiveTimeWindow time.Duration

	// AdaptiveWeightDiscount is the divisor applied to the weight
	// contribution of adaptive blocks. Protocol constant.
	AdaptiveWeightDiscount uint64

	// PivotConfirmThreshold is the minimum subtree-weight advantage
	// required to keep descending during pivot selection. Zero means the
	// selection always descends to a leaf.
	PivotConfirmThreshold int64

	// PendingBlockExpiration is how long a block missing dependencies is
	// buffered before being dropped.
	PendingBlockExpiration time.Duration

	// MaxPendingBlocks limits the size of the pending pool.
	MaxPendingBlocks int
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:        "mazze-mainnet",
	Net:         wire.Mainnet,
	DefaultPort: "16316",

	GenesisBlock: &genesisBlock,
	GenesisHash:  &genesisHash,

	TargetTimePerBlock:     targetTimePerBlock,
	AdaptiveTimeWindow:     adaptiveTimeWindow,
	AdaptiveWeightDiscount: adaptiveWeightDiscount,
	PivotConfirmThreshold:  0,
	PendingBlockExpiration: pendingBlockExpiration,
	MaxPendingBlocks:       maxPendingBlocks,
}

// SimnetParams defines the network parameters for the simulation test
// network. This network is similar to the normal test network except it is
// intended for private use within a group of individuals doing simulation
// testing.
var SimnetParams = Params{
	Name:        "mazze-simnet",
	Net:         wire.Simnet,
	DefaultPort: "16511",

	GenesisBlock: &simnetGenesisBlock,
	GenesisHash:  &simnetGenesisHash,

	TargetTimePerBlock:     time.Second,
	AdaptiveTimeWindow:     adaptiveTimeWindow,
	AdaptiveWeightDiscount: adaptiveWeightDiscount,
	PivotConfirmThreshold:  0,
	PendingBlockExpiration: 10 * time.Minute,
	MaxPendingBlocks:       maxPendingBlocks,
}

var (
	// ErrDuplicateNet describes an error where the parameters for a
	// network could not be set due to the network already being a standard
	// network or previously-registered via this package.
	ErrDuplicateNet = errors.New("duplicate network")

	registeredNets = make(map[wire.MazzeNet]struct{})
)

// Register registers the network parameters for a Tree-Graph network. This
// may error with ErrDuplicateNet if the network is already registered (either
// due to a previous Register call, or the network being one of the default
// networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Net] = struct{}{}
	return nil
}

// mustRegister performs the same function as Register except it panics if
// there is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&SimnetParams)
}
