package config

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is
// selected.
type NetworkFlags struct {
	Simnet bool `long:"simnet" description:"Use the simulation test network"`

	ActiveNetParams *dagconfig.Params
}

// ResolveNetwork parses the network command line arguments and sets
// ActiveNetParams accordingly. The default is the main network.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	networkFlags.ActiveNetParams = &dagconfig.MainnetParams
	numNets := 0
	if networkFlags.Simnet {
		numNets++
		networkFlags.ActiveNetParams = &dagconfig.SimnetParams
	}
	if numNets > 1 {
		err := errors.New("multiple network parameters cannot be used " +
			"together, please choose only one network")
		parser.WriteHelp(os.Stderr)
		return err
	}
	return nil
}

// NetParams returns the selected network parameters.
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}
