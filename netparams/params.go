// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// Params is used to group parameters for various networks such as the main
// network and test networks.
type Params struct {
	*chaincfg.Params

	// StealthAddressID is the base58check version byte of stealth
	// addresses on this network.
	StealthAddressID byte

	// DefaultPayTxFee is the fee rate, per kilobyte, paid by transactions
	// when the user did not configure one. It doubles as the minimum fee
	// a send must be able to cover before a transaction is built.
	DefaultPayTxFee btcutil.Amount
}

// MainNetParams contains parameters specific running sxwallet on the main
// network (wire.MainNet).
var MainNetParams = Params{
	Params:           &chaincfg.MainNetParams,
	StealthAddressID: 0x28,
	DefaultPayTxFee:  10000,
}

// TestNet3Params contains parameters specific running sxwallet on the test
// network (version 3) (wire.TestNet3).
var TestNet3Params = Params{
	Params:           &chaincfg.TestNet3Params,
	StealthAddressID: 0x2b,
	DefaultPayTxFee:  10000,
}

// RegressionNetParams contains parameters specific to the regression test
// network (wire.TestNet).
var RegressionNetParams = Params{
	Params:           &chaincfg.RegressionNetParams,
	StealthAddressID: 0x2b,
	DefaultPayTxFee:  10000,
}

// SimNetParams contains parameters specific to the simulation test network
// (wire.SimNet).
var SimNetParams = Params{
	Params:           &chaincfg.SimNetParams,
	StealthAddressID: 0x2b,
	DefaultPayTxFee:  10000,
}

// ByName returns the parameters of the network with the given name.
func ByName(name string) (*Params, error) {
	for _, p := range []*Params{
		&MainNetParams, &TestNet3Params, &RegressionNetParams,
		&SimNetParams,
	} {
		if p.Name == name {
			return p, nil
		}
	}

	return nil, fmt.Errorf("unknown network %q", name)
}
