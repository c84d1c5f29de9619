// Copyright (c) 2015-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/sxwallet/sxwallet/internal/prompt"
	"github.com/sxwallet/sxwallet/ledger"
	"github.com/sxwallet/sxwallet/netparams"
)

const defaultNet = "mainnet"

var datadir = btcutil.AppDataDir("sxwallet", false)

// Flags.
var opts = struct {
	Force          bool   `short:"f" description:"Force removal without prompt"`
	DataDir        string `long:"datadir" description:"Directory of the wallet"`
	Network        string `long:"net" description:"Network of the wallet {mainnet, testnet3, regtest, simnet}"`
	KeepNarrations bool   `long:"keepnarrations" description:"Keep the narrations of dropped transactions"`
}{
	Force:   false,
	DataDir: datadir,
	Network: defaultNet,
}

func init() {
	_, err := flags.Parse(&opts)
	if err != nil {
		os.Exit(1)
	}
}

func main() {
	os.Exit(mainInt())
}

func mainInt() int {
	params, err := netparams.ByName(opts.Network)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	dbDir := filepath.Join(opts.DataDir, params.Name)
	fmt.Println("Database path:", filepath.Join(dbDir, ledger.WalletDBName))
	exists, err := ledger.Exists(dbDir)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	if !exists {
		fmt.Println("Database file does not exist")
		return 1
	}

	if !opts.Force {
		drop, err := prompt.Confirm(
			bufio.NewReader(os.Stdin), os.Stdout,
			"Drop all sxwallet transaction history?", "no",
		)
		if err != nil || !drop {
			return 0
		}
	}

	fmt.Println("Dropping wtxmgr namespace")
	err = ledger.DropTransactionHistory(ledger.Config{
		DBDir:       dbDir,
		ChainParams: params,
	}, opts.KeepNarrations)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	return 0
}
