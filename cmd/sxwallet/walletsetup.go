// Copyright (c) 2014-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sxwallet/sxwallet/internal/prompt"
	"github.com/sxwallet/sxwallet/internal/zero"
	"github.com/sxwallet/sxwallet/ledger"
	"github.com/sxwallet/sxwallet/netparams"
)

// createWallet prompts the user for an optional passphrase and creates a
// new wallet in the network directory of the data directory.
func createWallet(cfg *config, params *netparams.Params,
	reader *bufio.Reader, out io.Writer) error {

	lcfg := cfg.ledgerConfig(params)
	exists, err := ledger.Exists(lcfg.DBDir)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("the wallet already exists in %s", lcfg.DBDir)
	}

	encrypt, err := prompt.Confirm(
		reader, out, "Do you want to encrypt the wallet?", "yes",
	)
	if err != nil {
		return err
	}
	var passphrase []byte
	if encrypt {
		passphrase, err = prompt.PassPrompt(
			reader, out, "Enter the wallet passphrase", true,
		)
		if err != nil {
			return err
		}
		defer zero.Bytes(passphrase)
	}

	fmt.Fprintln(out, "Creating the wallet...")
	l, err := ledger.Create(lcfg)
	if err != nil {
		return err
	}
	defer l.Close()

	if _, err := l.NewAddress(""); err != nil {
		return err
	}
	stealthAddr, err := l.NewStealthAddress("")
	if err != nil {
		return err
	}
	if encrypt {
		if err := l.EncryptWallet(passphrase); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "The wallet has been created successfully.")
	fmt.Fprintf(out, "Stealth address: %s\n", stealthAddr)

	return nil
}
