// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/sxwallet/sxwallet/internal/prompt"
	"github.com/sxwallet/sxwallet/ledger"
	"github.com/sxwallet/sxwallet/wallet"
)

func main() {
	// Work around defer not working after os.Exit.
	if err := walletMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// walletMain is a work-around main function that is required since deferred
// functions (such as log flushing) are not called with calls to os.Exit.
// Instead, main runs this function and checks for a non-nil error, at which
// point any defers have already run, and if the error is non-nil, the program
// can be exited with an error exit status.
func walletMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, params, args, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	defer closeLogRotator()

	if len(args) == 0 {
		usage(os.Stdout)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	if len(args)-1 < cmd.minArgs || len(args)-1 > cmd.maxArgs {
		return fmt.Errorf("usage: %s %s", args[0], cmd.usage)
	}

	reader := bufio.NewReader(os.Stdin)
	if cmd.handler == nil {
		return createWallet(cfg, params, reader, os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addInterruptHandler(cancel)

	l, err := ledger.Open(cfg.ledgerConfig(params))
	if err != nil {
		log.Errorf("Unable to open the wallet: %v", err)
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Errorf("Unable to close the wallet: %v", err)
		}
	}()

	model, err := wallet.New(wallet.Config{
		Ledger:      l,
		ChainParams: params,
		Fees:        wallet.FeePolicy{FeeRate: cfg.PayTxFee.Amount},
		FeeConfirmer: prompt.NewFeeConfirmer(
			reader, os.Stdout, cfg.ConfirmFeeAbove.Amount,
		),
		UnlockPrompt: prompt.NewUnlockPrompt(
			reader, os.Stdout, cfg.UnlockStakingOnly,
		),
		UnlockStakingOnly: cfg.UnlockStakingOnly,
	})
	if err != nil {
		return err
	}
	l.RegisterListener(model)
	if err := model.Start(); err != nil {
		return err
	}
	defer model.Stop()

	sub := model.Subscribe()
	defer sub.Cancel()
	go logEvents(ctx, sub)

	a := &app{
		cfg:    cfg,
		params: params,
		ledger: l,
		model:  model,
		reader: reader,
		out:    os.Stdout,
	}
	return cmd.handler(ctx, a, args[1:])
}

// logEvents logs the events of the wallet model until ctx is done or the
// subscription ends.
func logEvents(ctx context.Context, sub *wallet.Subscription) {
	for {
		select {
		case e := <-sub.Updates():
			switch e := e.(type) {
			case wallet.BalanceChanged:
				log.Debugf("Balances changed: %v", e.Balances)
			case wallet.TransactionChanged:
				log.Debugf("Transaction %v: %v", e.Hash, e.Change)
			case wallet.EncryptionStatusChanged:
				log.Debugf("Encryption status: %v", e.Status)
			case wallet.UnlockRequired:
				log.Debugf("Unlock required")
			default:
				log.Tracef("Wallet event %T", e)
			}

		case <-sub.Done():
			return

		case <-ctx.Done():
			return
		}
	}
}
