// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sxwallet/sxwallet/internal/cfgutil"
	"github.com/sxwallet/sxwallet/internal/prompt"
	"github.com/sxwallet/sxwallet/internal/zero"
	"github.com/sxwallet/sxwallet/ledger"
	"github.com/sxwallet/sxwallet/netparams"
	"github.com/sxwallet/sxwallet/wallet"
)

// blockReward is the coinbase value of blocks connected by generate.
const blockReward = 50 * btcutil.SatoshiPerBitcoin

// app is the state shared by command handlers.
type app struct {
	cfg    *config
	params *netparams.Params
	ledger *ledger.Ledger
	model  *wallet.Model
	reader *bufio.Reader
	out    io.Writer
}

type command struct {
	usage   string
	minArgs int
	maxArgs int

	// handler is nil for create, which runs without an open wallet.
	handler func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"create": {usage: ""},
	"getbalance": {
		usage: "", handler: getBalance,
	},
	"getnewaddress": {
		usage: "[label]", maxArgs: 1, handler: getNewAddress,
	},
	"getnewstealthaddress": {
		usage: "[label]", maxArgs: 1, handler: getNewStealthAddress,
	},
	"importaddress": {
		usage: "<address>", minArgs: 1, maxArgs: 1,
		handler: importAddress,
	},
	"send": {
		usage:   "<address> <amount> [narration] [label]",
		minArgs: 2, maxArgs: 4, handler: send,
	},
	"listcoins": {
		usage: "", handler: listCoins,
	},
	"lockunspent": {
		usage:   "<lock|unlock> <txid:index>",
		minArgs: 2, maxArgs: 2, handler: lockUnspent,
	},
	"listaddressbook": {
		usage: "", handler: listAddressBook,
	},
	"getnarrations": {
		usage: "<txid>", minArgs: 1, maxArgs: 1, handler: getNarrations,
	},
	"encryptwallet": {
		usage: "", handler: encryptWallet,
	},
	"walletpassphrasechange": {
		usage: "", handler: changePassphrase,
	},
	"generate": {
		usage: "<blocks> [stake]", minArgs: 1, maxArgs: 2,
		handler: generate,
	},
}

// usage writes the list of commands to w.
func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: sxwallet [options] <command> [args...]")
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s %s\n", name, commands[name].usage)
	}
}

func getBalance(_ context.Context, a *app, _ []string) error {
	balances, err := a.model.GetBalances()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Available:   %v\n", balances.Available)
	fmt.Fprintf(a.out, "Locked:      %v\n", balances.Locked)
	fmt.Fprintf(a.out, "Stake:       %v\n", balances.Stake)
	fmt.Fprintf(a.out, "Unconfirmed: %v\n", balances.Unconfirmed)
	fmt.Fprintf(a.out, "Immature:    %v\n", balances.Immature)
	if a.model.HaveWatchOnly() {
		fmt.Fprintf(a.out, "Watch-only:  %v (unconfirmed %v, "+
			"immature %v)\n", balances.WatchOnly,
			balances.WatchUnconfirmed, balances.WatchImmature)
	}

	return nil
}

func labelArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// withUnlock runs f with the wallet unlocked, asking for the passphrase if
// needed, and relocks it afterwards if it was locked.
func withUnlock(ctx context.Context, a *app, f func() error) error {
	unlock := a.model.RequestUnlock(ctx)
	defer unlock.Release()
	if !unlock.Valid() {
		return errors.New("the wallet could not be unlocked")
	}

	return f()
}

func getNewAddress(ctx context.Context, a *app, args []string) error {
	return withUnlock(ctx, a, func() error {
		addr, err := a.ledger.NewAddress(labelArg(args))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, addr.EncodeAddress())
		return nil
	})
}

func getNewStealthAddress(ctx context.Context, a *app, args []string) error {
	return withUnlock(ctx, a, func() error {
		addr, err := a.ledger.NewStealthAddress(labelArg(args))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, addr)
		return nil
	})
}

func importAddress(_ context.Context, a *app, args []string) error {
	addr, err := btcutil.DecodeAddress(args[0], a.params.Params)
	if err != nil {
		return err
	}
	if !addr.IsForNet(a.params.Params) {
		return wallet.ErrWrongNetwork
	}

	return a.ledger.ImportWatchOnly(addr)
}

func send(ctx context.Context, a *app, args []string) error {
	amount, err := cfgutil.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	rcp := wallet.Recipient{
		Address: args[0],
		Amount:  amount,
	}
	if len(args) > 2 {
		rcp.Narration = args[2]
	}
	if len(args) > 3 {
		rcp.Label = args[3]
	}

	// The passphrase is asked for once and the wallet relocks after the
	// send.
	return withUnlock(ctx, a, func() error {
		txHash, err := a.model.SendCoins(
			ctx, []wallet.Recipient{rcp}, nil,
		)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, txHash)
		return nil
	})
}

func listCoins(_ context.Context, a *app, _ []string) error {
	groups, err := a.model.ListCoins()
	if err != nil {
		return err
	}

	addrs := make([]string, 0, len(groups))
	for addr := range groups {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		fmt.Fprintln(a.out, addr)
		for _, coin := range groups[addr] {
			locked := ""
			if coin.Locked {
				locked = " (locked)"
			}
			fmt.Fprintf(a.out, "  %v %v depth=%d%s\n", coin.OutPoint,
				coin.Amount, coin.Depth, locked)
		}
	}

	return nil
}

// parseOutPoint parses an outpoint given as txid:index.
func parseOutPoint(s string) (wire.OutPoint, error) {
	txid, idx, ok := strings.Cut(s, ":")
	if !ok {
		return wire.OutPoint{}, fmt.Errorf("invalid outpoint %q", s)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return wire.OutPoint{}, err
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return wire.OutPoint{}, err
	}

	return wire.OutPoint{Hash: *hash, Index: uint32(index)}, nil
}

func lockUnspent(_ context.Context, a *app, args []string) error {
	op, err := parseOutPoint(args[1])
	if err != nil {
		return err
	}

	switch args[0] {
	case "lock":
		a.model.LockCoin(op)
	case "unlock":
		a.model.UnlockCoin(op)
	default:
		return fmt.Errorf("expected lock or unlock, got %q", args[0])
	}

	return nil
}

func listAddressBook(_ context.Context, a *app, _ []string) error {
	entries, err := a.ledger.AddressBook()
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Address < entries[j].Address
	})

	for _, e := range entries {
		mine := "foreign"
		if e.IsMine {
			mine = "mine"
		}
		fmt.Fprintf(a.out, "%s\t%v\t%s\t%q\n", e.Address, e.Kind, mine,
			e.Label)
	}

	return nil
}

func getNarrations(_ context.Context, a *app, args []string) error {
	hash, err := chainhash.NewHashFromStr(args[0])
	if err != nil {
		return err
	}
	narrations, err := a.ledger.Narrations(hash)
	if err != nil {
		return err
	}

	indexes := make([]uint32, 0, len(narrations))
	for idx := range narrations {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i] < indexes[j]
	})
	for _, idx := range indexes {
		fmt.Fprintf(a.out, "%d\t%s\n", idx, narrations[idx])
	}

	return nil
}

func encryptWallet(_ context.Context, a *app, _ []string) error {
	pass, err := prompt.PassPrompt(
		a.reader, a.out, "Enter the new wallet passphrase", true,
	)
	if err != nil {
		return err
	}
	defer zero.Bytes(pass)

	if err := a.model.SetWalletEncrypted(true, pass); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "The wallet is encrypted and locked.")

	return nil
}

func changePassphrase(_ context.Context, a *app, _ []string) error {
	oldPass, err := prompt.PassPrompt(
		a.reader, a.out, "Enter the current wallet passphrase", false,
	)
	if err != nil {
		return err
	}
	defer zero.Bytes(oldPass)

	newPass, err := prompt.PassPrompt(
		a.reader, a.out, "Enter the new wallet passphrase", true,
	)
	if err != nil {
		return err
	}
	defer zero.Bytes(newPass)

	return a.model.ChangePassphrase(oldPass, newPass)
}

// generate connects blocks paying their reward to a new wallet address,
// mining the wallet's unconfirmed transactions in the first one.
func generate(ctx context.Context, a *app, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid block count %q", args[0])
	}
	stake := len(args) > 1 && args[1] == "stake"

	var addr btcutil.Address
	err = withUnlock(ctx, a, func() error {
		addr, err = a.ledger.NewAddress("")
		return err
	})
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		hash, err := a.ledger.ConnectBlock(addr, blockReward, stake, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, hash)
	}

	return nil
}
