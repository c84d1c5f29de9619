// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// Balances holds every balance the model tracks.
type Balances struct {
	Available   btcutil.Amount
	Locked      btcutil.Amount
	Stake       btcutil.Amount
	Unconfirmed btcutil.Amount
	Immature    btcutil.Amount

	// The watch-only balances are zero unless watch-only addresses are
	// imported.
	WatchOnly        btcutil.Amount
	WatchUnconfirmed btcutil.Amount
	WatchImmature    btcutil.Amount
}

// String returns a one line summary of the balances.
func (b Balances) String() string {
	return fmt.Sprintf("available=%v locked=%v stake=%v unconfirmed=%v "+
		"immature=%v watch=%v watch_unconfirmed=%v watch_immature=%v",
		b.Available, b.Locked, b.Stake, b.Unconfirmed, b.Immature,
		b.WatchOnly, b.WatchUnconfirmed, b.WatchImmature)
}

// BalanceAccessor reads balances straight from the ledger. Every read takes
// the ledger read locks for its own duration; nothing is cached.
type BalanceAccessor struct {
	ledger Ledger
}

// NewBalanceAccessor returns an accessor over the ledger.
func NewBalanceAccessor(ledger Ledger) *BalanceAccessor {
	return &BalanceAccessor{ledger: ledger}
}

func (b *BalanceAccessor) read(kind BalanceKind,
	filter IsMineFilter) (btcutil.Amount, error) {

	locks := b.ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return b.ledger.Balance(kind, filter)
}

// GetBalance returns the mature, confirmed and unlocked balance.
func (b *BalanceAccessor) GetBalance() (btcutil.Amount, error) {
	return b.read(BalanceAvailable, MineSpendable)
}

// GetBalanceFor returns the confirmed value of the outputs selected by coin
// control, or the available balance if none are selected.
func (b *BalanceAccessor) GetBalanceFor(
	cc *CoinControl) (btcutil.Amount, error) {

	if !cc.HasSelected() {
		return b.GetBalance()
	}

	locks := b.ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return confirmedBalance(b.ledger, cc)
}

// GetLockedBalance returns the value of outputs locked by coin control.
func (b *BalanceAccessor) GetLockedBalance() (btcutil.Amount, error) {
	return b.read(BalanceLocked, MineSpendable)
}

// GetStake returns the value of immature stake rewards.
func (b *BalanceAccessor) GetStake() (btcutil.Amount, error) {
	return b.read(BalanceStake, MineSpendable)
}

// GetUnconfirmedBalance returns the value of unmined outputs.
func (b *BalanceAccessor) GetUnconfirmedBalance() (btcutil.Amount, error) {
	return b.read(BalanceUnconfirmed, MineSpendable)
}

// GetImmatureBalance returns the value of immature coinbase outputs.
func (b *BalanceAccessor) GetImmatureBalance() (btcutil.Amount, error) {
	return b.read(BalanceImmature, MineSpendable)
}

// GetWatchBalance returns the available balance of watch-only addresses.
func (b *BalanceAccessor) GetWatchBalance() (btcutil.Amount, error) {
	return b.read(BalanceAvailable, MineWatchOnly)
}

// GetWatchUnconfirmedBalance returns the unconfirmed balance of watch-only
// addresses.
func (b *BalanceAccessor) GetWatchUnconfirmedBalance() (btcutil.Amount,
	error) {

	return b.read(BalanceUnconfirmed, MineWatchOnly)
}

// GetWatchImmatureBalance returns the immature balance of watch-only
// addresses.
func (b *BalanceAccessor) GetWatchImmatureBalance() (btcutil.Amount, error) {
	return b.read(BalanceImmature, MineWatchOnly)
}

// GetBalances returns every balance from one consistent read.
func (b *BalanceAccessor) GetBalances() (Balances, error) {
	locks := b.ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return readBalances(b.ledger)
}

// GetNumTransactions returns the number of wallet transactions.
func (b *BalanceAccessor) GetNumTransactions() (int, error) {
	locks := b.ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return b.ledger.NumTransactions()
}

// HaveWatchOnly reports whether watch-only addresses are imported.
func (b *BalanceAccessor) HaveWatchOnly() bool {
	locks := b.ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return b.ledger.HaveWatchOnly()
}

// balanceRead names the ledger bucket a Balances field is read from.
type balanceRead struct {
	dst    *btcutil.Amount
	kind   BalanceKind
	filter IsMineFilter
}

// readBalances reads every balance. The caller must hold the ledger locks.
func readBalances(store CoinStore) (Balances, error) {
	var bal Balances

	reads := []balanceRead{
		{&bal.Available, BalanceAvailable, MineSpendable},
		{&bal.Locked, BalanceLocked, MineSpendable},
		{&bal.Stake, BalanceStake, MineSpendable},
		{&bal.Unconfirmed, BalanceUnconfirmed, MineSpendable},
		{&bal.Immature, BalanceImmature, MineSpendable},
	}
	if store.HaveWatchOnly() {
		reads = append(reads,
			balanceRead{&bal.WatchOnly, BalanceAvailable,
				MineWatchOnly},
			balanceRead{&bal.WatchUnconfirmed, BalanceUnconfirmed,
				MineWatchOnly},
			balanceRead{&bal.WatchImmature, BalanceImmature,
				MineWatchOnly},
		)
	}

	for _, r := range reads {
		amt, err := store.Balance(r.kind, r.filter)
		if err != nil {
			return Balances{}, err
		}
		*r.dst = amt
	}

	return bal, nil
}

// confirmedBalance sums the confirmed spendable outputs a send may use. The
// caller must hold the ledger locks.
func confirmedBalance(store CoinStore,
	cc *CoinControl) (btcutil.Amount, error) {

	coins, err := store.AvailableCoins(true, cc)
	if err != nil {
		return 0, err
	}

	var total btcutil.Amount
	for _, c := range coins {
		total += c.Amount
	}

	return total, nil
}
