// Copyright (c) 2015-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/sxwallet/sxwallet/wallet"
)

// The methods in this file implement wallet.CoinStore. Callers must hold
// the ledger locks.

// walletCredit is an unspent output of the transaction store classified
// against the current chain.
type walletCredit struct {
	wtxmgr.Credit

	depth  int32
	kind   wallet.BalanceKind
	filter wallet.IsMineFilter
	locked bool
}

// confirms returns the number of confirmations of a transaction mined at
// txHeight, zero if it is unmined.
func confirms(txHeight, curHeight int32) int32 {
	switch {
	case txHeight == -1, txHeight > curHeight:
		return 0
	default:
		return curHeight - txHeight + 1
	}
}

// credits returns the unspent outputs of the wallet. Outputs paying
// addresses the key store does not know are skipped.
func (l *Ledger) credits() ([]walletCredit, error) {
	var credits []walletCredit
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		unspent, err := l.txStore.UnspentOutputs(
			tx.ReadBucket(wtxmgrNamespaceKey),
		)
		if err != nil {
			return err
		}

		keysNs := tx.ReadBucket(keysNamespaceKey)
		stakeBucket := tx.ReadBucket(metaNamespaceKey).
			NestedReadBucket(stakeBucketKey)

		credits = make([]walletCredit, 0, len(unspent))
		for _, c := range unspent {
			r, err := l.scriptKeyRecord(keysNs, c.PkScript)
			if err != nil {
				return err
			}
			if r == nil {
				continue
			}

			isStake := stakeBucket.Get(c.OutPoint.Hash[:]) != nil
			credits = append(credits, l.classify(c, r, isStake))
		}

		return nil
	})

	return credits, err
}

func (l *Ledger) classify(c wtxmgr.Credit, r *keyRecord,
	isStake bool) walletCredit {

	wc := walletCredit{
		Credit: c,
		depth:  confirms(c.Height, l.bestHeight),
		filter: wallet.MineSpendable,
	}
	if r.kind == keyKindWatchOnly {
		wc.filter = wallet.MineWatchOnly
	}
	_, wc.locked = l.lockedOutpoints[c.OutPoint]

	maturity := int32(l.cfg.CoinbaseMaturity)
	switch {
	case wc.depth == 0:
		wc.kind = wallet.BalanceUnconfirmed

	case c.FromCoinBase && wc.depth < maturity && isStake:
		wc.kind = wallet.BalanceStake

	case c.FromCoinBase && wc.depth < maturity:
		wc.kind = wallet.BalanceImmature

	case wc.locked:
		wc.kind = wallet.BalanceLocked

	default:
		wc.kind = wallet.BalanceAvailable
	}

	return wc
}

// scriptKeyRecord returns the key record of the address a script pays, or
// nil if the script does not pay the wallet.
func (l *Ledger) scriptKeyRecord(keysNs walletdb.ReadBucket,
	pkScript []byte) (*keyRecord, error) {

	_, addrs, _, err := txscript.ExtractPkScriptAddrs(
		pkScript, l.params.Params,
	)
	if err != nil || len(addrs) != 1 {
		return nil, nil
	}

	return fetchKeyRecord(keysNs, addrs[0].EncodeAddress())
}

func (wc *walletCredit) spendableOutput() wallet.SpendableOutput {
	return wallet.SpendableOutput{
		OutPoint:  wc.OutPoint,
		Amount:    wc.Amount,
		PkScript:  wc.PkScript,
		Depth:     wc.depth,
		Spendable: wc.filter == wallet.MineSpendable,
		Locked:    wc.locked,
	}
}

// AvailableCoins returns the unlocked, mature outputs the wallet can spend.
func (l *Ledger) AvailableCoins(onlyConfirmed bool,
	cc *wallet.CoinControl) ([]wallet.SpendableOutput, error) {

	credits, err := l.credits()
	if err != nil {
		return nil, err
	}

	var coins []wallet.SpendableOutput
	for i := range credits {
		wc := &credits[i]

		if wc.filter != wallet.MineSpendable || wc.locked {
			continue
		}
		if !cc.IsSelected(wc.OutPoint) {
			continue
		}

		switch {
		case wc.kind == wallet.BalanceAvailable:
		case wc.kind == wallet.BalanceUnconfirmed && !onlyConfirmed:
		default:
			continue
		}

		coins = append(coins, wc.spendableOutput())
	}

	return coins, nil
}

// Balance sums the outputs of a balance kind.
func (l *Ledger) Balance(kind wallet.BalanceKind,
	filter wallet.IsMineFilter) (btcutil.Amount, error) {

	credits, err := l.credits()
	if err != nil {
		return 0, err
	}

	var total btcutil.Amount
	for _, wc := range credits {
		if wc.kind == kind && wc.filter == filter {
			total += wc.Amount
		}
	}

	return total, nil
}

// NumTransactions returns the number of transactions in the store, mined
// and unmined.
func (l *Ledger) NumTransactions() (int, error) {
	var n int
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		return l.txStore.RangeTransactions(
			tx.ReadBucket(wtxmgrNamespaceKey), 0, -1,
			func(details []wtxmgr.TxDetails) (bool, error) {
				n += len(details)
				return false, nil
			},
		)
	})

	return n, err
}

// HaveWatchOnly reports whether a watch-only address was imported.
func (l *Ledger) HaveWatchOnly() bool {
	return l.haveWatchOnly
}

// LookupOutput returns an unspent wallet output.
func (l *Ledger) LookupOutput(op wire.OutPoint) (*wallet.SpendableOutput,
	error) {

	var out *wallet.SpendableOutput
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		var err error
		out, err = l.lookupOutput(tx, op)
		return err
	})

	return out, err
}

func (l *Ledger) lookupOutput(tx walletdb.ReadTx,
	op wire.OutPoint) (*wallet.SpendableOutput, error) {

	details, credit, err := l.txCredit(tx, op)
	if err != nil {
		return nil, err
	}
	if credit.Spent {
		return nil, fmt.Errorf("%w: %v", ErrOutputSpent, op)
	}

	pkScript := details.MsgTx.TxOut[op.Index].PkScript
	r, err := l.scriptKeyRecord(tx.ReadBucket(keysNamespaceKey), pkScript)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputNotFound, op)
	}

	_, locked := l.lockedOutpoints[op]

	return &wallet.SpendableOutput{
		OutPoint:  op,
		Amount:    credit.Amount,
		PkScript:  pkScript,
		Depth:     confirms(details.Block.Height, l.bestHeight),
		Spendable: r.kind != keyKindWatchOnly,
		Locked:    locked,
	}, nil
}

// txCredit returns the transaction creating op and the wallet's credit for
// it.
func (l *Ledger) txCredit(tx walletdb.ReadTx,
	op wire.OutPoint) (*wtxmgr.TxDetails, *wtxmgr.CreditRecord, error) {

	details, err := l.txStore.TxDetails(
		tx.ReadBucket(wtxmgrNamespaceKey), &op.Hash,
	)
	if err != nil {
		return nil, nil, err
	}
	if details == nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrOutputNotFound, op)
	}

	for i := range details.Credits {
		if details.Credits[i].Index == op.Index {
			return details, &details.Credits[i], nil
		}
	}

	return nil, nil, fmt.Errorf("%w: %v", ErrOutputNotFound, op)
}

// ChangeOrigin returns the wallet output spent by the first input of the
// transaction creating op when op is change.
func (l *Ledger) ChangeOrigin(
	op wire.OutPoint) (fn.Option[wallet.SpendableOutput], error) {

	none := fn.None[wallet.SpendableOutput]()

	var origin fn.Option[wallet.SpendableOutput]
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		origin = none

		details, credit, err := l.txCredit(tx, op)
		if err != nil {
			return err
		}
		if !credit.Change || len(details.MsgTx.TxIn) == 0 {
			return nil
		}

		prevOut := details.MsgTx.TxIn[0].PreviousOutPoint
		prevDetails, prevCredit, err := l.txCredit(tx, prevOut)
		switch {
		case errors.Is(err, ErrOutputNotFound):
			return nil

		case err != nil:
			return err
		}

		pkScript := prevDetails.MsgTx.TxOut[prevOut.Index].PkScript
		r, err := l.scriptKeyRecord(
			tx.ReadBucket(keysNamespaceKey), pkScript,
		)
		if err != nil || r == nil {
			return err
		}

		origin = fn.Some(wallet.SpendableOutput{
			OutPoint: prevOut,
			Amount:   prevCredit.Amount,
			PkScript: pkScript,
			Depth: confirms(
				prevDetails.Block.Height, l.bestHeight,
			),
			Spendable: r.kind != keyKindWatchOnly,
		})
		return nil
	})
	if err != nil {
		return none, err
	}

	return origin, nil
}

// LockCoin excludes an output from coin selection until it is unlocked or
// the ledger is reopened.
func (l *Ledger) LockCoin(op wire.OutPoint) {
	l.lockedOutpoints[op] = struct{}{}
}

// UnlockCoin makes a locked output selectable again.
func (l *Ledger) UnlockCoin(op wire.OutPoint) {
	delete(l.lockedOutpoints, op)
}

// IsLockedCoin reports whether an output is locked.
func (l *Ledger) IsLockedCoin(op wire.OutPoint) bool {
	_, ok := l.lockedOutpoints[op]
	return ok
}

// ListLockedCoins returns every locked output.
func (l *Ledger) ListLockedCoins() []wire.OutPoint {
	locked := make([]wire.OutPoint, 0, len(l.lockedOutpoints))
	for op := range l.lockedOutpoints {
		locked = append(locked, op)
	}

	return locked
}
