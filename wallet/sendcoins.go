// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

// SendCoins pays the recipients and returns the hash of the committed
// transaction. An empty request does nothing and returns a nil hash.
//
// The request is validated first, without touching the ledger. The ledger
// locks are then held exclusively from the balance check until the
// transaction is committed, so the balance the request was checked against
// cannot change before the transaction spending it is recorded. The
// payments plus the fee of the built transaction must fit that balance,
// even when the ledger funded it with unconfirmed outputs. Once
// committed, every recipient whose address is missing from the address book
// or carries another label is written to it. Failures are *SendError values
// and never update the address book.
func (m *Model) SendCoins(ctx context.Context, recipients []Recipient,
	cc *CoinControl) (*chainhash.Hash, error) {

	if len(recipients) == 0 {
		return nil, nil
	}

	validated, err := ValidateRecipients(recipients, m.cfg.ChainParams)
	if err != nil {
		log.Debugf("Rejected send request: %v", err)
		return nil, err
	}

	var total btcutil.Amount
	for _, rcp := range validated {
		total += rcp.Amount
	}

	txHash, err := m.createAndCommit(ctx, validated, total, cc)
	if err != nil {
		log.Infof("Send of %v to %d %s failed: %v", total,
			len(validated),
			pickNoun(len(validated), "recipient", "recipients"), err)
		return nil, err
	}

	log.Infof("Sent %v to %d %s in transaction %v", total, len(validated),
		pickNoun(len(validated), "recipient", "recipients"), txHash)

	m.updateAddressBook(validated)

	return txHash, nil
}

func (m *Model) createAndCommit(ctx context.Context,
	recipients []ValidatedRecipient, total btcutil.Amount,
	cc *CoinControl) (*chainhash.Hash, error) {

	ledger := m.cfg.Ledger
	locks := ledger.Locks()
	locks.Lock()
	defer locks.Unlock()

	balance, err := confirmedBalance(ledger, cc)
	if err != nil {
		return nil, newSendError(StatusTransactionCreationFailed, err)
	}
	if total > balance {
		return nil, newSendError(
			StatusAmountExceedsBalance,
			fmt.Errorf("total %v, balance %v", total, balance),
		)
	}

	minFee := m.cfg.Fees.FeeRate
	if total+minFee > balance {
		return nil, &SendError{
			Status: StatusAmountWithFeeExceedsBalance,
			Fee:    minFee,
		}
	}

	plan, err := buildOutputs(recipients, m.cfg.ChainParams.Params, m.rand)
	if err != nil {
		return nil, newSendError(StatusAborted, err)
	}

	draft, fee, err := ledger.CreateTransaction(
		plan.outputs, cc, m.cfg.Fees,
	)
	if err != nil {
		if total+fee > balance {
			return nil, &SendError{
				Status: StatusAmountWithFeeExceedsBalance,
				Fee:    fee,
				Err:    err,
			}
		}
		return nil, newSendError(StatusTransactionCreationFailed, err)
	}
	if total+fee > balance {
		return nil, &SendError{
			Status: StatusAmountWithFeeExceedsBalance,
			Fee:    fee,
		}
	}
	draft.Narrations = plan.narrationsAfterChange(draft.ChangeIndex)

	log.Tracef("Created transaction: %v", newLogClosure(func() string {
		return spew.Sdump(draft.Tx)
	}))

	if !m.confirmFee(ctx, fee) {
		return nil, newSendError(
			StatusAborted, fmt.Errorf("fee %v declined", fee),
		)
	}

	if err := ledger.CommitTransaction(draft); err != nil {
		return nil, newSendError(StatusTransactionCommitFailed, err)
	}

	txHash := draft.Tx.TxHash()
	return &txHash, nil
}

func (m *Model) confirmFee(ctx context.Context, fee btcutil.Amount) bool {
	if ctx.Err() != nil {
		return false
	}
	if m.cfg.FeeConfirmer == nil {
		return true
	}

	ok, err := m.cfg.FeeConfirmer.ConfirmFee(ctx, fee)
	if err != nil {
		log.Warnf("Fee confirmation failed: %v", err)
		return false
	}

	return ok && ctx.Err() == nil
}

// updateAddressBook labels the recipients of a committed send.
func (m *Model) updateAddressBook(recipients []ValidatedRecipient) {
	ledger := m.cfg.Ledger
	locks := ledger.Locks()
	locks.Lock()
	defer locks.Unlock()

	for _, rcp := range recipients {
		addr := rcp.Destination.String()

		existing, err := ledger.AddressBookEntry(addr)
		if err != nil {
			log.Errorf("Unable to read address book entry %s: %v",
				addr, err)
			continue
		}

		entry := existing.UnwrapOr(AddressBookEntry{
			Address: addr,
			Kind:    rcp.Destination.Kind(),
		})
		if existing.IsSome() && entry.Label == rcp.Label {
			continue
		}
		entry.Label = rcp.Label

		if err := ledger.SetAddressBookEntry(entry); err != nil {
			log.Errorf("Unable to update address book entry %s: %v",
				addr, err)
		}
	}
}
