// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"
	"github.com/sxwallet/sxwallet/wallet"
)

// passPrompt answers unlock prompts with a fixed passphrase.
type passPrompt []byte

func (p passPrompt) PromptUnlock(context.Context) (*wallet.UnlockRequest,
	error) {

	return &wallet.UnlockRequest{
		Passphrase: append([]byte(nil), p...),
	}, nil
}

// declineFees rejects every fee.
type declineFees struct{}

func (declineFees) ConfirmFee(context.Context, btcutil.Amount) (bool,
	error) {

	return false, nil
}

// newTestModel starts a wallet model over l.
func newTestModel(t *testing.T, l *Ledger,
	prompt wallet.UnlockPrompt) *wallet.Model {

	t.Helper()

	return newTestModelWithFees(t, l, prompt, nil)
}

// newTestModelWithFees starts a wallet model over l that asks fees for
// confirmation.
func newTestModelWithFees(t *testing.T, l *Ledger, prompt wallet.UnlockPrompt,
	fees wallet.FeeConfirmer) *wallet.Model {

	t.Helper()

	m, err := wallet.New(wallet.Config{
		Ledger:       l,
		ChainParams:  testParams,
		FeeConfirmer: fees,
		UnlockPrompt: prompt,
		PollTicker:   ticker.NewForce(time.Hour),
	})
	require.NoError(t, err)
	l.RegisterListener(m)

	require.NoError(t, m.Start())
	t.Cleanup(m.Stop)

	return m
}

// TestModelSendStealth sends a stealth payment with a narration to the
// wallet's own stealth address through the wallet model.
func TestModelSendStealth(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	fund(t, l)
	encoded, err := l.NewStealthAddress("")
	require.NoError(t, err)

	m := newTestModel(t, l, nil)

	amt := btcutil.Amount(3 * btcutil.SatoshiPerBitcoin)
	txHash, err := m.SendCoins(context.Background(), []wallet.Recipient{{
		Address:   encoded,
		Label:     "cold storage",
		Amount:    amt,
		Narration: "moving funds",
	}}, nil)
	require.NoError(t, err)
	require.NotNil(t, txHash)

	narrations, err := l.Narrations(txHash)
	require.NoError(t, err)
	require.Len(t, narrations, 1)
	for idx, text := range narrations {
		require.Equal(t, "moving funds", text)

		l.Locks().RLock()
		out, err := l.LookupOutput(wire.OutPoint{
			Hash: *txHash, Index: idx,
		})
		l.Locks().RUnlock()
		require.NoError(t, err)
		require.Equal(t, amt, out.Amount)
	}

	l.Locks().RLock()
	entry, err := l.AddressBookEntry(encoded)
	l.Locks().RUnlock()
	require.NoError(t, err)
	require.Equal(t, wallet.AddressBookEntry{
		Address: encoded,
		Label:   "cold storage",
		Kind:    wallet.KindStealth,
		IsMine:  true,
	}, entry.UnwrapOr(wallet.AddressBookEntry{}))

	balances, err := m.GetBalances()
	require.NoError(t, err)
	require.Zero(t, balances.Available)
	require.Positive(t, balances.Unconfirmed)
}

// TestModelSendExceedsBalance checks that a send above the balance fails
// without touching the ledger.
func TestModelSendExceedsBalance(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	fund(t, l)
	m := newTestModel(t, l, nil)

	_, err := m.SendCoins(context.Background(), []wallet.Recipient{{
		Address: newTestAddress(t).EncodeAddress(),
		Amount:  testReward + 1,
	}}, nil)
	require.ErrorIs(t, err, wallet.ErrAmountExceedsBalance)

	_, err = m.SendCoins(context.Background(), []wallet.Recipient{{
		Address: newTestAddress(t).EncodeAddress(),
		Amount:  testReward,
	}}, nil)
	require.ErrorIs(t, err, wallet.ErrAmountWithFeeExceedsBalance)

	l.Locks().RLock()
	n, err := l.NumTransactions()
	l.Locks().RUnlock()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// TestModelUnlockForSend unlocks an encrypted wallet through the prompt,
// sends and relocks.
func TestModelUnlockForSend(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	fund(t, l)
	require.NoError(t, l.EncryptWallet(testPass))

	m := newTestModel(t, l, passPrompt(testPass))
	require.Equal(t, wallet.Locked, m.EncryptionStatus())

	unlock := m.RequestUnlock(context.Background())
	require.True(t, unlock.Valid())
	require.Equal(t, wallet.Unlocked, m.EncryptionStatus())

	_, err := m.SendCoins(context.Background(), []wallet.Recipient{{
		Address:   newTestAddress(t).EncodeAddress(),
		Amount:    btcutil.SatoshiPerBitcoin,
		Narration: "thanks",
	}}, nil)
	require.NoError(t, err)

	unlock.Release()
	require.Equal(t, wallet.Locked, m.EncryptionStatus())
	require.True(t, l.IsLocked())
}

// TestModelSendFeeDeclined checks that a declined fee leaves the ledger
// unchanged, its key store included.
func TestModelSendFeeDeclined(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	fund(t, l)
	keys := numKeyRecords(t, l)

	m := newTestModelWithFees(t, l, nil, declineFees{})

	addr := newTestAddress(t).EncodeAddress()
	_, err := m.SendCoins(context.Background(), []wallet.Recipient{{
		Address: addr,
		Label:   "shop",
		Amount:  btcutil.SatoshiPerBitcoin,
	}}, nil)
	require.ErrorIs(t, err, wallet.ErrAborted)

	require.Equal(t, keys, numKeyRecords(t, l))

	l.Locks().RLock()
	defer l.Locks().RUnlock()

	n, err := l.NumTransactions()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	entry, err := l.AddressBookEntry(addr)
	require.NoError(t, err)
	require.True(t, entry.IsNone())
}

// TestModelSendFeeAboveConfirmedBalance checks that a send whose fee only
// fits by spending unconfirmed outputs is refused.
func TestModelSendFeeAboveConfirmedBalance(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	fund(t, l)
	fund(t, l)

	// Leave one confirmed coin and unconfirmed change.
	first, _, err := createPayment(t, l, btcutil.SatoshiPerBitcoin)
	require.NoError(t, err)
	l.Locks().Lock()
	require.NoError(t, l.CommitTransaction(first))
	l.Locks().Unlock()

	m := newTestModel(t, l, nil)

	// The request plus one fee rate unit matches the confirmed balance
	// exactly, but a transaction with this many outputs is larger than a
	// kilobyte.
	const numRecipients = 40
	feeRate := testParams.DefaultPayTxFee
	amt := (btcutil.Amount(testReward) - feeRate) / numRecipients
	recipients := make([]wallet.Recipient, numRecipients)
	for i := range recipients {
		recipients[i] = wallet.Recipient{
			Address: newTestAddress(t).EncodeAddress(),
			Amount:  amt,
		}
	}

	_, err = m.SendCoins(context.Background(), recipients, nil)
	require.ErrorIs(t, err, wallet.ErrAmountWithFeeExceedsBalance)

	var sendErr *wallet.SendError
	require.ErrorAs(t, err, &sendErr)
	require.Greater(t, sendErr.Fee, feeRate)

	l.Locks().RLock()
	n, err := l.NumTransactions()
	l.Locks().RUnlock()
	require.NoError(t, err)
	require.Equal(t, 3, n)
}
