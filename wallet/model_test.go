// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// expectBalances sets up the balance reads of the mock ledger. The
// available balance is first reported as first, then as later.
func expectBalances(ledger *mockLedger, first, later btcutil.Amount) {
	ledger.On("HaveWatchOnly").Return(false)
	ledger.On("Balance", BalanceAvailable, MineSpendable).Return(
		first, nil,
	).Once()
	ledger.On("Balance", BalanceAvailable, MineSpendable).Return(
		later, nil,
	)
	for _, kind := range []BalanceKind{
		BalanceLocked, BalanceStake, BalanceUnconfirmed,
		BalanceImmature,
	} {
		ledger.On("Balance", kind, MineSpendable).Return(
			btcutil.Amount(0), nil,
		)
	}
}

// signalCalls returns a Run func that signals every call on the returned
// channel.
func signalCalls() (func(mock.Arguments), chan struct{}) {
	calls := make(chan struct{}, 100)
	return func(mock.Arguments) { calls <- struct{}{} }, calls
}

func waitCall(t *testing.T, calls chan struct{}) {
	t.Helper()

	select {
	case <-calls:
	case <-time.After(eventTimeout):
		t.Fatalf("expected call not made")
	}
}

func startTestModel(t *testing.T, ledger *mockLedger) (*Model,
	*Subscription, func()) {

	t.Helper()

	ledger.On("IsCrypted").Return(false)

	m, tick := newTestModel(t, ledger, nil, nil)
	require.NoError(t, m.Start())

	sub := m.Subscribe()
	t.Cleanup(sub.Cancel)

	forceTick := func() {
		select {
		case tick.Force <- time.Now():
		case <-time.After(eventTimeout):
			t.Fatalf("tick not consumed")
		}
	}

	return m, sub, forceTick
}

// TestModelStartSnapshot checks that Start loads the cache without
// publishing anything.
func TestModelStartSnapshot(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(3, nil)
	expectBalances(ledger, 100, 100)

	m, sub, _ := startTestModel(t, ledger)

	require.Equal(t, Balances{Available: 100}, m.CachedBalances())
	require.Equal(t, 3, m.CachedNumTransactions())
	require.Equal(t, int32(10), m.CachedNumBlocks())
	require.Equal(t, Unencrypted, m.CachedEncryptionStatus())
	requireNoEvent(t, sub)
}

// TestModelPollNewBlock checks that a poll only refreshes when the height
// moved and publishes each change once.
func TestModelPollNewBlock(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	signal, heightCalls := signalCalls()
	ledger.On("BestHeight").Return(int32(10)).Run(signal).Times(2)
	ledger.On("BestHeight").Return(int32(11)).Run(signal)
	ledger.On("NumTransactions").Return(3, nil).Once()
	ledger.On("NumTransactions").Return(4, nil)
	expectBalances(ledger, 100, 150)

	m, sub, forceTick := startTestModel(t, ledger)
	waitCall(t, heightCalls)

	// Same height: nothing is read or published.
	forceTick()
	waitCall(t, heightCalls)
	requireNoEvent(t, sub)
	ledger.AssertNumberOfCalls(t, "NumTransactions", 1)

	// New block with new balances.
	forceTick()
	require.Equal(t, BalanceChanged{Balances: Balances{Available: 150}},
		nextEvent(t, sub))
	require.Equal(t, NumTransactionsChanged{Count: 4}, nextEvent(t, sub))
	require.Equal(t, int32(11), m.CachedNumBlocks())
	require.Equal(t, btcutil.Amount(150), m.CachedBalances().Available)

	// Height unchanged again.
	forceTick()
	waitCall(t, heightCalls)
	waitCall(t, heightCalls)
	requireNoEvent(t, sub)
}

// TestModelPollSkipsContendedLedger checks that a poll never waits on a
// busy ledger and catches up on the next tick.
func TestModelPollSkipsContendedLedger(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10)).Once()
	ledger.On("BestHeight").Return(int32(11))
	ledger.On("NumTransactions").Return(3, nil)
	expectBalances(ledger, 100, 150)

	_, sub, forceTick := startTestModel(t, ledger)

	ledger.locks.Wallet.Lock()
	forceTick()
	requireNoEvent(t, sub)
	ledger.locks.Wallet.Unlock()

	forceTick()
	require.Equal(t, BalanceChanged{Balances: Balances{Available: 150}},
		nextEvent(t, sub))
}

// TestModelTransactionNotification checks that a transaction notification
// is published and refreshes balances, deferring the refresh to the next
// tick while the ledger is busy.
func TestModelTransactionNotification(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(3, nil).Once()
	ledger.On("NumTransactions").Return(4, nil)
	expectBalances(ledger, 100, 90)

	m, sub, forceTick := startTestModel(t, ledger)

	hash := chainhash.Hash{1}

	// The notification arrives while the sender still holds the ledger.
	ledger.locks.Lock()
	m.NotifyTransactionChanged(hash, ChangeNew)
	require.Equal(t, TransactionChanged{Hash: hash, Change: ChangeNew},
		nextEvent(t, sub))
	requireNoEvent(t, sub)
	ledger.locks.Unlock()

	// The height did not move but the pending refresh runs.
	forceTick()
	require.Equal(t, BalanceChanged{Balances: Balances{Available: 90}},
		nextEvent(t, sub))
	require.Equal(t, NumTransactionsChanged{Count: 4}, nextEvent(t, sub))

	// Once refreshed, a tick at the same height does nothing.
	forceTick()
	requireNoEvent(t, sub)
}

// TestModelStatusNotification checks that the encryption status is only
// published on transition.
func TestModelStatusNotification(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(0, nil)
	expectBalances(ledger, 0, 0)

	// Unencrypted at start, then encrypted and locked.
	ledger.On("IsCrypted").Return(false).Once()
	ledger.On("IsCrypted").Return(true)
	ledger.On("IsLocked").Return(true)

	m, sub, _ := startTestModel(t, ledger)
	require.Equal(t, Unencrypted, m.CachedEncryptionStatus())

	m.NotifyStatusChanged()
	require.Equal(t, EncryptionStatusChanged{Status: Locked},
		nextEvent(t, sub))
	require.Equal(t, Locked, m.CachedEncryptionStatus())

	m.NotifyStatusChanged()
	requireNoEvent(t, sub)
}

func TestModelAddressBookNotification(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(0, nil)
	expectBalances(ledger, 0, 0)

	m, sub, _ := startTestModel(t, ledger)

	entry := AddressBookEntry{Address: "addr", Label: "label"}
	m.NotifyAddressBookChanged(entry, ChangeUpdated)
	require.Equal(t, AddressBookChanged{
		Entry: entry, Change: ChangeUpdated,
	}, nextEvent(t, sub))
}

// TestModelUnlockRequired checks that an unlock request on a locked wallet
// is published to subscribers.
func TestModelUnlockRequired(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(0, nil)
	expectBalances(ledger, 0, 0)
	ledger.On("IsCrypted").Return(true)
	ledger.On("IsLocked").Return(true)

	m, sub, _ := startTestModel(t, ledger)

	ctx := m.RequestUnlock(context.Background())
	require.False(t, ctx.Valid())
	require.Equal(t, UnlockRequired{}, nextEvent(t, sub))
}

func TestModelCancelledSubscription(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(0, nil)
	expectBalances(ledger, 0, 0)

	m, sub, _ := startTestModel(t, ledger)
	other := m.Subscribe()

	sub.Cancel()
	m.NotifyAddressBookChanged(AddressBookEntry{}, ChangeNew)

	require.Equal(t, AddressBookChanged{Change: ChangeNew},
		nextEvent(t, other))
	other.Cancel()
}

// requireDone fails the test unless the subscription has shut down.
func requireDone(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case <-sub.Done():
	case <-time.After(eventTimeout):
		t.Fatalf("subscription not shut down")
	}
}

// TestModelSubscriptionDone checks that observers are released both by
// Cancel and by stopping the model.
func TestModelSubscriptionDone(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("BestHeight").Return(int32(10))
	ledger.On("NumTransactions").Return(0, nil)
	expectBalances(ledger, 0, 0)

	m, sub, _ := startTestModel(t, ledger)
	other := m.Subscribe()

	sub.Cancel()
	requireDone(t, sub)

	select {
	case <-other.Done():
		t.Fatalf("live subscription shut down")
	default:
	}

	m.Stop()
	requireDone(t, other)

	// Cancelling after the model stopped is harmless.
	other.Cancel()
}
