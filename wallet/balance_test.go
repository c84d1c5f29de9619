// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestGetBalances checks that every balance is read, watch-only ones only
// when watch-only addresses exist.
func TestGetBalances(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	ledger.On("HaveWatchOnly").Return(true)
	ledger.On("Balance", BalanceAvailable, MineSpendable).Return(
		btcutil.Amount(1), nil)
	ledger.On("Balance", BalanceLocked, MineSpendable).Return(
		btcutil.Amount(2), nil)
	ledger.On("Balance", BalanceStake, MineSpendable).Return(
		btcutil.Amount(3), nil)
	ledger.On("Balance", BalanceUnconfirmed, MineSpendable).Return(
		btcutil.Amount(4), nil)
	ledger.On("Balance", BalanceImmature, MineSpendable).Return(
		btcutil.Amount(5), nil)
	ledger.On("Balance", BalanceAvailable, MineWatchOnly).Return(
		btcutil.Amount(6), nil)
	ledger.On("Balance", BalanceUnconfirmed, MineWatchOnly).Return(
		btcutil.Amount(7), nil)
	ledger.On("Balance", BalanceImmature, MineWatchOnly).Return(
		btcutil.Amount(8), nil)

	accessor := NewBalanceAccessor(ledger)

	balances, err := accessor.GetBalances()
	require.NoError(t, err)
	require.Equal(t, Balances{
		Available:        1,
		Locked:           2,
		Stake:            3,
		Unconfirmed:      4,
		Immature:         5,
		WatchOnly:        6,
		WatchUnconfirmed: 7,
		WatchImmature:    8,
	}, balances)

	stake, err := accessor.GetStake()
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(3), stake)

	watch, err := accessor.GetWatchImmatureBalance()
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(8), watch)

	// Reads release the ledger locks.
	require.True(t, ledger.locks.TryRLock())
	ledger.locks.RUnlock()
}

func TestGetBalanceFor(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	cc := NewCoinControl(wire.OutPoint{Index: 1}, wire.OutPoint{Index: 2})
	ledger.On("AvailableCoins", true, cc).Return([]SpendableOutput{
		{Amount: 30}, {Amount: 12},
	}, nil)
	ledger.On("Balance", BalanceAvailable, MineSpendable).Return(
		btcutil.Amount(99), nil)

	accessor := NewBalanceAccessor(ledger)

	amt, err := accessor.GetBalanceFor(cc)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(42), amt)

	amt, err = accessor.GetBalanceFor(nil)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(99), amt)
}

func TestCoinControl(t *testing.T) {
	t.Parallel()

	var none *CoinControl
	require.False(t, none.HasSelected())
	require.True(t, none.IsSelected(wire.OutPoint{Index: 5}))

	cc := NewCoinControl(wire.OutPoint{Index: 1})
	require.True(t, cc.HasSelected())
	require.True(t, cc.IsSelected(wire.OutPoint{Index: 1}))
	require.False(t, cc.IsSelected(wire.OutPoint{Index: 5}))
}

// TestListCoins checks that coins are grouped by the address that funded
// the chain of change leading to them, locked coins included.
func TestListCoins(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	m, _ := newTestModel(t, ledger, nil, nil)

	funding := newTestAddress(t)
	change := newTestAddress(t)
	other := newTestAddress(t)

	direct := SpendableOutput{
		OutPoint:  wire.OutPoint{Index: 1},
		Amount:    10,
		PkScript:  payToScript(t, funding),
		Spendable: true,
	}
	changeCoin := SpendableOutput{
		OutPoint:  wire.OutPoint{Index: 2},
		Amount:    20,
		PkScript:  payToScript(t, change),
		Spendable: true,
	}
	spentChange := SpendableOutput{
		OutPoint: wire.OutPoint{Index: 3},
		PkScript: payToScript(t, change),
	}
	spentFunding := SpendableOutput{
		OutPoint: wire.OutPoint{Index: 4},
		PkScript: payToScript(t, funding),
	}
	locked := SpendableOutput{
		OutPoint:  wire.OutPoint{Index: 5},
		Amount:    30,
		PkScript:  payToScript(t, other),
		Spendable: true,
	}

	ledger.On("AvailableCoins", true, (*CoinControl)(nil)).Return(
		[]SpendableOutput{direct, changeCoin}, nil,
	)
	ledger.On("ListLockedCoins").Return([]wire.OutPoint{locked.OutPoint})
	ledger.On("LookupOutput", locked.OutPoint).Return(&locked, nil)

	none := fn.None[SpendableOutput]()
	ledger.On("ChangeOrigin", direct.OutPoint).Return(none, nil)
	ledger.On("ChangeOrigin", changeCoin.OutPoint).Return(
		fn.Some(spentChange), nil,
	)
	ledger.On("ChangeOrigin", spentChange.OutPoint).Return(
		fn.Some(spentFunding), nil,
	)
	ledger.On("ChangeOrigin", spentFunding.OutPoint).Return(none, nil)
	ledger.On("ChangeOrigin", mock.Anything).Return(none, nil)

	grouped, err := m.ListCoins()
	require.NoError(t, err)

	lockedOut := locked
	lockedOut.Locked = true
	require.Equal(t, map[string][]SpendableOutput{
		funding.EncodeAddress(): {direct, changeCoin},
		other.EncodeAddress():   {lockedOut},
	}, grouped)
}

func TestCoinLocking(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	m, _ := newTestModel(t, ledger, nil, nil)

	op := wire.OutPoint{Index: 9}
	ledger.On("LockCoin", op).Return()
	ledger.On("IsLockedCoin", op).Return(true)
	ledger.On("ListLockedCoins").Return([]wire.OutPoint{op})
	ledger.On("UnlockCoin", op).Return()
	ledger.On("LookupOutput", op).Return(&SpendableOutput{OutPoint: op},
		nil)

	m.LockCoin(op)
	require.True(t, m.IsLockedCoin(op))
	require.Equal(t, []wire.OutPoint{op}, m.ListLockedCoins())
	m.UnlockCoin(op)

	outputs, err := m.GetOutputs([]wire.OutPoint{op})
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	ledger.AssertExpectations(t)
}
