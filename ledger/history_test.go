// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/sxwallet/sxwallet/wallet"
)

// TestDropTransactionHistory checks that dropping the history forgets
// transactions and rewinds the chain while keys and labels survive.
func TestDropTransactionHistory(t *testing.T) {
	t.Parallel()

	for _, keep := range []bool{false, true} {
		dir := t.TempDir()
		l, err := Create(testConfig(dir))
		require.NoError(t, err)

		encoded, err := l.NewStealthAddress("mine")
		require.NoError(t, err)
		fund(t, l)

		outputs, _ := stealthOutputs(
			t, encoded, btcutil.SatoshiPerBitcoin, "note",
		)
		l.Locks().Lock()
		draft, _, err := l.CreateTransaction(
			outputs, nil, wallet.FeePolicy{},
		)
		require.NoError(t, err)
		require.NoError(t, l.CommitTransaction(draft))
		l.Locks().Unlock()
		require.NoError(t, l.Close())

		require.NoError(t, DropTransactionHistory(testConfig(dir), keep))

		l, err = Open(testConfig(dir))
		require.NoError(t, err)

		height, hash := l.BestBlock()
		require.Zero(t, height)
		require.Equal(t, *testParams.GenesisHash, hash)

		l.Locks().RLock()
		n, err := l.NumTransactions()
		require.NoError(t, err)
		require.Zero(t, n)
		entry, err := l.AddressBookEntry(encoded)
		require.NoError(t, err)
		l.Locks().RUnlock()
		require.True(t, entry.IsSome())

		txHash := draft.Tx.TxHash()
		narrations, err := l.Narrations(&txHash)
		require.NoError(t, err)
		if keep {
			require.NotEmpty(t, narrations)
		} else {
			require.Empty(t, narrations)
		}

		// The wallet keeps working on the rewound chain.
		fund(t, l)
		require.Equal(
			t, btcutil.Amount(testReward),
			balance(t, l, wallet.BalanceAvailable,
				wallet.MineSpendable),
		)
		l.Locks().RLock()
		_, err = l.LookupOutput(wire.OutPoint{Hash: txHash})
		l.Locks().RUnlock()
		require.ErrorIs(t, err, ErrOutputNotFound)

		require.NoError(t, l.Close())
	}
}
