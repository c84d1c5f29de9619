// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"
	"github.com/sxwallet/sxwallet/netparams"
	"github.com/sxwallet/sxwallet/stealth"
)

// testParams are the network parameters used by the package tests.
var testParams = &netparams.SimNetParams

// eventTimeout bounds how long a test waits for a model event.
const eventTimeout = 5 * time.Second

// newTestAddress returns a fresh pay-to-pubkey-hash address of the test
// network.
func newTestAddress(t *testing.T) btcutil.Address {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(key.PubKey().SerializeCompressed()),
		testParams.Params,
	)
	require.NoError(t, err)

	return addr
}

// testStealthKeys are the private keys behind a test stealth address.
type testStealthKeys struct {
	encoded string
	scan    *btcec.PrivateKey
	spend   *btcec.PrivateKey
}

// newTestStealthAddress returns a fresh stealth address of the test
// network along with its private keys.
func newTestStealthAddress(t *testing.T) *testStealthKeys {
	t.Helper()

	scan, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	spend, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr := stealth.NewAddress(scan.PubKey(), spend.PubKey())

	return &testStealthKeys{
		encoded: addr.Encode(testParams.StealthAddressID),
		scan:    scan,
		spend:   spend,
	}
}

// payToScript returns the output script paying addr.
func payToScript(t *testing.T, addr btcutil.Address) []byte {
	t.Helper()

	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	return script
}

// newTestModel returns an unstarted model over the mock ledger whose poll
// ticks are driven by the test.
func newTestModel(t *testing.T, ledger *mockLedger, fees FeeConfirmer,
	prompt UnlockPrompt) (*Model, *ticker.Force) {

	t.Helper()

	tick := ticker.NewForce(time.Hour)
	m, err := New(Config{
		Ledger:       ledger,
		ChainParams:  testParams,
		Fees:         FeePolicy{FeeRate: 2},
		FeeConfirmer: fees,
		UnlockPrompt: prompt,
		PollTicker:   tick,
	})
	require.NoError(t, err)
	t.Cleanup(m.Stop)

	return m, tick
}

// nextEvent waits for the next event of the subscription.
func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()

	select {
	case e := <-sub.Updates():
		return e

	case <-time.After(eventTimeout):
		t.Fatalf("no event received")
		return nil
	}
}

// requireNoEvent checks that no event is delivered within a short window.
func requireNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case e := <-sub.Updates():
		t.Fatalf("unexpected event %T: %v", e, e)

	case <-time.After(100 * time.Millisecond):
	}
}
