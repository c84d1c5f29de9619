// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

// TestValidateAddress checks the resolution of standard and stealth
// addresses.
func TestValidateAddress(t *testing.T) {
	t.Parallel()

	std := newTestAddress(t)
	sx := newTestStealthAddress(t)

	dest, err := ValidateAddress(std.EncodeAddress(), testParams)
	require.NoError(t, err)
	require.Equal(t, KindStandard, dest.Kind())
	require.Equal(t, std.EncodeAddress(), dest.String())

	dest, err = ValidateAddress(sx.encoded, testParams)
	require.NoError(t, err)
	require.Equal(t, KindStealth, dest.Kind())
	require.Equal(t, sx.encoded, dest.String())

	stealthDest, ok := dest.(*StealthDestination)
	require.True(t, ok)
	require.True(t, stealthDest.ScanPubKey.IsEqual(sx.scan.PubKey()))

	// An address of another network is rejected.
	mainAddr, err := btcutil.NewAddressPubKeyHash(
		make([]byte, 20), &chaincfg.MainNetParams,
	)
	require.NoError(t, err)
	_, err = ValidateAddress(mainAddr.EncodeAddress(), testParams)
	require.Error(t, err)

	// So is a long string that is neither.
	_, err = ValidateAddress(strings.Repeat("1", 80), testParams)
	require.Error(t, err)
}

// TestValidateRecipients checks the per recipient checks and their order.
func TestValidateRecipients(t *testing.T) {
	t.Parallel()

	a := newTestAddress(t).EncodeAddress()
	b := newTestAddress(t).EncodeAddress()
	sx := newTestStealthAddress(t).encoded

	tests := []struct {
		name       string
		recipients []Recipient
		err        error
	}{
		{
			name: "valid mix",
			recipients: []Recipient{
				{Address: a, Amount: 10, Narration: "rent"},
				{Address: sx, Amount: 20, Narration: "gift"},
			},
		},
		{
			name: "invalid address",
			recipients: []Recipient{
				{Address: a, Amount: 10},
				{Address: "garbage", Amount: 10},
			},
			err: ErrInvalidAddress,
		},
		{
			name: "address checked before amount",
			recipients: []Recipient{
				{Address: "garbage", Amount: 0},
			},
			err: ErrInvalidAddress,
		},
		{
			name: "zero amount",
			recipients: []Recipient{
				{Address: a, Amount: 0},
			},
			err: ErrInvalidAmount,
		},
		{
			name: "negative amount",
			recipients: []Recipient{
				{Address: a, Amount: -5},
			},
			err: ErrInvalidAmount,
		},
		{
			name: "first failing recipient wins",
			recipients: []Recipient{
				{Address: a, Amount: 0},
				{Address: "garbage", Amount: 10},
			},
			err: ErrInvalidAmount,
		},
		{
			name: "narration too long",
			recipients: []Recipient{
				{Address: sx, Amount: 10,
					Narration: strings.Repeat("x", 25)},
			},
			err: ErrNarrationTooLong,
		},
		{
			name: "duplicate address",
			recipients: []Recipient{
				{Address: a, Amount: 10},
				{Address: b, Amount: 10},
				{Address: a, Amount: 20},
			},
			err: ErrDuplicateAddress,
		},
		{
			name: "duplicate checked after amounts",
			recipients: []Recipient{
				{Address: a, Amount: 10},
				{Address: a, Amount: 0},
			},
			err: ErrInvalidAmount,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			validated, err := ValidateRecipients(
				test.recipients, testParams,
			)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				require.Equal(t, StatusOf(test.err),
					StatusOf(err))
				return
			}

			require.NoError(t, err)
			require.Len(t, validated, len(test.recipients))
			for i, v := range validated {
				require.Equal(t, test.recipients[i], v.Recipient)
			}
		})
	}
}
