// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stealth

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
)

const testVersion = 0x28

func newTestAddress(t *testing.T) (*Address, *secp256k1.PrivateKey,
	*secp256k1.PrivateKey) {

	t.Helper()

	scan, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	spend, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	return NewAddress(scan.PubKey(), spend.PubKey()), scan, spend
}

// TestAddressEncodeDecode checks that an encoded address decodes to the same
// keys and is recognized as a stealth address.
func TestAddressEncodeDecode(t *testing.T) {
	t.Parallel()

	addr, _, _ := newTestAddress(t)
	encoded := addr.Encode(testVersion)

	require.Greater(t, len(encoded), MinEncodedLen)
	require.True(t, IsStealthAddress(encoded, testVersion))

	decoded, err := Decode(encoded, testVersion)
	require.NoError(t, err)
	require.True(t, addr.Equal(decoded))
	require.Equal(t, encoded, decoded.Encode(testVersion))
}

// TestDecodeErrors checks the rejection paths of Decode.
func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	addr, _, _ := newTestAddress(t)
	encoded := addr.Encode(testVersion)

	_, err := Decode(encoded, testVersion+1)
	require.ErrorIs(t, err, ErrWrongNetwork)
	require.False(t, IsStealthAddress(encoded, testVersion+1))

	// Flip a character to break the checksum.
	broken := []byte(encoded)
	if broken[10] == '2' {
		broken[10] = '3'
	} else {
		broken[10] = '2'
	}
	_, err = Decode(string(broken), testVersion)
	require.ErrorIs(t, err, ErrInvalidAddress)

	// A prefix filter is not supported.
	payload, _, err := base58.CheckDecode(encoded)
	require.NoError(t, err)
	payload[len(payload)-1] = 8
	_, err = Decode(base58.CheckEncode(payload, testVersion), testVersion)
	require.ErrorIs(t, err, ErrInvalidAddress)

	// Short strings are never stealth addresses.
	require.False(t, IsStealthAddress(encoded[:MinEncodedLen], testVersion))
}
