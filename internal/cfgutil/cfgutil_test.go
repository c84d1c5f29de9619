// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestAmountFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    btcutil.Amount
		wantErr bool
	}{
		{in: "0.0001", want: 10000},
		{in: "1 BTC", want: btcutil.SatoshiPerBitcoin},
		{in: "2.5BTC", want: 250000000},
		{in: "-1", wantErr: true},
		{in: "lots", wantErr: true},
	}

	for _, test := range tests {
		flag := NewAmountFlag(7)
		err := flag.UnmarshalFlag(test.in)
		if test.wantErr {
			require.Error(t, err, test.in)
			require.Equal(t, btcutil.Amount(7), flag.Amount)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.want, flag.Amount, test.in)
	}

	s, err := NewAmountFlag(btcutil.SatoshiPerBitcoin).MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, "1 BTC", s)
}

func TestExplicitPath(t *testing.T) {
	p := NewExplicitPath("~/sxwallet.conf")
	require.False(t, p.ExplicitlySet())
	require.Equal(t, "/home/alice/sxwallet.conf", p.Expand("/home/alice"))

	require.NoError(t, p.UnmarshalFlag("/etc/sxwallet/../sxwallet.conf"))
	require.True(t, p.ExplicitlySet())
	require.Equal(t, "/etc/sxwallet.conf", p.Expand("/home/alice"))

	s, err := p.MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, "/etc/sxwallet/../sxwallet.conf", s)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")

	exists, err := FileExists(path)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, os.WriteFile(path, nil, 0600))
	exists, err = FileExists(path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("SXWALLET_TEST_DIR", "/var/lib")

	require.Equal(t, "/home/alice/data",
		CleanAndExpandPath("~/data/", "/home/alice"))
	require.Equal(t, "/var/lib/sxwallet",
		CleanAndExpandPath("$SXWALLET_TEST_DIR/./sxwallet", "/home/alice"))
}
