// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zero_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sxwallet/sxwallet/internal/zero"
)

func makeOneBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 1
	}
	return b
}

func TestBytes(t *testing.T) {
	for _, n := range []int{0, 31, 32, 33, 255, 256, 257, 513} {
		b := makeOneBytes(n)
		zero.Bytes(b)
		require.Equal(t, make([]byte, n), b, "n=%d", n)
	}
}

func TestBytea32(t *testing.T) {
	var b [32]byte
	copy(b[:], makeOneBytes(32))

	zero.Bytea32(&b)
	require.Equal(t, [32]byte{}, b)
}
