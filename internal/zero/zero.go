// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zero contains functions to clear data from byte slices and
// fixed-size arrays holding key material.
package zero

// Bytes sets all bytes in the passed slice to zero.  This is used to
// explicitly clear passphrases and derived keys from memory.
func Bytes(b []byte) {
	clear(b)
}

// Bytea32 clears the 32-byte array by filling it with the zero value.
// This is used to explicitly clear shared secrets and private key material
// from memory.
func Bytea32(b *[32]byte) {
	*b = [32]byte{}
}
