// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stealth implements stealth addresses: the address encoding and the
// elliptic curve key exchange a sender runs against the recipient's scan key
// to derive a one-time destination only the recipient can spend.
package stealth
