// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stealth

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// MinEncodedLen is the length an encoded string must exceed before it
	// is considered a stealth address candidate. Regular base58check
	// addresses never reach it.
	MinEncodedLen = 75

	// payloadLen is the length of an encoded address without the version
	// byte and checksum: options, scan key, spend key count, spend key,
	// required signatures and prefix length.
	payloadLen = 1 + secp256k1.PubKeyBytesLenCompressed + 1 +
		secp256k1.PubKeyBytesLenCompressed + 1 + 1
)

var (
	// ErrInvalidAddress is returned when a string does not decode to a
	// well formed stealth address.
	ErrInvalidAddress = errors.New("invalid stealth address")

	// ErrWrongNetwork is returned when a stealth address carries the
	// version byte of another network.
	ErrWrongNetwork = errors.New("stealth address is for another network")
)

// Address is a stealth address: a long-lived public identity made of a scan
// key, used by the recipient to detect payments, and a spend key, from which
// every one-time destination is derived.
type Address struct {
	// Options is the options byte carried in the encoding. No option is
	// currently defined; it is preserved as decoded.
	Options byte

	// ScanPubKey is the public key the sender performs the key exchange
	// with.
	ScanPubKey *secp256k1.PublicKey

	// SpendPubKey is the public key one-time keys are derived from.
	SpendPubKey *secp256k1.PublicKey
}

// NewAddress returns a stealth address for the scan and spend keys.
func NewAddress(scan, spend *secp256k1.PublicKey) *Address {
	return &Address{
		ScanPubKey:  scan,
		SpendPubKey: spend,
	}
}

// Encode returns the base58check encoding of the address using the passed
// network version byte.
func (a *Address) Encode(version byte) string {
	payload := make([]byte, 0, payloadLen)
	payload = append(payload, a.Options)
	payload = append(payload, a.ScanPubKey.SerializeCompressed()...)
	payload = append(payload, 1)
	payload = append(payload, a.SpendPubKey.SerializeCompressed()...)

	// No multisig spend requirement and no prefix filter.
	payload = append(payload, 0, 0)

	return base58.CheckEncode(payload, version)
}

// Equal reports whether both addresses carry the same keys.
func (a *Address) Equal(o *Address) bool {
	return a.ScanPubKey.IsEqual(o.ScanPubKey) &&
		a.SpendPubKey.IsEqual(o.SpendPubKey)
}

// Decode parses an encoded stealth address for the network identified by
// version. Only addresses with a single spend key and no prefix filter are
// accepted.
func Decode(s string, version byte) (*Address, error) {
	payload, ver, err := base58.CheckDecode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if ver != version {
		return nil, ErrWrongNetwork
	}
	if len(payload) != payloadLen {
		return nil, fmt.Errorf("%w: payload length %d", ErrInvalidAddress,
			len(payload))
	}

	const (
		scanStart  = 1
		spendCount = scanStart + secp256k1.PubKeyBytesLenCompressed
		spendStart = spendCount + 1
		spendEnd   = spendStart + secp256k1.PubKeyBytesLenCompressed
	)

	scan, err := secp256k1.ParsePubKey(payload[scanStart:spendCount])
	if err != nil {
		return nil, fmt.Errorf("%w: scan key: %v", ErrInvalidAddress, err)
	}
	if payload[spendCount] != 1 {
		return nil, fmt.Errorf("%w: %d spend keys", ErrInvalidAddress,
			payload[spendCount])
	}
	spend, err := secp256k1.ParsePubKey(payload[spendStart:spendEnd])
	if err != nil {
		return nil, fmt.Errorf("%w: spend key: %v", ErrInvalidAddress,
			err)
	}
	if payload[spendEnd+1] != 0 {
		return nil, fmt.Errorf("%w: prefix filters are not supported",
			ErrInvalidAddress)
	}

	return &Address{
		Options:     payload[0],
		ScanPubKey:  scan,
		SpendPubKey: spend,
	}, nil
}

// IsStealthAddress reports whether s is long enough to be a stealth address
// and decodes as one for the network identified by version.
func IsStealthAddress(s string, version byte) bool {
	if len(s) <= MinEncodedLen {
		return false
	}
	_, err := Decode(s, version)
	return err == nil
}
