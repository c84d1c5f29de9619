// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package narration encrypts the short free-text memo attached to a stealth
// payment. The cipher is keyed by the stealth shared secret so only the
// recipient of the payment can read it.
package narration

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

const (
	// MaxPlaintextLen is the largest narration, in bytes, that may be
	// attached to an output.
	MaxPlaintextLen = 24

	// MaxCiphertextLen is the largest encrypted narration accepted in a
	// metadata output.
	MaxCiphertextLen = 48
)

var (
	// ErrTooLong is returned when a narration exceeds MaxPlaintextLen.
	ErrTooLong = errors.New("narration too long")

	// ErrCiphertextTooLong is returned when an encrypted narration
	// exceeds MaxCiphertextLen.
	ErrCiphertextTooLong = errors.New("encrypted narration too long")

	// ErrInvalidCiphertext is returned when a ciphertext does not decrypt
	// to correctly padded plaintext.
	ErrInvalidCiphertext = errors.New("invalid encrypted narration")
)

// Encrypt encrypts plaintext with AES-256-CBC under the shared secret. The IV
// is the first block of the ephemeral public key published with the payment,
// so the same inputs always produce the same ciphertext.
func Encrypt(secret [32]byte, ephemeralPubKey,
	plaintext []byte) ([]byte, error) {

	if len(plaintext) > MaxPlaintextLen {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLong,
			len(plaintext), MaxPlaintextLen)
	}

	block, iv, err := newCipher(secret, ephemeralPubKey)
	if err != nil {
		return nil, err
	}

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	buf := make([]byte, len(plaintext)+padLen)
	copy(buf, plaintext)
	copy(buf[len(plaintext):], bytes.Repeat([]byte{byte(padLen)}, padLen))

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)

	if len(buf) > MaxCiphertextLen {
		return nil, ErrCiphertextTooLong
	}

	return buf, nil
}

// Decrypt reverses Encrypt.
func Decrypt(secret [32]byte, ephemeralPubKey,
	ciphertext []byte) ([]byte, error) {

	switch {
	case len(ciphertext) > MaxCiphertextLen:
		return nil, ErrCiphertextTooLong

	case len(ciphertext) == 0, len(ciphertext)%aes.BlockSize != 0:
		return nil, ErrInvalidCiphertext
	}

	block, iv, err := newCipher(secret, ephemeralPubKey)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, ciphertext)

	padLen := int(buf[len(buf)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		return nil, ErrInvalidCiphertext
	}
	for _, b := range buf[len(buf)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidCiphertext
		}
	}

	return buf[:len(buf)-padLen], nil
}

func newCipher(secret [32]byte, ephemeralPubKey []byte) (cipher.Block,
	[]byte, error) {

	if len(ephemeralPubKey) < aes.BlockSize {
		return nil, nil, fmt.Errorf("ephemeral public key too short: "+
			"%d bytes", len(ephemeralPubKey))
	}

	block, err := aes.NewCipher(secret[:])
	if err != nil {
		return nil, nil, err
	}

	return block, ephemeralPubKey[:aes.BlockSize], nil
}
