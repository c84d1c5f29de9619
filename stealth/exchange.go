// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stealth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sxwallet/sxwallet/internal/zero"
)

var (
	// ErrRandomness is returned when no ephemeral key could be drawn from
	// the randomness source.
	ErrRandomness = errors.New("unable to generate ephemeral key")

	// ErrKeyExchange is returned when the key exchange produced an
	// unusable shared secret.
	ErrKeyExchange = errors.New("stealth key exchange failed")

	// ErrInvalidPoint is returned when a derived one-time key is not a
	// valid curve point.
	ErrInvalidPoint = errors.New("derived key is not a valid point")
)

// Payment holds the sender side result of a stealth key exchange. The
// ephemeral key and shared secret are secret and must be cleared with Zero
// once the outputs carrying the payment have been built.
type Payment struct {
	// EphemeralKey is the fresh key pair whose public half is published
	// next to the payment output.
	EphemeralKey *secp256k1.PrivateKey

	// SharedSecret is SHA256 of the compressed ECDH point. It keys the
	// narration cipher.
	SharedSecret [32]byte

	// OneTimeKey is the public key the payment output is locked to.
	OneTimeKey *secp256k1.PublicKey
}

// EphemeralPubKey returns the compressed ephemeral public key.
func (p *Payment) EphemeralPubKey() []byte {
	return p.EphemeralKey.PubKey().SerializeCompressed()
}

// Zero clears the secret material of the payment.
func (p *Payment) Zero() {
	if p.EphemeralKey != nil {
		p.EphemeralKey.Zero()
	}
	zero.Bytea32(&p.SharedSecret)
}

// DeriveDestination performs the sender side of the key exchange with a
// stealth address: a fresh ephemeral key e is drawn from rand, the shared
// secret is SHA256(e*Scan), and the one-time key is Spend + secret*G.
func DeriveDestination(scan, spend *secp256k1.PublicKey,
	rand io.Reader) (*Payment, error) {

	ephemeral, err := secp256k1.GeneratePrivateKeyFromRand(rand)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomness, err)
	}

	shared, err := sharedSecret(&ephemeral.Key, scan)
	if err != nil {
		ephemeral.Zero()
		return nil, err
	}

	oneTime, err := OneTimePubKey(spend, shared)
	if err != nil {
		ephemeral.Zero()
		zero.Bytea32(&shared)
		return nil, err
	}

	return &Payment{
		EphemeralKey: ephemeral,
		SharedSecret: shared,
		OneTimeKey:   oneTime,
	}, nil
}

// SharedSecret performs the recipient side of the key exchange, returning
// SHA256(scan*E) for the ephemeral public key E published by the sender.
func SharedSecret(scan *secp256k1.PrivateKey,
	ephemeral *secp256k1.PublicKey) ([32]byte, error) {

	return sharedSecret(&scan.Key, ephemeral)
}

// OneTimePubKey returns Spend + secret*G.
func OneTimePubKey(spend *secp256k1.PublicKey,
	secret [32]byte) (*secp256k1.PublicKey, error) {

	tweak, err := secretScalar(secret)
	if err != nil {
		return nil, err
	}
	defer tweak.Zero()

	var spendPoint, tweakPoint, result secp256k1.JacobianPoint
	spend.AsJacobian(&spendPoint)
	secp256k1.ScalarBaseMultNonConst(&tweak, &tweakPoint)
	secp256k1.AddNonConst(&spendPoint, &tweakPoint, &result)
	result.ToAffine()

	if result.X.IsZero() && result.Y.IsZero() {
		return nil, ErrInvalidPoint
	}

	// Round trip through the serialized form so that a key which is not on
	// the curve is rejected here rather than when it is spent.
	oneTime := secp256k1.NewPublicKey(&result.X, &result.Y)
	parsed, err := secp256k1.ParsePubKey(oneTime.SerializeCompressed())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	return parsed, nil
}

// OneTimePrivKey returns the private key spend+secret controlling the
// one-time public key derived for the same secret.
func OneTimePrivKey(spend *secp256k1.PrivateKey,
	secret [32]byte) (*secp256k1.PrivateKey, error) {

	tweak, err := secretScalar(secret)
	if err != nil {
		return nil, err
	}
	defer tweak.Zero()

	var key secp256k1.ModNScalar
	key.Set(&spend.Key).Add(&tweak)
	if key.IsZero() {
		return nil, ErrInvalidPoint
	}

	return secp256k1.NewPrivateKey(&key), nil
}

func sharedSecret(k *secp256k1.ModNScalar,
	pub *secp256k1.PublicKey) ([32]byte, error) {

	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(k, &point, &result)
	result.ToAffine()

	if result.X.IsZero() && result.Y.IsZero() {
		return [32]byte{}, ErrKeyExchange
	}

	shared := secp256k1.NewPublicKey(&result.X, &result.Y)
	return sha256.Sum256(shared.SerializeCompressed()), nil
}

func secretScalar(secret [32]byte) (secp256k1.ModNScalar, error) {
	var s secp256k1.ModNScalar
	if overflow := s.SetBytes(&secret); overflow != 0 || s.IsZero() {
		return s, ErrKeyExchange
	}

	return s, nil
}
