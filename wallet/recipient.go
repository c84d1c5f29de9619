// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/sxwallet/sxwallet/stealth"
)

// Recipient is one payment of a send request as entered by the user.
type Recipient struct {
	// Address is the encoded destination: a regular base58check address
	// or a stealth address.
	Address string

	// Label is stored in the address book once the payment is committed.
	Label string

	// Amount is the value paid to the destination.
	Amount btcutil.Amount

	// Narration is an optional memo of at most narration.MaxPlaintextLen
	// bytes.
	Narration string
}

// AddressKind identifies the encoding family of an address.
type AddressKind uint8

const (
	// KindStandard is a regular base58check address.
	KindStandard AddressKind = iota

	// KindStealth is a stealth address.
	KindStealth
)

// String returns the name of the kind.
func (k AddressKind) String() string {
	if k == KindStealth {
		return "stealth"
	}
	return "standard"
}

// Destination is where a recipient's payment is sent. It is resolved once
// during validation and is either a *StandardDestination or a
// *StealthDestination.
type Destination interface {
	// Kind returns the address family of the destination.
	Kind() AddressKind

	// String returns the encoded address.
	String() string

	isDestination()
}

// StandardDestination is a destination paid directly by script.
type StandardDestination struct {
	btcutil.Address
}

// A compile time check to ensure that StandardDestination implements the
// Destination interface.
var _ Destination = (*StandardDestination)(nil)

// Kind returns KindStandard.
func (*StandardDestination) Kind() AddressKind { return KindStandard }

func (*StandardDestination) isDestination() {}

// StealthDestination is a destination that is paid through a fresh one-time
// key derived from the stealth address.
type StealthDestination struct {
	*stealth.Address

	// Encoded is the address as entered.
	Encoded string
}

// A compile time check to ensure that StealthDestination implements the
// Destination interface.
var _ Destination = (*StealthDestination)(nil)

// Kind returns KindStealth.
func (*StealthDestination) Kind() AddressKind { return KindStealth }

// String returns the encoded stealth address.
func (d *StealthDestination) String() string { return d.Encoded }

func (*StealthDestination) isDestination() {}

// ValidatedRecipient is a recipient whose address, amount and narration
// have been checked.
type ValidatedRecipient struct {
	Recipient

	// Destination is the parsed address of the recipient.
	Destination Destination
}
