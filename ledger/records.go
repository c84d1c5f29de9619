// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/tlv"
	"github.com/sxwallet/sxwallet/wallet"
)

// keyKind describes how the ledger controls an address.
type keyKind uint8

const (
	// keyKindSpendable is an address with a stored private key.
	keyKindSpendable keyKind = iota

	// keyKindWatchOnly is an imported address without a key.
	keyKindWatchOnly

	// keyKindStealth is the one-time address of a received stealth
	// payment. Its key is derived from the stealth spend key on demand.
	keyKindStealth
)

// keyRecord is the stored form of an address of the wallet.
type keyRecord struct {
	kind keyKind

	// pubKey is the compressed public key. Empty for watch-only.
	pubKey []byte

	// privKey is the private key, sealed with the crypto key when the
	// wallet is encrypted. Empty for watch-only and stealth addresses.
	privKey []byte

	// stealthAddr and tweak are set for keyKindStealth: the private key
	// is the stealth spend key plus tweak.
	stealthAddr []byte
	tweak       [32]byte

	// change marks addresses created for change outputs.
	change bool
}

const (
	keyKindType     tlv.Type = 0
	keyPubKeyType   tlv.Type = 1
	keyPrivKeyType  tlv.Type = 2
	keyStealthType  tlv.Type = 3
	keyTweakType    tlv.Type = 4
	keyChangeType   tlv.Type = 5
	stealthScanType tlv.Type = 0
	stealthPubType  tlv.Type = 1
	stealthPrivType tlv.Type = 2
	entryLabelType  tlv.Type = 0
	entryKindType   tlv.Type = 1
	entryMineType   tlv.Type = 2
	narrationType   tlv.Type = 0
)

func keyRecordStream(r *keyRecord, kind *uint8) (*tlv.Stream, error) {
	return tlv.NewStream(
		tlv.MakePrimitiveRecord(keyKindType, kind),
		tlv.MakePrimitiveRecord(keyPubKeyType, &r.pubKey),
		tlv.MakePrimitiveRecord(keyPrivKeyType, &r.privKey),
		tlv.MakePrimitiveRecord(keyStealthType, &r.stealthAddr),
		tlv.MakePrimitiveRecord(keyTweakType, &r.tweak),
		tlv.MakePrimitiveRecord(keyChangeType, &r.change),
	)
}

func serializeKeyRecord(r *keyRecord) ([]byte, error) {
	kind := uint8(r.kind)
	stream, err := keyRecordStream(r, &kind)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := stream.Encode(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func deserializeKeyRecord(v []byte) (*keyRecord, error) {
	var (
		r    keyRecord
		kind uint8
	)
	stream, err := keyRecordStream(&r, &kind)
	if err != nil {
		return nil, err
	}
	if err := stream.Decode(bytes.NewReader(v)); err != nil {
		return nil, fmt.Errorf("%w: key record: %v", ErrCorruptRecord,
			err)
	}
	r.kind = keyKind(kind)

	return &r, nil
}

// stealthRecord is the stored form of a stealth address of the wallet.
type stealthRecord struct {
	// scanKey stays in the clear so payments are found while the wallet
	// is locked.
	scanKey [32]byte

	spendPubKey []byte

	// spendKey is sealed with the crypto key when the wallet is
	// encrypted.
	spendKey []byte
}

func serializeStealthRecord(r *stealthRecord) ([]byte, error) {
	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(stealthScanType, &r.scanKey),
		tlv.MakePrimitiveRecord(stealthPubType, &r.spendPubKey),
		tlv.MakePrimitiveRecord(stealthPrivType, &r.spendKey),
	)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := stream.Encode(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func deserializeStealthRecord(v []byte) (*stealthRecord, error) {
	var r stealthRecord
	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(stealthScanType, &r.scanKey),
		tlv.MakePrimitiveRecord(stealthPubType, &r.spendPubKey),
		tlv.MakePrimitiveRecord(stealthPrivType, &r.spendKey),
	)
	if err != nil {
		return nil, err
	}
	if err := stream.Decode(bytes.NewReader(v)); err != nil {
		return nil, fmt.Errorf("%w: stealth record: %v",
			ErrCorruptRecord, err)
	}

	return &r, nil
}

func serializeAddressBookEntry(e *wallet.AddressBookEntry) ([]byte, error) {
	label := []byte(e.Label)
	kind := uint8(e.Kind)
	isMine := e.IsMine

	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(entryLabelType, &label),
		tlv.MakePrimitiveRecord(entryKindType, &kind),
		tlv.MakePrimitiveRecord(entryMineType, &isMine),
	)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := stream.Encode(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func deserializeAddressBookEntry(addr string,
	v []byte) (*wallet.AddressBookEntry, error) {

	var (
		label  []byte
		kind   uint8
		isMine bool
	)
	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(entryLabelType, &label),
		tlv.MakePrimitiveRecord(entryKindType, &kind),
		tlv.MakePrimitiveRecord(entryMineType, &isMine),
	)
	if err != nil {
		return nil, err
	}
	if err := stream.Decode(bytes.NewReader(v)); err != nil {
		return nil, fmt.Errorf("%w: address book entry %s: %v",
			ErrCorruptRecord, addr, err)
	}

	return &wallet.AddressBookEntry{
		Address: addr,
		Label:   string(label),
		Kind:    wallet.AddressKind(kind),
		IsMine:  isMine,
	}, nil
}

func serializeNarration(text string) ([]byte, error) {
	b := []byte(text)
	stream, err := tlv.NewStream(tlv.MakePrimitiveRecord(narrationType, &b))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := stream.Encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func deserializeNarration(v []byte) (string, error) {
	var b []byte
	stream, err := tlv.NewStream(tlv.MakePrimitiveRecord(narrationType, &b))
	if err != nil {
		return "", err
	}
	if err := stream.Decode(bytes.NewReader(v)); err != nil {
		return "", fmt.Errorf("%w: narration: %v", ErrCorruptRecord,
			err)
	}

	return string(b), nil
}

// canonicalOutPoint serializes an outpoint as its hash followed by the
// big endian index, so outputs of a transaction sort together.
func canonicalOutPoint(txHash *chainhash.Hash, index uint32) []byte {
	k := make([]byte, chainhash.HashSize+4)
	copy(k, txHash[:])
	binary.BigEndian.PutUint32(k[chainhash.HashSize:], index)
	return k
}

func readCanonicalOutPoint(k []byte, op *wire.OutPoint) error {
	if len(k) != chainhash.HashSize+4 {
		return fmt.Errorf("%w: outpoint key length %d", ErrCorruptRecord,
			len(k))
	}
	copy(op.Hash[:], k[:chainhash.HashSize])
	op.Index = binary.BigEndian.Uint32(k[chainhash.HashSize:])
	return nil
}
