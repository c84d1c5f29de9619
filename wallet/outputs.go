// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sxwallet/sxwallet/narration"
	"github.com/sxwallet/sxwallet/stealth"
)

// plainNarrationTag marks a metadata output carrying an unencrypted
// narration.
var plainNarrationTag = []byte("np")

// OutputMetadata is the content of a zero value metadata output following
// a payment output.
type OutputMetadata struct {
	// EphemeralPubKey is set for stealth payments. The recipient combines
	// it with the scan key to find the payment.
	EphemeralPubKey []byte

	// Narration is the narration carried by the output, encrypted when
	// EphemeralPubKey is set.
	Narration []byte
}

// StealthMetadataScript returns OP_RETURN <ephemeral key>, followed by
// OP_RETURN <encrypted narration> if one is given.
func StealthMetadataScript(ephemeralPubKey,
	encNarration []byte) ([]byte, error) {

	b := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(ephemeralPubKey)
	if len(encNarration) > 0 {
		b.AddOp(txscript.OP_RETURN).AddData(encNarration)
	}

	return b.Script()
}

// NarrationScript returns OP_RETURN "np" OP_RETURN <narration>.
func NarrationScript(plaintext []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(plainNarrationTag).
		AddOp(txscript.OP_RETURN).
		AddData(plaintext).
		Script()
}

// ParseOutputMetadata decodes a script built by StealthMetadataScript or
// NarrationScript. It reports false for any other script.
func ParseOutputMetadata(pkScript []byte) (*OutputMetadata, bool) {
	var (
		ops  []byte
		data [][]byte
	)
	tokenizer := txscript.MakeScriptTokenizer(0, pkScript)
	for tokenizer.Next() {
		ops = append(ops, tokenizer.Opcode())
		data = append(data, tokenizer.Data())
	}
	if tokenizer.Err() != nil {
		return nil, false
	}

	if len(ops) != 2 && len(ops) != 4 {
		return nil, false
	}
	for i := 0; i < len(ops); i += 2 {
		if ops[i] != txscript.OP_RETURN || len(data[i+1]) == 0 {
			return nil, false
		}
	}

	switch first := data[1]; {
	case len(first) == secp256k1.PubKeyBytesLenCompressed:
		md := &OutputMetadata{EphemeralPubKey: first}
		if len(ops) == 4 {
			md.Narration = data[3]
		}
		return md, true

	case bytes.Equal(first, plainNarrationTag) && len(ops) == 4:
		return &OutputMetadata{Narration: data[3]}, true
	}

	return nil, false
}

// outputPlan is the set of outputs paying a send request, before change is
// added.
type outputPlan struct {
	outputs []*wire.TxOut

	// narrations maps the index of each stealth payment output to its
	// narration.
	narrations map[int]string
}

// buildOutputs creates the outputs paying every recipient, in order. A
// stealth recipient gets a payment to a fresh one-time key followed by a
// metadata output publishing the ephemeral key and encrypted narration. A
// standard recipient with a narration gets a metadata output carrying it in
// the clear.
func buildOutputs(recipients []ValidatedRecipient, params *chaincfg.Params,
	rand io.Reader) (*outputPlan, error) {

	plan := &outputPlan{narrations: make(map[int]string)}

	for _, rcp := range recipients {
		var err error
		switch dest := rcp.Destination.(type) {
		case *StealthDestination:
			err = plan.addStealth(dest, rcp.Recipient, params, rand)

		case *StandardDestination:
			err = plan.addStandard(dest, rcp.Recipient)

		default:
			err = fmt.Errorf("unknown destination %T", dest)
		}
		if err != nil {
			return nil, err
		}
	}

	return plan, nil
}

func (p *outputPlan) addStealth(dest *StealthDestination, rcp Recipient,
	params *chaincfg.Params, rand io.Reader) error {

	payment, err := stealth.DeriveDestination(
		dest.ScanPubKey, dest.SpendPubKey, rand,
	)
	if err != nil {
		return err
	}
	defer payment.Zero()

	pkHash := btcutil.Hash160(payment.OneTimeKey.SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, params)
	if err != nil {
		return fmt.Errorf("%w: %v", stealth.ErrInvalidPoint, err)
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return err
	}

	ephemeral := payment.EphemeralPubKey()

	log.Debugf("Stealth payment to %s: one-time address %s",
		dest.Encoded, addr)

	var encNarration []byte
	if rcp.Narration != "" {
		encNarration, err = narration.Encrypt(
			payment.SharedSecret, ephemeral, []byte(rcp.Narration),
		)
		if err != nil {
			return err
		}
	}

	metaScript, err := StealthMetadataScript(ephemeral, encNarration)
	if err != nil {
		return err
	}

	pos := len(p.outputs)
	p.outputs = append(p.outputs, wire.NewTxOut(int64(rcp.Amount),
		pkScript))
	if rcp.Narration != "" {
		p.narrations[pos] = rcp.Narration
	}
	p.outputs = append(p.outputs, wire.NewTxOut(0, metaScript))

	return nil
}

func (p *outputPlan) addStandard(dest *StandardDestination,
	rcp Recipient) error {

	pkScript, err := txscript.PayToAddrScript(dest.Address)
	if err != nil {
		return err
	}
	p.outputs = append(p.outputs, wire.NewTxOut(int64(rcp.Amount),
		pkScript))

	if rcp.Narration == "" {
		return nil
	}

	metaScript, err := NarrationScript([]byte(rcp.Narration))
	if err != nil {
		return err
	}
	p.outputs = append(p.outputs, wire.NewTxOut(0, metaScript))

	return nil
}

// narrationsAfterChange returns the narrations keyed by their index in the
// final transaction, where a change output inserted at changeIndex shifts
// every output at or after it by one.
func (p *outputPlan) narrationsAfterChange(changeIndex int) map[int]string {
	renumbered := make(map[int]string, len(p.narrations))
	for pos, narr := range p.narrations {
		if changeIndex > -1 && pos >= changeIndex {
			pos++
		}
		renumbered[pos] = narr
	}

	return renumbered
}
