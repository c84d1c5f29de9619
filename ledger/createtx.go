// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txauthor"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
	"github.com/davecgh/go-spew/spew"
	"github.com/sxwallet/sxwallet/wallet"
)

// byAmount defines the methods needed to satisify sort.Interface to
// sort outputs by their amount.
type byAmount []wallet.SpendableOutput

func (s byAmount) Len() int           { return len(s) }
func (s byAmount) Less(i, j int) bool { return s[i].Amount < s[j].Amount }
func (s byAmount) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// inputSource adds inputs until their total reaches target or the eligible
// outputs are exhausted. Inputs chosen by earlier calls are kept.
type inputSource func(target btcutil.Amount) (btcutil.Amount, []*wire.TxIn,
	[]btcutil.Amount, [][]byte)

func makeInputSource(eligible []wallet.SpendableOutput) inputSource {
	// Pick largest outputs first.
	sort.Sort(sort.Reverse(byAmount(eligible)))

	// Current inputs and their total value.  These are closed over by the
	// returned input source and reused across multiple calls.
	var (
		currentTotal   btcutil.Amount
		currentInputs  = make([]*wire.TxIn, 0, len(eligible))
		currentValues  = make([]btcutil.Amount, 0, len(eligible))
		currentScripts = make([][]byte, 0, len(eligible))
	)

	return func(target btcutil.Amount) (btcutil.Amount, []*wire.TxIn,
		[]btcutil.Amount, [][]byte) {

		for currentTotal < target && len(eligible) != 0 {
			next := &eligible[0]
			eligible = eligible[1:]

			currentTotal += next.Amount
			currentInputs = append(
				currentInputs, wire.NewTxIn(&next.OutPoint, nil, nil),
			)
			currentValues = append(currentValues, next.Amount)
			currentScripts = append(currentScripts, next.PkScript)
		}

		return currentTotal, currentInputs, currentValues,
			currentScripts
	}
}

// estimateSerializeSize returns a worst case serialize size estimate for a
// signed transaction that spends inputCount compressed P2PKH outputs and
// pays outputs, plus a P2PKH change output if addChange is set.
func estimateSerializeSize(inputCount int, outputs []*wire.TxOut,
	addChange bool) int {

	outputCount := len(outputs)
	changeSize := 0
	if addChange {
		outputCount++
		changeSize = txsizes.P2PKHOutputSize
	}

	// 8 additional bytes are for version and locktime.
	return 8 + wire.VarIntSerializeSize(uint64(inputCount)) +
		wire.VarIntSerializeSize(uint64(outputCount)) +
		inputCount*txsizes.RedeemP2PKHInputSize +
		txsizes.SumOutputSerializeSizes(outputs) + changeSize
}

// changeScriptTemplate stands in for a P2PKH change script when checking
// whether change would be dust.
var changeScriptTemplate = make([]byte, txsizes.P2PKHPkScriptSize)

// isMetadataOutput reports whether out carries the metadata of the output
// before it.
func isMetadataOutput(out *wire.TxOut) bool {
	if out.Value != 0 {
		return false
	}
	_, ok := wallet.ParseOutputMetadata(out.PkScript)
	return ok
}

// CreateTransaction funds and signs a transaction paying outputs. Confirmed
// outputs are spent first, largest first, and unconfirmed ones only when
// the confirmed ones do not suffice. Change above the dust limit goes to a
// new change address inserted at a random position that does not separate
// a payment from its metadata output. The change key is only stored once
// the transaction is committed. The fee required by the last funding
// attempt is returned even when creation fails. The caller must hold the
// ledger locks.
func (l *Ledger) CreateTransaction(outputs []*wire.TxOut,
	cc *wallet.CoinControl, fees wallet.FeePolicy) (*wallet.DraftTx,
	btcutil.Amount, error) {

	for _, out := range outputs {
		if isMetadataOutput(out) {
			continue
		}
		err := txrules.CheckOutput(out, txrules.DefaultRelayFeePerKb)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid output: %w", err)
		}
	}

	feeRate := fees.FeeRate
	if feeRate <= 0 {
		feeRate = l.params.DefaultPayTxFee
	}

	eligible, err := l.AvailableCoins(true, cc)
	if err != nil {
		return nil, 0, err
	}
	authored, fee, err := l.authorTx(outputs, eligible, feeRate)
	if errors.Is(err, ErrInsufficientFunds) {
		all, listErr := l.AvailableCoins(false, cc)
		if listErr != nil {
			return nil, fee, listErr
		}
		if len(all) > len(eligible) {
			log.Debugf("Confirmed outputs do not cover %v, "+
				"including unconfirmed outputs", fee)
			authored, fee, err = l.authorTx(outputs, all, feeRate)
		}
	}
	if err != nil {
		return nil, fee, err
	}

	if err := authored.AddAllInputScripts(secretSource{l}); err != nil {
		l.releaseChange(l.reservedChangeOf(authored.Tx))
		return nil, fee, fmt.Errorf("unable to sign transaction: %w",
			err)
	}

	err = validateMsgTx(
		authored.Tx, authored.PrevScripts, authored.PrevInputValues,
	)
	if err != nil {
		l.releaseChange(l.reservedChangeOf(authored.Tx))
		return nil, fee, err
	}

	log.Debugf("Created transaction %v spending %d %s, fee %v",
		authored.Tx.TxHash(), len(authored.Tx.TxIn),
		pickNoun(len(authored.Tx.TxIn), "input", "inputs"), fee)

	return &wallet.DraftTx{
		Tx:          authored.Tx,
		Fee:         fee,
		ChangeIndex: authored.ChangeIndex,
	}, fee, nil
}

// authorTx selects inputs from eligible to pay outputs and the fee at
// feeRate and adds change. The fee the selection needed is returned with
// ErrInsufficientFunds.
func (l *Ledger) authorTx(outputs []*wire.TxOut,
	eligible []wallet.SpendableOutput,
	feeRate btcutil.Amount) (*txauthor.AuthoredTx, btcutil.Amount, error) {

	fetchInputs := makeInputSource(eligible)

	targetAmount := txauthor.SumOutputValues(outputs)
	targetFee := txrules.FeeForSerializeSize(
		feeRate, estimateSerializeSize(1, outputs, true),
	)

	for {
		inputAmount, inputs, inputValues, scripts := fetchInputs(
			targetAmount + targetFee,
		)
		if inputAmount < targetAmount+targetFee {
			return nil, targetFee, ErrInsufficientFunds
		}

		maxSignedSize := estimateSerializeSize(len(inputs), outputs, true)
		maxRequiredFee := txrules.FeeForSerializeSize(
			feeRate, maxSignedSize,
		)
		remainingAmount := inputAmount - targetAmount
		if remainingAmount < maxRequiredFee {
			targetFee = maxRequiredFee
			continue
		}

		unsignedTransaction := &wire.MsgTx{
			Version:  wire.TxVersion,
			TxIn:     inputs,
			TxOut:    append([]*wire.TxOut(nil), outputs...),
			LockTime: 0,
		}

		fee := maxRequiredFee
		changeIndex := -1
		changeAmount := remainingAmount - maxRequiredFee
		isDust := txrules.IsDustOutput(
			wire.NewTxOut(int64(changeAmount), changeScriptTemplate),
			txrules.DefaultRelayFeePerKb,
		)
		if changeAmount != 0 && !isDust {
			changeScript, err := l.reserveChangeScript()
			if err != nil {
				return nil, fee, err
			}

			changeIndex, err = l.insertChange(
				unsignedTransaction,
				wire.NewTxOut(int64(changeAmount), changeScript),
			)
			if err != nil {
				return nil, fee, err
			}
		} else {
			fee += changeAmount
		}

		return &txauthor.AuthoredTx{
			Tx:              unsignedTransaction,
			PrevScripts:     scripts,
			PrevInputValues: inputValues,
			TotalInput:      inputAmount,
			ChangeIndex:     changeIndex,
		}, fee, nil
	}
}

// reserveChangeScript returns the script of a new change address. The key
// is held in memory and only stored when a transaction paying it is
// committed.
func (l *Ledger) reserveChangeScript() ([]byte, error) {
	l.keysMtx.Lock()
	defer l.keysMtx.Unlock()

	addr, r, err := l.generateKey(true)
	if err != nil {
		return nil, fmt.Errorf("unable to create change address: %w",
			err)
	}
	l.reservedChange[addr.EncodeAddress()] = r

	return txscript.PayToAddrScript(addr)
}

// reservedChangeOf returns the reserved change keys paid by tx, keyed by
// address.
func (l *Ledger) reservedChangeOf(tx *wire.MsgTx) map[string]*keyRecord {
	l.keysMtx.Lock()
	defer l.keysMtx.Unlock()

	found := make(map[string]*keyRecord)
	for _, out := range tx.TxOut {
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(
			out.PkScript, l.params.Params,
		)
		if err != nil || len(addrs) != 1 {
			continue
		}

		addr := addrs[0].EncodeAddress()
		if r, ok := l.reservedChange[addr]; ok {
			found[addr] = r
		}
	}

	return found
}

// releaseChange drops the reservations of the given change addresses.
func (l *Ledger) releaseChange(reserved map[string]*keyRecord) {
	l.keysMtx.Lock()
	for addr := range reserved {
		delete(l.reservedChange, addr)
	}
	l.keysMtx.Unlock()
}

// insertChange inserts change at a random position of tx's outputs and
// returns its index. The position is never directly before a metadata
// output.
func (l *Ledger) insertChange(tx *wire.MsgTx, change *wire.TxOut) (int,
	error) {

	var positions []int
	for i := 0; i <= len(tx.TxOut); i++ {
		if i < len(tx.TxOut) && isMetadataOutput(tx.TxOut[i]) {
			continue
		}
		positions = append(positions, i)
	}

	n, err := cryptorand.Int(l.cfg.Rand, big.NewInt(int64(len(positions))))
	if err != nil {
		return 0, err
	}
	pos := positions[n.Int64()]

	tx.TxOut = append(tx.TxOut, nil)
	copy(tx.TxOut[pos+1:], tx.TxOut[pos:])
	tx.TxOut[pos] = change

	return pos, nil
}

// validateMsgTx verifies transaction input scripts for tx.  All previous output
// scripts from outputs redeemed by the transaction, in the same order they are
// spent, must be passed in the prevScripts slice.
func validateMsgTx(tx *wire.MsgTx, prevScripts [][]byte,
	inputValues []btcutil.Amount) error {

	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range tx.TxIn {
		prevOutFetcher.AddPrevOut(txIn.PreviousOutPoint, &wire.TxOut{
			Value:    int64(inputValues[i]),
			PkScript: prevScripts[i],
		})
	}
	hashCache := txscript.NewTxSigHashes(tx, prevOutFetcher)

	for i, prevScript := range prevScripts {
		vm, err := txscript.NewEngine(
			prevScript, tx, i, txscript.StandardVerifyFlags, nil,
			hashCache, int64(inputValues[i]), prevOutFetcher,
		)
		if err != nil {
			return fmt.Errorf("cannot create script engine: %w", err)
		}
		if err := vm.Execute(); err != nil {
			return fmt.Errorf("cannot validate transaction: %w", err)
		}
	}

	return nil
}

// CommitTransaction records a signed transaction as unmined, credits the
// outputs paying the wallet and stores the narrations of its outputs. The
// transaction is mined by the next connected block. The caller must hold
// the ledger locks.
func (l *Ledger) CommitTransaction(draft *wallet.DraftTx) error {
	rec, err := wtxmgr.NewTxRecordFromMsgTx(draft.Tx, l.cfg.Clock.Now())
	if err != nil {
		return err
	}

	log.Tracef("Committing transaction %v", newLogClosure(func() string {
		return spew.Sdump(draft.Tx)
	}))

	change := l.reservedChangeOf(draft.Tx)

	err = walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		keysNs := tx.ReadWriteBucket(keysNamespaceKey)
		for addr, r := range change {
			if err := putKeyRecord(keysNs, addr, r); err != nil {
				return err
			}
		}

		owned, err := stealthAddresses(keysNs)
		if err != nil {
			return err
		}
		defer func() {
			for _, o := range owned {
				o.scanKey.Zero()
			}
		}()

		if _, err := l.recordTx(tx, owned, rec, nil, true); err != nil {
			return err
		}

		ns := tx.ReadWriteBucket(narrationNamespaceKey)
		for index, text := range draft.Narrations {
			op := wire.OutPoint{Hash: rec.Hash, Index: uint32(index)}
			if err := putNarration(ns, op, text); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to record transaction %v: %w",
			rec.Hash, err)
	}

	l.releaseChange(change)

	log.Infof("Committed transaction %v", rec.Hash)

	spent := make(map[chainhash.Hash]struct{})
	for _, txIn := range draft.Tx.TxIn {
		spent[txIn.PreviousOutPoint.Hash] = struct{}{}
	}
	l.notify(func(n wallet.LedgerListener) {
		for hash := range spent {
			n.NotifyTransactionChanged(hash, wallet.ChangeUpdated)
		}
		n.NotifyTransactionChanged(rec.Hash, wallet.ChangeNew)
	})

	return nil
}

// addCredits credits every output of rec paying the wallet.
func (l *Ledger) addCredits(txmgrNs walletdb.ReadWriteBucket,
	keysNs walletdb.ReadBucket, rec *wtxmgr.TxRecord,
	block *wtxmgr.BlockMeta) error {

	for i, out := range rec.MsgTx.TxOut {
		r, err := l.scriptKeyRecord(keysNs, out.PkScript)
		if err != nil {
			return err
		}
		if r == nil {
			continue
		}

		err = l.txStore.AddCredit(txmgrNs, rec, block, uint32(i), r.change)
		if err != nil {
			return err
		}
	}

	return nil
}
