// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sxwallet/sxwallet/narration"
	"github.com/sxwallet/sxwallet/stealth"
	"github.com/sxwallet/sxwallet/wallet"
)

// The ledger follows a chain it extends itself. ConnectBlock mines every
// unmined wallet transaction together with a coinbase and any foreign
// transactions into a new best block.

// coinbaseTx returns the coinbase of the block at height paying reward to
// addr. A nil addr pays an anyone-can-spend script.
func coinbaseTx(height int32, addr btcutil.Address,
	reward btcutil.Amount) (*wire.MsgTx, error) {

	sigScript, err := txscript.NewScriptBuilder().
		AddInt64(int64(height)).
		AddInt64(0).
		Script()
	if err != nil {
		return nil, err
	}

	pkScript := []byte{txscript.OP_TRUE}
	if addr != nil {
		pkScript, err = txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, err
		}
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(
			&chainhash.Hash{}, wire.MaxPrevOutIndex,
		),
		SignatureScript: sigScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(int64(reward), pkScript))

	return tx, nil
}

// ConnectBlock mines a block on top of the best block. The block holds a
// coinbase paying reward to coinbaseAddr, every unmined wallet transaction
// and extra. Transactions of extra that neither pay nor spend wallet
// outputs are ignored by the ledger. If stake is set the coinbase is
// recorded as a stake reward. ConnectBlock takes the ledger locks.
func (l *Ledger) ConnectBlock(coinbaseAddr btcutil.Address,
	reward btcutil.Amount, stake bool,
	extra []*wire.MsgTx) (*chainhash.Hash, error) {

	l.locks.Lock()
	defer l.locks.Unlock()

	height := l.bestHeight + 1
	coinbase, err := coinbaseTx(height, coinbaseAddr, reward)
	if err != nil {
		return nil, err
	}

	var unmined []*wire.MsgTx
	err = walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		var err error
		unmined, err = l.txStore.UnminedTxs(
			tx.ReadBucket(wtxmgrNamespaceKey),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	txs := make([]*wire.MsgTx, 0, 1+len(unmined)+len(extra))
	txs = append(txs, coinbase)
	txs = append(txs, unmined...)
	txs = append(txs, extra...)

	utxs := make([]*btcutil.Tx, len(txs))
	for i, tx := range txs {
		utxs[i] = btcutil.NewTx(tx)
	}
	merkleRoot := blockchain.CalcMerkleRoot(utxs, false)

	header := wire.BlockHeader{
		Version:    1,
		PrevBlock:  l.bestHash,
		MerkleRoot: merkleRoot,
		Timestamp:  l.cfg.Clock.Now(),
		Bits:       l.params.PowLimitBits,
		Nonce:      uint32(height),
	}
	blockHash := header.BlockHash()
	block := &wtxmgr.BlockMeta{
		Block: wtxmgr.Block{Hash: blockHash, Height: height},
		Time:  header.Timestamp,
	}

	wasUnmined := make(map[chainhash.Hash]struct{}, len(unmined))
	for _, tx := range unmined {
		wasUnmined[tx.TxHash()] = struct{}{}
	}

	changes := make(map[chainhash.Hash]wallet.ChangeType)
	err = walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		keysNs := tx.ReadWriteBucket(keysNamespaceKey)
		owned, err := stealthAddresses(keysNs)
		if err != nil {
			return err
		}
		defer func() {
			for _, o := range owned {
				o.scanKey.Zero()
			}
		}()

		for _, msgTx := range txs {
			rec, err := wtxmgr.NewTxRecordFromMsgTx(
				msgTx, header.Timestamp,
			)
			if err != nil {
				return err
			}

			_, known := wasUnmined[rec.Hash]
			relevant, err := l.recordTx(tx, owned, rec, block, known)
			if err != nil {
				return fmt.Errorf("unable to record transaction "+
					"%v: %w", rec.Hash, err)
			}
			if !relevant {
				continue
			}

			changes[rec.Hash] = wallet.ChangeNew
			if known {
				changes[rec.Hash] = wallet.ChangeUpdated
			}
		}

		if stake && coinbaseAddr != nil {
			hash := coinbase.TxHash()
			err := tx.ReadWriteBucket(metaNamespaceKey).
				NestedReadWriteBucket(stakeBucketKey).
				Put(hash[:], []byte{1})
			if err != nil {
				return err
			}
		}

		return putBestBlock(
			tx.ReadWriteBucket(metaNamespaceKey), height, blockHash,
		)
	})
	if err != nil {
		return nil, err
	}

	l.bestHeight = height
	l.bestHash = blockHash

	log.Infof("Connected block %v (height %d) with %d %s, %d relevant",
		blockHash, height, len(txs),
		pickNoun(len(txs), "transaction", "transactions"), len(changes))

	l.notify(func(n wallet.LedgerListener) {
		for hash, change := range changes {
			n.NotifyTransactionChanged(hash, change)
		}
		n.NotifyStatusChanged()
	})

	return &blockHash, nil
}

// recordTx inserts rec into the transaction store when it pays or spends
// the wallet and credits its outputs. Wallet transactions are always
// inserted. Stealth payments to owned addresses are detected first, so their
// outputs are credited too.
func (l *Ledger) recordTx(tx walletdb.ReadWriteTx, owned []ownedStealthAddress,
	rec *wtxmgr.TxRecord, block *wtxmgr.BlockMeta, isWallet bool) (bool,
	error) {

	keysNs := tx.ReadWriteBucket(keysNamespaceKey)
	txmgrNs := tx.ReadWriteBucket(wtxmgrNamespaceKey)

	found, err := l.scanStealth(tx, owned, rec)
	if err != nil {
		return false, err
	}

	relevant := isWallet || found > 0
	for i := 0; !relevant && i < len(rec.MsgTx.TxOut); i++ {
		r, err := l.scriptKeyRecord(keysNs, rec.MsgTx.TxOut[i].PkScript)
		if err != nil {
			return false, err
		}
		relevant = r != nil
	}
	if !relevant && !blockchain.IsCoinBaseTx(&rec.MsgTx) {
		for _, txIn := range rec.MsgTx.TxIn {
			_, _, err := l.txCredit(tx, txIn.PreviousOutPoint)
			if err == nil {
				relevant = true
				break
			}
		}
	}
	if !relevant {
		return false, nil
	}

	if err := l.txStore.InsertTx(txmgrNs, rec, block); err != nil {
		return false, err
	}
	if err := l.addCredits(txmgrNs, keysNs, rec, block); err != nil {
		return false, err
	}

	if err := l.recordPlainNarrations(tx, rec); err != nil {
		return false, err
	}

	return true, nil
}

// scanStealth looks for payments to owned stealth addresses in rec. The
// payment output precedes the metadata output carrying its ephemeral key.
// The key of each payment found is stored as its stealth address spend key
// tweaked by the shared secret, and its narration is decrypted. It returns
// the number of payments found.
func (l *Ledger) scanStealth(tx walletdb.ReadWriteTx,
	owned []ownedStealthAddress, rec *wtxmgr.TxRecord) (int, error) {

	if len(owned) == 0 {
		return 0, nil
	}

	keysNs := tx.ReadWriteBucket(keysNamespaceKey)
	narrationNs := tx.ReadWriteBucket(narrationNamespaceKey)

	var found int
	outputs := rec.MsgTx.TxOut
	for i := 1; i < len(outputs); i++ {
		md, ok := wallet.ParseOutputMetadata(outputs[i].PkScript)
		if !ok || md.EphemeralPubKey == nil {
			continue
		}

		class, addrs, _, err := txscript.ExtractPkScriptAddrs(
			outputs[i-1].PkScript, l.params.Params,
		)
		if err != nil || class != txscript.PubKeyHashTy ||
			len(addrs) != 1 {

			continue
		}
		pkHash := addrs[0].ScriptAddress()

		ephemeral, err := secp256k1.ParsePubKey(md.EphemeralPubKey)
		if err != nil {
			log.Debugf("Invalid ephemeral key in output %v:%d: %v",
				rec.Hash, i, err)
			continue
		}

		for _, o := range owned {
			shared, err := stealth.SharedSecret(o.scanKey, ephemeral)
			if err != nil {
				continue
			}
			oneTime, err := stealth.OneTimePubKey(o.spendPub, shared)
			if err != nil {
				continue
			}

			pubKey := oneTime.SerializeCompressed()
			if !bytes.Equal(btcutil.Hash160(pubKey), pkHash) {
				continue
			}

			encoded := addrs[0].EncodeAddress()
			existing, err := fetchKeyRecord(keysNs, encoded)
			if err != nil {
				return found, err
			}
			if existing == nil {
				err = putKeyRecord(keysNs, encoded, &keyRecord{
					kind:        keyKindStealth,
					pubKey:      pubKey,
					stealthAddr: []byte(o.encoded),
					tweak:       shared,
				})
				if err != nil {
					return found, err
				}
			}

			log.Infof("Found stealth payment %v:%d to %s", rec.Hash,
				i-1, o.encoded)
			found++

			if md.Narration == nil {
				break
			}
			text, err := narration.Decrypt(
				shared, md.EphemeralPubKey, md.Narration,
			)
			if err != nil {
				log.Warnf("Unable to decrypt narration of %v:%d: %v",
					rec.Hash, i-1, err)
				break
			}

			op := wire.OutPoint{Hash: rec.Hash, Index: uint32(i - 1)}
			err = putNarration(narrationNs, op, string(text))
			if err != nil {
				return found, err
			}
			break
		}
	}

	return found, nil
}

// recordPlainNarrations stores unencrypted narrations attached to outputs
// paying the wallet.
func (l *Ledger) recordPlainNarrations(tx walletdb.ReadWriteTx,
	rec *wtxmgr.TxRecord) error {

	keysNs := tx.ReadBucket(keysNamespaceKey)
	narrationNs := tx.ReadWriteBucket(narrationNamespaceKey)

	outputs := rec.MsgTx.TxOut
	for i := 1; i < len(outputs); i++ {
		md, ok := wallet.ParseOutputMetadata(outputs[i].PkScript)
		if !ok || md.EphemeralPubKey != nil || md.Narration == nil {
			continue
		}

		r, err := l.scriptKeyRecord(keysNs, outputs[i-1].PkScript)
		if err != nil {
			return err
		}
		if r == nil {
			continue
		}

		op := wire.OutPoint{Hash: rec.Hash, Index: uint32(i - 1)}
		if narrationNs.Get(canonicalOutPoint(&op.Hash, op.Index)) != nil {
			continue
		}
		err = putNarration(narrationNs, op, string(md.Narration))
		if err != nil {
			return err
		}
	}

	return nil
}
