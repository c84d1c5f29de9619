// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/sxwallet/sxwallet/wallet"
)

// AddressBookEntry returns the entry of an address. The caller must hold
// the ledger locks.
func (l *Ledger) AddressBookEntry(
	addr string) (fn.Option[wallet.AddressBookEntry], error) {

	var entry *wallet.AddressBookEntry
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		v := tx.ReadBucket(addrBookNamespaceKey).Get([]byte(addr))
		if v == nil {
			return nil
		}

		var err error
		entry, err = deserializeAddressBookEntry(addr, v)
		return err
	})
	if err != nil {
		return fn.None[wallet.AddressBookEntry](), err
	}

	return fn.OptionFromPtr(entry), nil
}

// SetAddressBookEntry inserts or replaces an entry. The caller must hold the
// ledger locks.
func (l *Ledger) SetAddressBookEntry(entry wallet.AddressBookEntry) error {
	change := wallet.ChangeUpdated
	err := walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(addrBookNamespaceKey)
		if ns.Get([]byte(entry.Address)) == nil {
			change = wallet.ChangeNew
		}

		return putAddressBookEntry(ns, &entry)
	})
	if err != nil {
		return err
	}

	log.Debugf("Address book entry %s %v", entry.Address, change)
	l.notify(func(n wallet.LedgerListener) {
		n.NotifyAddressBookChanged(entry, change)
	})

	return nil
}

// AddressBook returns every entry of the address book. It takes the ledger
// locks.
func (l *Ledger) AddressBook() ([]wallet.AddressBookEntry, error) {
	l.locks.RLock()
	defer l.locks.RUnlock()

	var entries []wallet.AddressBookEntry
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(addrBookNamespaceKey)
		return ns.ForEach(func(k, v []byte) error {
			entry, err := deserializeAddressBookEntry(string(k), v)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
			return nil
		})
	})

	return entries, err
}

// Narration returns the narration attached to an output. It takes the
// ledger locks.
func (l *Ledger) Narration(op wire.OutPoint) (fn.Option[string], error) {
	l.locks.RLock()
	defer l.locks.RUnlock()

	var text *string
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(narrationNamespaceKey)
		v := ns.Get(canonicalOutPoint(&op.Hash, op.Index))
		if v == nil {
			return nil
		}

		s, err := deserializeNarration(v)
		if err != nil {
			return err
		}
		text = &s
		return nil
	})
	if err != nil {
		return fn.None[string](), err
	}

	return fn.OptionFromPtr(text), nil
}

// Narrations returns the narrations of a transaction's outputs by index. It
// takes the ledger locks.
func (l *Ledger) Narrations(txHash *chainhash.Hash) (map[uint32]string,
	error) {

	l.locks.RLock()
	defer l.locks.RUnlock()

	narrations := make(map[uint32]string)
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		cursor := tx.ReadBucket(narrationNamespaceKey).ReadCursor()
		prefix := txHash[:]
		for k, v := cursor.Seek(prefix); k != nil &&
			bytes.HasPrefix(k, prefix); k, v = cursor.Next() {

			var op wire.OutPoint
			if err := readCanonicalOutPoint(k, &op); err != nil {
				return err
			}
			text, err := deserializeNarration(v)
			if err != nil {
				return err
			}
			narrations[op.Index] = text
		}
		return nil
	})

	return narrations, err
}

func putAddressBookEntry(ns walletdb.ReadWriteBucket,
	entry *wallet.AddressBookEntry) error {

	v, err := serializeAddressBookEntry(entry)
	if err != nil {
		return err
	}

	return ns.Put([]byte(entry.Address), v)
}

func putNarration(ns walletdb.ReadWriteBucket, op wire.OutPoint,
	text string) error {

	v, err := serializeNarration(text)
	if err != nil {
		return err
	}

	return ns.Put(canonicalOutPoint(&op.Hash, op.Index), v)
}
