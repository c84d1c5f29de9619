// Copyright (c) 2014-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sxwallet/sxwallet/internal/zero"
	"github.com/sxwallet/sxwallet/snacl"
	"github.com/sxwallet/sxwallet/stealth"
	"github.com/sxwallet/sxwallet/wallet"
)

// Private keys are sealed with a random crypto key, which is itself sealed
// with a key derived from the passphrase. Changing the passphrase only
// reseals the crypto key.
//
// keysMtx is always acquired before a database transaction is opened, never
// inside one.

// IsCrypted reports whether the wallet has a passphrase.
func (l *Ledger) IsCrypted() bool {
	l.keysMtx.Lock()
	defer l.keysMtx.Unlock()

	return l.masterKey != nil
}

// IsLocked reports whether the wallet is encrypted and its keys are not
// available.
func (l *Ledger) IsLocked() bool {
	l.keysMtx.Lock()
	defer l.keysMtx.Unlock()

	return l.isLocked()
}

func (l *Ledger) isLocked() bool {
	return l.masterKey != nil && l.cryptoKey == nil
}

// Lock forgets the crypto key.
func (l *Ledger) Lock() error {
	l.keysMtx.Lock()
	if l.masterKey == nil {
		l.keysMtx.Unlock()
		return ErrNotEncrypted
	}

	wasUnlocked := l.cryptoKey != nil
	if wasUnlocked {
		l.cryptoKey.Zero()
		l.cryptoKey = nil
	}
	l.keysMtx.Unlock()

	if wasUnlocked {
		log.Info("Wallet locked")
		l.notify(func(n wallet.LedgerListener) {
			n.NotifyStatusChanged()
		})
	}

	return nil
}

// Unlock derives the passphrase key and opens the crypto key with it.
// Unlocking an unlocked wallet only checks the passphrase.
func (l *Ledger) Unlock(passphrase []byte) error {
	l.keysMtx.Lock()
	if l.masterKey == nil {
		l.keysMtx.Unlock()
		return ErrNotEncrypted
	}

	wasLocked := l.cryptoKey == nil
	cryptoKey, err := l.openCryptoKey(passphrase)
	switch {
	case err != nil:
		l.keysMtx.Unlock()
		return err

	case wasLocked:
		l.cryptoKey = cryptoKey

	default:
		cryptoKey.Zero()
	}
	l.keysMtx.Unlock()

	if wasLocked {
		log.Info("Wallet unlocked")
		l.notify(func(n wallet.LedgerListener) {
			n.NotifyStatusChanged()
		})
	}

	return nil
}

// openCryptoKey checks the passphrase and returns the opened crypto key.
// The caller must hold keysMtx.
func (l *Ledger) openCryptoKey(passphrase []byte) (*snacl.CryptoKey, error) {
	defer l.masterKey.Zero()

	if err := l.masterKey.DeriveKey(&passphrase); err != nil {
		if errors.Is(err, snacl.ErrInvalidPassword) {
			return nil, ErrWrongPassphrase
		}
		return nil, err
	}

	var sealed []byte
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		v := tx.ReadBucket(keysNamespaceKey).Get(cryptoKeyKey)
		if v == nil {
			return fmt.Errorf("%w: missing crypto key",
				ErrCorruptRecord)
		}
		sealed = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	opened, err := l.masterKey.Decrypt(sealed)
	if err != nil {
		return nil, err
	}
	defer zero.Bytes(opened)

	if len(opened) != snacl.KeySize {
		return nil, fmt.Errorf("%w: crypto key length %d",
			ErrCorruptRecord, len(opened))
	}

	var cryptoKey snacl.CryptoKey
	copy(cryptoKey[:], opened)

	return &cryptoKey, nil
}

// EncryptWallet seals every private key under the passphrase. The wallet is
// locked afterwards.
func (l *Ledger) EncryptWallet(passphrase []byte) error {
	l.keysMtx.Lock()
	if l.masterKey != nil {
		l.keysMtx.Unlock()
		return ErrAlreadyEncrypted
	}

	masterKey, err := snacl.NewSecretKey(
		&passphrase, l.cfg.ScryptN, l.cfg.ScryptR, l.cfg.ScryptP,
	)
	if err != nil {
		l.keysMtx.Unlock()
		return err
	}

	cryptoKey, err := snacl.GenerateCryptoKey()
	if err != nil {
		masterKey.Zero()
		l.keysMtx.Unlock()
		return err
	}
	defer cryptoKey.Zero()

	sealedKey, err := masterKey.Encrypt(cryptoKey[:])
	masterKey.Zero()
	if err != nil {
		l.keysMtx.Unlock()
		return err
	}

	var numKeys int
	err = walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(keysNamespaceKey)
		err := ns.Put(masterKeyParamsKey, masterKey.Marshal())
		if err != nil {
			return err
		}
		if err := ns.Put(cryptoKeyKey, sealedKey); err != nil {
			return err
		}

		numKeys, err = sealKeys(ns, cryptoKey)
		return err
	})
	if err != nil {
		l.keysMtx.Unlock()
		return fmt.Errorf("unable to encrypt wallet: %w", err)
	}

	l.masterKey = masterKey

	// Reserved change keys were generated in the clear.
	clear(l.reservedChange)
	l.keysMtx.Unlock()

	log.Infof("Encrypted %d private %s", numKeys,
		pickNoun(numKeys, "key", "keys"))

	l.notify(func(n wallet.LedgerListener) {
		n.NotifyStatusChanged()
	})

	return nil
}

// sealKeys replaces every plaintext private key with its sealed form.
func sealKeys(ns walletdb.ReadWriteBucket,
	cryptoKey *snacl.CryptoKey) (int, error) {

	addrs := ns.NestedReadWriteBucket(addrsBucketKey)
	records := make(map[string]*keyRecord)
	err := addrs.ForEach(func(k, v []byte) error {
		r, err := deserializeKeyRecord(v)
		if err != nil {
			return err
		}
		if r.kind == keyKindSpendable {
			records[string(k)] = r
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for addr, r := range records {
		sealed, err := cryptoKey.Encrypt(r.privKey)
		zero.Bytes(r.privKey)
		if err != nil {
			return 0, err
		}
		r.privKey = sealed

		if err := putKeyRecord(ns, addr, r); err != nil {
			return 0, err
		}
	}

	stealthBucket := ns.NestedReadWriteBucket(stealthBucketKey)
	stealthRecords := make(map[string]*stealthRecord)
	err = stealthBucket.ForEach(func(k, v []byte) error {
		r, err := deserializeStealthRecord(v)
		if err != nil {
			return err
		}
		stealthRecords[string(k)] = r
		return nil
	})
	if err != nil {
		return 0, err
	}

	for addr, r := range stealthRecords {
		sealed, err := cryptoKey.Encrypt(r.spendKey)
		zero.Bytes(r.spendKey)
		if err != nil {
			return 0, err
		}
		r.spendKey = sealed

		if err := putStealthRecord(ns, addr, r); err != nil {
			return 0, err
		}
	}

	return len(records) + len(stealthRecords), nil
}

// ChangePassphrase reseals the crypto key under a new passphrase.
func (l *Ledger) ChangePassphrase(oldPass, newPass []byte) error {
	l.keysMtx.Lock()
	defer l.keysMtx.Unlock()

	if l.masterKey == nil {
		return ErrNotEncrypted
	}

	cryptoKey, err := l.openCryptoKey(oldPass)
	if err != nil {
		return err
	}
	defer cryptoKey.Zero()

	masterKey, err := snacl.NewSecretKey(
		&newPass, l.cfg.ScryptN, l.cfg.ScryptR, l.cfg.ScryptP,
	)
	if err != nil {
		return err
	}
	defer masterKey.Zero()

	sealedKey, err := masterKey.Encrypt(cryptoKey[:])
	if err != nil {
		return err
	}

	err = walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(keysNamespaceKey)
		err := ns.Put(masterKeyParamsKey, masterKey.Marshal())
		if err != nil {
			return err
		}
		return ns.Put(cryptoKeyKey, sealedKey)
	})
	if err != nil {
		return fmt.Errorf("unable to change passphrase: %w", err)
	}

	l.masterKey = masterKey
	log.Info("Wallet passphrase changed")

	return nil
}

// sealSecret prepares a new private key for storage. The caller must hold
// keysMtx.
func (l *Ledger) sealSecret(secret []byte) ([]byte, error) {
	switch {
	case l.masterKey == nil:
		return append([]byte(nil), secret...), nil

	case l.cryptoKey == nil:
		return nil, ErrLocked
	}

	return l.cryptoKey.Encrypt(secret)
}

// openSecret returns the plaintext of a stored private key. The caller must
// hold keysMtx and zero the result.
func (l *Ledger) openSecret(stored []byte) ([]byte, error) {
	switch {
	case l.masterKey == nil:
		return append([]byte(nil), stored...), nil

	case l.cryptoKey == nil:
		return nil, ErrLocked
	}

	return l.cryptoKey.Decrypt(stored)
}

// generateKey returns a fresh P2PKH key and its record without storing it.
// The caller must hold keysMtx.
func (l *Ledger) generateKey(change bool) (*btcutil.AddressPubKeyHash,
	*keyRecord, error) {

	privKey, err := secp256k1.GeneratePrivateKeyFromRand(l.cfg.Rand)
	if err != nil {
		return nil, nil, err
	}
	defer privKey.Zero()

	secret := privKey.Serialize()
	defer zero.Bytes(secret)

	sealed, err := l.sealSecret(secret)
	if err != nil {
		return nil, nil, err
	}

	pubKey := privKey.PubKey().SerializeCompressed()
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pubKey), l.params.Params,
	)
	if err != nil {
		return nil, nil, err
	}

	return addr, &keyRecord{
		kind:    keyKindSpendable,
		pubKey:  pubKey,
		privKey: sealed,
		change:  change,
	}, nil
}

// newKey stores a fresh P2PKH key. The caller must hold keysMtx.
func (l *Ledger) newKey(ns walletdb.ReadWriteBucket,
	change bool) (*btcutil.AddressPubKeyHash, error) {

	addr, r, err := l.generateKey(change)
	if err != nil {
		return nil, err
	}
	if err := putKeyRecord(ns, addr.EncodeAddress(), r); err != nil {
		return nil, err
	}

	return addr, nil
}

// NewAddress returns a new receiving address and labels it in the address
// book.
func (l *Ledger) NewAddress(label string) (btcutil.Address, error) {
	l.locks.Lock()
	defer l.locks.Unlock()

	l.keysMtx.Lock()
	var (
		addr  btcutil.Address
		entry wallet.AddressBookEntry
	)
	err := walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		a, err := l.newKey(tx.ReadWriteBucket(keysNamespaceKey), false)
		if err != nil {
			return err
		}
		addr = a

		entry = wallet.AddressBookEntry{
			Address: a.EncodeAddress(),
			Label:   label,
			Kind:    wallet.KindStandard,
			IsMine:  true,
		}
		return putAddressBookEntry(
			tx.ReadWriteBucket(addrBookNamespaceKey), &entry,
		)
	})
	l.keysMtx.Unlock()
	if err != nil {
		return nil, err
	}

	log.Debugf("New address %v", addr)
	l.notify(func(n wallet.LedgerListener) {
		n.NotifyAddressBookChanged(entry, wallet.ChangeNew)
	})

	return addr, nil
}

// NewStealthAddress returns a new stealth address and labels it in the
// address book.
func (l *Ledger) NewStealthAddress(label string) (string, error) {
	scanKey, err := secp256k1.GeneratePrivateKeyFromRand(l.cfg.Rand)
	if err != nil {
		return "", err
	}
	defer scanKey.Zero()

	spendKey, err := secp256k1.GeneratePrivateKeyFromRand(l.cfg.Rand)
	if err != nil {
		return "", err
	}
	defer spendKey.Zero()

	addr := stealth.NewAddress(scanKey.PubKey(), spendKey.PubKey())
	encoded := addr.Encode(l.params.StealthAddressID)

	l.locks.Lock()
	defer l.locks.Unlock()

	l.keysMtx.Lock()
	spendSecret := spendKey.Serialize()
	sealed, err := l.sealSecret(spendSecret)
	zero.Bytes(spendSecret)
	if err != nil {
		l.keysMtx.Unlock()
		return "", err
	}

	r := &stealthRecord{
		spendPubKey: spendKey.PubKey().SerializeCompressed(),
		spendKey:    sealed,
	}
	scanKey.Key.PutBytes(&r.scanKey)

	entry := wallet.AddressBookEntry{
		Address: encoded,
		Label:   label,
		Kind:    wallet.KindStealth,
		IsMine:  true,
	}
	err = walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		err := putStealthRecord(
			tx.ReadWriteBucket(keysNamespaceKey), encoded, r,
		)
		if err != nil {
			return err
		}
		return putAddressBookEntry(
			tx.ReadWriteBucket(addrBookNamespaceKey), &entry,
		)
	})
	l.keysMtx.Unlock()
	if err != nil {
		return "", err
	}

	log.Debugf("New stealth address %s", encoded)
	l.notify(func(n wallet.LedgerListener) {
		n.NotifyAddressBookChanged(entry, wallet.ChangeNew)
	})

	return encoded, nil
}

// ImportWatchOnly adds an address whose outputs are tracked without a key.
func (l *Ledger) ImportWatchOnly(addr btcutil.Address) error {
	if !addr.IsForNet(l.params.Params) {
		return wallet.ErrWrongNetwork
	}
	encoded := addr.EncodeAddress()

	l.locks.Lock()
	defer l.locks.Unlock()

	err := walletdb.Update(l.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(keysNamespaceKey)
		existing, err := fetchKeyRecord(ns, encoded)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("address %s already in wallet",
				encoded)
		}

		err = putKeyRecord(ns, encoded, &keyRecord{
			kind: keyKindWatchOnly,
		})
		if err != nil {
			return err
		}

		return tx.ReadWriteBucket(metaNamespaceKey).Put(
			watchOnlyKey, []byte{1},
		)
	})
	if err != nil {
		return err
	}

	log.Infof("Imported watch-only address %s", encoded)

	if !l.haveWatchOnly {
		l.haveWatchOnly = true
		l.notify(func(n wallet.LedgerListener) {
			n.NotifyWatchOnlyChanged(true)
		})
	}

	return nil
}

// privKey returns the private key of an address of the wallet.
func (l *Ledger) privKey(addr btcutil.Address) (*btcec.PrivateKey, error) {
	l.keysMtx.Lock()
	defer l.keysMtx.Unlock()

	if l.isLocked() {
		return nil, ErrLocked
	}

	var key *btcec.PrivateKey
	err := walletdb.View(l.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(keysNamespaceKey)
		r, err := fetchKeyRecord(ns, addr.EncodeAddress())
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("%w: %v", ErrUnknownAddress, addr)
		}

		switch r.kind {
		case keyKindSpendable:
			secret, err := l.openSecret(r.privKey)
			if err != nil {
				return err
			}
			key = secp256k1.PrivKeyFromBytes(secret)
			zero.Bytes(secret)
			return nil

		case keyKindStealth:
			key, err = l.stealthPrivKey(ns, r)
			return err

		default:
			return fmt.Errorf("%w: %v is watch-only",
				ErrUnknownAddress, addr)
		}
	})
	if err != nil {
		return nil, err
	}

	return key, nil
}

// stealthPrivKey derives the key of a received stealth payment from the
// spend key of the stealth address it was sent to.
func (l *Ledger) stealthPrivKey(ns walletdb.ReadBucket,
	r *keyRecord) (*btcec.PrivateKey, error) {

	sr, err := fetchStealthRecord(ns, string(r.stealthAddr))
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, fmt.Errorf("%w: stealth address %s",
			ErrUnknownAddress, r.stealthAddr)
	}

	secret, err := l.openSecret(sr.spendKey)
	if err != nil {
		return nil, err
	}
	spendKey := secp256k1.PrivKeyFromBytes(secret)
	zero.Bytes(secret)
	defer spendKey.Zero()

	return stealth.OneTimePrivKey(spendKey, r.tweak)
}

// secretSource is an implementation of txauthor.SecretsSource for the
// ledger's key store.
type secretSource struct {
	*Ledger
}

func (s secretSource) GetKey(addr btcutil.Address) (*btcec.PrivateKey,
	bool, error) {

	key, err := s.privKey(addr)
	if err != nil {
		return nil, false, err
	}

	return key, true, nil
}

func (s secretSource) GetScript(addr btcutil.Address) ([]byte, error) {
	return nil, fmt.Errorf("no redeem script for %v", addr)
}

func (s secretSource) ChainParams() *chaincfg.Params {
	return s.params.Params
}

func fetchKeyRecord(keysNs walletdb.ReadBucket,
	addr string) (*keyRecord, error) {

	v := keysNs.NestedReadBucket(addrsBucketKey).Get([]byte(addr))
	if v == nil {
		return nil, nil
	}

	return deserializeKeyRecord(v)
}

func putKeyRecord(keysNs walletdb.ReadWriteBucket, addr string,
	r *keyRecord) error {

	v, err := serializeKeyRecord(r)
	if err != nil {
		return err
	}

	return keysNs.NestedReadWriteBucket(addrsBucketKey).Put([]byte(addr), v)
}

func fetchStealthRecord(keysNs walletdb.ReadBucket,
	addr string) (*stealthRecord, error) {

	v := keysNs.NestedReadBucket(stealthBucketKey).Get([]byte(addr))
	if v == nil {
		return nil, nil
	}

	return deserializeStealthRecord(v)
}

func putStealthRecord(keysNs walletdb.ReadWriteBucket, addr string,
	r *stealthRecord) error {

	v, err := serializeStealthRecord(r)
	if err != nil {
		return err
	}

	return keysNs.NestedReadWriteBucket(stealthBucketKey).Put(
		[]byte(addr), v,
	)
}

// ownedStealthAddress is a stealth address of the wallet loaded for
// scanning.
type ownedStealthAddress struct {
	encoded  string
	scanKey  *secp256k1.PrivateKey
	spendPub *secp256k1.PublicKey
}

// stealthAddresses loads the scan keys of every stealth address. Callers
// must zero the scan keys.
func stealthAddresses(keysNs walletdb.ReadBucket) ([]ownedStealthAddress,
	error) {

	var owned []ownedStealthAddress
	err := keysNs.NestedReadBucket(stealthBucketKey).ForEach(
		func(k, v []byte) error {
			r, err := deserializeStealthRecord(v)
			if err != nil {
				return err
			}

			spendPub, err := secp256k1.ParsePubKey(r.spendPubKey)
			if err != nil {
				return fmt.Errorf("%w: stealth spend key: %v",
					ErrCorruptRecord, err)
			}

			owned = append(owned, ownedStealthAddress{
				encoded:  string(k),
				scanKey:  secp256k1.PrivKeyFromBytes(r.scanKey[:]),
				spendPub: spendPub,
			})
			return nil
		},
	)

	return owned, err
}
