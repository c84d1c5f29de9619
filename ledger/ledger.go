// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger is a wallet ledger stored in a walletdb database. It keeps
// the wallet's transactions and outputs in a wtxmgr store, holds P2PKH and
// stealth keys encrypted under a passphrase, records address book entries
// and narrations, and follows a simulated chain that blocks are connected to
// locally. It implements the wallet.Ledger interface.
package ledger

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/sxwallet/sxwallet/netparams"
	"github.com/sxwallet/sxwallet/snacl"
	"github.com/sxwallet/sxwallet/wallet"
)

const (
	// WalletDBName is the file name of the ledger database inside the
	// data directory.
	WalletDBName = "wallet.db"

	// DefaultDBTimeout is how long opening the database waits for the
	// file lock.
	DefaultDBTimeout = 60 * time.Second

	dbDriver = "bdb"
)

// Namespace bucket keys.
var (
	wtxmgrNamespaceKey    = []byte("wtxmgr")
	keysNamespaceKey      = []byte("keys")
	addrBookNamespaceKey  = []byte("addrbook")
	narrationNamespaceKey = []byte("narrations")
	metaNamespaceKey      = []byte("meta")
)

// Keys inside the namespaces.
var (
	addrsBucketKey     = []byte("addrs")
	stealthBucketKey   = []byte("stealth")
	masterKeyParamsKey = []byte("mkparams")
	cryptoKeyKey       = []byte("ckenc")

	bestBlockKey    = []byte("bestblock")
	stakeBucketKey  = []byte("stake")
	watchOnlyKey    = []byte("watchonly")
	createdStampKey = []byte("created")
)

var (
	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt ledger record")

	// ErrLocked is returned when a private key is needed while the wallet
	// is locked.
	ErrLocked = errors.New("wallet is locked")

	// ErrNotEncrypted is returned when locking or unlocking a wallet that
	// has no passphrase.
	ErrNotEncrypted = errors.New("wallet is not encrypted")

	// ErrAlreadyEncrypted is returned when encrypting an encrypted wallet.
	ErrAlreadyEncrypted = errors.New("wallet is already encrypted")

	// ErrWrongPassphrase is returned when a passphrase does not match.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrOutputNotFound is returned when an outpoint is not a wallet
	// output.
	ErrOutputNotFound = errors.New("output not found")

	// ErrOutputSpent is returned when a wallet output has been spent.
	ErrOutputSpent = errors.New("output already spent")

	// ErrUnknownAddress is returned when the wallet has no key for an
	// address.
	ErrUnknownAddress = errors.New("address not found")

	// ErrInsufficientFunds is returned when the selectable outputs cannot
	// pay for a transaction.
	ErrInsufficientFunds = errors.New("insufficient funds available to " +
		"construct transaction")
)

// Config holds the settings of a Ledger.
type Config struct {
	// DBDir is the directory holding the database file.
	DBDir string

	// ChainParams are the parameters of the network the ledger follows.
	ChainParams *netparams.Params

	// DBTimeout bounds the wait for the database file lock. Zero means
	// DefaultDBTimeout.
	DBTimeout time.Duration

	// NoFreelistSync skips syncing the bolt freelist to disk.
	NoFreelistSync bool

	// CoinbaseMaturity overrides the number of confirmations coinbase
	// outputs need before they are spendable. Zero uses the value of the
	// chain parameters.
	CoinbaseMaturity uint16

	// ScryptN, ScryptR and ScryptP override the cost of the passphrase
	// key derivation. Zero values use the snacl defaults.
	ScryptN int
	ScryptR int
	ScryptP int

	// Clock timestamps blocks and transactions. If nil the system clock
	// is used.
	Clock clock.Clock

	// Rand is the randomness source of new keys and of the change
	// position. If nil crypto/rand is used.
	Rand io.Reader
}

// Ledger is a wallet.Ledger backed by a walletdb database.
type Ledger struct {
	cfg     Config
	params  *netparams.Params
	db      walletdb.DB
	txStore *wtxmgr.Store

	locks wallet.LedgerLocks

	// The fields below are guarded by locks.
	bestHeight      int32
	bestHash        chainhash.Hash
	haveWatchOnly   bool
	lockedOutpoints map[wire.OutPoint]struct{}

	keysMtx   sync.Mutex
	masterKey *snacl.SecretKey
	cryptoKey *snacl.CryptoKey

	// reservedChange holds change keys of created transactions that
	// have not been committed, by address. Guarded by keysMtx.
	reservedChange map[string]*keyRecord

	listenerMtx sync.RWMutex
	listener    wallet.LedgerListener
}

// A compile time check to ensure that Ledger implements the wallet.Ledger
// interface.
var _ wallet.Ledger = (*Ledger)(nil)

func (cfg *Config) withDefaults() (*Config, error) {
	if cfg.ChainParams == nil {
		return nil, errors.New("chain parameters are required")
	}

	c := *cfg
	if c.DBTimeout == 0 {
		c.DBTimeout = DefaultDBTimeout
	}
	if c.CoinbaseMaturity == 0 {
		c.CoinbaseMaturity = c.ChainParams.CoinbaseMaturity
	}
	if c.ScryptN == 0 {
		c.ScryptN = snacl.DefaultN
	}
	if c.ScryptR == 0 {
		c.ScryptR = snacl.DefaultR
	}
	if c.ScryptP == 0 {
		c.ScryptP = snacl.DefaultP
	}
	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}

	return &c, nil
}

// Exists reports whether a ledger database exists in dbDir.
func Exists(dbDir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dbDir, WalletDBName))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// Create creates a new ledger database in cfg.DBDir and opens it. The
// ledger starts at the genesis block of the network with no keys.
func Create(cfg Config) (*Ledger, error) {
	c, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.DBDir, 0700); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(c.DBDir, WalletDBName)
	db, err := walletdb.Create(
		dbDriver, dbPath, c.NoFreelistSync, c.DBTimeout, false,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create ledger database: %w",
			err)
	}

	genesis := *c.ChainParams.GenesisHash
	err = walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		txmgrNs, err := tx.CreateTopLevelBucket(wtxmgrNamespaceKey)
		if err != nil {
			return err
		}
		if err := wtxmgr.Create(txmgrNs); err != nil {
			return err
		}

		keysNs, err := tx.CreateTopLevelBucket(keysNamespaceKey)
		if err != nil {
			return err
		}
		if _, err := keysNs.CreateBucket(addrsBucketKey); err != nil {
			return err
		}
		if _, err := keysNs.CreateBucket(stealthBucketKey); err != nil {
			return err
		}

		_, err = tx.CreateTopLevelBucket(addrBookNamespaceKey)
		if err != nil {
			return err
		}
		_, err = tx.CreateTopLevelBucket(narrationNamespaceKey)
		if err != nil {
			return err
		}

		metaNs, err := tx.CreateTopLevelBucket(metaNamespaceKey)
		if err != nil {
			return err
		}
		if _, err := metaNs.CreateBucket(stakeBucketKey); err != nil {
			return err
		}

		var stamp [8]byte
		binary.BigEndian.PutUint64(
			stamp[:], uint64(c.Clock.Now().Unix()),
		)
		if err := metaNs.Put(createdStampKey, stamp[:]); err != nil {
			return err
		}

		return putBestBlock(metaNs, 0, genesis)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to initialize ledger: %w", err)
	}

	log.Infof("Created ledger database %s", dbPath)

	return open(c, db)
}

// Open opens the ledger database in cfg.DBDir.
func Open(cfg Config) (*Ledger, error) {
	c, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(c.DBDir, WalletDBName)
	db, err := walletdb.Open(
		dbDriver, dbPath, c.NoFreelistSync, c.DBTimeout, false,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to open ledger database: %w", err)
	}

	return open(c, db)
}

func open(c *Config, db walletdb.DB) (*Ledger, error) {
	l := &Ledger{
		cfg:             *c,
		params:          c.ChainParams,
		db:              db,
		lockedOutpoints: make(map[wire.OutPoint]struct{}),
		reservedChange:  make(map[string]*keyRecord),
	}

	err := walletdb.View(db, func(tx walletdb.ReadTx) error {
		var err error
		l.txStore, err = wtxmgr.Open(
			tx.ReadBucket(wtxmgrNamespaceKey), c.ChainParams.Params,
		)
		if err != nil {
			return err
		}

		metaNs := tx.ReadBucket(metaNamespaceKey)
		l.bestHeight, l.bestHash, err = fetchBestBlock(metaNs)
		if err != nil {
			return err
		}
		l.haveWatchOnly = metaNs.Get(watchOnlyKey) != nil

		params := tx.ReadBucket(keysNamespaceKey).Get(masterKeyParamsKey)
		if params == nil {
			return nil
		}

		var mk snacl.SecretKey
		if err := mk.Unmarshal(params); err != nil {
			return fmt.Errorf("%w: master key parameters: %v",
				ErrCorruptRecord, err)
		}
		l.masterKey = &mk

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("Opened ledger at height %d (%v), encrypted=%v",
		l.bestHeight, l.bestHash, l.masterKey != nil)

	return l, nil
}

// Close locks the wallet and closes the database.
func (l *Ledger) Close() error {
	l.keysMtx.Lock()
	if l.cryptoKey != nil {
		l.cryptoKey.Zero()
		l.cryptoKey = nil
	}
	if l.masterKey != nil {
		l.masterKey.Zero()
	}
	l.keysMtx.Unlock()

	return l.db.Close()
}

// Locks returns the locks guarding the ledger.
func (l *Ledger) Locks() *wallet.LedgerLocks {
	return &l.locks
}

// RegisterListener sets the receiver of change notifications.
func (l *Ledger) RegisterListener(listener wallet.LedgerListener) {
	l.listenerMtx.Lock()
	l.listener = listener
	l.listenerMtx.Unlock()
}

func (l *Ledger) notify(f func(wallet.LedgerListener)) {
	l.listenerMtx.RLock()
	listener := l.listener
	l.listenerMtx.RUnlock()

	if listener != nil {
		f(listener)
	}
}

// BestHeight returns the height of the best block.
func (l *Ledger) BestHeight() int32 {
	return l.bestHeight
}

// BestBlock returns the height and hash of the best block. It takes the
// ledger locks.
func (l *Ledger) BestBlock() (int32, chainhash.Hash) {
	l.locks.RLock()
	defer l.locks.RUnlock()

	return l.bestHeight, l.bestHash
}

// ChainParams returns the parameters of the ledger's network.
func (l *Ledger) ChainParams() *netparams.Params {
	return l.params
}

func putBestBlock(ns walletdb.ReadWriteBucket, height int32,
	hash chainhash.Hash) error {

	v := make([]byte, 4+chainhash.HashSize)
	binary.BigEndian.PutUint32(v, uint32(height))
	copy(v[4:], hash[:])

	return ns.Put(bestBlockKey, v)
}

func fetchBestBlock(ns walletdb.ReadBucket) (int32, chainhash.Hash, error) {
	var hash chainhash.Hash

	v := ns.Get(bestBlockKey)
	if len(v) != 4+chainhash.HashSize {
		return 0, hash, fmt.Errorf("%w: best block", ErrCorruptRecord)
	}
	copy(hash[:], v[4:])

	return int32(binary.BigEndian.Uint32(v)), hash, nil
}
