// Copyright (c) 2015-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
	"path/filepath"

	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
)

// DropTransactionHistory removes and re-creates the transaction store of the
// ledger database in cfg.DBDir and rewinds the chain to the genesis block.
// Keys, discovered stealth keys and the address book are kept. Narrations
// are dropped unless keepNarrations is set. The ledger must not be open.
func DropTransactionHistory(cfg Config, keepNarrations bool) error {
	c, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	dbPath := filepath.Join(c.DBDir, WalletDBName)
	db, err := walletdb.Open(
		dbDriver, dbPath, c.NoFreelistSync, c.DBTimeout, false,
	)
	if err != nil {
		return fmt.Errorf("unable to open ledger database: %w", err)
	}
	defer db.Close()

	log.Infof("Dropping transaction history of %s", dbPath)

	err = walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		err := tx.DeleteTopLevelBucket(wtxmgrNamespaceKey)
		if err != nil && err != walletdb.ErrBucketNotFound {
			return err
		}
		ns, err := tx.CreateTopLevelBucket(wtxmgrNamespaceKey)
		if err != nil {
			return err
		}
		if err := wtxmgr.Create(ns); err != nil {
			return err
		}

		if !keepNarrations {
			err := tx.DeleteTopLevelBucket(narrationNamespaceKey)
			if err != nil && err != walletdb.ErrBucketNotFound {
				return err
			}
			_, err = tx.CreateTopLevelBucket(narrationNamespaceKey)
			if err != nil {
				return err
			}
		}

		// Stake rewards are only known from connected blocks.
		metaNs := tx.ReadWriteBucket(metaNamespaceKey)
		err = metaNs.DeleteNestedBucket(stakeBucketKey)
		if err != nil && err != walletdb.ErrBucketNotFound {
			return err
		}
		if _, err := metaNs.CreateBucket(stakeBucketKey); err != nil {
			return err
		}

		return putBestBlock(metaNs, 0, *c.ChainParams.GenesisHash)
	})
	if err != nil {
		return fmt.Errorf("failed to drop and re-create namespace: %w",
			err)
	}

	return nil
}
