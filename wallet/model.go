// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet builds and sends payments, including stealth payments with
// encrypted narrations, on top of a ledger, and keeps a cached view of the
// ledger's balances and lock state that observers are notified about.
package wallet

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/sxwallet/sxwallet/netparams"
)

const (
	// DefaultPollInterval is how often the model checks the ledger for a
	// new block.
	DefaultPollInterval = 250 * time.Millisecond

	// notificationQueueSize is the buffer of the ledger notification
	// queue before it overflows into the unbounded backlog.
	notificationQueueSize = 50
)

// Config holds the collaborators of a Model.
type Config struct {
	// Ledger is the wallet state the model operates on.
	Ledger Ledger

	// ChainParams are the parameters of the active network.
	ChainParams *netparams.Params

	// Fees is the fee policy of sends.
	Fees FeePolicy

	// FeeConfirmer is asked to accept the fee of every send. If nil all
	// fees are accepted.
	FeeConfirmer FeeConfirmer

	// UnlockPrompt is asked for the passphrase when an unlock is
	// requested on a locked wallet.
	UnlockPrompt UnlockPrompt

	// UnlockStakingOnly marks an unlocked wallet as unlocked for staking
	// only at startup.
	UnlockStakingOnly bool

	// PollTicker drives the balance poll. If nil a ticker with
	// DefaultPollInterval is used.
	PollTicker ticker.Ticker

	// Rand is the randomness source of stealth ephemeral keys. If nil
	// crypto/rand is used.
	Rand io.Reader
}

// snapshot is the cached view of the ledger. It is written only by the
// model's event goroutine.
type snapshot struct {
	balances         Balances
	numBlocks        int32
	numTransactions  int
	encryptionStatus EncryptionStatus
	haveWatchOnly    bool
}

// ledgerEvent is a ledger notification queued for the event goroutine.
type ledgerEvent interface {
	isLedgerEvent()
}

type txChanged struct {
	hash   chainhash.Hash
	change ChangeType
}

type addressBookChanged struct {
	entry  AddressBookEntry
	change ChangeType
}

type statusChanged struct{}

type watchOnlyChanged struct {
	haveWatchOnly bool
}

func (txChanged) isLedgerEvent()          {}
func (addressBookChanged) isLedgerEvent() {}
func (statusChanged) isLedgerEvent()      {}
func (watchOnlyChanged) isLedgerEvent()   {}

// Model is the wallet facade: it sends coins, answers balance and coin
// control queries, manages the lock state and publishes changes of the
// ledger to subscribers. It must be registered as the ledger's listener.
type Model struct {
	*BalanceAccessor
	*LockManager

	cfg  Config
	rand io.Reader

	notifications *fn.ConcurrentQueue[ledgerEvent]
	notifier      *notifier

	cacheMtx sync.RWMutex
	cache    snapshot

	// refreshPending is set when a ledger notification could not be
	// handled because the ledger was busy. Only the event goroutine
	// touches it.
	refreshPending bool

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}
	wg        sync.WaitGroup
	quit      chan struct{}
}

// A compile time check to ensure that Model implements the LedgerListener
// interface.
var _ LedgerListener = (*Model)(nil)

// New returns a model over the configured ledger. Notifications sent to it
// are queued until Start is called.
func New(cfg Config) (*Model, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if cfg.ChainParams == nil {
		return nil, errors.New("chain parameters are required")
	}
	if cfg.Fees.FeeRate == 0 {
		cfg.Fees.FeeRate = cfg.ChainParams.DefaultPayTxFee
	}
	if cfg.PollTicker == nil {
		cfg.PollTicker = ticker.New(DefaultPollInterval)
	}

	m := &Model{
		BalanceAccessor: NewBalanceAccessor(cfg.Ledger),
		cfg:             cfg,
		rand:            cfg.Rand,
		started:         make(chan struct{}),
		quit:            make(chan struct{}),
	}
	if m.rand == nil {
		m.rand = rand.Reader
	}

	m.notifier = newNotifier(m.quit)
	m.LockManager = NewLockManager(
		cfg.Ledger, cfg.UnlockPrompt, m.notifier.publish,
	)
	m.LockManager.SetUnlockStakingOnly(cfg.UnlockStakingOnly)

	m.notifications = fn.NewConcurrentQueue[ledgerEvent](
		notificationQueueSize,
	)
	m.notifications.Start()

	return m, nil
}

// Start loads the initial snapshot and launches the event goroutine.
func (m *Model) Start() error {
	var err error
	m.startOnce.Do(func() {
		err = m.loadSnapshot()
		if err != nil {
			return
		}

		m.cfg.PollTicker.Resume()

		m.wg.Add(1)
		go m.eventHandler()

		close(m.started)
		log.Infof("Wallet model started at height %d",
			m.cache.numBlocks)
	})

	return err
}

// Stop shuts down the event goroutine and all subscriptions.
func (m *Model) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()

		m.cfg.PollTicker.Stop()
		m.notifications.Stop()
		m.notifier.stop()

		log.Infof("Wallet model stopped")
	})
}

// Subscribe registers an observer of model events.
func (m *Model) Subscribe() *Subscription {
	return m.notifier.subscribe()
}

// CachedBalances returns the balances of the last refresh.
func (m *Model) CachedBalances() Balances {
	m.cacheMtx.RLock()
	defer m.cacheMtx.RUnlock()

	return m.cache.balances
}

// CachedNumTransactions returns the transaction count of the last
// refresh.
func (m *Model) CachedNumTransactions() int {
	m.cacheMtx.RLock()
	defer m.cacheMtx.RUnlock()

	return m.cache.numTransactions
}

// CachedNumBlocks returns the block height of the last refresh.
func (m *Model) CachedNumBlocks() int32 {
	m.cacheMtx.RLock()
	defer m.cacheMtx.RUnlock()

	return m.cache.numBlocks
}

// CachedEncryptionStatus returns the lock state as last observed.
func (m *Model) CachedEncryptionStatus() EncryptionStatus {
	m.cacheMtx.RLock()
	defer m.cacheMtx.RUnlock()

	return m.cache.encryptionStatus
}

// NotifyTransactionChanged queues a transaction notification.
func (m *Model) NotifyTransactionChanged(hash chainhash.Hash,
	change ChangeType) {

	m.enqueue(txChanged{hash: hash, change: change})
}

// NotifyAddressBookChanged queues an address book notification.
func (m *Model) NotifyAddressBookChanged(entry AddressBookEntry,
	change ChangeType) {

	m.enqueue(addressBookChanged{entry: entry, change: change})
}

// NotifyStatusChanged queues a key store status notification.
func (m *Model) NotifyStatusChanged() {
	m.enqueue(statusChanged{})
}

// NotifyWatchOnlyChanged queues a watch-only notification.
func (m *Model) NotifyWatchOnlyChanged(haveWatchOnly bool) {
	m.enqueue(watchOnlyChanged{haveWatchOnly: haveWatchOnly})
}

func (m *Model) enqueue(e ledgerEvent) {
	select {
	case m.notifications.ChanIn() <- e:
	case <-m.quit:
	}
}

// loadSnapshot fills the cache, blocking on the ledger locks.
func (m *Model) loadSnapshot() error {
	ledger := m.cfg.Ledger
	status := m.EncryptionStatus()

	locks := ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	balances, err := readBalances(ledger)
	if err != nil {
		return err
	}
	numTxs, err := ledger.NumTransactions()
	if err != nil {
		return err
	}

	m.cacheMtx.Lock()
	m.cache = snapshot{
		balances:         balances,
		numBlocks:        ledger.BestHeight(),
		numTransactions:  numTxs,
		encryptionStatus: status,
		haveWatchOnly:    ledger.HaveWatchOnly(),
	}
	m.cacheMtx.Unlock()

	return nil
}

// eventHandler is the only writer of the snapshot. It polls for new blocks
// on every tick and handles queued ledger notifications.
//
// NOTE: This MUST be run as a goroutine.
func (m *Model) eventHandler() {
	defer m.wg.Done()

	for {
		select {
		case <-m.cfg.PollTicker.Ticks():
			m.pollBalanceChanged()

		case e := <-m.notifications.ChanOut():
			m.handleLedgerEvent(e)

		case <-m.quit:
			return
		}
	}
}

// pollBalanceChanged refreshes the snapshot if a block was connected since
// the last refresh, or a refresh is pending. It never waits for the ledger:
// if either lock is held elsewhere the tick is skipped.
func (m *Model) pollBalanceChanged() {
	locks := m.cfg.Ledger.Locks()
	if !locks.TryRLock() {
		return
	}
	defer locks.RUnlock()

	height := m.cfg.Ledger.BestHeight()
	if height == m.CachedNumBlocks() && !m.refreshPending {
		return
	}

	m.refresh(height)
}

// refresh re-reads balances and the transaction count and publishes the
// differences. The caller must hold the ledger read locks.
func (m *Model) refresh(height int32) {
	ledger := m.cfg.Ledger

	balances, err := readBalances(ledger)
	if err != nil {
		log.Errorf("Unable to read balances: %v", err)
		return
	}
	numTxs, err := ledger.NumTransactions()
	if err != nil {
		log.Errorf("Unable to count transactions: %v", err)
		return
	}
	m.refreshPending = false

	m.cacheMtx.Lock()
	balancesChanged := balances != m.cache.balances
	numTxsChanged := numTxs != m.cache.numTransactions
	m.cache.balances = balances
	m.cache.numTransactions = numTxs
	m.cache.numBlocks = height
	m.cacheMtx.Unlock()

	if balancesChanged {
		log.Debugf("Balances changed at height %d: %v", height,
			balances)
		m.notifier.publish(BalanceChanged{Balances: balances})
	}
	if numTxsChanged {
		m.notifier.publish(NumTransactionsChanged{Count: numTxs})
	}
}

// tryRefresh refreshes the snapshot now if the ledger is free, and marks a
// refresh pending for the next tick otherwise.
func (m *Model) tryRefresh() {
	locks := m.cfg.Ledger.Locks()
	if !locks.TryRLock() {
		m.refreshPending = true
		return
	}
	defer locks.RUnlock()

	m.refresh(m.cfg.Ledger.BestHeight())
}

func (m *Model) handleLedgerEvent(e ledgerEvent) {
	switch e := e.(type) {
	case txChanged:
		m.notifier.publish(TransactionChanged{
			Hash:   e.hash,
			Change: e.change,
		})
		m.tryRefresh()

	case addressBookChanged:
		m.notifier.publish(AddressBookChanged{
			Entry:  e.entry,
			Change: e.change,
		})

	case statusChanged:
		m.updateStatus()

	case watchOnlyChanged:
		m.cacheMtx.Lock()
		m.cache.haveWatchOnly = e.haveWatchOnly
		m.cacheMtx.Unlock()

		m.notifier.publish(WatchOnlyChanged{
			HaveWatchOnly: e.haveWatchOnly,
		})
		m.tryRefresh()
	}
}

// updateStatus publishes EncryptionStatusChanged if the lock state moved.
func (m *Model) updateStatus() {
	status := m.EncryptionStatus()

	m.cacheMtx.Lock()
	changed := status != m.cache.encryptionStatus
	m.cache.encryptionStatus = status
	m.cacheMtx.Unlock()

	if changed {
		log.Debugf("Encryption status changed to %v", status)
		m.notifier.publish(EncryptionStatusChanged{Status: status})
	}
}
