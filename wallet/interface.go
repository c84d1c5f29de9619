// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// LedgerLocks guards the ledger. Chain is always acquired before Wallet and
// both are held for any read or write of outputs, balances or the address
// book. Ledger methods other than the KeyStore ones expect the caller to
// hold them.
type LedgerLocks struct {
	Chain  sync.RWMutex
	Wallet sync.RWMutex
}

// Lock acquires both locks exclusively.
func (l *LedgerLocks) Lock() {
	l.Chain.Lock()
	l.Wallet.Lock()
}

// Unlock releases locks taken with Lock.
func (l *LedgerLocks) Unlock() {
	l.Wallet.Unlock()
	l.Chain.Unlock()
}

// RLock acquires both locks for reading.
func (l *LedgerLocks) RLock() {
	l.Chain.RLock()
	l.Wallet.RLock()
}

// RUnlock releases locks taken with RLock or TryRLock.
func (l *LedgerLocks) RUnlock() {
	l.Wallet.RUnlock()
	l.Chain.RUnlock()
}

// TryRLock acquires both locks for reading without blocking. It reports
// false, holding neither lock, if either is contended.
func (l *LedgerLocks) TryRLock() bool {
	if !l.Chain.TryRLock() {
		return false
	}
	if !l.Wallet.TryRLock() {
		l.Chain.RUnlock()
		return false
	}

	return true
}

// BalanceKind selects a bucket of the wallet's outputs.
type BalanceKind uint8

const (
	// BalanceAvailable is mature, confirmed and unlocked value.
	BalanceAvailable BalanceKind = iota

	// BalanceLocked is mature, confirmed value locked by coin control.
	BalanceLocked

	// BalanceStake is value of immature stake rewards.
	BalanceStake

	// BalanceUnconfirmed is value of outputs not yet in a block.
	BalanceUnconfirmed

	// BalanceImmature is value of immature coinbase outputs.
	BalanceImmature
)

// IsMineFilter selects outputs by how the wallet controls them.
type IsMineFilter uint8

const (
	// MineSpendable selects outputs the wallet holds keys for.
	MineSpendable IsMineFilter = iota

	// MineWatchOnly selects outputs of imported watch-only addresses.
	MineWatchOnly
)

// ChangeType describes what happened to an entity a notification is about.
type ChangeType uint8

const (
	// ChangeNew is a newly created entity.
	ChangeNew ChangeType = iota

	// ChangeUpdated is a modified entity.
	ChangeUpdated

	// ChangeDeleted is a removed entity.
	ChangeDeleted
)

// String returns the name of the change.
func (c ChangeType) String() string {
	switch c {
	case ChangeNew:
		return "new"
	case ChangeUpdated:
		return "updated"
	default:
		return "deleted"
	}
}

// SpendableOutput is an unspent output owned or watched by the wallet.
type SpendableOutput struct {
	OutPoint wire.OutPoint
	Amount   btcutil.Amount
	PkScript []byte

	// Depth is the number of confirmations, zero while unmined.
	Depth int32

	// Spendable is false for watch-only outputs.
	Spendable bool

	// Locked is set for outputs excluded from selection by coin control.
	Locked bool
}

// CoinControl restricts the outputs a transaction may spend.
type CoinControl struct {
	// Selected are the only outpoints inputs may be chosen from. An empty
	// set means no restriction.
	Selected fn.Set[wire.OutPoint]
}

// NewCoinControl returns coin control selecting the given outpoints.
func NewCoinControl(outpoints ...wire.OutPoint) *CoinControl {
	return &CoinControl{Selected: fn.NewSet(outpoints...)}
}

// HasSelected reports whether specific outputs were selected.
func (c *CoinControl) HasSelected() bool {
	return c != nil && len(c.Selected) > 0
}

// IsSelected reports whether the outpoint may be spent under the control.
func (c *CoinControl) IsSelected(op wire.OutPoint) bool {
	if !c.HasSelected() {
		return true
	}

	return c.Selected.Contains(op)
}

// FeePolicy carries the fee settings of a send.
type FeePolicy struct {
	// FeeRate is the fee paid per kilobyte of serialized transaction.
	FeeRate btcutil.Amount
}

// DraftTx is a signed transaction that has not been committed yet.
type DraftTx struct {
	Tx *wire.MsgTx

	// Fee is the fee paid by the transaction.
	Fee btcutil.Amount

	// ChangeIndex is the output index of the change output, or -1.
	ChangeIndex int

	// Narrations maps output indexes of the final transaction to their
	// narration plaintext.
	Narrations map[int]string
}

// AddressBookEntry is a labelled address.
type AddressBookEntry struct {
	Address string
	Label   string
	Kind    AddressKind

	// IsMine is set for addresses of the wallet itself.
	IsMine bool
}

// CoinStore gives access to the wallet's outputs and balances.
type CoinStore interface {
	// BestHeight returns the height of the best known block.
	BestHeight() int32

	// AvailableCoins returns unlocked spendable outputs. If onlyConfirmed
	// is set unmined outputs are skipped. Coin control, if not nil,
	// restricts the result to its selection.
	AvailableCoins(onlyConfirmed bool,
		cc *CoinControl) ([]SpendableOutput, error)

	// Balance sums the outputs of the kind selected by filter.
	Balance(kind BalanceKind, filter IsMineFilter) (btcutil.Amount, error)

	// NumTransactions returns the number of wallet transactions.
	NumTransactions() (int, error)

	// HaveWatchOnly reports whether watch-only addresses are imported.
	HaveWatchOnly() bool

	// LookupOutput returns an output by outpoint.
	LookupOutput(op wire.OutPoint) (*SpendableOutput, error)

	// ChangeOrigin returns the wallet output spent by the first input of
	// the transaction creating op, if op is change. Otherwise it returns
	// None.
	ChangeOrigin(op wire.OutPoint) (fn.Option[SpendableOutput], error)

	// LockCoin excludes an output from coin selection.
	LockCoin(op wire.OutPoint)

	// UnlockCoin makes a locked output selectable again.
	UnlockCoin(op wire.OutPoint)

	// IsLockedCoin reports whether an output is locked.
	IsLockedCoin(op wire.OutPoint) bool

	// ListLockedCoins returns every locked output.
	ListLockedCoins() []wire.OutPoint
}

// TxAuthor builds and commits transactions.
type TxAuthor interface {
	// CreateTransaction funds, signs and returns a transaction paying
	// outputs. A change output may be inserted at any position. The fee
	// the transaction requires is returned even when creation fails.
	CreateTransaction(outputs []*wire.TxOut, cc *CoinControl,
		fees FeePolicy) (*DraftTx, btcutil.Amount, error)

	// CommitTransaction records the transaction in the wallet and
	// broadcasts it.
	CommitTransaction(tx *DraftTx) error
}

// KeyStore controls the encryption of the wallet's private keys. Its
// methods synchronize internally and must not be called with the ledger
// locks held.
type KeyStore interface {
	IsCrypted() bool
	IsLocked() bool
	Lock() error
	Unlock(passphrase []byte) error
	EncryptWallet(passphrase []byte) error
	ChangePassphrase(oldPass, newPass []byte) error
}

// AddressBook stores labels for addresses.
type AddressBook interface {
	// AddressBookEntry returns the entry of an address, or None.
	AddressBookEntry(address string) (fn.Option[AddressBookEntry], error)

	// SetAddressBookEntry inserts or replaces an entry.
	SetAddressBookEntry(entry AddressBookEntry) error
}

// Ledger is the wallet state the model operates on.
type Ledger interface {
	CoinStore
	TxAuthor
	KeyStore
	AddressBook

	// Locks returns the locks guarding the ledger.
	Locks() *LedgerLocks
}

// LedgerListener receives change notifications from the ledger. Methods
// may be called with the ledger locks held and must not block.
type LedgerListener interface {
	NotifyTransactionChanged(hash chainhash.Hash, change ChangeType)
	NotifyAddressBookChanged(entry AddressBookEntry, change ChangeType)
	NotifyStatusChanged()
	NotifyWatchOnlyChanged(haveWatchOnly bool)
}

// FeeConfirmer asks the user to accept the fee of a transaction.
type FeeConfirmer interface {
	ConfirmFee(ctx context.Context, fee btcutil.Amount) (bool, error)
}

// UnlockRequest is the answer of an unlock prompt.
type UnlockRequest struct {
	Passphrase []byte

	// StakingOnly unlocks the wallet for staking only. The wallet is
	// then not relocked when the unlock context is released.
	StakingOnly bool
}

// UnlockPrompt asks the user for the passphrase of a locked wallet. A nil
// request means the user declined.
type UnlockPrompt interface {
	PromptUnlock(ctx context.Context) (*UnlockRequest, error)
}
