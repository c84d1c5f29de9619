// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sxwallet/sxwallet/internal/zero"
)

// ErrDecryptUnsupported is returned when asked to remove the encryption of
// a wallet.
var ErrDecryptUnsupported = errors.New("wallet decryption is not supported")

// EncryptionStatus is the lock state of the key store.
type EncryptionStatus uint8

const (
	// Unencrypted means private keys are stored in the clear.
	Unencrypted EncryptionStatus = iota

	// Locked means private keys are encrypted and unavailable.
	Locked

	// Unlocked means private keys are encrypted but currently usable.
	Unlocked
)

// String returns the name of the status.
func (s EncryptionStatus) String() string {
	switch s {
	case Unencrypted:
		return "unencrypted"
	case Locked:
		return "locked"
	default:
		return "unlocked"
	}
}

// LockManager drives the encryption and lock state of the key store and
// hands out unlock contexts to operations needing private keys.
type LockManager struct {
	keys   KeyStore
	prompt UnlockPrompt
	notify func(Event)

	// stakingOnly is set while the wallet is unlocked for staking only.
	stakingOnly atomic.Bool
}

// NewLockManager returns a lock manager for the key store. The prompt is
// asked for the passphrase when an unlock is requested on a locked wallet.
// notify, if not nil, receives UnlockRequired before the prompt runs.
func NewLockManager(keys KeyStore, prompt UnlockPrompt,
	notify func(Event)) *LockManager {

	if notify == nil {
		notify = func(Event) {}
	}

	return &LockManager{
		keys:   keys,
		prompt: prompt,
		notify: notify,
	}
}

// EncryptionStatus reads the current state from the key store.
func (l *LockManager) EncryptionStatus() EncryptionStatus {
	switch {
	case !l.keys.IsCrypted():
		return Unencrypted
	case l.keys.IsLocked():
		return Locked
	default:
		return Unlocked
	}
}

// SetUnlockStakingOnly sets whether an unlocked wallet is only unlocked for
// staking.
func (l *LockManager) SetUnlockStakingOnly(stakingOnly bool) {
	l.stakingOnly.Store(stakingOnly)
}

// UnlockStakingOnly reports whether the wallet is unlocked for staking
// only.
func (l *LockManager) UnlockStakingOnly() bool {
	return l.stakingOnly.Load()
}

// SetWalletEncrypted encrypts the key store with the passphrase.
func (l *LockManager) SetWalletEncrypted(encrypted bool,
	passphrase []byte) error {

	if !encrypted {
		return ErrDecryptUnsupported
	}

	return l.keys.EncryptWallet(passphrase)
}

// SetWalletLocked locks the key store, or unlocks it with the passphrase.
func (l *LockManager) SetWalletLocked(locked bool, passphrase []byte) error {
	if locked {
		l.stakingOnly.Store(false)
		return l.keys.Lock()
	}

	return l.keys.Unlock(passphrase)
}

// ChangePassphrase locks the key store and re-encrypts it under a new
// passphrase.
func (l *LockManager) ChangePassphrase(oldPass, newPass []byte) error {
	if err := l.keys.Lock(); err != nil {
		return err
	}

	return l.keys.ChangePassphrase(oldPass, newPass)
}

// RequestUnlock makes sure the key store is unlocked for the caller. A
// wallet unlocked for staking only is locked first so the user is asked for
// a full unlock. If the wallet is locked UnlockRequired is published and
// the prompt runs synchronously. The returned context reports whether keys
// are usable and relocks the wallet on Release if this call unlocked it.
func (l *LockManager) RequestUnlock(ctx context.Context) *UnlockContext {
	wasLocked := l.EncryptionStatus() == Locked

	if !wasLocked && l.stakingOnly.Load() {
		if err := l.SetWalletLocked(true, nil); err != nil {
			log.Errorf("Unable to lock staking-only wallet: %v", err)
		}
		wasLocked = l.EncryptionStatus() == Locked
	}

	if wasLocked {
		l.notify(UnlockRequired{})
		l.promptUnlock(ctx)
	}

	valid := l.EncryptionStatus() != Locked
	relock := wasLocked && !l.stakingOnly.Load()

	log.Debugf("Unlock requested: was_locked=%v, valid=%v, relock=%v",
		wasLocked, valid, relock)

	ctxUnlock := &UnlockContext{keys: l.keys, valid: valid}
	ctxUnlock.relock.Store(relock)

	return ctxUnlock
}

func (l *LockManager) promptUnlock(ctx context.Context) {
	if l.prompt == nil {
		log.Warn(ErrNoUnlockPrompt)
		return
	}

	req, err := l.prompt.PromptUnlock(ctx)
	if err != nil {
		log.Errorf("Unlock prompt failed: %v", err)
		return
	}
	if req == nil {
		log.Debugf("Unlock declined")
		return
	}
	defer zero.Bytes(req.Passphrase)

	if err := l.keys.Unlock(req.Passphrase); err != nil {
		log.Warnf("Unable to unlock wallet: %v", err)
		return
	}
	l.stakingOnly.Store(req.StakingOnly)
}

// UnlockContext is the result of RequestUnlock. It relocks the wallet at
// most once, on the first Release of whichever context holds the relock
// duty.
type UnlockContext struct {
	keys   KeyStore
	valid  bool
	relock atomic.Bool
}

// Valid reports whether the wallet was usable when the context was
// created.
func (c *UnlockContext) Valid() bool {
	return c.valid
}

// Release relocks the wallet if this context holds the relock duty.
// Subsequent calls do nothing.
func (c *UnlockContext) Release() {
	if !c.relock.Swap(false) {
		return
	}

	if err := c.keys.Lock(); err != nil {
		log.Errorf("Unable to relock wallet: %v", err)
	}
}

// Transfer returns a new context carrying the relock duty of c. After the
// call releasing c does nothing.
func (c *UnlockContext) Transfer() *UnlockContext {
	moved := &UnlockContext{keys: c.keys, valid: c.valid}
	moved.relock.Store(c.relock.Swap(false))

	return moved
}
