// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordEvents returns a notify func collecting events and the slice it
// appends to.
func recordEvents() (func(Event), *[]Event) {
	var events []Event
	return func(e Event) { events = append(events, e) }, &events
}

func TestEncryptionStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		crypted, locked bool
		want            EncryptionStatus
	}{
		{crypted: false, locked: false, want: Unencrypted},
		{crypted: true, locked: true, want: Locked},
		{crypted: true, locked: false, want: Unlocked},
	}

	for _, test := range tests {
		keys := &mockLedger{}
		keys.On("IsCrypted").Return(test.crypted)
		keys.On("IsLocked").Return(test.locked)

		mgr := NewLockManager(keys, nil, nil)
		require.Equal(t, test.want, mgr.EncryptionStatus())
	}
}

// TestRequestUnlockUnencrypted checks that an unencrypted wallet is usable
// without prompting and is never relocked.
func TestRequestUnlockUnencrypted(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("IsCrypted").Return(false)
	prompt := &mockUnlockPrompt{}

	notify, events := recordEvents()
	mgr := NewLockManager(keys, prompt, notify)

	ctx := mgr.RequestUnlock(context.Background())
	require.True(t, ctx.Valid())
	ctx.Release()

	require.Empty(t, *events)
	prompt.AssertNotCalled(t, "PromptUnlock", mock.Anything)
	keys.AssertNotCalled(t, "Lock")
}

// TestRequestUnlockPrompted checks that a locked wallet is unlocked through
// the prompt and relocked exactly once.
func TestRequestUnlockPrompted(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("IsCrypted").Return(true)
	keys.On("IsLocked").Return(true).Once()
	keys.On("IsLocked").Return(false)
	keys.On("Unlock", []byte("hunter2")).Return(nil)
	keys.On("Lock").Return(nil)

	prompt := &mockUnlockPrompt{}
	prompt.On("PromptUnlock", mock.Anything).Return(
		&UnlockRequest{Passphrase: []byte("hunter2")}, nil,
	)

	notify, events := recordEvents()
	mgr := NewLockManager(keys, prompt, notify)

	ctx := mgr.RequestUnlock(context.Background())
	require.True(t, ctx.Valid())
	require.Equal(t, []Event{UnlockRequired{}}, *events)
	require.False(t, mgr.UnlockStakingOnly())

	ctx.Release()
	ctx.Release()
	keys.AssertNumberOfCalls(t, "Lock", 1)
	prompt.AssertExpectations(t)
}

// TestRequestUnlockDeclined checks that a declined prompt leaves the wallet
// locked and the context invalid.
func TestRequestUnlockDeclined(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("IsCrypted").Return(true)
	keys.On("IsLocked").Return(true)

	prompt := &mockUnlockPrompt{}
	prompt.On("PromptUnlock", mock.Anything).Return(nil, nil)

	mgr := NewLockManager(keys, prompt, nil)

	ctx := mgr.RequestUnlock(context.Background())
	require.False(t, ctx.Valid())
	keys.AssertNotCalled(t, "Unlock", mock.Anything)
}

// TestRequestUnlockStakingOnly checks that a wallet unlocked for staking is
// locked and fully unlocked, and that an unlock for staking only is not
// relocked on release.
func TestRequestUnlockStakingOnly(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("IsCrypted").Return(true)

	// Unlocked for staking, then locked by the manager, then unlocked
	// through the prompt.
	keys.On("IsLocked").Return(false).Once()
	keys.On("IsLocked").Return(true).Once()
	keys.On("IsLocked").Return(false)
	keys.On("Lock").Return(nil)
	keys.On("Unlock", []byte("pw")).Return(nil)

	prompt := &mockUnlockPrompt{}
	prompt.On("PromptUnlock", mock.Anything).Return(
		&UnlockRequest{Passphrase: []byte("pw"), StakingOnly: true}, nil,
	)

	mgr := NewLockManager(keys, prompt, nil)
	mgr.SetUnlockStakingOnly(true)

	ctx := mgr.RequestUnlock(context.Background())
	require.True(t, ctx.Valid())
	require.True(t, mgr.UnlockStakingOnly())
	keys.AssertNumberOfCalls(t, "Lock", 1)

	ctx.Release()
	keys.AssertNumberOfCalls(t, "Lock", 1)
}

// TestRequestUnlockStakingOnlyDeclined checks that a staking-only wallet
// whose full unlock is declined stays locked and no longer reports the
// staking-only mode.
func TestRequestUnlockStakingOnlyDeclined(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("IsCrypted").Return(true)
	keys.On("IsLocked").Return(false).Once()
	keys.On("IsLocked").Return(true)
	keys.On("Lock").Return(nil)

	prompt := &mockUnlockPrompt{}
	prompt.On("PromptUnlock", mock.Anything).Return(nil, nil)

	mgr := NewLockManager(keys, prompt, nil)
	mgr.SetUnlockStakingOnly(true)

	ctx := mgr.RequestUnlock(context.Background())
	require.False(t, ctx.Valid())
	require.False(t, mgr.UnlockStakingOnly())
	require.Equal(t, Locked, mgr.EncryptionStatus())
	keys.AssertNumberOfCalls(t, "Lock", 1)
	keys.AssertNotCalled(t, "Unlock", mock.Anything)
}

// TestUnlockContextTransfer checks that the relock duty moves with Transfer
// and is honoured once.
func TestUnlockContextTransfer(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("Lock").Return(nil)

	src := &UnlockContext{keys: keys, valid: true}
	src.relock.Store(true)

	moved := src.Transfer()
	require.True(t, moved.Valid())

	src.Release()
	keys.AssertNotCalled(t, "Lock")

	moved.Release()
	moved.Release()
	keys.AssertNumberOfCalls(t, "Lock", 1)

	// Transferring a released context carries no duty.
	again := moved.Transfer()
	again.Release()
	keys.AssertNumberOfCalls(t, "Lock", 1)
}

func TestLockManagerPassphrase(t *testing.T) {
	t.Parallel()

	keys := &mockLedger{}
	keys.On("Lock").Return(nil).Once()
	keys.On("ChangePassphrase", []byte("old"), []byte("new")).Return(nil)
	keys.On("EncryptWallet", []byte("pw")).Return(nil)

	mgr := NewLockManager(keys, nil, nil)

	require.NoError(t, mgr.ChangePassphrase([]byte("old"), []byte("new")))
	require.NoError(t, mgr.SetWalletEncrypted(true, []byte("pw")))
	require.ErrorIs(t, mgr.SetWalletEncrypted(false, nil),
		ErrDecryptUnsupported)

	keys.AssertExpectations(t)
}
