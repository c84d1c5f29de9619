// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// This file contains mock implementations of the collaborators of the
// wallet model. They are used in tests to isolate the model from a real
// ledger and from user interaction.

package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/mock"
)

// mockLedger is a mock implementation of the Ledger interface.
type mockLedger struct {
	mock.Mock

	locks LedgerLocks
}

// A compile-time assertion to ensure that mockLedger implements the Ledger
// interface.
var _ Ledger = (*mockLedger)(nil)

// Locks implements the Ledger interface.
func (m *mockLedger) Locks() *LedgerLocks {
	return &m.locks
}

// BestHeight implements the CoinStore interface.
func (m *mockLedger) BestHeight() int32 {
	args := m.Called()
	return args.Get(0).(int32)
}

// AvailableCoins implements the CoinStore interface.
func (m *mockLedger) AvailableCoins(onlyConfirmed bool,
	cc *CoinControl) ([]SpendableOutput, error) {

	args := m.Called(onlyConfirmed, cc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]SpendableOutput), args.Error(1)
}

// Balance implements the CoinStore interface.
func (m *mockLedger) Balance(kind BalanceKind,
	filter IsMineFilter) (btcutil.Amount, error) {

	args := m.Called(kind, filter)
	return args.Get(0).(btcutil.Amount), args.Error(1)
}

// NumTransactions implements the CoinStore interface.
func (m *mockLedger) NumTransactions() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

// HaveWatchOnly implements the CoinStore interface.
func (m *mockLedger) HaveWatchOnly() bool {
	args := m.Called()
	return args.Bool(0)
}

// LookupOutput implements the CoinStore interface.
func (m *mockLedger) LookupOutput(op wire.OutPoint) (*SpendableOutput,
	error) {

	args := m.Called(op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*SpendableOutput), args.Error(1)
}

// ChangeOrigin implements the CoinStore interface.
func (m *mockLedger) ChangeOrigin(
	op wire.OutPoint) (fn.Option[SpendableOutput], error) {

	args := m.Called(op)
	return args.Get(0).(fn.Option[SpendableOutput]), args.Error(1)
}

// LockCoin implements the CoinStore interface.
func (m *mockLedger) LockCoin(op wire.OutPoint) {
	m.Called(op)
}

// UnlockCoin implements the CoinStore interface.
func (m *mockLedger) UnlockCoin(op wire.OutPoint) {
	m.Called(op)
}

// IsLockedCoin implements the CoinStore interface.
func (m *mockLedger) IsLockedCoin(op wire.OutPoint) bool {
	args := m.Called(op)
	return args.Bool(0)
}

// ListLockedCoins implements the CoinStore interface.
func (m *mockLedger) ListLockedCoins() []wire.OutPoint {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]wire.OutPoint)
}

// CreateTransaction implements the TxAuthor interface.
func (m *mockLedger) CreateTransaction(outputs []*wire.TxOut,
	cc *CoinControl, fees FeePolicy) (*DraftTx, btcutil.Amount, error) {

	args := m.Called(outputs, cc, fees)
	if args.Get(0) == nil {
		return nil, args.Get(1).(btcutil.Amount), args.Error(2)
	}

	return args.Get(0).(*DraftTx), args.Get(1).(btcutil.Amount),
		args.Error(2)
}

// CommitTransaction implements the TxAuthor interface.
func (m *mockLedger) CommitTransaction(tx *DraftTx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// IsCrypted implements the KeyStore interface.
func (m *mockLedger) IsCrypted() bool {
	args := m.Called()
	return args.Bool(0)
}

// IsLocked implements the KeyStore interface.
func (m *mockLedger) IsLocked() bool {
	args := m.Called()
	return args.Bool(0)
}

// Lock implements the KeyStore interface.
func (m *mockLedger) Lock() error {
	args := m.Called()
	return args.Error(0)
}

// Unlock implements the KeyStore interface.
func (m *mockLedger) Unlock(passphrase []byte) error {
	args := m.Called(passphrase)
	return args.Error(0)
}

// EncryptWallet implements the KeyStore interface.
func (m *mockLedger) EncryptWallet(passphrase []byte) error {
	args := m.Called(passphrase)
	return args.Error(0)
}

// ChangePassphrase implements the KeyStore interface.
func (m *mockLedger) ChangePassphrase(oldPass, newPass []byte) error {
	args := m.Called(oldPass, newPass)
	return args.Error(0)
}

// AddressBookEntry implements the AddressBook interface.
func (m *mockLedger) AddressBookEntry(
	address string) (fn.Option[AddressBookEntry], error) {

	args := m.Called(address)
	return args.Get(0).(fn.Option[AddressBookEntry]), args.Error(1)
}

// SetAddressBookEntry implements the AddressBook interface.
func (m *mockLedger) SetAddressBookEntry(entry AddressBookEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

// mockFeeConfirmer is a mock implementation of the FeeConfirmer interface.
type mockFeeConfirmer struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockFeeConfirmer implements the
// FeeConfirmer interface.
var _ FeeConfirmer = (*mockFeeConfirmer)(nil)

// ConfirmFee implements the FeeConfirmer interface.
func (m *mockFeeConfirmer) ConfirmFee(ctx context.Context,
	fee btcutil.Amount) (bool, error) {

	args := m.Called(ctx, fee)
	return args.Bool(0), args.Error(1)
}

// mockUnlockPrompt is a mock implementation of the UnlockPrompt interface.
type mockUnlockPrompt struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockUnlockPrompt implements the
// UnlockPrompt interface.
var _ UnlockPrompt = (*mockUnlockPrompt)(nil)

// PromptUnlock implements the UnlockPrompt interface.
func (m *mockUnlockPrompt) PromptUnlock(
	ctx context.Context) (*UnlockRequest, error) {

	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*UnlockRequest), args.Error(1)
}
