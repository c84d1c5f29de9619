// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// SendStatus is the outcome class of a send request.
type SendStatus uint8

const (
	// StatusOK means the transaction was committed.
	StatusOK SendStatus = iota

	// StatusInvalidAddress means a recipient address did not parse for
	// the active network.
	StatusInvalidAddress

	// StatusInvalidAmount means a recipient amount was not positive.
	StatusInvalidAmount

	// StatusDuplicateAddress means the same address appeared more than
	// once in a request.
	StatusDuplicateAddress

	// StatusAmountExceedsBalance means the requested total is above the
	// confirmed spendable balance.
	StatusAmountExceedsBalance

	// StatusAmountWithFeeExceedsBalance means the total plus the fee is
	// above the confirmed spendable balance.
	StatusAmountWithFeeExceedsBalance

	// StatusNarrationTooLong means a narration was above the plaintext
	// limit.
	StatusNarrationTooLong

	// StatusTransactionCreationFailed means the ledger could not build
	// the transaction for a reason other than insufficient funds.
	StatusTransactionCreationFailed

	// StatusTransactionCommitFailed means the ledger rejected the signed
	// transaction.
	StatusTransactionCommitFailed

	// StatusAborted means the send was cancelled, either by the fee
	// confirmation or because a stealth payment could not be derived.
	StatusAborted
)

// String returns a human readable name of the status.
func (s SendStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidAddress:
		return "invalid address"
	case StatusInvalidAmount:
		return "invalid amount"
	case StatusDuplicateAddress:
		return "duplicate address"
	case StatusAmountExceedsBalance:
		return "amount exceeds balance"
	case StatusAmountWithFeeExceedsBalance:
		return "amount with fee exceeds balance"
	case StatusNarrationTooLong:
		return "narration too long"
	case StatusTransactionCreationFailed:
		return "transaction creation failed"
	case StatusTransactionCommitFailed:
		return "transaction commit failed"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown status %d", uint8(s))
	}
}

// SendError is the error returned for every failed send. It matches the
// sentinel of its status with errors.Is.
type SendError struct {
	// Status classifies the failure.
	Status SendStatus

	// Fee is the fee that could not be covered. It is only set for
	// StatusAmountWithFeeExceedsBalance.
	Fee btcutil.Amount

	// Err is the underlying cause, if any.
	Err error
}

// A compile time check to ensure that SendError implements the error
// interface.
var _ error = (*SendError)(nil)

// Error returns the status and, if present, the fee and underlying cause.
func (e *SendError) Error() string {
	msg := e.Status.String()
	if e.Status == StatusAmountWithFeeExceedsBalance && e.Fee != 0 {
		msg = fmt.Sprintf("%s (fee %v)", msg, e.Fee)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *SendError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a SendError of the same status.
func (e *SendError) Is(target error) bool {
	var t *SendError
	if !errors.As(target, &t) {
		return false
	}

	return t.Status == e.Status
}

var (
	// ErrInvalidAddress matches send errors of StatusInvalidAddress.
	ErrInvalidAddress = &SendError{Status: StatusInvalidAddress}

	// ErrInvalidAmount matches send errors of StatusInvalidAmount.
	ErrInvalidAmount = &SendError{Status: StatusInvalidAmount}

	// ErrDuplicateAddress matches send errors of StatusDuplicateAddress.
	ErrDuplicateAddress = &SendError{Status: StatusDuplicateAddress}

	// ErrAmountExceedsBalance matches send errors of
	// StatusAmountExceedsBalance.
	ErrAmountExceedsBalance = &SendError{
		Status: StatusAmountExceedsBalance,
	}

	// ErrAmountWithFeeExceedsBalance matches send errors of
	// StatusAmountWithFeeExceedsBalance.
	ErrAmountWithFeeExceedsBalance = &SendError{
		Status: StatusAmountWithFeeExceedsBalance,
	}

	// ErrNarrationTooLong matches send errors of StatusNarrationTooLong.
	ErrNarrationTooLong = &SendError{Status: StatusNarrationTooLong}

	// ErrTransactionCreationFailed matches send errors of
	// StatusTransactionCreationFailed.
	ErrTransactionCreationFailed = &SendError{
		Status: StatusTransactionCreationFailed,
	}

	// ErrTransactionCommitFailed matches send errors of
	// StatusTransactionCommitFailed.
	ErrTransactionCommitFailed = &SendError{
		Status: StatusTransactionCommitFailed,
	}

	// ErrAborted matches send errors of StatusAborted.
	ErrAborted = &SendError{Status: StatusAborted}
)

// StatusOf returns the send status carried by err. A nil error is
// StatusOK; errors that are not send errors have no status and report
// StatusTransactionCreationFailed.
func StatusOf(err error) SendStatus {
	if err == nil {
		return StatusOK
	}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Status
	}

	return StatusTransactionCreationFailed
}

func newSendError(status SendStatus, err error) *SendError {
	return &SendError{Status: status, Err: err}
}

var (
	// ErrNoUnlockPrompt is returned when the key store is locked and no
	// prompt is configured to unlock it.
	ErrNoUnlockPrompt = errors.New("wallet is locked and no unlock " +
		"prompt is configured")

	// ErrModelStopped is returned by operations of a stopped model.
	ErrModelStopped = errors.New("wallet model stopped")

	// ErrWrongNetwork is returned when an address belongs to another
	// network.
	ErrWrongNetwork = errors.New("address is for another network")
)
