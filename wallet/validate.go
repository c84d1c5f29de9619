// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sxwallet/sxwallet/narration"
	"github.com/sxwallet/sxwallet/netparams"
	"github.com/sxwallet/sxwallet/stealth"
)

// ValidateAddress parses an encoded address for the network. Strings longer
// than stealth.MinEncodedLen are tried as stealth addresses first; anything
// else must be a regular address of the network.
func ValidateAddress(addr string,
	params *netparams.Params) (Destination, error) {

	if len(addr) > stealth.MinEncodedLen {
		sx, err := stealth.Decode(addr, params.StealthAddressID)
		if err == nil {
			return &StealthDestination{Address: sx, Encoded: addr}, nil
		}
		log.Tracef("Address %s is not a stealth address: %v", addr,
			err)
	}

	decoded, err := btcutil.DecodeAddress(addr, params.Params)
	if err != nil {
		return nil, err
	}
	if !decoded.IsForNet(params.Params) {
		return nil, fmt.Errorf("%w: %s", ErrWrongNetwork, addr)
	}

	return &StandardDestination{Address: decoded}, nil
}

// ValidateRecipients checks a send request without touching the ledger.
// Recipients are checked in order and the first failure is returned: the
// address must parse, the amount must be positive and the narration must
// fit. Once every recipient passes, the request is rejected if an address
// appears twice.
func ValidateRecipients(recipients []Recipient,
	params *netparams.Params) ([]ValidatedRecipient, error) {

	validated := make([]ValidatedRecipient, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))

	for i, rcp := range recipients {
		dest, err := ValidateAddress(rcp.Address, params)
		if err != nil {
			return nil, newSendError(
				StatusInvalidAddress,
				fmt.Errorf("recipient %d: %w", i, err),
			)
		}

		if rcp.Amount <= 0 {
			return nil, newSendError(
				StatusInvalidAmount,
				fmt.Errorf("recipient %d: amount %v", i,
					rcp.Amount),
			)
		}

		if len(rcp.Narration) > narration.MaxPlaintextLen {
			return nil, newSendError(
				StatusNarrationTooLong,
				fmt.Errorf("recipient %d: %w", i,
					narration.ErrTooLong),
			)
		}

		seen[rcp.Address] = struct{}{}
		validated = append(validated, ValidatedRecipient{
			Recipient:   rcp,
			Destination: dest,
		})
	}

	if len(seen) < len(recipients) {
		return nil, ErrDuplicateAddress
	}

	return validated, nil
}
