// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// GetOutputs returns the wallet outputs of the outpoints. Outpoints the
// ledger does not know are skipped.
func (m *Model) GetOutputs(outpoints []wire.OutPoint) ([]SpendableOutput,
	error) {

	locks := m.cfg.Ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	outputs := make([]SpendableOutput, 0, len(outpoints))
	for _, op := range outpoints {
		out, err := m.cfg.Ledger.LookupOutput(op)
		if err != nil {
			log.Debugf("Skipping output %v: %v", op, err)
			continue
		}
		outputs = append(outputs, *out)
	}

	return outputs, nil
}

// ListCoins groups the spendable outputs of the wallet, locked ones
// included, by the address that originally funded them: change is followed
// back through the transactions that created it.
func (m *Model) ListCoins() (map[string][]SpendableOutput, error) {
	locks := m.cfg.Ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	ledger := m.cfg.Ledger

	coins, err := ledger.AvailableCoins(true, nil)
	if err != nil {
		return nil, err
	}

	for _, op := range ledger.ListLockedCoins() {
		out, err := ledger.LookupOutput(op)
		if err != nil || !out.Spendable {
			continue
		}
		out.Locked = true
		coins = append(coins, *out)
	}

	grouped := make(map[string][]SpendableOutput)
	for _, coin := range coins {
		origin, err := m.changeOrigin(coin)
		if err != nil {
			return nil, err
		}

		addr := m.scriptAddress(origin.PkScript)
		grouped[addr] = append(grouped[addr], coin)
	}

	return grouped, nil
}

// changeOrigin walks back from out through change outputs to the first
// output that is not change.
func (m *Model) changeOrigin(out SpendableOutput) (SpendableOutput, error) {
	seen := map[wire.OutPoint]struct{}{out.OutPoint: {}}

	for {
		parent, err := m.cfg.Ledger.ChangeOrigin(out.OutPoint)
		if err != nil {
			return out, err
		}
		if parent.IsNone() {
			return out, nil
		}

		next := parent.UnwrapOr(out)
		if _, ok := seen[next.OutPoint]; ok {
			return out, nil
		}
		seen[next.OutPoint] = struct{}{}
		out = next
	}
}

func (m *Model) scriptAddress(pkScript []byte) string {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(
		pkScript, m.cfg.ChainParams.Params,
	)
	if err != nil || len(addrs) == 0 {
		return ""
	}

	return addrs[0].EncodeAddress()
}

// LockCoin excludes an output from coin selection.
func (m *Model) LockCoin(op wire.OutPoint) {
	locks := m.cfg.Ledger.Locks()
	locks.Lock()
	defer locks.Unlock()

	m.cfg.Ledger.LockCoin(op)
}

// UnlockCoin makes a locked output selectable again.
func (m *Model) UnlockCoin(op wire.OutPoint) {
	locks := m.cfg.Ledger.Locks()
	locks.Lock()
	defer locks.Unlock()

	m.cfg.Ledger.UnlockCoin(op)
}

// IsLockedCoin reports whether an output is locked.
func (m *Model) IsLockedCoin(op wire.OutPoint) bool {
	locks := m.cfg.Ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return m.cfg.Ledger.IsLockedCoin(op)
}

// ListLockedCoins returns every locked output.
func (m *Model) ListLockedCoins() []wire.OutPoint {
	locks := m.cfg.Ledger.Locks()
	locks.RLock()
	defer locks.RUnlock()

	return m.cfg.Ledger.ListLockedCoins()
}
