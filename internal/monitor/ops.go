package monitor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"esw/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// OpKind identifies one of the wallet's operations
type OpKind string

const (
	OpIssue     OpKind = "issue"
	OpTransfer  OpKind = "transfer"
	OpThreshold OpKind = "threshold"
	OpRiskCheck OpKind = "riskcheck"
)

// OpStatus is the explicit state machine every mutating operation moves
// through.
type OpStatus int

const (
	StatusIdle OpStatus = iota
	StatusEncrypting
	StatusSubmitted
	StatusConfirmed
	StatusFailed
)

// String returns the lower-case name of the status
func (s OpStatus) String() string {
	switch s {
	case StatusEncrypting:
		return "encrypting"
	case StatusSubmitted:
		return "submitted"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// OpState is the observable state of one operation. Err is only set when
// Status is StatusFailed; it is always human-readable text, never a fault to
// rethrow.
type OpState struct {
	Status OpStatus
	TxID   string
	Err    string
}

// OpStates returns a snapshot of all operation states
func (m *Monitor) OpStates() map[OpKind]OpState {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[OpKind]OpState, len(m.ops))
	for _, k := range []OpKind{OpIssue, OpTransfer, OpThreshold, OpRiskCheck} {
		out[k] = m.ops[k]
	}
	return out
}

// Issue mints encrypted stablecoin to a recipient. Issuer-only on the
// contract side; a non-issuer caller gets the revert as a failure state.
func (m *Monitor) Issue(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount uint64) OpState {
	return m.mutate(ctx, OpIssue, key, amount, func(in fhe.EncryptedInput) (common.Hash, error) {
		return m.backend.Issue(ctx, key, to, in)
	})
}

// Transfer moves an encrypted amount to a recipient
func (m *Monitor) Transfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount uint64) OpState {
	return m.mutate(ctx, OpTransfer, key, amount, func(in fhe.EncryptedInput) (common.Hash, error) {
		return m.backend.Transfer(ctx, key, to, in)
	})
}

// UpdateRiskThreshold replaces the caller's encrypted risk threshold
func (m *Monitor) UpdateRiskThreshold(ctx context.Context, key *ecdsa.PrivateKey, amount uint64) OpState {
	return m.mutate(ctx, OpThreshold, key, amount, func(in fhe.EncryptedInput) (common.Hash, error) {
		return m.backend.UpdateRiskThreshold(ctx, key, in)
	})
}

// mutate runs the shared state machine for a mutating operation:
// idle → encrypting → submitted → confirmed | failed. Each operation is
// exclusive with itself only; the contract's own atomicity arbitrates
// between different operations running concurrently. On success exactly one
// refresh is triggered. Errors are captured as text; nothing is retried or
// rolled back, the contract state is the only source of truth.
func (m *Monitor) mutate(ctx context.Context, kind OpKind, key *ecdsa.PrivateKey, amount uint64, submit func(fhe.EncryptedInput) (common.Hash, error)) OpState {
	if !m.beginOp(kind) {
		return OpState{Status: StatusFailed, Err: fmt.Sprintf("a %s operation is already in progress", kind)}
	}
	defer m.endOp(kind)

	m.mu.Lock()
	g := m.gen
	sess := m.session
	m.mu.Unlock()

	m.setOp(kind, OpState{Status: StatusEncrypting})

	// Fixed settle delay before encrypting the input.
	select {
	case <-ctx.Done():
		return m.failOp(kind, fmt.Sprintf("%s canceled", kind))
	case <-time.After(m.debounce):
	}

	in, err := m.oracle.CreateEncryptedInput(ctx, sess.Contract, sess.Wallet, amount)
	if err != nil {
		return m.failOp(kind, fmt.Sprintf("failed to encrypt %s amount: %v", kind, err))
	}

	if m.stale(g) {
		return m.failOp(kind, ErrStale.Error())
	}

	txHash, err := submit(in)
	if err != nil {
		return m.failOp(kind, fmt.Sprintf("%s failed: %v", kind, err))
	}
	m.setOp(kind, OpState{Status: StatusSubmitted, TxID: txHash.Hex()})
	m.log.Info().Str("op", string(kind)).Str("tx", txHash.Hex()).Msg("transaction submitted")

	receipt, err := m.backend.WaitMined(ctx, txHash)
	if err != nil {
		return m.failTx(kind, txHash, fmt.Sprintf("%s not confirmed: %v", kind, err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return m.failTx(kind, txHash, fmt.Sprintf("%s transaction reverted", kind))
	}

	if m.stale(g) {
		return m.failTx(kind, txHash, ErrStale.Error())
	}

	st := OpState{Status: StatusConfirmed, TxID: txHash.Hex()}
	m.setOp(kind, st)
	m.log.Info().Str("op", string(kind)).Str("tx", txHash.Hex()).Msg("transaction confirmed")

	// Exactly one refresh per successful mutation. A refresh failure leaves
	// the operation confirmed; it surfaces through the status message.
	if err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("post-mutation refresh failed")
	}
	return st
}

// beginOp acquires the per-operation busy flag
func (m *Monitor) beginOp(kind OpKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[kind] {
		return false
	}
	m.busy[kind] = true
	return true
}

// endOp releases the per-operation busy flag
func (m *Monitor) endOp(kind OpKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[kind] = false
}

// setOp records the state of an operation
func (m *Monitor) setOp(kind OpKind, st OpState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[kind] = st
}

// failOp marks an operation failed with a user-facing reason
func (m *Monitor) failOp(kind OpKind, reason string) OpState {
	return m.failTx(kind, common.Hash{}, reason)
}

// failTx marks an operation failed while keeping its transaction id
func (m *Monitor) failTx(kind OpKind, txHash common.Hash, reason string) OpState {
	st := OpState{Status: StatusFailed, Err: reason}
	if txHash != (common.Hash{}) {
		st.TxID = txHash.Hex()
	}

	m.mu.Lock()
	m.ops[kind] = st
	m.message = reason
	m.mu.Unlock()

	m.log.Warn().Str("op", string(kind)).Msg(reason)
	return st
}
