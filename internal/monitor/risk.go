package monitor

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Risk check verdicts. A risk check yields exactly one of these or a failed
// operation state, never both and never neither.
const (
	VerdictRisky = "RISK DETECTED"
	VerdictSafe  = "SAFE"
)

// RiskCheck runs the two-phase risk check for an account (the session wallet
// when account is zero). Phase one submits the transaction that computes the
// encrypted comparison and, as a side effect, grants the caller decryption
// rights on the result. Phase two extracts the result handle from the
// emitted RiskCheck log and decrypts it. The handle cannot be read from a
// view call: it only becomes decryptable through the transaction.
func (m *Monitor) RiskCheck(ctx context.Context, key *ecdsa.PrivateKey, account common.Address) (string, OpState) {
	if !m.beginOp(OpRiskCheck) {
		return "", OpState{Status: StatusFailed, Err: "a risk check is already in progress"}
	}
	defer m.endOp(OpRiskCheck)

	m.mu.Lock()
	g := m.gen
	sess := m.session
	m.mu.Unlock()

	if account == (common.Address{}) {
		account = sess.Wallet
	}

	m.setOp(OpRiskCheck, OpState{Status: StatusSubmitted})

	txHash, err := m.backend.PerformRiskCheck(ctx, key, account)
	if err != nil {
		return "", m.failOp(OpRiskCheck, fmt.Sprintf("risk check failed: %v", err))
	}
	m.setOp(OpRiskCheck, OpState{Status: StatusSubmitted, TxID: txHash.Hex()})

	receipt, err := m.backend.WaitMined(ctx, txHash)
	if err != nil {
		return "", m.failTx(OpRiskCheck, txHash, fmt.Sprintf("risk check not confirmed: %v", err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", m.failTx(OpRiskCheck, txHash, "risk check transaction reverted")
	}

	resultHandle, err := m.backend.RiskCheckResultHandle(receipt)
	if err != nil {
		return "", m.failTx(OpRiskCheck, txHash, fmt.Sprintf("risk check result missing: %v", err))
	}

	if m.stale(g) {
		return "", m.failTx(OpRiskCheck, txHash, ErrStale.Error())
	}

	result, err := m.Decrypt(ctx, key, resultHandle)
	if err != nil {
		return "", m.failTx(OpRiskCheck, txHash, fmt.Sprintf("failed to decrypt risk check result: %v", err))
	}

	m.setOp(OpRiskCheck, OpState{Status: StatusConfirmed, TxID: txHash.Hex()})

	verdict := VerdictSafe
	if result != 0 {
		verdict = VerdictRisky
	}
	m.log.Info().Str("account", account.Hex()).Str("verdict", verdict).Msg("risk check complete")
	return verdict, OpState{Status: StatusConfirmed, TxID: txHash.Hex()}
}
