package monitor

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"esw/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleOf(b byte) fhe.Handle {
	var h fhe.Handle
	h[31] = b
	return h
}

type fakeBackend struct {
	mu sync.Mutex

	balance   fhe.Handle
	supply    fhe.Handle
	threshold fhe.Handle

	balanceCalls   int
	supplyCalls    int
	thresholdCalls int

	fetchErr   error
	submitErr  error
	waitErr    error
	waitStatus uint64

	riskHandle fhe.Handle
	riskErr    error

	submitted []common.Hash

	onBalance func()
	onWait    func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		balance:    handleOf(0x01),
		supply:     handleOf(0x02),
		threshold:  handleOf(0x03),
		waitStatus: types.ReceiptStatusSuccessful,
		riskHandle: handleOf(0x04),
	}
}

func (b *fakeBackend) BalanceHandle(ctx context.Context, account common.Address) (fhe.Handle, error) {
	b.mu.Lock()
	b.balanceCalls++
	h, err, hook := b.balance, b.fetchErr, b.onBalance
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return h, err
}

func (b *fakeBackend) TotalSupplyHandle(ctx context.Context) (fhe.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.supplyCalls++
	return b.supply, b.fetchErr
}

func (b *fakeBackend) RiskThresholdHandle(ctx context.Context) (fhe.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.thresholdCalls++
	return b.threshold, b.fetchErr
}

func (b *fakeBackend) Issuer(ctx context.Context) (common.Address, error) {
	return common.HexToAddress("0x00000000000000000000000000000000000000ee"), nil
}

func (b *fakeBackend) submit() (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return common.Hash{}, b.submitErr
	}
	tx := common.BytesToHash([]byte{byte(len(b.submitted) + 1)})
	b.submitted = append(b.submitted, tx)
	return tx, nil
}

func (b *fakeBackend) Issue(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, in fhe.EncryptedInput) (common.Hash, error) {
	return b.submit()
}

func (b *fakeBackend) Transfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, in fhe.EncryptedInput) (common.Hash, error) {
	return b.submit()
}

func (b *fakeBackend) UpdateRiskThreshold(ctx context.Context, key *ecdsa.PrivateKey, in fhe.EncryptedInput) (common.Hash, error) {
	return b.submit()
}

func (b *fakeBackend) PerformRiskCheck(ctx context.Context, key *ecdsa.PrivateKey, account common.Address) (common.Hash, error) {
	return b.submit()
}

func (b *fakeBackend) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	err, status, hook := b.waitErr, b.waitStatus, b.onWait
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &types.Receipt{Status: status, TxHash: txHash}, nil
}

func (b *fakeBackend) RiskCheckResultHandle(receipt *types.Receipt) (fhe.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.riskHandle, b.riskErr
}

type fakeOracle struct {
	mu sync.Mutex

	values map[fhe.Handle]uint64

	encryptCalls int
	decryptCalls int
	sigCalls     int

	encryptErr error
	decryptErr error

	onEncrypt func()
	onDecrypt func()
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{values: make(map[fhe.Handle]uint64)}
}

func (o *fakeOracle) CreateEncryptedInput(ctx context.Context, contract, user common.Address, value uint64) (fhe.EncryptedInput, error) {
	o.mu.Lock()
	o.encryptCalls++
	err, hook := o.encryptErr, o.onEncrypt
	o.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return fhe.EncryptedInput{}, err
	}
	return fhe.EncryptedInput{Handle: handleOf(0x99), Proof: []byte{1}}, nil
}

func (o *fakeOracle) UserDecrypt(ctx context.Context, sig *fhe.DecryptionSignature, handles []fhe.Handle) (map[fhe.Handle]uint64, error) {
	o.mu.Lock()
	o.decryptCalls++
	err, hook := o.decryptErr, o.onDecrypt
	values := make(map[fhe.Handle]uint64)
	for _, h := range handles {
		if v, ok := o.values[h]; ok {
			values[h] = v
		}
	}
	o.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (o *fakeOracle) NewDecryptionSignature(walletKey *ecdsa.PrivateKey, contracts []common.Address, chainID uint64, durationDays int) (*fhe.DecryptionSignature, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sigCalls++
	return &fhe.DecryptionSignature{
		PublicKey:         "0xephemeral",
		Signature:         "0xsigned",
		ContractAddresses: contracts,
		UserAddress:       crypto.PubkeyToAddress(walletKey.PublicKey),
		StartTimestamp:    time.Now().Unix(),
		DurationDays:      int64(durationDays),
	}, nil
}

func newTestMonitor(t *testing.T) (*Monitor, *fakeBackend, *fakeOracle, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	backend := newFakeBackend()
	oracle := newFakeOracle()
	session := Session{
		ChainID:  31337,
		Contract: common.HexToAddress("0x00000000000000000000000000000000000000cc"),
		Wallet:   crypto.PubkeyToAddress(key.PublicKey),
	}
	m := New(backend, oracle, session, Options{
		Debounce:      time.Millisecond,
		SignatureDays: 10,
		Logger:        zerolog.Nop(),
	})
	return m, backend, oracle, key
}

// otherSession is a session under a different signer and chain.
func otherSession() Session {
	return Session{
		ChainID:  11155111,
		Contract: common.HexToAddress("0x00000000000000000000000000000000000000dd"),
		Wallet:   common.HexToAddress("0x00000000000000000000000000000000000000ff"),
	}
}

func TestRefreshCommitsHandles(t *testing.T) {
	m, backend, _, _ := newTestMonitor(t)

	require.NoError(t, m.Refresh(context.Background()))

	h := m.Handles()
	assert.Equal(t, backend.balance, h.Balance)
	assert.Equal(t, backend.supply, h.TotalSupply)
	assert.Equal(t, backend.threshold, h.Threshold)
	assert.Equal(t, 1, backend.balanceCalls)
	assert.Equal(t, 1, backend.supplyCalls)
	assert.Equal(t, 1, backend.thresholdCalls)
}

func TestRefreshDroppedAfterSessionSwitch(t *testing.T) {
	m, backend, _, _ := newTestMonitor(t)
	backend.onBalance = func() { m.Rebind(otherSession()) }

	err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, Handles{}, m.Handles(), "handles fetched under the old session must not be committed")
}

func TestRefreshErrorSurfacesMessage(t *testing.T) {
	m, backend, _, _ := newTestMonitor(t)
	backend.fetchErr = errors.New("rpc: connection refused")

	err := m.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, m.Message(), "failed to refresh")
	assert.Equal(t, Handles{}, m.Handles())
}

func TestDecryptZeroHandleNoRoundTrip(t *testing.T) {
	m, _, oracle, key := newTestMonitor(t)

	v, err := m.Decrypt(context.Background(), key, fhe.ZeroHandle)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, 0, oracle.decryptCalls, "zero sentinel must not reach the oracle")
	assert.Equal(t, 0, oracle.sigCalls)
}

func TestDecryptCachesByHandle(t *testing.T) {
	m, _, oracle, key := newTestMonitor(t)
	h1, h2 := handleOf(0x10), handleOf(0x20)
	oracle.values[h1] = 100
	oracle.values[h2] = 250

	v, err := m.Decrypt(context.Background(), key, h1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)

	// Same handle again: served from cache, no extra round trip.
	v, err = m.Decrypt(context.Background(), key, h1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)
	assert.Equal(t, 1, oracle.decryptCalls)

	// The balance moved: a new handle must never be answered with the old
	// clear value.
	v, err = m.Decrypt(context.Background(), key, h2)
	require.NoError(t, err)
	assert.Equal(t, int64(250), v)
	assert.Equal(t, 2, oracle.decryptCalls)
}

func TestDecryptSignedReinterpretation(t *testing.T) {
	m, _, oracle, key := newTestMonitor(t)
	h := handleOf(0x10)
	oracle.values[h] = math.MaxUint64 // raw pattern of -1

	v, err := m.Decrypt(context.Background(), key, h)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)
}

func TestDecryptDroppedAfterSessionSwitch(t *testing.T) {
	m, _, oracle, key := newTestMonitor(t)
	h := handleOf(0x10)
	oracle.values[h] = 777
	oracle.onDecrypt = func() { m.Rebind(otherSession()) }

	_, err := m.Decrypt(context.Background(), key, h)
	assert.ErrorIs(t, err, ErrStale)

	// Nothing from the old session may be served after the switch.
	oracle.onDecrypt = nil
	calls := oracle.decryptCalls
	_, err = m.Decrypt(context.Background(), key, h)
	require.NoError(t, err)
	assert.Equal(t, calls+1, oracle.decryptCalls, "stale result must not have been cached")
}

func TestDecryptSignatureReusedUntilSessionSwitch(t *testing.T) {
	m, _, oracle, key := newTestMonitor(t)
	h1, h2 := handleOf(0x10), handleOf(0x20)
	oracle.values[h1] = 1
	oracle.values[h2] = 2

	_, err := m.Decrypt(context.Background(), key, h1)
	require.NoError(t, err)
	_, err = m.Decrypt(context.Background(), key, h2)
	require.NoError(t, err)
	assert.Equal(t, 1, oracle.sigCalls, "signature must be reused across decrypts")

	// Signer change invalidates the cached signature.
	m.Rebind(otherSession())
	oracle.values[h1] = 1
	_, err = m.Decrypt(context.Background(), key, h1)
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.sigCalls)
}

func TestIssueLifecycle(t *testing.T) {
	m, backend, oracle, key := newTestMonitor(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000000ab")

	st := m.Issue(context.Background(), key, to, 5_000_000)
	require.Equal(t, StatusConfirmed, st.Status)
	assert.NotEmpty(t, st.TxID)
	assert.Empty(t, st.Err)
	assert.Equal(t, 1, oracle.encryptCalls)

	// Exactly one refresh after the successful mutation.
	assert.Equal(t, 1, backend.balanceCalls)
	assert.Equal(t, 1, backend.supplyCalls)
	assert.Equal(t, 1, backend.thresholdCalls)
	assert.Equal(t, backend.balance, m.Handles().Balance)
}

func TestMutateBusyGuard(t *testing.T) {
	m, _, _, key := newTestMonitor(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000000ab")

	require.True(t, m.beginOp(OpTransfer))
	st := m.Transfer(context.Background(), key, to, 1)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Err, "already in progress")
	m.endOp(OpTransfer)

	// Different operations are not exclusive with each other.
	require.True(t, m.beginOp(OpIssue))
	st = m.Transfer(context.Background(), key, to, 1)
	assert.Equal(t, StatusConfirmed, st.Status)
	m.endOp(OpIssue)
}

func TestMutateStaleBeforeSubmit(t *testing.T) {
	m, backend, oracle, key := newTestMonitor(t)
	oracle.onEncrypt = func() { m.Rebind(otherSession()) }

	st := m.Transfer(context.Background(), key, common.Address{}, 1)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Err, "session changed")
	assert.Empty(t, backend.submitted, "stale operation must not be submitted")
}

func TestMutateStaleAfterConfirmation(t *testing.T) {
	m, backend, _, key := newTestMonitor(t)
	backend.onWait = func() { m.Rebind(otherSession()) }

	st := m.Transfer(context.Background(), key, common.Address{}, 1)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Err, "session changed")
	// Rebind resets op states; no refresh for the old session. The fetch
	// counters only move if a stale refresh slipped through.
	assert.Equal(t, 0, backend.balanceCalls)
}

func TestMutateReverted(t *testing.T) {
	m, backend, _, key := newTestMonitor(t)
	backend.waitStatus = types.ReceiptStatusFailed

	st := m.UpdateRiskThreshold(context.Background(), key, 42)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Err, "reverted")
	assert.Equal(t, 0, backend.balanceCalls, "failed mutation must not refresh")
}

func TestMutateSubmitError(t *testing.T) {
	m, backend, _, key := newTestMonitor(t)
	backend.submitErr = errors.New("insufficient funds for gas")

	st := m.Issue(context.Background(), key, common.Address{}, 1)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Err, "insufficient funds")
	assert.Contains(t, m.Message(), "insufficient funds")
}

func riskOutcomeIsExclusive(t *testing.T, verdict string, st OpState) {
	t.Helper()
	if st.Status == StatusFailed {
		assert.Empty(t, verdict)
		assert.NotEmpty(t, st.Err)
	} else {
		assert.Contains(t, []string{VerdictRisky, VerdictSafe}, verdict)
		assert.Empty(t, st.Err)
	}
}

func TestRiskCheckVerdicts(t *testing.T) {
	t.Run("risky", func(t *testing.T) {
		m, backend, oracle, key := newTestMonitor(t)
		oracle.values[backend.riskHandle] = 1

		verdict, st := m.RiskCheck(context.Background(), key, common.Address{})
		require.Equal(t, StatusConfirmed, st.Status)
		assert.Equal(t, VerdictRisky, verdict)
		riskOutcomeIsExclusive(t, verdict, st)
	})

	t.Run("safe", func(t *testing.T) {
		m, backend, oracle, key := newTestMonitor(t)
		oracle.values[backend.riskHandle] = 0

		verdict, st := m.RiskCheck(context.Background(), key, common.Address{})
		require.Equal(t, StatusConfirmed, st.Status)
		assert.Equal(t, VerdictSafe, verdict)
		riskOutcomeIsExclusive(t, verdict, st)
	})

	t.Run("missing event", func(t *testing.T) {
		m, backend, _, key := newTestMonitor(t)
		backend.riskErr = errors.New("transaction emitted no RiskCheck event")

		verdict, st := m.RiskCheck(context.Background(), key, common.Address{})
		assert.Equal(t, StatusFailed, st.Status)
		riskOutcomeIsExclusive(t, verdict, st)
	})

	t.Run("stale session", func(t *testing.T) {
		m, backend, _, key := newTestMonitor(t)
		backend.onWait = func() { m.Rebind(otherSession()) }

		verdict, st := m.RiskCheck(context.Background(), key, common.Address{})
		assert.Equal(t, StatusFailed, st.Status)
		assert.Contains(t, st.Err, "session changed")
		riskOutcomeIsExclusive(t, verdict, st)
	})
}

func TestRebindSameSessionKeepsCaches(t *testing.T) {
	m, _, oracle, key := newTestMonitor(t)
	h := handleOf(0x10)
	oracle.values[h] = 9

	_, err := m.Decrypt(context.Background(), key, h)
	require.NoError(t, err)

	m.Rebind(m.Session()) // no-op rebind
	_, err = m.Decrypt(context.Background(), key, h)
	require.NoError(t, err)
	assert.Equal(t, 1, oracle.decryptCalls, "identical session must not drop caches")
}
