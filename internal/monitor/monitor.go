// Package monitor owns all cross-request wallet state: the current session
// (chain id, contract, signer), the last-seen ciphertext handles, the clear
// value cache and the decryption signature cache. Every asynchronous result
// is committed only after comparing a generation counter captured when the
// work started, so nothing computed under one session can surface under
// another. In-flight requests are never aborted; their results are dropped.
package monitor

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"esw/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrStale signals that the session changed while a request was in flight
// and its result was discarded.
var ErrStale = errors.New("session changed; result discarded")

// Session identifies who the monitor is acting for and where. Any change to
// any field is a session switch.
type Session struct {
	ChainID  uint64
	Contract common.Address
	Wallet   common.Address
}

// Backend is the chain surface the monitor drives
type Backend interface {
	BalanceHandle(ctx context.Context, account common.Address) (fhe.Handle, error)
	TotalSupplyHandle(ctx context.Context) (fhe.Handle, error)
	RiskThresholdHandle(ctx context.Context) (fhe.Handle, error)
	Issuer(ctx context.Context) (common.Address, error)
	Issue(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, in fhe.EncryptedInput) (common.Hash, error)
	Transfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, in fhe.EncryptedInput) (common.Hash, error)
	UpdateRiskThreshold(ctx context.Context, key *ecdsa.PrivateKey, in fhe.EncryptedInput) (common.Hash, error)
	PerformRiskCheck(ctx context.Context, key *ecdsa.PrivateKey, account common.Address) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	RiskCheckResultHandle(receipt *types.Receipt) (fhe.Handle, error)
}

// Oracle is the FHE relayer surface the monitor drives
type Oracle interface {
	CreateEncryptedInput(ctx context.Context, contract, user common.Address, value uint64) (fhe.EncryptedInput, error)
	UserDecrypt(ctx context.Context, sig *fhe.DecryptionSignature, handles []fhe.Handle) (map[fhe.Handle]uint64, error)
	NewDecryptionSignature(walletKey *ecdsa.PrivateKey, contracts []common.Address, chainID uint64, durationDays int) (*fhe.DecryptionSignature, error)
}

// Handles is the snapshot of the last committed ciphertext handles
type Handles struct {
	Balance     fhe.Handle
	TotalSupply fhe.Handle
	Threshold   fhe.Handle
}

// Options configures a Monitor
type Options struct {
	// Debounce is the fixed delay applied before encrypting a mutating
	// operation's input.
	Debounce time.Duration
	// SignatureDays is the validity window requested for decryption
	// signatures.
	SignatureDays int
	Logger        zerolog.Logger
}

// Monitor coordinates chain reads, mutating transactions and oracle
// decryption for one wallet session. Safe for concurrent use.
type Monitor struct {
	backend  Backend
	oracle   Oracle
	debounce time.Duration
	sigDays  int
	log      zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	session Session
	handles Handles
	clear   map[fhe.Handle]int64
	decSig  *fhe.DecryptionSignature
	ops     map[OpKind]OpState
	message string
	busy    map[OpKind]bool
}

// New creates a Monitor bound to the given session
func New(backend Backend, oracle Oracle, session Session, opts Options) *Monitor {
	if opts.SignatureDays <= 0 {
		opts.SignatureDays = 10
	}
	return &Monitor{
		backend:  backend,
		oracle:   oracle,
		debounce: opts.Debounce,
		sigDays:  opts.SignatureDays,
		log:      opts.Logger,
		session:  session,
		clear:    make(map[fhe.Handle]int64),
		ops:      make(map[OpKind]OpState),
		busy:     make(map[OpKind]bool),
	}
}

// Rebind installs a new session. If anything changed (chain, contract or
// signer) the generation counter is bumped and every cache tied to the old
// session is dropped: clear values, decryption signature and handles.
func (m *Monitor) Rebind(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s == m.session {
		return
	}

	m.log.Info().
		Uint64("old_chain", m.session.ChainID).
		Uint64("new_chain", s.ChainID).
		Str("new_wallet", s.Wallet.Hex()).
		Msg("session switch")

	m.gen++
	m.session = s
	m.handles = Handles{}
	m.clear = make(map[fhe.Handle]int64)
	m.decSig = nil
	m.ops = make(map[OpKind]OpState)
	m.message = ""
}

// Session returns the current session
func (m *Monitor) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Handles returns the last committed handle snapshot
func (m *Monitor) Handles() Handles {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles
}

// Message returns the latest user-facing status message
func (m *Monitor) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

// Refresh fetches the balance, total supply and risk threshold handles in
// parallel and commits them, unless the session changed while the fetches
// were in flight, in which case the results are dropped (ErrStale). Failures
// surface as a user-visible message; nothing is retried.
func (m *Monitor) Refresh(ctx context.Context) error {
	m.mu.Lock()
	g := m.gen
	sess := m.session
	m.mu.Unlock()

	var balance, supply, threshold fhe.Handle

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		balance, err = m.backend.BalanceHandle(egCtx, sess.Wallet)
		return err
	})
	eg.Go(func() error {
		var err error
		supply, err = m.backend.TotalSupplyHandle(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		threshold, err = m.backend.RiskThresholdHandle(egCtx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return m.fail(fmt.Sprintf("failed to refresh encrypted state: %v", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if g != m.gen {
		m.log.Debug().Msg("refresh dropped: stale session")
		return ErrStale
	}

	m.handles = Handles{Balance: balance, TotalSupply: supply, Threshold: threshold}
	return nil
}

// Decrypt resolves a ciphertext handle to its clear value. The all-zero
// sentinel short-circuits to 0 with no oracle round trip; a cached clear
// value for the same handle is reused. Staleness is checked both after the
// signature step and after the decryption round trip.
func (m *Monitor) Decrypt(ctx context.Context, key *ecdsa.PrivateKey, h fhe.Handle) (int64, error) {
	if h.IsZero() {
		return 0, nil
	}

	m.mu.Lock()
	if v, ok := m.clear[h]; ok {
		m.mu.Unlock()
		return v, nil
	}
	g := m.gen
	sess := m.session
	sig := m.decSig
	m.mu.Unlock()

	if !sig.Valid(time.Now(), sess.Wallet) || !sig.Covers(sess.Contract) {
		fresh, err := m.oracle.NewDecryptionSignature(key, []common.Address{sess.Contract}, sess.ChainID, m.sigDays)
		if err != nil {
			return 0, m.fail(fmt.Sprintf("failed to build decryption signature: %v", err))
		}

		m.mu.Lock()
		if g != m.gen {
			m.mu.Unlock()
			return 0, ErrStale
		}
		m.decSig = fresh
		m.mu.Unlock()
		sig = fresh
	}

	values, err := m.oracle.UserDecrypt(ctx, sig, []fhe.Handle{h})
	if err != nil {
		return 0, m.fail(fmt.Sprintf("decryption failed: %v", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if g != m.gen {
		m.log.Debug().Str("handle", h.Hex()).Msg("decryption result dropped: stale session")
		return 0, ErrStale
	}

	raw, ok := values[h]
	if !ok {
		m.message = "oracle returned no value for the requested handle"
		return 0, errors.New(m.message)
	}

	v := fhe.ToSigned64(raw)
	m.clear[h] = v
	return v, nil
}

// Issuer reports the stablecoin issuer and whether the session wallet is it
func (m *Monitor) Issuer(ctx context.Context) (common.Address, bool, error) {
	issuer, err := m.backend.Issuer(ctx)
	if err != nil {
		return common.Address{}, false, m.fail(fmt.Sprintf("failed to read issuer: %v", err))
	}
	return issuer, issuer == m.Session().Wallet, nil
}

// stale reports whether the generation moved past g
func (m *Monitor) stale(g uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return g != m.gen
}

// fail records a user-facing message and returns it as an error
func (m *Monitor) fail(msg string) error {
	m.mu.Lock()
	m.message = msg
	m.mu.Unlock()
	m.log.Warn().Msg(msg)
	return errors.New(msg)
}
