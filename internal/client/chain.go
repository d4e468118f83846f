package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"esw/internal/fhe"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// stableABI is the surface of the confidential stablecoin contract. All
// amount-carrying values are bytes32 ciphertext handles; clear amounts never
// appear on this interface.
const stableABI = `[
	{"type":"function","name":"getBalance","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getTotalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getRiskThreshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getRiskThresholdForCaller","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getIssuer","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"issue","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"bytes32"},{"name":"inputProof","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"bytes32"},{"name":"inputProof","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"updateRiskThreshold","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"bytes32"},{"name":"inputProof","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"performRiskCheck","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"}],"outputs":[]},
	{"type":"event","name":"Issuance","inputs":[{"name":"to","type":"address","indexed":true},{"name":"amount","type":"bytes32","indexed":false}]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"bytes32","indexed":false}]},
	{"type":"event","name":"RiskCheck","inputs":[{"name":"account","type":"address","indexed":true},{"name":"result","type":"bytes32","indexed":false}]}
]`

// ChainClient talks to the EVM JSON-RPC endpoint hosting the stablecoin
// contract. Safe for concurrent use.
type ChainClient struct {
	rpc         *ethclient.Client
	contractABI abi.ABI
	waitTimeout time.Duration

	mu       sync.RWMutex
	chainID  uint64
	contract common.Address
	wallet   common.Address
}

// NewChainClient dials the RPC endpoint and resolves the deployment for the
// active chain. Returns ErrNoDeployment (wrapped) when the chain is unknown.
func NewChainClient(ctx context.Context, rpcURL string, wallet common.Address, waitTimeout time.Duration) (*ChainClient, error) {
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(stableABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	c := &ChainClient{
		rpc:         rpc,
		contractABI: parsed,
		waitTimeout: waitTimeout,
		wallet:      wallet,
	}
	if _, _, err := c.Resolve(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve re-queries the chain id and re-resolves the contract address. The
// monitor calls this per request so a node pointed at a different network is
// noticed and treated as a session switch, not applied silently.
func (c *ChainClient) Resolve(ctx context.Context) (uint64, common.Address, error) {
	id, err := c.rpc.ChainID(ctx)
	if err != nil {
		return 0, common.Address{}, fmt.Errorf("failed to get chain id: %w", err)
	}

	contract, err := ResolveContract(id.Uint64())
	if err != nil {
		return 0, common.Address{}, err
	}

	c.mu.Lock()
	c.chainID = id.Uint64()
	c.contract = contract
	c.mu.Unlock()
	return id.Uint64(), contract, nil
}

// ChainID returns the last resolved chain id
func (c *ChainClient) ChainID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainID
}

// ContractAddress returns the last resolved contract address
func (c *ChainClient) ContractAddress() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contract
}

// WalletAddress returns the wallet this client acts for
func (c *ChainClient) WalletAddress() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallet
}

// BalanceHandle fetches the encrypted balance handle of an account
func (c *ChainClient) BalanceHandle(ctx context.Context, account common.Address) (fhe.Handle, error) {
	return c.callHandle(ctx, "getBalance", account)
}

// TotalSupplyHandle fetches the encrypted total supply handle
func (c *ChainClient) TotalSupplyHandle(ctx context.Context) (fhe.Handle, error) {
	return c.callHandle(ctx, "getTotalSupply")
}

// RiskThresholdHandle fetches the caller-scoped encrypted risk threshold
// handle. The view call carries the wallet as msg.sender so the contract can
// enforce its ACL.
func (c *ChainClient) RiskThresholdHandle(ctx context.Context) (fhe.Handle, error) {
	return c.callHandle(ctx, "getRiskThresholdForCaller")
}

// GlobalRiskThresholdHandle fetches the contract-wide risk threshold handle
func (c *ChainClient) GlobalRiskThresholdHandle(ctx context.Context) (fhe.Handle, error) {
	return c.callHandle(ctx, "getRiskThreshold")
}

// Issuer fetches the issuer address of the stablecoin
func (c *ChainClient) Issuer(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, "getIssuer")
	if err != nil {
		return common.Address{}, err
	}
	vals, err := c.contractABI.Unpack("getIssuer", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack getIssuer: %w", err)
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("unexpected getIssuer return type")
	}
	return addr, nil
}

// Issue submits an issue transaction carrying an encrypted amount
func (c *ChainClient) Issue(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, in fhe.EncryptedInput) (common.Hash, error) {
	return c.sendTx(ctx, key, "issue", to, [32]byte(in.Handle), in.Proof)
}

// Transfer submits a transfer transaction carrying an encrypted amount
func (c *ChainClient) Transfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, in fhe.EncryptedInput) (common.Hash, error) {
	return c.sendTx(ctx, key, "transfer", to, [32]byte(in.Handle), in.Proof)
}

// UpdateRiskThreshold submits an updateRiskThreshold transaction
func (c *ChainClient) UpdateRiskThreshold(ctx context.Context, key *ecdsa.PrivateKey, in fhe.EncryptedInput) (common.Hash, error) {
	return c.sendTx(ctx, key, "updateRiskThreshold", [32]byte(in.Handle), in.Proof)
}

// PerformRiskCheck submits the transaction that computes the encrypted
// comparison and grants the caller decryption rights on the result. The
// result handle is only available from the emitted RiskCheck log.
func (c *ChainClient) PerformRiskCheck(ctx context.Context, key *ecdsa.PrivateKey, account common.Address) (common.Hash, error) {
	return c.sendTx(ctx, key, "performRiskCheck", account)
}

// WaitMined polls for the transaction receipt until found or the wait timeout
// elapses.
func (c *ChainClient) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for transaction %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// RiskCheckResultHandle extracts the encrypted comparison result from the
// RiskCheck event in a mined receipt.
func (c *ChainClient) RiskCheckResultHandle(receipt *types.Receipt) (fhe.Handle, error) {
	event := c.contractABI.Events["RiskCheck"]
	contract := c.ContractAddress()

	for _, lg := range receipt.Logs {
		if lg.Address != contract || len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
			continue
		}
		vals, err := c.contractABI.Unpack("RiskCheck", lg.Data)
		if err != nil {
			return fhe.Handle{}, fmt.Errorf("failed to unpack RiskCheck log: %w", err)
		}
		raw, ok := vals[0].([32]byte)
		if !ok {
			return fhe.Handle{}, errors.New("unexpected RiskCheck result type")
		}
		return fhe.Handle(raw), nil
	}
	return fhe.Handle{}, errors.New("transaction emitted no RiskCheck event")
}

// StableEvent is one Issuance or Transfer log involving the wallet
type StableEvent struct {
	Kind         string // "ISSUANCE" or "TRANSFER"
	TxHash       common.Hash
	From         common.Address // zero for issuance
	To           common.Address
	AmountHandle fhe.Handle
	BlockNumber  uint64
	Timestamp    time.Time
}

// FilterHistory collects Issuance and Transfer logs involving the wallet,
// newest first.
func (c *ChainClient) FilterHistory(ctx context.Context, wallet common.Address) ([]StableEvent, error) {
	contract := c.ContractAddress()
	issuanceID := c.contractABI.Events["Issuance"].ID
	transferID := c.contractABI.Events["Transfer"].ID
	walletTopic := common.BytesToHash(wallet.Bytes())

	queries := []ethereum.FilterQuery{
		{Addresses: []common.Address{contract}, Topics: [][]common.Hash{{issuanceID}, {walletTopic}}},
		{Addresses: []common.Address{contract}, Topics: [][]common.Hash{{transferID}, {walletTopic}}},
		{Addresses: []common.Address{contract}, Topics: [][]common.Hash{{transferID}, nil, {walletTopic}}},
	}

	seen := make(map[string]bool)
	blockTimes := make(map[uint64]time.Time)
	events := make([]StableEvent, 0, 8)

	for _, q := range queries {
		logs, err := c.rpc.FilterLogs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to filter logs: %w", err)
		}

		for _, lg := range logs {
			dedupeKey := fmt.Sprintf("%s:%d", lg.TxHash.Hex(), lg.Index)
			if seen[dedupeKey] {
				continue
			}
			seen[dedupeKey] = true

			ts, ok := blockTimes[lg.BlockNumber]
			if !ok {
				header, err := c.rpc.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
				if err != nil {
					return nil, fmt.Errorf("failed to get block header: %w", err)
				}
				ts = time.Unix(int64(header.Time), 0)
				blockTimes[lg.BlockNumber] = ts
			}

			event, err := c.parseStableLog(lg, ts)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return events, nil
}

// parseStableLog converts a raw log into a StableEvent
func (c *ChainClient) parseStableLog(lg types.Log, ts time.Time) (StableEvent, error) {
	issuanceID := c.contractABI.Events["Issuance"].ID
	transferID := c.contractABI.Events["Transfer"].ID

	event := StableEvent{
		TxHash:      lg.TxHash,
		BlockNumber: lg.BlockNumber,
		Timestamp:   ts,
	}

	var name string
	switch {
	case len(lg.Topics) >= 2 && lg.Topics[0] == issuanceID:
		name = "Issuance"
		event.Kind = "ISSUANCE"
		event.To = common.BytesToAddress(lg.Topics[1].Bytes())
	case len(lg.Topics) >= 3 && lg.Topics[0] == transferID:
		name = "Transfer"
		event.Kind = "TRANSFER"
		event.From = common.BytesToAddress(lg.Topics[1].Bytes())
		event.To = common.BytesToAddress(lg.Topics[2].Bytes())
	default:
		return StableEvent{}, fmt.Errorf("unexpected log topics in tx %s", lg.TxHash.Hex())
	}

	vals, err := c.contractABI.Unpack(name, lg.Data)
	if err != nil {
		return StableEvent{}, fmt.Errorf("failed to unpack %s log: %w", name, err)
	}
	raw, ok := vals[0].([32]byte)
	if !ok {
		return StableEvent{}, fmt.Errorf("unexpected %s amount type", name)
	}
	event.AmountHandle = fhe.Handle(raw)
	return event, nil
}

// call executes a read-only contract call with the wallet as msg.sender
func (c *ChainClient) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	data, err := c.contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	c.mu.RLock()
	msg := ethereum.CallMsg{From: c.wallet, To: &c.contract, Data: data}
	c.mu.RUnlock()

	out, err := c.rpc.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	return out, nil
}

// callHandle executes a view call returning a single bytes32 handle
func (c *ChainClient) callHandle(ctx context.Context, method string, args ...interface{}) (fhe.Handle, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return fhe.Handle{}, err
	}

	vals, err := c.contractABI.Unpack(method, out)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	raw, ok := vals[0].([32]byte)
	if !ok {
		return fhe.Handle{}, fmt.Errorf("unexpected %s return type", method)
	}
	return fhe.Handle(raw), nil
}

// sendTx packs, signs and submits a contract transaction
func (c *ChainClient) sendTx(ctx context.Context, key *ecdsa.PrivateKey, method string, args ...interface{}) (common.Hash, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	if from != c.WalletAddress() {
		return common.Hash{}, errors.New("private key does not match wallet address")
	}

	data, err := c.contractABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	nonce, err := c.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	c.mu.RLock()
	contract := c.contract
	chainID := new(big.Int).SetUint64(c.chainID)
	c.mu.RUnlock()

	gasLimit, err := c.rpc.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &contract,
		Data: data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, contract, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed.Hash(), nil
}
