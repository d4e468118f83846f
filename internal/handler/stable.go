package handler

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"esw/internal/client"
	ewcommon "esw/internal/common"
	"esw/internal/config"
	"esw/internal/crypto"
	"esw/internal/model"
	"esw/internal/monitor"
	"esw/stable"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

// StableHandler serves the confidential stablecoin API. The monitor behind
// it is long-lived; each request re-resolves the session so a swapped
// keyfile or a node pointed at another network is treated as a session
// switch.
type StableHandler struct {
	filePath string
	relayer  *client.RelayerClient
	log      zerolog.Logger

	mu     sync.Mutex
	chain  *client.ChainClient
	mon    *monitor.Monitor
	wallet common.Address
}

// NewStableHandler creates a new StableHandler with config values
func NewStableHandler(log zerolog.Logger) (*StableHandler, error) {
	filePath := config.GetWalletFilePath()
	if filePath == "" {
		return nil, errors.New("WALLET_FILE_PATH not set")
	}

	return &StableHandler{
		filePath: filePath,
		relayer:  client.NewRelayerClient(config.GetRelayerURL()),
		log:      log,
	}, nil
}

// ensureMonitor resolves the current session and returns the monitor bound
// to it, rebinding (and thereby invalidating caches) when the chain, the
// contract or the wallet changed since the last request.
func (h *StableHandler) ensureMonitor(ctx context.Context) (*monitor.Monitor, *client.ChainClient, error) {
	address, err := crypto.ReadWalletAddress(h.filePath)
	if err != nil {
		return nil, nil, errors.New("wallet not found: generate one first")
	}
	wallet := common.HexToAddress(address)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.chain == nil || h.wallet != wallet {
		chain, err := client.NewChainClient(ctx, config.GetChainRPCURL(), wallet, config.GetTxWaitTimeout())
		if err != nil {
			return nil, nil, err
		}
		h.chain = chain
		h.wallet = wallet
		h.mon = nil
	} else if _, _, err := h.chain.Resolve(ctx); err != nil {
		return nil, nil, err
	}

	session := monitor.Session{
		ChainID:  h.chain.ChainID(),
		Contract: h.chain.ContractAddress(),
		Wallet:   wallet,
	}

	if h.mon == nil {
		h.mon = monitor.New(h.chain, h.relayer, session, monitor.Options{
			Debounce:      config.GetEncryptDebounce(),
			SignatureDays: config.GetDecryptSigDays(),
			Logger:        h.log,
		})
	} else {
		h.mon.Rebind(session)
	}
	return h.mon, h.chain, nil
}

// loadKey decrypts the keyfile and returns the signing key.
// Caller must not retain the key beyond the request.
func (h *StableHandler) loadKey() (*ecdsa.PrivateKey, error) {
	passwordBytes, err := config.GetWalletPasswordBytes()
	if err != nil {
		return nil, err
	}
	defer clear(passwordBytes)

	_, walletData, err := crypto.DecryptKeyfile(h.filePath, passwordBytes)
	if err != nil {
		return nil, err
	}
	defer clear(walletData.PrivateKey)

	key, err := ethcrypto.ToECDSA(walletData.PrivateKey)
	if err != nil {
		return nil, errors.New("keyfile holds an invalid private key")
	}
	return key, nil
}

// Generate handles POST /wallet/generate
// @Summary      Generate new wallet
// @Description  Generates a new secp256k1 wallet and saves it to an .esw keyfile
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Router       /wallet/generate [post]
func (h *StableHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	passwordBytes, err := config.GetWalletPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer clear(passwordBytes)

	address, err := stable.GenerateWallet(h.filePath, passwordBytes)
	if err != nil {
		if stable.IsFileExistsError(err) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully",
		Address: address,
	})
}

// GetBalance handles GET /stable/balance
// @Summary      Get encrypted balances with decrypted values
// @Description  Fetches the balance, total supply and risk threshold handles and decrypts them via the FHE relayer
// @Tags         stable
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Router       /stable/balance [get]
func (h *StableHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	mon, chain, err := h.ensureMonitor(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := mon.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	key, err := h.loadKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	handles := mon.Handles()
	resp := model.BalanceResponse{
		Address:           chain.WalletAddress().Hex(),
		ChainID:           chain.ChainID(),
		Contract:          chain.ContractAddress().Hex(),
		BalanceHandle:     handles.Balance.Hex(),
		TotalSupplyHandle: handles.TotalSupply.Hex(),
		ThresholdHandle:   handles.Threshold.Hex(),
	}

	// Decryption failures leave the clear fields empty; the handles are
	// still useful to the caller.
	if v, err := mon.Decrypt(r.Context(), key, handles.Balance); err == nil {
		resp.Balance = ewcommon.SignedUnitsToStable(v)
	}
	if v, err := mon.Decrypt(r.Context(), key, handles.TotalSupply); err == nil {
		resp.TotalSupply = ewcommon.SignedUnitsToStable(v)
	}
	if v, err := mon.Decrypt(r.Context(), key, handles.Threshold); err == nil {
		resp.RiskThreshold = ewcommon.SignedUnitsToStable(v)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Issue handles POST /stable/issue
// @Summary      Issue stablecoin
// @Description  Issues an encrypted amount to the specified address (issuer only)
// @Tags         stable
// @Accept       json
// @Produce      json
// @Param        request  body      model.OperateRequest  true  "Issuance data"
// @Success      200      {object}  model.OperateResponse
// @Router       /stable/issue [post]
func (h *StableHandler) Issue(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, func(ctx context.Context, mon *monitor.Monitor, key *ecdsa.PrivateKey, to common.Address, amount uint64) monitor.OpState {
		return mon.Issue(ctx, key, to, amount)
	})
}

// Transfer handles POST /stable/transfer
// @Summary      Transfer stablecoin
// @Description  Transfers an encrypted amount to the specified address
// @Tags         stable
// @Accept       json
// @Produce      json
// @Param        request  body      model.OperateRequest  true  "Transfer data"
// @Success      200      {object}  model.OperateResponse
// @Router       /stable/transfer [post]
func (h *StableHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, func(ctx context.Context, mon *monitor.Monitor, key *ecdsa.PrivateKey, to common.Address, amount uint64) monitor.OpState {
		return mon.Transfer(ctx, key, to, amount)
	})
}

// operate is the shared request flow for issue and transfer
func (h *StableHandler) operate(w http.ResponseWriter, r *http.Request, run func(context.Context, *monitor.Monitor, *ecdsa.PrivateKey, common.Address, uint64) monitor.OpState) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.OperateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !common.IsHexAddress(req.ToAddress) {
		writeError(w, http.StatusBadRequest, errors.New("invalid recipient address"))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mon, _, err := h.ensureMonitor(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	key, err := h.loadKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	st := run(r.Context(), mon, key, common.HexToAddress(req.ToAddress), amount)
	writeOpState(w, st)
}

// UpdateThreshold handles POST /stable/threshold
// @Summary      Update risk threshold
// @Description  Replaces the caller's encrypted risk threshold
// @Tags         stable
// @Accept       json
// @Produce      json
// @Param        request  body      model.ThresholdRequest  true  "Threshold data"
// @Success      200      {object}  model.OperateResponse
// @Router       /stable/threshold [post]
func (h *StableHandler) UpdateThreshold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mon, _, err := h.ensureMonitor(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	key, err := h.loadKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeOpState(w, mon.UpdateRiskThreshold(r.Context(), key, amount))
}

// RiskCheck handles POST /stable/riskcheck
// @Summary      Run a risk check
// @Description  Submits the risk check transaction, extracts the encrypted result from the emitted log and decrypts it
// @Tags         stable
// @Accept       json
// @Produce      json
// @Param        request  body      model.RiskCheckRequest  true  "Risk check target (optional)"
// @Success      200      {object}  model.RiskCheckResponse
// @Router       /stable/riskcheck [post]
func (h *StableHandler) RiskCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	// The target is optional; an empty body means "check my own wallet".
	var req model.RiskCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var target common.Address
	if req.Address != "" {
		if !common.IsHexAddress(req.Address) {
			writeError(w, http.StatusBadRequest, errors.New("invalid address"))
			return
		}
		target = common.HexToAddress(req.Address)
	}

	mon, _, err := h.ensureMonitor(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	key, err := h.loadKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	verdict, st := mon.RiskCheck(r.Context(), key, target)
	if st.Status == monitor.StatusFailed {
		writeJSON(w, http.StatusInternalServerError, model.RiskCheckResponse{TxID: st.TxID, Error: st.Err})
		return
	}
	writeJSON(w, http.StatusOK, model.RiskCheckResponse{Verdict: verdict, TxID: st.TxID})
}

// Status handles GET /stable/status
// @Summary      Get session and operation status
// @Description  Reports the active session, the issuer, the latest user-facing message and the state of every operation
// @Tags         stable
// @Produce      json
// @Success      200  {object}  model.StatusResponse
// @Router       /stable/status [get]
func (h *StableHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	mon, chain, err := h.ensureMonitor(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	issuer, isIssuer, err := mon.Issuer(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ops := make(map[string]model.OpStatus)
	for kind, st := range mon.OpStates() {
		ops[string(kind)] = model.OpStatus{
			Status: st.Status.String(),
			TxID:   st.TxID,
			Error:  st.Err,
		}
	}

	writeJSON(w, http.StatusOK, model.StatusResponse{
		Address:    chain.WalletAddress().Hex(),
		ChainID:    chain.ChainID(),
		Contract:   chain.ContractAddress().Hex(),
		Issuer:     issuer.Hex(),
		IsIssuer:   isIssuer,
		Message:    mon.Message(),
		Operations: ops,
	})
}

// TransactionHistory handles GET /stable/transactions
// @Summary      Get wallet transactions
// @Description  Gets Issuance/Transfer events involving the wallet; amounts stay encrypted handles
// @Tags         stable
// @Produce      json
// @Param        type  query     string  false  "Transaction type: ISSUANCE or TRANSFER"
// @Param        txId  query     string  false  "Transaction ID"
// @Param        from  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200  {object}  model.LogResponse
// @Router       /stable/transactions [get]
func (h *StableHandler) TransactionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	var req model.LogRequest

	const dateLayout = "2006-01-02"
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid from date: use YYYY-MM-DD (e.g. 2006-01-02)"))
			return
		}
		req.From = &t
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid to date: use YYYY-MM-DD (e.g. 2006-01-02)"))
			return
		}
		// End of day so filter is inclusive
		t = t.Add(24*time.Hour - time.Nanosecond)
		req.To = &t
	}
	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		txType := model.TransactionType(typeStr)
		req.Type = &txType
	}
	if txID := r.URL.Query().Get("txId"); txID != "" {
		req.TxID = &txID
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, chain, err := h.ensureMonitor(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logResp, err := stable.GetTransactions(r.Context(), chain, h.filePath, &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, logResp)
}
