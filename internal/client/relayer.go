package client

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"esw/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// RelayerClient is a client for the FHE relayer, the HTTP front of the
// coprocessor/oracle. It registers encrypted inputs and serves authorized
// user decryption; all ciphertext arithmetic stays on its side.
type RelayerClient struct {
	baseURL string
	client  *http.Client
}

// NewRelayerClient creates a new relayer client
func NewRelayerClient(baseURL string) *RelayerClient {
	return &RelayerClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type inputProofRequest struct {
	ContractAddress string            `json:"contractAddress"`
	UserAddress     string            `json:"userAddress"`
	Values          []inputProofValue `json:"values"`
}

type inputProofValue struct {
	Type  uint8  `json:"type"`
	Value string `json:"value"`
}

type inputProofResponse struct {
	Handles    []string `json:"handles"`
	InputProof string   `json:"inputProof"`
}

// CreateEncryptedInput encrypts a 64-bit value under the coprocessor key and
// returns the resulting handle with its input proof, bound to the given
// contract and user.
func (c *RelayerClient) CreateEncryptedInput(ctx context.Context, contract, user common.Address, value uint64) (fhe.EncryptedInput, error) {
	reqBody := inputProofRequest{
		ContractAddress: contract.Hex(),
		UserAddress:     user.Hex(),
		Values: []inputProofValue{
			{Type: fhe.TypeEuint64, Value: strconv.FormatUint(value, 10)},
		},
	}

	var resp inputProofResponse
	if err := c.post(ctx, "/v1/input-proof", reqBody, &resp); err != nil {
		return fhe.EncryptedInput{}, fmt.Errorf("failed to create encrypted input: %w", err)
	}
	if len(resp.Handles) != 1 {
		return fhe.EncryptedInput{}, fmt.Errorf("relayer returned %d handles, expected 1", len(resp.Handles))
	}

	handle, err := fhe.HandleFromHex(resp.Handles[0])
	if err != nil {
		return fhe.EncryptedInput{}, fmt.Errorf("relayer returned bad handle: %w", err)
	}

	proof, err := hexutil.Decode(resp.InputProof)
	if err != nil {
		return fhe.EncryptedInput{}, fmt.Errorf("relayer returned bad input proof: %w", err)
	}

	return fhe.EncryptedInput{Handle: handle, Proof: proof}, nil
}

type userDecryptRequest struct {
	Handles           []string `json:"handles"`
	PublicKey         string   `json:"publicKey"`
	Signature         string   `json:"signature"`
	ContractAddresses []string `json:"contractAddresses"`
	UserAddress       string   `json:"userAddress"`
	StartTimestamp    int64    `json:"startTimestamp"`
	DurationDays      int64    `json:"durationDays"`
}

type userDecryptResponse struct {
	Values map[string]string `json:"values"`
}

// UserDecrypt decrypts the given handles under the authorization of sig.
// Returned values are raw 64-bit patterns; signed reinterpretation is the
// caller's concern.
func (c *RelayerClient) UserDecrypt(ctx context.Context, sig *fhe.DecryptionSignature, handles []fhe.Handle) (map[fhe.Handle]uint64, error) {
	contracts := make([]string, 0, len(sig.ContractAddresses))
	for _, a := range sig.ContractAddresses {
		contracts = append(contracts, a.Hex())
	}

	hexHandles := make([]string, 0, len(handles))
	for _, h := range handles {
		hexHandles = append(hexHandles, h.Hex())
	}

	reqBody := userDecryptRequest{
		Handles:           hexHandles,
		PublicKey:         sig.PublicKey,
		Signature:         sig.Signature,
		ContractAddresses: contracts,
		UserAddress:       sig.UserAddress.Hex(),
		StartTimestamp:    sig.StartTimestamp,
		DurationDays:      sig.DurationDays,
	}

	var resp userDecryptResponse
	if err := c.post(ctx, "/v1/user-decrypt", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	out := make(map[fhe.Handle]uint64, len(resp.Values))
	for rawHandle, rawValue := range resp.Values {
		h, err := fhe.HandleFromHex(rawHandle)
		if err != nil {
			return nil, fmt.Errorf("relayer returned bad handle: %w", err)
		}
		v, err := strconv.ParseUint(rawValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("relayer returned bad value for %s: %w", rawHandle, err)
		}
		out[h] = v
	}
	return out, nil
}

// NewDecryptionSignature builds a fresh time-boxed decryption credential: an
// ephemeral keypair plus an EIP-712 signature by the wallet key binding the
// ephemeral public key to the contract set and validity window.
func (c *RelayerClient) NewDecryptionSignature(walletKey *ecdsa.PrivateKey, contracts []common.Address, chainID uint64, durationDays int) (*fhe.DecryptionSignature, error) {
	ephemeral, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral keypair: %w", err)
	}

	publicKey := hexutil.Encode(crypto.FromECDSAPub(&ephemeral.PublicKey))
	start := time.Now().Unix()

	contractHexes := make([]string, 0, len(contracts))
	for _, a := range contracts {
		contractHexes = append(contractHexes, a.Hex())
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"UserDecryptRequestVerification": {
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
			},
		},
		PrimaryType: "UserDecryptRequestVerification",
		Domain: apitypes.TypedDataDomain{
			Name:    "Decryption",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(int64(chainID)),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey":         publicKey,
			"contractAddresses": contractHexes,
			"startTimestamp":    strconv.FormatInt(start, 10),
			"durationDays":      strconv.Itoa(durationDays),
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	signature, err := crypto.Sign(digest, walletKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign decryption request: %w", err)
	}
	signature[64] += 27 // Ethereum-style recovery id

	return &fhe.DecryptionSignature{
		PrivateKey:        hexutil.Encode(crypto.FromECDSA(ephemeral)),
		PublicKey:         publicKey,
		Signature:         hexutil.Encode(signature),
		ContractAddresses: contracts,
		UserAddress:       crypto.PubkeyToAddress(walletKey.PublicKey),
		StartTimestamp:    start,
		DurationDays:      int64(durationDays),
	}, nil
}

// post sends a JSON request and decodes a JSON response
func (c *RelayerClient) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var relayerErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&relayerErr) == nil && relayerErr.Error != "" {
			return fmt.Errorf("relayer: %s (status %d)", relayerErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("relayer: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
