package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"esw/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHandleHex = "0x00000000000000000000000000000000000000000000000000000000000000aa"

func TestCreateEncryptedInput(t *testing.T) {
	contract := common.HexToAddress("0x1000000000000000000000000000000000000001")
	user := common.HexToAddress("0x2000000000000000000000000000000000000002")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/input-proof", r.URL.Path)

		var req inputProofRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, contract.Hex(), req.ContractAddress)
		assert.Equal(t, user.Hex(), req.UserAddress)
		require.Len(t, req.Values, 1)
		assert.Equal(t, fhe.TypeEuint64, req.Values[0].Type)
		assert.Equal(t, "1500000", req.Values[0].Value)

		json.NewEncoder(w).Encode(inputProofResponse{
			Handles:    []string{testHandleHex},
			InputProof: "0xdeadbeef",
		})
	}))
	defer srv.Close()

	c := NewRelayerClient(srv.URL)
	in, err := c.CreateEncryptedInput(context.Background(), contract, user, 1500000)
	require.NoError(t, err)
	assert.Equal(t, testHandleHex, in.Handle.Hex())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, in.Proof)
}

func TestCreateEncryptedInputRelayerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "coprocessor unavailable"})
	}))
	defer srv.Close()

	c := NewRelayerClient(srv.URL)
	_, err := c.CreateEncryptedInput(context.Background(), common.Address{}, common.Address{}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coprocessor unavailable")
}

func TestUserDecrypt(t *testing.T) {
	user := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sig := &fhe.DecryptionSignature{
		PublicKey:         "0xabcd",
		Signature:         "0x1234",
		ContractAddresses: []common.Address{common.HexToAddress("0x1000000000000000000000000000000000000001")},
		UserAddress:       user,
		StartTimestamp:    time.Now().Unix(),
		DurationDays:      10,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/user-decrypt", r.URL.Path)

		var req userDecryptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{testHandleHex}, req.Handles)
		assert.Equal(t, sig.PublicKey, req.PublicKey)
		assert.Equal(t, sig.Signature, req.Signature)
		assert.Equal(t, user.Hex(), req.UserAddress)

		json.NewEncoder(w).Encode(userDecryptResponse{
			Values: map[string]string{testHandleHex: "18446744073709551615"},
		})
	}))
	defer srv.Close()

	h, err := fhe.HandleFromHex(testHandleHex)
	require.NoError(t, err)

	c := NewRelayerClient(srv.URL)
	values, err := c.UserDecrypt(context.Background(), sig, []fhe.Handle{h})
	require.NoError(t, err)
	require.Len(t, values, 1)
	// Raw 64-bit pattern; the monitor applies the signed reinterpretation.
	assert.Equal(t, uint64(18446744073709551615), values[h])
	assert.Equal(t, int64(-1), fhe.ToSigned64(values[h]))
}

func TestNewDecryptionSignature(t *testing.T) {
	walletKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	user := crypto.PubkeyToAddress(walletKey.PublicKey)
	contract := common.HexToAddress("0x1000000000000000000000000000000000000001")

	c := NewRelayerClient("http://unused")
	sig, err := c.NewDecryptionSignature(walletKey, []common.Address{contract}, 31337, 10)
	require.NoError(t, err)

	assert.Equal(t, user, sig.UserAddress)
	assert.Equal(t, int64(10), sig.DurationDays)
	assert.True(t, sig.Valid(time.Now(), user))
	assert.True(t, sig.Covers(contract))

	// Ephemeral keypair is well formed and consistent.
	ephPriv, err := crypto.HexToECDSA(sig.PrivateKey[2:])
	require.NoError(t, err)
	assert.Equal(t, sig.PublicKey, hexutil.Encode(crypto.FromECDSAPub(&ephPriv.PublicKey)))

	// Wallet signature is a 65-byte Ethereum signature.
	rawSig, err := hexutil.Decode(sig.Signature)
	require.NoError(t, err)
	assert.Len(t, rawSig, 65)
	assert.GreaterOrEqual(t, rawSig[64], byte(27))
}
