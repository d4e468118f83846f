package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	t.Setenv("WALLET_FILE_PATH", "/tmp/wallet.esw")

	require.NoError(t, Init())

	assert.Equal(t, "8080", GetPort())
	assert.Equal(t, "/tmp/wallet.esw", GetWalletFilePath())
	assert.Equal(t, "http://localhost:8545", GetChainRPCURL())
	assert.Equal(t, "http://localhost:8547", GetRelayerURL())
	assert.Equal(t, "", GetContractAddress())
	assert.Equal(t, 150*time.Millisecond, GetEncryptDebounce())
	assert.Equal(t, 10, GetDecryptSigDays())
	assert.Equal(t, 120*time.Second, GetTxWaitTimeout())
}

func TestInitOverrides(t *testing.T) {
	t.Setenv("WALLET_FILE_PATH", "/tmp/wallet.esw")
	t.Setenv("PORT", "9090")
	t.Setenv("CHAIN_RPC_URL", "https://rpc.example.org")
	t.Setenv("STABLE_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("ENCRYPT_DEBOUNCE_MS", "50")

	require.NoError(t, Init())

	assert.Equal(t, "9090", GetPort())
	assert.Equal(t, "https://rpc.example.org", GetChainRPCURL())
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", GetContractAddress())
	assert.Equal(t, 50*time.Millisecond, GetEncryptDebounce())
}

func TestInitMissingRequired(t *testing.T) {
	orig, had := os.LookupEnv("WALLET_FILE_PATH")
	os.Unsetenv("WALLET_FILE_PATH")
	t.Cleanup(func() {
		if had {
			os.Setenv("WALLET_FILE_PATH", orig)
		}
	})

	assert.Error(t, Init())
}
