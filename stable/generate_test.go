package stable

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWalletRejectsWrongExtension(t *testing.T) {
	_, err := GenerateWallet(filepath.Join(t.TempDir(), "wallet.json"), []byte("pw"))
	assert.Error(t, err)
}

func TestGenerateWallet(t *testing.T) {
	if testing.Short() {
		t.Skip("scrypt with production parameters is slow")
	}

	path := filepath.Join(t.TempDir(), "wallet.esw")

	address, err := GenerateWallet(path, []byte("pw"))
	require.NoError(t, err)
	assert.True(t, common.IsHexAddress(address))

	// A non-empty keyfile must never be silently replaced.
	_, err = GenerateWallet(path, []byte("pw"))
	require.Error(t, err)
	assert.True(t, IsFileExistsError(err))
	assert.False(t, IsFileExistsError(errors.New("other")))
}
