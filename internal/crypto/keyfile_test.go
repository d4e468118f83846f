package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"esw/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptKeyfileRejectsWrongExtension(t *testing.T) {
	err := EncryptKeyfile(filepath.Join(t.TempDir(), "wallet.txt"), "testnet", "0xabc", "", &model.WalletData{}, []byte("pw"))
	assert.Error(t, err)
}

func TestReadWalletAddressErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadWalletAddress(filepath.Join(dir, "missing.esw"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.esw")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = ReadWalletAddress(empty)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.esw")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0600))
	_, err = ReadWalletAddress(garbage)
	assert.Error(t, err)
}

func TestKeyfileRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("scrypt with production parameters is slow")
	}

	path := filepath.Join(t.TempDir(), "wallet.esw")
	password := []byte("correct horse")
	wallet := &model.WalletData{
		PrivateKey: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		CreatedAt:  "2026-01-02T15:04:05Z",
	}

	require.NoError(t, EncryptKeyfile(path, "testnet", "0x1234", "qr-data", wallet, password))

	// Address readable without the password.
	addr, err := ReadWalletAddress(path)
	require.NoError(t, err)
	assert.Equal(t, "0x1234", addr)

	envelope, decrypted, err := DecryptKeyfile(path, password)
	require.NoError(t, err)
	assert.Equal(t, "testnet", envelope.Network)
	assert.Equal(t, wallet.PrivateKey, decrypted.PrivateKey)
	assert.Equal(t, wallet.CreatedAt, decrypted.CreatedAt)

	// Wrong password must not leak anything beyond a generic error.
	_, _, err = DecryptKeyfile(path, []byte("wrong"))
	require.EqualError(t, err, "invalid password")

	// Existing non-empty keyfile must not be overwritten.
	err = EncryptKeyfile(path, "testnet", "0x1234", "", wallet, password)
	assert.ErrorIs(t, err, os.ErrExist)
}
