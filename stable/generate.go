package stable

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"esw/internal/crypto"
	"esw/internal/model"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/skip2/go-qrcode"
)

const networkName = "fhevm"

// FileExistsError is an error when the keyfile already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	_, ok := err.(*FileExistsError)
	return ok
}

// GenerateWallet generates a new secp256k1 wallet and saves it to an .esw file.
// Returns the generated address on success.
// password must be []byte for security (caller should zero it after use)
func GenerateWallet(filePath string, password []byte) (address string, err error) {
	if filepath.Ext(filePath) != ".esw" {
		return "", fmt.Errorf("file must have .esw extension")
	}

	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return "", &FileExistsError{Message: "file is not empty"}
	}

	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	privateKey := ethcrypto.FromECDSA(key)
	defer clear(privateKey)

	address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	qrCode, err := generateQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: privateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	if err := crypto.EncryptKeyfile(filePath, networkName, address, qrCode, walletData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return address, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
