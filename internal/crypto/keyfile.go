// Package crypto implements the encrypted .esw keyfile: the wallet's
// secp256k1 private key sealed with a password-derived AES-GCM key. This is
// local key custody only; it has nothing to do with the FHE ciphertexts,
// which never leave the coprocessor.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"esw/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the local keyfile
	// Security is prioritized over performance
	//
	// N=2^18 (~256MB RAM, 0.5-2s) - optimal balance:
	//   - Maximum security while remaining compatible with modest hardware
	//   - Brute-force attacks remain extremely expensive
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	keyfileExt = ".esw"
)

// EncryptKeyfile encrypts wallet data and writes it to an .esw file
// password must be []byte for security (caller should zero it after use)
func EncryptKeyfile(filePath string, network, address, qrCode string, walletData *model.WalletData, password []byte) error {
	if filepath.Ext(filePath) != keyfileExt {
		return fmt.Errorf("file must have %s extension", keyfileExt)
	}

	// Refuse to clobber an existing keyfile
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return fmt.Errorf("file is not empty: %w", os.ErrExist)
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return err
	}

	// Serialize wallet data
	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	envelope := model.KeyfileEnvelope{
		Network:    network,
		Address:    address,
		QR:         qrCode,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}

	fileData, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keyfile: %w", err)
	}

	if err := os.WriteFile(filePath, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// DecryptKeyfile reads and decrypts an .esw file
// password must be []byte for security (caller should zero it after use)
func DecryptKeyfile(filePath string, password []byte) (*model.KeyfileEnvelope, *model.WalletData, error) {
	envelope, err := readEnvelope(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(envelope.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(envelope.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, errors.New("invalid password")
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var walletData model.WalletData
	if err := json.Unmarshal(plaintext, &walletData); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}

	return envelope, &walletData, nil
}

// ReadWalletAddress reads only the address from an .esw file (without decryption)
func ReadWalletAddress(filePath string) (string, error) {
	envelope, err := readEnvelope(filePath)
	if err != nil {
		return "", err
	}
	return envelope.Address, nil
}

// newGCM derives the AES key from password and salt and returns the AEAD
func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// readEnvelope reads and parses the keyfile JSON envelope
func readEnvelope(filePath string) (*model.KeyfileEnvelope, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("keyfile does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return nil, errors.New("keyfile is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var envelope model.KeyfileEnvelope
	if err := json.Unmarshal(fileData, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyfile: %w", err)
	}
	return &envelope, nil
}
