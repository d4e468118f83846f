// Package fhe models the values exchanged with the FHE coprocessor: opaque
// ciphertext handles, encrypted inputs with their proofs, and the time-boxed
// decryption signature that authorizes client-side decryption. All homomorphic
// arithmetic and ACL enforcement happen on the coprocessor side.
package fhe

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Ciphertext type constants - must match the coprocessor's FheUintType enumeration
const (
	TypeEbool   uint8 = 0
	TypeEuint64 uint8 = 5
)

// Handle is an opaque 32-byte on-chain reference to a ciphertext. The handle
// itself is not decryptable without a decryption signature covering the
// contract that produced it.
type Handle [32]byte

// ZeroHandle is the sentinel the contract returns for a balance that was never
// initialized. Decrypting it always yields 0 and needs no oracle round trip.
var ZeroHandle Handle

// IsZero reports whether the handle is the all-zero sentinel
func (h Handle) IsZero() bool {
	return h == ZeroHandle
}

// Hex returns the 0x-prefixed hex encoding of the handle
func (h Handle) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// HandleFromBytes converts raw bytes to a Handle
func HandleFromBytes(b []byte) (Handle, error) {
	var h Handle
	if len(b) != len(h) {
		return h, fmt.Errorf("invalid handle length: expected %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HandleFromHex parses a 0x-prefixed hex string into a Handle
func HandleFromHex(s string) (Handle, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle hex: %w", err)
	}
	return HandleFromBytes(raw)
}

// ToSigned64 reinterprets a decrypted euint64 as a signed quantity. The
// coprocessor returns the raw 64-bit pattern; values above the signed half
// range wrap negative.
func ToSigned64(v uint64) int64 {
	return int64(v)
}

// EncryptedInput is a ciphertext registered with the coprocessor, ready to be
// passed to a contract call together with its input proof.
type EncryptedInput struct {
	Handle Handle
	Proof  []byte
}

// DecryptionSignature is a time-boxed credential authorizing the holder to
// decrypt handles produced by a fixed set of contracts. PrivateKey belongs to
// an ephemeral keypair and never leaves the client; Signature is produced by
// the wallet key over the EIP-712 request and is what the oracle verifies.
type DecryptionSignature struct {
	PrivateKey        string
	PublicKey         string
	Signature         string
	ContractAddresses []common.Address
	UserAddress       common.Address
	StartTimestamp    int64
	DurationDays      int64
}

// ExpiresAt returns the end of the signature's validity window
func (s *DecryptionSignature) ExpiresAt() time.Time {
	return time.Unix(s.StartTimestamp, 0).Add(time.Duration(s.DurationDays) * 24 * time.Hour)
}

// Valid reports whether the signature can still authorize decryption for the
// given user at the given time. A signer change always invalidates it.
func (s *DecryptionSignature) Valid(now time.Time, user common.Address) bool {
	if s == nil {
		return false
	}
	if s.UserAddress != user {
		return false
	}
	if now.Before(time.Unix(s.StartTimestamp, 0)) {
		return false
	}
	return now.Before(s.ExpiresAt())
}

// Covers reports whether the signature authorizes decryption of handles
// produced by the given contract.
func (s *DecryptionSignature) Covers(contract common.Address) bool {
	for _, c := range s.ContractAddresses {
		if c == contract {
			return true
		}
	}
	return false
}
