package fhe

import (
	"math"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFromHex(t *testing.T) {
	h, err := HandleFromHex("0x00000000000000000000000000000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), h[31])
	assert.False(t, h.IsZero())

	_, err = HandleFromHex("0xdeadbeef")
	assert.Error(t, err, "short handle must be rejected")

	_, err = HandleFromHex("not-hex")
	assert.Error(t, err)
}

func TestZeroHandle(t *testing.T) {
	var h Handle
	assert.True(t, h.IsZero())
	assert.Equal(t, ZeroHandle, h)

	h[0] = 1
	assert.False(t, h.IsZero())
}

func TestToSigned64(t *testing.T) {
	assert.Equal(t, int64(42), ToSigned64(42))
	assert.Equal(t, int64(0), ToSigned64(0))
	// Values above the signed half range come back negative.
	assert.Equal(t, int64(-1), ToSigned64(math.MaxUint64))
	assert.Equal(t, int64(math.MinInt64), ToSigned64(1<<63))
	assert.Equal(t, int64(math.MaxInt64), ToSigned64(math.MaxInt64))
}

func TestDecryptionSignatureValidity(t *testing.T) {
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	contract := common.HexToAddress("0x3333333333333333333333333333333333333333")

	start := time.Now().Add(-time.Hour)
	sig := &DecryptionSignature{
		ContractAddresses: []common.Address{contract},
		UserAddress:       user,
		StartTimestamp:    start.Unix(),
		DurationDays:      10,
	}

	assert.True(t, sig.Valid(time.Now(), user))
	assert.False(t, sig.Valid(time.Now(), other), "signer change invalidates the signature")
	assert.False(t, sig.Valid(start.Add(-2*time.Hour), user), "not yet valid before start")
	assert.False(t, sig.Valid(start.Add(11*24*time.Hour), user), "expired after duration")

	assert.True(t, sig.Covers(contract))
	assert.False(t, sig.Covers(other))

	var nilSig *DecryptionSignature
	assert.False(t, nilSig.Valid(time.Now(), user))
}
